package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/swassyman/heart/internal/config"
	"github.com/swassyman/heart/internal/contracts"
	"github.com/swassyman/heart/internal/mq"
	"github.com/swassyman/heart/internal/notify"
	"github.com/swassyman/heart/internal/session"
)

func main() {
	cfg := config.Load()
	logger := cfg.Logger().With("service", "alert-service")

	if !cfg.KafkaEnabled() {
		logger.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dedupe notify.Deduper = notify.NewMemoryDeduper()
	if cfg.RedisURL != "" {
		client, err := session.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("redis unavailable", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		dedupe = notify.NewRedisDeduper(client)
	}
	notifier := notify.NewNotifier(dedupe, cfg.AlertCooldown, logger)

	reader := mq.NewReader(cfg.KafkaBrokers, cfg.KafkaTopicAlerts, cfg.ConsumerGroupPrefix+"-alert-service")
	defer reader.Close()

	logger.Info("consuming", "topic", cfg.KafkaTopicAlerts, "cooldown", cfg.AlertCooldown)
	_ = mq.Consume(ctx, reader, logger, func(ctx context.Context, event contracts.AlertRaised) error {
		_, err := notifier.Handle(ctx, event)
		return err
	})
	logger.Info("shutting down")
}
