package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/swassyman/heart/internal/app"
	"github.com/swassyman/heart/internal/config"
	"github.com/swassyman/heart/internal/contracts"
	"github.com/swassyman/heart/internal/mq"
	"github.com/swassyman/heart/internal/query"
)

func main() {
	cfg := config.Load()
	logger := cfg.Logger().With("service", "risk-engine")

	if !cfg.KafkaEnabled() {
		logger.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		logger.Warn("no DATABASE_URL: findings are aggregated into a private in-memory store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("store unavailable", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	engine, err := app.NewEngine(cfg)
	if err != nil {
		logger.Error("risk config rejected", "error", err)
		os.Exit(1)
	}

	reader := mq.NewReader(cfg.KafkaBrokers, cfg.KafkaTopicFindings, cfg.ConsumerGroupPrefix+"-risk-engine")
	defer reader.Close()

	inspections := mq.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicInspections)
	defer inspections.Close()
	alerts := mq.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicAlerts)
	defer alerts.Close()

	svc := query.NewService(store, engine,
		query.WithLogger(logger),
		query.WithEvents(mq.NewPublisher(inspections, alerts)))

	if err := app.SeedIfEmpty(ctx, svc, store, logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}

	logger.Info("consuming", "topic", cfg.KafkaTopicFindings, "alerts_topic", cfg.KafkaTopicAlerts)
	_ = mq.Consume(ctx, reader, logger, func(ctx context.Context, batch contracts.FindingsRecorded) error {
		_, err := svc.RecordFindings(ctx, batch)
		return err
	})
	logger.Info("shutting down")
}
