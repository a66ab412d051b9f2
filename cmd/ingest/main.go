package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swassyman/heart/internal/config"
	"github.com/swassyman/heart/internal/ingest"
	"github.com/swassyman/heart/internal/mq"
	"github.com/swassyman/heart/internal/storage"
)

func main() {
	cfg := config.Load()
	logger := cfg.Logger().With("service", "ingest")

	if !cfg.KafkaEnabled() {
		logger.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	writer := mq.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicFindings)
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var propertyIDs []string
	for _, p := range storage.SampleProperties() {
		propertyIDs = append(propertyIDs, p.ID)
	}
	if cfg.SimulatorTick > 0 {
		go ingest.Simulate(ctx, writer, propertyIDs, cfg.SimulatorTick, logger)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           ingest.NewRouter(writer, propertyIDs, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.HTTPAddr, "topic", cfg.KafkaTopicFindings)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
