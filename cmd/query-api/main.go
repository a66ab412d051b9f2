package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swassyman/heart/internal/api"
	"github.com/swassyman/heart/internal/app"
	"github.com/swassyman/heart/internal/config"
	"github.com/swassyman/heart/internal/mq"
	"github.com/swassyman/heart/internal/query"
	"github.com/swassyman/heart/internal/report"
)

func main() {
	cfg := config.Load()
	logger := cfg.Logger().With("service", "query-api")

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

	signer, err := app.NewSigner(cfg, logger)
	if err != nil {
		logger.Error("session signer rejected", "error", err)
		os.Exit(1)
	}

	var events query.EventPublisher = mq.Nop{}
	if cfg.KafkaEnabled() {
		inspections := mq.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicInspections)
		defer inspections.Close()
		alerts := mq.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicAlerts)
		defer alerts.Close()
		events = mq.NewPublisher(inspections, alerts)
	}

	svc := query.NewService(store, engine,
		query.WithLogger(logger),
		query.WithEvents(events),
		query.WithReports(report.NewClient(cfg.ReportServiceURL, nil, cfg.ReportTimeout)))

	if err := app.SeedIfEmpty(ctx, svc, store, logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(svc, signer, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.HTTPAddr, "kafka", cfg.KafkaEnabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
