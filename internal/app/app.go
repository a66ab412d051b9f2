// Package app wires configuration into the store, risk engine and query
// service shared by the binaries under cmd/.
package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"

	"github.com/swassyman/heart/internal/config"
	"github.com/swassyman/heart/internal/query"
	"github.com/swassyman/heart/internal/risk"
	"github.com/swassyman/heart/internal/session"
	"github.com/swassyman/heart/internal/storage"
)

// OpenStore connects to Postgres and applies migrations, or returns the
// in-memory repository when no database is configured. The store is
// returned empty; SeedIfEmpty fills it.
func OpenStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, using in-memory store")
		return storage.NewMemoryRepository(), func() {}, nil
	}

	pool, err := storage.Open(ctx, cfg.DatabaseURL, 10)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := storage.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return storage.NewPostgresRepository(pool, logger), pool.Close, nil
}

func NewEngine(cfg config.Config) (*risk.Engine, error) {
	riskCfg, err := config.LoadRiskConfig(cfg.RiskConfigPath)
	if err != nil {
		return nil, err
	}
	return risk.NewEngine(riskCfg)
}

// NewSigner builds the bearer token signer from SESSION_SECRET. Without a
// secret a random key is generated, so tokens do not survive a restart
// and are not shared between replicas.
func NewSigner(cfg config.Config, logger *slog.Logger) (*session.Signer, error) {
	key := []byte(cfg.SessionSecret)
	if len(key) == 0 {
		logger.Warn("SESSION_SECRET not set, using an ephemeral signing key")
		key = make([]byte, session.MinKeyBytes)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}
	return session.NewSigner(key, cfg.SessionTTL)
}

// SeedIfEmpty stores the sample portfolio when the store holds no
// properties.
func SeedIfEmpty(ctx context.Context, svc *query.Service, store storage.Store, logger *slog.Logger) error {
	existing, err := store.ListProperties(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	samples := storage.SampleProperties()
	if err := svc.Seed(ctx, samples); err != nil {
		return fmt.Errorf("seed sample properties: %w", err)
	}
	logger.Info("seeded sample properties", "count", len(samples))
	return nil
}
