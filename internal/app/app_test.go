package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swassyman/heart/internal/config"
	"github.com/swassyman/heart/internal/contracts"
	"github.com/swassyman/heart/internal/query"
	"github.com/swassyman/heart/internal/storage"
)

func TestOpenStore_MemoryAndSeed(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, closeStore, err := OpenStore(ctx, config.Config{}, logger)
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &storage.MemoryRepository{}, store)
	empty, err := store.ListProperties(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	engine, err := NewEngine(config.Config{})
	require.NoError(t, err)
	svc := query.NewService(store, engine, query.WithLogger(logger))

	require.NoError(t, SeedIfEmpty(ctx, svc, store, logger))
	props, err := store.ListProperties(ctx)
	require.NoError(t, err)
	assert.Len(t, props, 3)

	require.NoError(t, SeedIfEmpty(ctx, svc, store, logger))
	props, err = store.ListProperties(ctx)
	require.NoError(t, err)
	assert.Len(t, props, 3)
}

func TestNewEngine_RiskConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "risk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("saturation: 0\n"), 0o600))

	_, err := NewEngine(config.Config{RiskConfigPath: path})
	assert.ErrorContains(t, err, "saturation")
}

func TestNewSigner(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	alice := contracts.User{ID: "u1", Name: "Alice Buyer", Role: contracts.RoleBuyer}

	cfg := config.Config{SessionSecret: "0123456789abcdef0123456789abcdef", SessionTTL: time.Hour}
	first, err := NewSigner(cfg, logger)
	require.NoError(t, err)
	second, err := NewSigner(cfg, logger)
	require.NoError(t, err)
	token, err := first.Issue(alice)
	require.NoError(t, err)
	_, err = second.Verify(token)
	assert.NoError(t, err, "replicas sharing SESSION_SECRET accept each other's tokens")

	ephemeral, err := NewSigner(config.Config{SessionTTL: time.Hour}, logger)
	require.NoError(t, err)
	_, err = ephemeral.Verify(token)
	assert.ErrorIs(t, err, contracts.ErrValidation)

	_, err = NewSigner(config.Config{SessionSecret: "short", SessionTTL: time.Hour}, logger)
	assert.Error(t, err)
}
