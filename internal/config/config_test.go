package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swassyman/heart/internal/risk"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg := load(envOf(nil))

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "findings.recorded", cfg.KafkaTopicFindings)
	assert.Equal(t, "alerts.raised", cfg.KafkaTopicAlerts)
	assert.Equal(t, "inspections.submitted", cfg.KafkaTopicInspections)
	assert.Equal(t, "heart", cfg.ConsumerGroupPrefix)
	assert.Equal(t, "http://localhost:3000/report/generate-pdf", cfg.ReportServiceURL)
	assert.Equal(t, 30*time.Second, cfg.ReportTimeout)
	assert.Equal(t, 30*time.Minute, cfg.AlertCooldown)
	assert.Zero(t, cfg.SimulatorTick)
	assert.Empty(t, cfg.SessionSecret)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	cfg := load(envOf(map[string]string{
		"HTTP_ADDR":              ":9090",
		"DATABASE_URL":           "postgres://heart@db/heart",
		"KAFKA_BROKERS":          " kafka-1:9092, ,kafka-2:9092 ",
		"REDIS_URL":              "redis://cache:6379/0",
		"REPORT_TIMEOUT_SECONDS": "5",
		"LOG_LEVEL":              "DEBUG",
		"ALERT_COOLDOWN_MINUTES": "5",
		"SIMULATOR_TICK_SECONDS": "2",
		"SESSION_SECRET":         "0123456789abcdef0123456789abcdef",
		"SESSION_TTL_HOURS":      "8",
	}))

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "postgres://heart@db/heart", cfg.DatabaseURL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, 5*time.Second, cfg.ReportTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.AlertCooldown)
	assert.Equal(t, 2*time.Second, cfg.SimulatorTick)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", cfg.SessionSecret)
	assert.Equal(t, 8*time.Hour, cfg.SessionTTL)
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	for _, raw := range []string{"abc", "-3", "0"} {
		cfg := load(envOf(map[string]string{"REPORT_TIMEOUT_SECONDS": raw}))
		assert.Equal(t, 30*time.Second, cfg.ReportTimeout, raw)
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "risk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadRiskConfig(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		cfg, err := LoadRiskConfig("")
		require.NoError(t, err)
		assert.Equal(t, risk.DefaultConfig(), cfg)
	})

	t.Run("partial overlay", func(t *testing.T) {
		path := writeFile(t, "weights:\n  critical: 20\nhigh_risk_threshold: 75\n")
		cfg, err := LoadRiskConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 20.0, cfg.Weights.Critical)
		assert.Equal(t, 7.0, cfg.Weights.High)
		assert.Equal(t, 75.0, cfg.HighRiskThreshold)
		assert.Equal(t, risk.DefaultSaturation, cfg.Saturation)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeFile(t, "room_risk_threshold: 90\n")
		_, err := LoadRiskConfig(path)
		assert.ErrorContains(t, err, "room risk threshold")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "weights: [1, 2\n")
		_, err := LoadRiskConfig(path)
		assert.ErrorContains(t, err, "unmarshal")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRiskConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
