package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/swassyman/heart/internal/risk"
)

type Config struct {
	HTTPAddr              string
	DatabaseURL           string
	KafkaBrokers          []string
	KafkaTopicFindings    string
	KafkaTopicAlerts      string
	KafkaTopicInspections string
	ConsumerGroupPrefix   string
	RedisURL              string
	ReportServiceURL      string
	ReportTimeout         time.Duration
	RiskConfigPath        string
	AlertCooldown         time.Duration
	SimulatorTick         time.Duration
	SessionSecret         string
	SessionTTL            time.Duration
	LogLevel              slog.Level
}

// Load reads the process environment. An empty DATABASE_URL selects the
// in-memory store; empty KAFKA_BROKERS disables event publishing.
func Load() Config {
	return load(os.Getenv)
}

func load(getenv func(string) string) Config {
	timeoutSeconds := getEnvInt(getenv, "REPORT_TIMEOUT_SECONDS", 30)
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	cooldownMinutes := getEnvInt(getenv, "ALERT_COOLDOWN_MINUTES", 30)
	tickSeconds := getEnvInt(getenv, "SIMULATOR_TICK_SECONDS", 0)
	ttlHours := getEnvInt(getenv, "SESSION_TTL_HOURS", 24)
	if ttlHours <= 0 {
		ttlHours = 24
	}

	return Config{
		HTTPAddr:              getEnv(getenv, "HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv(getenv, "DATABASE_URL", ""),
		KafkaBrokers:          splitList(getEnv(getenv, "KAFKA_BROKERS", "")),
		KafkaTopicFindings:    getEnv(getenv, "KAFKA_TOPIC_FINDINGS", "findings.recorded"),
		KafkaTopicAlerts:      getEnv(getenv, "KAFKA_TOPIC_ALERTS", "alerts.raised"),
		KafkaTopicInspections: getEnv(getenv, "KAFKA_TOPIC_INSPECTIONS", "inspections.submitted"),
		ConsumerGroupPrefix:   getEnv(getenv, "CONSUMER_GROUP_PREFIX", "heart"),
		RedisURL:              getEnv(getenv, "REDIS_URL", ""),
		ReportServiceURL:      getEnv(getenv, "REPORT_SERVICE_URL", "http://localhost:3000/report/generate-pdf"),
		ReportTimeout:         time.Duration(timeoutSeconds) * time.Second,
		RiskConfigPath:        getEnv(getenv, "RISK_CONFIG_PATH", ""),
		AlertCooldown:         time.Duration(cooldownMinutes) * time.Minute,
		SimulatorTick:         time.Duration(tickSeconds) * time.Second,
		SessionSecret:         getEnv(getenv, "SESSION_SECRET", ""),
		SessionTTL:            time.Duration(ttlHours) * time.Hour,
		LogLevel:              parseLevel(getEnv(getenv, "LOG_LEVEL", "info")),
	}
}

// KafkaEnabled reports whether any broker is configured.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Logger builds the text logger every binary writes to stderr.
func (c Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

// LoadRiskConfig overlays the YAML file at path on risk.DefaultConfig.
// Keys absent from the file keep their defaults. An empty path returns
// the defaults unchanged.
func LoadRiskConfig(path string) (risk.Config, error) {
	cfg := risk.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return risk.Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return risk.Config{}, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return risk.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(getenv func(string) string, key, fallback string) string {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(getenv func(string) string, key string, fallback int) int {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}
