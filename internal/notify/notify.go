// Package notify turns AlertRaised events into operator notifications,
// suppressing repeats of the same alert inside a cooldown window.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/swassyman/heart/internal/contracts"
)

// Deduper reports whether key is new within the cooldown window and, if
// so, claims it.
type Deduper interface {
	Claim(ctx context.Context, key string, cooldown time.Duration) (bool, error)
}

type MemoryDeduper struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{until: make(map[string]time.Time), now: time.Now}
}

func (d *MemoryDeduper) Claim(_ context.Context, key string, cooldown time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if until, ok := d.until[key]; ok && now.Before(until) {
		return false, nil
	}
	d.until[key] = now.Add(cooldown)
	return true, nil
}

// RedisDeduper shares claims between alert-service replicas.
type RedisDeduper struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisDeduper(client redis.UniversalClient) *RedisDeduper {
	return &RedisDeduper{client: client, prefix: "heart:alert:"}
}

func (d *RedisDeduper) Claim(ctx context.Context, key string, cooldown time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+key, time.Now().UTC().Format(time.RFC3339), cooldown).Result()
	if err != nil {
		return false, &contracts.TransportError{Op: "redis setnx", Err: err}
	}
	return ok, nil
}

type Notifier struct {
	dedupe   Deduper
	cooldown time.Duration
	logger   *slog.Logger
}

func NewNotifier(dedupe Deduper, cooldown time.Duration, logger *slog.Logger) *Notifier {
	return &Notifier{dedupe: dedupe, cooldown: cooldown, logger: logger}
}

// Handle notifies once per alert key per cooldown. It reports whether a
// notification was emitted.
func (n *Notifier) Handle(ctx context.Context, event contracts.AlertRaised) (bool, error) {
	if err := event.Alert.Validate(); err != nil {
		return false, err
	}
	fresh, err := n.dedupe.Claim(ctx, event.Key(), n.cooldown)
	if err != nil || !fresh {
		return false, err
	}
	n.logger.Warn("risk alert",
		"property_id", event.PropertyID,
		"level", event.Alert.Level,
		"entity_id", event.Alert.EntityID,
		"type", event.Alert.Type,
		"risk_score", event.Alert.RiskScore,
		"severity", severityFromScore(event.Alert.RiskScore),
		"message", event.Alert.Message)
	return true, nil
}

// severityFromScore buckets a normalized [0,1] alert score.
func severityFromScore(score float64) string {
	switch {
	case score >= 0.9:
		return "critical"
	case score >= 0.75:
		return "high"
	case score >= 0.6:
		return "medium"
	default:
		return "low"
	}
}
