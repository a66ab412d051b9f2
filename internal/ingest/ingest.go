// Package ingest accepts findings batches from inspection tooling and
// forwards them to the findings topic consumed by the risk engine.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/swassyman/heart/internal/contracts"
	"github.com/swassyman/heart/internal/httpx"
	"github.com/swassyman/heart/internal/mq"
)

// Normalize fills generated fields and validates a batch before it is
// published. Finding ids are assigned when absent.
func Normalize(b *contracts.FindingsRecorded, now time.Time) error {
	b.PropertyID = strings.TrimSpace(b.PropertyID)
	if b.PropertyID == "" {
		return &contracts.ValidationError{Entity: "findings batch", Field: "propertyId", Reason: "required"}
	}
	if len(b.Findings) == 0 {
		return &contracts.ValidationError{Entity: "findings batch", Field: "findings", Reason: "at least one finding required"}
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = now.UTC()
	}
	for i := range b.Findings {
		f := &b.Findings[i]
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		if f.InspectionID == "" {
			f.InspectionID = b.InspectionID
		}
		f.Severity = contracts.Severity(strings.ToUpper(strings.TrimSpace(string(f.Severity))))
		if err := f.Validate(); err != nil {
			return fmt.Errorf("finding %d: %w", i, err)
		}
	}
	for i, rc := range b.RootCauses {
		if err := rc.Validate(); err != nil {
			return fmt.Errorf("root cause %d: %w", i, err)
		}
	}
	for i, fe := range b.FutureEvents {
		if err := fe.Validate(); err != nil {
			return fmt.Errorf("future event %d: %w", i, err)
		}
	}
	return nil
}

var (
	rooms   = []string{"Kitchen", "Basement", "Attic", "Bathroom", "Garage", "Living Room"}
	defects = []string{"water_damage", "foundation_crack", "roof_leak", "electrical", "mould", "pipe_corrosion"}
	levels  = []contracts.Severity{
		contracts.SeverityLow,
		contracts.SeverityLow,
		contracts.SeverityMedium,
		contracts.SeverityMedium,
		contracts.SeverityHigh,
		contracts.SeverityCritical,
	}
)

// RandomBatch produces a single-finding batch against one of propertyIDs.
func RandomBatch(rng *rand.Rand, propertyIDs []string, now time.Time) contracts.FindingsRecorded {
	room := rooms[rng.Intn(len(rooms))]
	defect := defects[rng.Intn(len(defects))]
	return contracts.FindingsRecorded{
		PropertyID:   propertyIDs[rng.Intn(len(propertyIDs))],
		InspectionID: "sim-" + now.UTC().Format("20060102"),
		Findings: []contracts.Finding{{
			ID:              uuid.NewString(),
			RoomID:          room,
			DefectType:      defect,
			ObservationText: fmt.Sprintf("Simulated %s observed in %s.", strings.ReplaceAll(defect, "_", " "), strings.ToLower(room)),
			Severity:        levels[rng.Intn(len(levels))],
			Confidence:      0.4 + rng.Float64()*0.6,
		}},
		Timestamp: now.UTC(),
	}
}

// Simulate publishes a random batch every tick until ctx is done.
func Simulate(ctx context.Context, writer mq.MessageWriter, propertyIDs []string, tick time.Duration, logger *slog.Logger) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			batch := RandomBatch(rng, propertyIDs, now)
			if err := mq.PublishJSON(ctx, writer, batch.PropertyID, batch); err != nil {
				logger.Error("simulator publish failed", "error", err)
			}
		}
	}
}

const maxSimulated = 500

func NewRouter(writer mq.MessageWriter, propertyIDs []string, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "ingest"})
	})

	router.Post("/v1/findings", func(w http.ResponseWriter, r *http.Request) {
		var batch contracts.FindingsRecorded
		if err := httpx.DecodeJSON(r, &batch); err != nil {
			httpx.WriteError(w, logger, err)
			return
		}
		if err := Normalize(&batch, time.Now()); err != nil {
			httpx.WriteError(w, logger, err)
			return
		}
		if err := mq.PublishJSON(r.Context(), writer, batch.PropertyID, batch); err != nil {
			httpx.WriteError(w, logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusAccepted, batch)
	})

	router.Post("/v1/simulate", func(w http.ResponseWriter, r *http.Request) {
		body := struct {
			Count int `json:"count"`
		}{Count: 10}
		if r.ContentLength != 0 {
			if err := httpx.DecodeJSON(r, &body); err != nil {
				httpx.WriteError(w, logger, err)
				return
			}
		}
		if body.Count <= 0 {
			body.Count = 10
		}
		if body.Count > maxSimulated {
			body.Count = maxSimulated
		}

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		sent := 0
		for range body.Count {
			batch := RandomBatch(rng, propertyIDs, time.Now())
			if err := mq.PublishJSON(r.Context(), writer, batch.PropertyID, batch); err != nil {
				logger.Error("simulate publish failed", "error", err)
				break
			}
			sent++
		}
		httpx.WriteJSON(w, http.StatusAccepted, map[string]any{"requested": body.Count, "published": sent})
	})
	return router
}
