package risk

import (
	"time"

	"github.com/swassyman/heart/internal/contracts"
)

// Reconcile merges freshly derived candidate alerts into the stored list.
// Alerts are keyed by (level, entity, type): a stored alert with the same key
// keeps its id and creation time and only has its message and score
// refreshed. Stored alerts that no longer trigger are kept. Duplicate keys
// already present in stored collapse to their first occurrence.
//
// The second return value holds the alerts created by this call.
func Reconcile(stored, fresh []contracts.Alert, now time.Time) ([]contracts.Alert, []contracts.Alert) {
	merged := make([]contracts.Alert, 0, len(stored)+len(fresh))
	index := make(map[contracts.AlertKey]int, len(stored)+len(fresh))
	for _, a := range stored {
		if _, dup := index[a.Key()]; dup {
			continue
		}
		index[a.Key()] = len(merged)
		merged = append(merged, a)
	}

	var raised []contracts.Alert
	for _, a := range fresh {
		if i, ok := index[a.Key()]; ok {
			merged[i].Message = a.Message
			merged[i].RiskScore = a.RiskScore
			continue
		}
		if a.ID == "" {
			a.ID = newAlertID()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now.UTC()
		}
		index[a.Key()] = len(merged)
		merged = append(merged, a)
		raised = append(raised, a)
	}
	if len(merged) == 0 {
		return nil, raised
	}
	return merged, raised
}
