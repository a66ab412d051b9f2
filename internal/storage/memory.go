package storage

import (
	"context"
	"sync"

	"github.com/swassyman/heart/internal/contracts"
)

// MemoryRepository keeps everything in process. Reads hand out deep copies
// taken under the lock, so each call works on a consistent snapshot.
type MemoryRepository struct {
	mu          sync.RWMutex
	properties  []contracts.Property
	byID        map[string]int
	inspections []contracts.Inspection
}

func NewMemoryRepository(properties ...contracts.Property) *MemoryRepository {
	r := &MemoryRepository{byID: make(map[string]int, len(properties))}
	for _, p := range properties {
		r.put(p)
	}
	return r
}

func (r *MemoryRepository) put(p contracts.Property) {
	if i, ok := r.byID[p.ID]; ok {
		r.properties[i] = p.Clone()
		return
	}
	r.byID[p.ID] = len(r.properties)
	r.properties = append(r.properties, p.Clone())
}

func (r *MemoryRepository) ListProperties(_ context.Context) ([]contracts.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]contracts.Property, len(r.properties))
	for i, p := range r.properties {
		out[i] = p.Clone()
	}
	return out, nil
}

func (r *MemoryRepository) GetProperty(_ context.Context, id string) (contracts.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[id]
	if !ok {
		return contracts.Property{}, &contracts.NotFoundError{Entity: "property", ID: id}
	}
	return r.properties[i].Clone(), nil
}

func (r *MemoryRepository) SaveProperty(_ context.Context, p contracts.Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(p)
	return nil
}

func (r *MemoryRepository) UpdateProperty(_ context.Context, id string, fn func(*contracts.Property) error) (contracts.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[id]
	if !ok {
		return contracts.Property{}, &contracts.NotFoundError{Entity: "property", ID: id}
	}
	updated := r.properties[i].Clone()
	if err := fn(&updated); err != nil {
		return contracts.Property{}, err
	}
	if updated.ID != id {
		return contracts.Property{}, &contracts.ValidationError{Entity: "property", Field: "id", Reason: "cannot change on update"}
	}
	if err := updated.Validate(); err != nil {
		return contracts.Property{}, err
	}
	r.properties[i] = updated.Clone()
	return updated, nil
}

func (r *MemoryRepository) ListInspections(_ context.Context, propertyID string) ([]contracts.Inspection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]contracts.Inspection, 0, len(r.inspections))
	for _, in := range r.inspections {
		if propertyID != "" && in.PropertyID != propertyID {
			continue
		}
		out = append(out, cloneInspection(in))
	}
	return out, nil
}

func (r *MemoryRepository) GetInspection(_ context.Context, id string) (contracts.Inspection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, in := range r.inspections {
		if in.ID == id {
			return cloneInspection(in), nil
		}
	}
	return contracts.Inspection{}, &contracts.NotFoundError{Entity: "inspection", ID: id}
}

func (r *MemoryRepository) AppendInspection(_ context.Context, in contracts.Inspection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.inspections {
		if existing.ID == in.ID {
			return &contracts.ValidationError{Entity: "inspection", Field: "id", Reason: "duplicate " + in.ID}
		}
	}
	r.inspections = append(r.inspections, cloneInspection(in))
	return nil
}

func (r *MemoryRepository) UpdateInspection(_ context.Context, id string, fn func(*contracts.Inspection) error) (contracts.Inspection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.inspections {
		if r.inspections[i].ID != id {
			continue
		}
		updated := cloneInspection(r.inspections[i])
		if err := fn(&updated); err != nil {
			return contracts.Inspection{}, err
		}
		r.inspections[i] = updated
		return cloneInspection(updated), nil
	}
	return contracts.Inspection{}, &contracts.NotFoundError{Entity: "inspection", ID: id}
}

func cloneInspection(in contracts.Inspection) contracts.Inspection {
	out := in
	out.Images = append([]string(nil), in.Images...)
	if in.RiskScore != nil {
		score := *in.RiskScore
		out.RiskScore = &score
	}
	if in.CompletedAt != nil {
		at := *in.CompletedAt
		out.CompletedAt = &at
	}
	return out
}
