package storage

import (
	"context"

	"github.com/swassyman/heart/internal/contracts"
)

// PropertyStore is the read-write surface for properties. Implementations
// return copies: callers never observe a later writer's changes through a
// value they already hold.
//
// UpdateProperty is the only safe read-modify-write: fn runs while the row
// is locked against other writers, in this process or another, and its
// result is stored only when fn returns nil.
type PropertyStore interface {
	ListProperties(ctx context.Context) ([]contracts.Property, error)
	GetProperty(ctx context.Context, id string) (contracts.Property, error)
	SaveProperty(ctx context.Context, p contracts.Property) error
	UpdateProperty(ctx context.Context, id string, fn func(*contracts.Property) error) (contracts.Property, error)
}

// InspectionStore appends inspections atomically. UpdateInspection applies
// fn to the stored inspection and persists the result in one step.
type InspectionStore interface {
	ListInspections(ctx context.Context, propertyID string) ([]contracts.Inspection, error)
	GetInspection(ctx context.Context, id string) (contracts.Inspection, error)
	AppendInspection(ctx context.Context, in contracts.Inspection) error
	UpdateInspection(ctx context.Context, id string, fn func(*contracts.Inspection) error) (contracts.Inspection, error)
}

type Store interface {
	PropertyStore
	InspectionStore
}
