package store

import (
	"context"

	"github.com/RezaEskandarii/reportfire/types"
)

// OwnerStore handles owner lookups.
type OwnerStore interface {
	// FindByID returns nil, nil when the owner does not exist.
	FindByID(ctx context.Context, id string) (*types.Owner, error)

	Upsert(ctx context.Context, owner *types.Owner) error
}
