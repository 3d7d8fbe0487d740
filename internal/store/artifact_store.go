package store

import (
	"context"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/types"
)

// ArtifactStore persists produced content.
type ArtifactStore interface {
	Save(ctx context.Context, artifact *types.Artifact) error

	FindByID(ctx context.Context, id string) (*types.Artifact, error)

	// FindByOwner returns the owner's artifacts of the given kind created in [from, to),
	// newest first. A nil companyID matches every company.
	FindByOwner(ctx context.Context, ownerID string, kind state.ContentKind, companyID *string, from, to time.Time) ([]types.Artifact, error)
}
