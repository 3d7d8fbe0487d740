package store

import (
	"context"
	"time"

	"github.com/RezaEskandarii/reportfire/types"
)

// ScheduleStore defines the interface for persisting schedule definitions.
type ScheduleStore interface {
	// Create inserts a new definition. ID, CreatedAt and UpdatedAt are assigned by the store when empty.
	Create(ctx context.Context, def *types.ScheduleDefinition) error

	// Update writes the definition fields together with NextRun and IsActive, only while the
	// row's updated_at still equals def.UpdatedAt; otherwise it returns ErrConflict. Claim and
	// Advance both move updated_at. On success def.UpdatedAt holds the new version.
	Update(ctx context.Context, def *types.ScheduleDefinition) error

	// FindByID returns ErrNotFound when no schedule has the given id.
	FindByID(ctx context.Context, id string) (*types.ScheduleDefinition, error)

	ListByOwner(ctx context.Context, ownerID string, page, pageSize int) (*types.PaginationResult[types.ScheduleDefinition], error)

	SetActive(ctx context.Context, id string, active bool, nextRun time.Time) error

	Delete(ctx context.Context, id string) error

	// FindDue returns active schedules with next_run <= now, oldest first, skipping rows
	// held by a claim younger than staleAfter.
	FindDue(ctx context.Context, now time.Time, staleAfter time.Duration, page, pageSize int) (*types.PaginationResult[types.ScheduleDefinition], error)

	// Claim marks a due schedule as taken by instance. It reports false when the schedule is
	// no longer due, inactive, or held by a live claim.
	Claim(ctx context.Context, id, instance string, now time.Time, staleAfter time.Duration) (bool, error)

	// Advance records an execution: sets last_run and next_run, releases the claim, and
	// clears is_active when keepActive is false. It never re-activates a schedule.
	Advance(ctx context.Context, id string, lastRun, nextRun time.Time, keepActive bool) error
}
