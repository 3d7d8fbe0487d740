package store

import (
	"context"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/types"
)

// HistoryStore persists execution history entries. Entries are immutable once inserted.
type HistoryStore interface {
	Insert(ctx context.Context, entry *types.ExecutionHistoryEntry) error

	ListBySchedule(ctx context.Context, scheduleID string, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error)

	// ListByOwner filters by status when status is non-empty.
	ListByOwner(ctx context.Context, ownerID string, status state.ExecutionStatus, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error)

	// DeleteEntry removes one entry owned by ownerID. Returns ErrNotFound otherwise.
	DeleteEntry(ctx context.Context, ownerID, entryID string) error

	// DeleteBySchedule removes every entry of a schedule and returns the count removed.
	// An empty ownerID skips the ownership check.
	DeleteBySchedule(ctx context.Context, ownerID, scheduleID string) (int64, error)

	// DeleteOlderThan purges entries executed before cutoff and returns the count removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
