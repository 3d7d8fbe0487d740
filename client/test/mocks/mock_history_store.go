package mocks

import (
	"context"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/types"
)

// MockHistoryStore is a mock implementation of store.HistoryStore for testing.
type MockHistoryStore struct {
	InsertFunc           func(ctx context.Context, entry *types.ExecutionHistoryEntry) error
	ListByScheduleFunc   func(ctx context.Context, scheduleID string, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error)
	ListByOwnerFunc      func(ctx context.Context, ownerID string, status state.ExecutionStatus, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error)
	DeleteEntryFunc      func(ctx context.Context, ownerID, entryID string) error
	DeleteByScheduleFunc func(ctx context.Context, ownerID, scheduleID string) (int64, error)
	DeleteOlderThanFunc  func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *MockHistoryStore) Insert(ctx context.Context, entry *types.ExecutionHistoryEntry) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	return nil
}

func (m *MockHistoryStore) ListBySchedule(ctx context.Context, scheduleID string, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error) {
	if m.ListByScheduleFunc != nil {
		return m.ListByScheduleFunc(ctx, scheduleID, page, pageSize)
	}
	return types.NewPaginationResult[types.ExecutionHistoryEntry](nil, 0, page, pageSize), nil
}

func (m *MockHistoryStore) ListByOwner(ctx context.Context, ownerID string, status state.ExecutionStatus, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID, status, page, pageSize)
	}
	return types.NewPaginationResult[types.ExecutionHistoryEntry](nil, 0, page, pageSize), nil
}

func (m *MockHistoryStore) DeleteEntry(ctx context.Context, ownerID, entryID string) error {
	if m.DeleteEntryFunc != nil {
		return m.DeleteEntryFunc(ctx, ownerID, entryID)
	}
	return nil
}

func (m *MockHistoryStore) DeleteBySchedule(ctx context.Context, ownerID, scheduleID string) (int64, error) {
	if m.DeleteByScheduleFunc != nil {
		return m.DeleteByScheduleFunc(ctx, ownerID, scheduleID)
	}
	return 0, nil
}

func (m *MockHistoryStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteOlderThanFunc != nil {
		return m.DeleteOlderThanFunc(ctx, cutoff)
	}
	return 0, nil
}

var _ store.HistoryStore = (*MockHistoryStore)(nil)
