package mocks

import (
	"context"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/types"
)

// MockScheduleStore is a mock implementation of store.ScheduleStore for testing.
type MockScheduleStore struct {
	CreateFunc      func(ctx context.Context, def *types.ScheduleDefinition) error
	UpdateFunc      func(ctx context.Context, def *types.ScheduleDefinition) error
	FindByIDFunc    func(ctx context.Context, id string) (*types.ScheduleDefinition, error)
	ListByOwnerFunc func(ctx context.Context, ownerID string, page, pageSize int) (*types.PaginationResult[types.ScheduleDefinition], error)
	SetActiveFunc   func(ctx context.Context, id string, active bool, nextRun time.Time) error
	DeleteFunc      func(ctx context.Context, id string) error
	FindDueFunc     func(ctx context.Context, now time.Time, staleAfter time.Duration, page, pageSize int) (*types.PaginationResult[types.ScheduleDefinition], error)
	ClaimFunc       func(ctx context.Context, id, instance string, now time.Time, staleAfter time.Duration) (bool, error)
	AdvanceFunc     func(ctx context.Context, id string, lastRun, nextRun time.Time, keepActive bool) error
}

func (m *MockScheduleStore) Create(ctx context.Context, def *types.ScheduleDefinition) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, def)
	}
	if def.ID == "" {
		def.ID = "generated-id"
	}
	return nil
}

func (m *MockScheduleStore) Update(ctx context.Context, def *types.ScheduleDefinition) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, def)
	}
	return nil
}

func (m *MockScheduleStore) FindByID(ctx context.Context, id string) (*types.ScheduleDefinition, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *MockScheduleStore) ListByOwner(ctx context.Context, ownerID string, page, pageSize int) (*types.PaginationResult[types.ScheduleDefinition], error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID, page, pageSize)
	}
	return types.NewPaginationResult[types.ScheduleDefinition](nil, 0, page, pageSize), nil
}

func (m *MockScheduleStore) SetActive(ctx context.Context, id string, active bool, nextRun time.Time) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active, nextRun)
	}
	return nil
}

func (m *MockScheduleStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockScheduleStore) FindDue(ctx context.Context, now time.Time, staleAfter time.Duration, page, pageSize int) (*types.PaginationResult[types.ScheduleDefinition], error) {
	if m.FindDueFunc != nil {
		return m.FindDueFunc(ctx, now, staleAfter, page, pageSize)
	}
	return types.NewPaginationResult[types.ScheduleDefinition](nil, 0, page, pageSize), nil
}

func (m *MockScheduleStore) Claim(ctx context.Context, id, instance string, now time.Time, staleAfter time.Duration) (bool, error) {
	if m.ClaimFunc != nil {
		return m.ClaimFunc(ctx, id, instance, now, staleAfter)
	}
	return true, nil
}

func (m *MockScheduleStore) Advance(ctx context.Context, id string, lastRun, nextRun time.Time, keepActive bool) error {
	if m.AdvanceFunc != nil {
		return m.AdvanceFunc(ctx, id, lastRun, nextRun, keepActive)
	}
	return nil
}

var _ store.ScheduleStore = (*MockScheduleStore)(nil)
