package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/types"
)

// MockExecutor is a mock implementation of client.Executor that records every call.
type MockExecutor struct {
	ExecuteFunc func(ctx context.Context, def types.ScheduleDefinition) types.ExecutionOutcome

	mu       sync.Mutex
	executed []string
}

func (m *MockExecutor) Execute(ctx context.Context, def types.ScheduleDefinition) types.ExecutionOutcome {
	m.mu.Lock()
	m.executed = append(m.executed, def.ID)
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, def)
	}
	return types.ExecutionOutcome{ScheduleID: def.ID, Status: state.StatusSuccess}
}

// Executed returns the ids passed to Execute, in call order.
func (m *MockExecutor) Executed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.executed...)
}

// MockDispatchMetrics counts calls to client.DispatchMetrics.
type MockDispatchMetrics struct {
	mu         sync.Mutex
	Ticks      int
	Skipped    int
	ClaimsLost int
	Statuses   []state.ExecutionStatus
}

func (m *MockDispatchMetrics) TickStarted() { m.mu.Lock(); m.Ticks++; m.mu.Unlock() }
func (m *MockDispatchMetrics) TickSkipped() { m.mu.Lock(); m.Skipped++; m.mu.Unlock() }
func (m *MockDispatchMetrics) ClaimLost()   { m.mu.Lock(); m.ClaimsLost++; m.mu.Unlock() }

func (m *MockDispatchMetrics) ExecutionFinished(status state.ExecutionStatus, _ time.Duration) {
	m.mu.Lock()
	m.Statuses = append(m.Statuses, status)
	m.mu.Unlock()
}

// Snapshot returns the counters under the lock.
func (m *MockDispatchMetrics) Snapshot() (ticks, skipped, claimsLost int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Ticks, m.Skipped, m.ClaimsLost
}
