package client

import (
	"context"
	"time"

	"github.com/RezaEskandarii/reportfire/custom_errors"
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/schedule"
	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/RezaEskandarii/reportfire/types/config"
	"github.com/cockroachdb/errors"
)

// ScheduleManager is the entry point for creating and maintaining schedule definitions
// and reading their execution history.
type ScheduleManager struct {
	schedules  store.ScheduleStore
	history    store.HistoryStore
	logger     logger.Logger
	now        func() time.Time
	staleAfter time.Duration
}

type ManagerOption func(*ScheduleManager)

// WithManagerClock replaces time.Now, mainly for tests.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *ScheduleManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithManagerClaimStaleAfter sets how long a claim blocks edits. It should match the
// dispatcher's claim_stale_after.
func WithManagerClaimStaleAfter(d time.Duration) ManagerOption {
	return func(m *ScheduleManager) {
		if d > 0 {
			m.staleAfter = d
		}
	}
}

func NewScheduleManager(schedules store.ScheduleStore, history store.HistoryStore, log logger.Logger, opts ...ManagerOption) *ScheduleManager {
	m := &ScheduleManager{
		schedules:  schedules,
		history:    history,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
		staleAfter: config.DefaultClaimStaleAfter,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create validates def and stores it as an active schedule with its first run computed.
func (m *ScheduleManager) Create(ctx context.Context, def types.ScheduleDefinition) (*types.ScheduleDefinition, error) {
	if err := schedule.Validate(def); err != nil {
		return nil, err
	}

	def.ID = ""
	def.IsActive = true
	def.LastRun = nil
	def.LockedBy = nil
	def.LockedAt = nil
	def.NextRun = schedule.ComputeNextRun(def, m.now())

	if err := m.schedules.Create(ctx, &def); err != nil {
		return nil, errors.Wrap(err, "create schedule")
	}
	m.logger.Info("Schedule created",
		logger.String("schedule_id", def.ID),
		logger.String("owner_id", def.OwnerID),
		logger.String("schedule_type", def.ScheduleType.String()),
		logger.Time("next_run", def.NextRun))
	return &def, nil
}

// Update applies patch. The next run is recomputed only when a cadence field changed and
// the schedule is active; otherwise it is left as stored.
//
// A schedule that is executing, or that changed after it was read, is not written and
// store.ErrConflict is returned; the caller may retry.
func (m *ScheduleManager) Update(ctx context.Context, id string, patch types.SchedulePatch) (*types.ScheduleDefinition, error) {
	current, err := m.schedules.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "load schedule %s", id)
	}
	if m.claimed(current) {
		return nil, errors.Wrapf(store.ErrConflict, "schedule %s is executing", id)
	}

	updated := patch.Apply(*current)
	if err := schedule.Validate(updated); err != nil {
		return nil, err
	}
	if patch.TouchesCadence() && updated.IsActive {
		updated.NextRun = schedule.ComputeNextRun(updated, m.now())
	}

	if err := m.schedules.Update(ctx, &updated); err != nil {
		return nil, errors.Wrapf(err, "update schedule %s", id)
	}
	m.logger.Info("Schedule updated",
		logger.String("schedule_id", id),
		logger.Bool("cadence_changed", patch.TouchesCadence()),
		logger.Time("next_run", updated.NextRun))
	return &updated, nil
}

// claimed reports whether an execution holds a claim on def that has not gone stale.
func (m *ScheduleManager) claimed(def *types.ScheduleDefinition) bool {
	return def.LockedAt != nil && m.now().Sub(*def.LockedAt) < m.staleAfter
}

// Toggle flips IsActive. Reactivation recomputes the next run from now so missed
// occurrences are not replayed.
func (m *ScheduleManager) Toggle(ctx context.Context, id string) (*types.ScheduleDefinition, error) {
	def, err := m.schedules.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "load schedule %s", id)
	}

	from, to := state.StateActive, state.StateInactive
	if !def.IsActive {
		from, to = to, from
	}
	if !state.IsValidTransition(from, to) {
		return nil, errors.Newf("schedule %s cannot move from %s to %s", id, from, to)
	}

	def.IsActive = to == state.StateActive
	if def.IsActive {
		def.NextRun = schedule.ComputeNextRun(*def, m.now())
	}

	if err := m.schedules.SetActive(ctx, id, def.IsActive, def.NextRun); err != nil {
		return nil, errors.Wrapf(err, "toggle schedule %s", id)
	}
	m.logger.Info("Schedule toggled",
		logger.String("schedule_id", id),
		logger.Bool("active", def.IsActive),
		logger.Time("next_run", def.NextRun))
	return def, nil
}

// Delete removes the definition and, when purgeHistory is set, every history entry it produced.
func (m *ScheduleManager) Delete(ctx context.Context, id string, purgeHistory bool) error {
	if err := m.schedules.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete schedule %s", id)
	}
	m.logger.Info("Schedule deleted", logger.String("schedule_id", id))

	if !purgeHistory {
		return nil
	}
	n, err := m.history.DeleteBySchedule(ctx, "", id)
	if err != nil {
		return errors.Wrapf(err, "purge history of schedule %s", id)
	}
	m.logger.Info("Schedule history purged", logger.String("schedule_id", id), logger.Int64("deleted", n))
	return nil
}

func (m *ScheduleManager) Get(ctx context.Context, id string) (*types.ScheduleDefinition, error) {
	return m.schedules.FindByID(ctx, id)
}

func (m *ScheduleManager) ListByOwner(ctx context.Context, ownerID string, page, pageSize int) (*types.PaginationResult[types.ScheduleDefinition], error) {
	return m.schedules.ListByOwner(ctx, ownerID, page, pageSize)
}

func (m *ScheduleManager) ListHistory(ctx context.Context, scheduleID string, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error) {
	return m.history.ListBySchedule(ctx, scheduleID, page, pageSize)
}

// ListOwnerHistory lists an owner's entries, filtered by status when status is non-empty.
func (m *ScheduleManager) ListOwnerHistory(ctx context.Context, ownerID string, status state.ExecutionStatus, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error) {
	if status != "" && !status.IsValid() {
		v := &custom_errors.ValidationError{}
		v.AddField("status", "must be one of success, failed, partial, got %q", status)
		return nil, v
	}
	return m.history.ListByOwner(ctx, ownerID, status, page, pageSize)
}

func (m *ScheduleManager) DeleteHistoryEntry(ctx context.Context, ownerID, entryID string) error {
	return m.history.DeleteEntry(ctx, ownerID, entryID)
}

func (m *ScheduleManager) DeleteScheduleHistory(ctx context.Context, ownerID, scheduleID string) (int64, error) {
	if ownerID == "" {
		v := &custom_errors.ValidationError{}
		v.AddField("ownerId", "is required")
		return 0, v
	}
	return m.history.DeleteBySchedule(ctx, ownerID, scheduleID)
}
