package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RezaEskandarii/reportfire/client"
	"github.com/RezaEskandarii/reportfire/client/test/mocks"
	"github.com/RezaEskandarii/reportfire/custom_errors"
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managerNow = time.Date(2025, 11, 6, 10, 0, 0, 0, time.UTC)

func newManager(schedules *mocks.MockScheduleStore, hist *mocks.MockHistoryStore) *client.ScheduleManager {
	return client.NewScheduleManager(schedules, hist, logger.NewNop(),
		client.WithManagerClock(func() time.Time { return managerNow }))
}

func newDailyDef() types.ScheduleDefinition {
	return types.ScheduleDefinition{
		OwnerID:       "owner-1",
		ContentKind:   state.ContentDaily,
		Template:      "Daily for {{.Owner.Name}}",
		ScheduleType:  state.Daily,
		ScheduledTime: "09:00",
		Timezone:      "UTC",
		Recipients:    pq.StringArray{"team@example.com"},
	}
}

func TestScheduleManager_Create(t *testing.T) {
	var stored *types.ScheduleDefinition
	schedules := &mocks.MockScheduleStore{
		CreateFunc: func(_ context.Context, def *types.ScheduleDefinition) error {
			def.ID = "sched-1"
			stored = def
			return nil
		},
	}
	m := newManager(schedules, &mocks.MockHistoryStore{})

	in := newDailyDef()
	in.ID = "caller-chosen"
	in.IsActive = false

	def, err := m.Create(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, "sched-1", def.ID)
	assert.True(t, def.IsActive)
	assert.Nil(t, def.LastRun)
	assert.Equal(t, time.Date(2025, 11, 7, 9, 0, 0, 0, time.UTC), def.NextRun)
}

func TestScheduleManager_Create_InvalidIsRejectedBeforeStore(t *testing.T) {
	schedules := &mocks.MockScheduleStore{
		CreateFunc: func(context.Context, *types.ScheduleDefinition) error {
			t.Fatal("store must not be called")
			return nil
		},
	}
	m := newManager(schedules, &mocks.MockHistoryStore{})

	def := newDailyDef()
	def.ScheduleType = state.Weekly

	_, err := m.Create(context.Background(), def)
	var verr *custom_errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields(), "dayOfWeek")
}

func storedDef() *types.ScheduleDefinition {
	def := newDailyDef()
	def.ID = "sched-1"
	def.IsActive = true
	def.NextRun = time.Date(2025, 11, 7, 9, 0, 0, 0, time.UTC)
	return &def
}

func TestScheduleManager_Update_RecomputesOnCadenceChange(t *testing.T) {
	var written *types.ScheduleDefinition
	schedules := &mocks.MockScheduleStore{
		FindByIDFunc: func(context.Context, string) (*types.ScheduleDefinition, error) { return storedDef(), nil },
		UpdateFunc: func(_ context.Context, def *types.ScheduleDefinition) error {
			written = def
			return nil
		},
	}
	m := newManager(schedules, &mocks.MockHistoryStore{})

	newTime := "18:30"
	def, err := m.Update(context.Background(), "sched-1", types.SchedulePatch{ScheduledTime: &newTime})
	require.NoError(t, err)
	require.NotNil(t, written)
	assert.Equal(t, time.Date(2025, 11, 6, 18, 30, 0, 0, time.UTC), def.NextRun)
}

func TestScheduleManager_Update_KeepsNextRunForContentChange(t *testing.T) {
	schedules := &mocks.MockScheduleStore{
		FindByIDFunc: func(context.Context, string) (*types.ScheduleDefinition, error) { return storedDef(), nil },
	}
	m := newManager(schedules, &mocks.MockHistoryStore{})

	tmpl := "Updated body"
	def, err := m.Update(context.Background(), "sched-1", types.SchedulePatch{Template: &tmpl})
	require.NoError(t, err)
	assert.Equal(t, "Updated body", def.Template)
	assert.Equal(t, storedDef().NextRun, def.NextRun)
}

func TestScheduleManager_Update_InactiveIsNotRecomputed(t *testing.T) {
	schedules := &mocks.MockScheduleStore{
		FindByIDFunc: func(context.Context, string) (*types.ScheduleDefinition, error) {
			def := storedDef()
			def.IsActive = false
			return def, nil
		},
	}
	m := newManager(schedules, &mocks.MockHistoryStore{})

	newTime := "18:30"
	def, err := m.Update(context.Background(), "sched-1", types.SchedulePatch{ScheduledTime: &newTime})
	require.NoError(t, err)
	assert.Equal(t, storedDef().NextRun, def.NextRun)
}

func TestScheduleManager_Update_Invalid(t *testing.T) {
	schedules := &mocks.MockScheduleStore{
		FindByIDFunc: func(context.Context, string) (*types.ScheduleDefinition, error) { return storedDef(), nil },
		UpdateFunc: func(context.Context, *types.ScheduleDefinition) error {
			t.Fatal("store must not be called")
			return nil
		},
	}
	m := newManager(schedules, &mocks.MockHistoryStore{})

	bad := "25:00"
	_, err := m.Update(context.Background(), "sched-1", types.SchedulePatch{ScheduledTime: &bad})
	var verr *custom_errors.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestScheduleManager_Update_NotFound(t *testing.T) {
	m := newManager(&mocks.MockScheduleStore{}, &mocks.MockHistoryStore{})

	_, err := m.Update(context.Background(), "missing", types.SchedulePatch{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// versionedStore keeps one row and rejects writes carrying a stale updated_at, like the
// Postgres store does.
type versionedStore struct {
	mocks.MockScheduleStore
	row *types.ScheduleDefinition
}

func newVersionedStore(def *types.ScheduleDefinition) *versionedStore {
	v := &versionedStore{row: def}
	v.FindByIDFunc = func(context.Context, string) (*types.ScheduleDefinition, error) {
		cp := *v.row
		return &cp, nil
	}
	v.UpdateFunc = func(_ context.Context, def *types.ScheduleDefinition) error {
		if !def.UpdatedAt.Equal(v.row.UpdatedAt) {
			return store.ErrConflict
		}
		def.UpdatedAt = def.UpdatedAt.Add(time.Second)
		cp := *def
		v.row = &cp
		return nil
	}
	return v
}

func TestScheduleManager_Update_ConflictsWithConcurrentAdvance(t *testing.T) {
	once := storedDef()
	once.ScheduleType = state.Once
	date := time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC)
	once.ScheduledDate = &date
	once.NextRun = time.Date(2025, 11, 6, 9, 0, 0, 0, time.UTC)
	once.UpdatedAt = managerNow.Add(-time.Hour)

	vs := newVersionedStore(once)
	// The runner finishes the once schedule after the manager read the row.
	vs.FindByIDFunc = func(context.Context, string) (*types.ScheduleDefinition, error) {
		cp := *vs.row
		advanced := *vs.row
		advanced.IsActive = false
		advanced.LastRun = &managerNow
		advanced.UpdatedAt = managerNow
		vs.row = &advanced
		return &cp, nil
	}
	m := newManager(&vs.MockScheduleStore, &mocks.MockHistoryStore{})

	tmpl := "Edited"
	_, err := m.Update(context.Background(), "sched-1", types.SchedulePatch{Template: &tmpl})
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.False(t, vs.row.IsActive)
	assert.Equal(t, storedDef().Template, vs.row.Template)
}

func TestScheduleManager_Update_SucceedsOnCurrentVersion(t *testing.T) {
	def := storedDef()
	def.UpdatedAt = managerNow.Add(-time.Hour)
	vs := newVersionedStore(def)
	m := newManager(&vs.MockScheduleStore, &mocks.MockHistoryStore{})

	tmpl := "Edited"
	_, err := m.Update(context.Background(), "sched-1", types.SchedulePatch{Template: &tmpl})
	require.NoError(t, err)
	assert.Equal(t, "Edited", vs.row.Template)

	// A second edit built from the first read's version must fail.
	stale := *def
	vs.FindByIDFunc = func(context.Context, string) (*types.ScheduleDefinition, error) { return &stale, nil }
	_, err = m.Update(context.Background(), "sched-1", types.SchedulePatch{Template: &tmpl})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestScheduleManager_Update_RefusedWhileExecuting(t *testing.T) {
	lockedAt := managerNow.Add(-time.Minute)
	owner := "node-1"
	schedules := &mocks.MockScheduleStore{
		FindByIDFunc: func(context.Context, string) (*types.ScheduleDefinition, error) {
			def := storedDef()
			def.LockedBy = &owner
			def.LockedAt = &lockedAt
			return def, nil
		},
		UpdateFunc: func(context.Context, *types.ScheduleDefinition) error {
			t.Fatal("store must not be called while a claim is live")
			return nil
		},
	}
	m := newManager(schedules, &mocks.MockHistoryStore{})

	newTime := "18:30"
	_, err := m.Update(context.Background(), "sched-1", types.SchedulePatch{ScheduledTime: &newTime})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestScheduleManager_Update_IgnoresStaleClaim(t *testing.T) {
	lockedAt := managerNow.Add(-2 * time.Hour)
	owner := "node-1"
	var written bool
	schedules := &mocks.MockScheduleStore{
		FindByIDFunc: func(context.Context, string) (*types.ScheduleDefinition, error) {
			def := storedDef()
			def.LockedBy = &owner
			def.LockedAt = &lockedAt
			return def, nil
		},
		UpdateFunc: func(context.Context, *types.ScheduleDefinition) error {
			written = true
			return nil
		},
	}
	m := client.NewScheduleManager(schedules, &mocks.MockHistoryStore{}, logger.NewNop(),
		client.WithManagerClock(func() time.Time { return managerNow }),
		client.WithManagerClaimStaleAfter(30*time.Minute))

	tmpl := "Edited"
	_, err := m.Update(context.Background(), "sched-1", types.SchedulePatch{Template: &tmpl})
	require.NoError(t, err)
	assert.True(t, written)
}

func TestScheduleManager_Toggle(t *testing.T) {
	type call struct {
		active  bool
		nextRun time.Time
	}

	t.Run("active to inactive keeps next run", func(t *testing.T) {
		var got call
		schedules := &mocks.MockScheduleStore{
			FindByIDFunc: func(context.Context, string) (*types.ScheduleDefinition, error) { return storedDef(), nil },
			SetActiveFunc: func(_ context.Context, _ string, active bool, nextRun time.Time) error {
				got = call{active, nextRun}
				return nil
			},
		}
		def, err := newManager(schedules, &mocks.MockHistoryStore{}).Toggle(context.Background(), "sched-1")
		require.NoError(t, err)
		assert.False(t, def.IsActive)
		assert.Equal(t, call{false, storedDef().NextRun}, got)
	})

	t.Run("inactive to active recomputes from now", func(t *testing.T) {
		var got call
		schedules := &mocks.MockScheduleStore{
			FindByIDFunc: func(context.Context, string) (*types.ScheduleDefinition, error) {
				def := storedDef()
				def.IsActive = false
				def.NextRun = time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
				return def, nil
			},
			SetActiveFunc: func(_ context.Context, _ string, active bool, nextRun time.Time) error {
				got = call{active, nextRun}
				return nil
			},
		}
		def, err := newManager(schedules, &mocks.MockHistoryStore{}).Toggle(context.Background(), "sched-1")
		require.NoError(t, err)
		assert.True(t, def.IsActive)
		assert.Equal(t, call{true, time.Date(2025, 11, 7, 9, 0, 0, 0, time.UTC)}, got)
	})
}

func TestScheduleManager_Delete(t *testing.T) {
	t.Run("keeps history", func(t *testing.T) {
		hist := &mocks.MockHistoryStore{
			DeleteByScheduleFunc: func(context.Context, string, string) (int64, error) {
				t.Fatal("history must be kept")
				return 0, nil
			},
		}
		require.NoError(t, newManager(&mocks.MockScheduleStore{}, hist).Delete(context.Background(), "sched-1", false))
	})

	t.Run("purges history", func(t *testing.T) {
		var purged string
		hist := &mocks.MockHistoryStore{
			DeleteByScheduleFunc: func(_ context.Context, ownerID, scheduleID string) (int64, error) {
				assert.Empty(t, ownerID)
				purged = scheduleID
				return 3, nil
			},
		}
		require.NoError(t, newManager(&mocks.MockScheduleStore{}, hist).Delete(context.Background(), "sched-1", true))
		assert.Equal(t, "sched-1", purged)
	})

	t.Run("store failure", func(t *testing.T) {
		schedules := &mocks.MockScheduleStore{
			DeleteFunc: func(context.Context, string) error { return store.ErrNotFound },
		}
		err := newManager(schedules, &mocks.MockHistoryStore{}).Delete(context.Background(), "sched-1", true)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestScheduleManager_ListOwnerHistory(t *testing.T) {
	var gotStatus state.ExecutionStatus
	hist := &mocks.MockHistoryStore{
		ListByOwnerFunc: func(_ context.Context, ownerID string, status state.ExecutionStatus, page, pageSize int) (*types.PaginationResult[types.ExecutionHistoryEntry], error) {
			gotStatus = status
			return types.NewPaginationResult([]types.ExecutionHistoryEntry{{ID: "h-1", OwnerID: ownerID}}, 1, page, pageSize), nil
		},
	}
	m := newManager(&mocks.MockScheduleStore{}, hist)

	res, err := m.ListOwnerHistory(context.Background(), "owner-1", state.StatusFailed, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, state.StatusFailed, gotStatus)
	assert.Len(t, res.Items, 1)

	_, err = m.ListOwnerHistory(context.Background(), "owner-1", "queued", 1, 10)
	var verr *custom_errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"status"}, verr.Fields())
}

func TestScheduleManager_DeleteScheduleHistory_RequiresOwner(t *testing.T) {
	m := newManager(&mocks.MockScheduleStore{}, &mocks.MockHistoryStore{})

	_, err := m.DeleteScheduleHistory(context.Background(), "", "sched-1")
	var verr *custom_errors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"ownerId"}, verr.Fields())
}

func TestScheduleManager_DeleteHistoryEntry(t *testing.T) {
	hist := &mocks.MockHistoryStore{
		DeleteEntryFunc: func(_ context.Context, ownerID, entryID string) error {
			if ownerID != "owner-1" {
				return store.ErrNotFound
			}
			return nil
		},
	}
	m := newManager(&mocks.MockScheduleStore{}, hist)

	require.NoError(t, m.DeleteHistoryEntry(context.Background(), "owner-1", "h-1"))
	assert.True(t, errors.Is(m.DeleteHistoryEntry(context.Background(), "owner-2", "h-1"), store.ErrNotFound))
}
