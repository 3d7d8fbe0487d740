package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RezaEskandarii/reportfire/client"
	"github.com/RezaEskandarii/reportfire/client/test/mocks"
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var apiNow = time.Date(2025, 11, 6, 10, 0, 0, 0, time.UTC)

func newTestRouter(schedules *mocks.MockScheduleStore, hist *mocks.MockHistoryStore) http.Handler {
	mgr := client.NewScheduleManager(schedules, hist, logger.NewNop(),
		client.WithManagerClock(func() time.Time { return apiNow }))
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("reportfire_ticks_total 1\n"))
	})
	return NewRouter(mgr, metrics, logger.NewNop())
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newTestRouter(&mocks.MockScheduleStore{}, &mocks.MockHistoryStore{})

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reportfire_ticks_total")
}

func TestScheduleHandler_Create(t *testing.T) {
	var stored types.ScheduleDefinition
	schedules := &mocks.MockScheduleStore{
		CreateFunc: func(_ context.Context, def *types.ScheduleDefinition) error {
			def.ID = "sched-1"
			stored = *def
			return nil
		},
	}
	h := newTestRouter(schedules, &mocks.MockHistoryStore{})

	rec := do(t, h, http.MethodPost, "/api/v1/schedules", map[string]any{
		"ownerId":       "owner-1",
		"contentKind":   "daily",
		"template":      "Hello {{.Owner.Name}}",
		"scheduleType":  "once",
		"scheduledTime": "18:45",
		"scheduledDate": "2025-12-24",
		"recipients":    []string{"a@example.com"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got types.ScheduleDefinition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "sched-1", got.ID)
	assert.True(t, got.IsActive)
	assert.Equal(t, time.Date(2025, 12, 24, 18, 45, 0, 0, time.UTC), got.NextRun)
	assert.Equal(t, state.Once, stored.ScheduleType)
}

func TestScheduleHandler_Create_ValidationError(t *testing.T) {
	h := newTestRouter(&mocks.MockScheduleStore{}, &mocks.MockHistoryStore{})

	rec := do(t, h, http.MethodPost, "/api/v1/schedules", map[string]any{
		"ownerId":       "owner-1",
		"contentKind":   "daily",
		"template":      "x",
		"scheduleType":  "weekly",
		"scheduledTime": "08:00",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "dayOfWeek", body.Fields[0].Field)
}

func TestScheduleHandler_Create_BadDate(t *testing.T) {
	h := newTestRouter(&mocks.MockScheduleStore{}, &mocks.MockHistoryStore{})

	rec := do(t, h, http.MethodPost, "/api/v1/schedules", map[string]any{
		"scheduleType":  "once",
		"scheduledDate": "24/12/2025",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "scheduledDate")
}

func TestScheduleHandler_GetNotFound(t *testing.T) {
	h := newTestRouter(&mocks.MockScheduleStore{}, &mocks.MockHistoryStore{})

	rec := do(t, h, http.MethodGet, "/api/v1/schedules/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduleHandler_UpdateAndToggle(t *testing.T) {
	current := types.ScheduleDefinition{
		ID:            "sched-1",
		OwnerID:       "owner-1",
		ContentKind:   state.ContentDaily,
		Template:      "x",
		ScheduleType:  state.Daily,
		ScheduledTime: "09:00",
		IsActive:      true,
		NextRun:       time.Date(2025, 11, 7, 9, 0, 0, 0, time.UTC),
	}
	var activeWritten *bool
	schedules := &mocks.MockScheduleStore{
		FindByIDFunc: func(context.Context, string) (*types.ScheduleDefinition, error) {
			def := current
			return &def, nil
		},
		SetActiveFunc: func(_ context.Context, _ string, active bool, _ time.Time) error {
			activeWritten = &active
			return nil
		},
	}
	h := newTestRouter(schedules, &mocks.MockHistoryStore{})

	rec := do(t, h, http.MethodPatch, "/api/v1/schedules/sched-1", map[string]any{
		"scheduleType": "weekly",
		"dayOfWeek":    5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated types.ScheduleDefinition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, state.Weekly, updated.ScheduleType)
	assert.Equal(t, time.Date(2025, 11, 7, 9, 0, 0, 0, time.UTC), updated.NextRun)

	rec = do(t, h, http.MethodPost, "/api/v1/schedules/sched-1/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, activeWritten)
	assert.False(t, *activeWritten)
}

func TestScheduleHandler_Update_WhileExecutingConflicts(t *testing.T) {
	lockedAt := apiNow.Add(-time.Minute)
	schedules := &mocks.MockScheduleStore{
		FindByIDFunc: func(context.Context, string) (*types.ScheduleDefinition, error) {
			return &types.ScheduleDefinition{
				ID:            "sched-1",
				OwnerID:       "owner-1",
				ContentKind:   state.ContentDaily,
				Template:      "x",
				ScheduleType:  state.Daily,
				ScheduledTime: "09:00",
				IsActive:      true,
				LockedAt:      &lockedAt,
			}, nil
		},
	}
	h := newTestRouter(schedules, &mocks.MockHistoryStore{})

	rec := do(t, h, http.MethodPatch, "/api/v1/schedules/sched-1", map[string]any{"template": "y"})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestScheduleHandler_DeleteWithPurge(t *testing.T) {
	var purged bool
	hist := &mocks.MockHistoryStore{
		DeleteByScheduleFunc: func(context.Context, string, string) (int64, error) {
			purged = true
			return 2, nil
		},
	}
	h := newTestRouter(&mocks.MockScheduleStore{}, hist)

	rec := do(t, h, http.MethodDelete, "/api/v1/schedules/sched-1?purgeHistory=true", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, purged)
}

func TestScheduleHandler_ListRequiresOwner(t *testing.T) {
	h := newTestRouter(&mocks.MockScheduleStore{}, &mocks.MockHistoryStore{})

	rec := do(t, h, http.MethodGet, "/api/v1/schedules", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/schedules?owner=owner-1&page=2&pageSize=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page types.PaginationResult[types.ScheduleDefinition]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.PageSize)
}

func TestHistoryHandler_ListByOwner(t *testing.T) {
	var gotStatus state.ExecutionStatus
	hist := &mocks.MockHistoryStore{
		ListByOwnerFunc: func(_ context.Context, owner string, status state.ExecutionStatus, page, size int) (*types.PaginationResult[types.ExecutionHistoryEntry], error) {
			gotStatus = status
			return types.NewPaginationResult([]types.ExecutionHistoryEntry{{ID: "h-1", OwnerID: owner, Status: state.StatusFailed}}, 1, page, size), nil
		},
	}
	h := newTestRouter(&mocks.MockScheduleStore{}, hist)

	rec := do(t, h, http.MethodGet, "/api/v1/owners/owner-1/history?status=failed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, state.StatusFailed, gotStatus)
	assert.Contains(t, rec.Body.String(), `"h-1"`)

	rec = do(t, h, http.MethodGet, "/api/v1/owners/owner-1/history?status=queued", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryHandler_Deletes(t *testing.T) {
	var deletedEntry, deletedSchedule string
	hist := &mocks.MockHistoryStore{
		DeleteEntryFunc: func(_ context.Context, owner, entry string) error {
			deletedEntry = owner + "/" + entry
			return nil
		},
		DeleteByScheduleFunc: func(_ context.Context, owner, schedule string) (int64, error) {
			deletedSchedule = owner + "/" + schedule
			return 4, nil
		},
	}
	h := newTestRouter(&mocks.MockScheduleStore{}, hist)

	rec := do(t, h, http.MethodDelete, "/api/v1/owners/owner-1/history/h-9", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "owner-1/h-9", deletedEntry)

	rec = do(t, h, http.MethodDelete, "/api/v1/owners/owner-1/schedules/sched-1/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":4}`, rec.Body.String())
	assert.Equal(t, "owner-1/sched-1", deletedSchedule)
}
