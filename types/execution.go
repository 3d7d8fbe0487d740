package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
)

// ExecutionHistoryEntry is the audit record written once per observed due occurrence.
type ExecutionHistoryEntry struct {
	ID               string                `db:"id" json:"id"`
	ScheduleID       string                `db:"schedule_id" json:"scheduleId"`
	OwnerID          string                `db:"owner_id" json:"ownerId"`
	ExecutedAt       time.Time             `db:"executed_at" json:"executedAt"`
	Status           state.ExecutionStatus `db:"status" json:"status"`
	ContentKind      state.ContentKind     `db:"content_kind" json:"contentKind"`
	ArtifactID       *string               `db:"artifact_id" json:"artifactId,omitempty"`
	NotificationSent bool                  `db:"notification_sent" json:"notificationSent"`
	Recipients       pq.StringArray        `db:"recipients" json:"recipients"`
	DurationMs       int64                 `db:"duration_ms" json:"durationMs"`
	Error            *ExecutionError       `db:"error" json:"error,omitempty"`
	Metadata         ExecutionMetadata     `db:"metadata" json:"metadata"`
}

// ExecutionError is the structured error captured on failed and partial executions.
type ExecutionError struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// NewExecutionError captures err verbatim. Detail holds the verbose rendering, which
// includes stack traces for errors created through cockroachdb/errors.
func NewExecutionError(err error) *ExecutionError {
	if err == nil {
		return nil
	}
	return &ExecutionError{
		Message: err.Error(),
		Detail:  fmt.Sprintf("%+v", err),
	}
}

func (e ExecutionError) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (e *ExecutionError) Scan(src any) error {
	return scanJSON(src, e)
}

// ExecutionMetadata is a snapshot of the schedule taken at execution time, kept for audit
// even after the schedule is edited or deleted.
type ExecutionMetadata struct {
	ScheduleType  state.ScheduleType `json:"scheduleType"`
	TagCount      int                `json:"tagCount"`
	ContentLength int                `json:"contentLength"`
}

func SnapshotMetadata(def ScheduleDefinition) ExecutionMetadata {
	return ExecutionMetadata{
		ScheduleType:  def.ScheduleType,
		TagCount:      len(def.Tags),
		ContentLength: len(def.Template),
	}
}

func (m ExecutionMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *ExecutionMetadata) Scan(src any) error {
	return scanJSON(src, m)
}

// ExecutionOutcome is what the runner reports back to the dispatcher.
type ExecutionOutcome struct {
	ScheduleID string
	Status     state.ExecutionStatus
	Entry      ExecutionHistoryEntry
	NextRun    *time.Time
	Deactivate bool
	Err        error
}

func scanJSON(src any, dest any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return errors.Newf("unsupported json column type %T", src)
	}
}
