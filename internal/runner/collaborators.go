package runner

import (
	"context"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/content"
	"github.com/RezaEskandarii/reportfire/internal/notify"
	"github.com/RezaEskandarii/reportfire/types"
)

// OwnerLookup resolves the schedule owner. A nil owner with a nil error means not found.
type OwnerLookup interface {
	FindByID(ctx context.Context, id string) (*types.Owner, error)
}

// SupportingContextQuery returns the daily artifacts a weekly execution summarizes.
type SupportingContextQuery interface {
	FindDailyArtifacts(ctx context.Context, ownerID string, companyID *string, from, to time.Time) ([]types.Artifact, error)
}

type ContentCreator interface {
	CreateDailyArtifact(ctx context.Context, req content.Request) (*types.Artifact, error)
	CreateWeeklyArtifact(ctx context.Context, req content.Request) (*types.Artifact, error)
}

type Notifier = notify.Notifier

// ScheduleAdvancer persists the post-execution schedule state.
type ScheduleAdvancer interface {
	Advance(ctx context.Context, id string, lastRun, nextRun time.Time, keepActive bool) error
}

// HistoryRecorder stores the single history entry of an execution.
type HistoryRecorder interface {
	Record(ctx context.Context, entry types.ExecutionHistoryEntry) error
}
