// Package runner executes a single due schedule: content, notification, advance and history.
package runner

import (
	"context"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/content"
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/notify"
	"github.com/RezaEskandarii/reportfire/internal/schedule"
	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/cockroachdb/errors"
)

const (
	defaultTimeout = 2 * time.Minute
	advanceTimeout = 10 * time.Second
	supportWindow  = 7 * 24 * time.Hour
)

type Runner struct {
	owners    OwnerLookup
	dailies   SupportingContextQuery
	creator   ContentCreator
	notifier  Notifier
	schedules ScheduleAdvancer
	history   HistoryRecorder
	logger    logger.Logger

	timeout time.Duration
	now     func() time.Time
}

type Option func(*Runner)

// WithTimeout bounds content creation and notification of one execution.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

func New(
	owners OwnerLookup,
	dailies SupportingContextQuery,
	creator ContentCreator,
	notifier Notifier,
	schedules ScheduleAdvancer,
	history HistoryRecorder,
	log logger.Logger,
	opts ...Option,
) *Runner {
	r := &Runner{
		owners:    owners,
		dailies:   dailies,
		creator:   creator,
		notifier:  notifier,
		schedules: schedules,
		history:   history,
		logger:    log,
		timeout:   defaultTimeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type produced struct {
	status     state.ExecutionStatus
	artifactID *string
	notified   bool
	err        error
}

// Execute runs one due occurrence of def. It never panics and always advances the
// schedule and records exactly one history entry, whatever the outcome.
func (r *Runner) Execute(ctx context.Context, def types.ScheduleDefinition) (outcome types.ExecutionOutcome) {
	started := r.now()
	log := r.logger.With(
		logger.String("schedule_id", def.ID),
		logger.String("owner_id", def.OwnerID),
		logger.String("schedule_type", def.ScheduleType.String()),
	)

	entry := types.ExecutionHistoryEntry{
		ScheduleID:  def.ID,
		OwnerID:     def.OwnerID,
		ExecutedAt:  started,
		Status:      state.StatusFailed,
		ContentKind: def.ContentKind,
		Recipients:  append([]string{}, def.Recipients...),
		Metadata:    types.SnapshotMetadata(def),
	}
	outcome.ScheduleID = def.ID
	outcome.Status = state.StatusFailed
	advanced := false

	defer func() {
		if p := recover(); p != nil {
			err := errors.Newf("execution panicked: %v", p)
			log.Error("Execution panicked", logger.Error(err))
			if outcome.Err == nil {
				outcome.Err = err
				entry.Error = types.NewExecutionError(err)
			}
			if !advanced {
				outcome.NextRun, outcome.Deactivate = r.advance(ctx, def, started, log)
			}
		}
		entry.DurationMs = r.now().Sub(started).Milliseconds()
		if err := r.history.Record(ctx, entry); err != nil {
			log.Error("History entry lost", logger.Error(err))
		}
		outcome.Entry = entry
	}()

	res := r.produce(ctx, def)
	entry.Status = res.status
	entry.ArtifactID = res.artifactID
	entry.NotificationSent = res.notified
	entry.Error = types.NewExecutionError(res.err)
	outcome.Status = res.status
	outcome.Err = res.err

	switch res.status {
	case state.StatusSuccess:
		log.Info("Execution succeeded", logger.Bool("notification_sent", res.notified))
	case state.StatusPartial:
		log.Warn("Execution partially failed", logger.Error(res.err))
	default:
		log.Error("Execution failed", logger.Error(res.err))
	}

	advanced = true
	outcome.NextRun, outcome.Deactivate = r.advance(ctx, def, started, log)
	return outcome
}

// produce runs content creation and notification under the execution timeout.
func (r *Runner) produce(ctx context.Context, def types.ScheduleDefinition) produced {
	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan produced, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- produced{status: state.StatusFailed, err: errors.Newf("collaborator panicked: %v", p)}
			}
		}()
		done <- r.run(execCtx, def)
	}()

	select {
	case res := <-done:
		return res
	case <-execCtx.Done():
		return produced{
			status: state.StatusFailed,
			err:    errors.Wrapf(execCtx.Err(), "execution exceeded %s", r.timeout),
		}
	}
}

func (r *Runner) run(ctx context.Context, def types.ScheduleDefinition) produced {
	owner, err := r.owners.FindByID(ctx, def.OwnerID)
	if err != nil {
		return produced{status: state.StatusFailed, err: errors.Wrap(err, "resolve owner")}
	}
	if owner == nil {
		return produced{status: state.StatusFailed, err: errors.Newf("owner %s not found", def.OwnerID)}
	}

	now := r.now()
	req := content.Request{Schedule: def, Owner: *owner, Now: now}

	var artifact *types.Artifact
	switch def.ContentKind {
	case state.ContentDaily:
		artifact, err = r.creator.CreateDailyArtifact(ctx, req)
	case state.ContentWeekly:
		req.Dailies, err = r.dailies.FindDailyArtifacts(ctx, owner.ID, def.CompanyID, now.Add(-supportWindow), now)
		if err != nil {
			return produced{status: state.StatusFailed, err: errors.Wrap(err, "gather daily artifacts")}
		}
		artifact, err = r.creator.CreateWeeklyArtifact(ctx, req)
	default:
		err = errors.Newf("unknown content kind %q", def.ContentKind)
	}
	if err != nil {
		return produced{status: state.StatusFailed, err: errors.Wrap(err, "create content")}
	}
	if artifact == nil {
		return produced{status: state.StatusFailed, err: errors.New("create content: no artifact returned")}
	}

	res := produced{status: state.StatusSuccess, artifactID: &artifact.ID}
	if !def.SendNotification || len(def.Recipients) == 0 {
		return res
	}

	err = r.notifier.Send(ctx, notify.Notification{
		ScheduleID: def.ID,
		OwnerID:    owner.ID,
		ArtifactID: artifact.ID,
		Recipients: def.Recipients,
		Subject:    artifact.Title,
		Summary:    artifact.Summary(),
	})
	if err != nil {
		res.status = state.StatusPartial
		res.err = errors.Wrap(err, "send notification")
		return res
	}
	res.notified = true
	return res
}

// advance persists last/next run. It uses the clock after execution so a slow run
// cannot schedule the next occurrence in the past.
func (r *Runner) advance(ctx context.Context, def types.ScheduleDefinition, started time.Time, log logger.Logger) (*time.Time, bool) {
	after := r.now()
	keepActive := state.AfterExecution(def.ScheduleType) == state.StateActive

	nextRun := def.NextRun
	if keepActive {
		nextRun = schedule.ComputeNextRun(def, after)
	}

	advCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), advanceTimeout)
	defer cancel()

	if err := r.schedules.Advance(advCtx, def.ID, started, nextRun, keepActive); err != nil {
		log.Error("Failed to advance schedule", logger.Error(err), logger.Time("next_run", nextRun))
	}
	if !keepActive {
		log.Info("One-time schedule deactivated")
		return nil, true
	}
	log.Debug("Schedule advanced", logger.Time("next_run", nextRun))
	return &nextRun, false
}
