// Package history writes execution history entries and expires old ones.
package history

import (
	"context"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/constants"
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	defaultInitialInterval = 200 * time.Millisecond
	recordTimeout          = 30 * time.Second
	uniqueViolation        = "23505"
)

// Recorder is the single write path for history entries. A write is attempted even
// when the caller's context is already cancelled.
type Recorder struct {
	store           store.HistoryStore
	logger          logger.Logger
	attempts        int
	initialInterval time.Duration
}

func NewRecorder(historyStore store.HistoryStore, log logger.Logger) *Recorder {
	return &Recorder{
		store:           historyStore,
		logger:          log,
		attempts:        constants.MaxRecordAttempts,
		initialInterval: defaultInitialInterval,
	}
}

func (r *Recorder) Record(ctx context.Context, entry types.ExecutionHistoryEntry) error {
	if !entry.Status.IsValid() {
		err := errors.Newf("refusing history entry with status %q", entry.Status)
		r.logger.Error("Invalid history entry", logger.Error(err), logger.Any("entry", entry))
		return err
	}
	// A stable id makes retries after an ambiguous failure idempotent.
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initialInterval
	policy.MaxElapsedTime = 0

	attempt := 0
	err := backoff.RetryNotify(
		func() error {
			attempt++
			err := r.store.Insert(writeCtx, &entry)
			if isDuplicate(err) {
				return nil
			}
			return err
		},
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.attempts-1)), writeCtx),
		func(err error, wait time.Duration) {
			r.logger.Warn("History write failed, retrying",
				logger.String("schedule_id", entry.ScheduleID),
				logger.Int("attempt", attempt),
				logger.Duration("backoff", wait),
				logger.Error(err),
			)
		},
	)
	if err != nil {
		r.logger.Error("History entry dropped after retries",
			logger.Int("attempts", attempt),
			logger.Error(err),
			logger.Any("entry", entry),
		)
		return errors.Wrapf(err, "record history for schedule %s", entry.ScheduleID)
	}
	return nil
}

func isDuplicate(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
