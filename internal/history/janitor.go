package history

import (
	"context"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/constants"
	"github.com/RezaEskandarii/reportfire/internal/lock"
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
)

// Janitor deletes history entries older than the retention window on a cron schedule.
// Across instances only the holder of the JanitorLock purges.
type Janitor struct {
	store     store.HistoryStore
	locks     lock.DistributedLockManager
	logger    logger.Logger
	retention time.Duration
	now       func() time.Time

	cron *cron.Cron
}

func NewJanitor(historyStore store.HistoryStore, locks lock.DistributedLockManager, retention time.Duration, log logger.Logger) *Janitor {
	return &Janitor{
		store:     historyStore,
		locks:     locks,
		logger:    log,
		retention: retention,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Purge removes expired entries once and returns how many were deleted.
func (j *Janitor) Purge(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.retention)
	n, err := j.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, errors.Wrap(err, "purge history")
	}
	j.logger.Info("Expired history purged", logger.Int64("deleted", n), logger.Time("cutoff", cutoff))
	return n, nil
}

// Start runs Purge on spec until ctx is done or Stop is called.
func (j *Janitor) Start(ctx context.Context, spec string) error {
	j.cron = cron.New()
	_, err := j.cron.AddFunc(spec, func() { j.purgeLocked(ctx) })
	if err != nil {
		return errors.Wrapf(err, "invalid janitor spec %q", spec)
	}
	j.cron.Start()

	go func() {
		<-ctx.Done()
		j.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running purge to finish.
func (j *Janitor) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}

func (j *Janitor) purgeLocked(ctx context.Context) {
	if j.locks != nil {
		ok, err := j.locks.TryAcquire(ctx, constants.JanitorLock)
		if err != nil {
			j.logger.Warn("Janitor lock unavailable", logger.Error(err))
			return
		}
		if !ok {
			j.logger.Debug("Another instance is purging history")
			return
		}
		defer func() {
			if err := j.locks.Release(context.WithoutCancel(ctx), constants.JanitorLock); err != nil {
				j.logger.Warn("Failed to release janitor lock", logger.Error(err))
			}
		}()
	}

	if _, err := j.Purge(ctx); err != nil {
		j.logger.Error("History purge failed", logger.Error(err))
	}
}
