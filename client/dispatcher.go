package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/constants"
	"github.com/RezaEskandarii/reportfire/internal/lock"
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/RezaEskandarii/reportfire/internal/store"
	"github.com/RezaEskandarii/reportfire/internal/trigger"
	"github.com/RezaEskandarii/reportfire/types"
	"github.com/RezaEskandarii/reportfire/types/config"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/semaphore"
)

// ErrTickInProgress is returned by Tick when the previous tick has not finished yet.
var ErrTickInProgress = errors.New("previous tick still running")

// Executor runs one claimed schedule. runner.Runner implements it.
type Executor interface {
	Execute(ctx context.Context, def types.ScheduleDefinition) types.ExecutionOutcome
}

// DispatchMetrics receives tick and execution counts. metrics.Metrics implements it.
type DispatchMetrics interface {
	TickStarted()
	TickSkipped()
	ClaimLost()
	ExecutionFinished(status state.ExecutionStatus, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) TickStarted()                                           {}
func (noopMetrics) TickSkipped()                                           {}
func (noopMetrics) ClaimLost()                                             {}
func (noopMetrics) ExecutionFinished(state.ExecutionStatus, time.Duration) {}

// Dispatcher finds due schedules on every tick, claims them and hands them to the Executor.
type Dispatcher struct {
	schedules store.ScheduleStore
	executor  Executor
	logger    logger.Logger
	metrics   DispatchMetrics
	tickLock  lock.DistributedLockManager

	instance    string
	workerCount int
	batchSize   int
	staleAfter  time.Duration
	now         func() time.Time

	running  atomic.Bool
	mu       sync.Mutex
	inFlight map[string]struct{}
}

type DispatcherOption func(*Dispatcher)

// WithDispatchMetrics reports tick and execution counts to m.
func WithDispatchMetrics(m DispatchMetrics) DispatcherOption {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithTickLock makes a tick run only on the instance holding the dispatch lock.
func WithTickLock(locks lock.DistributedLockManager) DispatcherOption {
	return func(d *Dispatcher) {
		d.tickLock = locks
	}
}

// WithDispatchClock replaces time.Now, mainly for tests.
func WithDispatchClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

func NewDispatcher(
	schedules store.ScheduleStore,
	executor Executor,
	cfg *config.ReportfireConfig,
	log logger.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		schedules:   schedules,
		executor:    executor,
		logger:      log.With(logger.String("instance", cfg.Instance)),
		metrics:     noopMetrics{},
		instance:    cfg.Instance,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		staleAfter:  cfg.ClaimStaleAfter,
		now:         func() time.Time { return time.Now().UTC() },
		inFlight:    make(map[string]struct{}),
	}
	if d.workerCount < 1 {
		d.workerCount = config.DefaultWorkerCount
	}
	if d.batchSize < 1 {
		d.batchSize = config.DefaultBatchSize
	}
	if d.staleAfter <= 0 {
		d.staleAfter = config.DefaultClaimStaleAfter
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run ticks once immediately and then on every trigger fire until ctx is done.
// Ticks run in the background so a fire during a running tick is skipped, not queued.
func (d *Dispatcher) Run(ctx context.Context, trig trigger.Trigger) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	tick := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Tick(ctx); err != nil && !errors.Is(err, ErrTickInProgress) {
				d.logger.Error("Tick failed", logger.Error(err))
			}
		}()
	}

	d.logger.Info("Dispatcher started",
		logger.Int("worker_count", d.workerCount),
		logger.Int("batch_size", d.batchSize))
	tick()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Dispatcher stopped")
			return ctx.Err()
		case <-trig.C():
			tick()
		}
	}
}

// Tick executes every schedule due at the start of the tick.
func (d *Dispatcher) Tick(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		d.metrics.TickSkipped()
		d.logger.Warn("Tick skipped, previous tick still running")
		return ErrTickInProgress
	}
	defer d.running.Store(false)
	d.metrics.TickStarted()

	if d.tickLock != nil {
		ok, err := d.tickLock.TryAcquire(ctx, constants.DispatchLock)
		if err != nil {
			return errors.Wrap(err, "acquire dispatch lock")
		}
		if !ok {
			d.logger.Debug("Dispatch lock held by another instance")
			return nil
		}
		defer func() {
			if err := d.tickLock.Release(context.WithoutCancel(ctx), constants.DispatchLock); err != nil {
				d.logger.Warn("Failed to release dispatch lock", logger.Error(err))
			}
		}()
	}

	now := d.now()
	due, err := d.snapshot(ctx, now)
	if err != nil {
		if len(due) == 0 {
			return err
		}
		d.logger.Error("Due query failed part way, dispatching what was fetched",
			logger.Error(err), logger.Int("fetched", len(due)))
	}
	if len(due) == 0 {
		return nil
	}
	d.logger.Debug("Dispatching due schedules", logger.Int("count", len(due)))

	sem := semaphore.NewWeighted(int64(d.workerCount))
	var wg sync.WaitGroup
	for _, def := range due {
		if err := sem.Acquire(ctx, 1); err != nil {
			d.logger.Info("Tick interrupted", logger.Error(err))
			break
		}
		if !d.markInFlight(def.ID) {
			sem.Release(1)
			d.logger.Debug("Schedule already executing", logger.String("schedule_id", def.ID))
			continue
		}
		wg.Add(1)
		go func(def types.ScheduleDefinition) {
			defer wg.Done()
			defer sem.Release(1)
			defer d.clearInFlight(def.ID)
			d.dispatch(ctx, def, now)
		}(def)
	}
	wg.Wait()
	return nil
}

// snapshot reads all due pages before any schedule is claimed, so claiming and advancing
// rows cannot shift later pages.
func (d *Dispatcher) snapshot(ctx context.Context, now time.Time) ([]types.ScheduleDefinition, error) {
	var due []types.ScheduleDefinition
	for page := 1; ; page++ {
		result, err := d.schedules.FindDue(ctx, now, d.staleAfter, page, d.batchSize)
		if err != nil {
			return due, errors.Wrapf(err, "fetch due schedules page %d", page)
		}
		due = append(due, result.Items...)
		if !result.HasNextPage {
			return due, nil
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, def types.ScheduleDefinition, now time.Time) {
	log := d.logger.With(logger.String("schedule_id", def.ID))
	defer func() {
		if p := recover(); p != nil {
			log.Error("Dispatch panicked", logger.Any("panic", p))
		}
	}()

	ok, err := d.schedules.Claim(ctx, def.ID, d.instance, now, d.staleAfter)
	if err != nil {
		// Nothing ran and the row is untouched, so no history is written; it is due again next tick.
		log.Error("Failed to claim schedule", logger.Error(err))
		return
	}
	if !ok {
		d.metrics.ClaimLost()
		log.Debug("Schedule claimed elsewhere or no longer due")
		return
	}

	// Executions already claimed run to completion on shutdown, bounded by the runner timeout.
	outcome := d.executor.Execute(context.WithoutCancel(ctx), def)
	d.metrics.ExecutionFinished(outcome.Status, time.Duration(outcome.Entry.DurationMs)*time.Millisecond)
}

func (d *Dispatcher) markInFlight(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.inFlight[id]; ok {
		return false
	}
	d.inFlight[id] = struct{}{}
	return true
}

func (d *Dispatcher) clearInFlight(id string) {
	d.mu.Lock()
	delete(d.inFlight, id)
	d.mu.Unlock()
}
