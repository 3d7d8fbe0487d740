// Package trigger provides the periodic signal that drives the dispatcher.
package trigger

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
)

// Trigger delivers tick times on C until stopped.
type Trigger interface {
	C() <-chan time.Time
	Stop()
}

type ticker struct {
	t *time.Ticker
}

// NewTicker fires every interval.
func NewTicker(interval time.Duration) (Trigger, error) {
	if interval <= 0 {
		return nil, errors.Newf("trigger interval must be positive, got %s", interval)
	}
	return &ticker{t: time.NewTicker(interval)}, nil
}

func (t *ticker) C() <-chan time.Time { return t.t.C }
func (t *ticker) Stop()               { t.t.Stop() }

type cronTrigger struct {
	cron *cron.Cron
	ch   chan time.Time
}

// NewCron fires on a standard five-field cron spec or descriptor such as "@every 5m".
// A tick is dropped when the previous one has not been consumed yet.
func NewCron(spec string) (Trigger, error) {
	c := cron.New()
	ch := make(chan time.Time, 1)
	_, err := c.AddFunc(spec, func() {
		select {
		case ch <- time.Now().UTC():
		default:
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "invalid trigger spec %q", spec)
	}
	c.Start()
	return &cronTrigger{cron: c, ch: ch}, nil
}

func (t *cronTrigger) C() <-chan time.Time { return t.ch }
func (t *cronTrigger) Stop()               { t.cron.Stop() }

// Manual fires only when told to. Fire blocks until the tick is received or the trigger stops.
type Manual struct {
	ch   chan time.Time
	done chan struct{}
	once sync.Once
}

func NewManual() *Manual {
	return &Manual{ch: make(chan time.Time), done: make(chan struct{})}
}

func (m *Manual) C() <-chan time.Time { return m.ch }

func (m *Manual) Fire(t time.Time) {
	select {
	case m.ch <- t:
	case <-m.done:
	}
}

func (m *Manual) Stop() {
	m.once.Do(func() { close(m.done) })
}
