// Package metrics exposes dispatcher and execution counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reportfire"

type Metrics struct {
	registry *prometheus.Registry

	ticks             prometheus.Counter
	ticksSkipped      prometheus.Counter
	claimsLost        prometheus.Counter
	executions        *prometheus.CounterVec
	executionDuration prometheus.Histogram
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Dispatcher ticks started.",
		}),
		ticksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_skipped_total",
			Help:      "Ticks skipped because the previous tick was still running.",
		}),
		claimsLost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_lost_total",
			Help:      "Due schedules not executed because another instance claimed them.",
		}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Schedule executions by final status.",
		}, []string{"status"}),
		executionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_duration_seconds",
			Help:      "Wall time of a single schedule execution.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}

	m.registry.MustRegister(
		m.ticks,
		m.ticksSkipped,
		m.claimsLost,
		m.executions,
		m.executionDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, s := range state.AllStatuses {
		m.executions.WithLabelValues(s.String())
	}
	return m
}

func (m *Metrics) TickStarted() { m.ticks.Inc() }
func (m *Metrics) TickSkipped() { m.ticksSkipped.Inc() }
func (m *Metrics) ClaimLost()   { m.claimsLost.Inc() }

func (m *Metrics) ExecutionFinished(status state.ExecutionStatus, d time.Duration) {
	m.executions.WithLabelValues(status.String()).Inc()
	m.executionDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
