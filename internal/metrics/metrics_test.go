package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RezaEskandarii/reportfire/internal/state"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.TickStarted()
	m.TickStarted()
	m.TickSkipped()
	m.ClaimLost()
	m.ExecutionFinished(state.StatusPartial, 150*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticksSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.claimsLost))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.executions.WithLabelValues("partial")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.executions.WithLabelValues("success")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ExecutionFinished(state.StatusSuccess, time.Second)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `reportfire_executions_total{status="success"} 1`)
	assert.Contains(t, string(body), "reportfire_execution_duration_seconds_bucket")
}
