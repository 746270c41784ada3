package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCompletion("early")
	m.ObserveCompletion("early")
	m.ObserveCompletion("late")
	m.ObserveStaleCompletion()
	m.ObserveTaskCreated()
	m.ObserveRequest("/api/v1/tasks", http.MethodGet, http.StatusOK, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.completionsTotal.WithLabelValues("early")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completionsTotal.WithLabelValues("late")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleCompletions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasksCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/api/v1/tasks", "GET", "OK")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCompletion("early")
		m.ObserveStaleCompletion()
		m.ObserveTaskCreated()
		m.ObserveRequest("/", http.MethodGet, http.StatusOK, time.Second)
	})
}
