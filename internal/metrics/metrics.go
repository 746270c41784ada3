package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the process collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	completionsTotal    *prometheus.CounterVec
	staleCompletions    prometheus.Counter
	tasksCreated        prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		completionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streaks_completions_total",
				Help: "Completed occurrences by timing relative to the due date",
			},
			[]string{"timing"},
		),
		staleCompletions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streaks_stale_completions_total",
			Help: "Completion attempts against an occurrence that was not the task's current one",
		}),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streaks_tasks_created_total",
			Help: "Tasks created",
		}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.completionsTotal,
		m.staleCompletions,
		m.tasksCreated,
	)
	return m
}

func (m *Metrics) ObserveRequest(path, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(path, method, http.StatusText(status)).Inc()
	m.httpRequestDuration.WithLabelValues(path, method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCompletion(timing string) {
	if m == nil {
		return
	}
	m.completionsTotal.WithLabelValues(timing).Inc()
}

func (m *Metrics) ObserveStaleCompletion() {
	if m == nil {
		return
	}
	m.staleCompletions.Inc()
}

func (m *Metrics) ObserveTaskCreated() {
	if m == nil {
		return
	}
	m.tasksCreated.Inc()
}
