// Package jobmetrics instruments background job handlers.
package jobmetrics

import (
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Job outcomes reported in the status label.
const (
	OutcomeOK      = "ok"
	OutcomeRetry   = "retry"
	OutcomeDropped = "dropped"
)

// Metrics holds the job collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	purged      prometheus.Counter
	now         func() time.Time
}

// NewMetrics registers the job collectors on registerer. A nil registerer
// yields a nil Metrics.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		return nil
	}
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "comanda_jobs_total",
			Help: "Job executions by task type and outcome.",
		}, []string{"job", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "comanda_job_duration_seconds",
			Help:    "Job handler latency.",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 30},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "comanda_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per task type.",
		}, []string{"job"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "comanda_auth_events_purged_total",
			Help: "Audit events deleted by the retention job.",
		}),
		now: time.Now,
	}
	registerer.MustRegister(m.runs, m.duration, m.lastSuccess, m.purged)
	return m
}

// Run is one in-flight job execution.
type Run struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of job.
func (m *Metrics) Track(job string) *Run {
	r := &Run{metrics: m, job: job}
	if m != nil {
		r.start = m.now()
	}
	return r
}

// End records the outcome of the run and returns err unchanged. Errors
// wrapping asynq.SkipRetry count as dropped.
func (r *Run) End(err error) error {
	if r == nil || r.metrics == nil {
		return err
	}
	m := r.metrics
	now := m.now()
	m.duration.WithLabelValues(r.job).Observe(now.Sub(r.start).Seconds())
	m.runs.WithLabelValues(r.job, Outcome(err)).Inc()
	if err == nil {
		m.lastSuccess.WithLabelValues(r.job).Set(float64(now.Unix()))
	}
	return err
}

// Outcome classifies a handler result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, asynq.SkipRetry):
		return OutcomeDropped
	default:
		return OutcomeRetry
	}
}

// AddPurged counts audit events removed by retention.
func (m *Metrics) AddPurged(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.purged.Add(float64(count))
}
