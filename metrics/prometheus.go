// Package metrics collects counters about storage staging and cluster
// submissions for one run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors of one run. Each run gets its own registry
// so separate runs in one process don't share counts.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	uploads         *prometheus.CounterVec
	disabled        *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	submitDurations prometheus.Histogram
}

// New returns a Metrics instance with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sparkrun",
				Subsystem: "storage",
				Name:      "uploads_total",
				Help:      "Number of files uploaded, by URL scheme.",
			},
			[]string{"scheme"},
		),
		disabled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sparkrun",
				Subsystem: "storage",
				Name:      "backend_disabled_total",
				Help:      "Number of storage backends disabled after a permanent error.",
			},
			[]string{"backend"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sparkrun",
				Name:      "submissions_total",
				Help:      "Number of spark-submit invocations, by result.",
			},
			[]string{"result"},
		),
		submitDurations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sparkrun",
			Name:      "submission_duration_seconds",
			Help:      "Wall time of spark-submit invocations.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	m.Registry.MustRegister(m.uploads, m.disabled, m.submissions, m.submitDurations)
	return m
}

// Upload counts one uploaded file.
func (m *Metrics) Upload(scheme string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(scheme).Inc()
}

// BackendDisabled counts a storage backend being disabled.
func (m *Metrics) BackendDisabled(backend string) {
	if m == nil {
		return
	}
	m.disabled.WithLabelValues(backend).Inc()
}

// Submission records the result and duration of one submission.
func (m *Metrics) Submission(success bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.submissions.WithLabelValues(result).Inc()
	m.submitDurations.Observe(d.Seconds())
}

// WriteTextfile writes the metrics to path in the prometheus text format,
// for collection by the node exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
