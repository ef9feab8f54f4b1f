// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Fetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diamond_fetches_total",
			Help: "Page and API fetches by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	RecordsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diamond_records_extracted_total",
			Help: "Normalized records produced per table.",
		},
		[]string{"table"},
	)

	Inserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diamond_inserts_total",
			Help: "Datastore inserts by table and outcome.",
		},
		[]string{"table", "outcome"},
	)

	SubjectDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diamond_subject_duration_seconds",
			Help:    "Time spent scraping one subject for one job.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
		[]string{"job"},
	)

	ActiveJobs = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "diamond_active_jobs",
		Help: "Scrape jobs currently running.",
	})
)

func init() {
	prometheus.MustRegister(Fetches, RecordsExtracted, Inserts, SubjectDuration, ActiveJobs)
}

// ObserveSubject records how long one subject took.
func ObserveSubject(job string, started time.Time) {
	SubjectDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
}

// Outcome turns an error into the "ok" / "error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
