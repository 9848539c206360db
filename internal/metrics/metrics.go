// Package metrics holds the Prometheus collectors for background jobs.
// They register with the default registry, which fiberprometheus serves at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveJobs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "builder",
		Name:      "active_jobs",
		Help:      "Background jobs currently running, by kind.",
	}, []string{"kind"})

	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "builder",
		Name:      "jobs_total",
		Help:      "Finished background jobs, by kind and result.",
	}, []string{"kind", "result"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "builder",
		Name:      "job_duration_seconds",
		Help:      "Wall time of background jobs.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
	}, []string{"kind"})

	PreviewsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "builder",
		Name:      "previews_reaped_total",
		Help:      "Expired preview deployments destroyed by the reaper.",
	})
)
