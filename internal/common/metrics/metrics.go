package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Quote sources.
const (
	SourceCache    = "cache"
	SourceUpstream = "upstream"
	SourceFallback = "fallback"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ShippingQuotes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipping_quotes_total",
			Help: "Shipping quotes served, by source",
		},
		[]string{"source"},
	)

	ShippingUpstreamFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipping_upstream_failures_total",
			Help: "Upstream rate API failures that degraded to the fallback table",
		},
		[]string{"reason"},
	)

	ShippingQuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shipping_quote_duration_seconds",
			Help:    "Time to produce a shipping quote",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	VariantResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "variant_resolutions_total",
			Help: "Successful variant resolutions, by match tier",
		},
		[]string{"tier"},
	)

	VariantResolutionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "variant_resolution_failures_total",
			Help: "Failed variant resolutions, by error code",
		},
		[]string{"code"},
	)
)
