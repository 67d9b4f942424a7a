package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingogate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingogate_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Admission Metrics
	AdmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingogate_admissions_total",
			Help: "Total number of admission decisions",
		},
		[]string{"tier", "outcome"},
	)

	// Answer Store Metrics
	AnswerLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingogate_answer_lookups_total",
			Help: "Total number of answer store lookups",
		},
		[]string{"origin"},
	)

	// Job Metrics
	JobsEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lingogate_jobs_enqueued_total",
			Help: "Total number of translation jobs enqueued",
		},
	)

	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingogate_jobs_completed_total",
			Help: "Total number of completed translation jobs",
		},
		[]string{"status"},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lingogate_jobs_in_progress",
			Help: "Number of jobs currently being processed",
		},
	)

	JobsQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lingogate_jobs_queue_depth",
			Help: "Number of jobs waiting in queue",
		},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lingogate_job_duration_seconds",
			Help:    "Job processing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5 min
		},
		[]string{"origin"},
	)

	JobQueueTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lingogate_job_queue_time_seconds",
			Help:    "Time jobs spend waiting in queue",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// Backend Metrics
	BackendCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingogate_backend_calls_total",
			Help: "Total number of translation backend calls",
		},
		[]string{"status"},
	)

	BackendCallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lingogate_backend_call_duration_seconds",
			Help:    "Translation backend call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	// Feedback Metrics
	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingogate_feedback_total",
			Help: "Total number of feedback transitions",
		},
		[]string{"action"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lingogate_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordAdmission records an admission decision
func RecordAdmission(tier, outcome string) {
	AdmissionsTotal.WithLabelValues(tier, outcome).Inc()
}

// RecordAnswerLookup records an answer store lookup by origin
// (verified, cached, miss)
func RecordAnswerLookup(origin string) {
	AnswerLookupsTotal.WithLabelValues(origin).Inc()
}

// RecordJobEnqueued records a job admission to the queue
func RecordJobEnqueued(queueDepth int) {
	JobsEnqueuedTotal.Inc()
	JobsQueueDepth.Set(float64(queueDepth))
}

// RecordJobCompleted records a job completion
func RecordJobCompleted(status, origin string, duration float64) {
	JobsCompletedTotal.WithLabelValues(status).Inc()
	JobDuration.WithLabelValues(origin).Observe(duration)
}

// RecordBackendCall records a backend call outcome
func RecordBackendCall(status string, duration float64) {
	BackendCallsTotal.WithLabelValues(status).Inc()
	BackendCallDuration.Observe(duration)
}

// RecordFeedback records a feedback workflow transition
func RecordFeedback(action string) {
	FeedbackTotal.WithLabelValues(action).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
