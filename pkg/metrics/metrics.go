// Package metrics defines this core's Prometheus instrumentation:
// counters and histograms for each worker's pipeline stage, exposed on
// a small HTTP server (see server.go) that every cmd/* binary starts
// alongside its main loop.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IngestionRunsTotal counts finished ingestion dispatches by outcome.
	IngestionRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingestion_runs_total",
		Help: "Total number of completed ingestion runs by status.",
	}, []string{"status"})

	// IngestionRunDuration measures one dispatch's end-to-end latency.
	IngestionRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingestion_run_duration_seconds",
		Help:    "Duration of one ingestion run, claim to finish.",
		Buckets: prometheus.DefBuckets,
	})

	// ProviderFetchesTotal counts per-provider fetch attempts by outcome.
	ProviderFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_fetches_total",
		Help: "Total number of provider adapter fetches by provider and status.",
	}, []string{"provider", "status"})

	// ClassificationRunsTotal counts finished classification batches.
	ClassificationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classification_runs_total",
		Help: "Total number of completed classification runs by status.",
	}, []string{"status"})

	// ClassifiedItemsTotal counts individually classified content items
	// by the sentiment label the LLM assigned.
	ClassifiedItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classified_items_total",
		Help: "Total number of content items classified, by sentiment.",
	}, []string{"sentiment"})

	// LLMAPICallsTotal counts outbound classification model invocations.
	LLMAPICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_api_calls_total",
		Help: "Total number of LLM classification API calls by provider.",
	}, []string{"provider"})

	// LLMAPIErrorsTotal counts failed classification model invocations.
	LLMAPIErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_api_errors_total",
		Help: "Total number of LLM classification API errors by provider and error type.",
	}, []string{"provider", "error_type"})

	// LLMClassificationDuration measures one item's classification call latency.
	LLMClassificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "llm_classification_duration_seconds",
		Help:    "Duration of one LLM classification call.",
		Buckets: prometheus.DefBuckets,
	})

	// IncidentOutcomesTotal counts the incident state machine's decision
	// for each evaluated scope, per spec §4.5's create/escalate/dedupe/
	// refresh/skip outcomes.
	IncidentOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "incident_outcomes_total",
		Help: "Total number of incident evaluations by scope, severity and outcome.",
	}, []string{"scope", "severity", "outcome"})

	// ActiveIncidents tracks the current count of open incidents per scope.
	ActiveIncidents = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "active_incidents",
		Help: "Current number of open incidents by scope.",
	}, []string{"scope"})

	// ReportRunsTotal counts finished report-worker runs by outcome.
	ReportRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "report_runs_total",
		Help: "Total number of completed report runs by status.",
	}, []string{"status"})

	// ReportGenerationDuration measures one report run's end-to-end latency.
	ReportGenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "report_generation_duration_seconds",
		Help:    "Duration of one report run, claim to finish.",
		Buckets: prometheus.DefBuckets,
	})

	// SocialObjectsIngestedTotal counts processed social CSV objects by
	// channel and reconciliation status.
	SocialObjectsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_objects_ingested_total",
		Help: "Total number of social channel CSV objects processed, by channel and reconciliation status.",
	}, []string{"channel", "status"})

	// SocialPostsIngestedTotal counts rows upserted as social posts.
	SocialPostsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "social_posts_ingested_total",
		Help: "Total number of social posts ingested, by channel.",
	}, []string{"channel"})

	// HTTPRequestsTotal counts API requests by route and response status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP API requests by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration measures API request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP API requests by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// RecordIngestionRun records one finished ingestion run's outcome and duration.
func RecordIngestionRun(status string, duration time.Duration) {
	IngestionRunsTotal.WithLabelValues(status).Inc()
	IngestionRunDuration.Observe(duration.Seconds())
}

// RecordProviderFetch records one provider adapter fetch's outcome.
func RecordProviderFetch(provider, status string) {
	ProviderFetchesTotal.WithLabelValues(provider, status).Inc()
}

// RecordClassificationRun records one finished classification run's outcome and duration.
func RecordClassificationRun(status string, duration time.Duration) {
	ClassificationRunsTotal.WithLabelValues(status).Inc()
	ClassificationRunDuration.Observe(duration.Seconds())
}

// RecordClassifiedItem records one content item's assigned sentiment.
func RecordClassifiedItem(sentiment string) {
	ClassifiedItemsTotal.WithLabelValues(sentiment).Inc()
}

// RecordLLMCall records one outbound classification model call.
func RecordLLMCall(provider string) {
	LLMAPICallsTotal.WithLabelValues(provider).Inc()
}

// RecordLLMError records one failed classification model call.
func RecordLLMError(provider, errorType string) {
	LLMAPIErrorsTotal.WithLabelValues(provider, errorType).Inc()
}

// RecordIncidentOutcome records the state machine's decision for one
// evaluated scope.
func RecordIncidentOutcome(scope, severity, outcome string) {
	IncidentOutcomesTotal.WithLabelValues(scope, severity, outcome).Inc()
}

// SetActiveIncidents sets the current open-incident gauge for scope.
func SetActiveIncidents(scope string, count float64) {
	ActiveIncidents.WithLabelValues(scope).Set(count)
}

// RecordReportRun records one finished report run's outcome and duration.
func RecordReportRun(status string, duration time.Duration) {
	ReportRunsTotal.WithLabelValues(status).Inc()
	ReportGenerationDuration.Observe(duration.Seconds())
}

// RecordSocialObject records one processed social CSV object's reconciliation status.
func RecordSocialObject(channel, status string) {
	SocialObjectsIngestedTotal.WithLabelValues(channel, status).Inc()
}

// RecordSocialPosts records posts upserted for channel in one pass.
func RecordSocialPosts(channel string, count int) {
	if count <= 0 {
		return
	}
	SocialPostsIngestedTotal.WithLabelValues(channel).Add(float64(count))
}

// RecordHTTPRequest records one API request's route, status and duration.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// ClassificationRunDuration measures one classification run's end-to-end latency.
var ClassificationRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "classification_run_duration_seconds",
	Help:    "Duration of one classification run, claim to finish.",
	Buckets: prometheus.DefBuckets,
})

// Timer measures elapsed wall-clock time from its creation, for workers
// that record a duration at the end of a unit of work.
type Timer struct {
	start time.Time
}

// NewTimer starts a new Timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the time since the timer was created.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
