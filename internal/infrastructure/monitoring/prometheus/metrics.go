package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds the query service metrics. A nil *AppMetrics records
// nothing, so callers never need to guard.
type AppMetrics struct {
	QueriesTotal             CounterVec
	ClassificationsTotal     CounterVec
	ClarificationsTotal      CounterVec
	ClarificationsPending    GaugeVec
	NumericalQueryDuration   HistogramVec
	GenerativeRequestsTotal  CounterVec
	GenerativeLatency        HistogramVec
	ActiveSessions           GaugeVec
	PersistenceFailuresTotal CounterVec
	PromptInjectionsTotal    CounterVec

	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
}

var (
	DefaultHTTPDurationBuckets       = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultGenerativeDurationBuckets = []float64{.25, .5, 1, 2, 5, 10, 30, 60}
	DefaultDBDurationBuckets         = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers every metric family on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	return &AppMetrics{
		QueriesTotal:             collector.RegisterCounter("queries_total", "Processed queries by route", "route"),
		ClassificationsTotal:     collector.RegisterCounter("classification_total", "Classifications by domain and intent", "domain", "intent"),
		ClarificationsTotal:      collector.RegisterCounter("clarifications_total", "Clarification requests by ambiguity type", "ambiguity_type"),
		ClarificationsPending:    collector.RegisterGauge("clarification_pending", "Clarification requests awaiting an answer"),
		NumericalQueryDuration:   collector.RegisterHistogram("numerical_query_duration_seconds", "Numerical query execution time", DefaultDBDurationBuckets, "entity_type", "operation"),
		GenerativeRequestsTotal:  collector.RegisterCounter("generative_requests_total", "Generative backend calls", "provider", "status"),
		GenerativeLatency:        collector.RegisterHistogram("generative_latency_seconds", "Generative backend latency", DefaultGenerativeDurationBuckets, "provider"),
		ActiveSessions:           collector.RegisterGauge("active_sessions", "Live conversation sessions"),
		PersistenceFailuresTotal: collector.RegisterCounter("persistence_failures_total", "Best-effort session writes that failed", "sink"),
		PromptInjectionsTotal:    collector.RegisterCounter("prompt_injections_total", "Rejected prompt-injection attempts"),
		HTTPRequestsTotal:        collector.RegisterCounter("http_requests_total", "HTTP requests", "method", "path", "status"),
		HTTPRequestDuration:      collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path"),
	}
}

func (m *AppMetrics) RecordQuery(route string) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(route).Inc()
}

func (m *AppMetrics) RecordClassification(domain, intent string) {
	if m == nil {
		return
	}
	m.ClassificationsTotal.WithLabelValues(domain, intent).Inc()
}

func (m *AppMetrics) RecordClarification(ambiguityType string, pending int) {
	if m == nil {
		return
	}
	if ambiguityType != "" {
		m.ClarificationsTotal.WithLabelValues(ambiguityType).Inc()
	}
	m.ClarificationsPending.WithLabelValues().Set(float64(pending))
}

func (m *AppMetrics) RecordNumericalQuery(entityType, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.NumericalQueryDuration.WithLabelValues(entityType, operation).Observe(d.Seconds())
}

func (m *AppMetrics) RecordGenerativeCall(provider string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.GenerativeRequestsTotal.WithLabelValues(provider, status).Inc()
	m.GenerativeLatency.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *AppMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.WithLabelValues().Set(float64(n))
}

func (m *AppMetrics) RecordPersistenceFailure(sink string) {
	if m == nil {
		return
	}
	m.PersistenceFailuresTotal.WithLabelValues(sink).Inc()
}

func (m *AppMetrics) RecordPromptInjection() {
	if m == nil {
		return
	}
	m.PromptInjectionsTotal.WithLabelValues().Inc()
}

func (m *AppMetrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

//Personal.AI order the ending
