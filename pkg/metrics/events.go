package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EventMetrics counts domain event publishing outcomes.
type EventMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewEventMetrics registers the event counters on the provided registerer.
func NewEventMetrics(reg prometheus.Registerer) *EventMetrics {
	if reg == nil {
		return &EventMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solecart_events_published_total",
		Help: "Domain events successfully published.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solecart_events_failed_total",
		Help: "Domain events that could not be published.",
	}, []string{"event_type"})
	reg.MustRegister(published, failed)
	return &EventMetrics{published: published, failed: failed}
}

func (e *EventMetrics) IncPublished(eventType string) {
	if e == nil || e.published == nil {
		return
	}
	e.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (e *EventMetrics) IncFailed(eventType string) {
	if e == nil || e.failed == nil {
		return
	}
	e.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

// PublishedCounter exposes the published counter for a label, mainly for tests.
func (e *EventMetrics) PublishedCounter(eventType string) prometheus.Counter {
	return e.published.WithLabelValues(normalizeLabel(eventType))
}

// FailedCounter exposes the failed counter for a label, mainly for tests.
func (e *EventMetrics) FailedCounter(eventType string) prometheus.Counter {
	return e.failed.WithLabelValues(normalizeLabel(eventType))
}
