package notify

import (
	"context"

	"approval-engine/internal/domain/approval"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts events by topic and request type and tracks how long
// requests wait between creation and their resolving event.
type Metrics struct {
	events     *prometheus.CounterVec
	resolution *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "approval",
			Subsystem: "requests",
			Name:      "events_total",
			Help:      "Approval events broken down by topic and request type.",
		}, []string{"topic", "request_type"}),
		resolution: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "approval",
			Subsystem: "requests",
			Name:      "resolution_seconds",
			Help:      "Time from request creation to the event that resolved it.",
			Buckets:   []float64{1, 10, 60, 300, 1800, 3600, 6 * 3600, 24 * 3600, 7 * 24 * 3600},
		}, []string{"topic"}),
	}
}

func (m *Metrics) Notify(_ context.Context, evt approval.Notification) {
	m.events.WithLabelValues(string(evt.Topic), evt.Request.RequestType.String()).Inc()

	switch evt.Topic {
	case approval.TopicRequestCreated, approval.TopicRequestExecutionFailed:
		return
	}
	if waited := evt.OccurredAt.Sub(evt.Request.RequestedAt); waited >= 0 {
		m.resolution.WithLabelValues(string(evt.Topic)).Observe(waited.Seconds())
	}
}
