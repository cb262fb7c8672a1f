package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus instruments for renderrelay. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestLatency     *prometheus.HistogramVec
	DeliveriesTotal    *prometheus.CounterVec
	BatchesSubmitted   prometheus.Counter
	DocumentsRequested prometheus.Counter
	SchemaFallbacks    prometheus.Counter
}

// NewMetrics creates the instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "renderrelay_remote_requests_total",
			Help: "Requests issued to the document service by operation and status code.",
		}, []string{"op", "status"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "renderrelay_remote_request_duration_seconds",
			Help:    "Latency of requests issued to the document service.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "renderrelay_webhook_deliveries_total",
			Help: "Inbound webhook deliveries by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		BatchesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "renderrelay_batches_submitted_total",
			Help: "Bulk generation requests accepted by the document service.",
		}),
		DocumentsRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "renderrelay_documents_requested_total",
			Help: "Documents requested across all submitted batches.",
		}),
		SchemaFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "renderrelay_schema_fallbacks_total",
			Help: "Template schema lookups that degraded to an empty field list.",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestLatency,
		m.DeliveriesTotal,
		m.BatchesSubmitted,
		m.DocumentsRequested,
		m.SchemaFallbacks,
	)
	return m
}

// RecordRequest records one outbound request. A status of 0 means the
// request never produced an HTTP response.
func (m *Metrics) RecordRequest(op string, status int, latencySeconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	m.RequestLatency.WithLabelValues(op).Observe(latencySeconds)
}

// RecordDelivery records the outcome of normalizing one inbound delivery.
func (m *Metrics) RecordDelivery(eventType, outcome string) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordBatch records an accepted bulk submission of n documents.
func (m *Metrics) RecordBatch(n int) {
	if m == nil {
		return
	}
	m.BatchesSubmitted.Inc()
	m.DocumentsRequested.Add(float64(n))
}

// RecordSchemaFallback records a schema lookup that degraded to empty.
func (m *Metrics) RecordSchemaFallback() {
	if m == nil {
		return
	}
	m.SchemaFallbacks.Inc()
}
