// Package metrics exposes relay counters in Prometheus format.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "duocall"

// Failure reasons.
const (
	FailureIdentifierConflict = "identifier_conflict"
	FailureInvalidIdentifier  = "invalid_identifier"
	FailureUnresolvable       = "unresolvable_destination"
	FailureBusy               = "busy"
	FailureNotIdentified      = "not_identified"
	FailureBadPayload         = "bad_payload"
	FailureBackpressure       = "backpressure"
	FailureRateLimited        = "rate_limited"
	FailureCredentials        = "credentials"
)

type Metrics struct {
	registry *prometheus.Registry

	connections prometheus.Gauge
	identities  prometheus.Gauge
	callRecords prometheus.Gauge
	messages    *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Live signaling connections.",
		}),
		identities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "identities",
			Help:      "Identifiers currently bound to a connection.",
		}),
		callRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "call_records",
			Help:      "Identifiers currently calling or in a call.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Inbound signaling messages by kind.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Rejected or undeliverable operations by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		m.connections,
		m.identities,
		m.callRecords,
		m.messages,
		m.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

func (m *Metrics) SetIdentities(n int) {
	if m == nil {
		return
	}
	m.identities.Set(float64(n))
}

func (m *Metrics) SetCallRecords(n int) {
	if m == nil {
		return
	}
	m.callRecords.Set(float64(n))
}

func (m *Metrics) Message(kind string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(kind).Inc()
}

func (m *Metrics) Failure(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
