package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "snapmesh"

// Assertion outcomes.
const (
	OutcomePass            = "pass"
	OutcomeRecorded        = "recorded"
	OutcomeMismatch        = "mismatch"
	OutcomeMissingSnapshot = "missing_snapshot"
	OutcomeMissingGroup    = "missing_group"
	OutcomeError           = "error"
)

// Broadcast results.
const (
	BroadcastSent    = "sent"
	BroadcastDropped = "dropped"
	BroadcastFailed  = "failed"
)

// Registry holds all snapmesh metrics.
type Registry struct {
	registry *prometheus.Registry

	Assertions *prometheus.CounterVec
	Writes     *prometheus.CounterVec
	Broadcasts *prometheus.CounterVec
	Received   prometheus.Counter
}

// NewRegistry creates the metrics on a private Prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		Assertions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "assertions_total",
			Help:      "Snapshot assertions by resolved mode and outcome",
		}, []string{"mode", "outcome"}),
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "writes_total",
			Help:      "Baseline persist attempts by result (written, unchanged)",
		}, []string{"result"}),
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "messages_total",
			Help:      "Broadcast messages by result (sent, dropped, failed)",
		}, []string{"result"}),
		Received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "received_total",
			Help:      "Broadcast messages accepted by the receiver",
		}),
	}

	r.registry.MustRegister(r.Assertions, r.Writes, r.Broadcasts, r.Received)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveAssertion counts one assertion.
func (r *Registry) ObserveAssertion(mode, outcome string) {
	if r == nil {
		return
	}
	r.Assertions.WithLabelValues(mode, outcome).Inc()
}

// ObserveWrite counts one persist attempt.
func (r *Registry) ObserveWrite(written bool) {
	if r == nil {
		return
	}
	result := "unchanged"
	if written {
		result = "written"
	}
	r.Writes.WithLabelValues(result).Inc()
}

// ObserveBroadcast counts one broadcast attempt.
func (r *Registry) ObserveBroadcast(result string) {
	if r == nil {
		return
	}
	r.Broadcasts.WithLabelValues(result).Inc()
}

// ObserveReceived counts one message accepted by the receiver.
func (r *Registry) ObserveReceived() {
	if r == nil {
		return
	}
	r.Received.Inc()
}
