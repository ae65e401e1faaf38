// Package metrics exposes Prometheus instrumentation for validator
// operations. Everything is registered through promauto on the default
// registry; cmd/server serves it at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	organizationsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attestor_organizations_registered_total",
		Help: "Organizations registered by the owner.",
	})

	attributesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attestor_attributes_issued_total",
		Help: "Attribute issuances committed.",
	})

	attributesRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attestor_attributes_revoked_total",
		Help: "Attribute revocations committed.",
	})

	registryDesyncs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attestor_registry_desyncs_total",
		Help: "Issuance or revocation attempts aborted because the jurisdiction registry did not confirm the change.",
	})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attestor_operation_duration_seconds",
		Help:    "Validator operation latency by operation and outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "status"})
)

// Recorder is the hook services call. A nil *Recorder is safe to use, so
// wiring metrics stays optional in tests.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) OrganizationRegistered() {
	if r == nil {
		return
	}
	organizationsRegistered.Inc()
}

func (r *Recorder) AttributeIssued() {
	if r == nil {
		return
	}
	attributesIssued.Inc()
}

func (r *Recorder) AttributeRevoked() {
	if r == nil {
		return
	}
	attributesRevoked.Inc()
}

func (r *Recorder) RegistryDesync() {
	if r == nil {
		return
	}
	registryDesyncs.Inc()
}

// ObserveOperation records one operation's latency and outcome.
func (r *Recorder) ObserveOperation(op string, start time.Time, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	operationDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}
