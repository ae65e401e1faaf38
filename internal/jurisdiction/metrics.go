package jurisdiction

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	id "attestor/pkg/domain"
)

var (
	registryCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attestor_registry_calls_total",
		Help: "Jurisdiction registry calls by operation and outcome.",
	}, []string{"op", "status"})

	registryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attestor_registry_call_duration_seconds",
		Help:    "Jurisdiction registry call latency by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

// InstrumentedClient records call counts and latency for every registry
// operation.
type InstrumentedClient struct {
	next Client
}

func WithMetrics(next Client) *InstrumentedClient {
	return &InstrumentedClient{next: next}
}

func (c *InstrumentedClient) Grant(ctx context.Context, subject id.Address, attributeID uint64) error {
	return c.observe("grant", func() error { return c.next.Grant(ctx, subject, attributeID) })
}

func (c *InstrumentedClient) Revoke(ctx context.Context, subject id.Address, attributeID uint64) error {
	return c.observe("revoke", func() error { return c.next.Revoke(ctx, subject, attributeID) })
}

func (c *InstrumentedClient) Has(ctx context.Context, subject id.Address, attributeID uint64) (bool, error) {
	var held bool
	err := c.observe("has", func() error {
		var inner error
		held, inner = c.next.Has(ctx, subject, attributeID)
		return inner
	})
	return held, err
}

func (c *InstrumentedClient) observe(op string, call func() error) error {
	start := time.Now()
	err := call()
	registryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
	}
	registryCalls.WithLabelValues(op, status).Inc()
	return err
}
