// Package publisher provides a fail-closed audit publisher.
//
// Emit writes the event synchronously and the caller blocks until the write
// succeeds. If the write fails, an error is returned and the calling operation
// MUST fail: the validator's events are its compliance record, so a mutation
// without its event is worse than no mutation at all.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	audit "attestor/pkg/platform/audit"
)

// Publisher emits audit events with fail-closed semantics.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	inbox   chan<- audit.Event
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithAsyncOperations routes operations-category events through inbox instead
// of the synchronous store write. A worker drains the channel; compliance and
// security events always stay on the fail-closed path.
func WithAsyncOperations(inbox chan<- audit.Event) Option {
	return func(p *Publisher) {
		p.inbox = inbox
	}
}

// New creates a publisher over the given store.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously writes an event to the audit store.
// Returns an error if persistence fails; the caller must abort its operation.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.Action == "" {
		return fmt.Errorf("audit event requires Action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.inbox != nil && event.Category == audit.CategoryOperations {
		select {
		case p.inbox <- event:
			if p.metrics != nil {
				p.metrics.IncEventsEmitted()
			}
			return nil
		default:
			// Full inbox falls through to the synchronous write.
		}
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit persistence failed",
				"action", event.Action,
				"organization", event.Organization,
				"error", err,
			)
		}
		return fmt.Errorf("audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted()
	}
	return nil
}
