package jurisdiction

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	id "attestor/pkg/domain"
	"attestor/pkg/platform/circuit"
	"attestor/pkg/platform/sentinel"
)

// probeEvery lets one call through per this many attempts while the
// circuit is open, so consecutive probe successes can close it again.
const probeEvery = 10

// BreakerClient fails fast with sentinel.ErrUnavailable while the
// registry circuit is open instead of piling requests on a dead
// collaborator.
type BreakerClient struct {
	next     Client
	breaker  *circuit.Breaker
	logger   *slog.Logger
	attempts atomic.Uint64
}

func WithBreaker(next Client, breaker *circuit.Breaker, logger *slog.Logger) *BreakerClient {
	return &BreakerClient{next: next, breaker: breaker, logger: logger}
}

func (c *BreakerClient) Grant(ctx context.Context, subject id.Address, attributeID uint64) error {
	return c.do(func() error { return c.next.Grant(ctx, subject, attributeID) })
}

func (c *BreakerClient) Revoke(ctx context.Context, subject id.Address, attributeID uint64) error {
	return c.do(func() error { return c.next.Revoke(ctx, subject, attributeID) })
}

func (c *BreakerClient) Has(ctx context.Context, subject id.Address, attributeID uint64) (bool, error) {
	var held bool
	err := c.do(func() error {
		var inner error
		held, inner = c.next.Has(ctx, subject, attributeID)
		return inner
	})
	return held, err
}

func (c *BreakerClient) do(call func() error) error {
	if c.breaker.IsOpen() {
		if c.attempts.Add(1)%probeEvery != 0 {
			return fmt.Errorf("%w: registry circuit %q open", sentinel.ErrUnavailable, c.breaker.Name())
		}
	}

	if err := call(); err != nil {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.Warn("registry circuit opened", "breaker", c.breaker.Name())
		}
		return err
	}

	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("registry circuit closed", "breaker", c.breaker.Name())
	}
	return nil
}
