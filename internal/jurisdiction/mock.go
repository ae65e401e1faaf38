package jurisdiction

import (
	"context"
	"strconv"
	"sync"
	"time"

	id "attestor/pkg/domain"
	"attestor/pkg/platform/sentinel"
)

// MockClient keeps grants in memory with a configurable latency to mimic
// real-world calls. DropGrants makes Grant return success without
// recording anything, which is how desync scenarios are exercised.
type MockClient struct {
	Latency time.Duration
	// Fail makes every call return sentinel.ErrUnavailable.
	Fail bool
	// DropGrants silently discards grants so Has never sees them.
	DropGrants bool

	mu      sync.Mutex
	granted map[string]struct{}
}

func NewMockClient(latency time.Duration) *MockClient {
	return &MockClient{
		Latency: latency,
		granted: make(map[string]struct{}),
	}
}

func (c *MockClient) Grant(_ context.Context, subject id.Address, attributeID uint64) error {
	time.Sleep(c.Latency)
	if c.Fail {
		return sentinel.ErrUnavailable
	}
	if c.DropGrants {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.granted == nil {
		c.granted = make(map[string]struct{})
	}
	c.granted[grantKey(subject, attributeID)] = struct{}{}
	return nil
}

func (c *MockClient) Revoke(_ context.Context, subject id.Address, attributeID uint64) error {
	time.Sleep(c.Latency)
	if c.Fail {
		return sentinel.ErrUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.granted, grantKey(subject, attributeID))
	return nil
}

func (c *MockClient) Has(_ context.Context, subject id.Address, attributeID uint64) (bool, error) {
	time.Sleep(c.Latency)
	if c.Fail {
		return false, sentinel.ErrUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.granted[grantKey(subject, attributeID)]
	return ok, nil
}

func grantKey(subject id.Address, attributeID uint64) string {
	return subject.String() + "/" + strconv.FormatUint(attributeID, 10)
}
