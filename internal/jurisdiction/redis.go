package jurisdiction

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	id "attestor/pkg/domain"
	"attestor/pkg/platform/sentinel"
)

// RedisClient stores grants as set members keyed by attribute id. It is
// meant for deployments where the registry is a shared Redis instance
// rather than a remote service.
type RedisClient struct {
	rdb redis.Cmdable
}

func NewRedisClient(rdb redis.Cmdable) *RedisClient {
	return &RedisClient{rdb: rdb}
}

func (c *RedisClient) Grant(ctx context.Context, subject id.Address, attributeID uint64) error {
	if err := c.rdb.SAdd(ctx, attributeKey(attributeID), subject.String()).Err(); err != nil {
		return fmt.Errorf("%w: redis grant: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (c *RedisClient) Revoke(ctx context.Context, subject id.Address, attributeID uint64) error {
	if err := c.rdb.SRem(ctx, attributeKey(attributeID), subject.String()).Err(); err != nil {
		return fmt.Errorf("%w: redis revoke: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (c *RedisClient) Has(ctx context.Context, subject id.Address, attributeID uint64) (bool, error) {
	held, err := c.rdb.SIsMember(ctx, attributeKey(attributeID), subject.String()).Result()
	if err != nil {
		return false, fmt.Errorf("%w: redis lookup: %v", sentinel.ErrUnavailable, err)
	}
	return held, nil
}

func attributeKey(attributeID uint64) string {
	return "jurisdiction:attribute:" + strconv.FormatUint(attributeID, 10)
}
