// Package cache holds trend report caches for the journal queries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
)

const keyPrefix = "moodlens:trend:"

// GenerationKey holds the user's cache generation. It has no expiry.
func GenerationKey(userID uuid.UUID) string {
	return keyPrefix + userID.String() + ":gen"
}

// TrendKey holds one cached report for a user, generation and limit.
func TrendKey(userID uuid.UUID, generation int64, limit int) string {
	return keyPrefix + userID.String() + ":" + strconv.FormatInt(generation, 10) + ":" + strconv.Itoa(limit)
}

// RedisTrendCache stores each report as its own JSON string with its own
// TTL. Invalidate bumps the generation; reports of older generations are
// never read again and expire on their own.
type RedisTrendCache struct {
	client redis.Cmdable
}

// NewRedisTrendCache creates a Redis-backed trend cache.
func NewRedisTrendCache(client redis.Cmdable) *RedisTrendCache {
	return &RedisTrendCache{client: client}
}

func (c *RedisTrendCache) Generation(ctx context.Context, userID uuid.UUID) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read trend generation: %w", err)
	}
	return gen, nil
}

func (c *RedisTrendCache) Get(ctx context.Context, userID uuid.UUID, generation int64, limit int) (*queries.TrendReport, bool, error) {
	raw, err := c.client.Get(ctx, TrendKey(userID, generation, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read trend cache: %w", err)
	}

	var report queries.TrendReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, false, fmt.Errorf("decode cached trend: %w", err)
	}
	return &report, true, nil
}

func (c *RedisTrendCache) Set(ctx context.Context, userID uuid.UUID, generation int64, limit int, report *queries.TrendReport, ttl time.Duration) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, TrendKey(userID, generation, limit), raw, ttl).Err(); err != nil {
		return fmt.Errorf("write trend cache: %w", err)
	}
	return nil
}

func (c *RedisTrendCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.Incr(ctx, GenerationKey(userID)).Err()
}

// Ping checks the connection for the readiness probe.
func (c *RedisTrendCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
