package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
)

type memoryItem struct {
	report    *queries.TrendReport
	expiresAt time.Time
}

type memoryUser struct {
	generation int64
	items      map[int]memoryItem
}

// MemoryTrendCache keeps reports in process. It is used when no Redis URL
// is configured.
type MemoryTrendCache struct {
	mu    sync.Mutex
	users map[uuid.UUID]*memoryUser
	now   func() time.Time
}

// NewMemoryTrendCache creates an empty in-memory cache.
func NewMemoryTrendCache() *MemoryTrendCache {
	return &MemoryTrendCache{
		users: make(map[uuid.UUID]*memoryUser),
		now:   time.Now,
	}
}

func (c *MemoryTrendCache) user(userID uuid.UUID) *memoryUser {
	u, ok := c.users[userID]
	if !ok {
		u = &memoryUser{items: make(map[int]memoryItem)}
		c.users[userID] = u
	}
	return u
}

func (c *MemoryTrendCache) Generation(_ context.Context, userID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user(userID).generation, nil
}

func (c *MemoryTrendCache) Get(_ context.Context, userID uuid.UUID, generation int64, limit int) (*queries.TrendReport, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users[userID]
	if !ok || u.generation != generation {
		return nil, false, nil
	}
	item, ok := u.items[limit]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(item.expiresAt) {
		delete(u.items, limit)
		return nil, false, nil
	}
	return item.report, true, nil
}

func (c *MemoryTrendCache) Set(_ context.Context, userID uuid.UUID, generation int64, limit int, report *queries.TrendReport, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	u := c.user(userID)
	if u.generation != generation {
		return nil
	}
	u.items[limit] = memoryItem{report: report, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryTrendCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	u := c.user(userID)
	u.generation++
	clear(u.items)
	return nil
}
