package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

var (
	_ queries.TrendCache = (*MemoryTrendCache)(nil)
	_ queries.TrendCache = (*RedisTrendCache)(nil)
)

func sampleReport() *queries.TrendReport {
	return &queries.TrendReport{
		TrendSummary: moodDomain.TrendSummary{
			DominantMood:     moodDomain.MoodCalm,
			TrendDirection:   moodDomain.TrendImproving,
			MoodDistribution: map[moodDomain.Mood]int{moodDomain.MoodCalm: 2},
			Insights:         []string{"Mood is improving"},
		},
		EntryCount:  2,
		Limit:       90,
		GeneratedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMemoryTrendCache(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	c := NewMemoryTrendCache()
	c.now = func() time.Time { return now }

	gen, err := c.Generation(ctx, userID)
	require.NoError(t, err)
	_, ok, err := c.Get(ctx, userID, gen, 90)
	require.NoError(t, err)
	assert.False(t, ok)

	report := sampleReport()
	require.NoError(t, c.Set(ctx, userID, gen, 90, report, time.Minute))
	require.NoError(t, c.Set(ctx, userID, gen, 7, report, 2*time.Minute))

	got, ok, err := c.Get(ctx, userID, gen, 90)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, report, got)

	_, ok, _ = c.Get(ctx, uuid.New(), 0, 90)
	assert.False(t, ok, "other users miss")

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx, userID, gen, 90)
	assert.False(t, ok, "expired")
	_, ok, _ = c.Get(ctx, userID, gen, 7)
	assert.True(t, ok, "each limit keeps its own ttl")

	require.NoError(t, c.Invalidate(ctx, userID))
	next, err := c.Generation(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)
	_, ok, _ = c.Get(ctx, userID, next, 7)
	assert.False(t, ok, "invalidation drops every limit")
}

func TestMemoryTrendCache_DropsReportsFromBeforeInvalidation(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	c := NewMemoryTrendCache()

	// a reader captures the generation and loads entries
	readerGen, err := c.Generation(ctx, userID)
	require.NoError(t, err)

	// a write lands and invalidates before the reader stores its report
	require.NoError(t, c.Invalidate(ctx, userID))
	require.NoError(t, c.Set(ctx, userID, readerGen, 90, sampleReport(), time.Hour))

	current, err := c.Generation(ctx, userID)
	require.NoError(t, err)
	_, ok, err := c.Get(ctx, userID, current, 90)
	require.NoError(t, err)
	assert.False(t, ok, "stale report must not be served")
}

func TestTrendKeys(t *testing.T) {
	id := uuid.MustParse("5f1d7c1e-4f4a-4b8e-9a55-0c2f3c1f0a11")
	assert.Equal(t, "moodlens:trend:5f1d7c1e-4f4a-4b8e-9a55-0c2f3c1f0a11:gen", GenerationKey(id))
	assert.Equal(t, "moodlens:trend:5f1d7c1e-4f4a-4b8e-9a55-0c2f3c1f0a11:3:90", TrendKey(id, 3, 90))
}

func TestRedisTrendCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisTrendCache(client)
	_, err := c.Generation(context.Background(), uuid.New())
	assert.Error(t, err)
	_, ok, err := c.Get(context.Background(), uuid.New(), 0, 90)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisTrendCache_Integration(t *testing.T) {
	url := os.Getenv("MOODLENS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MOODLENS_TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	ctx := context.Background()
	c := NewRedisTrendCache(client)
	userID := uuid.New()
	defer client.Del(ctx, GenerationKey(userID))

	require.NoError(t, c.Ping(ctx))

	gen, err := c.Generation(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	_, ok, err := c.Get(ctx, userID, gen, 90)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, userID, gen, 90, sampleReport(), time.Minute))
	got, ok, err := c.Get(ctx, userID, gen, 90)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, moodDomain.MoodCalm, got.DominantMood)
	assert.Equal(t, 2, got.MoodDistribution[moodDomain.MoodCalm])

	ttl, err := client.TTL(ctx, TrendKey(userID, gen, 90)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Invalidate(ctx, userID))
	next, err := c.Generation(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)

	// a report computed under the old generation is not visible
	require.NoError(t, c.Set(ctx, userID, gen, 90, sampleReport(), time.Minute))
	_, ok, err = c.Get(ctx, userID, next, 90)
	require.NoError(t, err)
	assert.False(t, ok)
}
