package cache

import (
	"context"
	"testing"
	"time"

	"github.com/example/ec-orders/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStats() *order.StatusStats {
	return &order.StatusStats{
		Counts:          map[order.Status]int{order.StatusPending: 2, order.StatusShipped: 1},
		Total:           3,
		CalculatedTotal: 3,
		Consistent:      true,
		Breakdown:       map[string]int{"pending": 2, "shipped": 1},
	}
}

func TestField(t *testing.T) {
	assert.Equal(t, "_all", field(""))
	assert.Equal(t, "user:u1", field("u1"))
}

func TestDecodeStats(t *testing.T) {
	stats, err := decodeStats([]byte(`{"counts":{"pending":2},"total":2,"calculated_total":2,"consistent":true}`))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count(order.StatusPending))

	_, err = decodeStats([]byte(`{"total":2}`))
	assert.Error(t, err)

	_, err = decodeStats([]byte(`not json`))
	assert.Error(t, err)
}

func TestRedisStatsCache_UnreachableIsMiss(t *testing.T) {
	c := NewRedisStatsCache("127.0.0.1:1", "", 0, time.Second, nil)
	defer c.Close()
	ctx := context.Background()

	_, err := c.Generation(ctx)
	assert.Error(t, err)
	c.Set(ctx, "", 0, sampleStats())
	_, ok := c.Get(ctx, "")
	assert.False(t, ok)
	c.Invalidate(ctx)
}

// TestRedisStatsCache_Integration requires a running Redis.
// We skip if connection fails.
func TestRedisStatsCache_Integration(t *testing.T) {
	c := NewRedisStatsCache("localhost:6379", "", 0, time.Minute, nil)
	defer c.Close()
	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}
	c.Invalidate(ctx)

	_, ok := c.Get(ctx, "")
	assert.False(t, ok)

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	c.Set(ctx, "", gen, sampleStats())
	got, ok := c.Get(ctx, "")
	require.True(t, ok)
	assert.Equal(t, sampleStats(), got)

	_, ok = c.Get(ctx, "u1")
	assert.False(t, ok)

	c.Invalidate(ctx)
	_, ok = c.Get(ctx, "")
	assert.False(t, ok)

	next, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)
}

func TestRedisStatsCache_DropsStaleGeneration(t *testing.T) {
	c := NewRedisStatsCache("localhost:6379", "", 0, time.Minute, nil)
	defer c.Close()
	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	before, err := c.Generation(ctx)
	require.NoError(t, err)
	c.Invalidate(ctx)

	c.Set(ctx, "", before, sampleStats())
	_, ok := c.Get(ctx, "")
	assert.False(t, ok)
}
