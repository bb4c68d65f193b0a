package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/ec-orders/internal/domain/order"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	statsKey   = "order_stats"
	genKey     = "order_stats:gen"
	allScope   = "_all"
	defaultTTL = 30 * time.Second
)

var errStaleGeneration = errors.New("stats cache generation changed")

// RedisStatsCache implements order.StatsCache using a single Redis hash.
// Each field holds one scope's stats as JSON; Invalidate drops the whole hash
// and bumps a generation counter that guards later writes.
// Redis failures are logged and treated as a miss.
type RedisStatsCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStatsCache creates a cache for the Redis server at addr
func NewRedisStatsCache(addr, password string, db int, ttl time.Duration, logger *zap.Logger) *RedisStatsCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
	})
	return NewRedisStatsCacheWithClient(rdb, ttl, logger)
}

func NewRedisStatsCacheWithClient(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisStatsCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStatsCache{client: client, ttl: ttl, logger: logger.Named("stats-cache")}
}

// Ping checks connectivity
func (c *RedisStatsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}

func (c *RedisStatsCache) Get(ctx context.Context, scope string) (*order.StatusStats, bool) {
	raw, err := c.client.HGet(ctx, statsKey, field(scope)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Stats cache read failed", zap.String("scope", scope), zap.Error(err))
		}
		return nil, false
	}

	stats, err := decodeStats(raw)
	if err != nil {
		c.logger.Warn("Discarding corrupt stats cache entry", zap.String("scope", scope), zap.Error(err))
		return nil, false
	}
	return stats, true
}

// Generation returns the invalidation counter, zero before the first invalidation
func (c *RedisStatsCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set stores stats computed at generation. The write is dropped when the
// counter has moved on, checked under WATCH so an Invalidate cannot slip in.
func (c *RedisStatsCache) Set(ctx context.Context, scope string, generation int64, stats *order.StatusStats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		c.logger.Warn("Failed to encode stats", zap.Error(err))
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, statsKey, field(scope), raw)
			pipe.Expire(ctx, statsKey, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("Dropping stats computed before an invalidation", zap.String("scope", scope))
	default:
		c.logger.Warn("Stats cache write failed", zap.String("scope", scope), zap.Error(err))
	}
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Del(ctx, statsKey)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("Stats cache invalidation failed", zap.Error(err))
	}
}

func field(scope string) string {
	if scope == "" {
		return allScope
	}
	return "user:" + scope
}

func decodeStats(raw []byte) (*order.StatusStats, error) {
	var stats order.StatusStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, err
	}
	if stats.Counts == nil {
		return nil, errors.New("stats entry has no counts")
	}
	return &stats, nil
}
