package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chart-prophet/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	statsKeyPrefix  = "chart-prophet:stats:"
	statsVersionKey = statsKeyPrefix + "version"
)

// StatsCache stores computed journal statistics. Entries are keyed by the
// filter and a version counter, so bumping the version orphans every entry
// at once and TTL cleans them up.
type StatsCache struct {
	tracer trace.Tracer
	client *redis.Client
	ttl    time.Duration
}

func NewStatsCache(tracer trace.Tracer, client *redis.Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatsCache{tracer: tracer, client: client, ttl: ttl}
}

func (c *StatsCache) Get(ctx context.Context, filter domain.TradeFilter) (*domain.TradeStats, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	ctx, span := c.tracer.Start(ctx, "stats-cache.get")
	defer span.End()

	key, err := c.key(ctx, filter)
	if err != nil {
		zap.L().Warn("stats cache version lookup failed", zap.Error(err))
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var stats domain.TradeStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

// Key resolves the versioned cache key for filter. Callers take the key
// before reading trades and hand it to Set, so stats computed from rows that
// a concurrent write has since changed land under the old version.
func (c *StatsCache) Key(ctx context.Context, filter domain.TradeFilter) (string, error) {
	if c == nil || c.client == nil {
		return "", nil
	}
	return c.key(ctx, filter)
}

// Set stores stats under a key returned by Key. An empty key is ignored.
func (c *StatsCache) Set(ctx context.Context, key string, stats domain.TradeStats) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	ctx, span := c.tracer.Start(ctx, "stats-cache.set")
	defer span.End()

	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Invalidate drops every cached entry by bumping the version.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, statsVersionKey).Err()
}

func (c *StatsCache) key(ctx context.Context, filter domain.TradeFilter) (string, error) {
	version, err := c.client.Get(ctx, statsVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%sv%d:%s", statsKeyPrefix, version, FilterKey(filter)), nil
}

// FilterKey renders the stats-relevant parts of a filter. Outcome and limit
// do not change statistics.
func FilterKey(filter domain.TradeFilter) string {
	day := func(t *time.Time) string {
		if t == nil {
			return "*"
		}
		return t.UTC().Format("2006-01-02")
	}
	indicator := filter.IndicatorType
	if indicator == "" {
		indicator = "*"
	}
	return day(filter.StartDate) + "|" + day(filter.EndDate) + "|" + indicator
}
