package cache

import (
	"context"
	"testing"
	"time"

	"chart-prophet/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

func newTestStatsCache(t *testing.T) (*StatsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStatsCache(trace.NewNoopTracerProvider().Tracer("test"), client, 30*time.Second), mr
}

func TestStatsCacheRoundTrip(t *testing.T) {
	c, mr := newTestStatsCache(t)
	ctx := context.Background()
	filter := domain.TradeFilter{IndicatorType: "RSI"}

	if _, ok := c.Get(ctx, filter); ok {
		t.Fatal("expected miss on empty cache")
	}
	stats := domain.TradeStats{TotalTrades: 4, WinningTrades: 3, WinRate: 75}
	key, err := c.Key(ctx, filter)
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if err := c.Set(ctx, key, stats); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.Get(ctx, filter)
	if !ok || got.TotalTrades != 4 || got.WinRate != 75 {
		t.Fatalf("unexpected cached stats: %+v, %v", got, ok)
	}

	if key != statsKeyPrefix+"v0:*|*|RSI" {
		t.Fatalf("unexpected key %s", key)
	}
	if !mr.Exists(key) {
		t.Fatalf("expected key %s, have %v", key, mr.Keys())
	}
	if ttl := mr.TTL(key); ttl != 30*time.Second {
		t.Fatalf("expected 30s ttl, got %s", ttl)
	}
}

func TestStatsCacheInvalidateBumpsVersion(t *testing.T) {
	c, _ := newTestStatsCache(t)
	ctx := context.Background()
	filter := domain.TradeFilter{}

	key, err := c.Key(ctx, filter)
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if err := c.Set(ctx, key, domain.TradeStats{TotalTrades: 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok := c.Get(ctx, filter); ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestStatsCacheNilClientIsNoop(t *testing.T) {
	c := NewStatsCache(trace.NewNoopTracerProvider().Tracer("test"), nil, 0)
	ctx := context.Background()
	key, err := c.Key(ctx, domain.TradeFilter{})
	if err != nil || key != "" {
		t.Fatalf("expected empty key without a client, got %q %v", key, err)
	}
	if err := c.Set(ctx, key, domain.TradeStats{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Get(ctx, domain.TradeFilter{}); ok {
		t.Fatal("expected miss without a client")
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStatsCacheSetUnderSupersededKey(t *testing.T) {
	c, _ := newTestStatsCache(t)
	ctx := context.Background()
	filter := domain.TradeFilter{IndicatorType: "MACD"}

	key, err := c.Key(ctx, filter)
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := c.Set(ctx, key, domain.TradeStats{TotalTrades: 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := c.Get(ctx, filter); ok {
		t.Fatal("stats written under a superseded version must not be served")
	}
}

func TestFilterKey(t *testing.T) {
	start := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	got := FilterKey(domain.TradeFilter{StartDate: &start, Outcome: "win", Limit: 5})
	if got != "2024-01-02|*|*" {
		t.Fatalf("unexpected key %q", got)
	}
}
