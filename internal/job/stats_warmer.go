package job

import (
	"context"
	"time"

	"chart-prophet/internal/domain"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultWarmInterval = 5 * time.Minute

// recentWindow is the rolling range warmed alongside the all-time stats.
const recentWindow = 7 * 24 * time.Hour

type StatsRefresher interface {
	RefreshStats(ctx context.Context, filter domain.TradeFilter) (domain.TradeStats, error)
}

// StatsWarmer keeps the journal statistics cache populated for the
// filters dashboards ask for most.
type StatsWarmer struct {
	tracer   trace.Tracer
	stats    StatsRefresher
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func NewStatsWarmer(tracer trace.Tracer, stats StatsRefresher, interval time.Duration) *StatsWarmer {
	if interval <= 0 {
		interval = defaultWarmInterval
	}
	return &StatsWarmer{
		tracer:   tracer,
		stats:    stats,
		interval: interval,
		now:      time.Now,
		log:      zap.L().Named("stats-warmer"),
	}
}

func (j *StatsWarmer) Start(ctx context.Context) {
	if j == nil || j.stats == nil {
		<-ctx.Done()
		return
	}

	j.log.Info("stats warmer starting", zap.Duration("interval", j.interval))
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.warm(ctx)
	for {
		select {
		case <-ctx.Done():
			j.log.Info("stats warmer stopped")
			return
		case <-ticker.C:
			j.warm(ctx)
		}
	}
}

func (j *StatsWarmer) warm(ctx context.Context) {
	if j.tracer != nil {
		var span trace.Span
		ctx, span = j.tracer.Start(ctx, "stats-warmer.warm")
		defer span.End()
	}
	for _, f := range j.filters() {
		if _, err := j.stats.RefreshStats(ctx, f); err != nil {
			j.log.Warn("stats refresh failed", zap.Error(err))
			return
		}
	}
}

func (j *StatsWarmer) filters() []domain.TradeFilter {
	now := j.now().UTC()
	start := now.Add(-recentWindow).Truncate(24 * time.Hour)
	end := now.Truncate(24 * time.Hour)
	return []domain.TradeFilter{
		{},
		{StartDate: &start, EndDate: &end},
	}
}
