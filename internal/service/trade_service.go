package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"chart-prophet/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrTradeNotFound = errors.New("trade not found")
	ErrInvalidTrade  = errors.New("invalid trade")
	ErrInvalidFilter = errors.New("invalid filter")
)

const unknownIndicator = "Unknown"

type TradeStore interface {
	InsertTrade(ctx context.Context, t domain.Trade) (domain.Trade, error)
	GetTrade(ctx context.Context, id int64) (*domain.Trade, error)
	ListTrades(ctx context.Context, filter domain.TradeFilter) ([]domain.Trade, error)
	UpdateTrade(ctx context.Context, id int64, upd domain.TradeUpdate) (bool, error)
	DeleteTrade(ctx context.Context, id int64) (bool, error)
}

type StatsCache interface {
	Get(ctx context.Context, filter domain.TradeFilter) (*domain.TradeStats, bool)
	Key(ctx context.Context, filter domain.TradeFilter) (string, error)
	Set(ctx context.Context, key string, stats domain.TradeStats) error
	Invalidate(ctx context.Context) error
}

// TradeNotifier is told about trades that just received a win or loss.
type TradeNotifier interface {
	NotifyTradeSettled(ctx context.Context, t domain.Trade) error
}

type TradeService struct {
	tracer   trace.Tracer
	store    TradeStore
	cache    StatsCache
	notifier TradeNotifier
}

func NewTradeService(tracer trace.Tracer, store TradeStore, cache StatsCache) *TradeService {
	return &TradeService{tracer: tracer, store: store, cache: cache}
}

func (s *TradeService) SetNotifier(n TradeNotifier) {
	s.notifier = n
}

func (s *TradeService) RecordTrade(ctx context.Context, t domain.Trade) (domain.Trade, error) {
	ctx, span := s.tracer.Start(ctx, "trade-service.record-trade")
	defer span.End()

	if t.Recommendation == "" {
		t.Recommendation = domain.RecommendationHold
	}
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	if t.Outcome != nil {
		if err := validateOutcome(*t.Outcome); err != nil {
			return domain.Trade{}, err
		}
	}

	saved, err := s.store.InsertTrade(ctx, t)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("insert trade: %w", err)
	}
	span.SetAttributes(attribute.Int64("trade_id", saved.ID))
	s.invalidate(ctx)
	return saved, nil
}

func (s *TradeService) GetTrade(ctx context.Context, id int64) (*domain.Trade, error) {
	ctx, span := s.tracer.Start(ctx, "trade-service.get-trade")
	defer span.End()

	t, err := s.store.GetTrade(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTradeNotFound
	}
	return t, nil
}

func (s *TradeService) ListTrades(ctx context.Context, filter domain.TradeFilter) ([]domain.Trade, error) {
	ctx, span := s.tracer.Start(ctx, "trade-service.list-trades")
	defer span.End()

	return s.store.ListTrades(ctx, filter)
}

func (s *TradeService) UpdateTrade(ctx context.Context, id int64, upd domain.TradeUpdate) error {
	ctx, span := s.tracer.Start(ctx, "trade-service.update-trade")
	defer span.End()

	if upd.Outcome != nil {
		if err := validateOutcome(*upd.Outcome); err != nil {
			return err
		}
	}
	ok, err := s.store.UpdateTrade(ctx, id, upd)
	if err != nil {
		return fmt.Errorf("update trade %d: %w", id, err)
	}
	if !ok {
		return ErrTradeNotFound
	}
	s.invalidate(ctx)
	if upd.Outcome != nil && *upd.Outcome != domain.OutcomePending {
		s.notifySettled(ctx, id)
	}
	return nil
}

func (s *TradeService) notifySettled(ctx context.Context, id int64) {
	if s.notifier == nil {
		return
	}
	t, err := s.store.GetTrade(ctx, id)
	if err != nil || t == nil {
		return
	}
	if err := s.notifier.NotifyTradeSettled(ctx, *t); err != nil {
		zap.L().Warn("trade settlement notification failed", zap.Int64("trade_id", id), zap.Error(err))
	}
}

func (s *TradeService) DeleteTrade(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "trade-service.delete-trade")
	defer span.End()

	ok, err := s.store.DeleteTrade(ctx, id)
	if err != nil {
		return fmt.Errorf("delete trade %d: %w", id, err)
	}
	if !ok {
		return ErrTradeNotFound
	}
	s.invalidate(ctx)
	return nil
}

// Stats aggregates the journal for the filter's date range and indicator.
// The outcome filter is ignored.
func (s *TradeService) Stats(ctx context.Context, filter domain.TradeFilter) (domain.TradeStats, error) {
	ctx, span := s.tracer.Start(ctx, "trade-service.stats")
	defer span.End()

	filter.Outcome = ""
	filter.Limit = 0

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, filter); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return *cached, nil
		}
	}

	return s.computeAndStore(ctx, filter)
}

// RefreshStats recomputes statistics and overwrites any cached entry.
func (s *TradeService) RefreshStats(ctx context.Context, filter domain.TradeFilter) (domain.TradeStats, error) {
	ctx, span := s.tracer.Start(ctx, "trade-service.refresh-stats")
	defer span.End()

	filter.Outcome = ""
	filter.Limit = 0
	return s.computeAndStore(ctx, filter)
}

// computeAndStore pins the cache key before listing trades; a write that
// lands in between bumps the version and the result is stored where no reader
// looks.
func (s *TradeService) computeAndStore(ctx context.Context, filter domain.TradeFilter) (domain.TradeStats, error) {
	var key string
	if s.cache != nil {
		k, err := s.cache.Key(ctx, filter)
		if err != nil {
			zap.L().Warn("stats cache version lookup failed", zap.Error(err))
		}
		key = k
	}

	trades, err := s.store.ListTrades(ctx, filter)
	if err != nil {
		return domain.TradeStats{}, fmt.Errorf("list trades: %w", err)
	}
	stats := ComputeStats(trades)

	if key != "" {
		if err := s.cache.Set(ctx, key, stats); err != nil {
			zap.L().Warn("failed to cache stats", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *TradeService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		zap.L().Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

// ComputeStats summarizes trades. Anything that is not a win or a loss
// counts as pending in the per-date breakdown.
func ComputeStats(trades []domain.Trade) domain.TradeStats {
	stats := domain.TradeStats{
		TotalTrades:            len(trades),
		PerformanceByDate:      make(map[string]domain.DatePerformance),
		PerformanceByIndicator: make(map[string]domain.IndicatorPerformance),
	}

	for _, t := range trades {
		outcome := ""
		if t.Outcome != nil {
			outcome = *t.Outcome
		}
		pnl := 0.0
		if t.ProfitLoss != nil {
			pnl = *t.ProfitLoss
		}

		switch {
		case outcome == domain.OutcomeWin:
			stats.WinningTrades++
		case outcome == domain.OutcomeLoss:
			stats.LosingTrades++
		case t.IsPending():
			stats.PendingTrades++
		}
		stats.TotalProfitLoss += pnl

		if !t.CreatedAt.IsZero() {
			key := t.CreatedAt.Format("2006-01-02")
			day := stats.PerformanceByDate[key]
			switch outcome {
			case domain.OutcomeWin:
				day.Wins++
			case domain.OutcomeLoss:
				day.Losses++
			default:
				day.Pending++
			}
			day.ProfitLoss += pnl
			stats.PerformanceByDate[key] = day
		}

		indicator := t.IndicatorType
		if indicator == "" {
			indicator = unknownIndicator
		}
		ind := stats.PerformanceByIndicator[indicator]
		ind.Total++
		switch outcome {
		case domain.OutcomeWin:
			ind.Wins++
		case domain.OutcomeLoss:
			ind.Losses++
		}
		stats.PerformanceByIndicator[indicator] = ind
	}

	if stats.TotalTrades > 0 {
		stats.WinRate = round2(float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100)
	}
	stats.TotalProfitLoss = round2(stats.TotalProfitLoss)
	return stats
}

// RecommendationBreakdown groups trades by recommendation. The win rate is
// taken over settled trades only.
func RecommendationBreakdown(trades []domain.Trade) map[domain.Recommendation]domain.RecommendationPerformance {
	out := make(map[domain.Recommendation]domain.RecommendationPerformance)
	for _, t := range trades {
		rec := t.Recommendation
		if rec == "" {
			rec = domain.RecommendationHold
		}
		p := out[rec]
		p.Total++
		switch {
		case t.Outcome != nil && *t.Outcome == domain.OutcomeWin:
			p.Wins++
		case t.Outcome != nil && *t.Outcome == domain.OutcomeLoss:
			p.Losses++
		default:
			p.Pending++
		}
		out[rec] = p
	}
	for rec, p := range out {
		if settled := p.Wins + p.Losses; settled > 0 {
			p.WinRate = round2(float64(p.Wins) / float64(settled) * 100)
			out[rec] = p
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func validateOutcome(outcome string) error {
	switch outcome {
	case domain.OutcomeWin, domain.OutcomeLoss, domain.OutcomePending:
		return nil
	}
	return fmt.Errorf("%w: outcome must be win, loss or pending", ErrInvalidTrade)
}

// ParseTradeFilter reads ISO dates (YYYY-MM-DD or RFC 3339). Empty values
// and "all" leave a field unfiltered.
func ParseTradeFilter(startDate, endDate, indicatorType, outcome string) (domain.TradeFilter, error) {
	var filter domain.TradeFilter

	for _, f := range []struct {
		name string
		raw  string
		dst  **time.Time
	}{
		{"start_date", startDate, &filter.StartDate},
		{"end_date", endDate, &filter.EndDate},
	} {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			continue
		}
		ts, err := parseISODate(raw)
		if err != nil {
			return domain.TradeFilter{}, fmt.Errorf("%w: %s must be an ISO date", ErrInvalidFilter, f.name)
		}
		*f.dst = &ts
	}

	if v := strings.TrimSpace(indicatorType); v != "" && v != "all" {
		filter.IndicatorType = v
	}
	if v := strings.ToLower(strings.TrimSpace(outcome)); v != "" && v != "all" {
		if err := validateOutcome(v); err != nil {
			return domain.TradeFilter{}, fmt.Errorf("%w: outcome must be win, loss, pending or all", ErrInvalidFilter)
		}
		filter.Outcome = v
	}
	return filter, nil
}

func parseISODate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// TradeFromAnalysis seeds a pending journal entry from an analysis result.
func TradeFromAnalysis(symbol, indicatorType string, result domain.AnalysisResult) domain.Trade {
	return domain.Trade{
		Symbol:          symbol,
		Recommendation:  result.Recommendation,
		ConfidenceLevel: result.Confidence,
		TrendDirection:  result.TrendDirection,
		IndicatorType:   indicatorType,
		RSISignal:       string(result.RSIAnalysis.Signal),
		MACDSignal:      string(result.MACDAnalysis.Signal),
		RawAnalysis:     result.RawText,
	}
}
