package mcp

import (
	"context"

	"chart-prophet/internal/domain"
)

// ChartAnalyzer runs a vision analysis over raw image bytes.
type ChartAnalyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) domain.AnalysisResult
}

// TradeJournal exposes the journal operations agents may use.
type TradeJournal interface {
	ListTrades(ctx context.Context, filter domain.TradeFilter) ([]domain.Trade, error)
	RecordTrade(ctx context.Context, t domain.Trade) (domain.Trade, error)
	Stats(ctx context.Context, filter domain.TradeFilter) (domain.TradeStats, error)
}
