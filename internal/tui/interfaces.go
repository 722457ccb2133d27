package tui

import (
	"context"

	"chart-prophet/internal/domain"
)

// TradeQuerier lists journal trades for the TUI.
type TradeQuerier interface {
	ListTrades(ctx context.Context, filter domain.TradeFilter) ([]domain.Trade, error)
}

// StatsQuerier provides aggregate journal performance.
type StatsQuerier interface {
	Stats(ctx context.Context, filter domain.TradeFilter) (domain.TradeStats, error)
}

// Services bundles the dependencies injected into one SSH session.
type Services struct {
	Trades   TradeQuerier
	Stats    StatsQuerier
	Username string
}
