package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"chart-prophet/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubAnalyzer struct {
	result   domain.AnalysisResult
	lastMime string
	lastSize int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, image []byte, mimeType string) domain.AnalysisResult {
	s.lastMime = mimeType
	s.lastSize = len(image)
	return s.result
}

type stubJournal struct {
	trades     []domain.Trade
	recorded   []domain.Trade
	lastFilter domain.TradeFilter
	stats      domain.TradeStats
}

func (s *stubJournal) ListTrades(ctx context.Context, filter domain.TradeFilter) ([]domain.Trade, error) {
	s.lastFilter = filter
	return append([]domain.Trade(nil), s.trades...), nil
}

func (s *stubJournal) RecordTrade(ctx context.Context, t domain.Trade) (domain.Trade, error) {
	t.ID = int64(len(s.recorded) + 1)
	s.recorded = append(s.recorded, t)
	return t, nil
}

func (s *stubJournal) Stats(ctx context.Context, filter domain.TradeFilter) (domain.TradeStats, error) {
	s.lastFilter = filter
	return s.stats, nil
}

func testServer() (*sdkmcp.Server, *stubAnalyzer, *stubJournal) {
	win := domain.OutcomeWin
	analyzer := &stubAnalyzer{result: domain.AnalysisResult{
		Recommendation: domain.RecommendationBuy,
		Confidence:     domain.LevelHigh,
		TrendDirection: domain.TrendBullish,
		Summary:        "Breakout above resistance.",
	}}
	journal := &stubJournal{
		trades: []domain.Trade{
			{ID: 1, Symbol: "BTC", Recommendation: domain.RecommendationBuy, Outcome: &win, CreatedAt: time.Unix(0, 0).UTC()},
			{ID: 2, Symbol: "ETH", Recommendation: domain.RecommendationSell, CreatedAt: time.Unix(0, 0).UTC()},
		},
		stats: domain.TradeStats{TotalTrades: 2, WinningTrades: 1, PendingTrades: 1, WinRate: 50},
	}

	srv := NewServer(nil, analyzer, journal, ServerConfig{RequestTimeout: time.Second})
	return srv, analyzer, journal
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}
