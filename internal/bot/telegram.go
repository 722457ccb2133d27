package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"chart-prophet/internal/chart"
	"chart-prophet/internal/domain"
	"chart-prophet/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	maxReplyRunes    = 4000
	maxImageBytes    = 20 << 20
	defaultTradeRows = 10
	equityTradeLimit = 500
)

type ChartAnalyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) domain.AnalysisResult
}

type Journal interface {
	ListTrades(ctx context.Context, filter domain.TradeFilter) ([]domain.Trade, error)
	Stats(ctx context.Context, filter domain.TradeFilter) (domain.TradeStats, error)
	RecordTrade(ctx context.Context, t domain.Trade) (domain.Trade, error)
}

// lastAnalyses remembers each chat's most recent successful analysis so
// /record can journal it.
type lastAnalyses struct {
	mu      sync.Mutex
	results map[int64]domain.AnalysisResult
}

func newLastAnalyses() *lastAnalyses {
	return &lastAnalyses{results: make(map[int64]domain.AnalysisResult)}
}

func (l *lastAnalyses) remember(chatID int64, r domain.AnalysisResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results[chatID] = r
}

func (l *lastAnalyses) take(chatID int64) (domain.AnalysisResult, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.results[chatID]
	if ok {
		delete(l.results, chatID)
	}
	return r, ok
}

func StartTelegramBot(analyzer ChartAnalyzer, journal Journal, analysisTimeout time.Duration) *SettlementNotifier {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		zap.L().Info("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	if analysisTimeout <= 0 {
		analysisTimeout = 2 * time.Minute
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		zap.L().Fatal("failed to create Telegram bot", zap.Error(err))
	}
	log := zap.L().Named("telegram")
	notifier := NewSettlementNotifier(b)
	memory := newLastAnalyses()

	b.Handle("/start", func(c tele.Context) error {
		return c.Send(helpText)
	})
	b.Handle("/help", func(c tele.Context) error {
		return c.Send(helpText)
	})

	analyze := func(c tele.Context, file *tele.File, mimeType string) error {
		if analyzer == nil {
			return c.Send("Chart analysis is not configured.")
		}
		_ = c.Notify(tele.Typing)

		rc, err := c.Bot().File(file)
		if err != nil {
			log.Warn("telegram file download failed", zap.Error(err))
			return c.Send("Could not download the image, please try again.")
		}
		ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
		defer cancel()

		result, err := analyzeUpload(ctx, analyzer, rc, mimeType)
		if errors.Is(err, errImageTooLarge) {
			return c.Send("Image is too large (max 20 MB).")
		}
		if err != nil {
			log.Warn("telegram image read failed", zap.Error(err))
			return c.Send("Could not read the image, please try again.")
		}
		if !result.Failed && c.Chat() != nil {
			memory.remember(c.Chat().ID, result)
		}
		return c.Send(formatReport(result))
	}

	b.Handle(tele.OnPhoto, func(c tele.Context) error {
		photo := c.Message().Photo
		if photo == nil {
			return nil
		}
		return analyze(c, &photo.File, "image/jpeg")
	})

	b.Handle(tele.OnDocument, func(c tele.Context) error {
		doc := c.Message().Document
		if doc == nil {
			return nil
		}
		if !isImageDocument(doc.MIME) {
			return c.Send("Please send a chart image (PNG, JPEG, GIF or WebP).")
		}
		return analyze(c, &doc.File, doc.MIME)
	})

	b.Handle("/record", func(c tele.Context) error {
		if journal == nil {
			return c.Send("Trade journal unavailable")
		}
		symbol, indicator, err := parseRecordArgs(c.Args())
		if err != nil {
			return c.Send("Usage: /record SYMBOL [INDICATOR]")
		}
		if c.Chat() == nil {
			return c.Send("Unable to detect chat")
		}
		result, ok := memory.take(c.Chat().ID)
		if !ok {
			return c.Send("Send a chart first, then /record it.")
		}
		saved, err := journal.RecordTrade(context.Background(), service.TradeFromAnalysis(symbol, indicator, result))
		if err != nil {
			return c.Send(fmt.Sprintf("Error recording trade: %v", err))
		}
		return c.Send(fmt.Sprintf("Recorded trade #%d: %s %s", saved.ID, saved.Symbol, saved.Recommendation))
	})

	b.Handle("/trades", func(c tele.Context) error {
		if journal == nil {
			return c.Send("Trade journal unavailable")
		}
		filter, err := parseTradesArgs(c.Args())
		if err != nil {
			return c.Send("Usage: /trades [win|loss|pending] [INDICATOR]")
		}
		trades, err := journal.ListTrades(context.Background(), filter)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching trades: %v", err))
		}
		return c.Send(formatTrades(trades))
	})

	b.Handle("/stats", func(c tele.Context) error {
		if journal == nil {
			return c.Send("Trade journal unavailable")
		}
		var filter domain.TradeFilter
		if args := c.Args(); len(args) > 0 {
			filter.IndicatorType = strings.TrimSpace(args[0])
		}
		stats, err := journal.Stats(context.Background(), filter)
		if err != nil {
			return c.Send(fmt.Sprintf("Error computing stats: %v", err))
		}
		return c.Send(formatStats(stats))
	})

	renderer := chart.NewRenderer()
	b.Handle("/equity", func(c tele.Context) error {
		if journal == nil {
			return c.Send("Trade journal unavailable")
		}
		_ = c.Notify(tele.UploadingPhoto)
		png, err := renderEquity(context.Background(), journal, renderer, c.Args())
		if errors.Is(err, chart.ErrNoSettledTrades) {
			return c.Send("No settled trades with P/L to plot yet.")
		}
		if err != nil {
			return c.Send(fmt.Sprintf("Error rendering equity curve: %v", err))
		}
		return c.Send(&tele.Photo{File: tele.FromReader(bytes.NewReader(png)), Caption: "Cumulative P/L"})
	})

	b.Handle("/alerts", func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return c.Send("Unable to detect chat")
		}
		return c.Send(alertReply(notifier, chat.ID, c.Args()))
	})

	log.Info("Telegram bot started")
	go b.Start()
	return notifier
}

const helpText = `Send a chart screenshot (photo or image file) and I will analyse it.

/record SYMBOL [INDICATOR] - journal your last analysis
/trades [win|loss|pending] [INDICATOR] - recent trades
/stats [INDICATOR] - win rate and P/L
/equity [INDICATOR] - cumulative P/L chart
/alerts on [SYMBOL]|off|status - settlement notices`

var errImageTooLarge = errors.New("image too large")

func analyzeUpload(ctx context.Context, analyzer ChartAnalyzer, rc io.ReadCloser, mimeType string) (domain.AnalysisResult, error) {
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxImageBytes+1))
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return domain.AnalysisResult{}, errImageTooLarge
	}
	return analyzer.Analyze(ctx, data, mimeType), nil
}

func renderEquity(ctx context.Context, journal Journal, renderer *chart.Renderer, args []string) ([]byte, error) {
	filter := domain.TradeFilter{Limit: equityTradeLimit}
	if len(args) > 0 {
		filter.IndicatorType = strings.TrimSpace(args[0])
	}
	trades, err := journal.ListTrades(ctx, filter)
	if err != nil {
		return nil, err
	}
	return renderer.RenderEquityCurve(trades)
}

func isImageDocument(mimeType string) bool {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/png", "image/jpeg", "image/jpg", "image/gif", "image/webp":
		return true
	}
	return false
}

func parseRecordArgs(args []string) (string, string, error) {
	if len(args) == 0 || len(args) > 2 {
		return "", "", errors.New("expected symbol and optional indicator")
	}
	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	if symbol == "" {
		return "", "", errors.New("empty symbol")
	}
	indicator := ""
	if len(args) == 2 {
		indicator = strings.TrimSpace(args[1])
	}
	return symbol, indicator, nil
}

func parseTradesArgs(args []string) (domain.TradeFilter, error) {
	filter := domain.TradeFilter{Limit: defaultTradeRows}
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		switch strings.ToLower(arg) {
		case "":
			continue
		case domain.OutcomeWin, domain.OutcomeLoss, domain.OutcomePending:
			if filter.Outcome != "" {
				return domain.TradeFilter{}, errors.New("multiple outcomes provided")
			}
			filter.Outcome = strings.ToLower(arg)
		default:
			if filter.IndicatorType != "" {
				return domain.TradeFilter{}, errors.New("multiple indicators provided")
			}
			filter.IndicatorType = arg
		}
	}
	return filter, nil
}

func formatReport(r domain.AnalysisResult) string {
	if r.Failed {
		return truncate("Analysis failed: " + r.RawText)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recommendation: %s\n", r.Recommendation)
	fmt.Fprintf(&b, "Confidence: %s | Trend: %s\n\n", r.Confidence, r.TrendDirection)
	fmt.Fprintf(&b, "Support: %s\n", strings.Join(r.SupportLevels, "; "))
	fmt.Fprintf(&b, "Resistance: %s\n", strings.Join(r.ResistanceLevels, "; "))
	fmt.Fprintf(&b, "RSI: %s\n", r.RSIAnalysis.Signal)
	fmt.Fprintf(&b, "MACD: %s\n", r.MACDAnalysis.Signal)
	for _, f := range r.FibonacciLevels {
		if f.Level == domain.NotAvailable {
			continue
		}
		fmt.Fprintf(&b, "Fib %s: %s\n", f.Level, f.Significance)
	}
	writeSection(&b, "Entry points", r.EntryPoints)
	writeSection(&b, "Exit points", r.ExitPoints)
	writeSection(&b, "Risks", r.RiskFactors)
	fmt.Fprintf(&b, "\n%s", r.Summary)
	return truncate(b.String())
}

func writeSection(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func formatTrades(trades []domain.Trade) string {
	if len(trades) == 0 {
		return "No trades recorded yet."
	}
	lines := make([]string, 0, len(trades)+1)
	lines = append(lines, "Recent trades:")
	for _, t := range trades {
		outcome := domain.OutcomePending
		if t.Outcome != nil {
			outcome = *t.Outcome
		}
		line := fmt.Sprintf("#%d %s %s %s", t.ID, t.CreatedAt.UTC().Format("2006-01-02"), t.Symbol, t.Recommendation)
		if t.IndicatorType != "" {
			line += " [" + t.IndicatorType + "]"
		}
		line += " " + strings.ToUpper(outcome)
		if t.ProfitLoss != nil {
			line += fmt.Sprintf(" %+.2f", *t.ProfitLoss)
		}
		lines = append(lines, line)
	}
	return truncate(strings.Join(lines, "\n"))
}

func formatStats(s domain.TradeStats) string {
	return fmt.Sprintf(
		"Trades: %d (won %d, lost %d, pending %d)\nWin rate: %.2f%%\nTotal P/L: %+.2f",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.PendingTrades, s.WinRate, s.TotalProfitLoss,
	)
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxReplyRunes {
		return s
	}
	return string([]rune(s)[:maxReplyRunes]) + "\n\n[truncated]"
}
