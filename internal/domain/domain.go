package domain

import "time"

type Recommendation string

const (
	RecommendationStrongBuy  Recommendation = "STRONG_BUY"
	RecommendationBuy        Recommendation = "BUY"
	RecommendationSell       Recommendation = "SELL"
	RecommendationStrongSell Recommendation = "STRONG_SELL"
	RecommendationHold       Recommendation = "HOLD"

	// RecommendationUnavailable marks a result whose analysis failed.
	RecommendationUnavailable Recommendation = "UNABLE_TO_ANALYZE"
)

func (r Recommendation) IsValid() bool {
	switch r {
	case RecommendationStrongBuy, RecommendationBuy, RecommendationSell, RecommendationStrongSell, RecommendationHold:
		return true
	}
	return false
}

const (
	LevelHigh     = "HIGH"
	LevelMedium   = "MEDIUM"
	LevelLow      = "LOW"
	TrendBullish  = "BULLISH"
	TrendBearish  = "BEARISH"
	TrendSideways = "SIDEWAYS"
	NotAvailable  = "N/A"
	TrendUnknown  = "UNKNOWN"
)

type IndicatorSignal string

const (
	SignalOverbought IndicatorSignal = "OVERBOUGHT"
	SignalOversold   IndicatorSignal = "OVERSOLD"
	SignalBullish    IndicatorSignal = "BULLISH"
	SignalBearish    IndicatorSignal = "BEARISH"
	SignalNeutral    IndicatorSignal = "NEUTRAL"
)

type IndicatorReading struct {
	Name        string          `json:"name"`
	Value       string          `json:"value"`
	Signal      IndicatorSignal `json:"signal"`
	Description string          `json:"description"`
}

type FibLevel struct {
	Level        string `json:"level"`
	Price        string `json:"price"`
	Significance string `json:"significance"`
}

// AnalysisResult is the structured form of one chart analysis. List fields
// always hold at least one entry.
type AnalysisResult struct {
	Recommendation   Recommendation   `json:"recommendation"`
	Confidence       string           `json:"confidence"`
	TrendDirection   string           `json:"trend_direction"`
	SupportLevels    []string         `json:"support_levels"`
	ResistanceLevels []string         `json:"resistance_levels"`
	RSIAnalysis      IndicatorReading `json:"rsi_analysis"`
	MACDAnalysis     IndicatorReading `json:"macd_analysis"`
	FibonacciLevels  []FibLevel       `json:"fibonacci_levels"`
	KeyObservations  []string         `json:"key_observations"`
	RiskFactors      []string         `json:"risk_factors"`
	EntryPoints      []string         `json:"entry_points"`
	ExitPoints       []string         `json:"exit_points"`
	Summary          string           `json:"summary"`
	RawText          string           `json:"raw_text"`
	Failed           bool             `json:"failed"`
}

const (
	OutcomeWin     = "win"
	OutcomeLoss    = "loss"
	OutcomePending = "pending"
)

type Trade struct {
	ID              int64          `json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	Symbol          string         `json:"symbol,omitempty"`
	Recommendation  Recommendation `json:"recommendation"`
	ConfidenceLevel string         `json:"confidence_level,omitempty"`
	TrendDirection  string         `json:"trend_direction,omitempty"`
	Outcome         *string        `json:"outcome"`
	ProfitLoss      *float64       `json:"profit_loss"`
	IndicatorType   string         `json:"indicator_type,omitempty"`
	RSISignal       string         `json:"rsi_signal,omitempty"`
	MACDSignal      string         `json:"macd_signal,omitempty"`
	EntryPrice      *float64       `json:"entry_price"`
	ExitPrice       *float64       `json:"exit_price"`
	Notes           string         `json:"notes,omitempty"`
	RawAnalysis     string         `json:"raw_analysis,omitempty"`
}

// IsPending reports whether the trade has no settled outcome yet.
func (t Trade) IsPending() bool {
	return t.Outcome == nil || *t.Outcome == OutcomePending
}

// TradeUpdate carries the fields a settled trade may change. Nil fields are
// left untouched.
type TradeUpdate struct {
	Outcome    *string  `json:"outcome"`
	ProfitLoss *float64 `json:"profit_loss"`
	ExitPrice  *float64 `json:"exit_price"`
	Notes      *string  `json:"notes"`
}

// TradeFilter narrows journal queries. EndDate is inclusive.
type TradeFilter struct {
	StartDate     *time.Time
	EndDate       *time.Time
	IndicatorType string
	Outcome       string
	Limit         int
}

type DatePerformance struct {
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Pending    int     `json:"pending"`
	ProfitLoss float64 `json:"profit_loss"`
}

type IndicatorPerformance struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Total  int `json:"total"`
}

// RecommendationPerformance tracks how trades taken on one recommendation
// played out.
type RecommendationPerformance struct {
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Pending int     `json:"pending"`
	WinRate float64 `json:"win_rate"`
}

type TradeStats struct {
	TotalTrades            int                             `json:"total_trades"`
	WinningTrades          int                             `json:"winning_trades"`
	LosingTrades           int                             `json:"losing_trades"`
	PendingTrades          int                             `json:"pending_trades"`
	WinRate                float64                         `json:"win_rate"`
	TotalProfitLoss        float64                         `json:"total_profit_loss"`
	PerformanceByDate      map[string]DatePerformance      `json:"performance_by_date"`
	PerformanceByIndicator map[string]IndicatorPerformance `json:"performance_by_indicator"`
}
