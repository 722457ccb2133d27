package mcp

import (
	"encoding/base64"
	"fmt"
	"strings"

	"chart-prophet/internal/domain"
	"chart-prophet/internal/service"
)

const (
	defaultTradeLimit = 50
	maxTradeLimit     = 500
	maxImageBytes     = 20 << 20
)

type chartAnalyzeInput struct {
	ImageBase64 string `json:"image_base64" jsonschema:"chart image as base64 or a data URL"`
	MimeType    string `json:"mime_type,omitempty" jsonschema:"image MIME type, defaults to image/png"`
}

type chartAnalyzeOutput struct {
	Analysis domain.AnalysisResult `json:"analysis"`
}

type tradesListInput struct {
	StartDate     string `json:"start_date,omitempty" jsonschema:"optional ISO start date (inclusive)"`
	EndDate       string `json:"end_date,omitempty" jsonschema:"optional ISO end date (inclusive)"`
	IndicatorType string `json:"indicator_type,omitempty" jsonschema:"optional indicator type"`
	Outcome       string `json:"outcome,omitempty" jsonschema:"optional outcome: win, loss, pending"`
	Limit         int    `json:"limit,omitempty" jsonschema:"number of trades to return, max 500"`
}

type tradesListOutput struct {
	Trades []domain.Trade `json:"trades"`
}

type tradesRecordInput struct {
	Symbol          string   `json:"symbol,omitempty" jsonschema:"traded symbol (e.g. BTCUSD)"`
	Recommendation  string   `json:"recommendation,omitempty" jsonschema:"STRONG_BUY, BUY, HOLD, SELL or STRONG_SELL; defaults to HOLD"`
	ConfidenceLevel string   `json:"confidence_level,omitempty" jsonschema:"HIGH, MEDIUM or LOW"`
	TrendDirection  string   `json:"trend_direction,omitempty" jsonschema:"BULLISH, BEARISH or SIDEWAYS"`
	IndicatorType   string   `json:"indicator_type,omitempty" jsonschema:"indicator the trade was based on"`
	EntryPrice      *float64 `json:"entry_price,omitempty" jsonschema:"entry price"`
	Notes           string   `json:"notes,omitempty" jsonschema:"free-form notes"`
}

type tradesRecordOutput struct {
	TradeID int64 `json:"trade_id"`
}

type tradesStatsInput struct {
	StartDate     string `json:"start_date,omitempty" jsonschema:"optional ISO start date (inclusive)"`
	EndDate       string `json:"end_date,omitempty" jsonschema:"optional ISO end date (inclusive)"`
	IndicatorType string `json:"indicator_type,omitempty" jsonschema:"optional indicator type"`
}

type tradesStatsOutput struct {
	Stats domain.TradeStats `json:"stats"`
}

type recommendationsOutput struct {
	Recommendations map[domain.Recommendation]domain.RecommendationPerformance `json:"recommendations"`
}

// decodeImage accepts plain or URL-safe base64 and strips a data URL
// prefix when present, taking the MIME type from it.
func decodeImage(in chartAnalyzeInput) ([]byte, string, error) {
	raw := strings.TrimSpace(in.ImageBase64)
	mimeType := strings.TrimSpace(in.MimeType)
	if raw == "" {
		return nil, "", fmt.Errorf("image_base64 is required")
	}
	if strings.HasPrefix(raw, "data:") {
		header, payload, ok := strings.Cut(raw, ",")
		if !ok {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		if mt := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"); mt != "" && mimeType == "" {
			mimeType = mt
		}
		raw = payload
	}

	var data []byte
	var err error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err = enc.DecodeString(raw); err == nil {
			break
		}
	}
	if err != nil {
		return nil, "", fmt.Errorf("image_base64 is not valid base64")
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image is empty")
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", fmt.Errorf("unsupported mime type: %s", mimeType)
	}
	return data, mimeType, nil
}

func normalizeTradeLimit(limit int) int {
	if limit <= 0 {
		return defaultTradeLimit
	}
	if limit > maxTradeLimit {
		return maxTradeLimit
	}
	return limit
}

func normalizeTradeFilter(in tradesListInput) (domain.TradeFilter, error) {
	filter, err := service.ParseTradeFilter(in.StartDate, in.EndDate, in.IndicatorType, in.Outcome)
	if err != nil {
		return domain.TradeFilter{}, err
	}
	filter.Limit = normalizeTradeLimit(in.Limit)
	return filter, nil
}

func normalizeRecommendation(raw string) (domain.Recommendation, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	raw = strings.ReplaceAll(raw, " ", "_")
	if raw == "" {
		return domain.RecommendationHold, nil
	}
	rec := domain.Recommendation(raw)
	if !rec.IsValid() {
		return "", fmt.Errorf("unsupported recommendation: %s", raw)
	}
	return rec, nil
}

func tradeFromInput(in tradesRecordInput) (domain.Trade, error) {
	rec, err := normalizeRecommendation(in.Recommendation)
	if err != nil {
		return domain.Trade{}, err
	}
	return domain.Trade{
		Symbol:          in.Symbol,
		Recommendation:  rec,
		ConfidenceLevel: strings.ToUpper(strings.TrimSpace(in.ConfidenceLevel)),
		TrendDirection:  strings.ToUpper(strings.TrimSpace(in.TrendDirection)),
		IndicatorType:   strings.TrimSpace(in.IndicatorType),
		EntryPrice:      in.EntryPrice,
		Notes:           in.Notes,
	}, nil
}
