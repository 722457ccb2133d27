package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"chart-prophet/internal/domain"
)

const (
	placeholderNotIdentified = "Not identified in chart"
	indicatorNotVisible      = "Not visible or cannot be determined"
	fibNotVisible            = "Fibonacci levels not visible on chart"
	fibPricePlaceholder      = "See chart"
	summaryFallback          = "Analysis complete."

	maxListItems      = 5
	maxSummaryLen     = 500
	maxDescriptionLen = 200

	buySellWindow   = 50
	fieldWindow     = 100
	fibWindow       = 150
	indicatorWindow = 300
)

var (
	confidenceKeywords = []string{"confidence", "confidence level"}
	trendKeywords      = []string{"trend direction", "trend"}
	fibonacciLabels    = []string{"0%", "23.6%", "38.2%", "50%", "61.8%", "78.6%", "100%"}
)

// Parse runs every extractor over a model response and assembles the result.
func Parse(raw string) domain.AnalysisResult {
	return domain.AnalysisResult{
		Recommendation:   ExtractRecommendation(raw),
		Confidence:       ExtractField(raw, confidenceKeywords),
		TrendDirection:   ExtractField(raw, trendKeywords),
		SupportLevels:    ExtractList(raw, "support"),
		ResistanceLevels: ExtractList(raw, "resistance"),
		RSIAnalysis:      ExtractIndicator(raw, "rsi"),
		MACDAnalysis:     ExtractIndicator(raw, "macd"),
		FibonacciLevels:  ExtractFibonacci(raw),
		KeyObservations:  ExtractList(raw, "observation"),
		RiskFactors:      ExtractList(raw, "risk"),
		EntryPoints:      ExtractList(raw, "entry"),
		ExitPoints:       ExtractList(raw, "exit"),
		Summary:          ExtractSummary(raw),
		RawText:          raw,
	}
}

// ExtractRecommendation picks the overall call. A BUY only counts when no
// SELL shows up in the 50 characters starting at the first BUY.
func ExtractRecommendation(text string) domain.Recommendation {
	upper := upperASCII(text)
	switch {
	case strings.Contains(upper, "STRONG BUY"):
		return domain.RecommendationStrongBuy
	case strings.Contains(upper, "STRONG SELL"):
		return domain.RecommendationStrongSell
	}
	if idx := strings.Index(upper, "BUY"); idx >= 0 && !strings.Contains(window(upper, idx, buySellWindow), "SELL") {
		return domain.RecommendationBuy
	}
	if strings.Contains(upper, "SELL") {
		return domain.RecommendationSell
	}
	return domain.RecommendationHold
}

// ExtractField classifies the 100 characters after the first occurrence of
// each keyword, trying keywords in order until one window yields a level.
func ExtractField(text string, keywords []string) string {
	lower := lowerASCII(text)
	for _, kw := range keywords {
		idx := strings.Index(lower, strings.ToLower(kw))
		if idx < 0 {
			continue
		}
		snippet := upperASCII(window(text, idx, fieldWindow))
		switch {
		case strings.Contains(snippet, "HIGH"):
			return domain.LevelHigh
		case strings.Contains(snippet, "MEDIUM"), strings.Contains(snippet, "MODERATE"):
			return domain.LevelMedium
		case strings.Contains(snippet, "LOW"):
			return domain.LevelLow
		case strings.Contains(snippet, "BULLISH"):
			return domain.TrendBullish
		case strings.Contains(snippet, "BEARISH"):
			return domain.TrendBearish
		case strings.Contains(snippet, "SIDEWAYS"), strings.Contains(snippet, "NEUTRAL"):
			return domain.TrendSideways
		}
	}
	return domain.NotAvailable
}

// ExtractList collects up to five items from the first "keyword...:" section.
// Bulleted and numbered lines are items; a blank or "#" line ends the section.
// Items that strip down to nothing are dropped, which includes a line that is
// only a number such as "42000": the leading-digit cut consumes all of it.
func ExtractList(text, keyword string) []string {
	kw := strings.ToLower(keyword)
	items := make([]string, 0, maxListItems)
	inSection := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inSection {
			if !strings.Contains(lowerASCII(line), kw) || !strings.Contains(line, ":") {
				continue
			}
			inSection = true
			_, after, _ := strings.Cut(line, ":")
			items = appendItem(items, strings.TrimSpace(after))
			continue
		}

		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			return listOrPlaceholder(items)
		case strings.HasPrefix(trimmed, "-"), strings.HasPrefix(trimmed, "*"), strings.HasPrefix(trimmed, "•"):
			items = appendItem(items, strings.TrimLeft(trimmed, "-*• "))
		case startsWithDigit(trimmed):
			items = appendItem(items, strings.TrimLeft(trimmed, "0123456789. "))
		}
		if len(items) == maxListItems {
			break
		}
	}
	return listOrPlaceholder(items)
}

func appendItem(items []string, item string) []string {
	if item == "" || len(items) >= maxListItems {
		return items
	}
	return append(items, item)
}

func listOrPlaceholder(items []string) []string {
	if len(items) == 0 {
		return []string{placeholderNotIdentified}
	}
	return items
}

// ExtractIndicator reads the signal and a one-line description from the 300
// characters after the first mention of the indicator.
func ExtractIndicator(text, indicator string) domain.IndicatorReading {
	reading := domain.IndicatorReading{
		Name:        upperASCII(indicator),
		Value:       domain.NotAvailable,
		Signal:      domain.SignalNeutral,
		Description: indicatorNotVisible,
	}

	idx := strings.Index(lowerASCII(text), strings.ToLower(indicator))
	if idx < 0 {
		return reading
	}
	snippet := window(text, idx, indicatorWindow)

	upper := upperASCII(snippet)
	for _, sig := range []domain.IndicatorSignal{
		domain.SignalOverbought, domain.SignalOversold, domain.SignalBullish, domain.SignalBearish,
	} {
		if strings.Contains(upper, string(sig)) {
			reading.Signal = sig
			break
		}
	}

	lines := strings.Split(snippet, "\n")
	if len(lines) > 3 {
		lines = lines[:3]
	}
	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			reading.Description = window(s, 0, maxDescriptionLen)
			break
		}
	}
	return reading
}

// ExtractFibonacci reports every standard retracement label present in the
// text. Prices are never parsed.
func ExtractFibonacci(text string) []domain.FibLevel {
	levels := make([]domain.FibLevel, 0, len(fibonacciLabels))
	for _, label := range fibonacciLabels {
		idx := strings.Index(text, label)
		if idx < 0 {
			continue
		}
		snippet := lowerASCII(window(text, idx, fibWindow))
		significance := "Key level"
		if strings.Contains(snippet, "support") {
			significance = "Acting as support"
		} else if strings.Contains(snippet, "resistance") {
			significance = "Acting as resistance"
		}
		levels = append(levels, domain.FibLevel{
			Level:        label,
			Price:        fibPricePlaceholder,
			Significance: significance,
		})
	}
	if len(levels) == 0 {
		return []domain.FibLevel{{
			Level:        domain.NotAvailable,
			Price:        domain.NotAvailable,
			Significance: fibNotVisible,
		}}
	}
	return levels
}

// ExtractSummary takes up to three lines under the summary heading, falling
// back to the first three sentences of the response.
func ExtractSummary(text string) string {
	if idx := strings.Index(lowerASCII(text), "summary"); idx >= 0 {
		lines := strings.Split(text[idx:], "\n")
		parts := make([]string, 0, 3)
		for i := 1; i < len(lines) && i <= 3; i++ {
			s := strings.TrimSpace(lines[i])
			if s == "" || strings.HasPrefix(s, "#") {
				continue
			}
			parts = append(parts, s)
		}
		if len(parts) > 0 {
			return window(strings.Join(parts, " "), 0, maxSummaryLen)
		}
	}

	if text == "" {
		return summaryFallback
	}
	sentences := strings.Split(strings.ReplaceAll(text, "\n", " "), ".")
	if len(sentences) > 3 {
		sentences = sentences[:3]
	}
	return window(strings.Join(sentences, ". ")+".", 0, maxSummaryLen)
}

// window returns at most n runes of s starting at byte offset start.
func window(s string, start, n int) string {
	rest := s[start:]
	count := 0
	for pos := range rest {
		if count == n {
			return rest[:pos]
		}
		count++
	}
	return rest
}

func startsWithDigit(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsDigit(r)
}

// lowerASCII and upperASCII fold only ASCII letters so byte offsets found in
// the folded copy stay valid in the original text.
func lowerASCII(s string) string {
	return mapASCII(s, 'A', 'Z', 'a'-'A')
}

func upperASCII(s string) string {
	return mapASCII(s, 'a', 'z', 'A'-'a')
}

func mapASCII(s string, lo, hi byte, delta int) string {
	b := []byte(s)
	for i, c := range b {
		if c >= lo && c <= hi {
			b[i] = byte(int(c) + delta)
		}
	}
	return string(b)
}
