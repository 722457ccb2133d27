package analyzer

import (
	"reflect"
	"strings"
	"testing"

	"chart-prophet/internal/domain"
)

const fullReport = `1. **Overall Recommendation**: BUY
2. **Confidence Level**: HIGH
3. **Trend Direction**: BULLISH

4. **Support Levels**:
- 42000
- 40500

5. **Resistance Levels**:
- 45000
- 47200

6. **RSI Analysis**: RSI near 68, approaching overbought territory.

7. **MACD Analysis**: MACD line crossed above the signal line, bullish momentum.

8. **Fibonacci Retracement Levels**: The 61.8% level is holding as support.

9. **Key Observations**:
- Higher lows since March
- Volume rising on green candles

10. **Risk Factors**:
- Macro data release this week

11. **Entry Points**:
- 42500 on a retest

12. **Exit Points**:
- Take profit 46800
- Stop loss 41200

13. **Summary**:
Price is trending higher above support.
Momentum favors continuation.
`

func TestExtractRecommendation(t *testing.T) {
	cases := []struct {
		name string
		text string
		want domain.Recommendation
	}{
		{"strong buy wins over everything", "sell now? no: strong buy, hold later", domain.RecommendationStrongBuy},
		{"strong sell", "Verdict: Strong Sell. Do not buy.", domain.RecommendationStrongSell},
		{"buy without nearby sell", "You should BUY here; later consider profit taking", domain.RecommendationBuy},
		{"sell close to buy", "Do not buy, better to sell", domain.RecommendationSell},
		{"sell far after buy still buy", "buy" + strings.Repeat(" ", 60) + "sell", domain.RecommendationBuy},
		{"sell only", "Recommendation: SELL", domain.RecommendationSell},
		{"hold", "Recommendation: hold", domain.RecommendationHold},
		{"default", "no call at all", domain.RecommendationHold},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractRecommendation(tc.text); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestExtractField(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		keywords []string
		want     string
	}{
		{"high confidence", "Confidence Level: High", confidenceKeywords, domain.LevelHigh},
		{"moderate maps to medium", "confidence is moderate", confidenceKeywords, domain.LevelMedium},
		{"low", "Confidence: LOW", confidenceKeywords, domain.LevelLow},
		{"bearish trend", "Trend Direction: bearish", trendKeywords, domain.TrendBearish},
		{"neutral maps to sideways", "The trend looks neutral", trendKeywords, domain.TrendSideways},
		{"keyword absent", "nothing relevant", confidenceKeywords, domain.NotAvailable},
		{"keyword present but no level", "confidence: unclear", confidenceKeywords, domain.NotAvailable},
		{"window limited to 100 chars", "confidence" + strings.Repeat(".", 100) + "HIGH", confidenceKeywords, domain.NotAvailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractField(tc.text, tc.keywords); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestExtractFieldFallsThroughKeywords(t *testing.T) {
	text := "trend" + strings.Repeat(" ", 120) + "trend direction: bearish"
	if got := ExtractField(text, []string{"trend", "trend direction"}); got != domain.TrendBearish {
		t.Fatalf("expected second keyword window to be used, got %s", got)
	}
}

func TestExtractListSectionClosedByBlankLine(t *testing.T) {
	text := "Support Levels: \n- 100\n- 95\n\nResistance:\n- 120"
	got := ExtractList(text, "support")
	if !reflect.DeepEqual(got, []string{"100", "95"}) {
		t.Fatalf("unexpected items: %v", got)
	}
}

func TestExtractListInlineNumberedAndCapped(t *testing.T) {
	text := "Entry points: 101\n1. retest of 102\n2. 7\n3. close above 103\n* 104\n• 105\n- 106"
	got := ExtractList(text, "entry")
	// "2. 7" strips down to nothing and is dropped
	want := []string{"101", "retest of 102", "close above 103", "104", "105"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractListBareNumbersAreDropped(t *testing.T) {
	text := "Support Levels:\n42000\n40500\n- 39000"
	got := ExtractList(text, "support")
	if !reflect.DeepEqual(got, []string{"39000"}) {
		t.Fatalf("expected only the bulleted level, got %v", got)
	}
	if got := ExtractList("Support Levels:\n42000\n40500", "support"); !reflect.DeepEqual(got, []string{"Not identified in chart"}) {
		t.Fatalf("expected placeholder, got %v", got)
	}
}

func TestExtractListHeadingClosesSection(t *testing.T) {
	text := "Risk factors:\n- liquidity\n# Next\n- not a risk"
	got := ExtractList(text, "risk")
	if !reflect.DeepEqual(got, []string{"liquidity"}) {
		t.Fatalf("unexpected items: %v", got)
	}
}

func TestExtractListPlaceholder(t *testing.T) {
	for _, text := range []string{"", "no sections here", "exit strategy without colon\n- 10"} {
		got := ExtractList(text, "exit")
		if !reflect.DeepEqual(got, []string{"Not identified in chart"}) {
			t.Fatalf("expected placeholder for %q, got %v", text, got)
		}
	}
}

func TestExtractIndicator(t *testing.T) {
	got := ExtractIndicator("Momentum\nRSI: 74, overbought\nMore text", "rsi")
	want := domain.IndicatorReading{
		Name:        "RSI",
		Value:       "N/A",
		Signal:      domain.SignalOverbought,
		Description: "RSI: 74, overbought",
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestExtractIndicatorSignalPriority(t *testing.T) {
	got := ExtractIndicator("MACD bearish now, oversold soon", "macd")
	if got.Signal != domain.SignalOversold {
		t.Fatalf("expected OVERSOLD to win over BEARISH, got %s", got.Signal)
	}
}

func TestExtractIndicatorDefaults(t *testing.T) {
	got := ExtractIndicator("no oscillators drawn", "macd")
	if got.Name != "MACD" || got.Signal != domain.SignalNeutral || got.Description != "Not visible or cannot be determined" {
		t.Fatalf("unexpected default reading: %+v", got)
	}
}

func TestExtractIndicatorDescriptionTruncated(t *testing.T) {
	got := ExtractIndicator("rsi "+strings.Repeat("x", 250), "rsi")
	if n := len([]rune(got.Description)); n != 200 {
		t.Fatalf("expected 200 rune description, got %d", n)
	}
}

func TestExtractFibonacciSingleLevel(t *testing.T) {
	got := ExtractFibonacci("61.8% support zone here")
	want := []domain.FibLevel{{Level: "61.8%", Price: "See chart", Significance: "Acting as support"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractFibonacciOrderAndSignificance(t *testing.T) {
	got := ExtractFibonacci("38.2% is resistance. 23.6% untested.")
	if len(got) != 2 {
		t.Fatalf("expected 2 levels, got %v", got)
	}
	if got[0].Level != "23.6%" || got[1].Level != "38.2%" {
		t.Fatalf("levels out of order: %v", got)
	}
	// the 23.6% window reaches nothing, the 38.2% window contains "resistance"
	if got[0].Significance != "Key level" || got[1].Significance != "Acting as resistance" {
		t.Fatalf("unexpected significance: %v", got)
	}
}

func TestExtractFibonacciNone(t *testing.T) {
	got := ExtractFibonacci("no retracements drawn")
	want := []domain.FibLevel{{Level: "N/A", Price: "N/A", Significance: "Fibonacci levels not visible on chart"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractSummary(t *testing.T) {
	text := "## Summary\n# skipped\nFirst line.\n\nSecond line.\nFourth line is out of range."
	if got := ExtractSummary(text); got != "First line." {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestExtractSummaryFallbackSentences(t *testing.T) {
	text := "Price broke out.\nVolume confirmed. Targets above. Extra sentence."
	want := "Price broke out.  Volume confirmed.  Targets above."
	if got := ExtractSummary(text); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestExtractSummaryEmpty(t *testing.T) {
	if got := ExtractSummary(""); got != "Analysis complete." {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestExtractSummaryWhitespaceOnly(t *testing.T) {
	if got := ExtractSummary("  \n "); got != "    ." {
		t.Fatalf("expected whitespace sentence with trailing period, got %q", got)
	}
}

func TestExtractSummaryTruncated(t *testing.T) {
	got := ExtractSummary("Summary\n" + strings.Repeat("a", 600))
	if len(got) != 500 {
		t.Fatalf("expected 500 chars, got %d", len(got))
	}
}

func TestParseFullReport(t *testing.T) {
	got := Parse(fullReport)

	if got.Failed {
		t.Fatal("expected successful parse")
	}
	if got.Recommendation != domain.RecommendationBuy {
		t.Fatalf("recommendation: %s", got.Recommendation)
	}
	if got.Confidence != domain.LevelHigh || got.TrendDirection != domain.TrendBullish {
		t.Fatalf("confidence/trend: %s/%s", got.Confidence, got.TrendDirection)
	}
	checkList := func(name string, got, want []string) {
		t.Helper()
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: expected %v, got %v", name, want, got)
		}
	}
	checkList("support", got.SupportLevels, []string{"42000", "40500"})
	checkList("resistance", got.ResistanceLevels, []string{"45000", "47200"})
	checkList("observations", got.KeyObservations, []string{"Higher lows since March", "Volume rising on green candles"})
	checkList("risks", got.RiskFactors, []string{"Macro data release this week"})
	checkList("entries", got.EntryPoints, []string{"42500 on a retest"})
	checkList("exits", got.ExitPoints, []string{"Take profit 46800", "Stop loss 41200"})

	if got.RSIAnalysis.Signal != domain.SignalOverbought {
		t.Fatalf("rsi signal: %s", got.RSIAnalysis.Signal)
	}
	if got.MACDAnalysis.Signal != domain.SignalBullish {
		t.Fatalf("macd signal: %s", got.MACDAnalysis.Signal)
	}
	if len(got.FibonacciLevels) != 1 || got.FibonacciLevels[0].Level != "61.8%" || got.FibonacciLevels[0].Significance != "Acting as support" {
		t.Fatalf("fibonacci: %v", got.FibonacciLevels)
	}
	if got.Summary != "Price is trending higher above support. Momentum favors continuation." {
		t.Fatalf("summary: %q", got.Summary)
	}
	if got.RawText != fullReport {
		t.Fatal("raw text must be kept verbatim")
	}
}

func TestExtractorsAreIdempotent(t *testing.T) {
	first := Parse(fullReport)
	second := Parse(fullReport)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("parsing the same text twice produced different results")
	}
}
