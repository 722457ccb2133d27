package tui

import (
	"fmt"
	"math"
	"strings"

	"chart-prophet/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

// FormatTrade renders a journal trade as a single table row.
func FormatTrade(t domain.Trade) string {
	symbol := t.Symbol
	if symbol == "" {
		symbol = "-"
	}
	indicator := t.IndicatorType
	if indicator == "" {
		indicator = "-"
	}

	return fmt.Sprintf("#%-4d %-10s %-10s %s %s %9s %9s  %s",
		t.ID,
		truncateCell(symbol, 10),
		truncateCell(strings.ToUpper(indicator), 10),
		recommendationStyle(t.Recommendation).Render(fmt.Sprintf("%-11s", t.Recommendation)),
		outcomeCell(t),
		formatPrice(t.EntryPrice),
		formatPL(t.ProfitLoss),
		t.CreatedAt.Format("2006-01-02 15:04"),
	)
}

// RenderBarChart renders an ASCII bar for a win rate given in percent.
func RenderBarChart(label string, winRate float64, barWidth int) string {
	if barWidth <= 0 {
		barWidth = 20
	}
	filled := int(math.Round(winRate / 100 * float64(barWidth)))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	style := RateGoodStyle
	if winRate < 40 {
		style = RateBadStyle
	} else if winRate < 55 {
		style = RateOkStyle
	}

	bar := style.Render(strings.Repeat("█", filled)) + SubtextStyle.Render(strings.Repeat("░", empty))
	return fmt.Sprintf("%-20s %s %.1f%%", truncateCell(label, 20), bar, winRate)
}

func recommendationStyle(r domain.Recommendation) lipgloss.Style {
	switch r {
	case domain.RecommendationBuy, domain.RecommendationStrongBuy:
		return BuyStyle
	case domain.RecommendationSell, domain.RecommendationStrongSell:
		return SellStyle
	}
	return HoldStyle
}

func outcomeCell(t domain.Trade) string {
	if t.IsPending() {
		return PendingStyle.Render(fmt.Sprintf("%-7s", domain.OutcomePending))
	}
	if *t.Outcome == domain.OutcomeWin {
		return WinStyle.Render(fmt.Sprintf("%-7s", *t.Outcome))
	}
	return LossOutStyle.Render(fmt.Sprintf("%-7s", *t.Outcome))
}

func formatPL(v *float64) string {
	if v == nil {
		return FlatStyle.Render("-")
	}
	switch {
	case *v > 0:
		return ProfitStyle.Render(fmt.Sprintf("%+.2f", *v))
	case *v < 0:
		return LossStyle.Render(fmt.Sprintf("%+.2f", *v))
	}
	return FlatStyle.Render("0.00")
}

func formatPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	if *v >= 1000 {
		return addCommas(fmt.Sprintf("%.0f", *v))
	}
	if *v >= 1 {
		return fmt.Sprintf("%.2f", *v)
	}
	return fmt.Sprintf("%.4f", *v)
}

func addCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var result strings.Builder
	for i, ch := range s {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(ch)
	}
	return result.String()
}

func truncateCell(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
