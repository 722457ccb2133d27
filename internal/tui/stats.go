package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"chart-prophet/internal/domain"
	"chart-prophet/internal/service"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Stats screen message types.
type statsMsg domain.TradeStats
type statsErrMsg struct{ err error }
type breakdownMsg map[domain.Recommendation]domain.RecommendationPerformance
type breakdownErrMsg struct{ err error }
type statsTickMsg time.Time

const statsRefreshInterval = 30 * time.Second

var recommendationOrder = []domain.Recommendation{
	domain.RecommendationStrongBuy,
	domain.RecommendationBuy,
	domain.RecommendationHold,
	domain.RecommendationSell,
	domain.RecommendationStrongSell,
}

// StatsModel shows journal performance and refreshes itself periodically.
type StatsModel struct {
	services  Services
	stats     *domain.TradeStats
	breakdown map[domain.Recommendation]domain.RecommendationPerformance
	loading   bool
	err       error
	width     int
	height    int
}

func NewStatsModel(svc Services) StatsModel {
	return StatsModel{
		services: svc,
		loading:  true,
	}
}

func (m StatsModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchStatsCmd(),
		m.fetchBreakdownCmd(),
		m.tickCmd(),
	)
}

func (m StatsModel) Update(msg tea.Msg) (StatsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsMsg:
		s := domain.TradeStats(msg)
		m.stats = &s
		m.loading = false
		m.err = nil
		return m, nil

	case statsErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case breakdownMsg:
		m.breakdown = msg
		return m, nil

	case breakdownErrMsg:
		// Overview still renders without it.
		return m, nil

	case statsTickMsg:
		return m, tea.Batch(
			m.fetchStatsCmd(),
			m.fetchBreakdownCmd(),
			m.tickCmd(),
		)

	case tea.KeyMsg:
		if key.Matches(msg, DefaultKeyMap.Refresh) {
			m.loading = true
			return m, tea.Batch(m.fetchStatsCmd(), m.fetchBreakdownCmd())
		}
	}

	return m, nil
}

func (m StatsModel) View() string {
	var sections []string

	sections = append(sections, HeaderStyle.Render("  Journal Performance"))
	if m.services.Username != "" {
		sections = append(sections, SubtextStyle.Render("  Signed in as "+m.services.Username))
	}
	sections = append(sections, "")

	if m.loading && m.stats == nil {
		sections = append(sections, SubtextStyle.Render("  Loading..."))
		return strings.Join(sections, "\n")
	}
	if m.err != nil {
		sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		return strings.Join(sections, "\n")
	}
	if m.stats == nil || m.stats.TotalTrades == 0 {
		sections = append(sections, SubtextStyle.Render("  No trades recorded yet"))
		return strings.Join(sections, "\n")
	}

	boxWidth := m.width/2 - 2
	if boxWidth < 30 {
		boxWidth = 30
	}
	fullWidth := m.width - 4
	if fullWidth < 2*boxWidth {
		fullWidth = 2 * boxWidth
	}
	overview := BorderStyle.Width(boxWidth).Render(m.renderOverview())
	byRec := BorderStyle.Width(boxWidth).Render(m.renderRecommendations())
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, overview, " ", byRec))
	sections = append(sections, BorderStyle.Width(fullWidth).Render(m.renderIndicators()))
	sections = append(sections, BorderStyle.Width(fullWidth).Render(m.renderDates()))

	sections = append(sections, helpLine(DefaultKeyMap.StatsHelp()))
	return strings.Join(sections, "\n")
}

func (m *StatsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Stats returns the loaded statistics (for testing).
func (m StatsModel) Stats() *domain.TradeStats { return m.stats }

func (m StatsModel) renderOverview() string {
	s := m.stats
	lines := []string{
		HeaderStyle.Render("Overview"),
		fmt.Sprintf("Trades   %d", s.TotalTrades),
		fmt.Sprintf("Wins     %s", WinStyle.Render(fmt.Sprintf("%d", s.WinningTrades))),
		fmt.Sprintf("Losses   %s", LossOutStyle.Render(fmt.Sprintf("%d", s.LosingTrades))),
		fmt.Sprintf("Pending  %s", PendingStyle.Render(fmt.Sprintf("%d", s.PendingTrades))),
		fmt.Sprintf("P/L      %s", formatPL(&s.TotalProfitLoss)),
		"",
		RenderBarChart("Win rate", s.WinRate, 20),
	}
	return strings.Join(lines, "\n")
}

func (m StatsModel) renderRecommendations() string {
	lines := []string{HeaderStyle.Render("By recommendation")}
	if len(m.breakdown) == 0 {
		lines = append(lines, SubtextStyle.Render("No data"))
		return strings.Join(lines, "\n")
	}
	for _, rec := range recommendationOrder {
		perf, ok := m.breakdown[rec]
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s (%d)", rec, perf.Total)
		lines = append(lines, RenderBarChart(label, perf.WinRate, 12))
	}
	return strings.Join(lines, "\n")
}

func (m StatsModel) renderIndicators() string {
	lines := []string{HeaderStyle.Render("By indicator")}
	names := make([]string, 0, len(m.stats.PerformanceByIndicator))
	for name := range m.stats.PerformanceByIndicator {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		perf := m.stats.PerformanceByIndicator[name]
		settled := perf.Wins + perf.Losses
		rate := 0.0
		if settled > 0 {
			rate = float64(perf.Wins) / float64(settled) * 100
		}
		lines = append(lines, RenderBarChart(fmt.Sprintf("%s (%d)", name, perf.Total), rate, 20))
	}
	if len(names) == 0 {
		lines = append(lines, SubtextStyle.Render("No data"))
	}
	return strings.Join(lines, "\n")
}

// renderDates lists the most recent trading days, newest first.
func (m StatsModel) renderDates() string {
	lines := []string{HeaderStyle.Render("Recent days")}
	dates := make([]string, 0, len(m.stats.PerformanceByDate))
	for d := range m.stats.PerformanceByDate {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if len(dates) > 7 {
		dates = dates[:7]
	}
	for _, d := range dates {
		perf := m.stats.PerformanceByDate[d]
		pl := perf.ProfitLoss
		lines = append(lines, fmt.Sprintf("%s  W %-3d L %-3d P %-3d  %s", d, perf.Wins, perf.Losses, perf.Pending, formatPL(&pl)))
	}
	if len(dates) == 0 {
		lines = append(lines, SubtextStyle.Render("No data"))
	}
	return strings.Join(lines, "\n")
}

func (m StatsModel) fetchStatsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Stats == nil {
			return statsErrMsg{err: fmt.Errorf("trade journal not available")}
		}
		stats, err := m.services.Stats.Stats(context.Background(), domain.TradeFilter{})
		if err != nil {
			return statsErrMsg{err: err}
		}
		return statsMsg(stats)
	}
}

func (m StatsModel) fetchBreakdownCmd() tea.Cmd {
	return func() tea.Msg {
		if m.services.Trades == nil {
			return breakdownErrMsg{err: fmt.Errorf("trade journal not available")}
		}
		trades, err := m.services.Trades.ListTrades(context.Background(), domain.TradeFilter{})
		if err != nil {
			return breakdownErrMsg{err: err}
		}
		return breakdownMsg(service.RecommendationBreakdown(trades))
	}
}

func (m StatsModel) tickCmd() tea.Cmd {
	return tea.Tick(statsRefreshInterval, func(t time.Time) tea.Msg {
		return statsTickMsg(t)
	})
}
