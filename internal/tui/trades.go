package tui

import (
	"context"
	"fmt"
	"strings"

	"chart-prophet/internal/domain"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Trade list message types.
type tradesMsg []domain.Trade
type tradesErrMsg struct{ err error }

const tradeListLimit = 200

var (
	outcomeOptions   = []string{"ALL", domain.OutcomeWin, domain.OutcomeLoss, domain.OutcomePending}
	indicatorOptions = []string{"ALL", "RSI", "MACD", "Fibonacci", "Support/Resistance", "Combined"}
)

// TradesModel lists journal trades with outcome and indicator filters.
type TradesModel struct {
	services     Services
	trades       []domain.Trade
	outcomeIdx   int
	indicatorIdx int
	scrollOffset int
	loading      bool
	err          error
	width        int
	height       int
}

func NewTradesModel(svc Services) TradesModel {
	return TradesModel{
		services: svc,
		loading:  true,
	}
}

func (m TradesModel) Init() tea.Cmd {
	return m.fetchTradesCmd()
}

func (m TradesModel) Update(msg tea.Msg) (TradesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tradesMsg:
		m.trades = []domain.Trade(msg)
		m.loading = false
		m.scrollOffset = 0
		m.err = nil
		return m, nil

	case tradesErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.FilterOutcome):
			m.outcomeIdx = (m.outcomeIdx + 1) % len(outcomeOptions)
			m.loading = true
			return m, m.fetchTradesCmd()

		case key.Matches(msg, DefaultKeyMap.FilterIndicator):
			m.indicatorIdx = (m.indicatorIdx + 1) % len(indicatorOptions)
			m.loading = true
			return m, m.fetchTradesCmd()

		case key.Matches(msg, DefaultKeyMap.ClearFilters):
			if m.outcomeIdx == 0 && m.indicatorIdx == 0 {
				return m, nil
			}
			m.outcomeIdx, m.indicatorIdx = 0, 0
			m.loading = true
			return m, m.fetchTradesCmd()

		case key.Matches(msg, DefaultKeyMap.Refresh):
			m.loading = true
			return m, m.fetchTradesCmd()

		case key.Matches(msg, DefaultKeyMap.Down):
			m.scrollTo(m.scrollOffset + 1)
		case key.Matches(msg, DefaultKeyMap.Up):
			m.scrollTo(m.scrollOffset - 1)
		case key.Matches(msg, DefaultKeyMap.PageDown):
			m.scrollTo(m.scrollOffset + m.visibleRows())
		case key.Matches(msg, DefaultKeyMap.PageUp):
			m.scrollTo(m.scrollOffset - m.visibleRows())
		case key.Matches(msg, DefaultKeyMap.Top):
			m.scrollTo(0)
		case key.Matches(msg, DefaultKeyMap.Bottom):
			m.scrollTo(len(m.trades))
		}
	}

	return m, nil
}

func (m TradesModel) View() string {
	var sections []string

	sections = append(sections, HeaderStyle.Render("  Trade Journal"))
	sections = append(sections, "")
	sections = append(sections, m.renderFilters())
	if m.width > 2 {
		sections = append(sections, SubtextStyle.Render(strings.Repeat("─", m.width-2)))
	}

	if m.loading {
		sections = append(sections, SubtextStyle.Render("  Loading..."))
		return strings.Join(sections, "\n")
	}
	if m.err != nil {
		sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		return strings.Join(sections, "\n")
	}
	if len(m.trades) == 0 {
		sections = append(sections, SubtextStyle.Render("  No trades match the current filters"))
		return strings.Join(sections, "\n")
	}

	sections = append(sections, SubtextStyle.Render(
		fmt.Sprintf("  %-5s %-10s %-10s %-11s %-7s %9s %9s  %s",
			"ID", "Symbol", "Indicator", "Rec", "Outcome", "Entry", "P/L", "Created"),
	))

	maxVisible := m.visibleRows()
	end := m.scrollOffset + maxVisible
	if end > len(m.trades) {
		end = len(m.trades)
	}
	for i := m.scrollOffset; i < end; i++ {
		sections = append(sections, "  "+FormatTrade(m.trades[i]))
	}

	if len(m.trades) > maxVisible {
		sections = append(sections, SubtextStyle.Render(
			fmt.Sprintf("  Showing %d-%d of %d", m.scrollOffset+1, end, len(m.trades)),
		))
	}

	sections = append(sections, "")
	sections = append(sections, helpLine(DefaultKeyMap.TradesHelp()))

	return strings.Join(sections, "\n")
}

func (m *TradesModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// FilterState returns current filter indices (for testing).
func (m TradesModel) FilterState() (outcomeIdx, indicatorIdx int) {
	return m.outcomeIdx, m.indicatorIdx
}

// TradeCount returns the number of loaded trades (for testing).
func (m TradesModel) TradeCount() int { return len(m.trades) }

func (m TradesModel) renderFilters() string {
	outcomeChip := renderChip("Outcome", outcomeOptions, m.outcomeIdx)
	indChip := renderChip("Indicator", indicatorOptions, m.indicatorIdx)
	return "  " + lipgloss.JoinHorizontal(lipgloss.Top, outcomeChip, "  ", indChip)
}

func renderChip(label string, options []string, active int) string {
	var parts []string
	parts = append(parts, SubtextStyle.Render(label+": "))
	for i, opt := range options {
		display := strings.ToUpper(opt)
		if i == active {
			parts = append(parts, ActiveTabStyle.Render(display))
		} else {
			parts = append(parts, SubtextStyle.Render(display))
		}
		parts = append(parts, " ")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m TradesModel) buildFilter() domain.TradeFilter {
	filter := domain.TradeFilter{Limit: tradeListLimit}
	if m.outcomeIdx > 0 && m.outcomeIdx < len(outcomeOptions) {
		filter.Outcome = outcomeOptions[m.outcomeIdx]
	}
	if m.indicatorIdx > 0 && m.indicatorIdx < len(indicatorOptions) {
		filter.IndicatorType = indicatorOptions[m.indicatorIdx]
	}
	return filter
}

func (m TradesModel) fetchTradesCmd() tea.Cmd {
	filter := m.buildFilter()
	return func() tea.Msg {
		if m.services.Trades == nil {
			return tradesErrMsg{err: fmt.Errorf("trade journal not available")}
		}
		trades, err := m.services.Trades.ListTrades(context.Background(), filter)
		if err != nil {
			return tradesErrMsg{err: err}
		}
		return tradesMsg(trades)
	}
}

// scrollTo clamps offset so the last page stays full.
func (m *TradesModel) scrollTo(offset int) {
	maxOffset := len(m.trades) - m.visibleRows()
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	m.scrollOffset = offset
}

func (m TradesModel) visibleRows() int {
	// header, filters, table header and help footer
	available := m.height - 10
	if available < 5 {
		return 5
	}
	return available
}
