package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a screen tab in the TUI.
type Tab int

const (
	TabStats Tab = iota
	TabTrades
)

var tabNames = []string{"1:Stats", "2:Trades"}

// AppModel is the root Bubble Tea model that manages tab navigation and child screens.
type AppModel struct {
	services  Services
	activeTab Tab
	stats     StatsModel
	trades    TradesModel
	width     int
	height    int
	quitting  bool
}

// NewAppModel creates the root application model with all child screens.
func NewAppModel(svc Services) AppModel {
	return AppModel{
		services:  svc,
		activeTab: TabStats,
		stats:     NewStatsModel(svc),
		trades:    NewTradesModel(svc),
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.stats.Init(),
		m.trades.Init(),
	)
}

// Update handles incoming messages, routing to the active tab.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.propagateSize()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, DefaultKeyMap.Tab):
			m.activeTab = Tab((int(m.activeTab) + 1) % len(tabNames))
			return m, nil

		case key.Matches(msg, DefaultKeyMap.ShiftTab):
			next := int(m.activeTab) - 1
			if next < 0 {
				next = len(tabNames) - 1
			}
			m.activeTab = Tab(next)
			return m, nil

		case key.Matches(msg, DefaultKeyMap.StatsTab):
			m.activeTab = TabStats
			return m, nil
		case key.Matches(msg, DefaultKeyMap.TradesTab):
			m.activeTab = TabTrades
			return m, nil
		}
	}

	// Data messages go to their owner; keys go to the active tab.
	var cmd tea.Cmd
	switch msg.(type) {
	case statsMsg, statsErrMsg, breakdownMsg, breakdownErrMsg, statsTickMsg:
		m.stats, cmd = m.stats.Update(msg)

	case tradesMsg, tradesErrMsg:
		m.trades, cmd = m.trades.Update(msg)

	default:
		switch m.activeTab {
		case TabStats:
			m.stats, cmd = m.stats.Update(msg)
		case TabTrades:
			m.trades, cmd = m.trades.Update(msg)
		}
	}

	return m, cmd
}

// View renders the tab bar and active screen.
func (m AppModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var content string
	switch m.activeTab {
	case TabStats:
		content = m.stats.View()
	case TabTrades:
		content = m.trades.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabBar(), content)
}

// SetSize updates dimensions on the root model and propagates to children.
func (m *AppModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.propagateSize()
}

// ActiveTab returns the currently active tab (for testing).
func (m AppModel) ActiveTab() Tab { return m.activeTab }

func (m *AppModel) propagateSize() {
	contentHeight := m.height - 2 // tab bar
	m.stats.SetSize(m.width, contentHeight)
	m.trades.SetSize(m.width, contentHeight)
}

func (m AppModel) renderTabBar() string {
	var tabs []string
	for i, name := range tabNames {
		if Tab(i) == m.activeTab {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
