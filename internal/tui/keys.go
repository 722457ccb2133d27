package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

type KeyMap struct {
	Tab       key.Binding
	ShiftTab  key.Binding
	StatsTab  key.Binding
	TradesTab key.Binding
	Quit      key.Binding
	Refresh   key.Binding

	FilterOutcome   key.Binding
	FilterIndicator key.Binding
	ClearFilters    key.Binding

	Down     key.Binding
	Up       key.Binding
	PageDown key.Binding
	PageUp   key.Binding
	Top      key.Binding
	Bottom   key.Binding
}

var DefaultKeyMap = KeyMap{
	Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	ShiftTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	StatsTab:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "stats")),
	TradesTab: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "trades")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Refresh:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),

	FilterOutcome:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "outcome")),
	FilterIndicator: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "indicator")),
	ClearFilters:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear filters")),

	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/k", "scroll")),
	Up:       key.NewBinding(key.WithKeys("k", "up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn/pgup", "page")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u")),
	Top:      key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g/G", "top/bottom")),
	Bottom:   key.NewBinding(key.WithKeys("G", "end")),
}

// StatsHelp lists the bindings shown under the stats tab.
func (k KeyMap) StatsHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Tab, k.Quit}
}

// TradesHelp lists the bindings shown under the trade list. Up, PageUp and
// Bottom share the help entry of their pair.
func (k KeyMap) TradesHelp() []key.Binding {
	return []key.Binding{k.FilterOutcome, k.FilterIndicator, k.ClearFilters, k.Refresh, k.Down, k.PageDown, k.Top}
}

func helpLine(bindings []key.Binding) string {
	h := help.New()
	h.ShortSeparator = "  "
	return "  " + h.ShortHelpView(bindings)
}
