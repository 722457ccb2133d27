package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Tab bar styles
	TabStyle       = lipgloss.NewStyle().Padding(0, 2)
	ActiveTabStyle = TabStyle.Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))
	InactiveTabStyle = TabStyle.
				Foreground(lipgloss.Color("#888888"))

	// Profit/loss colors
	ProfitStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	LossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	FlatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	// Recommendation colors
	BuyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	SellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	HoldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))

	// Outcome colors
	WinStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	LossOutStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	PendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))

	// General styles
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA"))
	SubtextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	BorderStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#555555"))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))

	// Win rate bar colors
	RateGoodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	RateOkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	RateBadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
)
