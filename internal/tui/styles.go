package tui

import "github.com/charmbracelet/lipgloss"

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			Bold(true)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 1)

	dangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 2).
			Width(18).
			Align(lipgloss.Center)

	cardValueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

	dayDoneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dayMissedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dayLabelStyle   = lipgloss.NewStyle().Width(4).Align(lipgloss.Center)
	docStyle        = lipgloss.NewStyle().Padding(1, 2)
	headerDateStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
)
