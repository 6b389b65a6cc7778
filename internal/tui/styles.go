package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(lipgloss.Color("236")).
			Padding(0, 1).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			MarginTop(1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	dangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)

	positiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	docStyle = lipgloss.NewStyle().Padding(1, 2)
)

// riskStyle colors a burnout value from calm green to alarm red.
func riskStyle(risk int) lipgloss.Style {
	switch {
	case risk >= 70:
		return dangerStyle
	case risk >= 40:
		return warningStyle
	default:
		return positiveStyle
	}
}
