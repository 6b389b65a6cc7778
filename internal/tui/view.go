package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/models"
)

const (
	barWidth   = 24
	gaugeWidth = 20
	shownTags  = 8
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	last := m.weekEnd.AddDate(0, 0, -1)
	header := titleStyle.Render(fmt.Sprintf("Week of %s - %s", m.weekStart.Format("Jan 2"), last.Format("Jan 2, 2006")))
	if m.loading {
		header = lipgloss.JoinHorizontal(lipgloss.Center, header, " ", m.spinner.View())
	}

	var body string
	switch {
	case m.err != nil:
		body = dangerStyle.Render(apperrors.UserMessage(m.err))
	case m.snapshot.Total == 0 && !m.loading:
		body = mutedStyle.Render("No check-ins this week.")
	default:
		body = lipgloss.JoinVertical(lipgloss.Left,
			m.viewColors(),
			m.viewMoods(),
			m.viewGauges(),
			m.viewTags(),
		)
	}

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		"",
		m.help.View(m.keys),
	))
}

func (m Model) viewColors() string {
	var b strings.Builder
	for _, c := range m.snapshot.Colors {
		b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(c)).Render("    "))
	}
	return lipgloss.NewStyle().MarginTop(1).Render(b.String())
}

func (m Model) viewMoods() string {
	lines := []string{sectionStyle.Render(fmt.Sprintf("Moods (%d check-ins)", m.snapshot.Total))}
	for _, s := range m.snapshot.Moods {
		n := int(s.Percent * barWidth / 100)
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(strings.Repeat("█", n))
		lines = append(lines, fmt.Sprintf("%-12s %s %3.0f%%", s.Label, bar+strings.Repeat(" ", barWidth-n), s.Percent))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func gauge(value int) string {
	n := max(0, min(gaugeWidth, value*gaugeWidth/100))
	return "[" + strings.Repeat("■", n) + strings.Repeat("·", gaugeWidth-n) + "]"
}

func (m Model) viewGauges() string {
	lines := []string{sectionStyle.Render("Wellbeing")}
	if !m.snapshot.HasBurnout {
		lines = append(lines, mutedStyle.Render("Not enough data"))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	risk := m.snapshot.Burnout
	lines = append(lines,
		fmt.Sprintf("%-12s %s %3d", "Burnout", riskStyle(risk).Render(gauge(risk)), risk),
		fmt.Sprintf("%-12s %s %3d", "Sentiment", positiveStyle.Render(gauge(m.snapshot.Sentiment)), m.snapshot.Sentiment),
	)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) viewTags() string {
	if len(m.snapshot.Tags) == 0 {
		return ""
	}
	var parts []string
	for i, t := range m.snapshot.Tags {
		if i == shownTags {
			break
		}
		style := positiveStyle
		if t.Type == models.PolarityNeg {
			style = warningStyle
		}
		if t.Tier <= 2 {
			style = style.Bold(true)
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s %.1f%%", t.Name, t.Percent)))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render("Top tags"),
		strings.Join(parts, mutedStyle.Render(" · ")),
	)
}
