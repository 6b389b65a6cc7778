package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/moodlit/internal/logger"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case weekLoadedMsg:
		if !m.tracker.IsCurrent(msg.token) {
			logger.Debug("Dropping stale week load", "week", msg.start)
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			logger.Error("Failed to load week", "week", msg.start, "error", msg.err)
			return m, nil
		}
		m.snapshot = msg.snapshot
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	changed := false
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Prev):
		changed = m.shiftWeek(-1)
	case key.Matches(msg, m.keys.Next):
		changed = m.shiftWeek(1)
	case key.Matches(msg, m.keys.Today):
		changed = m.thisWeek()
	case key.Matches(msg, m.keys.Refresh):
		changed = true
	}
	if !changed {
		return m, nil
	}
	m.loading = true
	m.err = nil
	return m, tea.Batch(m.loadWeek(), m.spinner.Tick)
}
