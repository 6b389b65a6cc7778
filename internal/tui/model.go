// Package tui is the week-by-week mood dashboard.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/moodlit/internal/aggregator"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/query"
)

const loadTimeout = 10 * time.Second

// Loader reads check-ins for a date range.
type Loader interface {
	GetCheckIns(ctx context.Context, start, end time.Time) ([]models.CheckIn, error)
}

// weekLoadedMsg carries the result of one week load, tagged with the token
// it was issued under.
type weekLoadedMsg struct {
	token    query.Token
	start    time.Time
	snapshot aggregator.Snapshot
	err      error
}

type Model struct {
	loader  Loader
	tax     aggregator.Taxonomy
	tracker *query.Tracker
	loc     *time.Location
	now     func() time.Time

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	weekStart time.Time
	weekEnd   time.Time
	loading   bool
	snapshot  aggregator.Snapshot
	err       error

	width    int
	quitting bool
}

func NewModel(loader Loader, tax aggregator.Taxonomy, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = mutedStyle

	m := Model{
		loader:  loader,
		tax:     tax,
		tracker: &query.Tracker{},
		loc:     loc,
		now:     time.Now,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: s,
		loading: true,
	}
	m.weekStart, m.weekEnd = aggregator.WeekRange(m.now().In(loc))
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadWeek())
}

// loadWeek issues a new token for the currently selected week. Any load
// still in flight becomes stale.
func (m Model) loadWeek() tea.Cmd {
	tok := m.tracker.Issue()
	start, end := m.weekStart, m.weekEnd
	loader, tax := m.loader, m.tax
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		checkIns, err := loader.GetCheckIns(ctx, start, end)
		if err != nil {
			return weekLoadedMsg{token: tok, start: start, err: err}
		}
		return weekLoadedMsg{token: tok, start: start, snapshot: aggregator.Summarize(checkIns, tax)}
	}
}

// shiftWeek moves the selection by n weeks. The dashboard never navigates
// past the current week.
func (m *Model) shiftWeek(n int) bool {
	start := m.weekStart.AddDate(0, 0, 7*n)
	current, _ := aggregator.WeekRange(m.now().In(m.loc))
	if start.After(current) {
		return false
	}
	m.weekStart, m.weekEnd = aggregator.WeekRange(start)
	return true
}

func (m *Model) thisWeek() bool {
	start, end := aggregator.WeekRange(m.now().In(m.loc))
	if start.Equal(m.weekStart) {
		return false
	}
	m.weekStart, m.weekEnd = start, end
	return true
}

// Run starts the dashboard in the alternate screen and blocks until quit.
func Run(loader Loader, tax aggregator.Taxonomy, loc *time.Location) error {
	_, err := tea.NewProgram(NewModel(loader, tax, loc), tea.WithAltScreen()).Run()
	return err
}
