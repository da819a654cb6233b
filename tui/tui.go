// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Full-screen review of planned merges before a dedupe run writes anything
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/contactmerge/merge"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewGraph
	ViewConfirm
)

// Model is the main bubbletea model
type Model struct {
	ctx      context.Context
	plans    []merge.Plan
	skipped  map[int]bool
	viewMode ViewMode

	selectedRow int

	graphDOT string
	graphErr error

	confirmed bool
	aborted   bool

	// UI state
	width  int
	height int
}

// NewModel creates a review model over plans. Every group starts selected.
func NewModel(ctx context.Context, plans []merge.Plan) Model {
	return Model{
		ctx:      ctx,
		plans:    plans,
		skipped:  make(map[int]bool),
		viewMode: ViewList,
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirm:
		return m.renderConfirmView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.aborted = true
		return m, tea.Quit
	case "q":
		if m.viewMode != ViewConfirm {
			m.aborted = true
			return m, tea.Quit
		}
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirm:
		return m.handleConfirmKeys(msg)
	}

	return m, nil
}

// Selected returns the plans the user kept, in their original order.
func (m Model) Selected() []merge.Plan {
	kept := make([]merge.Plan, 0, len(m.plans))
	for i, p := range m.plans {
		if !m.skipped[i] {
			kept = append(kept, p)
		}
	}
	return kept
}

// Confirmed reports whether the user accepted the selection.
func (m Model) Confirmed() bool {
	return m.confirmed
}

// Aborted reports whether the user quit without confirming.
func (m Model) Aborted() bool {
	return m.aborted
}

func (m Model) currentPlan() (merge.Plan, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.plans) {
		return merge.Plan{}, false
	}
	return m.plans[m.selectedRow], true
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
