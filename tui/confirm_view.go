// ABOUTME: Confirmation view shown before the reviewed merges are applied
// ABOUTME: Summarizes how many contacts will be rewritten and deleted
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60)

	confirmTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("9"))
)

func (m Model) renderConfirmView() string {
	selected := m.Selected()
	absorbed := 0
	emptied := 0
	for i := range selected {
		absorbed += len(selected[i].Absorbed)
		if selected[i].ResultIsEmpty() {
			emptied++
		}
	}

	var s strings.Builder
	s.WriteString(confirmTitleStyle.Render("APPLY MERGES"))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Groups to merge:     %d\n", len(selected)))
	s.WriteString(fmt.Sprintf("Groups skipped:      %d\n", len(m.plans)-len(selected)))
	s.WriteString(fmt.Sprintf("Contacts absorbed:   %d\n", absorbed))
	if emptied > 0 {
		s.WriteString(fmt.Sprintf("Empty results:       %d\n", emptied))
	}
	s.WriteString("\n")
	s.WriteString("Absorbed contacts are deleted from the directory.\n\n")
	s.WriteString("Press 'y' to apply, 'n' to go back")

	return confirmBoxStyle.Render(s.String())
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.confirmed = true
		return m, tea.Quit
	case "n", "N", "esc", "q":
		m.viewMode = ViewList
	}

	return m, nil
}
