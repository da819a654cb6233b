package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("MERGE REVIEW"))
	s.WriteString("\n")

	kept := len(m.Selected())
	s.WriteString(summaryStyle.Render(fmt.Sprintf("%d of %d groups selected", kept, len(m.plans))))
	s.WriteString("\n\n")

	if len(m.plans) == 0 {
		s.WriteString("No duplicate groups found.\n")
	} else {
		s.WriteString(m.renderPlansTable())
	}

	s.WriteString("\n")
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderPlansTable() string {
	columns := []table.Column{
		{Title: "", Width: 3},
		{Title: "Survivor", Width: 28},
		{Title: "Absorbs", Width: 8},
		{Title: "Match", Width: 26},
		{Title: "Changes", Width: 30},
	}

	var rows []table.Row
	for i := range m.plans {
		p := &m.plans[i]
		mark := "[x]"
		if m.skipped[i] {
			mark = "[ ]"
		}
		changes := strings.Join(p.ChangedFields(), ", ")
		if p.ResultIsEmpty() {
			changes = "delete (empty)"
		}
		rows = append(rows, table.Row{
			mark,
			p.Survivor.DisplayName(),
			fmt.Sprintf("%d", len(p.Absorbed)),
			p.Key.String(),
			changes,
		})
	}

	height := m.height - 10
	if height < 3 {
		height = 3
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Space: Toggle",
		"a: All",
		"Enter: Details",
		"g: Graph",
		"c: Confirm",
		"q: Abort",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.plans)-1 {
			m.selectedRow++
		}
	case " ", "x":
		if len(m.plans) > 0 {
			m.skipped[m.selectedRow] = !m.skipped[m.selectedRow]
		}
	case "a":
		allKept := len(m.Selected()) == len(m.plans)
		for i := range m.plans {
			m.skipped[i] = allKept
		}
	case "enter":
		if len(m.plans) > 0 {
			m.viewMode = ViewDetail
		}
	case "g":
		m.generateGraph()
		m.viewMode = ViewGraph
	case "c":
		m.viewMode = ViewConfirm
	}

	return m, nil
}
