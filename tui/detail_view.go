package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/contactmerge/models"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)
)

func (m Model) renderDetailView() string {
	plan, ok := m.currentPlan()
	if !ok {
		return "No group selected"
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("GROUP %d/%d", m.selectedRow+1, len(m.plans))))
	s.WriteString("\n\n")

	s.WriteString(m.renderField("Match", plan.Key.String()))
	s.WriteString(m.renderField("Selected", fmt.Sprintf("%t", !m.skipped[m.selectedRow])))
	s.WriteString(m.renderField("Changes", strings.Join(plan.ChangedFields(), ", ")))
	if plan.ResultIsEmpty() {
		s.WriteString(warningStyle.Render("The merged contact is empty and will be deleted."))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("Survivor"))
	s.WriteString("\n")
	s.WriteString(m.renderContact(plan.Survivor))

	for _, absorbed := range plan.Absorbed {
		s.WriteString("\n")
		s.WriteString(sectionStyle.Render("Absorbed " + absorbed.ResourceName))
		s.WriteString("\n")
		s.WriteString(m.renderContact(absorbed))
	}

	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("Result"))
	s.WriteString("\n")
	s.WriteString(m.renderContact(plan.Result))

	s.WriteString("\n")
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderContact(c models.Contact) string {
	var s strings.Builder

	s.WriteString(m.renderField("Name", c.DisplayName()))
	for _, e := range c.Emails {
		s.WriteString(m.renderField("Email", labelled(e.Address, e.Label)))
	}
	for _, p := range c.Phones {
		s.WriteString(m.renderField("Phone", labelled(p.Number, p.Label)))
	}
	for _, a := range c.Addresses {
		s.WriteString(m.renderField("Address", strings.ReplaceAll(a.Address, "\n", ", ")))
	}
	for _, o := range c.Organizations {
		s.WriteString(m.renderField("Organization", labelled(o.Name, o.Title)))
	}
	if len(c.URLs) > 0 {
		s.WriteString(m.renderField("URLs", fmt.Sprintf("%d", len(c.URLs))))
	}
	if c.Notes != "" {
		s.WriteString(m.renderField("Notes", strings.ReplaceAll(c.Notes, "\n", " / ")))
	}

	return s.String()
}

func labelled(value, label string) string {
	if label == "" {
		return value
	}
	return fmt.Sprintf("%s (%s)", value, label)
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"←/→: Previous/Next",
		"Space: Toggle",
		"g: Graph",
		"Esc: Back",
		"q: Abort",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
	case "left", "h":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "right", "l":
		if m.selectedRow < len(m.plans)-1 {
			m.selectedRow++
		}
	case " ", "x":
		m.skipped[m.selectedRow] = !m.skipped[m.selectedRow]
	case "g":
		m.generateGraph()
		m.viewMode = ViewGraph
	}

	return m, nil
}
