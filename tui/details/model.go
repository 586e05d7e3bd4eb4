// Package details is the form for a project's site and customer fields.
package details

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/treeshoptech/freedom-drains-pro/project"
	"github.com/treeshoptech/freedom-drains-pro/store"
	"github.com/treeshoptech/freedom-drains-pro/tui/shared"
)

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionCancel
	ActionSubmit
)

type KeyResult struct {
	Action  ActionKind
	Details project.Details
}

const (
	fieldName = iota
	fieldAddress
	fieldCustomer
	fieldPhone
	fieldEmail
	fieldNotes
	numFields
)

var labels = [numFields]string{
	"Project name",
	"Site address",
	"Customer",
	"Phone",
	"Email",
	"Notes",
}

type Model struct {
	inputs [numFields]textinput.Model
	active int
	base   project.Details
	err    error
	width  int
	height int
}

func New() Model {
	var m Model
	limits := [numFields]int{100, 200, 100, 30, 120, 500}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = strings.ToLower(labels[i]) + "..."
		ti.CharLimit = limits[i]
		ti.Width = 50
		m.inputs[i] = ti
	}
	return m
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	for i := range m.inputs {
		m.inputs[i].Width = min(max(w-24, 20), 70)
	}
}

// Edit fills the form from d and focuses the first empty required field.
func (m *Model) Edit(d project.Details) tea.Cmd {
	m.base = d
	m.err = nil
	values := [numFields]string{d.Name, d.Address, d.Customer.Name, d.Customer.Phone, d.Customer.Email, d.Notes}
	for i := range m.inputs {
		m.inputs[i].SetValue(values[i])
		m.inputs[i].CursorEnd()
	}
	m.active = fieldName
	if strings.TrimSpace(d.Name) != "" && strings.TrimSpace(d.Address) == "" {
		m.active = fieldAddress
	}
	return m.focus()
}

func (m *Model) SetError(err error) { m.err = err }

func (m *Model) focus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.active {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

// Value assembles the details from the form. Coordinates and pipeline
// status carry over from the details being edited.
func (m Model) Value() project.Details {
	d := m.base
	d.Name = strings.TrimSpace(m.inputs[fieldName].Value())
	d.Address = strings.TrimSpace(m.inputs[fieldAddress].Value())
	d.Customer = store.Customer{
		Name:  strings.TrimSpace(m.inputs[fieldCustomer].Value()),
		Phone: strings.TrimSpace(m.inputs[fieldPhone].Value()),
		Email: strings.TrimSpace(m.inputs[fieldEmail].Value()),
	}
	d.Notes = strings.TrimSpace(m.inputs[fieldNotes].Value())
	return d
}

func (m *Model) HandleKey(msg tea.KeyMsg) (KeyResult, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return KeyResult{Action: ActionCancel}, nil
	case "tab", "down":
		m.active = (m.active + 1) % numFields
		return KeyResult{}, m.focus()
	case "shift+tab", "up":
		m.active = (m.active + numFields - 1) % numFields
		return KeyResult{}, m.focus()
	case "enter":
		d := m.Value()
		if err := d.Validate(); err != nil {
			m.err = err
			if d.Name == "" {
				m.active = fieldName
			} else {
				m.active = fieldAddress
			}
			return KeyResult{}, m.focus()
		}
		return KeyResult{Action: ActionSubmit, Details: d}, nil
	}
	return KeyResult{}, nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.active], cmd = m.inputs[m.active].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(shared.TitleStyle.Render("  Project Details"))
	b.WriteString("\n\n")

	for i := range m.inputs {
		label := fmt.Sprintf("  %-13s", labels[i])
		if i == m.active {
			label = shared.AccentStyle.Render(label)
		} else {
			label = shared.HelpDescStyle.Render(label)
		}
		b.WriteString(label + m.inputs[i].View() + "\n")
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("  " + shared.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}
	b.WriteString(shared.HelpDescStyle.Render("  tab/shift+tab: field  enter: save  esc: cancel"))
	return b.String()
}
