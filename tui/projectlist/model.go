package projectlist

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/treeshoptech/freedom-drains-pro/pricing"
	"github.com/treeshoptech/freedom-drains-pro/store"
	"github.com/treeshoptech/freedom-drains-pro/tui/shared"
)

type Mode int

const (
	ModeBrowse Mode = iota
	ModeCreate
	ModeConfirmDelete
)

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionClose
	ActionOpen
	ActionDelete
	ActionCycleStatus
	ActionCreate
)

// KeyResult tells the app what a key press asked for. ID is set for
// actions on an existing project, Name and Address for ActionCreate.
type KeyResult struct {
	Action  ActionKind
	ID      string
	Status  store.Status
	Name    string
	Address string
}

type inputField int

const (
	fieldName inputField = iota
	fieldAddress
)

type Model struct {
	projects     []store.Summary
	loading      bool
	err          error
	cursor       int
	scrollOffset int
	width        int
	height       int
	mode         Mode
	now          func() time.Time

	nameInput    textinput.Model
	addressInput textinput.Model
	activeField  inputField
	formErr      string
}

func New(now func() time.Time) Model {
	ni := textinput.New()
	ni.Placeholder = "project name..."
	ni.CharLimit = 100

	ai := textinput.New()
	ai.Placeholder = "site address..."
	ai.CharLimit = 200

	if now == nil {
		now = time.Now
	}
	return Model{nameInput: ni, addressInput: ai, now: now}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetLoading marks the list as waiting for a fresh listing.
func (m *Model) SetLoading() {
	m.loading = true
	m.err = nil
	m.mode = ModeBrowse
}

func (m *Model) SetProjects(projects []store.Summary, err error) {
	m.loading = false
	m.err = err
	if err != nil {
		return
	}
	m.projects = projects
	if m.cursor >= len(m.projects) {
		m.cursor = max(0, len(m.projects)-1)
	}
	m.ensureCursorVisible()
}

// Replace updates one row in place after a status change.
func (m *Model) Replace(p store.Project) {
	for i := range m.projects {
		if m.projects[i].ID == p.ID {
			m.projects[i].Status = p.Status
			m.projects[i].UpdatedAt = p.UpdatedAt
			return
		}
	}
}

func (m Model) Projects() []store.Summary { return m.projects }

func (m Model) Selected() (store.Summary, bool) {
	if m.cursor < 0 || m.cursor >= len(m.projects) {
		return store.Summary{}, false
	}
	return m.projects[m.cursor], true
}

func (m Model) Mode() Mode { return m.mode }

func (m Model) listHeight() int {
	h := (m.height - 6) / 2
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) ensureCursorVisible() {
	h := m.listHeight()
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+h {
		m.scrollOffset = m.cursor - h + 1
	}
}

// InInputMode returns true when a text input is active.
func (m Model) InInputMode() bool {
	return m.mode == ModeCreate
}

// HandleKey processes a key event and returns an action result.
func (m *Model) HandleKey(msg tea.KeyMsg) KeyResult {
	switch m.mode {
	case ModeCreate:
		return m.handleCreateKey(msg)
	case ModeConfirmDelete:
		return m.handleDeleteKey(msg)
	default:
		return m.handleBrowseKey(msg)
	}
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) KeyResult {
	switch msg.String() {
	case "esc", "q", "p":
		return KeyResult{Action: ActionClose}
	case "j", "down":
		if m.cursor < len(m.projects)-1 {
			m.cursor++
			m.ensureCursorVisible()
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}
	case "enter":
		if p, ok := m.Selected(); ok {
			return KeyResult{Action: ActionOpen, ID: p.ID}
		}
	case "s":
		if p, ok := m.Selected(); ok {
			return KeyResult{Action: ActionCycleStatus, ID: p.ID, Status: p.Status.Next()}
		}
	case "n":
		m.mode = ModeCreate
		m.activeField = fieldName
		m.formErr = ""
		m.nameInput.SetValue("")
		m.addressInput.SetValue("")
		m.nameInput.Focus()
		m.addressInput.Blur()
	case "x":
		if len(m.projects) > 0 {
			m.mode = ModeConfirmDelete
		}
	}
	return KeyResult{Action: ActionNone}
}

func (m *Model) handleCreateKey(msg tea.KeyMsg) KeyResult {
	switch msg.String() {
	case "esc":
		m.mode = ModeBrowse
		m.nameInput.Blur()
		m.addressInput.Blur()
	case "tab", "shift+tab":
		m.switchField()
	case "enter":
		name := strings.TrimSpace(m.nameInput.Value())
		addr := strings.TrimSpace(m.addressInput.Value())
		if name == "" || addr == "" {
			m.formErr = "name and address are required"
			if name != "" && m.activeField == fieldName {
				m.switchField()
			}
			return KeyResult{Action: ActionNone}
		}
		m.mode = ModeBrowse
		m.nameInput.Blur()
		m.addressInput.Blur()
		return KeyResult{Action: ActionCreate, Name: name, Address: addr}
	}
	return KeyResult{Action: ActionNone}
}

func (m *Model) switchField() {
	if m.activeField == fieldName {
		m.activeField = fieldAddress
		m.nameInput.Blur()
		m.addressInput.Focus()
	} else {
		m.activeField = fieldName
		m.addressInput.Blur()
		m.nameInput.Focus()
	}
}

func (m *Model) handleDeleteKey(msg tea.KeyMsg) KeyResult {
	m.mode = ModeBrowse
	if msg.String() != "y" {
		return KeyResult{Action: ActionNone}
	}
	p, ok := m.Selected()
	if !ok {
		return KeyResult{Action: ActionNone}
	}
	return KeyResult{Action: ActionDelete, ID: p.ID}
}

// Update forwards non-key messages and typed characters to the focused input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode != ModeCreate {
		return m, nil
	}
	var cmd tea.Cmd
	if m.activeField == fieldName {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.addressInput, cmd = m.addressInput.Update(msg)
	}
	return m, cmd
}

// View renders the project list.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(shared.TitleStyle.Render("Projects"))
	b.WriteString("\n\n")

	switch m.mode {
	case ModeCreate:
		b.WriteString(m.renderCreate())
	case ModeConfirmDelete:
		b.WriteString(m.renderBrowse())
		b.WriteString("\n")
		b.WriteString(m.renderDeleteConfirm())
	default:
		b.WriteString(m.renderBrowse())
	}

	b.WriteString("\n\n")
	switch m.mode {
	case ModeCreate:
		b.WriteString(shared.HelpDescStyle.Render("tab: switch field  enter: create  esc: cancel"))
	case ModeConfirmDelete:
		b.WriteString(shared.HelpDescStyle.Render("y: confirm delete  n/esc: cancel"))
	default:
		b.WriteString(shared.HelpDescStyle.Render("j/k: navigate  enter: open  s: next status  n: new  x: delete  esc: close"))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		MaxHeight(m.height).
		Render(b.String())
}

func (m Model) renderBrowse() string {
	switch {
	case m.loading:
		return shared.DimStyle.Render("Loading projects…")
	case m.err != nil:
		return shared.ErrorStyle.Render(fmt.Sprintf("Could not list projects: %v", m.err))
	case len(m.projects) == 0:
		return shared.HelpDescStyle.Render("No saved projects. Press n to start one.")
	}

	var b strings.Builder
	end := min(m.scrollOffset+m.listHeight(), len(m.projects))
	for i := m.scrollOffset; i < end; i++ {
		line := m.renderItem(m.projects[i])
		if i == m.cursor {
			line = shared.CursorStyle.Width(max(m.width-6, 0)).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderItem(p store.Summary) string {
	top := shared.FGStyle.Render(p.Name) + "  " + shared.StatusBadge(string(p.Status))
	bottom := "  " + shared.DimStyle.Render(p.Address) +
		"  " + shared.MoneyStyle.Render(pricing.FormatMoney(p.TotalCost)) +
		"  " + shared.MutedStyle.Render(humanize.RelTime(p.UpdatedAt, m.now(), "ago", "from now"))
	return top + "\n" + bottom
}

func (m Model) renderCreate() string {
	var b strings.Builder
	b.WriteString(shared.GroupHeaderStyle.Render("New Project"))
	b.WriteString("\n\n")

	nameLabel, addrLabel := "Name:    ", "Address: "
	if m.activeField == fieldName {
		nameLabel = shared.AccentStyle.Render(nameLabel)
		addrLabel = shared.HelpDescStyle.Render(addrLabel)
	} else {
		nameLabel = shared.HelpDescStyle.Render(nameLabel)
		addrLabel = shared.AccentStyle.Render(addrLabel)
	}
	b.WriteString(nameLabel + m.nameInput.View() + "\n")
	b.WriteString(addrLabel + m.addressInput.View())
	if m.formErr != "" {
		b.WriteString("\n\n")
		b.WriteString(shared.ErrorStyle.Render(m.formErr))
	}
	return b.String()
}

func (m Model) renderDeleteConfirm() string {
	p, _ := m.Selected()
	return shared.ErrorStyle.Render("Delete " + p.Name + "? (y/n)")
}
