// Package search is the address lookup overlay.
package search

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/treeshoptech/freedom-drains-pro/geocode"
	"github.com/treeshoptech/freedom-drains-pro/tui/shared"
)

// Debounce is the typing pause before suggestions are requested.
const Debounce = 300 * time.Millisecond

const maxVisible = 8

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionClose
	ActionResolve
)

type KeyResult struct {
	Action    ActionKind
	Candidate geocode.Candidate
}

type Model struct {
	input      textinput.Model
	candidates []geocode.Candidate
	cursor     int
	seq        int
	pending    bool
	resolving  bool
	err        error
	width      int
	height     int
}

func New() Model {
	ti := textinput.New()
	ti.Placeholder = "search address..."
	ti.CharLimit = 200
	ti.Width = 50
	return Model{input: ti}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.input.Width = min(max(w-20, 20), 70)
}

// Open resets the overlay and focuses the query input.
func (m *Model) Open() tea.Cmd {
	m.input.SetValue("")
	m.candidates = nil
	m.cursor = 0
	m.pending = false
	m.resolving = false
	m.err = nil
	m.seq++
	return m.input.Focus()
}

func (m Model) Query() string { return strings.TrimSpace(m.input.Value()) }

// Seq identifies the latest edit to the query. Ticks and results carrying
// an older value are stale.
func (m Model) Seq() int { return m.seq }

func (m Model) Candidates() []geocode.Candidate { return m.candidates }

// SetSuggestions applies a suggest result if it answers the current query.
func (m *Model) SetSuggestions(msg shared.SuggestionsMsg) bool {
	if msg.Seq != m.seq {
		return false
	}
	m.pending = false
	m.err = msg.Err
	if msg.Err != nil {
		return true
	}
	m.candidates = msg.Candidates
	m.cursor = 0
	return true
}

func (m *Model) SetResolving(v bool) { m.resolving = v }

func (m *Model) SetError(err error) {
	m.resolving = false
	m.err = err
}

func (m *Model) HandleKey(msg tea.KeyMsg) KeyResult {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		return KeyResult{Action: ActionClose}
	case "down", "ctrl+n":
		if m.cursor < len(m.candidates)-1 {
			m.cursor++
		}
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if m.cursor < len(m.candidates) && !m.resolving {
			return KeyResult{Action: ActionResolve, Candidate: m.candidates[m.cursor]}
		}
	}
	return KeyResult{Action: ActionNone}
}

// Update feeds typing to the input. When the query changes it returns a
// tick that fires after Debounce carrying the new sequence number.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}

	m.seq++
	m.err = nil
	if tooShort(m.input.Value()) {
		m.candidates = nil
		m.pending = false
		return m, cmd
	}
	m.pending = true
	seq := m.seq
	tick := tea.Tick(Debounce, func(time.Time) tea.Msg { return shared.SearchTickMsg{Seq: seq} })
	return m, tea.Batch(cmd, tick)
}

func tooShort(q string) bool {
	return len([]rune(strings.TrimSpace(q))) < geocode.MinQueryLen
}

func (m Model) ViewOverlay(w, h int) string {
	overlay := shared.OverlayStyle.Render(m.renderContent())
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, overlay,
		lipgloss.WithWhitespaceChars(" "),
	)
}

func (m Model) renderContent() string {
	var b strings.Builder
	b.WriteString(shared.TitleStyle.Render("Find Address"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(shared.ErrorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	case m.resolving:
		b.WriteString(shared.DimStyle.Render("Locating…"))
		b.WriteString("\n")
	case m.pending:
		b.WriteString(shared.DimStyle.Render("Searching…"))
		b.WriteString("\n")
	case len(m.candidates) == 0 && !tooShort(m.input.Value()):
		b.WriteString(shared.DimStyle.Render("  no matching addresses"))
		b.WriteString("\n")
	}

	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	end := min(start+maxVisible, len(m.candidates))
	for i := start; i < end; i++ {
		c := m.candidates[i]
		line := "  " + shared.FGStyle.Render(c.Name)
		if c.PlaceFormatted != "" {
			line += " " + shared.DimStyle.Render(c.PlaceFormatted)
		} else if c.FullAddress != "" && c.FullAddress != c.Name {
			line += " " + shared.DimStyle.Render(c.FullAddress)
		}
		if i == m.cursor {
			line = shared.CursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(shared.HelpDescStyle.Render("↑/↓: choose  enter: go to address  esc: close"))
	return b.String()
}
