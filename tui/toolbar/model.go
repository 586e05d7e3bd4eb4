// Package toolbar is the tool palette beside the map.
package toolbar

import (
	"strconv"
	"strings"

	"github.com/treeshoptech/freedom-drains-pro/design"
	"github.com/treeshoptech/freedom-drains-pro/render"
	"github.com/treeshoptech/freedom-drains-pro/session"
	"github.com/treeshoptech/freedom-drains-pro/tui/shared"
)

type Model struct {
	tools   []session.Tool
	active  session.Tool
	palette render.Palette
	width   int
	height  int
}

func New(palette render.Palette) Model {
	return Model{tools: session.Tools(), palette: palette}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *Model) SetActive(t session.Tool) { m.active = t }

func (m Model) Active() session.Tool { return m.active }

// Shortcut is the digit that selects t, if it has one. "0" is Select and
// "1".."9" the first nine element tools.
func (m Model) Shortcut(t session.Tool) (string, bool) {
	for i, tool := range m.tools {
		if tool == t && i <= 9 {
			return strconv.Itoa(i), true
		}
	}
	return "", false
}

// ToolForKey maps a digit key to its tool.
func (m Model) ToolForKey(k string) (session.Tool, bool) {
	i, err := strconv.Atoi(k)
	if err != nil || i < 0 || i > 9 || i >= len(m.tools) {
		return session.Select, false
	}
	return m.tools[i], true
}

// Cycle returns the tool step places after the active one, wrapping.
func (m Model) Cycle(step int) session.Tool {
	idx := 0
	for i, t := range m.tools {
		if t == m.active {
			idx = i
			break
		}
	}
	n := len(m.tools)
	return m.tools[((idx+step)%n+n)%n]
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(shared.TitleStyle.Render("Tools"))
	b.WriteString("\n")

	b.WriteString(m.row(session.Select, shared.DimStyle.Render("↖")))
	for _, g := range design.GroupOrder {
		var rows []string
		for _, t := range m.tools {
			et, ok := t.Element()
			if !ok || et.Group() != g {
				continue
			}
			swatch := shared.ColorStyle(m.palette.Color(et)).Render(glyph(et))
			rows = append(rows, m.row(t, swatch))
		}
		if len(rows) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(shared.GroupHeaderStyle.Render(g.String()))
		b.WriteString("\n")
		b.WriteString(strings.Join(rows, ""))
	}
	return b.String()
}

func (m Model) row(t session.Tool, swatch string) string {
	hint := " "
	if k, ok := m.Shortcut(t); ok {
		hint = k
	}
	line := shared.HelpKeyStyle.Render(hint) + " " + swatch + " " + t.Title()
	if t == m.active {
		line = shared.CursorStyle.Render(shared.AccentStyle.Render("▸") + line)
	} else {
		line = " " + line
	}
	return line + "\n"
}

func glyph(et design.ElementType) string {
	switch et.Kind() {
	case design.KindPoint:
		return "●"
	case design.KindPolygon:
		return "▒"
	default:
		return "━"
	}
}
