package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/treeshoptech/freedom-drains-pro/tui/shared"
)

var groupNames = []string{"Map", "Editing", "Move Shape", "Tools", "Project"}

type Model struct {
	width  int
	height int
}

func New() Model {
	return Model{}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(shared.TitleStyle.Render("Freedom Drains Help"))
	b.WriteString("\n\n")

	for i, group := range shared.Keys.FullHelp() {
		if i < len(groupNames) {
			b.WriteString(shared.GroupHeaderStyle.Render(groupNames[i]))
			b.WriteString("\n")
		}
		for _, k := range group {
			help := k.Help()
			b.WriteString("  " + shared.HelpKeyStyle.Render(help.Key) + "  " + shared.HelpDescStyle.Render(help.Desc) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(shared.DimStyle.Render("Failed existing features draw in the alert color; x toggles them."))

	content := shared.HelpOverlayStyle.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
