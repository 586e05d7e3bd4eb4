package shared

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	Vertex    key.Binding
	ZoomIn    key.Binding
	ZoomOut   key.Binding
	Recenter  key.Binding

	Click      key.Binding
	Finish     key.Binding
	AltClick   key.Binding
	Delete     key.Binding
	NextShape  key.Binding
	PrevShape  key.Binding
	SelectTool key.Binding
	NextTool   key.Binding
	PrevTool   key.Binding
	Undo       key.Binding

	Save     key.Binding
	Projects key.Binding
	Search   key.Binding
	Details  key.Binding
	NewProj  key.Binding

	Help   key.Binding
	Quit   key.Binding
	Escape key.Binding
}

var Keys = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "cursor up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "cursor down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "cursor left"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "cursor right"),
	),
	MoveUp: key.NewBinding(
		key.WithKeys("K", "shift+up"),
		key.WithHelp("S-↑", "drag up"),
	),
	MoveDown: key.NewBinding(
		key.WithKeys("J", "shift+down"),
		key.WithHelp("S-↓", "drag down"),
	),
	MoveLeft: key.NewBinding(
		key.WithKeys("H", "shift+left"),
		key.WithHelp("S-←", "drag left"),
	),
	MoveRight: key.NewBinding(
		key.WithKeys("L", "shift+right"),
		key.WithHelp("S-→", "drag right"),
	),
	Vertex: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "grab next vertex"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "zoom out"),
	),
	Recenter: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "fit design"),
	),
	Click: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "click / add vertex"),
	),
	Finish: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "finish shape"),
	),
	AltClick: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "toggle failed"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d", "delete", "backspace"),
		key.WithHelp("d", "delete selected"),
	),
	NextShape: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next shape"),
	),
	PrevShape: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("S-tab", "prev shape"),
	),
	SelectTool: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9", "0"),
		key.WithHelp("0-9", "pick tool"),
	),
	NextTool: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next tool"),
	),
	PrevTool: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "prev tool"),
	),
	Undo: key.NewBinding(
		key.WithKeys("u", "ctrl+z"),
		key.WithHelp("u", "undo"),
	),
	Save: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("C-s", "save now"),
	),
	Projects: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "projects"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "address search"),
	),
	Details: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit details"),
	),
	NewProj: key.NewBinding(
		key.WithKeys("N"),
		key.WithHelp("N", "new project"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel / release / select tool"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Click, k.Finish, k.SelectTool, k.Delete, k.Save, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.ZoomIn, k.ZoomOut, k.Recenter},
		{k.Click, k.Finish, k.AltClick, k.Delete, k.NextShape, k.PrevShape, k.Undo},
		{k.Vertex, k.MoveUp, k.MoveDown, k.MoveLeft, k.MoveRight},
		{k.SelectTool, k.NextTool, k.PrevTool, k.Escape},
		{k.Save, k.Projects, k.Search, k.Details, k.NewProj, k.Help, k.Quit},
	}
}
