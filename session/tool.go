package session

import (
	"fmt"

	"github.com/treeshoptech/freedom-drains-pro/design"
)

// Tool is the active palette entry: Select or one element type.
type Tool int

// Select is the initial tool. It picks and edits existing features.
const Select Tool = 0

// ToolFor returns the tool that places t.
func ToolFor(t design.ElementType) Tool { return Tool(t) + 1 }

// Tools lists Select followed by every element tool in palette order.
func Tools() []Tool {
	out := []Tool{Select}
	for _, t := range design.ElementTypes() {
		out = append(out, ToolFor(t))
	}
	return out
}

// Element is the element type placed by the tool. ok is false for Select.
func (t Tool) Element() (et design.ElementType, ok bool) {
	if t <= Select {
		return 0, false
	}
	et = design.ElementType(t - 1)
	return et, et.Valid()
}

func (t Tool) Valid() bool {
	if t == Select {
		return true
	}
	_, ok := t.Element()
	return ok
}

// Draws reports whether the tool places features with a draw gesture.
func (t Tool) Draws() bool {
	et, ok := t.Element()
	return ok && !et.ClickToPlace()
}

// Places reports whether the tool places features with a single click.
func (t Tool) Places() bool {
	et, ok := t.Element()
	return ok && et.ClickToPlace()
}

// Mode is the drawing mode the tool arms.
func (t Tool) Mode() Mode {
	et, ok := t.Element()
	if !ok {
		return ModeSelect
	}
	switch et.Kind() {
	case design.KindLine:
		return ModeDrawLine
	case design.KindPolygon:
		return ModeDrawPolygon
	default:
		return ModeSelect
	}
}

func (t Tool) String() string {
	if t == Select {
		return "select"
	}
	if et, ok := t.Element(); ok {
		return et.String()
	}
	return fmt.Sprintf("tool(%d)", int(t))
}

// Title is the palette caption.
func (t Tool) Title() string {
	if t == Select {
		return "Select"
	}
	et, _ := t.Element()
	return et.Title()
}
