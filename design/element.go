package design

import (
	"fmt"
	"strings"
)

// ElementType is the closed set of things a user can place on a design.
type ElementType int

const (
	HydrobloxRun ElementType = iota
	ParallelRow
	TransitionBox
	StormwaterBox
	FlowArrow
	StandingWater
	ProblemArea
	ExistingSwale
	ExistingFrenchDrain
	ExistingPipe
	Downspout

	numElementTypes
)

// GeometryKind is the shape a feature is drawn with.
type GeometryKind int

const (
	KindNone GeometryKind = iota
	KindLine
	KindPoint
	KindPolygon
)

func (k GeometryKind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindPoint:
		return "point"
	case KindPolygon:
		return "polygon"
	default:
		return "none"
	}
}

// Group is the palette section an element type is listed under.
type Group int

const (
	GroupGeneral Group = iota
	GroupHydroblox
	GroupWater
	GroupExisting
)

// GroupOrder is the order palette sections are shown in.
var GroupOrder = []Group{GroupGeneral, GroupHydroblox, GroupWater, GroupExisting}

func (g Group) String() string {
	switch g {
	case GroupHydroblox:
		return "HydroBlox"
	case GroupWater:
		return "Water Flow"
	case GroupExisting:
		return "Existing Features"
	default:
		return "General"
	}
}

type elementSpec struct {
	name     string // wire tag
	title    string // palette name
	label    string // short map label
	kind     GeometryKind
	group    Group
	existing bool
}

var elementSpecs = [numElementTypes]elementSpec{
	HydrobloxRun:        {"hydroblox-run", "HydroBlox Run", "HydroBlox", KindLine, GroupHydroblox, false},
	ParallelRow:         {"parallel-row", "Parallel Row", "Parallel", KindLine, GroupHydroblox, false},
	TransitionBox:       {"transition-box", "Transition Box", "T-Box", KindPoint, GroupHydroblox, false},
	StormwaterBox:       {"stormwater-box", "Stormwater Box", "Storm", KindPoint, GroupHydroblox, false},
	FlowArrow:           {"flow-arrow", "Flow Arrow", "Flow", KindLine, GroupWater, false},
	StandingWater:       {"standing-water", "Standing Water", "Water", KindPolygon, GroupWater, false},
	ProblemArea:         {"problem-area", "Problem Area", "Problem", KindPolygon, GroupWater, false},
	ExistingSwale:       {"existing-swale", "Existing Swale", "Swale", KindLine, GroupExisting, true},
	ExistingFrenchDrain: {"existing-french-drain", "French Drain", "French", KindLine, GroupExisting, true},
	ExistingPipe:        {"existing-pipe", "Pipe", "Pipe", KindLine, GroupExisting, true},
	Downspout:           {"downspout", "Downspout", "DS", KindPoint, GroupExisting, true},
}

// ElementTypes returns every element type in palette order.
func ElementTypes() []ElementType {
	out := make([]ElementType, 0, numElementTypes)
	for t := ElementType(0); t < numElementTypes; t++ {
		out = append(out, t)
	}
	return out
}

// Valid reports whether t is one of the declared element types.
func (t ElementType) Valid() bool {
	return t >= 0 && t < numElementTypes
}

func (t ElementType) spec() elementSpec {
	if !t.Valid() {
		return elementSpec{name: fmt.Sprintf("element(%d)", int(t))}
	}
	return elementSpecs[t]
}

func (t ElementType) String() string { return t.spec().name }

// Title is the human readable name shown in the tool palette.
func (t ElementType) Title() string { return t.spec().title }

// Label is the short annotation drawn next to a feature on the map.
func (t ElementType) Label() string { return t.spec().label }

// Kind is the geometry kind features of this type are drawn with.
func (t ElementType) Kind() GeometryKind { return t.spec().kind }

func (t ElementType) Group() Group { return t.spec().group }

// IsExisting reports whether t is pre-existing infrastructure that carries
// a working/failed status.
func (t ElementType) IsExisting() bool { return t.spec().existing }

// ClickToPlace reports whether t is placed with a single click instead of a
// draw gesture.
func (t ElementType) ClickToPlace() bool { return t.Kind() == KindPoint }

// HasUnitPrice reports whether features of type t carry a flat unit price.
// Only the placed boxes do; downspouts are existing infrastructure.
func (t ElementType) HasUnitPrice() bool { return t.ClickToPlace() && !t.IsExisting() }

// ParseElementType maps a wire tag such as "hydroblox-run" to its type.
func ParseElementType(s string) (ElementType, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for t := ElementType(0); t < numElementTypes; t++ {
		if elementSpecs[t].name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown element type %q", s)
}

func (t ElementType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid element type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *ElementType) UnmarshalText(b []byte) error {
	parsed, err := ParseElementType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Status is the condition of an existing-infrastructure feature. The zero
// value means the feature has no status.
type Status string

const (
	StatusNone    Status = ""
	StatusWorking Status = "working"
	StatusFailed  Status = "failed"
)

// Toggle flips working and failed. A missing status stays missing.
func (s Status) Toggle() Status {
	switch s {
	case StatusWorking:
		return StatusFailed
	case StatusFailed:
		return StatusWorking
	default:
		return s
	}
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNone, StatusWorking, StatusFailed:
		return Status(s), nil
	}
	return StatusNone, fmt.Errorf("unknown status %q", s)
}
