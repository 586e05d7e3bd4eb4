// Package render projects the feature model into styled map layer items.
package render

import (
	"fmt"

	"github.com/treeshoptech/freedom-drains-pro/design"
)

// Pattern is the stroke pattern of a line.
type Pattern int

const (
	Solid Pattern = iota
	Dashed
	Dotted
)

func (p Pattern) String() string {
	switch p {
	case Dashed:
		return "dashed"
	case Dotted:
		return "dotted"
	default:
		return "solid"
	}
}

// Treatment is how a feature's shape is painted.
type Treatment int

const (
	Stroke Treatment = iota
	FillStroke
	Icon
)

func (t Treatment) String() string {
	switch t {
	case FillStroke:
		return "fill"
	case Icon:
		return "icon"
	default:
		return "stroke"
	}
}

// Style is the visual channel assigned to one feature.
type Style struct {
	Color       string
	Pattern     Pattern
	Dash        []float64 // dash array in line widths, nil for solid
	Width       float64
	Treatment   Treatment
	FillOpacity float64
	Icon        string
}

// Icon image names registered with the map renderer.
const (
	TransitionBoxIcon   = "transition-box-icon"
	StormwaterBoxIcon   = "stormwater-box-icon"
	DownspoutIcon       = "downspout-icon"
	DownspoutFailedIcon = "downspout-failed-icon"
)

// DefaultAlert is the color used for failed existing infrastructure.
const DefaultAlert = "#ef4444"

// Palette assigns a base color to every element type.
type Palette struct {
	colors [len(defaultColors)]string
	alert  string
}

var defaultColors = [...]string{
	design.HydrobloxRun:        "#2563eb",
	design.ParallelRow:         "#06b6d4",
	design.TransitionBox:       "#3b82f6",
	design.StormwaterBox:       "#0ea5e9",
	design.FlowArrow:           "#f97316",
	design.StandingWater:       "#eab308",
	design.ProblemArea:         "#ef4444",
	design.ExistingSwale:       "#22c55e",
	design.ExistingFrenchDrain: "#10b981",
	design.ExistingPipe:        "#14b8a6",
	design.Downspout:           "#6b7280",
}

func DefaultPalette() Palette {
	return Palette{colors: defaultColors, alert: DefaultAlert}
}

// WithOverrides returns a copy of p with the given colors replaced. Empty
// values keep the current color.
func (p Palette) WithOverrides(colors map[design.ElementType]string, alert string) Palette {
	for t, c := range colors {
		if t.Valid() && c != "" {
			p.colors[t] = c
		}
	}
	if alert != "" {
		p.alert = alert
	}
	return p
}

// Color is the normal color of t.
func (p Palette) Color(t design.ElementType) string {
	if !t.Valid() {
		return p.alert
	}
	return p.colors[t]
}

// Alert is the color used for failed infrastructure.
func (p Palette) Alert() string { return p.alert }

// TypeStyle is the style of t in its normal (working) state.
func (p Palette) TypeStyle(t design.ElementType) Style {
	c := p.Color(t)
	switch t {
	case design.HydrobloxRun:
		return Style{Color: c, Pattern: Solid, Width: 4, Treatment: Stroke}
	case design.ParallelRow:
		return Style{Color: c, Pattern: Dashed, Dash: []float64{4, 2}, Width: 4, Treatment: Stroke}
	case design.FlowArrow:
		return Style{Color: c, Pattern: Solid, Width: 3, Treatment: Stroke}
	case design.ExistingSwale:
		return Style{Color: c, Pattern: Dashed, Dash: []float64{6, 3}, Width: 3, Treatment: Stroke}
	case design.ExistingFrenchDrain:
		return Style{Color: c, Pattern: Dotted, Dash: []float64{2, 2}, Width: 3, Treatment: Stroke}
	case design.ExistingPipe:
		return Style{Color: c, Pattern: Solid, Width: 3, Treatment: Stroke}
	case design.StandingWater:
		return Style{Color: c, Pattern: Solid, Width: 2, Treatment: FillStroke, FillOpacity: 0.3}
	case design.ProblemArea:
		return Style{Color: c, Pattern: Dashed, Dash: []float64{4, 2}, Width: 2, Treatment: FillStroke, FillOpacity: 0.25}
	case design.TransitionBox:
		return Style{Color: c, Treatment: Icon, Icon: TransitionBoxIcon}
	case design.StormwaterBox:
		return Style{Color: c, Treatment: Icon, Icon: StormwaterBoxIcon}
	case design.Downspout:
		return Style{Color: c, Treatment: Icon, Icon: DownspoutIcon}
	}
	panic(fmt.Sprintf("render: no style for element type %d", int(t)))
}

// StyleOf is the style of f, switching failed existing infrastructure to
// the alert variant.
func (p Palette) StyleOf(f design.Feature) Style {
	s := p.TypeStyle(f.Type)
	if Alerting(f) {
		s.Color = p.alert
		if f.Type == design.Downspout {
			s.Icon = DownspoutFailedIcon
		}
	}
	return s
}

// Alerting reports whether f renders in the alert variant.
func Alerting(f design.Feature) bool {
	return f.Type.IsExisting() && f.Status == design.StatusFailed
}
