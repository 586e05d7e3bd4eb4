package design

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/treeshoptech/freedom-drains-pro/measure"
)

// Feature is one placed design element.
type Feature struct {
	ID       string
	Type     ElementType
	Geometry orb.Geometry

	LengthFt float64 // lines only
	AreaFt   float64 // polygons only
	Price    float64 // flat unit price, click-to-place boxes only
	Status   Status  // existing infrastructure only
}

// KindOf classifies an orb geometry into the kinds a design feature may use.
func KindOf(g orb.Geometry) GeometryKind {
	switch g.(type) {
	case orb.LineString:
		return KindLine
	case orb.Point:
		return KindPoint
	case orb.Polygon:
		return KindPolygon
	default:
		return KindNone
	}
}

func (f Feature) Kind() GeometryKind { return KindOf(f.Geometry) }

// HasLength reports whether LengthFt applies to f.
func (f Feature) HasLength() bool { return f.Kind() == KindLine }

// HasArea reports whether AreaFt applies to f.
func (f Feature) HasArea() bool { return f.Kind() == KindPolygon }

// Label is the display annotation derived from the element type.
func (f Feature) Label() string { return f.Type.Label() }

// Clone returns a copy that shares no coordinate slices with f.
func (f Feature) Clone() Feature {
	if f.Geometry != nil {
		f.Geometry = orb.Clone(f.Geometry)
	}
	return f
}

// Measured returns f with LengthFt and AreaFt recomputed from its geometry.
func (f Feature) Measured() Feature {
	f.LengthFt = 0
	f.AreaFt = 0
	switch f.Kind() {
	case KindLine:
		f.LengthFt = measure.LengthFeet(f.Geometry)
	case KindPolygon:
		f.AreaFt = measure.AreaSquareFeet(f.Geometry)
	}
	return f
}

// Validate checks that the geometry kind fits the element type.
func (f Feature) Validate() error {
	if !f.Type.Valid() {
		return fmt.Errorf("feature %q: invalid element type %d", f.ID, int(f.Type))
	}
	if got, want := f.Kind(), f.Type.Kind(); got != want {
		return fmt.Errorf("feature %q: %s needs a %s, got %s: %w", f.ID, f.Type, want, got, ErrGeometryKind)
	}
	if err := checkShape(f.Geometry); err != nil {
		return fmt.Errorf("feature %q: %w", f.ID, err)
	}
	return nil
}

// checkShape rejects lines under two points and polygons whose outer ring
// has fewer than four positions.
func checkShape(g orb.Geometry) error {
	switch g := g.(type) {
	case orb.LineString:
		if len(g) < 2 {
			return fmt.Errorf("line needs at least 2 points, got %d: %w", len(g), ErrGeometryKind)
		}
	case orb.Polygon:
		if len(g) == 0 || len(g[0]) < 4 {
			n := 0
			if len(g) > 0 {
				n = len(g[0])
			}
			return fmt.Errorf("polygon ring needs at least 4 points, got %d: %w", n, ErrGeometryKind)
		}
	}
	return nil
}

// normalized enforces the per-kind presence rules for derived and optional
// fields. Status defaults to working for existing infrastructure.
func (f Feature) normalized() Feature {
	if !f.HasLength() {
		f.LengthFt = 0
	}
	if !f.HasArea() {
		f.AreaFt = 0
	}
	if !f.Type.HasUnitPrice() {
		f.Price = 0
	}
	if f.Type.IsExisting() {
		if f.Status == StatusNone {
			f.Status = StatusWorking
		}
	} else {
		f.Status = StatusNone
	}
	return f
}
