// Package measure derives lengths and areas from design geometry. All
// functions are total: degenerate or mismatched input measures zero.
package measure

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const (
	FeetPerMeter             = 3.28084
	SquareFeetPerSquareMeter = 10.7639
)

// LengthMeters sums the haversine distance between consecutive vertices of
// a line. Anything other than a line with at least two vertices is zero.
func LengthMeters(g orb.Geometry) float64 {
	ls, ok := g.(orb.LineString)
	if !ok || len(ls) < 2 || !finite(ls) {
		return 0
	}
	var total float64
	for i := 1; i < len(ls); i++ {
		total += geo.DistanceHaversine(ls[i-1], ls[i])
	}
	return total
}

// LengthFeet is LengthMeters converted to feet and rounded to a whole foot.
func LengthFeet(g orb.Geometry) float64 {
	return math.Round(LengthMeters(g) * FeetPerMeter)
}

// AreaSquareMeters returns the geodesic area of a polygon's outer ring.
// Rings must be closed with at least four vertices. Orientation does not
// matter.
func AreaSquareMeters(g orb.Geometry) float64 {
	p, ok := g.(orb.Polygon)
	if !ok || len(p) == 0 {
		return 0
	}
	ring := p[0]
	if len(ring) < 4 || !ring.Closed() || !finite(orb.LineString(ring)) {
		return 0
	}
	a := math.Abs(geo.Area(ring))
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	return a
}

// AreaSquareFeet is AreaSquareMeters converted to square feet and rounded.
func AreaSquareFeet(g orb.Geometry) float64 {
	return math.Round(AreaSquareMeters(g) * SquareFeetPerSquareMeter)
}

// Bounds returns the bounding box around every geometry given, for fitting
// the map view to a loaded design. ok is false when nothing has a finite
// extent.
func Bounds(gs ...orb.Geometry) (b orb.Bound, ok bool) {
	for _, g := range gs {
		if g == nil {
			continue
		}
		gb := g.Bound()
		if gb.IsEmpty() || !finitePoint(gb.Min) || !finitePoint(gb.Max) {
			continue
		}
		if !ok {
			b, ok = gb, true
			continue
		}
		b = b.Union(gb)
	}
	return b, ok
}

func finite(ls orb.LineString) bool {
	for _, p := range ls {
		if !finitePoint(p) {
			return false
		}
	}
	return true
}

func finitePoint(p orb.Point) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
