package measure

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ~111.2 km per degree of latitude on orb's earth radius.
func TestLengthFeetOneDegreeOfLatitude(t *testing.T) {
	line := orb.LineString{{-80.927, 29.0}, {-80.927, 30.0}}

	meters := LengthMeters(line)
	want := orb.EarthRadius * math.Pi / 180
	assert.InDelta(t, want, meters, 1)
	assert.Equal(t, math.Round(meters*FeetPerMeter), LengthFeet(line))
}

func TestLengthFeetDegenerate(t *testing.T) {
	tests := []struct {
		name string
		g    orb.Geometry
	}{
		{"nil", nil},
		{"empty line", orb.LineString{}},
		{"single vertex", orb.LineString{{-80.9, 29.0}}},
		{"point", orb.Point{-80.9, 29.0}},
		{"polygon", orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {0, 0}}}},
		{"nan vertex", orb.LineString{{-80.9, 29.0}, {math.NaN(), 29.1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Zero(t, LengthFeet(tt.g))
		})
	}
}

func TestLengthNeverShrinksAsVerticesAreAdded(t *testing.T) {
	pts := []orb.Point{
		{-80.9270, 29.0258},
		{-80.9265, 29.0260},
		{-80.9262, 29.0255},
		{-80.9270, 29.0250},
		{-80.9270, 29.0250}, // repeated vertex
		{-80.9280, 29.0262},
	}
	prev := 0.0
	for i := 2; i <= len(pts); i++ {
		got := LengthFeet(orb.LineString(pts[:i]))
		assert.GreaterOrEqual(t, got, prev, "after %d vertices", i)
		prev = got
	}

	// inserting a detour in the middle never shortens the path either
	base := orb.LineString{pts[0], pts[2]}
	detour := orb.LineString{pts[0], pts[1], pts[2]}
	assert.GreaterOrEqual(t, LengthFeet(detour), LengthFeet(base))
}

func TestAreaSquareFeet(t *testing.T) {
	// roughly a 30m x 30m lot
	ring := orb.Ring{
		{-80.9270, 29.0258},
		{-80.9267, 29.0258},
		{-80.9267, 29.0261},
		{-80.9270, 29.0261},
		{-80.9270, 29.0258},
	}
	area := AreaSquareFeet(orb.Polygon{ring})
	assert.Greater(t, area, 8000.0)
	assert.Less(t, area, 12000.0)

	reversed := make(orb.Ring, len(ring))
	for i := range ring {
		reversed[i] = ring[len(ring)-1-i]
	}
	assert.Equal(t, area, AreaSquareFeet(orb.Polygon{reversed}))
}

func TestAreaDegenerate(t *testing.T) {
	tests := []struct {
		name string
		g    orb.Geometry
	}{
		{"nil", nil},
		{"line", orb.LineString{{0, 0}, {1, 1}}},
		{"empty polygon", orb.Polygon{}},
		{"too few vertices", orb.Polygon{{{0, 0}, {0, 1}, {0, 0}}}},
		{"open ring", orb.Polygon{{{0, 0}, {0, 1}, {1, 1}, {1, 0}}}},
		{"collapsed ring", orb.Polygon{{{0, 0}, {0, 0}, {0, 0}, {0, 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AreaSquareFeet(tt.g)
			assert.Zero(t, got)
		})
	}
}

func TestBounds(t *testing.T) {
	b, ok := Bounds(
		orb.Point{-80.93, 29.02},
		nil,
		orb.LineString{{-80.92, 29.03}, {-80.91, 29.01}},
		orb.LineString{},
	)
	require.True(t, ok)
	assert.Equal(t, orb.Point{-80.93, 29.01}, b.Min)
	assert.Equal(t, orb.Point{-80.91, 29.03}, b.Max)

	_, ok = Bounds()
	assert.False(t, ok)
}
