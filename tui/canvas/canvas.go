// Package canvas is the terminal map: a crosshair-driven viewport that plays
// the drawing surface for a session.
package canvas

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/treeshoptech/freedom-drains-pro/measure"
	"github.com/treeshoptech/freedom-drains-pro/session"
)

const (
	// CellAspect is how many columns span the height of one row.
	CellAspect = 2.0

	MinFeetPerCell = 0.5
	MaxFeetPerCell = 400.0

	// LabelMaxFeetPerCell is the coarsest scale that still shows labels.
	LabelMaxFeetPerCell = 8.0

	// hitRadius is how close, in cells, the crosshair must be to pick a shape.
	hitRadius = 1.5
)

// feetPerDegreeLat uses the same earth radius as the haversine measurements.
var feetPerDegreeLat = 6378137.0 * math.Pi / 180 * measure.FeetPerMeter

// Canvas keeps drawer state for a session. It is not safe for concurrent
// use; the bubbletea loop owns it.
type Canvas struct {
	mode     session.Mode
	shapes   map[string]orb.Geometry
	order    []string
	selected string
	vertex   int // grabbed vertex of the selection, -1 for the whole shape
	pending  []orb.Point
	drawSeq  int

	center      orb.Point
	feetPerCell float64
	width       int
	height      int
	cx, cy      int
}

func New(center orb.Point, feetPerCell float64) *Canvas {
	c := &Canvas{
		shapes:      map[string]orb.Geometry{},
		vertex:      -1,
		center:      center,
		feetPerCell: clampScale(feetPerCell),
	}
	c.SetSize(80, 24)
	return c
}

func clampScale(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 4
	}
	return math.Min(MaxFeetPerCell, math.Max(MinFeetPerCell, v))
}

// SetSize resizes the viewport and re-centers the crosshair.
func (c *Canvas) SetSize(w, h int) {
	c.width = max(w, 1)
	c.height = max(h, 1)
	c.cx, c.cy = c.width/2, c.height/2
}

func (c *Canvas) Size() (int, int) { return c.width, c.height }

// --- session.Drawer ---

func (c *Canvas) ChangeMode(m session.Mode) error {
	if m == c.mode {
		return session.ErrSameMode
	}
	switch m {
	case session.ModeSelect, session.ModeDrawLine, session.ModeDrawPolygon:
	default:
		return fmt.Errorf("unsupported mode %d", int(m))
	}
	c.mode = m
	c.pending = nil
	c.vertex = -1
	if m != session.ModeSelect {
		c.selected = ""
	}
	return nil
}

func (c *Canvas) Add(id string, g orb.Geometry) {
	if _, ok := c.shapes[id]; !ok {
		c.order = append(c.order, id)
	}
	c.shapes[id] = orb.Clone(g)
}

func (c *Canvas) Remove(ids ...string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := c.shapes[id]; ok {
			drop[id] = true
			delete(c.shapes, id)
		}
	}
	if len(drop) == 0 {
		return
	}
	kept := c.order[:0]
	for _, id := range c.order {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	c.order = kept
	if drop[c.selected] {
		c.selected = ""
		c.vertex = -1
	}
}

func (c *Canvas) RemoveAll() {
	c.shapes = map[string]orb.Geometry{}
	c.order = nil
	c.selected = ""
	c.vertex = -1
	c.pending = nil
}

func (c *Canvas) Selected() []string {
	if c.selected == "" {
		return nil
	}
	return []string{c.selected}
}

func (c *Canvas) All() []session.DrawnFeature {
	out := make([]session.DrawnFeature, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, session.DrawnFeature{ID: id, Geometry: orb.Clone(c.shapes[id])})
	}
	return out
}

// --- gestures ---

func (c *Canvas) Mode() session.Mode { return c.mode }

// Pending returns the vertices of the shape being drawn.
func (c *Canvas) Pending() []orb.Point {
	return append([]orb.Point(nil), c.pending...)
}

// AddVertex drops a vertex at the crosshair. It returns false outside the
// draw modes.
func (c *Canvas) AddVertex() bool {
	if c.mode == session.ModeSelect {
		return false
	}
	c.pending = append(c.pending, c.Pointer())
	return true
}

// Finish completes the draw gesture. Lines need two vertices, polygons
// three; the polygon ring is closed. The shape is kept under a provisional
// id until the session replaces it.
func (c *Canvas) Finish() (session.DrawnFeature, bool) {
	var g orb.Geometry
	switch c.mode {
	case session.ModeDrawLine:
		if len(c.pending) < 2 {
			return session.DrawnFeature{}, false
		}
		g = orb.LineString(c.pending)
	case session.ModeDrawPolygon:
		if len(c.pending) < 3 {
			return session.DrawnFeature{}, false
		}
		ring := append(orb.Ring(nil), c.pending...)
		ring = append(ring, c.pending[0])
		g = orb.Polygon{ring}
	default:
		return session.DrawnFeature{}, false
	}
	c.pending = nil
	c.drawSeq++
	id := fmt.Sprintf("draw-%d", c.drawSeq)
	c.Add(id, g)
	return session.DrawnFeature{ID: id, Geometry: orb.Clone(g)}, true
}

// Cancel drops an unfinished gesture.
func (c *Canvas) Cancel() bool {
	had := len(c.pending) > 0
	c.pending = nil
	return had
}

// SelectAt selects the topmost shape under the crosshair, or clears the
// selection when there is none.
func (c *Canvas) SelectAt() (string, bool) {
	id, ok := c.HitTest()
	c.selected = id
	c.vertex = -1
	return id, ok
}

// HitTest finds the topmost shape under the crosshair.
func (c *Canvas) HitTest() (string, bool) {
	best, bestDist := "", hitRadius
	cur := [2]float64{float64(c.cx), float64(c.cy)}
	for i := len(c.order) - 1; i >= 0; i-- {
		id := c.order[i]
		if d := c.distance(c.shapes[id], cur); d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, best != ""
}

// SelectNext cycles the selection through shapes in drawing order.
func (c *Canvas) SelectNext(step int) (string, bool) {
	if len(c.order) == 0 {
		c.selected = ""
		return "", false
	}
	idx := -1
	for i, id := range c.order {
		if id == c.selected {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && step < 0:
		idx = len(c.order) - 1
	case idx < 0:
		idx = 0
	default:
		idx = ((idx+step)%len(c.order) + len(c.order)) % len(c.order)
	}
	c.selected = c.order[idx]
	c.vertex = -1
	return c.selected, true
}

// vertices returns the editable vertices of g. A closed ring's repeated
// last position is left out.
func vertices(g orb.Geometry) []orb.Point {
	switch v := g.(type) {
	case orb.LineString:
		return v
	case orb.Polygon:
		if len(v) == 0 || len(v[0]) < 2 {
			return nil
		}
		return v[0][:len(v[0])-1]
	}
	return nil
}

// nearestVertex is the vertex of the selection closest to the crosshair and
// its cell distance.
func (c *Canvas) nearestVertex() (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, p := range vertices(c.shapes[c.selected]) {
		x, y := c.ToCell(p)
		if d := math.Hypot(x-float64(c.cx), y-float64(c.cy)); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// GrabVertex grabs the vertex of the selected shape under the crosshair so
// that Move reshapes instead of translating.
func (c *Canvas) GrabVertex() (int, bool) {
	i, d := c.nearestVertex()
	if i < 0 || d >= hitRadius {
		return -1, false
	}
	c.vertex = i
	return i, true
}

// NextVertex steps the grab through the selected shape's vertices. With no
// vertex grabbed it starts at the one nearest the crosshair.
func (c *Canvas) NextVertex(step int) (int, bool) {
	n := len(vertices(c.shapes[c.selected]))
	if n == 0 {
		return -1, false
	}
	if c.vertex < 0 {
		c.vertex, _ = c.nearestVertex()
	} else {
		c.vertex = ((c.vertex+step)%n + n) % n
	}
	return c.vertex, true
}

// Vertex reports the grabbed vertex.
func (c *Canvas) Vertex() (int, bool) { return c.vertex, c.vertex >= 0 }

// Release lets go of a grabbed vertex.
func (c *Canvas) Release() bool {
	had := c.vertex >= 0
	c.vertex = -1
	return had
}

// Move drags the grabbed vertex, or the whole selected shape when no vertex
// is grabbed, by whole cells and returns the new geometry for the session.
// The crosshair follows a dragged vertex.
func (c *Canvas) Move(dx, dy int) (session.DrawnFeature, bool) {
	g, ok := c.shapes[c.selected]
	if !ok || (dx == 0 && dy == 0) {
		return session.DrawnFeature{}, false
	}
	dLon := float64(dx) * c.feetPerCell / c.feetPerDegreeLon()
	dLat := -float64(dy) * c.feetPerCell * CellAspect / feetPerDegreeLat

	var moved orb.Geometry
	if c.vertex >= 0 && c.vertex < len(vertices(g)) {
		moved = moveVertex(orb.Clone(g), c.vertex, dLon, dLat)
		c.MoveCursor(dx, dy)
	} else {
		moved = translate(orb.Clone(g), dLon, dLat)
	}
	c.shapes[c.selected] = moved
	return session.DrawnFeature{ID: c.selected, Geometry: orb.Clone(moved)}, true
}

// moveVertex shifts vertex i of a line or polygon. Moving the first vertex
// of a ring keeps the ring closed.
func moveVertex(g orb.Geometry, i int, dLon, dLat float64) orb.Geometry {
	switch v := g.(type) {
	case orb.LineString:
		v[i] = orb.Point{v[i][0] + dLon, v[i][1] + dLat}
	case orb.Polygon:
		ring := v[0]
		ring[i] = orb.Point{ring[i][0] + dLon, ring[i][1] + dLat}
		if i == 0 {
			ring[len(ring)-1] = ring[0]
		}
	}
	return g
}

func translate(g orb.Geometry, dLon, dLat float64) orb.Geometry {
	shift := func(pts []orb.Point) {
		for i := range pts {
			pts[i][0] += dLon
			pts[i][1] += dLat
		}
	}
	switch v := g.(type) {
	case orb.Point:
		return orb.Point{v[0] + dLon, v[1] + dLat}
	case orb.LineString:
		shift(v)
		return v
	case orb.Polygon:
		for _, r := range v {
			shift(r)
		}
		return v
	}
	return g
}

// --- viewport ---

func (c *Canvas) Center() orb.Point { return c.center }

func (c *Canvas) FeetPerCell() float64 { return c.feetPerCell }

// ShowLabels reports whether the scale is fine enough for labels.
func (c *Canvas) ShowLabels() bool { return c.feetPerCell <= LabelMaxFeetPerCell }

func (c *Canvas) SetCenter(p orb.Point) {
	c.center = p
	c.cx, c.cy = c.width/2, c.height/2
}

// SetScale sets the zoom directly.
func (c *Canvas) SetScale(feetPerCell float64) {
	c.feetPerCell = clampScale(feetPerCell)
}

func (c *Canvas) Zoom(factor float64) {
	if factor > 0 {
		c.feetPerCell = clampScale(c.feetPerCell * factor)
	}
}

// Fit centers the view on b and picks a scale that shows all of it.
func (c *Canvas) Fit(b orb.Bound) {
	c.SetCenter(b.Center())
	wFt := (b.Max.Lon() - b.Min.Lon()) * c.feetPerDegreeLon()
	hFt := (b.Max.Lat() - b.Min.Lat()) * feetPerDegreeLat
	usableW := math.Max(float64(c.width-4), 1)
	usableH := math.Max(float64(c.height-2), 1)
	scale := math.Max(wFt/usableW, hFt/(usableH*CellAspect))
	if scale > 0 {
		c.feetPerCell = clampScale(scale)
	}
}

// Cursor returns the crosshair cell.
func (c *Canvas) Cursor() (int, int) { return c.cx, c.cy }

// MoveCursor steps the crosshair, panning when it would leave the view.
func (c *Canvas) MoveCursor(dx, dy int) {
	nx, ny := c.cx+dx, c.cy+dy
	if nx < 0 || nx >= c.width {
		c.center[0] += float64(dx) * c.feetPerCell / c.feetPerDegreeLon()
		nx = c.cx
	}
	if ny < 0 || ny >= c.height {
		c.center[1] -= float64(dy) * c.feetPerCell * CellAspect / feetPerDegreeLat
		ny = c.cy
	}
	c.cx, c.cy = nx, ny
}

// Pointer is the map position under the crosshair.
func (c *Canvas) Pointer() orb.Point {
	return c.ToPoint(c.cx, c.cy)
}

func (c *Canvas) feetPerDegreeLon() float64 {
	f := feetPerDegreeLat * math.Cos(c.center.Lat()*math.Pi/180)
	if f < 1 {
		return 1
	}
	return f
}

// ToCell projects a map position to fractional cell coordinates.
func (c *Canvas) ToCell(p orb.Point) (x, y float64) {
	x = float64(c.width/2) + (p.Lon()-c.center.Lon())*c.feetPerDegreeLon()/c.feetPerCell
	y = float64(c.height/2) - (p.Lat()-c.center.Lat())*feetPerDegreeLat/(c.feetPerCell*CellAspect)
	return x, y
}

// ToPoint is the inverse of ToCell for a whole cell.
func (c *Canvas) ToPoint(col, row int) orb.Point {
	lon := c.center.Lon() + float64(col-c.width/2)*c.feetPerCell/c.feetPerDegreeLon()
	lat := c.center.Lat() - float64(row-c.height/2)*c.feetPerCell*CellAspect/feetPerDegreeLat
	return orb.Point{lon, lat}
}

// distance is the cell distance from pt to g. Points inside a polygon are
// at distance zero.
func (c *Canvas) distance(g orb.Geometry, pt [2]float64) float64 {
	switch v := g.(type) {
	case orb.Point:
		x, y := c.ToCell(v)
		return math.Hypot(x-pt[0], y-pt[1])
	case orb.LineString:
		return c.pathDistance(v, pt)
	case orb.Polygon:
		if len(v) == 0 {
			return math.Inf(1)
		}
		if c.inside(v[0], pt) {
			return 0
		}
		return c.pathDistance(orb.LineString(v[0]), pt)
	}
	return math.Inf(1)
}

func (c *Canvas) pathDistance(ls orb.LineString, pt [2]float64) float64 {
	best := math.Inf(1)
	for i := 1; i < len(ls); i++ {
		ax, ay := c.ToCell(ls[i-1])
		bx, by := c.ToCell(ls[i])
		best = math.Min(best, segmentDistance(ax, ay, bx, by, pt[0], pt[1]))
	}
	if len(ls) == 1 {
		x, y := c.ToCell(ls[0])
		best = math.Hypot(x-pt[0], y-pt[1])
	}
	return best
}

func segmentDistance(ax, ay, bx, by, px, py float64) float64 {
	dx, dy := bx-ax, by-ay
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := math.Max(0, math.Min(1, ((px-ax)*dx+(py-ay)*dy)/l2))
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}

// inside is an even-odd ray cast in cell space.
func (c *Canvas) inside(ring orb.Ring, pt [2]float64) bool {
	in := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := c.ToCell(ring[i])
		xj, yj := c.ToCell(ring[j])
		if (yi > pt[1]) != (yj > pt[1]) && pt[0] < (xj-xi)*(pt[1]-yi)/(yj-yi)+xi {
			in = !in
		}
	}
	return in
}
