package canvas

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"
	"github.com/treeshoptech/freedom-drains-pro/render"
	"github.com/treeshoptech/freedom-drains-pro/tui/shared"
)

var iconGlyphs = map[string]rune{
	render.TransitionBoxIcon:   '▣',
	render.StormwaterBoxIcon:   '◉',
	render.DownspoutIcon:       '▼',
	render.DownspoutFailedIcon: '✖',
}

const (
	fillGlyph   = '░'
	dotGlyph    = '·'
	vertexGlyph = '+'
	grabGlyph   = '◆'
	crossGlyph  = '┼'
	gridGlyph   = '·'
	gridStep    = 10
	gridKey     = "grid"
)

type cell struct {
	r     rune
	style lipgloss.Style
	key   string
}

type raster struct {
	w, h  int
	cells [][]cell
}

func newRaster(w, h int) *raster {
	r := &raster{w: w, h: h, cells: make([][]cell, h)}
	for y := range r.cells {
		r.cells[y] = make([]cell, w)
	}
	return r
}

func (r *raster) set(x, y int, ch rune, style lipgloss.Style, key string) {
	if x < 0 || y < 0 || x >= r.w || y >= r.h {
		return
	}
	r.cells[y][x] = cell{r: ch, style: style, key: key}
}

// free reports whether (x, y) holds nothing but background.
func (r *raster) free(x, y int) bool {
	if x < 0 || y < 0 || x >= r.w || y >= r.h {
		return false
	}
	c := r.cells[y][x]
	return c.r == 0 || c.key == gridKey
}

func (r *raster) text(x, y int, s string, style lipgloss.Style, key string) {
	for i, ch := range []rune(s) {
		if !r.free(x+i, y) {
			return
		}
		r.set(x+i, y, ch, style, key)
	}
}

// String renders rows, batching runs of cells that share a style.
func (r *raster) String() string {
	var b strings.Builder
	for y, row := range r.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		var run []rune
		var runStyle lipgloss.Style
		runKey := "\x00"
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runKey == "" {
				b.WriteString(string(run))
			} else {
				b.WriteString(runStyle.Render(string(run)))
			}
			run = run[:0]
		}
		for _, c := range row {
			ch := c.r
			if ch == 0 {
				ch = ' '
			}
			if c.key != runKey {
				flush()
				runKey, runStyle = c.key, c.style
			}
			run = append(run, ch)
		}
		flush()
	}
	return b.String()
}

// View draws the items, the gesture in progress and the crosshair.
func (c *Canvas) View(items []render.Item) string {
	r := newRaster(c.width, c.height)
	c.drawGrid(r)

	// polygons under lines under points
	for pass := 0; pass < 3; pass++ {
		for _, it := range items {
			if layerOf(it.Geometry) == pass {
				c.drawItem(r, it)
			}
		}
	}
	if c.ShowLabels() {
		for _, it := range items {
			c.drawLabel(r, it)
		}
	}
	c.drawPending(r)
	c.drawGrab(r)
	r.set(c.cx, c.cy, crossGlyph, shared.CrosshairStyle, "crosshair")
	return r.String()
}

func layerOf(g orb.Geometry) int {
	switch g.(type) {
	case orb.Polygon:
		return 0
	case orb.LineString:
		return 1
	default:
		return 2
	}
}

func (c *Canvas) drawGrid(r *raster) {
	for y := 0; y < r.h; y += gridStep / 2 {
		for x := 0; x < r.w; x += gridStep {
			r.set(x, y, gridGlyph, shared.CanvasBGStyle, gridKey)
		}
	}
}

func (c *Canvas) styleFor(it render.Item) (lipgloss.Style, string) {
	st := shared.ColorStyle(it.Style.Color)
	key := it.Style.Color
	if it.ID == c.selected {
		st = st.Bold(true).Reverse(true)
		key += "/sel"
	}
	return st, key
}

func (c *Canvas) drawItem(r *raster, it render.Item) {
	st, key := c.styleFor(it)
	switch g := it.Geometry.(type) {
	case orb.Point:
		x, y := c.ToCell(g)
		ch, ok := iconGlyphs[it.Style.Icon]
		if !ok {
			ch = '●'
		}
		r.set(round(x), round(y), ch, st, key)
	case orb.LineString:
		c.drawPath(r, g, it.Style, st, key)
	case orb.Polygon:
		if len(g) == 0 {
			return
		}
		if it.Style.Treatment == render.FillStroke {
			c.fill(r, g[0], st.Faint(true), key+"/fill")
		}
		c.drawPath(r, orb.LineString(g[0]), it.Style, st, key)
	}
}

func (c *Canvas) fill(r *raster, ring orb.Ring, st lipgloss.Style, key string) {
	b := ring.Bound()
	x0, y0 := c.ToCell(orb.Point{b.Min.Lon(), b.Max.Lat()})
	x1, y1 := c.ToCell(orb.Point{b.Max.Lon(), b.Min.Lat()})
	for y := max(0, int(math.Floor(y0))); y <= min(r.h-1, int(math.Ceil(y1))); y++ {
		for x := max(0, int(math.Floor(x0))); x <= min(r.w-1, int(math.Ceil(x1))); x++ {
			if c.inside(ring, [2]float64{float64(x), float64(y)}) {
				r.set(x, y, fillGlyph, st, key)
			}
		}
	}
}

func (c *Canvas) drawPath(r *raster, ls orb.LineString, style render.Style, st lipgloss.Style, key string) {
	step := 0
	for i := 1; i < len(ls); i++ {
		ax, ay := c.ToCell(ls[i-1])
		bx, by := c.ToCell(ls[i])
		dx, dy := bx-ax, by-ay
		n := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
		if n == 0 {
			n = 1
		}
		glyph := lineGlyph(dx, dy, style.Width)
		for s := 0; s <= n; s++ {
			step++
			if !visible(style.Pattern, step) {
				continue
			}
			ch := glyph
			if style.Pattern == render.Dotted {
				ch = dotGlyph
			}
			t := float64(s) / float64(n)
			r.set(round(ax+dx*t), round(ay+dy*t), ch, st, key)
		}
	}
}

func visible(p render.Pattern, step int) bool {
	switch p {
	case render.Dashed:
		return step%3 != 0
	case render.Dotted:
		return step%2 == 0
	default:
		return true
	}
}

// lineGlyph picks a box-drawing rune for the segment direction. Rows grow
// downward.
func lineGlyph(dx, dy float64, width float64) rune {
	heavy := width >= 4
	ax, ay := math.Abs(dx), math.Abs(dy)*CellAspect
	switch {
	case ay < ax*0.4:
		if heavy {
			return '━'
		}
		return '─'
	case ax < ay*0.4:
		if heavy {
			return '┃'
		}
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

func (c *Canvas) drawLabel(r *raster, it render.Item) {
	if it.Text == "" || it.Geometry == nil {
		return
	}
	var anchor orb.Point
	switch g := it.Geometry.(type) {
	case orb.Point:
		anchor = g
	case orb.LineString:
		if len(g) == 0 {
			return
		}
		anchor = g[len(g)/2]
	case orb.Polygon:
		if len(g) == 0 {
			return
		}
		anchor = g[0].Bound().Center()
	default:
		return
	}
	x, y := c.ToCell(anchor)
	st, key := c.styleFor(it)
	r.text(round(x)+2, round(y), it.Text, st, key+"/label")
}

func (c *Canvas) drawPending(r *raster) {
	if len(c.pending) == 0 {
		return
	}
	path := append(orb.LineString(nil), c.pending...)
	path = append(path, c.Pointer())
	c.drawPath(r, path, render.Style{Pattern: render.Dashed, Width: 2}, shared.PendingStyle, "pending")
	for _, p := range c.pending {
		x, y := c.ToCell(p)
		r.set(round(x), round(y), vertexGlyph, shared.PendingStyle, "pending")
	}
}

func (c *Canvas) drawGrab(r *raster) {
	vs := vertices(c.shapes[c.selected])
	if c.vertex < 0 || c.vertex >= len(vs) {
		return
	}
	x, y := c.ToCell(vs[c.vertex])
	r.set(round(x), round(y), grabGlyph, shared.PendingStyle, "grab")
}

func round(v float64) int { return int(math.Round(v)) }
