package canvas

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treeshoptech/freedom-drains-pro/design"
	"github.com/treeshoptech/freedom-drains-pro/measure"
	"github.com/treeshoptech/freedom-drains-pro/render"
	"github.com/treeshoptech/freedom-drains-pro/session"
)

var home = orb.Point{-80.927, 29.0258}

func newCanvas() *Canvas {
	c := New(home, 4)
	c.SetSize(60, 20)
	return c
}

func TestDrawerContract(t *testing.T) {
	c := newCanvas()
	assert.ErrorIs(t, c.ChangeMode(session.ModeSelect), session.ErrSameMode)
	require.NoError(t, c.ChangeMode(session.ModeDrawLine))

	c.Add("a", orb.Point{1, 1})
	c.Add("b", orb.Point{2, 2})
	c.Add("a", orb.Point{3, 3})
	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, orb.Point{3, 3}, all[0].Geometry)

	c.Remove("a", "missing")
	assert.Len(t, c.All(), 1)
	c.RemoveAll()
	assert.Empty(t, c.All())
	assert.Nil(t, c.Selected())
}

func TestPointerRoundTrip(t *testing.T) {
	c := newCanvas()
	assert.InDelta(t, home.Lon(), c.Pointer().Lon(), 1e-12)
	assert.InDelta(t, home.Lat(), c.Pointer().Lat(), 1e-12)

	c.MoveCursor(7, -3)
	x, y := c.ToCell(c.Pointer())
	assert.InDelta(t, 37, x, 1e-6)
	assert.InDelta(t, 7, y, 1e-6)
}

func TestCellScale(t *testing.T) {
	c := newCanvas()
	a := c.ToPoint(30, 10)
	b := c.ToPoint(40, 10)
	feet := geo.DistanceHaversine(a, b) * measure.FeetPerMeter
	assert.InDelta(t, 40, feet, 0.5, "ten columns at 4 ft per cell")

	below := c.ToPoint(30, 15)
	feet = geo.DistanceHaversine(a, below) * measure.FeetPerMeter
	assert.InDelta(t, 40, feet, 0.5, "rows are twice as tall as columns are wide")
}

func TestCursorPansAtEdge(t *testing.T) {
	c := newCanvas()
	for i := 0; i < 40; i++ {
		c.MoveCursor(1, 0)
	}
	x, _ := c.Cursor()
	assert.Equal(t, 59, x)
	assert.Greater(t, c.Center().Lon(), home.Lon())
}

func TestLineGesture(t *testing.T) {
	c := newCanvas()
	require.NoError(t, c.ChangeMode(session.ModeDrawLine))

	require.True(t, c.AddVertex())
	_, ok := c.Finish()
	assert.False(t, ok, "one vertex is not a line")

	c.MoveCursor(10, 0)
	c.AddVertex()
	drawn, ok := c.Finish()
	require.True(t, ok)
	ls, isLine := drawn.Geometry.(orb.LineString)
	require.True(t, isLine)
	assert.Len(t, ls, 2)
	assert.Equal(t, "draw-1", drawn.ID)
	assert.Empty(t, c.Pending())
}

func TestPolygonGestureClosesRing(t *testing.T) {
	c := newCanvas()
	require.NoError(t, c.ChangeMode(session.ModeDrawPolygon))
	c.AddVertex()
	c.MoveCursor(5, 0)
	c.AddVertex()
	_, ok := c.Finish()
	assert.False(t, ok)

	c.MoveCursor(0, 4)
	c.AddVertex()
	drawn, ok := c.Finish()
	require.True(t, ok)
	poly := drawn.Geometry.(orb.Polygon)
	require.Len(t, poly, 1)
	assert.Len(t, poly[0], 4)
	assert.Equal(t, poly[0][0], poly[0][3])
}

func TestModeChangeDropsGesture(t *testing.T) {
	c := newCanvas()
	require.NoError(t, c.ChangeMode(session.ModeDrawLine))
	c.AddVertex()
	require.NoError(t, c.ChangeMode(session.ModeSelect))
	assert.Empty(t, c.Pending())
	assert.False(t, c.AddVertex(), "select mode has no vertices")
}

func TestSelectAtAndCycle(t *testing.T) {
	c := newCanvas()
	c.Add("line", orb.LineString{c.ToPoint(10, 5), c.ToPoint(50, 5)})
	c.Add("box", c.ToPoint(30, 15))

	c.MoveCursor(0, -5)
	id, ok := c.SelectAt()
	require.True(t, ok)
	assert.Equal(t, "line", id)
	assert.Equal(t, []string{"line"}, c.Selected())

	c.MoveCursor(0, 3)
	_, ok = c.SelectAt()
	assert.False(t, ok)
	assert.Nil(t, c.Selected())

	id, _ = c.SelectNext(1)
	assert.Equal(t, "line", id)
	id, _ = c.SelectNext(1)
	assert.Equal(t, "box", id)
	id, _ = c.SelectNext(1)
	assert.Equal(t, "line", id)
	id, _ = c.SelectNext(-1)
	assert.Equal(t, "box", id)
}

func TestHitInsidePolygon(t *testing.T) {
	c := newCanvas()
	ring := orb.Ring{c.ToPoint(20, 5), c.ToPoint(40, 5), c.ToPoint(40, 15), c.ToPoint(20, 15), c.ToPoint(20, 5)}
	c.Add("pond", orb.Polygon{ring})
	id, ok := c.HitTest()
	require.True(t, ok)
	assert.Equal(t, "pond", id)
}

func TestMoveSelected(t *testing.T) {
	c := newCanvas()
	start := c.ToPoint(30, 10)
	c.Add("box", start)
	_, ok := c.Move(1, 0)
	assert.False(t, ok, "nothing selected")

	c.SelectAt()
	moved, ok := c.Move(10, 0)
	require.True(t, ok)
	assert.Equal(t, "box", moved.ID)
	feet := geo.DistanceHaversine(start, moved.Geometry.(orb.Point)) * measure.FeetPerMeter
	assert.InDelta(t, 40, feet, 0.5)
	assert.Equal(t, moved.Geometry, c.All()[0].Geometry)
}

func TestFitShowsBounds(t *testing.T) {
	c := newCanvas()
	b := orb.Bound{Min: orb.Point{-80.930, 29.0250}, Max: orb.Point{-80.920, 29.0270}}
	c.Fit(b)
	assert.Equal(t, b.Center(), c.Center())

	x0, y0 := c.ToCell(b.Min)
	x1, y1 := c.ToCell(b.Max)
	assert.GreaterOrEqual(t, x0, 0.0)
	assert.LessOrEqual(t, x1, 60.0)
	assert.LessOrEqual(t, y0, 20.0)
	assert.GreaterOrEqual(t, y1, 0.0)
}

func TestZoomClamps(t *testing.T) {
	c := newCanvas()
	for i := 0; i < 50; i++ {
		c.Zoom(0.5)
	}
	assert.Equal(t, MinFeetPerCell, c.FeetPerCell())
	for i := 0; i < 50; i++ {
		c.Zoom(2)
	}
	assert.Equal(t, MaxFeetPerCell, c.FeetPerCell())
	assert.False(t, c.ShowLabels())
}

func TestSessionDrawsThroughCanvas(t *testing.T) {
	c := newCanvas()
	s := session.New(design.NewModel(), c)
	require.NoError(t, s.SelectTool(session.ToolFor(design.HydrobloxRun)))
	assert.Equal(t, session.ModeDrawLine, c.Mode())

	c.AddVertex()
	c.MoveCursor(25, 0)
	c.AddVertex()
	drawn, ok := c.Finish()
	require.True(t, ok)

	f, err := s.HandleCreated(drawn)
	require.NoError(t, err)
	assert.InDelta(t, 100, f.LengthFt, 1)

	all := c.All()
	require.Len(t, all, 1)
	assert.Equal(t, f.ID, all[0].ID, "provisional id is replaced")
	assert.Equal(t, session.ModeSelect, c.Mode())
}

func TestViewDrawsItems(t *testing.T) {
	c := newCanvas()
	palette := render.DefaultPalette()
	items := palette.Project([]design.Feature{
		{ID: "t", Type: design.TransitionBox, Geometry: c.ToPoint(10, 3)},
		{ID: "d", Type: design.Downspout, Geometry: c.ToPoint(12, 3), Status: design.StatusFailed},
		{ID: "r", Type: design.HydrobloxRun, Geometry: orb.LineString{c.ToPoint(5, 15), c.ToPoint(30, 15)}, LengthFt: 100},
	})

	view := c.View(items)
	lines := strings.Split(view, "\n")
	require.Len(t, lines, 20)
	assert.Contains(t, view, "▣")
	assert.Contains(t, view, "✖", "failed downspout uses the failed icon")
	assert.Contains(t, view, "━", "runs are drawn heavy")
	assert.Contains(t, view, "┼")
	assert.Contains(t, view, "HydroBlox 100'")
}

func TestViewShowsPendingGesture(t *testing.T) {
	c := newCanvas()
	require.NoError(t, c.ChangeMode(session.ModeDrawLine))
	c.MoveCursor(-10, 0)
	c.AddVertex()
	c.MoveCursor(10, 0)
	assert.Contains(t, c.View(nil), "+")
}

func TestVertexDragReshapesThroughSession(t *testing.T) {
	c := newCanvas()
	s := session.New(design.NewModel(), c)
	require.NoError(t, s.SelectTool(session.ToolFor(design.ExistingPipe)))
	c.AddVertex()
	c.MoveCursor(10, 0)
	c.AddVertex()
	drawn, ok := c.Finish()
	require.True(t, ok)
	f, err := s.HandleCreated(drawn)
	require.NoError(t, err)
	assert.InDelta(t, 40, f.LengthFt, 0.5)
	status, ok := s.HandleAltClick(f.ID)
	require.True(t, ok)
	require.Equal(t, design.StatusFailed, status)

	_, ok = c.GrabVertex()
	assert.False(t, ok, "nothing selected")

	c.SelectNext(1)
	i, ok := c.GrabVertex()
	require.True(t, ok)
	assert.Equal(t, 1, i, "the endpoint under the crosshair")
	for range 5 {
		moved, ok := c.Move(1, 0)
		require.True(t, ok)
		s.HandleUpdated(moved)
	}

	got, ok := s.Model().Get(f.ID)
	require.True(t, ok)
	assert.InDelta(t, 60, got.LengthFt, 0.5)
	assert.Equal(t, design.ExistingPipe, got.Type)
	assert.Equal(t, design.StatusFailed, got.Status)
	assert.Equal(t, f.Geometry.(orb.LineString)[0], got.Geometry.(orb.LineString)[0])

	x, y := c.ToCell(got.Geometry.(orb.LineString)[1])
	cx, cy := c.Cursor()
	assert.InDelta(t, float64(cx), x, 1e-6, "crosshair follows the vertex")
	assert.InDelta(t, float64(cy), y, 1e-6)
}

func TestVertexDragKeepsRingClosed(t *testing.T) {
	c := newCanvas()
	ring := orb.Ring{c.ToPoint(30, 10), c.ToPoint(40, 10), c.ToPoint(40, 15), c.ToPoint(30, 10)}
	c.Add("pond", orb.Polygon{ring})
	c.SelectNext(1)

	i, ok := c.NextVertex(1)
	require.True(t, ok)
	assert.Equal(t, 0, i, "starts at the vertex nearest the crosshair")

	moved, ok := c.Move(0, 2)
	require.True(t, ok)
	got := moved.Geometry.(orb.Polygon)[0]
	require.Len(t, got, 4)
	assert.Equal(t, got[0], got[3])
	assert.Equal(t, ring[1], got[1])
	assert.NotEqual(t, ring[0], got[0])

	i, _ = c.NextVertex(-1)
	assert.Equal(t, 2, i, "cycling skips the closing position")
	assert.Contains(t, c.View(nil), "◆")

	assert.True(t, c.Release())
	_, ok = c.Vertex()
	assert.False(t, ok)

	c.SelectNext(1)
	_, ok = c.NextVertex(1)
	require.True(t, ok)
	c.SelectNext(1)
	_, ok = c.Vertex()
	assert.False(t, ok, "changing the selection drops the grab")
}
