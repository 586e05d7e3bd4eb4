// Package session drives the drawing and placement state machine: it turns
// drawer gestures into feature model mutations.
package session

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/treeshoptech/freedom-drains-pro/design"
	"github.com/treeshoptech/freedom-drains-pro/measure"
	"go.uber.org/zap"
)

var (
	ErrNoDrawTool      = errors.New("no draw tool active")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrUndoUnsupported = errors.New("undo is not supported")
)

// Session owns the active tool and applies drawer events to a model. It is
// driven from a single event loop.
type Session struct {
	model  *design.Model
	drawer Drawer
	units  map[design.ElementType]float64
	log    *zap.Logger

	tool   Tool
	onTool func(Tool)
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l.Named("session")
		}
	}
}

// WithUnitPrices sets the flat price stamped on click-placed features.
func WithUnitPrices(prices map[design.ElementType]float64) Option {
	return func(s *Session) {
		s.units = make(map[design.ElementType]float64, len(prices))
		for t, p := range prices {
			s.units[t] = p
		}
	}
}

// OnToolChange registers fn to run whenever the active tool changes.
func OnToolChange(fn func(Tool)) Option {
	return func(s *Session) { s.onTool = fn }
}

func New(model *design.Model, drawer Drawer, opts ...Option) *Session {
	s := &Session{
		model:  model,
		drawer: drawer,
		units:  map[design.ElementType]float64{},
		log:    zap.NewNop(),
		tool:   Select,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Model() *design.Model { return s.model }

func (s *Session) Tool() Tool { return s.tool }

// UnitPrice is the flat price a click-placed t receives.
func (s *Session) UnitPrice(t design.ElementType) float64 { return s.units[t] }

// SelectTool makes t active and arms the matching drawer mode.
func (s *Session) SelectTool(t Tool) error {
	if !t.Valid() {
		return fmt.Errorf("select tool %d: %w", int(t), ErrUnknownTool)
	}
	s.setMode(t.Mode())
	if s.tool != t {
		s.tool = t
		s.log.Debug("tool selected", zap.Stringer("tool", t))
		if s.onTool != nil {
			s.onTool(t)
		}
	}
	return nil
}

func (s *Session) setMode(m Mode) {
	err := s.drawer.ChangeMode(m)
	switch {
	case err == nil, errors.Is(err, ErrSameMode):
	default:
		s.log.Warn("drawer mode change failed", zap.Stringer("mode", m), zap.Error(err))
	}
}

// reset returns to Select after a one-shot placement.
func (s *Session) reset() {
	_ = s.SelectTool(Select)
}

// HandleCreated materializes a finished draw gesture as a feature of the
// active tool's type. The drawer's provisional id is replaced by a
// canonical one.
func (s *Session) HandleCreated(drawn DrawnFeature) (design.Feature, error) {
	if drawn.ID != "" {
		s.drawer.Remove(drawn.ID)
	}
	if !s.tool.Draws() {
		s.log.Debug("drawn shape without draw tool", zap.String("id", drawn.ID))
		return design.Feature{}, ErrNoDrawTool
	}
	et, _ := s.tool.Element()

	f, err := s.model.Add(design.Feature{Type: et, Geometry: drawn.Geometry}.Measured())
	if err != nil {
		s.log.Warn("drawn shape rejected", zap.String("id", drawn.ID), zap.Error(err))
		return design.Feature{}, err
	}
	s.drawer.Add(f.ID, f.Geometry)
	s.log.Debug("feature drawn",
		zap.String("id", f.ID),
		zap.Stringer("type", f.Type),
		zap.Float64("length_ft", f.LengthFt),
		zap.Float64("area_ft", f.AreaFt))

	s.reset()
	return f, nil
}

// HandleClick places a point feature when a click-to-place tool is active.
// placed is false when the click is not a placement.
func (s *Session) HandleClick(pt orb.Point) (f design.Feature, placed bool, err error) {
	if !s.tool.Places() {
		return design.Feature{}, false, nil
	}
	et, _ := s.tool.Element()

	f = design.Feature{Type: et, Geometry: pt, Price: s.units[et]}
	f, err = s.model.Add(f)
	if err != nil {
		return design.Feature{}, false, err
	}
	s.drawer.Add(f.ID, f.Geometry)
	s.log.Debug("feature placed", zap.String("id", f.ID), zap.Stringer("type", et), zap.Float64("price", f.Price))

	s.reset()
	return f, true, nil
}

// HandleUpdated applies reshaped geometry from the drawer. Each feature
// keeps its id, type, status and price; only geometry and metrics change.
// Unknown ids are dropped.
func (s *Session) HandleUpdated(drawn ...DrawnFeature) []design.Feature {
	var out []design.Feature
	for _, d := range drawn {
		cur, ok := s.model.Get(d.ID)
		if !ok {
			s.log.Debug("update for unknown feature dropped", zap.String("id", d.ID))
			continue
		}
		cur.Geometry = d.Geometry
		next, err := s.model.Update(d.ID, cur.Measured())
		if err != nil {
			s.log.Warn("feature update rejected", zap.String("id", d.ID), zap.Error(err))
			continue
		}
		out = append(out, next)
	}
	return out
}

// HandleDeleted removes features the drawer reports as deleted.
func (s *Session) HandleDeleted(ids ...string) int {
	n := s.model.RemoveMany(ids...)
	if n < len(ids) {
		s.log.Debug("delete for unknown features ignored", zap.Int("requested", len(ids)), zap.Int("removed", n))
	}
	return n
}

// DeleteSelected removes the drawer's selection from both drawer and model.
func (s *Session) DeleteSelected() int {
	ids := s.drawer.Selected()
	if len(ids) == 0 {
		return 0
	}
	s.drawer.Remove(ids...)
	return s.HandleDeleted(ids...)
}

// HandleAltClick toggles the status of existing infrastructure. Other
// features are left alone.
func (s *Session) HandleAltClick(id string) (design.Status, bool) {
	f, ok := s.model.Get(id)
	if !ok || !f.Type.IsExisting() {
		return design.StatusNone, false
	}
	status, ok := s.model.ToggleStatus(id)
	if ok {
		s.log.Debug("status toggled", zap.String("id", id), zap.String("status", string(status)))
	}
	return status, ok
}

// Load replaces drawer and model contents with features and returns their
// bounds for fitting the view. ok is false when nothing has extent.
func (s *Session) Load(features []design.Feature) (b orb.Bound, ok bool, err error) {
	loaded, err := s.model.Replace(features)
	if err != nil {
		return orb.Bound{}, false, fmt.Errorf("load design: %w", err)
	}
	s.drawer.RemoveAll()
	gs := make([]orb.Geometry, 0, len(loaded))
	for _, f := range loaded {
		s.drawer.Add(f.ID, f.Geometry)
		gs = append(gs, f.Geometry)
	}
	s.reset()
	b, ok = measure.Bounds(gs...)
	return b, ok, nil
}

// Clear empties drawer and model.
func (s *Session) Clear() {
	s.drawer.RemoveAll()
	s.model.Clear()
	s.reset()
}

// Reconcile makes the drawer match the model: unknown shapes are dropped,
// lost features re-added and drifted geometry reset. It returns how many
// shapes changed.
func (s *Session) Reconcile() int {
	features := s.model.Features()
	known := make(map[string]orb.Geometry, len(features))
	for _, f := range features {
		known[f.ID] = f.Geometry
	}

	var stray []string
	present := make(map[string]bool)
	n := 0
	for _, d := range s.drawer.All() {
		g, ok := known[d.ID]
		if !ok {
			stray = append(stray, d.ID)
			continue
		}
		present[d.ID] = true
		if !orb.Equal(g, d.Geometry) {
			s.drawer.Add(d.ID, g)
			n++
		}
	}
	if len(stray) > 0 {
		s.drawer.Remove(stray...)
		n += len(stray)
	}

	for _, f := range features {
		if !present[f.ID] {
			s.drawer.Add(f.ID, f.Geometry)
			n++
		}
	}
	if n > 0 {
		s.log.Debug("drawer reconciled", zap.Int("changed", n))
	}
	return n
}

// Undo is not implemented.
func (s *Session) Undo() error {
	return ErrUndoUnsupported
}
