package render

import (
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/treeshoptech/freedom-drains-pro/design"
)

// Item is one feature as the map renderer should draw it.
type Item struct {
	ID       string
	Type     design.ElementType
	Geometry orb.Geometry
	Style    Style
	Label    string
	Text     string
	Alert    bool
	LengthFt float64
	AreaFt   float64
	Status   design.Status
}

// Text is the on-map annotation for f: lines carry their length, other
// kinds the bare label.
func Text(f design.Feature) string {
	if f.HasLength() {
		return fmt.Sprintf("%s %.0f'", f.Label(), f.LengthFt)
	}
	return f.Label()
}

// Item derives the render item for a single feature.
func (p Palette) Item(f design.Feature) Item {
	return Item{
		ID:       f.ID,
		Type:     f.Type,
		Geometry: f.Geometry,
		Style:    p.StyleOf(f),
		Label:    f.Label(),
		Text:     Text(f),
		Alert:    Alerting(f),
		LengthFt: f.LengthFt,
		AreaFt:   f.AreaFt,
		Status:   f.Status,
	}
}

// Project derives render items for features, keeping their order. Items
// for unknown element types are skipped.
func (p Palette) Project(features []design.Feature) []Item {
	items := make([]Item, 0, len(features))
	for _, f := range features {
		if !f.Type.Valid() {
			continue
		}
		items = append(items, p.Item(f))
	}
	return items
}

// Projector keeps a projection of a model current by subscribing to its
// change notifications.
type Projector struct {
	palette Palette

	mu    sync.RWMutex
	items []Item
	rev   uint64

	onChange func([]Item)
	cancel   func()
}

// NewProjector attaches to m and projects its current state immediately.
// onChange, if non-nil, runs after every reprojection.
func NewProjector(m *design.Model, palette Palette, onChange func([]Item)) *Projector {
	p := &Projector{palette: palette, onChange: onChange}
	p.cancel = m.Subscribe(func(design.Change) { p.refresh(m) })
	p.refresh(m)
	return p
}

func (p *Projector) refresh(m *design.Model) {
	features, rev := m.Snapshot()
	items := p.palette.Project(features)

	p.mu.Lock()
	if rev < p.rev {
		p.mu.Unlock()
		return
	}
	p.items, p.rev = items, rev
	p.mu.Unlock()

	if p.onChange != nil {
		p.onChange(items)
	}
}

// Items returns the latest projection.
func (p *Projector) Items() []Item {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.items
}

// Revision is the model revision the current projection was derived from.
func (p *Projector) Revision() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rev
}

func (p *Projector) Palette() Palette { return p.palette }

// Close detaches from the model.
func (p *Projector) Close() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
