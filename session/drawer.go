package session

import (
	"errors"

	"github.com/paulmach/orb"
)

// Mode is the drawing collaborator's interaction mode.
type Mode int

const (
	ModeSelect Mode = iota
	ModeDrawLine
	ModeDrawPolygon
)

func (m Mode) String() string {
	switch m {
	case ModeDrawLine:
		return "draw-line"
	case ModeDrawPolygon:
		return "draw-polygon"
	default:
		return "select"
	}
}

// ErrSameMode may be returned by Drawer.ChangeMode when the drawer is
// already in the requested mode. The session ignores it.
var ErrSameMode = errors.New("drawer already in mode")

// DrawnFeature is raw geometry as reported by the drawer.
type DrawnFeature struct {
	ID       string
	Geometry orb.Geometry
}

// Drawer is the drawing collaborator: it owns the on-screen editable
// shapes and reports gestures back to the session. Canonical feature ids
// are always handed to it, never taken from it.
type Drawer interface {
	ChangeMode(Mode) error
	Add(id string, g orb.Geometry)
	Remove(ids ...string)
	RemoveAll()
	Selected() []string
	All() []DrawnFeature
}
