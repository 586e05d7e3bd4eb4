package design

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound     = errors.New("feature not found")
	ErrDuplicateID  = errors.New("duplicate feature id")
	ErrGeometryKind = errors.New("geometry kind mismatch")
)

// ChangeKind says what kind of mutation produced a Change.
type ChangeKind int

const (
	Added ChangeKind = iota
	Updated
	Removed
	Cleared
	Loaded
	StatusToggled
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	case Cleared:
		return "cleared"
	case Loaded:
		return "loaded"
	case StatusToggled:
		return "status"
	default:
		return fmt.Sprintf("change(%d)", int(k))
	}
}

// Change is delivered to subscribers after every mutation.
type Change struct {
	Kind     ChangeKind
	IDs      []string
	Revision uint64
}

type subscriber struct {
	id int
	fn func(Change)
}

// Model is the mutable feature collection of one editing session. It owns
// feature id allocation. All methods are safe for concurrent use; listeners
// run synchronously on the mutating goroutine after the lock is released.
type Model struct {
	mu       sync.Mutex
	features []Feature
	rev      uint64

	node *snowflake.Node

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
}

func NewModel() *Model {
	// node 1 is always within snowflake's node range
	node, _ := snowflake.NewNode(1)
	return &Model{node: node}
}

// NewID allocates an id of the form "<element-type>-<snowflake>".
func (m *Model) NewID(t ElementType) string {
	return fmt.Sprintf("%s-%s", t, m.node.Generate())
}

// Subscribe registers fn to be called after each mutation. The returned
// function removes the subscription.
func (m *Model) Subscribe(fn func(Change)) func() {
	m.subMu.Lock()
	m.nextSub++
	id := m.nextSub
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

func (m *Model) notify(c Change) {
	m.subMu.Lock()
	subs := make([]subscriber, len(m.subs))
	copy(subs, m.subs)
	m.subMu.Unlock()

	for _, s := range subs {
		s.fn(c)
	}
}

// bump must be called with mu held.
func (m *Model) bump() uint64 {
	m.rev++
	return m.rev
}

func (m *Model) indexOf(id string) int {
	for i := range m.features {
		if m.features[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends f, allocating an id when f.ID is empty.
func (m *Model) Add(f Feature) (Feature, error) {
	if f.ID == "" {
		f.ID = m.NewID(f.Type)
	}
	if err := f.Validate(); err != nil {
		return Feature{}, err
	}
	f = f.normalized().Clone()

	m.mu.Lock()
	if m.indexOf(f.ID) >= 0 {
		m.mu.Unlock()
		return Feature{}, fmt.Errorf("add %q: %w", f.ID, ErrDuplicateID)
	}
	m.features = append(m.features, f)
	rev := m.bump()
	m.mu.Unlock()

	m.notify(Change{Kind: Added, IDs: []string{f.ID}, Revision: rev})
	return f.Clone(), nil
}

// Update replaces the feature with the given id. The geometry kind of a
// feature cannot change.
func (m *Model) Update(id string, f Feature) (Feature, error) {
	f.ID = id
	if err := f.Validate(); err != nil {
		return Feature{}, err
	}
	f = f.normalized().Clone()

	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 {
		m.mu.Unlock()
		return Feature{}, fmt.Errorf("update %q: %w", id, ErrNotFound)
	}
	if old := m.features[i]; old.Kind() != f.Kind() {
		m.mu.Unlock()
		return Feature{}, fmt.Errorf("update %q: %s to %s: %w", id, old.Kind(), f.Kind(), ErrGeometryKind)
	}
	m.features[i] = f
	rev := m.bump()
	m.mu.Unlock()

	m.notify(Change{Kind: Updated, IDs: []string{id}, Revision: rev})
	return f.Clone(), nil
}

// Remove deletes the feature with the given id. Removing an absent id is a
// no-op and reports false.
func (m *Model) Remove(id string) bool {
	return m.RemoveMany(id) == 1
}

// RemoveMany deletes every listed id that is present and returns how many
// were removed. Subscribers get a single change.
func (m *Model) RemoveMany(ids ...string) int {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	m.mu.Lock()
	kept := m.features[:0:0]
	var removed []string
	for _, f := range m.features {
		if drop[f.ID] {
			removed = append(removed, f.ID)
			continue
		}
		kept = append(kept, f)
	}
	if len(removed) == 0 {
		m.mu.Unlock()
		return 0
	}
	m.features = kept
	rev := m.bump()
	m.mu.Unlock()

	m.notify(Change{Kind: Removed, IDs: removed, Revision: rev})
	return len(removed)
}

// Clear empties the collection.
func (m *Model) Clear() {
	m.mu.Lock()
	ids := make([]string, len(m.features))
	for i, f := range m.features {
		ids[i] = f.ID
	}
	m.features = nil
	rev := m.bump()
	m.mu.Unlock()

	m.notify(Change{Kind: Cleared, IDs: ids, Revision: rev})
}

// Replace swaps the whole collection, as when a saved project is opened.
// Features without ids get fresh ones. On error the model is unchanged.
func (m *Model) Replace(features []Feature) ([]Feature, error) {
	next := make([]Feature, 0, len(features))
	seen := make(map[string]bool, len(features))
	for _, f := range features {
		if f.ID == "" {
			f.ID = m.NewID(f.Type)
		}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("load %q: %w", f.ID, ErrDuplicateID)
		}
		seen[f.ID] = true
		next = append(next, f.normalized().Clone())
	}

	m.mu.Lock()
	m.features = next
	rev := m.bump()
	ids := make([]string, len(next))
	for i, f := range next {
		ids[i] = f.ID
	}
	out := cloneAll(next)
	m.mu.Unlock()

	m.notify(Change{Kind: Loaded, IDs: ids, Revision: rev})
	return out, nil
}

// ToggleStatus flips working/failed on the feature with the given id. It is
// a no-op when the id is absent or the feature carries no status.
func (m *Model) ToggleStatus(id string) (Status, bool) {
	m.mu.Lock()
	i := m.indexOf(id)
	if i < 0 || m.features[i].Status == StatusNone {
		m.mu.Unlock()
		return StatusNone, false
	}
	next := m.features[i].Status.Toggle()
	m.features[i].Status = next
	rev := m.bump()
	m.mu.Unlock()

	m.notify(Change{Kind: StatusToggled, IDs: []string{id}, Revision: rev})
	return next, true
}

// Revision increases with every mutation.
func (m *Model) Revision() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rev
}

func (m *Model) Get(id string) (Feature, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return Feature{}, false
	}
	return m.features[i].Clone(), true
}

func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.features)
}

// Features returns a copy of the collection in insertion order.
func (m *Model) Features() []Feature {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.features)
}

// Snapshot returns the collection together with the revision it reflects.
func (m *Model) Snapshot() ([]Feature, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.features), m.rev
}

// ByType returns the features of one element type.
func (m *Model) ByType(t ElementType) []Feature {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Feature
	for _, f := range m.features {
		if f.Type == t {
			out = append(out, f.Clone())
		}
	}
	return out
}

func (m *Model) CountByType(t ElementType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.features {
		if f.Type == t {
			n++
		}
	}
	return n
}

// TotalLF sums the length of every feature that has one.
func (m *Model) TotalLF() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, f := range m.features {
		if f.HasLength() && usable(f.LengthFt) {
			total += f.LengthFt
		}
	}
	return total
}

// TotalUnitPrice sums the flat price fields.
func (m *Model) TotalUnitPrice() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, f := range m.features {
		if usable(f.Price) {
			total += f.Price
		}
	}
	return total
}

func usable(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func cloneAll(fs []Feature) []Feature {
	out := make([]Feature, len(fs))
	for i, f := range fs {
		out[i] = f.Clone()
	}
	return out
}
