package project

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/treeshoptech/freedom-drains-pro/clock"
	"github.com/treeshoptech/freedom-drains-pro/design"
	"github.com/treeshoptech/freedom-drains-pro/pricing"
	"github.com/treeshoptech/freedom-drains-pro/session"
	"github.com/treeshoptech/freedom-drains-pro/store"
)

type nopDrawer struct{}

func (nopDrawer) ChangeMode(session.Mode) error { return nil }
func (nopDrawer) Add(string, orb.Geometry) {}
func (nopDrawer) Remove(...string) {}
func (nopDrawer) RemoveAll() {}
func (nopDrawer) Selected() []string { return nil }
func (nopDrawer) All() []session.DrawnFeature { return nil }

type failingStore struct {
	store.Store
	err error
}

func (f failingStore) Save(context.Context, store.Project) (store.Project, error) {
	return store.Project{}, f.err
}

// blockingStore holds saves until release is closed once block is set.
type blockingStore struct {
	*store.SQLite
	block   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Save(ctx context.Context, p store.Project) (store.Project, error) {
	if b.block.Load() {
		select {
		case b.entered <- struct{}{}:
		default:
		}
		<-b.release
	}
	return b.SQLite.Save(ctx, p)
}

var (
	now  = time.Date(2026, time.May, 4, 15, 0, 0, 0, time.UTC)
	line = orb.LineString{{-80.9270, 29.0258}, {-80.9260, 29.0258}}
)

type statusLog struct {
	mu   sync.Mutex
	seen []SaveStatus
}

func (l *statusLog) add(s SaveStatus) {
	l.mu.Lock()
	l.seen = append(l.seen, s)
	l.mu.Unlock()
}

func (l *statusLog) last() SaveStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.seen) == 0 {
		return SaveStatus{}
	}
	return l.seen[len(l.seen)-1]
}

func newEditor(t *testing.T, st store.Store, opts ...Option) *Editor {
	t.Helper()
	clk := clock.NewFixed(now)
	sess := session.New(design.NewModel(), nopDrawer{})
	q := pricing.NewQuoter(pricing.Policy{Regular: pricing.DefaultRegularRates()}, clk)
	e := NewEditor(st, q, sess, append([]Option{WithClock(clk), WithAutosaveDelay(20 * time.Millisecond)}, opts...)...)
	t.Cleanup(e.Close)
	return e
}

func openStore(t *testing.T) *store.SQLite {
	t.Helper()
	st, err := store.Open(context.Background(), ":memory:", store.WithClock(clock.NewFixed(now)))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func drawRun(t *testing.T, e *Editor) design.Feature {
	t.Helper()
	require.NoError(t, e.Session().SelectTool(session.ToolFor(design.HydrobloxRun)))
	f, err := e.Session().HandleCreated(session.DrawnFeature{Geometry: line})
	require.NoError(t, err)
	return f
}

func TestSaveRequiresNameAndAddress(t *testing.T) {
	e := newEditor(t, openStore(t))
	drawRun(t, e)

	err := e.Save(context.Background())
	require.ErrorIs(t, err, ErrMissingDetails)
	assert.EqualError(t, err, "missing name and address: project name and address are required")
	assert.Equal(t, Failed, e.Status().State)
	assert.True(t, e.Status().Dirty)
	assert.Empty(t, e.ID())
	assert.Equal(t, 1, e.Model().Len(), "failed save keeps the design")

	e.SetDetails(Details{Name: "Lot 7", Address: "   "})
	assert.ErrorIs(t, e.Save(context.Background()), ErrMissingDetails)
}

func TestManualSaveStoresDesignAndTotals(t *testing.T) {
	st := openStore(t)
	e := newEditor(t, st)
	run := drawRun(t, e)
	e.SetDetails(Details{Name: "Lot 7", Address: "7 Canal St", Lat: 29.02, Lng: -80.92})

	require.NoError(t, e.Save(context.Background()))
	require.NotEmpty(t, e.ID())
	status := e.Status()
	assert.Equal(t, Saved, status.State)
	assert.False(t, status.Dirty)
	assert.Equal(t, now, status.LastSaved)

	p, err := st.Load(context.Background(), e.ID())
	require.NoError(t, err)
	assert.Equal(t, "Lot 7", p.Name)
	assert.Equal(t, store.StatusDraft, p.Status)
	require.Len(t, p.Design, 1)
	assert.Equal(t, run.ID, p.Design[0].ID)
	assert.Equal(t, run.LengthFt, p.Totals.HydrobloxLF)
	assert.Equal(t, e.Quote().Total, p.Totals.TotalCost)
	assert.Positive(t, p.Totals.TotalCost)
}

func TestEditsAfterFirstSaveAutosave(t *testing.T) {
	st := openStore(t)
	log := &statusLog{}
	e := newEditor(t, st, OnStatus(log.add))
	e.SetDetails(Details{Name: "Lot 7", Address: "7 Canal St"})
	require.NoError(t, e.Save(context.Background()))

	drawRun(t, e)
	drawRun(t, e)
	assert.True(t, e.Status().Dirty)

	require.Eventually(t, func() bool {
		s := log.last()
		return s.State == Saved && !s.Dirty
	}, 2*time.Second, 5*time.Millisecond)

	p, err := st.Load(context.Background(), e.ID())
	require.NoError(t, err)
	assert.Len(t, p.Design, 2)
}

func TestUnsavedProjectDoesNotAutosave(t *testing.T) {
	st := openStore(t)
	e := newEditor(t, st)
	e.SetDetails(Details{Name: "Lot 7", Address: "7 Canal St"})
	drawRun(t, e)

	time.Sleep(100 * time.Millisecond)
	list, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, Idle, e.Status().State)
}

func TestSaveFailureKeepsEdits(t *testing.T) {
	boom := errors.New("disk unavailable")
	e := newEditor(t, failingStore{err: boom})
	drawRun(t, e)
	e.SetDetails(Details{Name: "Lot 7", Address: "7 Canal St"})

	err := e.Save(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, Failed, e.Status().State)
	assert.ErrorIs(t, e.Status().Err, boom)
	assert.True(t, e.Status().Dirty)
	assert.Equal(t, 1, e.Model().Len())
}

func TestOpenReplacesSession(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	saved, err := st.Save(ctx, store.Project{
		Name:    "Riverside",
		Address: "1 River Rd",
		Design: []design.Feature{
			{ID: "a", Type: design.ExistingPipe, Geometry: line, LengthFt: 318, Status: design.StatusFailed},
		},
		Status: store.StatusQuoted,
	})
	require.NoError(t, err)

	e := newEditor(t, st)
	drawRun(t, e)

	b, ok, err := e.Open(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, -80.926, b.Max.Lon(), 1e-9)

	assert.Equal(t, saved.ID, e.ID())
	assert.Equal(t, "Riverside", e.Details().Name)
	assert.Equal(t, store.StatusQuoted, e.Details().Status)
	assert.False(t, e.Status().Dirty)
	require.Equal(t, 1, e.Model().Len())
	f, _ := e.Model().Get("a")
	assert.Equal(t, design.StatusFailed, f.Status)

	_, _, err = e.Open(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, saved.ID, e.ID())
}

func TestNewStartsBlank(t *testing.T) {
	st := openStore(t)
	e := newEditor(t, st)
	e.SetDetails(Details{Name: "Lot 7", Address: "7 Canal St"})
	drawRun(t, e)
	require.NoError(t, e.Save(context.Background()))

	e.New(Details{Name: "Lot 8"})
	assert.Empty(t, e.ID())
	assert.Zero(t, e.Model().Len())
	assert.Equal(t, "Lot 8", e.Details().Name)
	assert.Equal(t, store.StatusDraft, e.Details().Status)
	assert.False(t, e.Status().Dirty)
}

func TestDetailsValidate(t *testing.T) {
	assert.NoError(t, Details{Name: "a", Address: "b"}.Validate())
	assert.ErrorContains(t, Details{Address: "b"}.Validate(), "missing name")
	assert.ErrorContains(t, Details{Name: "a"}.Validate(), "missing address")
}

func TestNewWaitsForInFlightAutosave(t *testing.T) {
	ctx := context.Background()
	st := &blockingStore{SQLite: openStore(t), entered: make(chan struct{}, 1), release: make(chan struct{})}
	e := newEditor(t, st)
	e.SetDetails(Details{Name: "Old", Address: "1 Old Rd"})
	drawRun(t, e)
	drawRun(t, e)
	require.NoError(t, e.Save(ctx))
	oldID := e.ID()

	st.block.Store(true)
	drawRun(t, e)
	select {
	case <-st.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("autosave never started")
	}

	done := make(chan struct{})
	go func() {
		e.New(Details{Name: "Fresh", Address: "2 New Rd"})
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("New returned while a save was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	close(st.release)
	<-done

	assert.Empty(t, e.ID())
	assert.Equal(t, "Fresh", e.Details().Name)
	assert.Zero(t, e.Model().Len())

	drawRun(t, e)
	require.NoError(t, e.Save(ctx))
	assert.NotEqual(t, oldID, e.ID())

	old, err := st.Load(ctx, oldID)
	require.NoError(t, err)
	assert.Equal(t, "Old", old.Name)
	assert.Len(t, old.Design, 3)

	fresh, err := st.Load(ctx, e.ID())
	require.NoError(t, err)
	assert.Equal(t, "Fresh", fresh.Name)
	assert.Len(t, fresh.Design, 1)
}
