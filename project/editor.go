// Package project owns one editing session: the design being drawn, the
// site and customer details around it, and keeping both saved.
package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/treeshoptech/freedom-drains-pro/autosave"
	"github.com/treeshoptech/freedom-drains-pro/clock"
	"github.com/treeshoptech/freedom-drains-pro/design"
	"github.com/treeshoptech/freedom-drains-pro/pricing"
	"github.com/treeshoptech/freedom-drains-pro/session"
	"github.com/treeshoptech/freedom-drains-pro/store"
	"go.uber.org/zap"
)

var ErrMissingDetails = errors.New("project name and address are required")

// SaveState is the persistence status shown to the user.
type SaveState int

const (
	Idle SaveState = iota
	Saving
	Saved
	Failed
)

func (s SaveState) String() string {
	switch s {
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

// SaveStatus is a snapshot of where the project stands against storage.
type SaveStatus struct {
	State     SaveState
	LastSaved time.Time
	Err       error
	Dirty     bool
}

// Details are the non-drawing fields of a project.
type Details struct {
	Name     string
	Address  string
	Lat      float64
	Lng      float64
	Customer store.Customer
	Notes    string
	Status   store.Status
}

// Validate checks the fields required before a project can be saved.
func (d Details) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(d.Address) == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s: %w", strings.Join(missing, " and "), ErrMissingDetails)
	}
	return nil
}

// Editor binds a drawing session to a stored project. Every edit marks the
// project dirty; once it has been saved, edits are autosaved.
type Editor struct {
	store  store.Store
	quoter *pricing.Quoter
	sess   *session.Session
	auto   *autosave.Scheduler
	clock  clock.Clock
	log    *zap.Logger

	mu        sync.Mutex
	id        string
	details   Details
	createdAt time.Time
	status    SaveStatus
	seq       uint64
	onStatus  func(SaveStatus)

	unsub func()
}

type Option func(*editorConfig)

type editorConfig struct {
	delay    time.Duration
	clock    clock.Clock
	log      *zap.Logger
	onStatus func(SaveStatus)
}

// WithAutosaveDelay overrides the quiet period before an autosave.
func WithAutosaveDelay(d time.Duration) Option {
	return func(c *editorConfig) { c.delay = d }
}

func WithClock(clk clock.Clock) Option {
	return func(c *editorConfig) { c.clock = clk }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *editorConfig) { c.log = l }
}

// OnStatus registers fn to receive save status changes. It may run on a
// background goroutine.
func OnStatus(fn func(SaveStatus)) Option {
	return func(c *editorConfig) { c.onStatus = fn }
}

func NewEditor(st store.Store, quoter *pricing.Quoter, sess *session.Session, opts ...Option) *Editor {
	cfg := editorConfig{delay: autosave.DefaultDelay, clock: clock.SystemClock{}, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.clock == nil {
		cfg.clock = clock.SystemClock{}
	}
	if cfg.log == nil {
		cfg.log = zap.NewNop()
	}

	e := &Editor{
		store:    st,
		quoter:   quoter,
		sess:     sess,
		clock:    cfg.clock,
		log:      cfg.log.Named("project"),
		details:  Details{Status: store.StatusDraft},
		onStatus: cfg.onStatus,
	}
	e.auto = autosave.New(e.save,
		autosave.WithDelay(cfg.delay),
		autosave.WithClock(cfg.clock),
		autosave.WithLogger(cfg.log),
		autosave.OnResult(e.saved))
	e.unsub = sess.Model().Subscribe(func(design.Change) { e.edited() })
	return e
}

func (e *Editor) Session() *session.Session { return e.sess }

func (e *Editor) Model() *design.Model { return e.sess.Model() }

// ID is the stored project id, empty until the first save.
func (e *Editor) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

func (e *Editor) Details() Details {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.details
}

func (e *Editor) Status() SaveStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// SetDetails replaces the project details and counts as an edit.
func (e *Editor) SetDetails(d Details) {
	if d.Status == "" {
		d.Status = store.StatusDraft
	}
	e.mu.Lock()
	e.details = d
	e.mu.Unlock()
	e.edited()
}

// Quote prices the current design.
func (e *Editor) Quote() pricing.Summary {
	return e.quoter.Quote(e.Model().Features())
}

func (e *Editor) edited() {
	e.mu.Lock()
	e.seq++
	seq := e.seq
	e.status.Dirty = true
	stored := e.id != ""
	st := e.status
	e.mu.Unlock()

	e.notify(st)
	if stored {
		e.auto.Touch(seq)
	}
}

func (e *Editor) notify(st SaveStatus) {
	if e.onStatus != nil {
		e.onStatus(st)
	}
}

func (e *Editor) setState(state SaveState, err error) SaveStatus {
	e.mu.Lock()
	e.status.State = state
	e.status.Err = err
	st := e.status
	e.mu.Unlock()
	e.notify(st)
	return st
}

// record builds the stored form of the current project.
func (e *Editor) record() (store.Project, uint64) {
	features := e.Model().Features()
	q := e.quoter.Quote(features)

	e.mu.Lock()
	defer e.mu.Unlock()
	d := e.details
	return store.Project{
		ID:        e.id,
		Name:      strings.TrimSpace(d.Name),
		Address:   strings.TrimSpace(d.Address),
		Lat:       d.Lat,
		Lng:       d.Lng,
		Design:    features,
		Customer:  d.Customer,
		Notes:     d.Notes,
		Status:    d.Status,
		Totals:    TotalsOf(q),
		CreatedAt: e.createdAt,
	}, e.seq
}

// TotalsOf extracts the stored totals from a quote.
func TotalsOf(q pricing.Summary) store.Totals {
	return store.Totals{
		HydrobloxLF:     q.HydrobloxLF,
		ParallelLF:      q.ParallelLF,
		TransitionCount: q.TransitionCount,
		StormwaterCount: q.StormwaterCount,
		TotalCost:       q.Total,
	}
}

// save is the autosave.SaveFunc. The in-memory design is never rolled back
// when it fails.
func (e *Editor) save(ctx context.Context) (uint64, error) {
	if err := e.Details().Validate(); err != nil {
		return 0, err
	}
	rec, seq := e.record()
	e.setState(Saving, nil)

	stored, err := e.store.Save(ctx, rec)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	e.id = stored.ID
	e.createdAt = stored.CreatedAt
	e.mu.Unlock()
	e.log.Debug("project saved", zap.String("id", stored.ID), zap.Uint64("seq", seq))
	return seq, nil
}

func (e *Editor) saved(res autosave.Result) {
	e.mu.Lock()
	if res.Err != nil {
		e.status.State = Failed
		e.status.Err = res.Err
	} else {
		e.status.State = Saved
		e.status.Err = nil
		e.status.LastSaved = res.At
		e.status.Dirty = e.seq > res.Revision
	}
	st := e.status
	e.mu.Unlock()
	e.notify(st)
}

// Save validates and saves immediately, cancelling any pending autosave.
func (e *Editor) Save(ctx context.Context) error {
	if err := e.Details().Validate(); err != nil {
		e.setState(Failed, err)
		return err
	}
	return e.auto.SaveNow(ctx)
}

// Open loads a stored project into the session, replacing whatever was
// being edited. It returns the design bounds for fitting the view.
func (e *Editor) Open(ctx context.Context, id string) (orb.Bound, bool, error) {
	p, err := e.store.Load(ctx, id)
	if err != nil {
		return orb.Bound{}, false, err
	}

	var (
		b      orb.Bound
		hasExt bool
		st     SaveStatus
	)
	e.auto.Replace(func() (uint64, bool) {
		b, hasExt, err = e.sess.Load(p.Design)
		if err != nil {
			return 0, false
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		e.adopt(p)
		st = e.status
		return e.seq, true
	})
	if err != nil {
		return orb.Bound{}, false, err
	}

	e.notify(st)
	e.log.Info("project opened", zap.String("id", p.ID), zap.Int("features", len(p.Design)))
	return b, hasExt, nil
}

// adopt makes p the current project. It must be called with mu held.
func (e *Editor) adopt(p store.Project) {
	e.id = p.ID
	e.createdAt = p.CreatedAt
	e.details = Details{
		Name:     p.Name,
		Address:  p.Address,
		Lat:      p.Lat,
		Lng:      p.Lng,
		Customer: p.Customer,
		Notes:    p.Notes,
		Status:   p.Status,
	}
	e.status = SaveStatus{State: Idle, LastSaved: p.UpdatedAt}
}

// New starts a blank unsaved project. A save already running for the
// previous project is allowed to finish first; pending autosaves are
// dropped, so call Save first to keep them.
func (e *Editor) New(d Details) {
	if d.Status == "" {
		d.Status = store.StatusDraft
	}
	var st SaveStatus
	e.auto.Replace(func() (uint64, bool) {
		e.sess.Clear()
		e.mu.Lock()
		defer e.mu.Unlock()
		e.id = ""
		e.createdAt = time.Time{}
		e.details = d
		e.status = SaveStatus{}
		st = e.status
		return e.seq, true
	})
	e.notify(st)
}

// Close stops autosaving and detaches from the model.
func (e *Editor) Close() {
	if e.unsub != nil {
		e.unsub()
		e.unsub = nil
	}
	e.auto.Close()
}
