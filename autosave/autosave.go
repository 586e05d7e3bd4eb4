// Package autosave coalesces bursts of edits into single, serialized save
// calls.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/treeshoptech/freedom-drains-pro/clock"
	"go.uber.org/zap"
)

// DefaultDelay is the quiet period after the last edit before saving.
const DefaultDelay = 2 * time.Second

// SaveFunc persists the current document and returns the revision it
// wrote. It must honor ctx cancellation.
type SaveFunc func(ctx context.Context) (uint64, error)

// Result reports the outcome of one save attempt.
type Result struct {
	Revision uint64
	Err      error
	At       time.Time
	Manual   bool
}

// Scheduler debounces save requests. A pending save is rescheduled on every
// Touch; SaveNow flushes immediately. Saves never overlap, and a save whose
// revision is already persisted is skipped.
type Scheduler struct {
	save     SaveFunc
	delay    time.Duration
	clock    clock.Clock
	log      *zap.Logger
	onResult func(Result)

	mu           sync.Mutex
	timer        *time.Timer
	gen          uint64
	wanted       uint64
	saved        uint64
	cancel       context.CancelFunc
	cancelManual bool
	closed       bool

	saveMu sync.Mutex
	wg     sync.WaitGroup
}

type Option func(*Scheduler)

func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.delay = d
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l.Named("autosave")
		}
	}
}

// OnResult registers fn to receive every save outcome. It runs on the
// saving goroutine.
func OnResult(fn func(Result)) Option {
	return func(s *Scheduler) { s.onResult = fn }
}

func New(save SaveFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		save:  save,
		delay: DefaultDelay,
		clock: clock.SystemClock{},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Delay() time.Duration { return s.delay }

// Touch records that the document reached rev and (re)starts the quiet
// period.
func (s *Scheduler) Touch(rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if rev > s.wanted {
		s.wanted = rev
	}
	s.stopTimer()
	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
}

// stopTimer must be called with mu held. It also invalidates a timer that
// has fired but not yet taken the lock.
func (s *Scheduler) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// Pending reports whether a debounced save is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	_ = s.run(context.Background(), false)
}

// SaveNow cancels any pending debounce and any in-flight save, then saves
// synchronously.
func (s *Scheduler) SaveNow(ctx context.Context) error {
	s.mu.Lock()
	s.stopTimer()
	s.mu.Unlock()
	return s.run(ctx, true)
}

func (s *Scheduler) run(ctx context.Context, manual bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	// a debounced save never interrupts a manual one
	if s.cancel != nil && (manual || !s.cancelManual) {
		s.cancel()
	}
	s.cancel, s.cancelManual = cancel, manual
	s.mu.Unlock()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	skip := !manual && s.wanted <= s.saved
	s.mu.Unlock()
	if skip {
		s.log.Debug("save skipped, nothing new")
		return nil
	}
	if err := ctx.Err(); err != nil {
		s.log.Debug("save superseded before start")
		return err
	}

	rev, err := s.save(ctx)
	if err != nil && !manual && ctx.Err() != nil {
		s.log.Debug("save superseded", zap.Error(err))
		return err
	}

	s.mu.Lock()
	if err == nil && rev > s.saved {
		s.saved = rev
	}
	s.mu.Unlock()

	res := Result{Revision: rev, Err: err, At: s.clock.Now(), Manual: manual}
	if err != nil {
		s.log.Warn("save failed", zap.Bool("manual", manual), zap.Error(err))
	} else {
		s.log.Debug("saved", zap.Uint64("revision", rev), zap.Bool("manual", manual))
	}
	if s.onResult != nil {
		s.onResult(res)
	}
	return err
}

// Saved is the newest revision known to be persisted.
func (s *Scheduler) Saved() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// MarkSaved records rev as persisted without saving, as after a load.
func (s *Scheduler) MarkSaved(rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimer()
	s.saved = rev
	s.wanted = rev
}

// Replace swaps the document out from under the scheduler. It drops the
// pending debounce, waits for a running save to finish, and runs swap with
// saves held off. When swap reports ok, the revision it returns is marked
// persisted; otherwise the old document's pending edits are rescheduled.
func (s *Scheduler) Replace(swap func() (rev uint64, ok bool)) {
	s.mu.Lock()
	s.stopTimer()
	s.mu.Unlock()

	s.saveMu.Lock()
	rev, ok := swap()
	s.saveMu.Unlock()

	if ok {
		s.MarkSaved(rev)
		return
	}
	s.mu.Lock()
	rearm := s.wanted > s.saved
	s.mu.Unlock()
	if rearm {
		s.Touch(0)
	}
}

// Close stops the scheduler and waits for a running debounced save.
// Pending edits are not flushed; call SaveNow first to keep them.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopTimer()
	s.mu.Unlock()
	s.wg.Wait()
}
