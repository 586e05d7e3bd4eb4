package autosave

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDelay = 20 * time.Millisecond
	waitFor   = 2 * time.Second
	tick      = 5 * time.Millisecond
)

type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) add(res Result) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

func (r *recorder) all() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

func TestBurstOfEditsSavesOnce(t *testing.T) {
	var calls atomic.Int32
	var rev atomic.Uint64
	rec := &recorder{}
	s := New(func(context.Context) (uint64, error) {
		calls.Add(1)
		return rev.Load(), nil
	}, WithDelay(100*time.Millisecond), OnResult(rec.add))
	defer s.Close()

	for i := 1; i <= 10; i++ {
		rev.Store(uint64(i))
		s.Touch(uint64(i))
		time.Sleep(time.Millisecond)
	}
	assert.True(t, s.Pending())

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, waitFor, tick)
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(10), rec.all()[0].Revision)
	assert.Equal(t, uint64(10), s.Saved())
	assert.False(t, s.Pending())
}

func TestSaveNowFlushesPendingDebounce(t *testing.T) {
	var calls atomic.Int32
	s := New(func(context.Context) (uint64, error) {
		calls.Add(1)
		return 3, nil
	}, WithDelay(time.Hour))
	defer s.Close()

	s.Touch(3)
	require.True(t, s.Pending())
	require.NoError(t, s.SaveNow(context.Background()))

	assert.False(t, s.Pending())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(3), s.Saved())
}

func TestSaveNowCancelsInFlightDebouncedSave(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	rec := &recorder{}

	s := New(func(ctx context.Context) (uint64, error) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 2, nil
	}, WithDelay(testDelay), OnResult(rec.add))
	defer s.Close()

	s.Touch(1)
	<-started
	s.Touch(2)

	require.NoError(t, s.SaveNow(context.Background()))
	results := rec.all()
	require.Len(t, results, 1)
	assert.True(t, results[0].Manual)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, uint64(2), s.Saved())
}

func TestSavesNeverOverlap(t *testing.T) {
	var active, maxActive atomic.Int32
	var rev atomic.Uint64
	s := New(func(context.Context) (uint64, error) {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return rev.Load(), nil
	}, WithDelay(time.Millisecond))
	defer s.Close()

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		rev.Store(uint64(i))
		s.Touch(uint64(i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.SaveNow(context.Background())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive.Load())
}

func TestFailedSaveIsReportedAndRetried(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	rec := &recorder{}
	s := New(func(context.Context) (uint64, error) {
		if fail.Load() {
			return 0, errors.New("disk full")
		}
		return 5, nil
	}, WithDelay(testDelay), OnResult(rec.add))
	defer s.Close()

	s.Touch(5)
	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, waitFor, tick)
	assert.EqualError(t, rec.all()[0].Err, "disk full")
	assert.Zero(t, s.Saved())

	fail.Store(false)
	s.Touch(5)
	require.Eventually(t, func() bool { return len(rec.all()) == 2 }, waitFor, tick)
	assert.NoError(t, rec.all()[1].Err)
	assert.Equal(t, uint64(5), s.Saved())
}

func TestNothingNewIsSkipped(t *testing.T) {
	var calls atomic.Int32
	s := New(func(context.Context) (uint64, error) {
		calls.Add(1)
		return 4, nil
	}, WithDelay(testDelay))
	defer s.Close()

	s.MarkSaved(4)
	s.Touch(4)
	time.Sleep(4 * testDelay)
	assert.Zero(t, calls.Load())
}

func TestCloseDropsPendingSave(t *testing.T) {
	var calls atomic.Int32
	s := New(func(context.Context) (uint64, error) {
		calls.Add(1)
		return 1, nil
	}, WithDelay(testDelay))

	s.Touch(1)
	s.Close()
	s.Touch(2)
	time.Sleep(4 * testDelay)
	assert.Zero(t, calls.Load())
	assert.False(t, s.Pending())
}

func TestDefaultDelay(t *testing.T) {
	s := New(func(context.Context) (uint64, error) { return 0, nil })
	assert.Equal(t, 2*time.Second, s.Delay())
	assert.Equal(t, 2*time.Second, New(nil, WithDelay(-1)).Delay())
}

func TestReplaceWaitsForRunningSave(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	s := New(func(context.Context) (uint64, error) {
		close(entered)
		<-release
		finished.Store(true)
		return 1, nil
	}, WithDelay(testDelay))
	defer s.Close()

	s.Touch(1)
	<-entered

	swapped := make(chan bool)
	go s.Replace(func() (uint64, bool) {
		swapped <- finished.Load()
		return 7, true
	})

	select {
	case <-swapped:
		t.Fatal("swap ran while a save was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	assert.True(t, <-swapped, "swap runs after the save completes")

	require.Eventually(t, func() bool { return s.Saved() == 7 }, waitFor, tick)
	assert.False(t, s.Pending())
}

func TestReplaceFailureKeepsPendingEdits(t *testing.T) {
	var calls atomic.Int32
	s := New(func(context.Context) (uint64, error) {
		calls.Add(1)
		return 2, nil
	}, WithDelay(testDelay))
	defer s.Close()

	s.Touch(2)
	s.Replace(func() (uint64, bool) { return 0, false })

	require.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)
	assert.Equal(t, uint64(2), s.Saved())
}
