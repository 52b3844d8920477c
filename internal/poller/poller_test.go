package poller

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

const tick = 20 * time.Millisecond

func counterFetch(calls *int64) FetchFunc[int] {
	return func(ctx context.Context) (int, error) {
		return int(atomic.AddInt64(calls, 1)), nil
	}
}

func TestDisabledPollerNeverFetches(t *testing.T) {
	var calls int64
	p := New(counterFetch(&calls), Options{Name: "threads", Interval: tick})
	defer p.Close()

	p.Refetch()
	time.Sleep(5 * tick)

	assert.Zero(t, atomic.LoadInt64(&calls))
	assert.False(t, p.Snapshot().HasData)
}

func TestEnableFetchesImmediatelyThenOnCadence(t *testing.T) {
	var calls int64
	p := New(counterFetch(&calls), Options{Name: "threads", Interval: time.Hour})
	defer p.Close()

	p.SetEnabled(true)

	require.Eventually(t, func() bool { return p.Snapshot().HasData }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, p.Snapshot().Data)
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))

	fast := New(counterFetch(new(int64)), Options{Name: "notifications", Interval: tick})
	defer fast.Close()
	fast.SetEnabled(true)
	require.Eventually(t, func() bool { return fast.Snapshot().Data >= 3 }, time.Second, 5*time.Millisecond)
}

func TestDisableStopsFetchingWithinOneInterval(t *testing.T) {
	var calls int64
	p := New(counterFetch(&calls), Options{Name: "notifications", Interval: tick})
	defer p.Close()

	p.SetEnabled(true)
	require.Eventually(t, func() bool { return atomic.LoadInt64(&calls) >= 2 }, time.Second, 5*time.Millisecond)

	p.SetEnabled(false)
	after := atomic.LoadInt64(&calls)
	time.Sleep(5 * tick)

	assert.Equal(t, after, atomic.LoadInt64(&calls))
	assert.False(t, p.Enabled())
}

func TestFailureKeepsPreviousSnapshot(t *testing.T) {
	var calls int64
	boom := errors.New("boom")
	fetch := func(ctx context.Context) ([]string, error) {
		if atomic.AddInt64(&calls, 1) == 1 {
			return []string{"t1"}, nil
		}
		return nil, boom
	}
	p := New(fetch, Options{Name: "threads", Interval: tick, MaxBackoff: 2 * tick})
	defer p.Close()

	p.SetEnabled(true)
	require.Eventually(t, func() bool { return p.Snapshot().Failures >= 2 }, time.Second, 5*time.Millisecond)

	snap := p.Snapshot()
	assert.True(t, snap.HasData)
	assert.Equal(t, []string{"t1"}, snap.Data)
	assert.ErrorIs(t, snap.Err, boom)
	assert.True(t, p.Enabled(), "failures must not stop polling")
}

func TestNonPositiveIntervalDoesNotSpin(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		var calls int64
		p := New(counterFetch(&calls), Options{Name: "notifications", Interval: interval})

		p.SetEnabled(true)
		time.Sleep(5 * tick)
		p.Close()

		assert.LessOrEqual(t, atomic.LoadInt64(&calls), int64(2), "interval %s", interval)
	}
}

func TestReenableStartsAtBaseCadence(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)

	var mu sync.Mutex
	var stamps []time.Time
	fetch := func(ctx context.Context) (int, error) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		if failing.Load() {
			return 0, errors.New("not found")
		}
		return 1, nil
	}
	p := New(fetch, Options{Name: "active_thread", Interval: tick, MaxBackoff: 64 * tick})
	defer p.Close()

	p.SetEnabled(true)
	require.Eventually(t, func() bool { return p.Snapshot().Failures >= 5 }, 3*time.Second, 5*time.Millisecond)
	p.SetEnabled(false)

	failing.Store(false)
	mu.Lock()
	stamps = nil
	mu.Unlock()

	p.SetEnabled(true)
	snap := p.Snapshot()
	assert.Zero(t, snap.Failures)
	assert.NoError(t, snap.Err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(stamps) >= 2
	}, 10*tick, 2*time.Millisecond, "second fetch must follow at the base interval")

	mu.Lock()
	defer mu.Unlock()
	assert.Less(t, stamps[1].Sub(stamps[0]), 8*tick)
}

func TestRefetchIsImmediate(t *testing.T) {
	var calls int64
	p := New(counterFetch(&calls), Options{Name: "friends", Interval: time.Hour})
	defer p.Close()

	p.SetEnabled(true)
	require.Eventually(t, func() bool { return p.Snapshot().Data == 1 }, time.Second, 5*time.Millisecond)

	p.Refetch()
	require.Eventually(t, func() bool { return p.Snapshot().Data == 2 }, time.Second, 5*time.Millisecond)
}

func TestOutOfOrderResponsesAreDiscarded(t *testing.T) {
	release := make(chan struct{})
	var calls int64
	fetch := func(ctx context.Context) (string, error) {
		n := atomic.AddInt64(&calls, 1)
		if n == 1 {
			return "initial", nil
		}
		if n == 2 {
			// The slow, older request.
			select {
			case <-release:
			case <-ctx.Done():
				return "", ctx.Err()
			}
			return "stale", nil
		}
		return "fresh", nil
	}
	p := New(fetch, Options{Name: "threads", Interval: time.Hour})
	defer func() {
		close(release)
		p.Close()
	}()

	p.SetEnabled(true)
	require.Eventually(t, func() bool { return p.Snapshot().Data == "initial" }, time.Second, 5*time.Millisecond)

	p.Refetch() // seq 2, blocks
	require.Eventually(t, func() bool { return atomic.LoadInt64(&calls) == 2 }, time.Second, 5*time.Millisecond)
	p.Refetch() // seq 3, returns immediately
	require.Eventually(t, func() bool { return p.Snapshot().Data == "fresh" }, time.Second, 5*time.Millisecond)

	release <- struct{}{}
	time.Sleep(3 * tick)
	assert.Equal(t, "fresh", p.Snapshot().Data)
	assert.EqualValues(t, 3, p.Snapshot().Seq)
}

func TestTeardownAbortsInFlightAndSilencesSubscribers(t *testing.T) {
	started := make(chan struct{})
	aborted := make(chan struct{})
	fetch := func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		close(aborted)
		return 42, nil
	}
	p := New(fetch, Options{Name: "attachments", Interval: time.Hour})

	var mu sync.Mutex
	var seen []int
	p.Subscribe(func(s Snapshot[int]) {
		mu.Lock()
		seen = append(seen, s.Data)
		mu.Unlock()
	})

	p.SetEnabled(true)
	<-started
	p.Close()

	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("in-flight fetch was not aborted")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, seen)
	assert.False(t, p.Snapshot().HasData)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	var calls int64
	p := New(counterFetch(&calls), Options{Name: "friends", Interval: time.Hour})
	defer p.Close()

	got := make(chan int, 4)
	unsubscribe := p.Subscribe(func(s Snapshot[int]) { got <- s.Data })

	p.SetEnabled(true)
	assert.Equal(t, 1, <-got)

	unsubscribe()
	p.Refetch()
	require.Eventually(t, func() bool { return p.Snapshot().Data == 2 }, time.Second, 5*time.Millisecond)
	assert.Len(t, got, 0)
}

func TestBackoffDelay(t *testing.T) {
	b := Backoff{Base: 4 * time.Second, Max: 30 * time.Second}

	assert.Equal(t, 4*time.Second, b.Delay(0))
	assert.Equal(t, 8*time.Second, b.Delay(1))
	assert.Equal(t, 16*time.Second, b.Delay(2))
	assert.Equal(t, 30*time.Second, b.Delay(3))
	assert.Equal(t, 30*time.Second, b.Delay(50))

	noCap := Backoff{Base: 2 * time.Second}
	assert.Equal(t, 2*time.Second, noCap.Delay(5), "max below base pins the delay to base")
}
