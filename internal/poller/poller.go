package poller

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FetchFunc loads one snapshot of a resource. It must honour ctx.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Snapshot is the latest known state of a polled resource.
type Snapshot[T any] struct {
	Data      T
	HasData   bool
	Loading   bool
	Err       error
	Seq       uint64
	UpdatedAt time.Time
	Failures  int
}

// Options configures a Poller.
type Options struct {
	Name       string
	Interval   time.Duration
	MaxBackoff time.Duration
	Logger     *logrus.Entry
}

// Poller keeps a snapshot of a resource fresh by fetching it on a fixed
// cadence while enabled. Responses are applied in dispatch order; a response
// older than the last applied one is discarded.
type Poller[T any] struct {
	name    string
	fetch   FetchFunc[T]
	backoff Backoff
	log     *logrus.Entry

	mu       sync.Mutex
	snap     Snapshot[T]
	nextSeq  uint64
	applied  uint64
	inflight int
	failures int
	enabled  bool
	closed   bool
	cancel   context.CancelFunc
	kick     chan struct{}
	gen      uint64

	// pubMu lets teardown wait for completions already past their checks.
	pubMu sync.RWMutex

	subMu   sync.Mutex
	subs    map[int]func(Snapshot[T])
	nextSub int

	loops   sync.WaitGroup
	fetches sync.WaitGroup
}

// fallbackInterval replaces a non-positive Options.Interval.
const fallbackInterval = time.Second

// New returns a disabled poller.
func New[T any](fetch FetchFunc[T], opts Options) *Poller[T] {
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Interval <= 0 {
		log.WithField("resource", opts.Name).Warnf("Non-positive interval %s, using %s", opts.Interval, fallbackInterval)
		opts.Interval = fallbackInterval
	}
	return &Poller[T]{
		name:    opts.Name,
		fetch:   fetch,
		backoff: Backoff{Base: opts.Interval, Max: opts.MaxBackoff},
		log:     log.WithField("resource", opts.Name),
		subs:    map[int]func(Snapshot[T]){},
	}
}

// Name returns the resource name.
func (p *Poller[T]) Name() string { return p.name }

// Snapshot returns the current snapshot.
func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Enabled reports whether the poller is running.
func (p *Poller[T]) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// Subscribe registers fn for every applied snapshot change.
func (p *Poller[T]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
	p.subMu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.subMu.Unlock()

	return func() {
		p.subMu.Lock()
		delete(p.subs, id)
		p.subMu.Unlock()
	}
}

// SetEnabled starts or stops polling. Enabling fetches immediately.
// Disabling returns once no further fetch can be dispatched, aborts the ones
// in flight, and guarantees no subscriber runs afterwards. Subscribers must
// not call SetEnabled or Close themselves.
func (p *Poller[T]) SetEnabled(enabled bool) {
	p.mu.Lock()
	if p.closed || p.enabled == enabled {
		p.mu.Unlock()
		return
	}
	p.enabled = enabled

	if enabled {
		// Backoff belongs to the previous run; a fresh run starts at the base cadence.
		p.failures = 0
		p.snap.Err = nil
		p.snap.Failures = 0
		ctx, cancel := context.WithCancel(context.Background())
		p.cancel = cancel
		p.kick = make(chan struct{}, 1)
		p.gen++
		p.loops.Add(1)
		go p.loop(ctx, p.kick, p.gen)
		p.mu.Unlock()
		p.log.Debug("Polling enabled")
		return
	}

	cancel := p.cancel
	p.cancel = nil
	p.kick = nil
	p.inflight = 0
	p.snap.Loading = false
	p.mu.Unlock()

	cancel()
	p.loops.Wait()
	p.pubMu.Lock()
	p.pubMu.Unlock()
	p.log.Debug("Polling disabled")
}

// Refetch dispatches one fetch now and restarts the cadence from it.
// It is a no-op while disabled.
func (p *Poller[T]) Refetch() {
	p.mu.Lock()
	kick := p.kick
	p.mu.Unlock()
	if kick == nil {
		return
	}
	select {
	case kick <- struct{}{}:
	default:
	}
}

// Close disables the poller, waits for in-flight fetches to return and drops
// all subscribers.
func (p *Poller[T]) Close() {
	p.SetEnabled(false)
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.fetches.Wait()

	p.subMu.Lock()
	p.subs = map[int]func(Snapshot[T]){}
	p.subMu.Unlock()
}

func (p *Poller[T]) loop(ctx context.Context, kick <-chan struct{}, gen uint64) {
	defer p.loops.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}

		if ctx.Err() != nil {
			return
		}
		delay := p.dispatch(ctx, gen)
		timer.Reset(delay)
	}
}

// dispatch starts one fetch and returns the delay until the next one.
func (p *Poller[T]) dispatch(ctx context.Context, gen uint64) time.Duration {
	p.mu.Lock()
	p.nextSeq++
	seq := p.nextSeq
	p.inflight++
	p.snap.Loading = true
	delay := p.backoff.Delay(p.failures)
	p.fetches.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.fetches.Done()
		data, err := p.fetch(ctx)
		p.complete(ctx, gen, seq, data, err)
	}()
	return delay
}

func (p *Poller[T]) complete(ctx context.Context, gen, seq uint64, data T, err error) {
	p.pubMu.RLock()
	defer p.pubMu.RUnlock()

	p.mu.Lock()
	if ctx.Err() != nil || gen != p.gen || !p.enabled {
		p.mu.Unlock()
		return
	}
	p.inflight--
	p.snap.Loading = p.inflight > 0

	if seq <= p.applied {
		p.mu.Unlock()
		p.log.WithField("seq", seq).Debug("Discarding out-of-order response")
		return
	}

	if err != nil {
		p.failures++
		p.snap.Err = err
		p.snap.Failures = p.failures
		failures := p.failures
		snap := p.snap
		p.mu.Unlock()

		p.log.WithError(err).WithField("failures", failures).Warn("Fetch failed, keeping previous snapshot")
		p.publish(snap)
		return
	}

	p.applied = seq
	p.failures = 0
	p.snap.Data = data
	p.snap.HasData = true
	p.snap.Err = nil
	p.snap.Failures = 0
	p.snap.Seq = seq
	p.snap.UpdatedAt = time.Now()
	snap := p.snap
	p.mu.Unlock()

	p.publish(snap)
}

func (p *Poller[T]) publish(snap Snapshot[T]) {
	p.subMu.Lock()
	fns := make([]func(Snapshot[T]), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
