// Package syncer keeps the store fresh by running one poller per resource.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/config"
	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/outbox"
	"github.com/Dias221467/teachmate/internal/poller"
	"github.com/Dias221467/teachmate/internal/store"
)

// Resource names a polled collection.
type Resource string

const (
	Notifications   Resource = "notifications"
	Friends         Resource = "friends"
	FriendRequests  Resource = "friend_requests"
	Threads         Resource = "threads"
	StrangerThreads Resource = "stranger_threads"
	Groups          Resource = "groups"
	Schedules       Resource = "schedules"
	ActiveThread    Resource = "active_thread"
	Attachments     Resource = "attachments"
	ThreadPolls     Resource = "thread_polls"
	ThreadSchedules Resource = "thread_schedules"
)

var errNoActiveThread = errors.New("no active thread")

// Source is the read side of the backend API.
type Source interface {
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	ListFriends(ctx context.Context) ([]models.User, error)
	ListFriendRequests(ctx context.Context) ([]models.FriendRequest, error)
	ListThreads(ctx context.Context) ([]models.Thread, error)
	ListStrangerThreads(ctx context.Context) ([]models.Thread, error)
	ListGroups(ctx context.Context) ([]models.Thread, error)
	ListMySchedules(ctx context.Context) ([]models.Schedule, error)
	GetThread(ctx context.Context, id string) (*models.ThreadDetail, error)
	ListAttachments(ctx context.Context, threadID string) ([]models.Attachment, error)
	ListThreadPolls(ctx context.Context, threadID string) ([]models.Poll, error)
	ListThreadSchedules(ctx context.Context, threadID string) ([]models.Schedule, error)
}

// Status summarises one poller for display.
type Status struct {
	Enabled   bool
	Loading   bool
	HasData   bool
	Err       error
	Failures  int
	UpdatedAt time.Time
}

type handle interface {
	SetEnabled(bool)
	Refetch()
	Close()
	status() Status
}

type polled[T any] struct {
	*poller.Poller[T]
}

func (p polled[T]) status() Status {
	s := p.Snapshot()
	return Status{
		Enabled:   p.Enabled(),
		Loading:   s.Loading,
		HasData:   s.HasData,
		Err:       s.Err,
		Failures:  s.Failures,
		UpdatedAt: s.UpdatedAt,
	}
}

// scoped tags a fetch result with the thread it was fetched for.
type scoped[T any] struct {
	ThreadID string
	Items    T
}

// Engine owns every poller and feeds their snapshots into the store.
type Engine struct {
	store  *store.Store
	outbox *outbox.Outbox
	log    *logrus.Entry

	handles map[Resource]handle

	// ops serialises Start, Stop and OpenThread.
	ops sync.Mutex

	mu       sync.Mutex
	activeID string
	running  bool
}

var activeResources = []Resource{ActiveThread, Attachments, ThreadPolls, ThreadSchedules}

// New builds a stopped engine.
func New(src Source, st *store.Store, ob *outbox.Outbox, cfg *config.Config, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	e := &Engine{
		store:   st,
		outbox:  ob,
		log:     log.WithField("component", "syncer"),
		handles: map[Resource]handle{},
	}
	iv := cfg.Intervals
	maxBackoff := cfg.MaxBackoff

	register(e, Notifications, iv.Notifications, maxBackoff, src.ListNotifications, func(v []models.Notification) {
		st.Dispatch(store.NotificationsLoaded{Notifications: v})
	})
	register(e, Friends, iv.Friends, maxBackoff, src.ListFriends, func(v []models.User) {
		st.Dispatch(store.FriendsLoaded{Friends: v})
	})
	register(e, FriendRequests, iv.FriendRequests, maxBackoff, src.ListFriendRequests, func(v []models.FriendRequest) {
		st.Dispatch(store.FriendRequestsLoaded{Requests: v})
	})
	register(e, Threads, iv.Threads, maxBackoff, src.ListThreads, func(v []models.Thread) {
		st.Dispatch(store.ThreadsLoaded{Threads: v})
		e.reconcileListed(v)
	})
	register(e, StrangerThreads, iv.Threads, maxBackoff, src.ListStrangerThreads, func(v []models.Thread) {
		st.Dispatch(store.StrangerThreadsLoaded{Threads: v})
		e.reconcileListed(v)
	})
	register(e, Groups, iv.Groups, maxBackoff, src.ListGroups, func(v []models.Thread) {
		st.Dispatch(store.GroupsLoaded{Groups: v})
		e.reconcileListed(v)
	})
	register(e, Schedules, iv.Schedules, maxBackoff, src.ListMySchedules, func(v []models.Schedule) {
		st.Dispatch(store.SchedulesLoaded{Schedules: v})
	})

	register(e, ActiveThread, iv.ActiveThread, maxBackoff, func(ctx context.Context) (models.ThreadDetail, error) {
		id := e.ActiveThreadID()
		if id == "" {
			return models.ThreadDetail{}, errNoActiveThread
		}
		d, err := src.GetThread(ctx, id)
		if err != nil {
			return models.ThreadDetail{}, err
		}
		return *d, nil
	}, e.applyDetail)
	register(e, Attachments, iv.Attachments, maxBackoff, scopedFetch(e, src.ListAttachments), func(v scoped[[]models.Attachment]) {
		st.Dispatch(store.AttachmentsLoaded{ThreadID: v.ThreadID, Attachments: v.Items})
	})
	register(e, ThreadPolls, iv.ThreadExtras, maxBackoff, scopedFetch(e, src.ListThreadPolls), func(v scoped[[]models.Poll]) {
		st.Dispatch(store.ThreadPollsLoaded{ThreadID: v.ThreadID, Polls: v.Items})
	})
	register(e, ThreadSchedules, iv.ThreadExtras, maxBackoff, scopedFetch(e, src.ListThreadSchedules), func(v scoped[[]models.Schedule]) {
		st.Dispatch(store.ThreadSchedulesLoaded{ThreadID: v.ThreadID, Schedules: v.Items})
	})
	return e
}

func register[T any](e *Engine, r Resource, interval, maxBackoff time.Duration, fetch func(context.Context) (T, error), apply func(T)) {
	p := poller.New(poller.FetchFunc[T](fetch), poller.Options{
		Name:       string(r),
		Interval:   interval,
		MaxBackoff: maxBackoff,
		Logger:     e.log,
	})
	p.Subscribe(func(s poller.Snapshot[T]) {
		if s.Err != nil || !s.HasData {
			return
		}
		apply(s.Data)
	})
	e.handles[r] = polled[T]{p}
}

func scopedFetch[T any](e *Engine, list func(ctx context.Context, threadID string) (T, error)) func(context.Context) (scoped[T], error) {
	return func(ctx context.Context) (scoped[T], error) {
		id := e.ActiveThreadID()
		if id == "" {
			return scoped[T]{}, errNoActiveThread
		}
		items, err := list(ctx, id)
		if err != nil {
			return scoped[T]{}, err
		}
		return scoped[T]{ThreadID: id, Items: items}, nil
	}
}

func (e *Engine) applyDetail(d models.ThreadDetail) {
	e.store.Dispatch(store.ThreadDetailLoaded{Detail: d})
	if e.outbox != nil {
		if done := e.outbox.Reconcile(d.Thread.ID, d.Messages); len(done) > 0 {
			e.log.WithField("thread_id", d.Thread.ID).WithField("count", len(done)).Debug("Reconciled pending messages")
		}
	}
}

func (e *Engine) reconcileListed(threads []models.Thread) {
	if e.outbox == nil {
		return
	}
	if done := e.outbox.ReconcileListed(threads); len(done) > 0 {
		e.log.WithField("count", len(done)).Debug("Reconciled sent messages from thread list")
	}
}

// Start enables every poller. Active-thread pollers run only while a thread
// is open.
func (e *Engine) Start() {
	e.ops.Lock()
	defer e.ops.Unlock()

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	active := e.activeID != ""
	e.mu.Unlock()

	for r, h := range e.handles {
		if isActive(r) && !active {
			continue
		}
		h.SetEnabled(true)
	}
	e.log.Info("Sync started")
}

// Stop disables every poller. It returns once no stale response can reach
// the store.
func (e *Engine) Stop() {
	e.ops.Lock()
	defer e.ops.Unlock()

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	var wg sync.WaitGroup
	for _, h := range e.handles {
		wg.Add(1)
		go func(h handle) {
			defer wg.Done()
			h.SetEnabled(false)
		}(h)
	}
	wg.Wait()
	e.log.Info("Sync stopped")
}

// Close stops the engine for good.
func (e *Engine) Close() {
	e.Stop()
	for _, h := range e.handles {
		h.Close()
	}
}

// Running reports whether Start was called without a matching Stop.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// ActiveThreadID returns the open thread, if any.
func (e *Engine) ActiveThreadID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeID
}

// OpenThread makes threadID the active thread and restarts its pollers.
// An empty id closes the active thread.
func (e *Engine) OpenThread(threadID string) {
	e.ops.Lock()
	defer e.ops.Unlock()

	e.mu.Lock()
	if e.activeID == threadID {
		e.mu.Unlock()
		return
	}
	running := e.running
	e.mu.Unlock()

	for _, r := range activeResources {
		e.handles[r].SetEnabled(false)
	}

	e.mu.Lock()
	e.activeID = threadID
	e.mu.Unlock()

	if threadID == "" {
		e.store.Dispatch(store.ThreadClosed{})
	} else {
		e.store.Dispatch(store.ThreadOpened{ThreadID: threadID})
	}

	if running && threadID != "" {
		for _, r := range activeResources {
			e.handles[r].SetEnabled(true)
		}
	}
}

// Refetch asks the named pollers to fetch now.
func (e *Engine) Refetch(resources ...Resource) {
	for _, r := range resources {
		if h, ok := e.handles[r]; ok {
			h.Refetch()
		}
	}
}

// RefetchAll asks every running poller to fetch now.
func (e *Engine) RefetchAll() {
	for _, h := range e.handles {
		h.Refetch()
	}
}

// Status reports every poller's state.
func (e *Engine) Status() map[Resource]Status {
	out := make(map[Resource]Status, len(e.handles))
	for r, h := range e.handles {
		out[r] = h.status()
	}
	return out
}

func isActive(r Resource) bool {
	for _, a := range activeResources {
		if a == r {
			return true
		}
	}
	return false
}
