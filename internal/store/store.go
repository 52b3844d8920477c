// Package store holds the client's application state. It is created once per
// session and handed to every component that needs it; state changes only
// through the typed actions in actions.go.
package store

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/optimistic"
)

const maxToasts = 20

// Toast levels.
const (
	ToastSuccess = "success"
	ToastInfo    = "info"
	ToastError   = "error"
)

// Toast is a transient, user-visible message.
type Toast struct {
	Level   string
	Message string
	At      time.Time
}

// State is a read-only copy of everything the client currently knows.
type State struct {
	User     *models.User
	Language string

	Friends         []models.User
	FriendRequests  []models.FriendRequest
	Threads         []models.Thread
	StrangerThreads []models.Thread
	Groups          []models.Thread
	Notifications   []models.Notification
	Schedules       []models.Schedule

	ActiveThreadID  string
	ActiveThread    *models.ThreadDetail
	Attachments     []models.Attachment
	ThreadPolls     []models.Poll
	ThreadSchedules []models.Schedule

	// Pending holds local placeholders of messages not yet confirmed.
	Pending []models.Message

	Toasts []Toast
}

// Authenticated reports whether a user is signed in.
func (s State) Authenticated() bool { return s.User != nil }

// UnreadNotifications counts notifications not marked read.
func (s State) UnreadNotifications() int {
	n := 0
	for _, item := range s.Notifications {
		if !item.Read {
			n++
		}
	}
	return n
}

// PendingFor returns placeholders addressed to threadID.
func (s State) PendingFor(threadID string) []models.Message {
	var out []models.Message
	for _, m := range s.Pending {
		if m.ThreadID == threadID {
			out = append(out, m)
		}
	}
	return out
}

// Store is the application state container.
type Store struct {
	mu  sync.RWMutex
	raw State

	hiddenRequests map[string]bool
	notifications  *optimistic.Overlay
	polls          *optimistic.Overlay
	schedules      *optimistic.Overlay

	subMu    sync.Mutex
	subs     map[int]func(State)
	toastFns map[int]func(Toast)
	nextID   int

	log *logrus.Entry
}

// New returns an empty store for language.
func New(language string, log *logrus.Entry) *Store {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Store{
		raw:            State{Language: language},
		hiddenRequests: map[string]bool{},
		notifications:  optimistic.NewOverlay(),
		polls:          optimistic.NewOverlay(),
		schedules:      optimistic.NewOverlay(),
		subs:           map[int]func(State){},
		toastFns:       map[int]func(Toast){},
		log:            log.WithField("component", "store"),
	}
}

// Dispatch applies an action and notifies subscribers.
func (s *Store) Dispatch(a Action) {
	if t, ok := a.(ToastRaised); ok && t.At.IsZero() {
		t.At = time.Now()
		a = t
	}
	s.mu.Lock()
	a.apply(s)
	s.mu.Unlock()

	s.log.WithField("action", actionName(a)).Debug("Action applied")

	if t, ok := a.(ToastRaised); ok {
		s.emitToast(t.toast())
	}
	s.emitState(s.State())
}

// State returns a copy of the current state with optimistic changes applied.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.raw
	if s.raw.User != nil {
		u := *s.raw.User
		st.User = &u
	}
	st.Friends = cloneSlice(s.raw.Friends)
	st.Threads = cloneThreads(s.raw.Threads)
	st.StrangerThreads = cloneThreads(s.raw.StrangerThreads)
	st.Groups = cloneThreads(s.raw.Groups)
	st.Attachments = cloneSlice(s.raw.Attachments)
	st.Pending = cloneMessages(s.raw.Pending)
	st.Toasts = cloneSlice(s.raw.Toasts)
	if s.raw.ActiveThread != nil {
		st.ActiveThread = &models.ThreadDetail{
			Thread:   cloneThread(s.raw.ActiveThread.Thread),
			Messages: cloneMessages(s.raw.ActiveThread.Messages),
		}
	}

	st.FriendRequests = make([]models.FriendRequest, 0, len(s.raw.FriendRequests))
	for _, r := range s.raw.FriendRequests {
		if !s.hiddenRequests[r.ID] {
			st.FriendRequests = append(st.FriendRequests, r)
		}
	}
	st.Notifications = optimistic.ApplyAll(s.notifications, s.raw.Notifications, func(n models.Notification) string { return n.ID })
	st.ThreadPolls = optimistic.ApplyAll(s.polls, s.raw.ThreadPolls, func(p models.Poll) string { return p.ID })
	st.Schedules = optimistic.ApplyAll(s.schedules, s.raw.Schedules, func(sc models.Schedule) string { return sc.ID })
	st.ThreadSchedules = optimistic.ApplyAll(s.schedules, s.raw.ThreadSchedules, func(sc models.Schedule) string { return sc.ID })
	return st
}

// Subscribe registers fn for every state change.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// OnToast registers fn for every raised toast.
func (s *Store) OnToast(fn func(Toast)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.toastFns[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.toastFns, id)
		s.subMu.Unlock()
	}
}

func (s *Store) emitState(st State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (s *Store) emitToast(t Toast) {
	s.subMu.Lock()
	fns := make([]func(Toast), 0, len(s.toastFns))
	for _, fn := range s.toastFns {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(t)
	}
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneThread(t models.Thread) models.Thread {
	t.Members = cloneSlice(t.Members)
	if t.LastMessage != nil {
		last := *t.LastMessage
		t.LastMessage = &last
	}
	return t
}

func cloneThreads(in []models.Thread) []models.Thread {
	if in == nil {
		return nil
	}
	out := make([]models.Thread, len(in))
	for i, t := range in {
		out[i] = cloneThread(t)
	}
	return out
}

func cloneMessages(in []models.Message) []models.Message {
	if in == nil {
		return nil
	}
	out := make([]models.Message, len(in))
	for i, m := range in {
		m.Attachments = cloneSlice(m.Attachments)
		m.ReadBy = cloneSlice(m.ReadBy)
		if m.Sender != nil {
			sender := *m.Sender
			m.Sender = &sender
		}
		out[i] = m
	}
	return out
}
