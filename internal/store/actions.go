package store

import (
	"fmt"
	"time"

	"github.com/Dias221467/teachmate/internal/models"
)

// Action is a typed state transition. Only this package can define actions.
type Action interface {
	apply(s *Store)
}

func actionName(a Action) string {
	return fmt.Sprintf("%T", a)
}

// SignedIn records the authenticated user.
type SignedIn struct{ User models.User }

func (a SignedIn) apply(s *Store) {
	u := models.NormalizeUser(a.User)
	s.raw.User = &u
}

// ProfileUpdated replaces the current user's profile.
type ProfileUpdated struct{ User models.User }

func (a ProfileUpdated) apply(s *Store) {
	u := models.NormalizeUser(a.User)
	s.raw.User = &u
}

// LanguageChanged switches the UI language.
type LanguageChanged struct{ Language string }

func (a LanguageChanged) apply(s *Store) { s.raw.Language = a.Language }

// SignedOut wipes every user-scoped field. The language survives.
type SignedOut struct{}

func (SignedOut) apply(s *Store) {
	s.raw = State{Language: s.raw.Language, Toasts: s.raw.Toasts}
	s.hiddenRequests = map[string]bool{}
	for _, o := range []interface{ Clear() }{s.notifications, s.polls, s.schedules} {
		o.Clear()
	}
}

type FriendsLoaded struct{ Friends []models.User }

func (a FriendsLoaded) apply(s *Store) { s.raw.Friends = a.Friends }

// FriendRequestsLoaded replaces incoming requests. Hidden requests that the
// backend no longer reports as pending are forgotten.
type FriendRequestsLoaded struct{ Requests []models.FriendRequest }

func (a FriendRequestsLoaded) apply(s *Store) {
	s.raw.FriendRequests = a.Requests
	pending := map[string]bool{}
	for _, r := range a.Requests {
		if r.Status == "" || r.Status == models.RequestPending {
			pending[r.ID] = true
		}
	}
	for id := range s.hiddenRequests {
		if !pending[id] {
			delete(s.hiddenRequests, id)
		}
	}
}

type ThreadsLoaded struct{ Threads []models.Thread }

func (a ThreadsLoaded) apply(s *Store) { s.raw.Threads = a.Threads }

type StrangerThreadsLoaded struct{ Threads []models.Thread }

func (a StrangerThreadsLoaded) apply(s *Store) { s.raw.StrangerThreads = a.Threads }

type GroupsLoaded struct{ Groups []models.Thread }

func (a GroupsLoaded) apply(s *Store) { s.raw.Groups = a.Groups }

type NotificationsLoaded struct{ Notifications []models.Notification }

func (a NotificationsLoaded) apply(s *Store) { s.raw.Notifications = a.Notifications }

type SchedulesLoaded struct{ Schedules []models.Schedule }

func (a SchedulesLoaded) apply(s *Store) { s.raw.Schedules = a.Schedules }

// ThreadOpened makes threadID the active conversation. Switching threads
// clears the previous thread's transcript and extras.
type ThreadOpened struct{ ThreadID string }

func (a ThreadOpened) apply(s *Store) {
	if s.raw.ActiveThreadID == a.ThreadID {
		return
	}
	s.raw.ActiveThreadID = a.ThreadID
	s.raw.ActiveThread = nil
	s.raw.Attachments = nil
	s.raw.ThreadPolls = nil
	s.raw.ThreadSchedules = nil
}

type ThreadClosed struct{}

func (ThreadClosed) apply(s *Store) { ThreadOpened{}.apply(s) }

// ThreadDetailLoaded stores the active transcript. Details of any other
// thread are ignored.
type ThreadDetailLoaded struct{ Detail models.ThreadDetail }

func (a ThreadDetailLoaded) apply(s *Store) {
	if a.Detail.Thread.ID != s.raw.ActiveThreadID {
		return
	}
	d := a.Detail
	s.raw.ActiveThread = &d
}

type AttachmentsLoaded struct {
	ThreadID    string
	Attachments []models.Attachment
}

func (a AttachmentsLoaded) apply(s *Store) {
	if a.ThreadID == s.raw.ActiveThreadID {
		s.raw.Attachments = a.Attachments
	}
}

type ThreadPollsLoaded struct {
	ThreadID string
	Polls    []models.Poll
}

func (a ThreadPollsLoaded) apply(s *Store) {
	if a.ThreadID == s.raw.ActiveThreadID {
		s.raw.ThreadPolls = a.Polls
	}
}

type ThreadSchedulesLoaded struct {
	ThreadID  string
	Schedules []models.Schedule
}

func (a ThreadSchedulesLoaded) apply(s *Store) {
	if a.ThreadID == s.raw.ActiveThreadID {
		s.raw.ThreadSchedules = a.Schedules
	}
}

// MessageDeleted removes a confirmed deletion from the active transcript.
type MessageDeleted struct {
	ThreadID  string
	MessageID string
}

func (a MessageDeleted) apply(s *Store) {
	d := s.raw.ActiveThread
	if d == nil || d.Thread.ID != a.ThreadID {
		return
	}
	kept := make([]models.Message, 0, len(d.Messages))
	for _, m := range d.Messages {
		if m.ID != a.MessageID {
			kept = append(kept, m)
		}
	}
	next := *d
	next.Messages = kept
	s.raw.ActiveThread = &next
}

// PendingChanged replaces the outbox placeholders.
type PendingChanged struct{ Messages []models.Message }

func (a PendingChanged) apply(s *Store) { s.raw.Pending = a.Messages }

// FriendRequestHidden hides a request while its accept or reject is in flight.
type FriendRequestHidden struct{ ID string }

func (a FriendRequestHidden) apply(s *Store) { s.hiddenRequests[a.ID] = true }

// FriendRequestRestored undoes FriendRequestHidden.
type FriendRequestRestored struct{ ID string }

func (a FriendRequestRestored) apply(s *Store) { delete(s.hiddenRequests, a.ID) }

// NotificationsMarkedRead flags notifications read locally until a fetch
// confirms it.
type NotificationsMarkedRead struct{ IDs []string }

func (a NotificationsMarkedRead) apply(s *Store) {
	for _, id := range a.IDs {
		s.notifications.PutPatch(id, []byte(`{"read":true}`))
	}
}

// NotificationsReadReverted rolls back NotificationsMarkedRead.
type NotificationsReadReverted struct{ IDs []string }

func (a NotificationsReadReverted) apply(s *Store) {
	for _, id := range a.IDs {
		s.notifications.Drop(id)
	}
}

// PollPatched shows Modified in place of Original until confirmed.
type PollPatched struct{ Original, Modified models.Poll }

func (a PollPatched) apply(s *Store) {
	if err := s.polls.Put(a.Original.ID, a.Original, a.Modified); err != nil {
		s.log.WithError(err).Warn("Failed to record poll change")
	}
}

type PollReverted struct{ ID string }

func (a PollReverted) apply(s *Store) { s.polls.Drop(a.ID) }

// PollConfirmed stores the backend's copy of a poll and drops local changes.
type PollConfirmed struct{ Poll models.Poll }

func (a PollConfirmed) apply(s *Store) {
	s.polls.Drop(a.Poll.ID)
	if a.Poll.ThreadID != s.raw.ActiveThreadID {
		return
	}
	s.raw.ThreadPolls = upsert(s.raw.ThreadPolls, a.Poll, func(p models.Poll) string { return p.ID })
}

// SchedulePatched shows Modified in place of Original until confirmed.
type SchedulePatched struct{ Original, Modified models.Schedule }

func (a SchedulePatched) apply(s *Store) {
	if err := s.schedules.Put(a.Original.ID, a.Original, a.Modified); err != nil {
		s.log.WithError(err).Warn("Failed to record schedule change")
	}
}

type ScheduleReverted struct{ ID string }

func (a ScheduleReverted) apply(s *Store) { s.schedules.Drop(a.ID) }

// ScheduleConfirmed stores the backend's copy of a schedule and drops local
// changes.
type ScheduleConfirmed struct{ Schedule models.Schedule }

func (a ScheduleConfirmed) apply(s *Store) {
	sc := a.Schedule
	s.schedules.Drop(sc.ID)
	key := func(x models.Schedule) string { return x.ID }
	if s.raw.User != nil && sc.HasParticipant(s.raw.User.ID) {
		s.raw.Schedules = upsert(s.raw.Schedules, sc, key)
	} else {
		s.raw.Schedules = remove(s.raw.Schedules, sc.ID, key)
	}
	if sc.ThreadID != "" && sc.ThreadID == s.raw.ActiveThreadID {
		s.raw.ThreadSchedules = upsert(s.raw.ThreadSchedules, sc, key)
	}
}

// ToastRaised shows a transient message.
type ToastRaised struct {
	Level   string
	Message string
	At      time.Time
}

func (a ToastRaised) toast() Toast {
	return Toast{Level: a.Level, Message: a.Message, At: a.At}
}

func (a ToastRaised) apply(s *Store) {
	s.raw.Toasts = append(s.raw.Toasts, a.toast())
	if n := len(s.raw.Toasts); n > maxToasts {
		s.raw.Toasts = append([]Toast(nil), s.raw.Toasts[n-maxToasts:]...)
	}
}

type ToastsCleared struct{}

func (ToastsCleared) apply(s *Store) { s.raw.Toasts = nil }

func upsert[T any](items []T, v T, key func(T) string) []T {
	out := make([]T, 0, len(items)+1)
	found := false
	for _, it := range items {
		if key(it) == key(v) {
			out = append(out, v)
			found = true
			continue
		}
		out = append(out, it)
	}
	if !found {
		out = append(out, v)
	}
	return out
}

func remove[T any](items []T, id string, key func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if key(it) != id {
			out = append(out, it)
		}
	}
	return out
}
