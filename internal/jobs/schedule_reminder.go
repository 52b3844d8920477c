package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/store"
)

// ScheduleReminder raises one toast for each joined schedule that starts
// within the window.
type ScheduleReminder struct {
	Store  *store.Store
	Window time.Duration

	mu       sync.Mutex
	reminded map[string]time.Time
	now      func() time.Time
	log      *logrus.Entry
}

// NewScheduleReminder creates a new instance of ScheduleReminder
func NewScheduleReminder(st *store.Store, window time.Duration, log *logrus.Entry) *ScheduleReminder {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ScheduleReminder{
		Store:    st,
		Window:   window,
		reminded: map[string]time.Time{},
		now:      time.Now,
		log:      log.WithField("component", "reminder"),
	}
}

// Run scans the signed-in user's schedules once and returns how many
// reminders it raised. A schedule is reminded again only if its start time
// moves.
func (r *ScheduleReminder) Run() int {
	st := r.Store.State()
	if !st.Authenticated() {
		r.reset()
		return 0
	}

	now := r.now()
	horizon := now.Add(r.Window)

	r.mu.Lock()
	defer r.mu.Unlock()

	sent := 0
	for _, s := range st.Schedules {
		if !s.HasParticipant(st.User.ID) {
			continue
		}
		if !s.StartsAt.After(now) || s.StartsAt.After(horizon) {
			continue
		}
		if at, ok := r.reminded[s.ID]; ok && at.Equal(s.StartsAt) {
			continue
		}
		r.reminded[s.ID] = s.StartsAt
		r.Store.Dispatch(store.ToastRaised{Level: store.ToastInfo, Message: reminderText(s, now)})
		sent++
	}

	// Forget schedules that have started so the map stays small.
	for id, at := range r.reminded {
		if !at.After(now) {
			delete(r.reminded, id)
		}
	}

	if sent > 0 {
		r.log.WithField("count", sent).Info("Schedule reminders raised")
	}
	return sent
}

func (r *ScheduleReminder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reminded = map[string]time.Time{}
}

func reminderText(s models.Schedule, now time.Time) string {
	minutes := int(s.StartsAt.Sub(now).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	if s.Location != "" {
		return fmt.Sprintf("%q starts in %d min at %s", s.Title, minutes, s.Location)
	}
	return fmt.Sprintf("%q starts in %d min", s.Title, minutes)
}
