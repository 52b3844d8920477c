package devserver

import (
	"sort"
	"strings"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/push"
)

func copySchedule(s *models.Schedule) models.Schedule {
	out := *s
	out.Participants = append([]string{}, s.Participants...)
	return out
}

func sortSchedules(list []models.Schedule) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].StartsAt.Equal(list[j].StartsAt) {
			return list[i].StartsAt.Before(list[j].StartsAt)
		}
		return list[i].ID < list[j].ID
	})
}

// CreateSchedule adds a study session. The creator joins it automatically.
func (b *Backend) CreateSchedule(creatorID string, in models.CreateScheduleInput) (models.Schedule, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Schedule{}, invalid("Title is required")
	}
	if in.StartsAt.IsZero() || in.EndsAt.IsZero() {
		return models.Schedule{}, invalid("Start and end times are required")
	}
	if !in.EndsAt.After(in.StartsAt) {
		return models.Schedule{}, invalid("End time must be after start time")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	audience := []string{creatorID}
	var t *thread
	if in.ThreadID != "" {
		var err error
		if t, err = b.memberThread(creatorID, in.ThreadID); err != nil {
			return models.Schedule{}, err
		}
		audience = t.members
	}

	s := &models.Schedule{
		ID:           newID(),
		ThreadID:     in.ThreadID,
		CreatorID:    creatorID,
		Title:        title,
		Description:  in.Description,
		Location:     in.Location,
		StartsAt:     in.StartsAt.UTC(),
		EndsAt:       in.EndsAt.UTC(),
		Participants: []string{creatorID},
		CreatedAt:    b.now(),
	}
	b.schedules[s.ID] = s

	if t != nil {
		creator := b.publicUser(creatorID)
		for _, m := range t.members {
			if m != creatorID {
				b.notify(m, models.Notification{
					Type:     models.NotifySchedule,
					Title:    creator.Username + " scheduled " + title,
					TargetID: s.ID,
				})
			}
		}
	}
	b.publisher.Publish(audience, push.Event{Type: push.ScheduleUpdated, ThreadID: s.ThreadID, TargetID: s.ID})
	return copySchedule(s), nil
}

// canSee reports whether viewerID may read s: participants, members of its
// thread, and anyone for schedules outside a thread.
func (b *Backend) canSee(viewerID string, s *models.Schedule) bool {
	if s.ThreadID == "" || s.HasParticipant(viewerID) {
		return true
	}
	t, ok := b.threads[s.ThreadID]
	return ok && t.hasMember(viewerID)
}

func (b *Backend) GetSchedule(viewerID, id string) (models.Schedule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.schedules[id]
	if !ok || !b.canSee(viewerID, s) {
		return models.Schedule{}, ErrNotFound
	}
	return copySchedule(s), nil
}

func (b *Backend) JoinSchedule(userID, id string) (models.Schedule, error) {
	return b.changeParticipation(userID, id, true)
}

func (b *Backend) LeaveSchedule(userID, id string) (models.Schedule, error) {
	return b.changeParticipation(userID, id, false)
}

func (b *Backend) changeParticipation(userID, id string, join bool) (models.Schedule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.schedules[id]
	if !ok || !b.canSee(userID, s) {
		return models.Schedule{}, ErrNotFound
	}
	s.Participants = without(s.Participants, userID)
	if join {
		s.Participants = append(s.Participants, userID)
	}

	audience := append([]string{userID}, s.Participants...)
	if t, ok := b.threads[s.ThreadID]; ok {
		audience = append(audience, t.members...)
	}
	b.publisher.Publish(audience, push.Event{Type: push.ScheduleUpdated, ThreadID: s.ThreadID, TargetID: s.ID})
	return copySchedule(s), nil
}

// MySchedules lists schedules userID participates in, soonest first.
func (b *Backend) MySchedules(userID string) []models.Schedule {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := []models.Schedule{}
	for _, s := range b.schedules {
		if s.HasParticipant(userID) {
			out = append(out, copySchedule(s))
		}
	}
	sortSchedules(out)
	return out
}

func (b *Backend) ThreadSchedules(viewerID, threadID string) ([]models.Schedule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.memberThread(viewerID, threadID); err != nil {
		return nil, err
	}
	out := []models.Schedule{}
	for _, s := range b.schedules {
		if s.ThreadID == threadID {
			out = append(out, copySchedule(s))
		}
	}
	sortSchedules(out)
	return out, nil
}
