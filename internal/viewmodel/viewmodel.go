// Package viewmodel turns backend payloads into display-ready shapes.
// Every mapper is pure: it never mutates its input and returns the same
// output for the same input, so it can run on every poll tick.
package viewmodel

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Dias221467/teachmate/internal/models"
)

// ErrNoCounterpart is returned for a direct thread without a member other
// than the current user.
var ErrNoCounterpart = errors.New("direct thread has no other participant")

type UserView struct {
	ID          string
	DisplayName string
	Handle      string
	AvatarURL   string
	Subtitle    string
	Online      bool
}

type ThreadView struct {
	ID            string
	Type          models.ThreadType
	Title         string
	AvatarURL     string
	OtherUser     *UserView
	MemberCount   int
	LastMessage   string
	LastMessageAt time.Time
	LastFromMe    bool
	Unread        int
	UpdatedAt     time.Time
}

type FriendRequestView struct {
	ID        string
	Requester UserView
	SentAt    time.Time
}

type NotificationView struct {
	ID        string
	Type      string
	Title     string
	Body      string
	Read      bool
	TargetID  string
	CreatedAt time.Time
}

// MapUser builds the view of one user.
func MapUser(u models.User) UserView {
	name := strings.TrimSpace(u.FullName)
	if name == "" {
		name = u.Username
	}
	subtitle := u.School
	if len(u.Subjects) > 0 {
		subjects := strings.Join(u.Subjects, ", ")
		if subtitle != "" {
			subtitle += " · " + subjects
		} else {
			subtitle = subjects
		}
	}
	return UserView{
		ID:          u.ID,
		DisplayName: name,
		Handle:      "@" + u.Username,
		AvatarURL:   models.AvatarOrDefault(u.AvatarURL),
		Subtitle:    subtitle,
		Online:      u.Online,
	}
}

func MapUsers(users []models.User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, MapUser(u))
	}
	return out
}

// OtherParticipant returns the first member whose id differs from currentUserID.
func OtherParticipant(currentUserID string, t models.Thread) (models.User, error) {
	for _, m := range t.Members {
		if m.ID != "" && m.ID != currentUserID {
			return m, nil
		}
	}
	return models.User{}, fmt.Errorf("thread %s: %w", t.ID, ErrNoCounterpart)
}

// MapThread builds a thread row. Direct threads are titled after the other
// participant; a direct thread without one is an error.
func MapThread(currentUserID string, t models.Thread) (ThreadView, error) {
	v := ThreadView{
		ID:          t.ID,
		Type:        t.Type,
		MemberCount: len(t.Members),
		Unread:      t.UnreadCount,
		UpdatedAt:   t.UpdatedAt,
	}

	if t.Type.IsDirect() {
		other, err := OtherParticipant(currentUserID, t)
		if err != nil {
			return ThreadView{}, err
		}
		ov := MapUser(other)
		v.OtherUser = &ov
		v.Title = ov.DisplayName
		v.AvatarURL = ov.AvatarURL
	} else {
		v.Title = t.Name
		if v.Title == "" {
			v.Title = groupTitle(currentUserID, t.Members)
		}
		v.AvatarURL = models.AvatarOrDefault(t.AvatarURL)
	}

	if t.LastMessage != nil {
		v.LastMessage = t.LastMessage.Content
		v.LastMessageAt = t.LastMessage.CreatedAt
		v.LastFromMe = t.LastMessage.SenderID == currentUserID
	}
	return v, nil
}

func groupTitle(currentUserID string, members []models.User) string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		if m.ID == currentUserID {
			continue
		}
		names = append(names, MapUser(m).DisplayName)
	}
	if len(names) == 0 {
		return "Group"
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// MapThreads maps a thread list ordered by latest activity. Malformed threads
// are left out and reported together in the returned error. Direct threads
// sharing the same counterpart collapse into the most recently updated one.
func MapThreads(currentUserID string, threads []models.Thread) ([]ThreadView, error) {
	views := make([]ThreadView, 0, len(threads))
	byCounterpart := map[string]int{}
	var errs []error

	for _, t := range threads {
		v, err := MapThread(currentUserID, t)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if v.OtherUser != nil {
			if idx, ok := byCounterpart[v.OtherUser.ID]; ok {
				if activity(v).After(activity(views[idx])) {
					views[idx] = v
				}
				continue
			}
			byCounterpart[v.OtherUser.ID] = len(views)
		}
		views = append(views, v)
	}

	sort.SliceStable(views, func(i, j int) bool {
		ai, aj := activity(views[i]), activity(views[j])
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return views[i].ID < views[j].ID
	})
	return views, errors.Join(errs...)
}

func activity(v ThreadView) time.Time {
	if v.LastMessageAt.After(v.UpdatedAt) {
		return v.LastMessageAt
	}
	return v.UpdatedAt
}

// FindDirectThread returns the direct thread whose members are exactly the
// current user and otherUserID.
func FindDirectThread(currentUserID, otherUserID string, threads []models.Thread) (models.Thread, bool) {
	for _, t := range threads {
		if !t.Type.IsDirect() || len(t.Members) != 2 {
			continue
		}
		if t.HasMember(currentUserID) && t.HasMember(otherUserID) {
			return t, true
		}
	}
	return models.Thread{}, false
}

func MapFriendRequest(r models.FriendRequest) FriendRequestView {
	return FriendRequestView{
		ID:        r.ID,
		Requester: MapUser(r.Requester),
		SentAt:    r.CreatedAt,
	}
}

// MapFriendRequests keeps only pending requests, newest first.
func MapFriendRequests(reqs []models.FriendRequest) []FriendRequestView {
	out := make([]FriendRequestView, 0, len(reqs))
	for _, r := range reqs {
		if r.Status != "" && r.Status != models.RequestPending {
			continue
		}
		out = append(out, MapFriendRequest(r))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out
}

func MapNotification(n models.Notification) NotificationView {
	return NotificationView{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Read:      n.Read,
		TargetID:  n.TargetID,
		CreatedAt: n.CreatedAt,
	}
}

// MapNotifications returns views newest first and the unread count.
func MapNotifications(list []models.Notification) ([]NotificationView, int) {
	out := make([]NotificationView, 0, len(list))
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
		out = append(out, MapNotification(n))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, unread
}
