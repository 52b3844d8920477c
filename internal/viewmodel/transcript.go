package viewmodel

import (
	"sort"
	"time"

	"github.com/Dias221467/teachmate/internal/models"
)

// ItemKind tags a transcript row.
type ItemKind string

const (
	KindMessage  ItemKind = "message"
	KindPending  ItemKind = "pending"
	KindPoll     ItemKind = "poll"
	KindSchedule ItemKind = "schedule"
)

type MessageView struct {
	ID          string
	ClientID    string
	Sender      UserView
	FromMe      bool
	Content     string
	Attachments []models.Attachment
	ReadCount   int
	Failed      bool
	SentAt      time.Time
}

type PollOptionView struct {
	ID        string
	Text      string
	Votes     int
	VotedByMe bool
}

type PollView struct {
	ID             string
	Question       string
	Options        []PollOptionView
	TotalVotes     int
	MultipleChoice bool
	Closed         bool
	CreatedAt      time.Time
}

type ScheduleView struct {
	ID               string
	Title            string
	Description      string
	Location         string
	StartsAt         time.Time
	EndsAt           time.Time
	ParticipantCount int
	Joined           bool
	CreatedAt        time.Time
}

// TranscriptItem is one row of a chat transcript.
type TranscriptItem struct {
	Kind     ItemKind
	ID       string
	At       time.Time
	Message  *MessageView
	Poll     *PollView
	Schedule *ScheduleView
}

// MapMessage builds a message row; members resolves the sender when the
// payload carries only a sender id.
func MapMessage(currentUserID string, m models.Message, members []models.User) MessageView {
	sender := models.User{ID: m.SenderID}
	if m.Sender != nil {
		sender = *m.Sender
	} else {
		for _, u := range members {
			if u.ID == m.SenderID {
				sender = u
				break
			}
		}
	}
	atts := make([]models.Attachment, len(m.Attachments))
	copy(atts, m.Attachments)
	return MessageView{
		ID:          m.ID,
		ClientID:    m.ClientID,
		Sender:      MapUser(sender),
		FromMe:      m.SenderID == currentUserID,
		Content:     m.Content,
		Attachments: atts,
		ReadCount:   len(m.ReadBy),
		Failed:      m.Failed,
		SentAt:      m.CreatedAt,
	}
}

func MapPoll(currentUserID string, p models.Poll, now time.Time) PollView {
	v := PollView{
		ID:             p.ID,
		Question:       p.Question,
		MultipleChoice: p.MultipleChoice,
		Closed:         p.ClosesAt != nil && !now.Before(*p.ClosesAt),
		CreatedAt:      p.CreatedAt,
		Options:        make([]PollOptionView, 0, len(p.Options)),
	}
	for _, o := range p.Options {
		ov := PollOptionView{ID: o.ID, Text: o.Text, Votes: len(o.Voters)}
		for _, voter := range o.Voters {
			if voter == currentUserID {
				ov.VotedByMe = true
				break
			}
		}
		v.TotalVotes += ov.Votes
		v.Options = append(v.Options, ov)
	}
	return v
}

func MapSchedule(currentUserID string, s models.Schedule) ScheduleView {
	return ScheduleView{
		ID:               s.ID,
		Title:            s.Title,
		Description:      s.Description,
		Location:         s.Location,
		StartsAt:         s.StartsAt,
		EndsAt:           s.EndsAt,
		ParticipantCount: len(s.Participants),
		Joined:           s.HasParticipant(currentUserID),
		CreatedAt:        s.CreatedAt,
	}
}

// TranscriptInput gathers everything shown in one thread.
type TranscriptInput struct {
	CurrentUserID string
	Detail        models.ThreadDetail
	Pending       []models.Message
	Polls         []models.Poll
	Schedules     []models.Schedule
	Now           time.Time
}

// MergeTranscript interleaves confirmed messages, local placeholders, polls
// and schedules in chronological order. Ties keep confirmed content first and
// then order by id. A placeholder whose client id already appears among the
// confirmed messages is dropped.
func MergeTranscript(in TranscriptInput) []TranscriptItem {
	members := in.Detail.Thread.Members
	items := make([]TranscriptItem, 0, len(in.Detail.Messages)+len(in.Pending)+len(in.Polls)+len(in.Schedules))

	confirmed := map[string]bool{}
	for _, m := range in.Detail.Messages {
		if m.ClientID != "" {
			confirmed[m.ClientID] = true
		}
		mv := MapMessage(in.CurrentUserID, m, members)
		items = append(items, TranscriptItem{Kind: KindMessage, ID: m.ID, At: m.CreatedAt, Message: &mv})
	}
	for _, m := range in.Pending {
		if m.ClientID != "" && confirmed[m.ClientID] {
			continue
		}
		mv := MapMessage(in.CurrentUserID, m, members)
		items = append(items, TranscriptItem{Kind: KindPending, ID: m.ClientID, At: m.CreatedAt, Message: &mv})
	}
	for _, p := range in.Polls {
		pv := MapPoll(in.CurrentUserID, p, in.Now)
		items = append(items, TranscriptItem{Kind: KindPoll, ID: p.ID, At: p.CreatedAt, Poll: &pv})
	}
	for _, s := range in.Schedules {
		sv := MapSchedule(in.CurrentUserID, s)
		items = append(items, TranscriptItem{Kind: KindSchedule, ID: s.ID, At: s.CreatedAt, Schedule: &sv})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.At.Equal(b.At) {
			return a.At.Before(b.At)
		}
		if (a.Kind == KindPending) != (b.Kind == KindPending) {
			return b.Kind == KindPending
		}
		return a.ID < b.ID
	})
	return items
}
