package devserver

import (
	"sort"
	"strings"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/push"
)

func copyPoll(p *models.Poll) models.Poll {
	out := *p
	out.Options = make([]models.PollOption, len(p.Options))
	for i, o := range p.Options {
		o.Voters = append([]string{}, o.Voters...)
		out.Options[i] = o
	}
	if p.ClosesAt != nil {
		t := *p.ClosesAt
		out.ClosesAt = &t
	}
	return out
}

func (b *Backend) CreatePoll(creatorID string, in models.CreatePollInput) (models.Poll, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return models.Poll{}, invalid("Question is required")
	}
	var options []string
	for _, o := range in.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	if len(options) < 2 || len(options) > 10 {
		return models.Poll{}, invalid("A poll needs between 2 and 10 options")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.memberThread(creatorID, in.ThreadID)
	if err != nil {
		return models.Poll{}, err
	}
	if in.ClosesAt != nil && !in.ClosesAt.After(b.now()) {
		return models.Poll{}, invalid("Closing time must be in the future")
	}

	p := &models.Poll{
		ID:             newID(),
		ThreadID:       t.id,
		CreatorID:      creatorID,
		Question:       question,
		MultipleChoice: in.MultipleChoice,
		ClosesAt:       in.ClosesAt,
		CreatedAt:      b.now(),
	}
	for _, text := range options {
		p.Options = append(p.Options, models.PollOption{ID: newID(), Text: text, Voters: []string{}})
	}
	b.polls[p.ID] = p

	creator := b.publicUser(creatorID)
	for _, m := range t.members {
		if m != creatorID {
			b.notify(m, models.Notification{
				Type:     models.NotifyPoll,
				Title:    creator.Username + " started a poll",
				Body:     question,
				TargetID: p.ID,
			})
		}
	}
	b.publisher.Publish(t.members, push.Event{Type: push.PollUpdated, ThreadID: t.id, TargetID: p.ID})
	return copyPoll(p), nil
}

// visiblePoll returns the poll if viewerID belongs to its thread.
func (b *Backend) visiblePoll(viewerID, pollID string) (*models.Poll, *thread, error) {
	p, ok := b.polls[pollID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	t, err := b.memberThread(viewerID, p.ThreadID)
	if err != nil {
		return nil, nil, err
	}
	return p, t, nil
}

func (b *Backend) GetPoll(viewerID, pollID string) (models.Poll, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, _, err := b.visiblePoll(viewerID, pollID)
	if err != nil {
		return models.Poll{}, err
	}
	return copyPoll(p), nil
}

// Vote records userID's vote. A single-choice vote replaces any earlier one.
func (b *Backend) Vote(userID, pollID, optionID string) (models.Poll, error) {
	return b.changeVote(userID, pollID, optionID, true)
}

func (b *Backend) RemoveVote(userID, pollID, optionID string) (models.Poll, error) {
	return b.changeVote(userID, pollID, optionID, false)
}

func (b *Backend) changeVote(userID, pollID, optionID string, add bool) (models.Poll, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, t, err := b.visiblePoll(userID, pollID)
	if err != nil {
		return models.Poll{}, err
	}
	if p.ClosesAt != nil && !b.now().Before(*p.ClosesAt) {
		return models.Poll{}, invalid("Poll is closed")
	}

	found := false
	for _, o := range p.Options {
		if o.ID == optionID {
			found = true
			break
		}
	}
	if !found {
		return models.Poll{}, invalid("Unknown poll option")
	}

	for i := range p.Options {
		o := &p.Options[i]
		if o.ID == optionID {
			o.Voters = without(o.Voters, userID)
			if add {
				o.Voters = append(o.Voters, userID)
			}
		} else if add && !p.MultipleChoice {
			o.Voters = without(o.Voters, userID)
		}
	}

	b.publisher.Publish(t.members, push.Event{Type: push.PollUpdated, ThreadID: t.id, TargetID: p.ID})
	return copyPoll(p), nil
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (b *Backend) ThreadPolls(viewerID, threadID string) ([]models.Poll, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.memberThread(viewerID, threadID); err != nil {
		return nil, err
	}
	out := []models.Poll{}
	for _, p := range b.polls {
		if p.ThreadID == threadID {
			out = append(out, copyPoll(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
