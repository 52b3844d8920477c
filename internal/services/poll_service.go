package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/store"
	"github.com/Dias221467/teachmate/internal/syncer"
)

type PollAPI interface {
	CreatePoll(ctx context.Context, in models.CreatePollInput) (*models.Poll, error)
	Vote(ctx context.Context, pollID, optionID string) (*models.Poll, error)
	RemoveVote(ctx context.Context, pollID, optionID string) (*models.Poll, error)
}

type PollService struct {
	api   PollAPI
	store *store.Store
	sync  Refresher
	toast toaster
}

func NewPollService(api PollAPI, st *store.Store, sync Refresher, log *logrus.Entry) *PollService {
	log = componentLog(log, "poll_service")
	return &PollService{api: api, store: st, sync: sync, toast: toaster{st, log}}
}

// Create validates and creates a poll in a thread.
func (s *PollService) Create(ctx context.Context, in models.CreatePollInput) (*models.Poll, error) {
	if err := validateInput(in); err != nil {
		s.toast.failure("Create poll", err)
		return nil, err
	}
	p, err := s.api.CreatePoll(ctx, in)
	if err != nil {
		s.toast.failure("Create poll", err)
		return nil, err
	}
	s.store.Dispatch(store.PollConfirmed{Poll: *p})
	s.toast.success("Poll created")
	s.sync.Refetch(syncer.ThreadPolls, syncer.ActiveThread)
	return p, nil
}

// Vote records the current user's vote. In a single-choice poll a vote
// replaces any previous one.
func (s *PollService) Vote(ctx context.Context, pollID, optionID string) (*models.Poll, error) {
	return s.mutate(ctx, "Vote", pollID, optionID, true, s.api.Vote)
}

// RemoveVote withdraws the current user's vote for optionID.
func (s *PollService) RemoveVote(ctx context.Context, pollID, optionID string) (*models.Poll, error) {
	return s.mutate(ctx, "Remove vote", pollID, optionID, false, s.api.RemoveVote)
}

func (s *PollService) mutate(ctx context.Context, action, pollID, optionID string, add bool,
	call func(ctx context.Context, pollID, optionID string) (*models.Poll, error)) (*models.Poll, error) {
	me, err := currentUserID(s.store)
	if err != nil {
		return nil, err
	}

	original, known := s.findPoll(pollID)
	if known {
		if !hasOption(original, optionID) {
			return nil, fmt.Errorf("poll %s has no option %s", pollID, optionID)
		}
		s.store.Dispatch(store.PollPatched{Original: original, Modified: applyVote(original, me, optionID, add)})
	}

	p, err := call(ctx, pollID, optionID)
	if err != nil {
		if known {
			s.store.Dispatch(store.PollReverted{ID: pollID})
		}
		s.toast.failure(action, err)
		return nil, err
	}
	s.store.Dispatch(store.PollConfirmed{Poll: *p})
	s.sync.Refetch(syncer.ThreadPolls)
	return p, nil
}

func (s *PollService) findPoll(id string) (models.Poll, bool) {
	for _, p := range s.store.State().ThreadPolls {
		if p.ID == id {
			return p, true
		}
	}
	return models.Poll{}, false
}

func hasOption(p models.Poll, optionID string) bool {
	for _, o := range p.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// applyVote returns a copy of p with userID's vote for optionID added or
// removed.
func applyVote(p models.Poll, userID, optionID string, add bool) models.Poll {
	out := p
	out.Options = make([]models.PollOption, len(p.Options))
	for i, o := range p.Options {
		voters := make([]string, 0, len(o.Voters)+1)
		for _, v := range o.Voters {
			if v == userID && (o.ID == optionID || (add && !p.MultipleChoice)) {
				continue
			}
			voters = append(voters, v)
		}
		if add && o.ID == optionID {
			voters = append(voters, userID)
		}
		o.Voters = voters
		out.Options[i] = o
	}
	return out
}
