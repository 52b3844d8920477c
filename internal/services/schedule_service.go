package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/store"
	"github.com/Dias221467/teachmate/internal/syncer"
)

type ScheduleAPI interface {
	CreateSchedule(ctx context.Context, in models.CreateScheduleInput) (*models.Schedule, error)
	JoinSchedule(ctx context.Context, id string) (*models.Schedule, error)
	LeaveSchedule(ctx context.Context, id string) (*models.Schedule, error)
}

type ScheduleService struct {
	api   ScheduleAPI
	store *store.Store
	sync  Refresher
	toast toaster
}

func NewScheduleService(api ScheduleAPI, st *store.Store, sync Refresher, log *logrus.Entry) *ScheduleService {
	log = componentLog(log, "schedule_service")
	return &ScheduleService{api: api, store: st, sync: sync, toast: toaster{st, log}}
}

// Create validates and creates a schedule, optionally bound to a thread.
func (s *ScheduleService) Create(ctx context.Context, in models.CreateScheduleInput) (*models.Schedule, error) {
	if err := validateInput(in); err != nil {
		s.toast.failure("Create schedule", err)
		return nil, err
	}
	sc, err := s.api.CreateSchedule(ctx, in)
	if err != nil {
		s.toast.failure("Create schedule", err)
		return nil, err
	}
	s.store.Dispatch(store.ScheduleConfirmed{Schedule: *sc})
	s.toast.success("Schedule created")
	s.sync.Refetch(syncer.Schedules, syncer.ThreadSchedules)
	return sc, nil
}

// Join adds the current user to a schedule.
func (s *ScheduleService) Join(ctx context.Context, id string) (*models.Schedule, error) {
	return s.mutate(ctx, "Join schedule", "Joined schedule", id, true, s.api.JoinSchedule)
}

// Leave removes the current user from a schedule.
func (s *ScheduleService) Leave(ctx context.Context, id string) (*models.Schedule, error) {
	return s.mutate(ctx, "Leave schedule", "Left schedule", id, false, s.api.LeaveSchedule)
}

func (s *ScheduleService) mutate(ctx context.Context, action, done, id string, join bool,
	call func(ctx context.Context, id string) (*models.Schedule, error)) (*models.Schedule, error) {
	me, err := currentUserID(s.store)
	if err != nil {
		return nil, err
	}

	original, known := s.findSchedule(id)
	if known {
		s.store.Dispatch(store.SchedulePatched{Original: original, Modified: withParticipant(original, me, join)})
	}

	sc, err := call(ctx, id)
	if err != nil {
		if known {
			s.store.Dispatch(store.ScheduleReverted{ID: id})
		}
		s.toast.failure(action, err)
		return nil, err
	}
	s.store.Dispatch(store.ScheduleConfirmed{Schedule: *sc})
	s.toast.success(done)
	s.sync.Refetch(syncer.Schedules, syncer.ThreadSchedules)
	return sc, nil
}

func (s *ScheduleService) findSchedule(id string) (models.Schedule, bool) {
	st := s.store.State()
	for _, list := range [][]models.Schedule{st.ThreadSchedules, st.Schedules} {
		for _, sc := range list {
			if sc.ID == id {
				return sc, true
			}
		}
	}
	return models.Schedule{}, false
}

func withParticipant(sc models.Schedule, userID string, join bool) models.Schedule {
	out := sc
	out.Participants = make([]string, 0, len(sc.Participants)+1)
	for _, p := range sc.Participants {
		if p != userID {
			out.Participants = append(out.Participants, p)
		}
	}
	if join {
		out.Participants = append(out.Participants, userID)
	}
	return out
}
