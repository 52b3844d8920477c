package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/store"
	"github.com/Dias221467/teachmate/internal/syncer"
)

type GroupAPI interface {
	CreateGroup(ctx context.Context, in models.CreateGroupInput) (*models.Thread, error)
	JoinGroup(ctx context.Context, id string) error
	LeaveGroup(ctx context.Context, id string) error
}

type GroupService struct {
	api   GroupAPI
	store *store.Store
	sync  Refresher
	toast toaster
}

func NewGroupService(api GroupAPI, st *store.Store, sync Refresher, log *logrus.Entry) *GroupService {
	log = componentLog(log, "group_service")
	return &GroupService{api: api, store: st, sync: sync, toast: toaster{st, log}}
}

// Create makes a group chat and opens it.
func (s *GroupService) Create(ctx context.Context, in models.CreateGroupInput) (*models.Thread, error) {
	if err := validateInput(in); err != nil {
		s.toast.failure("Create group", err)
		return nil, err
	}
	g, err := s.api.CreateGroup(ctx, in)
	if err != nil {
		s.toast.failure("Create group", err)
		return nil, err
	}
	s.toast.success("Group created")
	s.sync.Refetch(syncer.Groups)
	s.sync.OpenThread(g.ID)
	return g, nil
}

func (s *GroupService) Join(ctx context.Context, id string) error {
	if err := s.api.JoinGroup(ctx, id); err != nil {
		s.toast.failure("Join group", err)
		return err
	}
	s.toast.success("Joined group")
	s.sync.Refetch(syncer.Groups)
	return nil
}

// Leave exits a group and closes it if it was open.
func (s *GroupService) Leave(ctx context.Context, id string) error {
	if err := s.api.LeaveGroup(ctx, id); err != nil {
		s.toast.failure("Leave group", err)
		return err
	}
	if s.sync.ActiveThreadID() == id {
		s.sync.OpenThread("")
	}
	s.toast.success("Left group")
	s.sync.Refetch(syncer.Groups)
	return nil
}
