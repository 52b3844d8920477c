package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/store"
	"github.com/Dias221467/teachmate/internal/syncer"
)

type FriendAPI interface {
	SuggestFriends(ctx context.Context) ([]models.User, error)
	SendFriendRequest(ctx context.Context, userID string) (*models.FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, requestID string) error
	RejectFriendRequest(ctx context.Context, requestID string) error
}

// FriendService handles friend suggestions and requests.
type FriendService struct {
	api   FriendAPI
	store *store.Store
	sync  Refresher
	toast toaster
}

// NewFriendService creates a new FriendService.
func NewFriendService(api FriendAPI, st *store.Store, sync Refresher, log *logrus.Entry) *FriendService {
	log = componentLog(log, "friend_service")
	return &FriendService{api: api, store: st, sync: sync, toast: toaster{st, log}}
}

// Suggestions lists people the current user may know.
func (s *FriendService) Suggestions(ctx context.Context) ([]models.User, error) {
	users, err := s.api.SuggestFriends(ctx)
	if err != nil {
		s.toast.failure("Load suggestions", err)
		return nil, err
	}
	return users, nil
}

// SendRequest asks userID to become a friend.
func (s *FriendService) SendRequest(ctx context.Context, userID string) error {
	me, err := currentUserID(s.store)
	if err != nil {
		return err
	}
	if userID == me {
		return fmt.Errorf("cannot send a friend request to yourself")
	}
	if _, err := s.api.SendFriendRequest(ctx, userID); err != nil {
		s.toast.failure("Send friend request", err)
		return err
	}
	s.toast.success("Friend request sent")
	return nil
}

// Accept accepts an incoming request. The request disappears immediately and
// comes back if the backend refuses.
func (s *FriendService) Accept(ctx context.Context, requestID string) error {
	return s.respond(ctx, requestID, true)
}

// Reject declines an incoming request.
func (s *FriendService) Reject(ctx context.Context, requestID string) error {
	return s.respond(ctx, requestID, false)
}

func (s *FriendService) respond(ctx context.Context, requestID string, accept bool) error {
	s.store.Dispatch(store.FriendRequestHidden{ID: requestID})

	var err error
	action := "Reject friend request"
	if accept {
		action = "Accept friend request"
		err = s.api.AcceptFriendRequest(ctx, requestID)
	} else {
		err = s.api.RejectFriendRequest(ctx, requestID)
	}
	if err != nil {
		s.store.Dispatch(store.FriendRequestRestored{ID: requestID})
		s.toast.failure(action, err)
		return err
	}

	if accept {
		s.toast.success("Friend request accepted")
		s.sync.Refetch(syncer.FriendRequests, syncer.Friends, syncer.Threads, syncer.StrangerThreads, syncer.Notifications)
	} else {
		s.toast.success("Friend request rejected")
		s.sync.Refetch(syncer.FriendRequests, syncer.Notifications)
	}
	return nil
}
