package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/store"
	"github.com/Dias221467/teachmate/internal/syncer"
)

type NotificationAPI interface {
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

type NotificationService struct {
	api   NotificationAPI
	store *store.Store
	sync  Refresher
	toast toaster
}

func NewNotificationService(api NotificationAPI, st *store.Store, sync Refresher, log *logrus.Entry) *NotificationService {
	log = componentLog(log, "notification_service")
	return &NotificationService{api: api, store: st, sync: sync, toast: toaster{st, log}}
}

// MarkRead flags one notification read. The flag holds across poll ticks
// until the backend reflects it, and is rolled back on failure.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	ids := []string{id}
	s.store.Dispatch(store.NotificationsMarkedRead{IDs: ids})
	if err := s.api.MarkNotificationRead(ctx, id); err != nil {
		s.store.Dispatch(store.NotificationsReadReverted{IDs: ids})
		s.toast.failure("Mark notification read", err)
		return err
	}
	s.sync.Refetch(syncer.Notifications)
	return nil
}

// MarkAllRead flags every unread notification read.
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	var ids []string
	for _, n := range s.store.State().Notifications {
		if !n.Read {
			ids = append(ids, n.ID)
		}
	}
	s.store.Dispatch(store.NotificationsMarkedRead{IDs: ids})
	if err := s.api.MarkAllNotificationsRead(ctx); err != nil {
		s.store.Dispatch(store.NotificationsReadReverted{IDs: ids})
		s.toast.failure("Mark all notifications read", err)
		return err
	}
	s.toast.success("All notifications marked as read")
	s.sync.Refetch(syncer.Notifications)
	return nil
}
