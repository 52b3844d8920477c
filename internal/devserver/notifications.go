package devserver

import (
	"github.com/Dias221467/teachmate/internal/models"
)

const maxNotifications = 50

// Notifications returns userID's most recent notifications, newest first.
func (b *Backend) Notifications(userID string) []models.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.notifications[userID]
	out := make([]models.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0 && len(out) < maxNotifications; i-- {
		out = append(out, *list[i])
	}
	return out
}

func (b *Backend) MarkNotificationRead(userID, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, n := range b.notifications[userID] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return ErrNotFound
}

func (b *Backend) MarkAllNotificationsRead(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, n := range b.notifications[userID] {
		n.Read = true
	}
}
