package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Dias221467/teachmate/internal/devserver"
	"github.com/Dias221467/teachmate/pkg/logger"
)

type NotificationHandler struct {
	Backend *devserver.Backend
}

func NewNotificationHandler(backend *devserver.Backend) *NotificationHandler {
	return &NotificationHandler{Backend: backend}
}

// GetNotificationsHandler returns the caller's notifications, newest first.
func (h *NotificationHandler) GetNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, h.Backend.Notifications(userID))
}

func (h *NotificationHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.Backend.MarkNotificationRead(userID, id); err != nil {
		logger.Log.Warnf("Failed to mark notification %s as read: %v", id, err)
		respondError(w, err)
		return
	}
	respondMessage(w, "Notification marked as read")
}

func (h *NotificationHandler) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	h.Backend.MarkAllNotificationsRead(userID)
	respondMessage(w, "All notifications marked as read")
}
