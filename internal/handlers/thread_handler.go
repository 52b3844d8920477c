package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Dias221467/teachmate/internal/devserver"
	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/pkg/logger"
)

// ThreadHandler serves direct threads, groups and their attachments.
type ThreadHandler struct {
	Backend *devserver.Backend
}

func NewThreadHandler(backend *devserver.Backend) *ThreadHandler {
	return &ThreadHandler{Backend: backend}
}

func (h *ThreadHandler) list(typ models.ThreadType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}
		respondData(w, http.StatusOK, h.Backend.Threads(userID, typ))
	}
}

// GetThreadsHandler lists direct threads with friends.
func (h *ThreadHandler) GetThreadsHandler(w http.ResponseWriter, r *http.Request) {
	h.list(models.ThreadFriend)(w, r)
}

func (h *ThreadHandler) GetStrangerThreadsHandler(w http.ResponseWriter, r *http.Request) {
	h.list(models.ThreadStranger)(w, r)
}

func (h *ThreadHandler) GetGroupsHandler(w http.ResponseWriter, r *http.Request) {
	h.list(models.ThreadGroup)(w, r)
}

// GetThreadHandler returns a thread with its transcript.
func (h *ThreadHandler) GetThreadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	detail, err := h.Backend.GetThread(userID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, detail)
}

// DirectThreadHandler returns the caller's direct thread with another user,
// creating it on first use.
func (h *ThreadHandler) DirectThreadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		UserID string `json:"userId"`
	}
	if !decode(w, r, &body) {
		return
	}
	thread, err := h.Backend.GetOrCreateDirect(userID, body.UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, thread)
}

func (h *ThreadHandler) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in models.CreateGroupInput
	if !decode(w, r, &in) {
		return
	}
	group, err := h.Backend.CreateGroup(userID, in)
	if err != nil {
		respondError(w, err)
		return
	}
	logger.Log.Infof("User %s created group %s", userID, group.ID)
	respondData(w, http.StatusCreated, group)
}

func (h *ThreadHandler) JoinGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.Backend.JoinGroup(userID, mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, "Joined group")
}

func (h *ThreadHandler) LeaveGroupHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.Backend.LeaveGroup(userID, mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	respondMessage(w, "Left group")
}

func (h *ThreadHandler) GetAttachmentsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	atts, err := h.Backend.Attachments(userID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, atts)
}
