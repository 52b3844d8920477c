package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Dias221467/teachmate/internal/devserver"
	"github.com/Dias221467/teachmate/pkg/logger"
)

// FriendHandler manages HTTP endpoints related to friend requests.
type FriendHandler struct {
	Backend *devserver.Backend
}

// NewFriendHandler initializes a new FriendHandler.
func NewFriendHandler(backend *devserver.Backend) *FriendHandler {
	return &FriendHandler{Backend: backend}
}

// SendFriendRequestHandler allows a user to send a friend request.
func (h *FriendHandler) SendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
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

	request, err := h.Backend.SendFriendRequest(userID, body.UserID)
	if err != nil {
		logger.Log.Warnf("Failed to send friend request: %v", err)
		respondError(w, err)
		return
	}

	logger.Log.Infof("User %s sent a friend request to %s", userID, body.UserID)
	respondData(w, http.StatusCreated, request)
}

// GetPendingRequestsHandler shows all incoming friend requests.
func (h *FriendHandler) GetPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, h.Backend.FriendRequests(userID))
}

func (h *FriendHandler) AcceptRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, true)
}

func (h *FriendHandler) RejectRequestHandler(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, false)
}

func (h *FriendHandler) respond(w http.ResponseWriter, r *http.Request, accept bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	requestID := mux.Vars(r)["id"]

	if err := h.Backend.RespondToRequest(userID, requestID, accept); err != nil {
		logger.Log.Warnf("Failed to respond to friend request %s: %v", requestID, err)
		respondError(w, err)
		return
	}

	logger.Log.Infof("User %s responded to friend request %s (accepted: %v)", userID, requestID, accept)
	respondMessage(w, "Friend request response recorded")
}

// GetFriendsHandler lists the caller's friends.
func (h *FriendHandler) GetFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, h.Backend.Friends(userID))
}

func (h *FriendHandler) GetSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, h.Backend.Suggestions(userID))
}
