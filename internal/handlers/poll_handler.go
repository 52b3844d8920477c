package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Dias221467/teachmate/internal/devserver"
	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/pkg/logger"
)

type PollHandler struct {
	Backend *devserver.Backend
}

func NewPollHandler(backend *devserver.Backend) *PollHandler {
	return &PollHandler{Backend: backend}
}

func (h *PollHandler) CreatePollHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in models.CreatePollInput
	if !decode(w, r, &in) {
		return
	}
	poll, err := h.Backend.CreatePoll(userID, in)
	if err != nil {
		respondError(w, err)
		return
	}
	logger.Log.Infof("User %s created poll %s in thread %s", userID, poll.ID, poll.ThreadID)
	respondData(w, http.StatusCreated, poll)
}

func (h *PollHandler) GetPollHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	poll, err := h.Backend.GetPoll(userID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, poll)
}

// VoteHandler returns the poll as tallied after the vote.
func (h *PollHandler) VoteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		OptionID string `json:"optionId"`
	}
	if !decode(w, r, &body) {
		return
	}
	poll, err := h.Backend.Vote(userID, mux.Vars(r)["id"], body.OptionID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, poll)
}

func (h *PollHandler) RemoveVoteHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	poll, err := h.Backend.RemoveVote(userID, vars["id"], vars["optionId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, poll)
}

func (h *PollHandler) GetThreadPollsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	polls, err := h.Backend.ThreadPolls(userID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, polls)
}
