package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Dias221467/teachmate/internal/devserver"
	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/pkg/logger"
)

// ScheduleHandler serves study sessions.
type ScheduleHandler struct {
	Backend *devserver.Backend
}

func NewScheduleHandler(backend *devserver.Backend) *ScheduleHandler {
	return &ScheduleHandler{Backend: backend}
}

func (h *ScheduleHandler) CreateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in models.CreateScheduleInput
	if !decode(w, r, &in) {
		return
	}
	schedule, err := h.Backend.CreateSchedule(userID, in)
	if err != nil {
		respondError(w, err)
		return
	}
	logger.Log.Infof("User %s created schedule %s", userID, schedule.ID)
	respondData(w, http.StatusCreated, schedule)
}

// GetMySchedulesHandler lists schedules the caller participates in.
func (h *ScheduleHandler) GetMySchedulesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, h.Backend.MySchedules(userID))
}

func (h *ScheduleHandler) GetScheduleHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	schedule, err := h.Backend.GetSchedule(userID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, schedule)
}

func (h *ScheduleHandler) JoinScheduleHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	schedule, err := h.Backend.JoinSchedule(userID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, schedule)
}

func (h *ScheduleHandler) LeaveScheduleHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	schedule, err := h.Backend.LeaveSchedule(userID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, schedule)
}

func (h *ScheduleHandler) GetThreadSchedulesHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, err := h.Backend.ThreadSchedules(userID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, list)
}
