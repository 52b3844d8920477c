package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dias221467/teachmate/internal/devserver"
	"github.com/Dias221467/teachmate/pkg/logger"
	"github.com/Dias221467/teachmate/pkg/middleware"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}

func respondData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: msg})
}

func respondFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// respondError maps backend errors onto the wire. Rule violations are 200
// with success=false; unknown or foreign resources are 404, never 403.
func respondError(w http.ResponseWriter, err error) {
	var verr *devserver.ValidationError
	switch {
	case errors.As(err, &verr):
		respondFail(w, http.StatusOK, verr.Message)
	case errors.Is(err, devserver.ErrNotFound):
		respondFail(w, http.StatusNotFound, "Not found")
	case errors.Is(err, devserver.ErrInvalidCredentials):
		respondFail(w, http.StatusUnauthorized, "Invalid email or password")
	default:
		logger.Log.WithError(err).Error("Request failed")
		respondFail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Log.WithError(err).Warn("Failed to decode request body")
		respondFail(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// currentUser returns the caller's id. Routes behind AuthMiddleware always
// have one.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		respondFail(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return claims.UserID, true
}
