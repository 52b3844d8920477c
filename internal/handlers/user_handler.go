package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/config"
	"github.com/Dias221467/teachmate/internal/devserver"
	"github.com/Dias221467/teachmate/internal/models"
	jwtutil "github.com/Dias221467/teachmate/pkg/jwt"
	"github.com/Dias221467/teachmate/pkg/logger"
)

// ReportMailer forwards moderation reports.
type ReportMailer interface {
	Enabled() bool
	Send(to, subject, body string) error
}

// UserHandler handles accounts and profiles.
type UserHandler struct {
	Backend *devserver.Backend
	Config  *config.Config
	Mailer  ReportMailer
}

func NewUserHandler(backend *devserver.Backend, cfg *config.Config, mailer ReportMailer) *UserHandler {
	return &UserHandler{Backend: backend, Config: cfg, Mailer: mailer}
}

func (h *UserHandler) issue(w http.ResponseWriter, user models.User) {
	token, err := jwtutil.GenerateToken(user.ID, user.Email, "user", h.Config.JWTSecret, h.Config.TokenExpiry)
	if err != nil {
		log.WithError(err).Error("Failed to generate JWT token")
		respondFail(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	respondData(w, http.StatusOK, models.AuthResult{Token: token, User: user})
}

// RegisterUserHandler handles user registration.
func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterInput
	if !decode(w, r, &in) {
		return
	}

	user, err := h.Backend.Register(in)
	if err != nil {
		log.WithError(err).Warn("Failed to register user")
		respondError(w, err)
		return
	}

	log.WithField("userID", user.ID).Info("User registered successfully")
	h.issue(w, user)
}

// LoginUserHandler handles user login.
func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &credentials) {
		return
	}

	user, err := h.Backend.Authenticate(credentials.Email, credentials.Password)
	if err != nil {
		log.WithFields(log.Fields{
			"email": credentials.Email,
			"error": err,
		}).Warn("Authentication failed")
		respondError(w, err)
		return
	}

	log.WithField("userID", user.ID).Info("User logged in successfully")
	h.issue(w, user)
}

func (h *UserHandler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.Backend.Me(userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

// UpdateMeHandler applies a partial profile update.
func (h *UserHandler) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var update models.ProfileUpdate
	if !decode(w, r, &update) {
		return
	}
	user, err := h.Backend.UpdateProfile(userID, update)
	if err != nil {
		respondError(w, err)
		return
	}
	logger.Log.WithField("userID", userID).Info("Profile updated")
	respondData(w, http.StatusOK, user)
}

func (h *UserHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.Backend.GetUser(userID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *UserHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	respondData(w, http.StatusOK, h.Backend.SearchUsers(userID, r.URL.Query().Get("q")))
}

// ReportUserHandler files a report and forwards it to the moderators when
// mail is configured.
func (h *UserHandler) ReportUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var report models.Report
	if !decode(w, r, &report) {
		return
	}

	rec, err := h.Backend.Report(userID, mux.Vars(r)["id"], report)
	if err != nil {
		respondError(w, err)
		return
	}
	logger.Log.WithFields(log.Fields{
		"reportID": rec.ID,
		"targetID": rec.TargetID,
	}).Info("User reported")

	if h.Mailer != nil && h.Mailer.Enabled() && h.Config.ModeratorEmail != "" {
		body := fmt.Sprintf("Reporter: %s\nReported user: %s\nReason: %s\n\n%s",
			rec.ReporterID, rec.TargetID, rec.Report.Reason, rec.Report.Details)
		if err := h.Mailer.Send(h.Config.ModeratorEmail, "TeachMate report "+rec.ID, body); err != nil {
			logger.Log.WithError(err).Warn("Failed to forward report")
		}
	}
	respondMessage(w, "Report submitted")
}
