package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/store"
)

type UserAPI interface {
	UpdateMe(ctx context.Context, update models.ProfileUpdate) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	ReportUser(ctx context.Context, id string, report models.Report) error
}

// LanguageSaver persists the UI language between runs.
type LanguageSaver interface {
	SetLanguage(lang string) error
}

// UserService covers the current user's profile and looking up others.
type UserService struct {
	api   UserAPI
	store *store.Store
	prefs LanguageSaver
	toast toaster
	log   *logrus.Entry
}

// NewUserService creates a new instance of UserService.
func NewUserService(api UserAPI, st *store.Store, prefs LanguageSaver, log *logrus.Entry) *UserService {
	log = componentLog(log, "user_service")
	return &UserService{api: api, store: st, prefs: prefs, toast: toaster{st, log}, log: log}
}

// UpdateProfile saves profile changes and refreshes the stored user.
func (s *UserService) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	u, err := s.api.UpdateMe(ctx, update)
	if err != nil {
		s.toast.failure("Update profile", err)
		return nil, err
	}
	s.store.Dispatch(store.ProfileUpdated{User: *u})
	s.toast.success("Profile updated")
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.api.GetUser(ctx, id)
}

// Search finds users by name. Blank queries return nothing without a request.
func (s *UserService) Search(ctx context.Context, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	return s.api.SearchUsers(ctx, query)
}

// Report flags a user for moderation.
func (s *UserService) Report(ctx context.Context, id string, report models.Report) error {
	if err := validateInput(report); err != nil {
		s.toast.failure("Report user", err)
		return err
	}
	if err := s.api.ReportUser(ctx, id, report); err != nil {
		s.toast.failure("Report user", err)
		return err
	}
	s.toast.success("Report sent")
	return nil
}

// SetLanguage switches the UI language and remembers it locally.
func (s *UserService) SetLanguage(lang string) error {
	s.store.Dispatch(store.LanguageChanged{Language: lang})
	if s.prefs == nil {
		return nil
	}
	if err := s.prefs.SetLanguage(lang); err != nil {
		s.log.WithError(err).Warn("Failed to persist language")
		return err
	}
	return nil
}
