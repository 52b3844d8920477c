package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/internal/api"
	"github.com/Dias221467/teachmate/internal/store"
	"github.com/Dias221467/teachmate/internal/syncer"
)

// ErrNotSignedIn is returned by mutations that need a current user.
var ErrNotSignedIn = errors.New("not signed in")

var validate = validator.New()

// Refresher is the part of the sync engine mutations need.
type Refresher interface {
	Refetch(resources ...syncer.Resource)
	OpenThread(threadID string)
	ActiveThreadID() string
}

// Validate checks v against its validate tags, reporting problems as an
// *api.ValidationError.
func Validate(v interface{}) error {
	return validateInput(v)
}

// validateInput checks v against its struct tags and flattens the result
// into a single readable error.
func validateInput(v interface{}, except ...string) error {
	var err error
	if len(except) > 0 {
		err = validate.StructExcept(v, except...)
	} else {
		err = validate.Struct(v)
	}
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return &api.ValidationError{Message: strings.Join(msgs, "; ")}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must have at least %s items or characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s items or characters", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// toaster raises success and failure toasts for mutations.
type toaster struct {
	store *store.Store
	log   *logrus.Entry
}

func (t toaster) success(msg string) {
	t.store.Dispatch(store.ToastRaised{Level: store.ToastSuccess, Message: msg})
}

func (t toaster) failure(action string, err error) {
	t.log.WithError(err).Warnf("%s failed", action)
	t.store.Dispatch(store.ToastRaised{Level: store.ToastError, Message: failureMessage(action, err)})
}

func failureMessage(action string, err error) string {
	var verr *api.ValidationError
	if errors.As(err, &verr) && verr.Message != "" {
		return verr.Message
	}
	var herr *api.HTTPError
	if errors.As(err, &herr) && herr.Message != "" {
		return fmt.Sprintf("%s failed: %s", action, herr.Message)
	}
	if errors.Is(err, api.ErrUnauthorized) {
		return "Your session has expired, please sign in again"
	}
	return fmt.Sprintf("%s failed", action)
}

func currentUserID(st *store.Store) (string, error) {
	u := st.State().User
	if u == nil {
		return "", ErrNotSignedIn
	}
	return u.ID, nil
}

func componentLog(log *logrus.Entry, name string) *logrus.Entry {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return log.WithField("component", name)
}
