// Package app wires the client together: session, API client, store, sync
// engine, push listener, services and the reminder job.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Dias221467/teachmate/internal/api"
	"github.com/Dias221467/teachmate/internal/config"
	"github.com/Dias221467/teachmate/internal/database"
	"github.com/Dias221467/teachmate/internal/jobs"
	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/outbox"
	"github.com/Dias221467/teachmate/internal/push"
	"github.com/Dias221467/teachmate/internal/repository"
	"github.com/Dias221467/teachmate/internal/scheduler"
	"github.com/Dias221467/teachmate/internal/services"
	"github.com/Dias221467/teachmate/internal/session"
	"github.com/Dias221467/teachmate/internal/store"
	"github.com/Dias221467/teachmate/internal/syncer"
)

// ErrLoginRequired means there is no usable session and the user has to sign
// in again.
var ErrLoginRequired = errors.New("login required")

// App is one running client.
type App struct {
	Config   *config.Config
	Session  *session.Manager
	API      *api.Client
	Store    *store.Store
	Outbox   *outbox.Outbox
	Sync     *syncer.Engine
	Push     *push.Listener
	Cron     *scheduler.Cron
	Reminder *jobs.ScheduleReminder

	Chat          *services.ChatService
	Friends       *services.FriendService
	Notifications *services.NotificationService
	Polls         *services.PollService
	Schedules     *services.ScheduleService
	Groups        *services.GroupService
	Users         *services.UserService

	log *logrus.Entry

	pushMu     sync.Mutex
	pushCancel context.CancelFunc
	pushDone   chan struct{}

	mongo *mongo.Client
}

// New builds the client from cfg. The session lives in MongoDB when
// MongoURI is set and in SessionFile otherwise.
func New(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*App, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	var sessions session.Store = session.NewFileStore(cfg.SessionFile)
	var client *mongo.Client
	if cfg.MongoURI != "" {
		c, db, err := database.ConnectDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		client = c
		sessions = repository.NewSessionRepository(db, "")
	}

	a := Build(cfg, sessions, log)
	a.mongo = client
	return a, nil
}

// Build wires every component around an existing session store.
func Build(cfg *config.Config, sessions session.Store, log *logrus.Entry) *App {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	a := &App{Config: cfg, log: log.WithField("component", "app")}
	a.Session = session.NewManager(sessions, log)
	a.API = api.NewClient(cfg.APIBaseURL, a.Session, cfg.RequestTimeout, log)
	a.Store = store.New(cfg.Language, log)
	a.Outbox = outbox.New(func(pending []models.Message) {
		a.Store.Dispatch(store.PendingChanged{Messages: pending})
	})
	a.Sync = syncer.New(a.API, a.Store, a.Outbox, cfg, log)

	a.Chat = services.NewChatService(a.API, a.Store, a.Outbox, a.Sync, log)
	a.Friends = services.NewFriendService(a.API, a.Store, a.Sync, log)
	a.Notifications = services.NewNotificationService(a.API, a.Store, a.Sync, log)
	a.Polls = services.NewPollService(a.API, a.Store, a.Sync, log)
	a.Schedules = services.NewScheduleService(a.API, a.Store, a.Sync, log)
	a.Groups = services.NewGroupService(a.API, a.Store, a.Sync, log)
	a.Users = services.NewUserService(a.API, a.Store, a.Session, log)

	a.Push = push.NewListener(cfg.PushURL, a.Session, a.Sync, log)
	a.Cron = scheduler.New(log)
	a.Reminder = jobs.NewScheduleReminder(a.Store, cfg.ReminderWindow, log)
	if err := a.Cron.AddReminder(a.Reminder); err != nil {
		a.log.WithError(err).Warn("Schedule reminders disabled")
	}

	// The token is cleared from inside an API call, possibly on a poller
	// goroutine that Sync.Stop waits for.
	a.Session.OnCleared(func() { go a.forcedSignOut() })
	return a
}

// Start restores the previous session: with a stored token it loads the
// current user and starts syncing. It returns ErrLoginRequired when there is
// no token or the backend rejects it.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Load(ctx); err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if lang := a.Session.Language(); lang != "" {
		a.Store.Dispatch(store.LanguageChanged{Language: lang})
	}
	a.Cron.Start()

	if a.Session.Token() == "" {
		return ErrLoginRequired
	}
	me, err := a.API.Me(ctx)
	if errors.Is(err, api.ErrUnauthorized) {
		return ErrLoginRequired
	}
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	a.signIn(*me)
	return nil
}

// Login signs in with email and password.
func (a *App) Login(ctx context.Context, email, password string) (*models.User, error) {
	res, err := a.API.Login(ctx, email, password)
	if err != nil {
		a.log.WithError(err).Warn("Login failed")
		return nil, err
	}
	a.signIn(res.User)
	return &res.User, nil
}

// Register creates an account and signs in with it.
func (a *App) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	if err := services.Validate(in); err != nil {
		return nil, err
	}
	res, err := a.API.Register(ctx, in)
	if err != nil {
		a.log.WithError(err).Warn("Registration failed")
		return nil, err
	}
	a.signIn(res.User)
	return &res.User, nil
}

// Logout ends the session on request. Unsent messages are dropped.
func (a *App) Logout() {
	a.stopPush()
	a.Sync.Stop()
	a.Session.Forget()
	a.Outbox.Clear()
	a.Store.Dispatch(store.SignedOut{})
	a.log.Info("Signed out")
}

// RequireAuth reports ErrLoginRequired unless a user is signed in.
func (a *App) RequireAuth() error {
	if !a.Store.State().Authenticated() || a.Session.Token() == "" {
		return ErrLoginRequired
	}
	return nil
}

// Close stops every background task and releases the session store.
func (a *App) Close(ctx context.Context) error {
	a.stopPush()
	a.Sync.Close()
	a.Cron.Stop()
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
		}
	}
	return nil
}

func (a *App) signIn(u models.User) {
	a.Store.Dispatch(store.SignedIn{User: u})
	a.Sync.Start()
	a.startPush()
	a.log.WithField("user_id", u.ID).Info("Signed in")
}

func (a *App) forcedSignOut() {
	a.stopPush()
	a.Sync.Stop()
	a.Store.Dispatch(store.SignedOut{})
	a.Store.Dispatch(store.ToastRaised{Level: store.ToastError, Message: "Session expired, please sign in again"})
	a.log.Warn("Session rejected by backend, signed out")
}

func (a *App) startPush() {
	a.pushMu.Lock()
	defer a.pushMu.Unlock()
	if a.pushCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.pushCancel, a.pushDone = cancel, done
	go func() {
		defer close(done)
		_ = a.Push.Run(ctx)
	}()
}

func (a *App) stopPush() {
	a.pushMu.Lock()
	cancel, done := a.pushCancel, a.pushDone
	a.pushCancel, a.pushDone = nil, nil
	a.pushMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
