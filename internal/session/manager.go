package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dias221467/teachmate/pkg/jwt"
)

const saveTimeout = 5 * time.Second

// Manager caches the session in memory and writes every change through to
// its Store. It satisfies api.TokenStore.
type Manager struct {
	store Store
	log   *logrus.Entry
	now   func() time.Time

	mu        sync.RWMutex
	current   Session
	onCleared func()
}

func NewManager(store Store, log *logrus.Entry) *Manager {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{store: store, log: log.WithField("component", "session"), now: time.Now}
}

// Load reads the saved session. A stored JWT whose exp has passed is dropped;
// tokens that are not JWTs are kept as they are.
func (m *Manager) Load(ctx context.Context) error {
	s, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	if s.Token != "" {
		if claims, perr := jwt.ParseUnverified(s.Token); perr == nil && claims.Expired(m.now()) {
			m.log.Info("Stored token expired, discarding")
			s.Token = ""
			s.UpdatedAt = m.now()
			if err := m.store.Save(ctx, s); err != nil {
				return err
			}
		}
	}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}

// OnCleared registers fn to run when the token is cleared by ClearToken.
func (m *Manager) OnCleared(fn func()) {
	m.mu.Lock()
	m.onCleared = fn
	m.mu.Unlock()
}

func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Token
}

func (m *Manager) SetToken(token string) {
	m.update(func(s *Session) { s.Token = token })
}

// ClearToken forgets the token after the backend rejected it. Nothing happens
// unless rejected is still the held token, so a late rejection of an old
// token cannot sign out a newer session. The OnCleared callback runs only
// when a token was actually cleared.
func (m *Manager) ClearToken(rejected string) {
	m.mu.RLock()
	fn := m.onCleared
	m.mu.RUnlock()

	cleared, _ := m.updateIf(func(s *Session) bool {
		if s.Token == "" || s.Token != rejected {
			return false
		}
		s.Token = ""
		return true
	})
	if cleared && fn != nil {
		fn()
	}
}

// Forget drops the token on a user-initiated sign-out. No callback runs.
func (m *Manager) Forget() {
	m.update(func(s *Session) { s.Token = "" })
}

func (m *Manager) Language() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Language
}

func (m *Manager) SetLanguage(lang string) error {
	return m.update(func(s *Session) { s.Language = lang })
}

func (m *Manager) update(fn func(s *Session)) error {
	_, err := m.updateIf(func(s *Session) bool {
		fn(s)
		return true
	})
	return err
}

// updateIf persists the session only when fn reports a change.
func (m *Manager) updateIf(fn func(s *Session) bool) (bool, error) {
	m.mu.Lock()
	if !fn(&m.current) {
		m.mu.Unlock()
		return false, nil
	}
	m.current.UpdatedAt = m.now()
	snap := m.current
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := m.store.Save(ctx, snap); err != nil {
		m.log.WithError(err).Error("Failed to persist session")
		return true, err
	}
	return true, nil
}
