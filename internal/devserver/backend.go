// Package devserver is an in-memory TeachMate backend used for local
// development and integration tests. It holds every rule the real backend
// enforces that the client depends on.
package devserver

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/push"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError is a rejected request that the HTTP layer reports with
// success=false.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Publisher delivers push events to connected users. It must not block.
type Publisher interface {
	Publish(userIDs []string, ev push.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish([]string, push.Event) {}

// onlineWindow is how recently a user must have made a request to be online.
const onlineWindow = 5 * time.Minute

type account struct {
	models.User
	passwordHash []byte
}

type friendRequest struct {
	id        string
	from      string
	to        string
	status    string
	createdAt time.Time
}

type thread struct {
	id        string
	group     bool
	name      string
	avatarURL string
	createdBy string
	members   []string
	createdAt time.Time
	updatedAt time.Time
}

func (t *thread) hasMember(userID string) bool {
	for _, m := range t.members {
		if m == userID {
			return true
		}
	}
	return false
}

type StoredFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// ReportRecord is a moderation report kept by the backend.
type ReportRecord struct {
	ID         string
	ReporterID string
	TargetID   string
	Report     models.Report
	CreatedAt  time.Time
}

// Backend is the complete in-memory state. All methods are safe for
// concurrent use.
type Backend struct {
	mu sync.Mutex

	users    map[string]*account
	byEmail  map[string]string
	friends  map[string]map[string]bool
	requests map[string]*friendRequest

	threads     map[string]*thread
	direct      map[string]string
	messages    map[string][]models.Message
	attachments map[string][]models.Attachment
	files       map[string]StoredFile
	lastRead    map[string]map[string]time.Time

	polls         map[string]*models.Poll
	schedules     map[string]*models.Schedule
	notifications map[string][]*models.Notification
	reports       []ReportRecord

	publisher Publisher
	fileURL   string
	hashCost  int
	now       func() time.Time
	log       *logrus.Entry
}

// NewBackend returns an empty backend. fileURL is the public prefix of
// uploaded files, e.g. "http://localhost:8080/api/files".
func NewBackend(fileURL string, log *logrus.Entry) *Backend {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Backend{
		users:         map[string]*account{},
		byEmail:       map[string]string{},
		friends:       map[string]map[string]bool{},
		requests:      map[string]*friendRequest{},
		threads:       map[string]*thread{},
		direct:        map[string]string{},
		messages:      map[string][]models.Message{},
		attachments:   map[string][]models.Attachment{},
		files:         map[string]StoredFile{},
		lastRead:      map[string]map[string]time.Time{},
		polls:         map[string]*models.Poll{},
		schedules:     map[string]*models.Schedule{},
		notifications: map[string][]*models.Notification{},
		publisher:     nopPublisher{},
		fileURL:       fileURL,
		hashCost:      bcrypt.DefaultCost,
		now:           func() time.Time { return time.Now().UTC() },
		log:           log.WithField("component", "devserver"),
	}
}

// SetPublisher routes push events to p.
func (b *Backend) SetPublisher(p Publisher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p == nil {
		p = nopPublisher{}
	}
	b.publisher = p
}

// SetFileURL changes the prefix used for new attachment URLs.
func (b *Backend) SetFileURL(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fileURL = url
}

func newID() string { return uuid.NewString() }

// pairKey identifies an unordered pair of users.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

func (b *Backend) areFriends(a, c string) bool {
	return b.friends[a][c]
}

// publicUser returns the profile as other users see it.
func (b *Backend) publicUser(id string) models.User {
	acc, ok := b.users[id]
	if !ok {
		return models.User{ID: id}
	}
	u := acc.User
	u.Email = ""
	u.Online = !u.LastActiveAt.IsZero() && b.now().Sub(u.LastActiveAt) < onlineWindow
	u.Subjects = append([]string(nil), u.Subjects...)
	return u
}

func (b *Backend) selfUser(id string) models.User {
	u := b.publicUser(id)
	u.Email = b.users[id].Email
	return u
}

func (b *Backend) notify(userID string, n models.Notification) {
	n.ID = newID()
	n.CreatedAt = b.now()
	b.notifications[userID] = append(b.notifications[userID], &n)
	b.publisher.Publish([]string{userID}, push.Event{Type: push.NotificationCreated, TargetID: n.TargetID})
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Username != users[j].Username {
			return users[i].Username < users[j].Username
		}
		return users[i].ID < users[j].ID
	})
}

// SetHashCost overrides the bcrypt cost of new passwords.
func (b *Backend) SetHashCost(cost int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hashCost = cost
}
