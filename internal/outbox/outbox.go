// Package outbox tracks messages sent from this client until a fetched
// transcript confirms them. Entries are never given up on: a failed send stays
// visible as failed until it is retried or discarded.
package outbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dias221467/teachmate/internal/models"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

var ErrNotFound = errors.New("outbox entry not found")

// File is an attachment buffered so that a failed send can be retried.
type File struct {
	Name string
	Data []byte
}

// Draft is what the user asked to send.
type Draft struct {
	SenderID    string
	RecipientID string // direct conversation not created yet
	ThreadID    string
	Content     string
	Files       []models.FileUpload
}

// Entry is one outgoing message.
type Entry struct {
	ClientID    string
	SenderID    string
	RecipientID string
	ThreadID    string
	Content     string
	Files       []File
	Status      Status
	Err         string
	Attempts    int
	ServerID    string
	CreatedAt   time.Time
}

// Uploads returns fresh readers over the buffered files.
func (e Entry) Uploads() []models.FileUpload {
	if len(e.Files) == 0 {
		return nil
	}
	out := make([]models.FileUpload, len(e.Files))
	for i, f := range e.Files {
		out[i] = models.FileUpload{Name: f.Name, Reader: bytes.NewReader(f.Data)}
	}
	return out
}

// Placeholder renders the entry as a local transcript item.
func (e Entry) Placeholder() models.Message {
	m := models.Message{
		ID:        e.ServerID,
		ThreadID:  e.ThreadID,
		SenderID:  e.SenderID,
		Content:   e.Content,
		ClientID:  e.ClientID,
		CreatedAt: e.CreatedAt,
		Pending:   true,
		Failed:    e.Status == StatusFailed,
	}
	for _, f := range e.Files {
		m.Attachments = append(m.Attachments, models.Attachment{ThreadID: e.ThreadID, FileName: f.Name, Size: int64(len(f.Data))})
	}
	return m
}

// Outbox is safe for concurrent use. onChange receives the placeholders after
// every change.
type Outbox struct {
	mu       sync.Mutex
	entries  []*Entry
	now      func() time.Time
	onChange func([]models.Message)
}

func New(onChange func([]models.Message)) *Outbox {
	return &Outbox{now: time.Now, onChange: onChange}
}

// Enqueue buffers the draft's files and records a pending entry.
func (o *Outbox) Enqueue(d Draft) (Entry, error) {
	e := &Entry{
		ClientID:    uuid.NewString(),
		SenderID:    d.SenderID,
		RecipientID: d.RecipientID,
		ThreadID:    d.ThreadID,
		Content:     d.Content,
		Status:      StatusPending,
		Attempts:    1,
		CreatedAt:   o.now(),
	}
	for _, f := range d.Files {
		data, err := io.ReadAll(f.Reader)
		if err != nil {
			return Entry{}, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		e.Files = append(e.Files, File{Name: f.Name, Data: data})
	}

	o.mu.Lock()
	o.entries = append(o.entries, e)
	snap := *e
	o.mu.Unlock()

	o.changed()
	return snap, nil
}

// AssignThread binds an entry to the thread resolved for its recipient.
func (o *Outbox) AssignThread(clientID, threadID string) error {
	return o.update(clientID, func(e *Entry) {
		e.ThreadID = threadID
	})
}

// MarkSent records the backend's message id for the entry. The entry stays
// until a transcript fetch reconciles it.
func (o *Outbox) MarkSent(clientID string, msg models.Message) error {
	return o.update(clientID, func(e *Entry) {
		e.Status = StatusSent
		e.Err = ""
		e.ServerID = msg.ID
		if e.ThreadID == "" {
			e.ThreadID = msg.ThreadID
		}
	})
}

func (o *Outbox) MarkFailed(clientID string, cause error) error {
	return o.update(clientID, func(e *Entry) {
		e.Status = StatusFailed
		if cause != nil {
			e.Err = cause.Error()
		}
	})
}

// Retry moves a failed entry back to pending and returns it for resending.
func (o *Outbox) Retry(clientID string) (Entry, error) {
	var snap Entry
	err := o.update(clientID, func(e *Entry) {
		e.Status = StatusPending
		e.Err = ""
		e.Attempts++
		snap = *e
	})
	return snap, err
}

func (o *Outbox) Discard(clientID string) error {
	o.mu.Lock()
	idx := o.index(clientID)
	if idx < 0 {
		o.mu.Unlock()
		return ErrNotFound
	}
	o.entries = append(o.entries[:idx], o.entries[idx+1:]...)
	o.mu.Unlock()
	o.changed()
	return nil
}

// Clear drops every entry, e.g. on sign-out.
func (o *Outbox) Clear() {
	o.mu.Lock()
	o.entries = nil
	o.mu.Unlock()
	o.changed()
}

func (o *Outbox) Get(clientID string) (Entry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	idx := o.index(clientID)
	if idx < 0 {
		return Entry{}, false
	}
	return *o.entries[idx], true
}

// Entries returns every entry, oldest first.
func (o *Outbox) Entries() []Entry {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Entry, len(o.entries))
	for i, e := range o.entries {
		out[i] = *e
	}
	return out
}

// Placeholders returns local transcript items, oldest first.
func (o *Outbox) Placeholders() []models.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Message, len(o.entries))
	for i, e := range o.entries {
		out[i] = e.Placeholder()
	}
	return out
}

// Reconcile removes entries of threadID that the confirmed transcript
// contains and returns their client ids. A message matches an entry by client
// id, by backend id, or, when the backend dropped the client id, by the same
// sender and content created no earlier than the entry. Each confirmed message
// matches at most one entry, oldest entry first.
func (o *Outbox) Reconcile(threadID string, confirmed []models.Message) []string {
	msgs := make([]models.Message, len(confirmed))
	copy(msgs, confirmed)
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})

	used := make([]bool, len(msgs))
	var done []string

	o.mu.Lock()
	kept := o.entries[:0:0]
	for _, e := range o.entries {
		if e.ThreadID != threadID || !claim(e, msgs, used) {
			kept = append(kept, e)
			continue
		}
		done = append(done, e.ClientID)
	}
	o.entries = kept
	o.mu.Unlock()

	if len(done) > 0 {
		o.changed()
	}
	return done
}

// ReconcileListed removes sent entries whose backend id is the last message
// of a listed thread. Thread lists keep running while no transcript is open.
func (o *Outbox) ReconcileListed(threads []models.Thread) []string {
	last := make(map[string]string, len(threads))
	for _, t := range threads {
		if t.LastMessage != nil && t.LastMessage.ID != "" {
			last[t.ID] = t.LastMessage.ID
		}
	}
	if len(last) == 0 {
		return nil
	}

	var done []string
	o.mu.Lock()
	kept := o.entries[:0:0]
	for _, e := range o.entries {
		if e.Status == StatusSent && e.ServerID != "" && last[e.ThreadID] == e.ServerID {
			done = append(done, e.ClientID)
			continue
		}
		kept = append(kept, e)
	}
	o.entries = kept
	o.mu.Unlock()

	if len(done) > 0 {
		o.changed()
	}
	return done
}

func claim(e *Entry, msgs []models.Message, used []bool) bool {
	for i, m := range msgs {
		if used[i] {
			continue
		}
		if (m.ClientID != "" && m.ClientID == e.ClientID) || (e.ServerID != "" && m.ID == e.ServerID) {
			used[i] = true
			return true
		}
	}
	for i, m := range msgs {
		if used[i] || m.ClientID != "" {
			continue
		}
		if m.SenderID == e.SenderID && m.Content == e.Content && !m.CreatedAt.Before(e.CreatedAt.Truncate(time.Second)) {
			used[i] = true
			return true
		}
	}
	return false
}

func (o *Outbox) update(clientID string, fn func(e *Entry)) error {
	o.mu.Lock()
	idx := o.index(clientID)
	if idx < 0 {
		o.mu.Unlock()
		return ErrNotFound
	}
	fn(o.entries[idx])
	o.mu.Unlock()
	o.changed()
	return nil
}

func (o *Outbox) index(clientID string) int {
	for i, e := range o.entries {
		if e.ClientID == clientID {
			return i
		}
	}
	return -1
}

func (o *Outbox) changed() {
	if o.onChange != nil {
		o.onChange(o.Placeholders())
	}
}
