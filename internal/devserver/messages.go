package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/Dias221467/teachmate/internal/models"
	"github.com/Dias221467/teachmate/internal/push"
)

const maxMessageLength = 4000

// Upload is one file received with a message.
type Upload struct {
	Name     string
	MimeType string
	Data     []byte
}

// NewMessage is a message as received from a client.
type NewMessage struct {
	Content  string
	ClientID string
	Files    []Upload
}

// SendMessage appends a message to the thread and notifies the other members.
func (b *Backend) SendMessage(senderID, threadID string, in NewMessage) (models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && len(in.Files) == 0 {
		return models.Message{}, invalid("Message cannot be empty")
	}
	if len(content) > maxMessageLength {
		return models.Message{}, invalid("Message must be at most %d characters", maxMessageLength)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.memberThread(senderID, threadID)
	if err != nil {
		return models.Message{}, err
	}

	now := b.now()
	msg := models.Message{
		ID:        newID(),
		ThreadID:  t.id,
		SenderID:  senderID,
		Content:   content,
		ClientID:  in.ClientID,
		ReadBy:    []string{senderID},
		CreatedAt: now,
	}
	for _, f := range in.Files {
		mime := f.MimeType
		if mime == "" {
			mime = http.DetectContentType(f.Data)
		}
		id := newID()
		b.files[id] = StoredFile{Name: f.Name, MimeType: mime, Data: f.Data}
		att := models.Attachment{
			ID:        id,
			ThreadID:  t.id,
			MessageID: msg.ID,
			FileName:  f.Name,
			URL:       strings.TrimRight(b.fileURL, "/") + "/" + id,
			MimeType:  mime,
			Size:      int64(len(f.Data)),
			CreatedAt: now,
		}
		msg.Attachments = append(msg.Attachments, att)
		b.attachments[t.id] = append(b.attachments[t.id], att)
	}

	b.messages[t.id] = append(b.messages[t.id], msg)
	t.updatedAt = now
	if b.lastRead[senderID] == nil {
		b.lastRead[senderID] = map[string]time.Time{}
	}
	b.lastRead[senderID][t.id] = now

	sender := b.publicUser(senderID)
	preview := content
	if preview == "" {
		preview = "Sent an attachment"
	}
	var others []string
	for _, m := range t.members {
		if m == senderID {
			continue
		}
		others = append(others, m)
		b.notify(m, models.Notification{
			Type:     models.NotifyMessage,
			Title:    "New message from " + sender.Username,
			Body:     preview,
			TargetID: t.id,
		})
	}
	b.publisher.Publish(t.members, push.Event{Type: push.MessageCreated, ThreadID: t.id, TargetID: msg.ID})
	b.log.WithField("thread_id", t.id).WithField("recipients", len(others)).Debug("Message stored")

	out := msg
	out.Sender = &sender
	return out, nil
}

// DeleteMessage removes a message sent by userID together with its files.
func (b *Backend) DeleteMessage(userID, messageID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for tid, msgs := range b.messages {
		for i, m := range msgs {
			if m.ID != messageID {
				continue
			}
			if m.SenderID != userID {
				return ErrNotFound
			}
			b.messages[tid] = append(msgs[:i:i], msgs[i+1:]...)

			kept := b.attachments[tid][:0]
			for _, a := range b.attachments[tid] {
				if a.MessageID == messageID {
					delete(b.files, a.ID)
					continue
				}
				kept = append(kept, a)
			}
			b.attachments[tid] = kept

			b.publisher.Publish(b.threads[tid].members, push.Event{Type: push.MessageCreated, ThreadID: tid, TargetID: messageID})
			return nil
		}
	}
	return ErrNotFound
}

func (b *Backend) Attachments(viewerID, threadID string) ([]models.Attachment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.memberThread(viewerID, threadID); err != nil {
		return nil, err
	}
	return append([]models.Attachment{}, b.attachments[threadID]...), nil
}

// File returns an uploaded file by attachment id.
func (b *Backend) File(id string) (StoredFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.files[id]
	if !ok {
		return StoredFile{}, ErrNotFound
	}
	return f, nil
}
