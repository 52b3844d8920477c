package models

import (
	"io"
	"time"
)

type Attachment struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"threadId"`
	MessageID string    `json:"messageId,omitempty"`
	FileName  string    `json:"fileName"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mimeType,omitempty"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

type Message struct {
	ID          string       `json:"id"`
	ThreadID    string       `json:"threadId"`
	SenderID    string       `json:"senderId"`
	Sender      *User        `json:"sender,omitempty"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ReadBy      []string     `json:"readBy,omitempty"`
	ClientID    string       `json:"clientId,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`

	// Pending marks a local placeholder not yet confirmed by the backend.
	Pending bool `json:"-"`
	// Failed marks a placeholder whose send was rejected.
	Failed bool `json:"-"`
}

// FileUpload is one file attached to an outgoing message.
type FileUpload struct {
	Name   string
	Reader io.Reader
}

// SendMessageInput is the payload of a chat send.
type SendMessageInput struct {
	ThreadID string       `json:"-" validate:"required"`
	Content  string       `json:"content" validate:"required_without=Files,max=4000"`
	ClientID string       `json:"clientId,omitempty"`
	Files    []FileUpload `json:"-"`
}
