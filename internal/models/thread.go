package models

import "time"

// ThreadType distinguishes the three kinds of conversation.
type ThreadType string

const (
	ThreadFriend   ThreadType = "friend"   // direct, with a friend
	ThreadStranger ThreadType = "stranger" // direct, with a non-friend
	ThreadGroup    ThreadType = "group"
)

// IsDirect reports whether the thread has exactly two parties.
func (t ThreadType) IsDirect() bool {
	return t == ThreadFriend || t == ThreadStranger
}

type MessageSummary struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Thread struct {
	ID          string          `json:"id"`
	Type        ThreadType      `json:"type"`
	Name        string          `json:"name,omitempty"`
	AvatarURL   string          `json:"avatarUrl,omitempty"`
	Members     []User          `json:"members"`
	LastMessage *MessageSummary `json:"lastMessage,omitempty"`
	UnreadCount int             `json:"unreadCount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// HasMember reports whether userID participates in the thread.
func (t Thread) HasMember(userID string) bool {
	for _, m := range t.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// ThreadDetail is a thread with its transcript.
type ThreadDetail struct {
	Thread   Thread    `json:"thread"`
	Messages []Message `json:"messages"`
}

type CreateGroupInput struct {
	Name      string   `json:"name" validate:"required,max=80"`
	MemberIDs []string `json:"memberIds" validate:"dive,required"`
}
