package models

import "time"

// Notification type tags emitted by the backend.
const (
	NotifyFriendRequest  = "friend_request"
	NotifyFriendAccepted = "friend_accepted"
	NotifyMessage        = "message"
	NotifyPoll           = "poll"
	NotifySchedule       = "schedule"
	NotifyGroupInvite    = "group_invite"
)

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	TargetID  string    `json:"targetId,omitempty"` // thread, poll, schedule or user
	CreatedAt time.Time `json:"createdAt"`
}
