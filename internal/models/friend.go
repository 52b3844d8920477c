package models

import "time"

const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// FriendRequest is an incoming request addressed to the signed-in user.
type FriendRequest struct {
	ID          string    `json:"id"`
	Requester   User      `json:"requester"`
	RecipientID string    `json:"recipientId"`
	Status      string    `json:"status"` // "pending", "accepted", "rejected"
	CreatedAt   time.Time `json:"createdAt"`
}
