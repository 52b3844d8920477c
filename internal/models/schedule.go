package models

import "time"

type Schedule struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"threadId,omitempty"`
	CreatorID    string    `json:"creatorId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	StartsAt     time.Time `json:"startsAt"`
	EndsAt       time.Time `json:"endsAt"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasParticipant reports whether userID joined the schedule.
func (s Schedule) HasParticipant(userID string) bool {
	for _, p := range s.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

type CreateScheduleInput struct {
	ThreadID    string    `json:"threadId,omitempty"`
	Title       string    `json:"title" validate:"required,max=120"`
	Description string    `json:"description,omitempty" validate:"max=2000"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
	EndsAt      time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
}
