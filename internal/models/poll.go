package models

import "time"

type PollOption struct {
	ID     string   `json:"id"`
	Text   string   `json:"text"`
	Voters []string `json:"voters"`
}

type Poll struct {
	ID             string       `json:"id"`
	ThreadID       string       `json:"threadId"`
	CreatorID      string       `json:"creatorId"`
	Question       string       `json:"question"`
	Options        []PollOption `json:"options"`
	MultipleChoice bool         `json:"multipleChoice"`
	ClosesAt       *time.Time   `json:"closesAt,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// VotedBy returns the option ids userID voted for.
func (p Poll) VotedBy(userID string) []string {
	var ids []string
	for _, o := range p.Options {
		for _, v := range o.Voters {
			if v == userID {
				ids = append(ids, o.ID)
				break
			}
		}
	}
	return ids
}

type CreatePollInput struct {
	ThreadID       string     `json:"threadId" validate:"required"`
	Question       string     `json:"question" validate:"required,max=300"`
	Options        []string   `json:"options" validate:"min=2,max=10,dive,required,max=120"`
	MultipleChoice bool       `json:"multipleChoice"`
	ClosesAt       *time.Time `json:"closesAt,omitempty"`
}
