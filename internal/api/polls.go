package api

import (
	"context"
	"net/url"

	"github.com/Dias221467/teachmate/internal/models"
)

func (c *Client) CreatePoll(ctx context.Context, in models.CreatePollInput) (*models.Poll, error) {
	var p models.Poll
	if err := c.post(ctx, "/polls", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) GetPoll(ctx context.Context, id string) (*models.Poll, error) {
	var p models.Poll
	if err := c.get(ctx, "/polls/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Vote returns the poll as tallied by the backend.
func (c *Client) Vote(ctx context.Context, pollID, optionID string) (*models.Poll, error) {
	var p models.Poll
	if err := c.post(ctx, "/polls/"+url.PathEscape(pollID)+"/votes", map[string]string{"optionId": optionID}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) RemoveVote(ctx context.Context, pollID, optionID string) (*models.Poll, error) {
	var p models.Poll
	if err := c.delete(ctx, "/polls/"+url.PathEscape(pollID)+"/votes/"+url.PathEscape(optionID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListThreadPolls(ctx context.Context, threadID string) ([]models.Poll, error) {
	var polls []models.Poll
	if err := c.get(ctx, "/threads/"+url.PathEscape(threadID)+"/polls", nil, &polls); err != nil {
		return nil, err
	}
	return polls, nil
}
