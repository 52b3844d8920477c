package api

import (
	"context"
	"net/url"

	"github.com/Dias221467/teachmate/internal/models"
)

func (c *Client) SuggestFriends(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.get(ctx, "/friends/suggestions", nil, &users); err != nil {
		return nil, err
	}
	return models.NormalizeUsers(users), nil
}

func (c *Client) SendFriendRequest(ctx context.Context, userID string) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := c.post(ctx, "/friends/requests", map[string]string{"userId": userID}, &req); err != nil {
		return nil, err
	}
	req.Requester = models.NormalizeUser(req.Requester)
	return &req, nil
}

func (c *Client) AcceptFriendRequest(ctx context.Context, requestID string) error {
	return c.post(ctx, "/friends/requests/"+url.PathEscape(requestID)+"/accept", nil, nil)
}

func (c *Client) RejectFriendRequest(ctx context.Context, requestID string) error {
	return c.post(ctx, "/friends/requests/"+url.PathEscape(requestID)+"/reject", nil, nil)
}

func (c *Client) ListFriends(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.get(ctx, "/friends", nil, &users); err != nil {
		return nil, err
	}
	return models.NormalizeUsers(users), nil
}

func (c *Client) ListFriendRequests(ctx context.Context) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if err := c.get(ctx, "/friends/requests", nil, &reqs); err != nil {
		return nil, err
	}
	return models.NormalizeFriendRequests(reqs), nil
}
