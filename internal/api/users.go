package api

import (
	"context"
	"net/url"

	"github.com/Dias221467/teachmate/internal/models"
)

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.get(ctx, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	u = models.NormalizeUser(u)
	return &u, nil
}

func (c *Client) UpdateMe(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	var u models.User
	if err := c.patch(ctx, "/users/me", update, &u); err != nil {
		return nil, err
	}
	u = models.NormalizeUser(u)
	return &u, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := c.get(ctx, "/users/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	u = models.NormalizeUser(u)
	return &u, nil
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	if err := c.get(ctx, "/users/search", url.Values{"q": {query}}, &users); err != nil {
		return nil, err
	}
	return models.NormalizeUsers(users), nil
}

func (c *Client) ReportUser(ctx context.Context, id string, report models.Report) error {
	return c.post(ctx, "/users/"+url.PathEscape(id)+"/report", report, nil)
}
