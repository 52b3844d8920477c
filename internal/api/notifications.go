package api

import (
	"context"
	"net/url"

	"github.com/Dias221467/teachmate/internal/models"
)

func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var list []models.Notification
	if err := c.get(ctx, "/notifications", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.post(ctx, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.post(ctx, "/notifications/read-all", nil, nil)
}
