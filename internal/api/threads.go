package api

import (
	"context"
	"net/url"

	"github.com/Dias221467/teachmate/internal/models"
)

func (c *Client) listThreads(ctx context.Context, path string) ([]models.Thread, error) {
	var threads []models.Thread
	if err := c.get(ctx, path, nil, &threads); err != nil {
		return nil, err
	}
	return models.NormalizeThreads(threads), nil
}

// ListThreads returns direct threads with friends.
func (c *Client) ListThreads(ctx context.Context) ([]models.Thread, error) {
	return c.listThreads(ctx, "/threads")
}

// ListStrangerThreads returns direct threads with non-friends.
func (c *Client) ListStrangerThreads(ctx context.Context) ([]models.Thread, error) {
	return c.listThreads(ctx, "/threads/strangers")
}

func (c *Client) ListGroups(ctx context.Context) ([]models.Thread, error) {
	return c.listThreads(ctx, "/threads/groups")
}

func (c *Client) GetThread(ctx context.Context, id string) (*models.ThreadDetail, error) {
	var d models.ThreadDetail
	if err := c.get(ctx, "/threads/"+url.PathEscape(id), nil, &d); err != nil {
		return nil, err
	}
	d = models.NormalizeThreadDetail(d)
	return &d, nil
}

func (c *Client) CreateGroup(ctx context.Context, in models.CreateGroupInput) (*models.Thread, error) {
	var t models.Thread
	if err := c.post(ctx, "/threads/groups", in, &t); err != nil {
		return nil, err
	}
	t = models.NormalizeThread(t)
	return &t, nil
}

func (c *Client) JoinGroup(ctx context.Context, id string) error {
	return c.post(ctx, "/threads/groups/"+url.PathEscape(id)+"/join", nil, nil)
}

func (c *Client) LeaveGroup(ctx context.Context, id string) error {
	return c.post(ctx, "/threads/groups/"+url.PathEscape(id)+"/leave", nil, nil)
}

func (c *Client) ListAttachments(ctx context.Context, threadID string) ([]models.Attachment, error) {
	var atts []models.Attachment
	if err := c.get(ctx, "/threads/"+url.PathEscape(threadID)+"/attachments", nil, &atts); err != nil {
		return nil, err
	}
	return atts, nil
}
