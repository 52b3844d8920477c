package api

import (
	"context"
	"net/url"

	"github.com/Dias221467/teachmate/internal/models"
)

func (c *Client) CreateSchedule(ctx context.Context, in models.CreateScheduleInput) (*models.Schedule, error) {
	var s models.Schedule
	if err := c.post(ctx, "/schedules", in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListMySchedules returns schedules the signed-in user created or joined.
func (c *Client) ListMySchedules(ctx context.Context) ([]models.Schedule, error) {
	var list []models.Schedule
	if err := c.get(ctx, "/schedules", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) ListThreadSchedules(ctx context.Context, threadID string) ([]models.Schedule, error) {
	var list []models.Schedule
	if err := c.get(ctx, "/threads/"+url.PathEscape(threadID)+"/schedules", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) JoinSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var s models.Schedule
	if err := c.post(ctx, "/schedules/"+url.PathEscape(id)+"/join", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) LeaveSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var s models.Schedule
	if err := c.post(ctx, "/schedules/"+url.PathEscape(id)+"/leave", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var s models.Schedule
	if err := c.get(ctx, "/schedules/"+url.PathEscape(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
