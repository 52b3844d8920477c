package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/Dias221467/teachmate/internal/models"
)

// SendMessage posts a message. Files switch the request to multipart/form-data
// with "content", "clientId" and one "files" part per upload.
func (c *Client) SendMessage(ctx context.Context, in models.SendMessageInput) (*models.Message, error) {
	path := "/threads/" + url.PathEscape(in.ThreadID) + "/messages"
	var msg models.Message

	if len(in.Files) == 0 {
		if err := c.post(ctx, path, in, &msg); err != nil {
			return nil, err
		}
		msg = models.NormalizeMessage(msg)
		return &msg, nil
	}

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if err := w.WriteField("content", in.Content); err != nil {
		return nil, fmt.Errorf("failed to write content field: %w", err)
	}
	if in.ClientID != "" {
		if err := w.WriteField("clientId", in.ClientID); err != nil {
			return nil, fmt.Errorf("failed to write clientId field: %w", err)
		}
	}
	for _, f := range in.Files {
		part, err := w.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, fmt.Errorf("failed to copy file %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	if err := c.do(ctx, http.MethodPost, path, body, w.FormDataContentType(), &msg); err != nil {
		return nil, err
	}
	msg = models.NormalizeMessage(msg)
	return &msg, nil
}

func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	return c.delete(ctx, "/messages/"+url.PathEscape(messageID), nil)
}

// GetOrCreateDirectThread returns the one direct thread between the signed-in
// user and userID, creating it if needed.
func (c *Client) GetOrCreateDirectThread(ctx context.Context, userID string) (*models.Thread, error) {
	var t models.Thread
	if err := c.post(ctx, "/threads/direct", map[string]string{"userId": userID}, &t); err != nil {
		return nil, err
	}
	t = models.NormalizeThread(t)
	return &t, nil
}
