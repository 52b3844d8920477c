package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TokenStore holds the bearer token presented on every request.
type TokenStore interface {
	Token() string
	SetToken(token string)
	// ClearToken is called with the token the backend rejected. It must
	// leave any other token in place.
	ClearToken(rejected string)
}

// MemoryTokens is a TokenStore without persistence.
type MemoryTokens struct {
	mu    sync.RWMutex
	token string
}

func (m *MemoryTokens) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *MemoryTokens) SetToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

func (m *MemoryTokens) ClearToken(rejected string) {
	m.mu.Lock()
	if m.token == rejected {
		m.token = ""
	}
	m.mu.Unlock()
}

// Client talks to the TeachMate REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	log        *logrus.Entry
}

// NewClient builds a client for baseURL (e.g. "http://localhost:8080/api").
func NewClient(baseURL string, tokens TokenStore, timeout time.Duration, log *logrus.Entry) *Client {
	if tokens == nil {
		tokens = &MemoryTokens{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        log.WithField("component", "api"),
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Tokens exposes the token store used by the client.
func (c *Client) Tokens() TokenStore { return c.tokens }

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	return c.do(ctx, method, path, reader, "application/json", out)
}

// do performs one request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	token := c.tokens.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response of %s %s: %w", method, path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Warn("Token rejected, clearing stored token")
		c.tokens.ClearToken(token)
		return &authError{status: resp.StatusCode, message: env.Message}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return &HTTPError{StatusCode: resp.StatusCode, Method: method, Path: path, Message: msg}
	}

	if len(raw) == 0 {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, path, decodeErr)
	}
	if env.Success != nil && !*env.Success {
		return &ValidationError{Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode data of %s %s: %w", method, path, err)
	}
	return nil
}
