package api

import (
	"context"

	"github.com/Dias221467/teachmate/internal/models"
)

// Login authenticates and stores the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res models.AuthResult
	if err := c.post(ctx, "/auth/login", body, &res); err != nil {
		return nil, err
	}
	res.User = models.NormalizeUser(res.User)
	c.tokens.SetToken(res.Token)
	return &res, nil
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, in models.RegisterInput) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := c.post(ctx, "/auth/register", in, &res); err != nil {
		return nil, err
	}
	res.User = models.NormalizeUser(res.User)
	c.tokens.SetToken(res.Token)
	return &res, nil
}
