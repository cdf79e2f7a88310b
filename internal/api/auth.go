package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/besofuls/EVTrade/internal/models"
)

// Login exchanges credentials for a token and persists the session.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	payload := map[string]string{"username": username, "password": password}

	var resp models.LoginResponse
	err := c.sendJSON(ctx, "login", http.MethodPost, "/auth/login", nil, payload, false,
		"incorrect username or password", &resp)
	if err != nil {
		return nil, err
	}

	if err := c.session.Login(&resp); err != nil {
		return nil, fmt.Errorf("login succeeded but session could not be saved: %w", err)
	}
	c.metrics.LoginsTotal.Add(ctx, 1)
	return &resp, nil
}

// RegisterRequest carries the account-creation fields.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Register creates an account. The backend answers with JSON or plain text
// depending on version; both are accepted.
func (c *Client) Register(ctx context.Context, req *RegisterRequest) (string, error) {
	httpResp, err := c.rawPost(ctx, "register", "/auth/register", req, "registration failed")
	if err != nil {
		return "", err
	}
	return httpResp, nil
}

// SocialLogin exchanges a provider access token (Google or Facebook) for a
// session.
func (c *Client) SocialLogin(ctx context.Context, provider, accessToken string) (*models.LoginResponse, error) {
	payload := map[string]string{"provider": provider, "accessToken": accessToken}

	var resp models.LoginResponse
	err := c.sendJSON(ctx, "social_login", http.MethodPost, "/auth/social", nil, payload, false,
		"social login failed", &resp)
	if err != nil {
		return nil, err
	}
	if err := c.session.Login(&resp); err != nil {
		return nil, fmt.Errorf("social login succeeded but session could not be saved: %w", err)
	}
	return &resp, nil
}

// GoogleCodeLogin exchanges an OAuth authorization code for a session.
func (c *Client) GoogleCodeLogin(ctx context.Context, code string) (*models.LoginResponse, error) {
	payload := map[string]string{"code": code}

	var resp models.LoginResponse
	err := c.sendJSON(ctx, "google_code_login", http.MethodPost, "/auth/google/code", nil, payload, false,
		"google login failed", &resp)
	if err != nil {
		return nil, err
	}
	if err := c.session.Login(&resp); err != nil {
		return nil, fmt.Errorf("google login succeeded but session could not be saved: %w", err)
	}
	return &resp, nil
}

// Logout invalidates the session server-side best-effort, then clears every
// stored session key unconditionally.
func (c *Client) Logout(ctx context.Context) error {
	if c.session.Token() != "" {
		err := c.sendJSON(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil, false,
			"logout failed", nil)
		if err != nil {
			// The backend call is best-effort; the local session goes anyway.
			log.Printf("Logout API error: %v", err)
		}
	}
	return c.session.Clear()
}
