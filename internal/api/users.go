package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/besofuls/EVTrade/internal/models"
)

// GetAllUsers lists every user account (admin only). The raw payload is
// returned because role shapes vary across backend versions; use
// models.DecodeList or models.CountFrom on it.
func (c *Client) GetAllUsers(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "get_all_users", "/users", nil, true,
		"could not load users", &raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// DisableUser locks a user account (admin only).
func (c *Client) DisableUser(ctx context.Context, userID int64) error {
	return c.sendJSON(ctx, "disable_user", http.MethodPost,
		fmt.Sprintf("/users/%d/disable", userID), nil, nil, true,
		"could not disable user", nil)
}

// EnableUser unlocks a user account (admin only).
func (c *Client) EnableUser(ctx context.Context, userID int64) error {
	return c.sendJSON(ctx, "enable_user", http.MethodPost,
		fmt.Sprintf("/users/%d/enable", userID), nil, nil, true,
		"could not enable user", nil)
}

// GetProfile reads a user profile. A 404 means no profile exists yet and
// yields (nil, nil).
func (c *Client) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	var profile *models.Profile
	err := c.getJSON(ctx, "get_profile", fmt.Sprintf("/profiles/%d", userID), nil, true,
		"could not load profile", &profile)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

// UpdateProfile replaces a user profile.
func (c *Client) UpdateProfile(ctx context.Context, userID int64, profile *models.Profile) (*models.Profile, error) {
	var updated models.Profile
	err := c.sendJSON(ctx, "update_profile", http.MethodPut,
		fmt.Sprintf("/profiles/%d", userID), nil, profile, true,
		"could not update profile", &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
