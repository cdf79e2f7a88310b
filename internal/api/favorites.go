package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/besofuls/EVTrade/internal/models"
)

// AddFavorite adds a listing to the current user's favorites.
func (c *Client) AddFavorite(ctx context.Context, listingID int64) error {
	return c.sendJSON(ctx, "add_favorite", http.MethodPost,
		fmt.Sprintf("/favorites/listings/%d", listingID), nil, nil, true,
		"could not add favorite", nil)
}

// RemoveFavorite removes a listing from the current user's favorites.
func (c *Client) RemoveFavorite(ctx context.Context, listingID int64) error {
	return c.sendJSON(ctx, "remove_favorite", http.MethodDelete,
		fmt.Sprintf("/favorites/listings/%d", listingID), nil, nil, true,
		"could not remove favorite", nil)
}

// GetFavorites lists the current user's favorite listings.
func (c *Client) GetFavorites(ctx context.Context) ([]models.Listing, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "get_favorites", "/favorites/listings", nil, true,
		"could not load favorites", &raw)
	if err != nil {
		return nil, err
	}
	return models.DecodeList[models.Listing](raw), nil
}
