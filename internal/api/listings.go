package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/besofuls/EVTrade/internal/models"
)

// ListingPage is the raw listing collection as returned by the backend,
// which answers with either a bare array or a paginated envelope. Use
// Listings/Count to read it.
type ListingPage struct {
	raw json.RawMessage
}

func (p *ListingPage) Listings() []models.Listing {
	return models.DecodeList[models.Listing](p.raw)
}

func (p *ListingPage) Count() int64 { return models.CountFrom(p.raw) }

// GetAllListings fetches every listing (staff view).
func (c *Client) GetAllListings(ctx context.Context) (*ListingPage, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "get_all_listings", "/listings", nil, true,
		"could not load listings", &raw)
	if err != nil {
		return nil, err
	}
	return &ListingPage{raw: raw}, nil
}

// GetPendingListings fetches listings awaiting moderation.
func (c *Client) GetPendingListings(ctx context.Context) (*ListingPage, error) {
	query := url.Values{}
	query.Set("status", "PENDING")

	var raw json.RawMessage
	err := c.getJSON(ctx, "get_pending_listings", "/listings", query, true,
		"could not load pending listings", &raw)
	if err != nil {
		return nil, err
	}
	return &ListingPage{raw: raw}, nil
}

// GetUserListings fetches the current user's own listings.
func (c *Client) GetUserListings(ctx context.Context) (*ListingPage, error) {
	user := c.session.User()
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	query := url.Values{}
	query.Set("userId", strconv.FormatInt(user.UserID, 10))
	query.Set("size", "100")

	var raw json.RawMessage
	err := c.getJSON(ctx, "get_user_listings", "/listings", query, true,
		"could not load your listings", &raw)
	if err != nil {
		return nil, err
	}
	return &ListingPage{raw: raw}, nil
}

// SearchListings runs a public listing search with arbitrary parameters.
func (c *Client) SearchListings(ctx context.Context, params url.Values) (*ListingPage, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "search_listings", "/listings/search", params, false,
		"could not search listings", &raw)
	if err != nil {
		return nil, err
	}
	return &ListingPage{raw: raw}, nil
}

// GetListing fetches one listing by ID (public).
func (c *Client) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	var listing models.Listing
	err := c.getJSON(ctx, "get_listing", fmt.Sprintf("/listings/%d", id), nil, false,
		"could not load listing", &listing)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// CreateListing posts a new listing with images as a multipart form.
func (c *Client) CreateListing(ctx context.Context, listing *models.NewListing, images []models.Image) (*models.Listing, error) {
	var created models.Listing
	err := c.sendMultipart(ctx, "create_listing", http.MethodPost, "/listings", listing, images,
		"could not create listing", &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateListing replaces a listing and optionally its images.
func (c *Client) UpdateListing(ctx context.Context, id int64, listing *models.NewListing, images []models.Image) (*models.Listing, error) {
	var updated models.Listing
	err := c.sendMultipart(ctx, "update_listing", http.MethodPut, fmt.Sprintf("/listings/%d", id), listing, images,
		"could not update listing", &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ApproveListing approves a pending listing (staff only).
func (c *Client) ApproveListing(ctx context.Context, id int64) error {
	return c.sendJSON(ctx, "approve_listing", http.MethodPost,
		fmt.Sprintf("/listings/%d/approve", id), nil, nil, true,
		"could not approve listing", nil)
}

// RejectListing rejects a pending listing with a reason, sent query-encoded
// the way the backend expects it.
func (c *Client) RejectListing(ctx context.Context, id int64, reason string) error {
	query := url.Values{}
	query.Set("reason", reason)
	return c.sendJSON(ctx, "reject_listing", http.MethodPost,
		fmt.Sprintf("/listings/%d/reject", id), query, nil, true,
		"could not reject listing", nil)
}

// DeleteListing removes a listing with a moderation reason (staff only).
func (c *Client) DeleteListing(ctx context.Context, id int64, reason string) error {
	query := url.Values{}
	query.Set("reason", reason)
	return c.sendJSON(ctx, "delete_listing", http.MethodDelete,
		fmt.Sprintf("/listings/%d", id), query, nil, true,
		"could not delete listing", nil)
}

// CreateExtendPayment starts a listing-extension payment for the given
// number of days. The resulting transaction carries no order ID.
func (c *Client) CreateExtendPayment(ctx context.Context, listingID int64, days int) (*models.Transaction, error) {
	query := url.Values{}
	query.Set("days", strconv.Itoa(days))

	var tx models.Transaction
	err := c.sendJSON(ctx, "create_extend_payment", http.MethodPost,
		fmt.Sprintf("/listings/%d/extend-payment", listingID), query, nil, true,
		"could not create extension request", &tx)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetBrands lists vehicle brands (public).
func (c *Client) GetBrands(ctx context.Context) ([]models.Brand, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "get_brands", "/brands", nil, false,
		"could not load brands", &raw)
	if err != nil {
		return nil, err
	}
	return models.DecodeList[models.Brand](raw), nil
}

// GetCategories lists vehicle categories (public).
func (c *Client) GetCategories(ctx context.Context) ([]models.Category, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "get_categories", "/categories", nil, false,
		"could not load categories", &raw)
	if err != nil {
		return nil, err
	}
	return models.DecodeList[models.Category](raw), nil
}
