package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/besofuls/EVTrade/internal/models"
)

// CreateReview posts a review for a listing. The user ID is resolved from
// the stored session when the request leaves it unset.
func (c *Client) CreateReview(ctx context.Context, req *models.CreateReviewRequest) (*models.Review, error) {
	if c.session.Token() == "" {
		return nil, ErrNotAuthenticated
	}

	payload := *req
	if payload.UserID == 0 {
		user := c.session.User()
		if user == nil {
			return nil, ErrNotAuthenticated
		}
		payload.UserID = user.UserID
	}

	var review models.Review
	err := c.sendJSON(ctx, "create_review", http.MethodPost, "/reviews", nil, &payload, true,
		"could not submit review", &review)
	if err != nil {
		return nil, err
	}
	c.metrics.ReviewsSubmitted.Add(ctx, 1)
	return &review, nil
}

// GetListingReviews fetches reviews for a listing (public). 204 yields an
// empty slice.
func (c *Client) GetListingReviews(ctx context.Context, listingID int64) ([]models.Review, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "get_listing_reviews", fmt.Sprintf("/reviews/listing/%d", listingID), nil, false,
		"could not load reviews", &raw)
	if err != nil {
		return nil, err
	}
	return models.DecodeList[models.Review](raw), nil
}

// GetSellerFeedback fetches a seller's aggregated rating. 204 means the
// seller has no feedback yet and yields nil.
func (c *Client) GetSellerFeedback(ctx context.Context, sellerID int64) (*models.SellerFeedback, error) {
	if sellerID == 0 {
		return nil, fmt.Errorf("seller ID is required")
	}

	var feedback *models.SellerFeedback
	err := c.getJSON(ctx, "get_seller_feedback", fmt.Sprintf("/sellers/%d/feedback", sellerID), nil, false,
		"could not load seller feedback", &feedback)
	if err != nil {
		return nil, err
	}
	return feedback, nil
}
