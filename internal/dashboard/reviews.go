package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/besofuls/EVTrade/internal/api"
	"github.com/besofuls/EVTrade/internal/models"
)

// ErrInvalidRating is returned when a rating falls outside 1..5 before any
// network call is made.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ReviewPanel shows a listing's reviews and accepts new ones. A successful
// submission reloads the list from the server so the new review appears in
// the backend's ordering, not spliced in locally.
type ReviewPanel struct {
	api       *api.Client
	listingID int64

	mu      sync.Mutex
	reviews []models.Review
}

// NewReviewPanel creates a review panel for one listing.
func NewReviewPanel(client *api.Client, listingID int64) *ReviewPanel {
	return &ReviewPanel{api: client, listingID: listingID}
}

// Load fetches the listing's reviews.
func (p *ReviewPanel) Load(ctx context.Context) error {
	reviews, err := p.api.GetListingReviews(ctx, p.listingID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.reviews = reviews
	p.mu.Unlock()
	return nil
}

// Reviews returns the loaded reviews in the server's order.
func (p *ReviewPanel) Reviews() []models.Review {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.Review, len(p.reviews))
	copy(out, p.reviews)
	return out
}

// HasReviewBy reports whether the loaded list already contains a review by
// the given user. Resubmission is only discouraged, never blocked; the
// backend has the final say.
func (p *ReviewPanel) HasReviewBy(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, review := range p.reviews {
		if review.UserID == userID {
			return true
		}
	}
	return false
}

// Submit posts a review and, on success, reloads the list. The user ID is
// filled from the session by the client when left unset.
func (p *ReviewPanel) Submit(ctx context.Context, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	review, err := p.api.CreateReview(ctx, &models.CreateReviewRequest{
		ListingID: p.listingID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	})
	if err != nil {
		return nil, fmt.Errorf("submitting review: %w", err)
	}

	if err := p.Load(ctx); err != nil {
		return review, fmt.Errorf("review saved but the list could not be reloaded: %w", err)
	}
	return review, nil
}
