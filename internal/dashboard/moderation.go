package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/besofuls/EVTrade/internal/api"
	"github.com/besofuls/EVTrade/internal/metrics"
	"github.com/besofuls/EVTrade/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrReasonRequired blocks reject and delete submissions with no reason
// before any network call is made.
var ErrReasonRequired = errors.New("a reason is required")

// ErrActionInFlight is returned when the same listing already has a
// moderation request outstanding.
var ErrActionInFlight = errors.New("action already in progress for this listing")

// ModerationQueue drives listing moderation. Approve, reject, and delete
// patch the local lists optimistically on success; the pending list is only
// re-fetched on an explicit refresh. The per-listing in-flight guard blocks
// duplicate submission of the same action but does not serialize actions on
// different listings.
type ModerationQueue struct {
	api     *api.Client
	metrics *metrics.AppMetrics

	mu       sync.Mutex
	all      []models.Listing
	pending  []models.Listing
	inFlight map[int64]string
}

// NewModerationQueue creates a moderation queue.
func NewModerationQueue(client *api.Client, m *metrics.AppMetrics) *ModerationQueue {
	return &ModerationQueue{
		api:      client,
		metrics:  m,
		inFlight: map[int64]string{},
	}
}

// Refresh reloads the full listing view.
func (q *ModerationQueue) Refresh(ctx context.Context) error {
	page, err := q.api.GetAllListings(ctx)
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.all = page.Listings()
	q.mu.Unlock()
	return nil
}

// RefreshPending reloads the pending queue.
func (q *ModerationQueue) RefreshPending(ctx context.Context) error {
	page, err := q.api.GetPendingListings(ctx)
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.pending = page.Listings()
	q.mu.Unlock()
	return nil
}

// All returns the full listing view.
func (q *ModerationQueue) All() []models.Listing {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.Listing, len(q.all))
	copy(out, q.all)
	return out
}

// Pending returns the listings awaiting moderation.
func (q *ModerationQueue) Pending() []models.Listing {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.Listing, len(q.pending))
	copy(out, q.pending)
	return out
}

// Approve approves a pending listing: exactly one POST, then optimistic
// removal from the pending view.
func (q *ModerationQueue) Approve(ctx context.Context, id int64) error {
	release, err := q.acquire(id, "approve")
	if err != nil {
		return err
	}
	defer release()

	if err := q.api.ApproveListing(ctx, id); err != nil {
		return fmt.Errorf("approval failed: %w", err)
	}
	q.recordModeration(ctx, "approve")

	q.mu.Lock()
	q.pending = removeListing(q.pending, id)
	q.mu.Unlock()
	return nil
}

// Reject rejects a pending listing with a non-empty reason. An empty reason
// never reaches the network.
func (q *ModerationQueue) Reject(ctx context.Context, id int64, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	release, err := q.acquire(id, "reject")
	if err != nil {
		return err
	}
	defer release()

	if err := q.api.RejectListing(ctx, id, reason); err != nil {
		return fmt.Errorf("rejection failed: %w", err)
	}
	q.recordModeration(ctx, "reject")

	q.mu.Lock()
	q.pending = removeListing(q.pending, id)
	q.mu.Unlock()
	return nil
}

// Delete removes a listing with a non-empty moderation reason and drops it
// from both the full and pending views.
func (q *ModerationQueue) Delete(ctx context.Context, id int64, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	release, err := q.acquire(id, "delete")
	if err != nil {
		return err
	}
	defer release()

	if err := q.api.DeleteListing(ctx, id, reason); err != nil {
		return fmt.Errorf("deletion failed: %w", err)
	}
	q.recordModeration(ctx, "delete")

	q.mu.Lock()
	q.all = removeListing(q.all, id)
	q.pending = removeListing(q.pending, id)
	q.mu.Unlock()
	return nil
}

// acquire marks a listing as having an outstanding action, mirroring the
// disabled button while a request is in flight.
func (q *ModerationQueue) acquire(id int64, action string) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, busy := q.inFlight[id]; busy {
		return nil, ErrActionInFlight
	}
	q.inFlight[id] = action
	return func() {
		q.mu.Lock()
		delete(q.inFlight, id)
		q.mu.Unlock()
	}, nil
}

func (q *ModerationQueue) recordModeration(ctx context.Context, action string) {
	if q.metrics == nil {
		return
	}
	q.metrics.ListingsModerated.Add(ctx, 1, metric.WithAttributes(
		q.metrics.WithServiceName([]attribute.KeyValue{
			attribute.String("moderation.action", action),
		})...))
}

func removeListing(listings []models.Listing, id int64) []models.Listing {
	out := listings[:0]
	for _, listing := range listings {
		if listing.ID != id {
			out = append(out, listing)
		}
	}
	return out
}
