package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/besofuls/EVTrade/internal/api"
	"github.com/besofuls/EVTrade/internal/models"
)

// ComplaintDesk drives the complaint moderation workflow. Unlike listing
// moderation, resolving or rejecting a complaint triggers a full authoritative
// reload instead of a local splice, since resolution changes server-side
// state (refunds, holds) beyond the complaint row itself.
type ComplaintDesk struct {
	api *api.Client

	mu         sync.Mutex
	complaints []models.Complaint
	status     string
	processing map[int64]bool
}

// NewComplaintDesk creates a complaint desk with no status filter.
func NewComplaintDesk(client *api.Client) *ComplaintDesk {
	return &ComplaintDesk{
		api:        client,
		processing: map[int64]bool{},
	}
}

// SetStatusFilter narrows the next load to a single status. An empty value
// loads every complaint.
func (d *ComplaintDesk) SetStatusFilter(status string) {
	d.mu.Lock()
	d.status = strings.ToUpper(strings.TrimSpace(status))
	d.mu.Unlock()
}

// Load fetches complaints for the current filter, newest first.
func (d *ComplaintDesk) Load(ctx context.Context) error {
	d.mu.Lock()
	status := d.status
	d.mu.Unlock()

	complaints, err := d.api.GetComplaints(ctx, status)
	if err != nil {
		return err
	}
	sortComplaints(complaints)

	d.mu.Lock()
	d.complaints = complaints
	d.mu.Unlock()
	return nil
}

// Complaints returns the loaded complaints, newest first.
func (d *ComplaintDesk) Complaints() []models.Complaint {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Complaint, len(d.complaints))
	copy(out, d.complaints)
	return out
}

// Resolve marks a complaint resolved and reloads the desk from the server.
func (d *ComplaintDesk) Resolve(ctx context.Context, id int64) error {
	return d.decide(ctx, id, "RESOLVED")
}

// Reject dismisses a complaint and reloads the desk from the server.
func (d *ComplaintDesk) Reject(ctx context.Context, id int64) error {
	return d.decide(ctx, id, "REJECTED")
}

func (d *ComplaintDesk) decide(ctx context.Context, id int64, status string) error {
	d.mu.Lock()
	if d.processing[id] {
		d.mu.Unlock()
		return ErrActionInFlight
	}
	d.processing[id] = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.processing, id)
		d.mu.Unlock()
	}()

	if _, err := d.api.ResolveComplaint(ctx, id, status); err != nil {
		return fmt.Errorf("updating complaint %d: %w", id, err)
	}
	return d.Load(ctx)
}

// Processing reports whether the complaint has a decision in flight.
func (d *ComplaintDesk) Processing(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.processing[id]
}

func sortComplaints(complaints []models.Complaint) {
	sort.SliceStable(complaints, func(i, j int) bool {
		return complaints[i].CreatedAt.After(complaints[j].CreatedAt)
	})
}
