package dashboard

import (
	"context"
	"encoding/json"

	"github.com/besofuls/EVTrade/internal/api"
	"github.com/besofuls/EVTrade/internal/models"
	"golang.org/x/sync/errgroup"
)

// OverviewStats are the four headline counters on the admin dashboard.
type OverviewStats struct {
	MemberCount      int64
	ListingCount     int64
	TransactionCount int64
	ComplaintCount   int64
}

// Overview aggregates the admin dashboard numbers.
type Overview struct {
	api *api.Client
}

// NewOverview creates the overview aggregator.
func NewOverview(client *api.Client) *Overview {
	return &Overview{api: client}
}

// LoadStats issues the four stat queries concurrently and joins them with
// all-or-error semantics: the first failure wins and partial results are
// discarded.
func (o *Overview) LoadStats(ctx context.Context) (*OverviewStats, error) {
	var (
		users        json.RawMessage
		listings     *api.ListingPage
		transactions json.RawMessage
		complaints   []models.Complaint
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = o.api.GetAllUsers(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		listings, err = o.api.GetAllListings(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = o.api.GetAllTransactions(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		complaints, err = o.api.GetComplaints(ctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &OverviewStats{
		MemberCount:      MemberCount(users),
		ListingCount:     listings.Count(),
		TransactionCount: models.CountFrom(transactions),
		ComplaintCount:   int64(len(complaints)),
	}, nil
}

// LoadFinancials fetches the revenue overview and category distribution.
func (o *Overview) LoadFinancials(ctx context.Context) (*models.AdminStats, error) {
	return o.api.GetAdminOverviewStats(ctx)
}

// MemberCount counts ordinary members in a raw user list, excluding any
// account whose normalized role set contains ADMIN or MODERATOR. Accounts
// with no roles at all still count as members.
func MemberCount(raw json.RawMessage) int64 {
	var count int64
	for _, element := range models.ExtractArray(raw) {
		var user models.User
		if err := json.Unmarshal(element, &user); err != nil {
			count++
			continue
		}
		roles := models.NewRoleSet(models.UserRoles(&user)...)
		if roles.HasStaff() {
			continue
		}
		count++
	}
	return count
}

// Chart palette, applied round-robin across category slices.
var chartColors = []string{
	"#2563eb", "#f97316", "#22c55e", "#a855f7", "#eab308", "#ec4899", "#14b8a6",
}

// neutralColor fills the chart when there is nothing to plot.
const neutralColor = "#e2e8f0"

// PieSegment is one slice of the category distribution chart, expressed as
// a start/end angle pair in degrees.
type PieSegment struct {
	CategoryName string
	Count        int64
	StartAngle   float64
	EndAngle     float64
	Color        string
}

// BuildPieSegments divides a full circle proportionally across the category
// counts. When the total is zero a single neutral full-circle segment is
// returned so renderers always have something to draw.
func BuildPieSegments(stats []models.CategoryStat) []PieSegment {
	var total int64
	for _, stat := range stats {
		total += stat.ListingCount
	}
	if len(stats) == 0 || total <= 0 {
		return []PieSegment{{StartAngle: 0, EndAngle: 360, Color: neutralColor}}
	}

	segments := make([]PieSegment, 0, len(stats))
	var cumulative int64
	for i, stat := range stats {
		start := float64(cumulative) / float64(total) * 360
		cumulative += stat.ListingCount
		end := float64(cumulative) / float64(total) * 360
		segments = append(segments, PieSegment{
			CategoryName: stat.CategoryName,
			Count:        stat.ListingCount,
			StartAngle:   start,
			EndAngle:     end,
			Color:        chartColors[i%len(chartColors)],
		})
	}
	// The last slice always closes the circle exactly.
	segments[len(segments)-1].EndAngle = 360
	return segments
}
