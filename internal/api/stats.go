package api

import (
	"context"

	"github.com/besofuls/EVTrade/internal/models"
)

// GetAdminOverviewStats fetches the financial overview (admin only).
func (c *Client) GetAdminOverviewStats(ctx context.Context) (*models.AdminStats, error) {
	var stats models.AdminStats
	err := c.getJSON(ctx, "get_admin_overview_stats", "/admin/stats/overview", nil, true,
		"could not load statistics", &stats)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
