package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/besofuls/EVTrade/internal/models"
)

// Fallback values served when the public config endpoint is unreachable,
// matching the defaults the backend seeds.
var defaultSystemConfig = models.SystemConfig{
	models.ConfigExtendPricePerDay: "5000",
	models.ConfigFreeListingDays:   "14",
	models.ConfigCommissionRate:    "0.05",
}

// GetSystemConfigs reads public configuration values for the given keys,
// falling back to the seeded defaults when the endpoint fails.
func (c *Client) GetSystemConfigs(ctx context.Context, keys []string) (models.SystemConfig, error) {
	query := url.Values{}
	if len(keys) > 0 {
		query.Set("keys", strings.Join(keys, ","))
	}

	configs := models.SystemConfig{}
	err := c.getJSON(ctx, "get_system_configs", "/system-config/public", query, false,
		"could not load system configuration", &configs)
	if err != nil {
		fallback := models.SystemConfig{}
		for _, key := range keys {
			if value, ok := defaultSystemConfig[key]; ok {
				fallback[key] = value
			}
		}
		return fallback, nil
	}

	// Missing keys fall back individually so half-seeded backends still
	// yield a complete map.
	for _, key := range keys {
		if _, ok := configs[key]; !ok {
			if value, ok := defaultSystemConfig[key]; ok {
				configs[key] = value
			}
		}
	}
	return configs, nil
}

// UpdateSystemConfigs writes configuration values (admin only).
func (c *Client) UpdateSystemConfigs(ctx context.Context, configs models.SystemConfig) error {
	return c.sendJSON(ctx, "update_system_configs", http.MethodPut, "/system-config", nil, configs, true,
		"could not update system configuration", nil)
}

// UpdateExtendPrice writes the per-day listing-extension price (admin only).
func (c *Client) UpdateExtendPrice(ctx context.Context, pricePerDay int64) error {
	payload := map[string]int64{"pricePerDay": pricePerDay}
	return c.sendJSON(ctx, "update_extend_price", http.MethodPut, "/system-config/extend-price", nil, payload, true,
		"could not update system configuration", nil)
}
