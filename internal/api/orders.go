package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/besofuls/EVTrade/internal/models"
)

// CreateOrder places an order for a listing.
func (c *Client) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	var order models.Order
	err := c.sendJSON(ctx, "create_order", http.MethodPost, "/orders", nil, req, true,
		"could not create order", &order)
	if err != nil {
		return nil, err
	}
	c.metrics.OrdersCreated.Add(ctx, 1)
	return &order, nil
}

// GetMyOrders lists the current user's orders.
func (c *Client) GetMyOrders(ctx context.Context) ([]models.Order, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "get_my_orders", "/orders", nil, true,
		"could not load orders", &raw)
	if err != nil {
		return nil, err
	}
	return models.DecodeList[models.Order](raw), nil
}

// GetAdminOrders lists every order (staff view). 204 yields an empty slice.
func (c *Client) GetAdminOrders(ctx context.Context) ([]models.Order, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "get_admin_orders", "/admin/orders", nil, true,
		"could not load orders", &raw)
	if err != nil {
		return nil, err
	}
	return models.DecodeList[models.Order](raw), nil
}
