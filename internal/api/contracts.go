package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/besofuls/EVTrade/internal/models"
)

// CreateContract sends a contract for e-signing.
func (c *Client) CreateContract(ctx context.Context, req *models.CreateContractRequest) (*models.Contract, error) {
	var contract models.Contract
	err := c.sendJSON(ctx, "create_contract", http.MethodPost, "/contracts/send", nil, req, true,
		"could not create contract", &contract)
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// GetAdminContracts lists every contract (staff view). 204 yields an empty
// slice.
func (c *Client) GetAdminContracts(ctx context.Context) ([]models.Contract, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "get_admin_contracts", "/contracts/admin", nil, true,
		"could not load contracts", &raw)
	if err != nil {
		if StatusOf(err) == http.StatusUnauthorized {
			return nil, &APIError{Status: http.StatusUnauthorized, Message: "your session has expired, please sign in again"}
		}
		return nil, err
	}
	return models.DecodeList[models.Contract](raw), nil
}

// GetContractByOrder fetches the contract for an order. A 404 is an
// expected absence, not an error: it yields (nil, nil) so callers can offer
// contract creation.
func (c *Client) GetContractByOrder(ctx context.Context, orderID int64) (*models.Contract, error) {
	var contract *models.Contract
	err := c.getJSON(ctx, "get_contract_by_order",
		fmt.Sprintf("/contracts/order/%d", orderID), nil, true,
		"could not load contract", &contract)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return contract, nil
}
