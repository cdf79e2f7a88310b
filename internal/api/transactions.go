package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/besofuls/EVTrade/internal/models"
)

// GetTransactions lists the current user's transactions. 401 and 403 get
// user-facing messages since the transaction views branch on them.
func (c *Client) GetTransactions(ctx context.Context) ([]models.Transaction, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "get_transactions", "/transactions", nil, true,
		"could not load transactions", &raw)
	if err != nil {
		switch StatusOf(err) {
		case http.StatusUnauthorized:
			return nil, &APIError{Status: http.StatusUnauthorized, Message: "your session has expired, please sign in again"}
		case http.StatusForbidden:
			return nil, &APIError{Status: http.StatusForbidden, Message: "you do not have access to these transactions"}
		}
		return nil, err
	}
	return models.DecodeList[models.Transaction](raw), nil
}

// GetAllTransactions lists every transaction (admin only).
func (c *Client) GetAllTransactions(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "get_all_transactions", "/admin/transactions", nil, true,
		"could not load transactions", &raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// GetTransactionPayments lists the payment history of a transaction (admin
// only).
func (c *Client) GetTransactionPayments(ctx context.Context, transactionID int64) ([]models.Payment, error) {
	var raw json.RawMessage
	err := c.getJSON(ctx, "get_transaction_payments",
		fmt.Sprintf("/admin/transactions/%d/payments", transactionID), nil, true,
		"could not load payment history", &raw)
	if err != nil {
		return nil, err
	}
	return models.DecodeList[models.Payment](raw), nil
}

// CreatePayment starts a payment against a transaction. Method and provider
// default to VNPAY, the only gateway the marketplace is wired to.
func (c *Client) CreatePayment(ctx context.Context, req *models.CreatePaymentRequest) (*models.Payment, error) {
	payload := *req
	if payload.PaymentMethod == "" {
		payload.PaymentMethod = "VNPAY"
	}
	if payload.PaymentProvider == "" {
		payload.PaymentProvider = "VNPAY"
	}

	var payment models.Payment
	err := c.sendJSON(ctx, "create_payment", http.MethodPost, "/payments", nil, &payload, true,
		"could not create payment", &payment)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
