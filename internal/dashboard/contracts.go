package dashboard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/besofuls/EVTrade/internal/api"
	"github.com/besofuls/EVTrade/internal/models"
)

// DefaultTemplateID is the e-signature provider template used for sale
// contracts when the caller does not supply one.
const DefaultTemplateID = "2020443"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ErrInvalidEmail is returned when a party email fails validation before a
// contract is submitted.
var ErrInvalidEmail = errors.New("invalid email address")

// ErrNameRequired is returned when a party name is empty.
var ErrNameRequired = errors.New("party name is required")

// ContractDesk prepares and tracks e-signature contracts for completed or
// pending orders. All party fields are validated locally so a bad request
// never reaches the signature provider.
type ContractDesk struct {
	api *api.Client

	mu        sync.Mutex
	orders    []models.Order
	contracts map[int64]*models.Contract // keyed by order ID
}

// NewContractDesk creates a contract desk.
func NewContractDesk(client *api.Client) *ContractDesk {
	return &ContractDesk{
		api:       client,
		contracts: map[int64]*models.Contract{},
	}
}

// Load fetches orders eligible for contracting. Only COMPLETED and PENDING
// orders can carry a contract.
func (d *ContractDesk) Load(ctx context.Context) error {
	orders, err := d.api.GetAdminOrders(ctx)
	if err != nil {
		return err
	}

	eligible := orders[:0]
	for _, order := range orders {
		switch strings.ToUpper(order.Status) {
		case "COMPLETED", "PENDING":
			eligible = append(eligible, order)
		}
	}

	d.mu.Lock()
	d.orders = eligible
	d.mu.Unlock()
	return nil
}

// Orders returns the contract-eligible orders.
func (d *ContractDesk) Orders() []models.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Order, len(d.orders))
	copy(out, d.orders)
	return out
}

// ContractFor returns the cached contract for an order, or nil when none has
// been looked up or created yet.
func (d *ContractDesk) ContractFor(orderID int64) *models.Contract {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contracts[orderID]
}

// ValidateParties checks both party emails and names. It is called before
// every contract submission; an error here means no request was sent.
func ValidateParties(req *models.CreateContractRequest) error {
	if !emailPattern.MatchString(strings.TrimSpace(req.BuyerEmail)) {
		return fmt.Errorf("buyer: %w", ErrInvalidEmail)
	}
	if !emailPattern.MatchString(strings.TrimSpace(req.SellerEmail)) {
		return fmt.Errorf("seller: %w", ErrInvalidEmail)
	}
	if strings.TrimSpace(req.BuyerName) == "" {
		return fmt.Errorf("buyer: %w", ErrNameRequired)
	}
	if strings.TrimSpace(req.SellerName) == "" {
		return fmt.Errorf("seller: %w", ErrNameRequired)
	}
	return nil
}

// EnsureContract returns the contract for an order, creating one when the
// order has none. A lookup miss is an expected absence, not an error.
func (d *ContractDesk) EnsureContract(ctx context.Context, req *models.CreateContractRequest) (*models.Contract, error) {
	if req.TemplateID == "" {
		req.TemplateID = DefaultTemplateID
	}
	if err := ValidateParties(req); err != nil {
		return nil, err
	}

	existing, err := d.api.GetContractByOrder(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("looking up contract for order %d: %w", req.OrderID, err)
	}
	if existing != nil {
		d.cache(req.OrderID, existing)
		return existing, nil
	}

	created, err := d.api.CreateContract(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("creating contract for order %d: %w", req.OrderID, err)
	}
	d.cache(req.OrderID, created)
	return created, nil
}

// RequestFromOrder seeds a contract request from an order's parties.
func RequestFromOrder(order *models.Order) *models.CreateContractRequest {
	return &models.CreateContractRequest{
		OrderID:     order.OrderID,
		TemplateID:  DefaultTemplateID,
		BuyerEmail:  order.BuyerEmail,
		BuyerName:   order.BuyerName,
		SellerEmail: order.SellerEmail,
		SellerName:  order.SellerName,
	}
}

func (d *ContractDesk) cache(orderID int64, contract *models.Contract) {
	d.mu.Lock()
	d.contracts[orderID] = contract
	d.mu.Unlock()
}
