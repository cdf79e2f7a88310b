package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// User represents a user account as the backend returns it. Role fields have
// drifted across backend versions, so both singular and plural forms are
// retained and resolved through NormalizeRoles.
type User struct {
	UserID   int64           `json:"userID"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     json.RawMessage `json:"role,omitempty"`
	Roles    json.RawMessage `json:"roles,omitempty"`
	Status   string          `json:"status,omitempty"` // Active, Disabled
}

// Seller is the embedded seller record on a listing.
type Seller struct {
	UserID   int64  `json:"userID"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Listing represents a seller's posted item
type Listing struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Status       string          `json:"status"` // PENDING, ACTIVE, PROCESSING, SOLD, REJECTED
	Images       []string        `json:"images,omitempty"`
	Seller       *Seller         `json:"seller,omitempty"`
	CategoryName string          `json:"categoryName,omitempty"`
	BrandName    string          `json:"brandName,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	ExpiresAt    *time.Time      `json:"expiresAt,omitempty"`
}

// Brand is a public vehicle brand record
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is a public vehicle category record
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Order represents a purchase order
type Order struct {
	OrderID     int64           `json:"orderId"`
	ListingID   int64           `json:"listingId"`
	BuyerID     int64           `json:"buyerId"`
	SellerID    int64           `json:"sellerId"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      string          `json:"status"` // PENDING, COMPLETED, CANCELLED
	BuyerEmail  string          `json:"buyerEmail,omitempty"`
	BuyerName   string          `json:"buyerName,omitempty"`
	SellerEmail string          `json:"sellerEmail,omitempty"`
	SellerName  string          `json:"sellerName,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Transaction represents a financial transaction. A transaction without an
// order denotes a service charge such as a listing-extension fee.
type Transaction struct {
	TransactionID  int64           `json:"transactionId"`
	OrderID        *int64          `json:"orderId,omitempty"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	Status         string          `json:"status"`
	BuyerUsername  string          `json:"buyerUsername,omitempty"`
	SellerUsername string          `json:"sellerUsername,omitempty"`
	ListingTitle   string          `json:"listingTitle,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// IsServiceCharge reports whether the transaction is a service fee rather
// than a purchase.
func (t *Transaction) IsServiceCharge() bool { return t.OrderID == nil }

// Payment represents one payment against a transaction
type Payment struct {
	PaymentID     int64           `json:"paymentId"`
	TransactionID int64           `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method,omitempty"`
	Provider      string          `json:"provider,omitempty"`
	Status        string          `json:"status"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
}

// Contract represents an e-signature document tied to an order
type Contract struct {
	ContractID       int64      `json:"contractId"`
	OrderID          int64      `json:"orderId"`
	Status           string     `json:"status"`
	SellerEmail      string     `json:"sellerEmail,omitempty"`
	BuyerEmail       string     `json:"buyerEmail,omitempty"`
	SellerSigningURL string     `json:"sellerSigningUrl,omitempty"`
	BuyerSigningURL  string     `json:"buyerSigningUrl,omitempty"`
	SignedFileURL    string     `json:"signedFileUrl,omitempty"`
	SignedAt         *time.Time `json:"signedAt,omitempty"`
}

// Complaint represents a user-filed report against a listing
type Complaint struct {
	ComplaintID int64      `json:"complaintID"`
	User        *User      `json:"user,omitempty"`
	Listing     *Listing   `json:"listing,omitempty"`
	Content     string     `json:"content"`
	Status      string     `json:"status"` // Pending, Resolved, Rejected
	CreatedAt   time.Time  `json:"createdAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}

// Review represents a buyer review on a listing
type Review struct {
	ReviewID  int64     `json:"reviewId"`
	ListingID int64     `json:"listingId"`
	UserID    int64     `json:"userId"`
	Rating    int       `json:"rating"` // 1-5
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SellerFeedback aggregates a seller's rating with per-listing comments
type SellerFeedback struct {
	SellerID      int64    `json:"sellerId"`
	AverageRating float64  `json:"averageRating"`
	ReviewCount   int      `json:"reviewCount"`
	Reviews       []Review `json:"reviews,omitempty"`
}

// Profile is the editable user profile
type Profile struct {
	UserID   int64  `json:"userID"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// SystemConfig is the flat key -> string configuration map. Well-known keys:
const (
	ConfigExtendPricePerDay = "EXTEND_PRICE_PER_DAY"
	ConfigFreeListingDays   = "FREE_LISTING_DAYS"
	ConfigCommissionRate    = "COMMISSION_RATE"
)

type SystemConfig map[string]string

// CategoryStat is one slice of the category distribution
type CategoryStat struct {
	CategoryName string `json:"categoryName"`
	ListingCount int64  `json:"listingCount"`
}

// AdminStats is the financial overview returned by /admin/stats/overview
type AdminStats struct {
	TotalOrderRevenue  decimal.Decimal `json:"totalOrderRevenue"`
	TotalExtendRevenue decimal.Decimal `json:"totalExtendRevenue"`
	CategoryStats      []CategoryStat  `json:"categoryStats,omitempty"`
}

// CombinedRevenue returns order plus extension revenue.
func (s *AdminStats) CombinedRevenue() decimal.Decimal {
	return s.TotalOrderRevenue.Add(s.TotalExtendRevenue)
}

// LoginResponse is the payload returned by the auth endpoints
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	UserID    int64  `json:"userID"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	ListingID int64 `json:"listingId"`
	Quantity  int   `json:"quantity"`
}

// CreateReviewRequest represents a request to post a review
type CreateReviewRequest struct {
	ListingID int64  `json:"listingId"`
	UserID    int64  `json:"userId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// CreateComplaintRequest represents a request to file a complaint
type CreateComplaintRequest struct {
	UserID    int64  `json:"userId"`
	ListingID int64  `json:"listingId"`
	Content   string `json:"content"`
}

// CreatePaymentRequest represents a request to start a payment
type CreatePaymentRequest struct {
	TransactionID   int64           `json:"transactionId"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentProvider string          `json:"paymentProvider"`
}

// CreateContractRequest represents a request to send a contract for signing
type CreateContractRequest struct {
	OrderID     int64  `json:"orderId"`
	TemplateID  string `json:"templateId"`
	BuyerEmail  string `json:"buyerEmail"`
	BuyerName   string `json:"buyerName"`
	SellerEmail string `json:"sellerEmail"`
	SellerName  string `json:"sellerName"`
	Content     string `json:"content,omitempty"`
}

// NewListing carries the listing fields serialized into the multipart
// "listing" form field on create/update.
type NewListing struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  int64           `json:"categoryId"`
	BrandID     int64           `json:"brandId"`
}

// Image is one binary part of a multipart listing upload.
type Image struct {
	Filename string
	Data     []byte
}
