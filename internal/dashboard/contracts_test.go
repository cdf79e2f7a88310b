package dashboard

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/besofuls/EVTrade/internal/models"
)

func TestValidateParties(t *testing.T) {
	valid := func() *models.CreateContractRequest {
		return &models.CreateContractRequest{
			BuyerEmail:  "buyer@example.com",
			BuyerName:   "Buyer One",
			SellerEmail: "seller@example.com",
			SellerName:  "Seller One",
		}
	}

	if err := ValidateParties(valid()); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*models.CreateContractRequest)
		want   error
	}{
		{"missing at sign", func(r *models.CreateContractRequest) { r.BuyerEmail = "buyer.example.com" }, ErrInvalidEmail},
		{"missing domain dot", func(r *models.CreateContractRequest) { r.SellerEmail = "seller@host" }, ErrInvalidEmail},
		{"space in address", func(r *models.CreateContractRequest) { r.BuyerEmail = "bu yer@example.com" }, ErrInvalidEmail},
		{"empty email", func(r *models.CreateContractRequest) { r.SellerEmail = "" }, ErrInvalidEmail},
		{"blank buyer name", func(r *models.CreateContractRequest) { r.BuyerName = "   " }, ErrNameRequired},
		{"empty seller name", func(r *models.CreateContractRequest) { r.SellerName = "" }, ErrNameRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			if err := ValidateParties(req); !errors.Is(err, tt.want) {
				t.Errorf("ValidateParties = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadKeepsOnlyContractableOrders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"orderId":1,"status":"COMPLETED"},
			{"orderId":2,"status":"CANCELLED"},
			{"orderId":3,"status":"PENDING"},
			{"orderId":4,"status":"pending"}
		]`))
	})

	desk := NewContractDesk(newTestClient(t, mux))
	if err := desk.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	orders := desk.Orders()
	if len(orders) != 3 {
		t.Fatalf("got %d eligible orders, want 3", len(orders))
	}
	for _, order := range orders {
		if order.OrderID == 2 {
			t.Error("cancelled order survived the filter")
		}
	}
}

func TestEnsureContractValidationSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	desk := NewContractDesk(newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})))

	req := &models.CreateContractRequest{
		OrderID:     1,
		BuyerEmail:  "not-an-email",
		BuyerName:   "Buyer",
		SellerEmail: "seller@example.com",
		SellerName:  "Seller",
	}
	if _, err := desk.EnsureContract(context.Background(), req); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("EnsureContract = %v, want ErrInvalidEmail", err)
	}
	if calls.Load() != 0 {
		t.Errorf("server saw %d requests, want 0", calls.Load())
	}
}

func TestEnsureContractReturnsExistingWithoutCreating(t *testing.T) {
	var creates atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/contracts/order/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"contractId":50,"orderId":1,"status":"SIGNED"}`))
	})
	mux.HandleFunc("/contracts/send", func(w http.ResponseWriter, r *http.Request) {
		creates.Add(1)
	})

	desk := NewContractDesk(newTestClient(t, mux))
	req := &models.CreateContractRequest{
		OrderID:     1,
		BuyerEmail:  "buyer@example.com",
		BuyerName:   "Buyer",
		SellerEmail: "seller@example.com",
		SellerName:  "Seller",
	}
	contract, err := desk.EnsureContract(context.Background(), req)
	if err != nil {
		t.Fatalf("EnsureContract: %v", err)
	}
	if contract == nil || contract.ContractID != 50 {
		t.Fatalf("contract = %+v, want the existing contract 50", contract)
	}
	if creates.Load() != 0 {
		t.Errorf("server saw %d create calls, want 0", creates.Load())
	}
	if cached := desk.ContractFor(1); cached == nil || cached.ContractID != 50 {
		t.Errorf("ContractFor(1) = %+v, want cached contract 50", cached)
	}
}

func TestEnsureContractCreatesOnAbsence(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/contracts/order/2", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no contract", http.StatusNotFound)
	})
	mux.HandleFunc("/contracts/send", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"contractId":51,"orderId":2,"status":"SENT"}`))
	})

	desk := NewContractDesk(newTestClient(t, mux))
	req := RequestFromOrder(&models.Order{
		OrderID:     2,
		BuyerEmail:  "buyer@example.com",
		BuyerName:   "Buyer",
		SellerEmail: "seller@example.com",
		SellerName:  "Seller",
	})
	if req.TemplateID != DefaultTemplateID {
		t.Errorf("TemplateID = %q, want %q", req.TemplateID, DefaultTemplateID)
	}

	contract, err := desk.EnsureContract(context.Background(), req)
	if err != nil {
		t.Fatalf("EnsureContract: %v", err)
	}
	if contract == nil || contract.ContractID != 51 {
		t.Fatalf("contract = %+v, want newly created contract 51", contract)
	}
}
