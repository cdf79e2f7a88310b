package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/besofuls/EVTrade/internal/metrics"
	"github.com/besofuls/EVTrade/internal/models"
	"github.com/besofuls/EVTrade/internal/session"
	"github.com/besofuls/EVTrade/pkg/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Store) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := session.Open(filepath.Join(t.TempDir(), "session.json"), 0)
	if err != nil {
		t.Fatalf("opening session store: %v", err)
	}
	t.Cleanup(store.Close)

	m, err := metrics.NewAppMetrics(noop.NewMeterProvider().Meter("test"), "test")
	if err != nil {
		t.Fatalf("creating metrics: %v", err)
	}

	cfg := &config.Config{APIBaseURL: server.URL, HTTPTimeout: 5 * time.Second}
	return NewClient(cfg, store, m), store
}

func TestRequestCarriesBearerToken(t *testing.T) {
	var gotAuth, gotAccept string
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`[]`))
	}))

	if err := store.Set(session.KeyAuthToken, "tok-123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := client.GetMyOrders(context.Background()); err != nil {
		t.Fatalf("GetMyOrders: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-123")
	}
	if gotAccept != "*/*" {
		t.Errorf("Accept = %q, want */*", gotAccept)
	}
}

func TestAuthenticatedCallWithoutTokenSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := client.GetMyOrders(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
	if calls.Load() != 0 {
		t.Errorf("server saw %d requests, want 0", calls.Load())
	}
}

func TestErrorBodyBecomesMessage(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Listing is already sold"))
	}))
	store.Set(session.KeyAuthToken, "tok")

	err := client.ApproveListing(context.Background(), 5)
	if err == nil {
		t.Fatal("want error for 400 response")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}
	if apiErr.Message != "Listing is already sold" {
		t.Errorf("message = %q, want the raw body text", apiErr.Message)
	}
}

func TestEmptyErrorBodyFallsBack(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.Login(context.Background(), "alice", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError", err)
	}
	if apiErr.Message != "incorrect username or password" {
		t.Errorf("message = %q, want the login fallback", apiErr.Message)
	}
}

func TestNoContentMeansEmptyList(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	store.Set(session.KeyAuthToken, "tok")

	complaints, err := client.GetComplaints(context.Background(), "")
	if err != nil {
		t.Fatalf("GetComplaints: %v", err)
	}
	if len(complaints) != 0 {
		t.Errorf("got %d complaints from a 204, want 0", len(complaints))
	}
}

func TestLoginPersistsSession(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %q, want /auth/login", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"jwt-abc","userID":7,"username":"alice","email":"alice@example.com","role":"Admin"}`))
	}))

	resp, err := client.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Username != "alice" {
		t.Errorf("username = %q, want alice", resp.Username)
	}
	if store.Token() != "jwt-abc" {
		t.Errorf("stored token = %q, want jwt-abc", store.Token())
	}
	user := store.User()
	if user == nil || user.UserID != 7 {
		t.Fatalf("stored user = %+v, want userID 7", user)
	}
	if !store.Roles().HasAdmin() {
		t.Error("stored roles are missing ADMIN")
	}
}

func TestLogoutClearsSessionEvenWhenBackendFails(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	store.Set(session.KeyAuthToken, "tok")
	store.Set(session.KeyIsLoggedIn, "true")

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	for _, key := range session.AllKeys {
		if got := store.Get(key); got != "" {
			t.Errorf("key %q = %q after logout, want empty", key, got)
		}
	}
}

func TestApproveListingIssuesOnePost(t *testing.T) {
	var calls atomic.Int32
	var gotMethod, gotPath string
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	store.Set(session.KeyAuthToken, "tok")

	if err := client.ApproveListing(context.Background(), 42); err != nil {
		t.Fatalf("ApproveListing: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d requests, want exactly 1", calls.Load())
	}
	if gotMethod != http.MethodPost || gotPath != "/listings/42/approve" {
		t.Errorf("request = %s %s, want POST /listings/42/approve", gotMethod, gotPath)
	}
}

func TestCreateReviewFillsUserIDFromSession(t *testing.T) {
	var payload struct {
		ListingID int64  `json:"listingId"`
		UserID    int64  `json:"userId"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reviews" || r.Method != http.MethodPost {
			t.Errorf("request = %s %s, want POST /reviews", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding review payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"reviewId":1,"listingId":42,"userId":7,"rating":5,"comment":"Great"}`))
	}))
	store.Set(session.KeyAuthToken, "tok")
	store.Set(session.KeyUserData, `{"id":7,"userID":7,"username":"alice","roles":["MEMBER"]}`)

	review, err := client.CreateReview(context.Background(), &models.CreateReviewRequest{
		ListingID: 42,
		Rating:    5,
		Comment:   "Great",
	})
	if err != nil {
		t.Fatalf("CreateReview: %v", err)
	}
	if payload.UserID != 7 {
		t.Errorf("posted userId = %d, want the session's 7", payload.UserID)
	}
	if payload.ListingID != 42 || payload.Rating != 5 || payload.Comment != "Great" {
		t.Errorf("posted payload = %+v, want listingId 42, rating 5, comment Great", payload)
	}
	if review.ReviewID != 1 {
		t.Errorf("review ID = %d, want 1", review.ReviewID)
	}
}

func TestContractLookupTreats404AsAbsence(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no contract", http.StatusNotFound)
	}))
	store.Set(session.KeyAuthToken, "tok")

	contract, err := client.GetContractByOrder(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetContractByOrder: %v", err)
	}
	if contract != nil {
		t.Errorf("contract = %+v, want nil for 404", contract)
	}
}

func TestRejectListingEncodesReason(t *testing.T) {
	var gotReason string
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReason = r.URL.Query().Get("reason")
	}))
	store.Set(session.KeyAuthToken, "tok")

	if err := client.RejectListing(context.Background(), 3, "blurry photos & wrong price"); err != nil {
		t.Fatalf("RejectListing: %v", err)
	}
	if gotReason != "blurry photos & wrong price" {
		t.Errorf("reason = %q, want the decoded original", gotReason)
	}
}

func TestSystemConfigFallsBackToDefaults(t *testing.T) {
	client, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	store.Set(session.KeyAuthToken, "tok")

	keys := []string{"EXTEND_PRICE_PER_DAY", "FREE_LISTING_DAYS", "COMMISSION_RATE"}
	configs, err := client.GetSystemConfigs(context.Background(), keys)
	if err != nil {
		t.Fatalf("GetSystemConfigs: %v", err)
	}
	if got := configs["EXTEND_PRICE_PER_DAY"]; got != "5000" {
		t.Errorf("EXTEND_PRICE_PER_DAY = %q, want 5000", got)
	}
	if got := configs["FREE_LISTING_DAYS"]; got != "14" {
		t.Errorf("FREE_LISTING_DAYS = %q, want 14", got)
	}
	if got := configs["COMMISSION_RATE"]; got != "0.05" {
		t.Errorf("COMMISSION_RATE = %q, want 0.05", got)
	}
}
