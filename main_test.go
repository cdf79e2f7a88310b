package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/besofuls/EVTrade/internal/models"
	"github.com/besofuls/EVTrade/internal/session"
)

func storeWithToken(t *testing.T, role string, exp time.Time) *session.Store {
	t.Helper()
	store, err := session.Open(filepath.Join(t.TempDir(), "session.json"), 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(store.Close)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7", "exp": exp.Unix()})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	err = store.Login(&models.LoginResponse{Token: signed, UserID: 7, Username: "alice", Role: role})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return store
}

func TestStaffCommandWipesExpiredSession(t *testing.T) {
	store := storeWithToken(t, "Admin", time.Now().Add(-time.Minute))

	if err := requireStaff(store); err == nil {
		t.Fatal("requireStaff succeeded with an expired token")
	}
	for _, key := range session.AllKeys {
		if got := store.Get(key); got != "" {
			t.Errorf("key %q = %q after expired-session check, want empty", key, got)
		}
	}
	if store.Current().State != session.Anonymous {
		t.Errorf("state = %v after wipe, want Anonymous", store.Current().State)
	}
}

func TestStaffCommandKeepsValidMemberSession(t *testing.T) {
	store := storeWithToken(t, "Member", time.Now().Add(time.Hour))

	if err := requireStaff(store); err == nil {
		t.Fatal("requireStaff allowed a non-staff session")
	}
	if store.Token() == "" {
		t.Error("valid member session was cleared by a denied staff check")
	}
	if store.Current().State != session.Authenticated {
		t.Errorf("state = %v, want Authenticated to survive the denial", store.Current().State)
	}
}

func TestAdminCommandAllowsAdmin(t *testing.T) {
	store := storeWithToken(t, "Admin", time.Now().Add(time.Hour))

	if err := requireAdmin(store); err != nil {
		t.Fatalf("requireAdmin: %v", err)
	}
	if err := requireStaff(store); err != nil {
		t.Fatalf("requireStaff: %v", err)
	}
}
