package dashboard

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/besofuls/EVTrade/internal/api"
	"github.com/besofuls/EVTrade/internal/metrics"
	"github.com/besofuls/EVTrade/internal/session"
	"github.com/besofuls/EVTrade/pkg/config"
)

// newTestClient stands up an HTTP backend and a client with a staff token
// already stored.
func newTestClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := session.Open(filepath.Join(t.TempDir(), "session.json"), 0)
	if err != nil {
		t.Fatalf("opening session store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Set(session.KeyAuthToken, "staff-token"); err != nil {
		t.Fatalf("storing token: %v", err)
	}

	m, err := metrics.NewAppMetrics(noop.NewMeterProvider().Meter("test"), "test")
	if err != nil {
		t.Fatalf("creating metrics: %v", err)
	}

	cfg := &config.Config{APIBaseURL: server.URL, HTTPTimeout: 5 * time.Second}
	return api.NewClient(cfg, store, m)
}
