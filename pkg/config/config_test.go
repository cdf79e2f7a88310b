package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.APIBaseURL != "http://localhost:8080/api" {
		t.Errorf("APIBaseURL = %q, want default", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("HTTPTimeout = %v, want 15s", cfg.HTTPTimeout)
	}
	if cfg.SessionPollInterval != time.Second {
		t.Errorf("SessionPollInterval = %v, want 1s", cfg.SessionPollInterval)
	}
	if cfg.SessionFile == "" {
		t.Error("SessionFile is empty")
	}
	if cfg.OTELServiceName != "evtrade-client" {
		t.Errorf("OTELServiceName = %q, want evtrade-client", cfg.OTELServiceName)
	}
	if !cfg.OTELExporterOTLPInsecure {
		t.Error("OTELExporterOTLPInsecure = false, want true by default")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("EVTRADE_API_BASE_URL", "https://api.example.com/api")
	t.Setenv("EVTRADE_HTTP_TIMEOUT", "30s")
	t.Setenv("EVTRADE_SESSION_POLL_INTERVAL", "2") // bare seconds accepted
	t.Setenv("EVTRADE_SESSION_FILE", "/tmp/evtrade-test.json")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")

	cfg := LoadConfig()
	if cfg.APIBaseURL != "https://api.example.com/api" {
		t.Errorf("APIBaseURL = %q, want override", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.SessionPollInterval != 2*time.Second {
		t.Errorf("SessionPollInterval = %v, want 2s", cfg.SessionPollInterval)
	}
	if cfg.SessionFile != "/tmp/evtrade-test.json" {
		t.Errorf("SessionFile = %q, want override", cfg.SessionFile)
	}
	if cfg.OTELExporterOTLPInsecure {
		t.Error("OTELExporterOTLPInsecure = true, want false")
	}
}
