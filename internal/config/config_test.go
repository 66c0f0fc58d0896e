package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ORDERDESK_API_URL", "POLL_INTERVAL", "POLL_MAX_ATTEMPTS", "TAX_RATE", "HTTP_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != 2*time.Second || cfg.PollMaxAttempts != 30 {
		t.Fatalf("poll defaults = %v x %d", cfg.PollInterval, cfg.PollMaxAttempts)
	}
	if cfg.PollTimeout() != time.Minute {
		t.Fatalf("PollTimeout = %v, want 1m", cfg.PollTimeout())
	}
	if cfg.TaxRate != 0.10 {
		t.Fatalf("TaxRate = %v", cfg.TaxRate)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ORDERDESK_API_URL", "https://orders.example.com")
	t.Setenv("POLL_INTERVAL", "500")
	t.Setenv("POLL_MAX_ATTEMPTS", "10")
	t.Setenv("HTTP_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://orders.example.com" || cfg.PollInterval != 500*time.Millisecond ||
		cfg.PollMaxAttempts != 10 || cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"ORDERDESK_API_URL": "not a url",
		"TAX_RATE":          "1.5",
		"POLL_MAX_ATTEMPTS": "-1",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error for %s=%s", key, value)
			}
		})
	}
}
