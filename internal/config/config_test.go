package config_test

import (
	"strings"
	"testing"

	"CeazyStore/internal/config"
)

func TestLoad_RequiresStripeKey(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error without STRIPE_SECRET_KEY")
	}
	if !strings.Contains(err.Error(), "STRIPE_SECRET_KEY") {
		t.Fatalf("err = %v, want mention of STRIPE_SECRET_KEY", err)
	}
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_abc")
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ADMIN_TOKEN_HASH", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.StripeSecretKey != "sk_test_abc" {
		t.Fatalf("stripe key = %q", cfg.StripeSecretKey)
	}
	if cfg.Port != "9000" {
		t.Fatalf("port = %q, want 9000", cfg.Port)
	}
	if cfg.PublicBaseURL != "http://localhost:5000" {
		t.Fatalf("public base url = %q", cfg.PublicBaseURL)
	}
	if cfg.RateLimit != 30 || cfg.RateWindowSeconds != 60 {
		t.Fatalf("rate limit defaults = %d/%d", cfg.RateLimit, cfg.RateWindowSeconds)
	}
	if cfg.DatabaseURL != "" || cfg.AdminTokenHash != "" {
		t.Fatalf("optional values should default empty: %+v", cfg)
	}
}
