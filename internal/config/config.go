package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Port          string `koanf:"port"`
	PublicBaseURL string `koanf:"public_base_url"`

	// StripeSecretKey is required; Load fails without it so a misconfigured
	// deployment dies at startup instead of at the first checkout.
	StripeSecretKey string `koanf:"stripe_secret_key"`

	// DatabaseURL switches the catalog to Postgres when set.
	DatabaseURL string `koanf:"database_url"`

	// DownloadTokenSecret signs purchase download links. When empty the
	// process falls back to an ephemeral secret.
	DownloadTokenSecret string `koanf:"download_token_secret"`

	// AdminTokenHash is the bcrypt hash of the admin bearer token. Empty
	// disables the admin routes.
	AdminTokenHash string `koanf:"admin_token_hash"`

	MetricsEnabled bool   `koanf:"metrics_enabled"`
	MetricsToken   string `koanf:"metrics_token"`

	RateLimit         int `koanf:"rate_limit"`
	RateWindowSeconds int `koanf:"rate_window_seconds"`
}

var defaults = map[string]any{
	"port":                "5000",
	"public_base_url":     "http://localhost:5000",
	"rate_limit":          30,
	"rate_window_seconds": 60,
}

// Load reads configuration from the environment over built-in defaults.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.StripeSecretKey == "" {
		return Config{}, errors.New("missing required Stripe secret: STRIPE_SECRET_KEY")
	}
	if cfg.RateLimit <= 0 || cfg.RateWindowSeconds <= 0 {
		return Config{}, errors.New("RATE_LIMIT and RATE_WINDOW_SECONDS must be positive")
	}

	return cfg, nil
}
