package config

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

// configEnv lists every variable Load reads.
var configEnv = []string{
	"CONFIG_FILE", "PORT", "ENVIRONMENT", "LOG_LEVEL", "APP_VERSION",
	"GCP_PROJECT", "SECRETS_NAME",
	"SHOPIFY_STORE_DOMAIN", "SHOPIFY_API_VERSION", "SHOPIFY_STOREFRONT_TOKEN",
	"SHOPIFY_RATE_LIMIT", "SHOPIFY_RATE_BURST",
	"STRIPE_PUBLISHABLE_KEY", "STRIPE_SECRET_KEY", "CHECKOUT_CURRENCY",
	"REDIS_URL", "CART_ID_TTL", "CART_IDLE_TIMEOUT", "CART_ROLLBACK", "CART_MAX_ATTEMPTS",
}

// clearEnv blanks every config variable for the duration of the test.
// Empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %s, want development", cfg.Environment)
	}
	if cfg.Version != "v1.0.0" {
		t.Errorf("Version = %s, want v1.0.0", cfg.Version)
	}
	if !cfg.DemoMode() {
		t.Error("DemoMode() should be true without a store domain")
	}
	if cfg.PaymentsEnabled() {
		t.Error("PaymentsEnabled() should be false without stripe keys")
	}
	if cfg.Shopify.APIVersion != "2025-07" {
		t.Errorf("APIVersion = %s, want 2025-07", cfg.Shopify.APIVersion)
	}
	if cfg.Stripe.Currency != "usd" {
		t.Errorf("Currency = %s, want usd", cfg.Stripe.Currency)
	}
	if cfg.Cart.IDTTL != 30*24*time.Hour {
		t.Errorf("IDTTL = %v, want 720h", cfg.Cart.IDTTL)
	}
	if cfg.Cart.IdleTimeout != 30*time.Minute {
		t.Errorf("IdleTimeout = %v, want 30m", cfg.Cart.IdleTimeout)
	}
	if cfg.Cart.Rollback != "refetch" || cfg.Cart.MaxAttempts != 2 {
		t.Errorf("Cart = %+v", cfg.Cart)
	}
	if cfg.Shopify.RateLimit != 0 || cfg.Shopify.RateBurst != 1 {
		t.Errorf("rate = %v/%d, want 0/1", cfg.Shopify.RateLimit, cfg.Shopify.RateBurst)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_VERSION", "2.3.1")
	t.Setenv("SHOPIFY_STORE_DOMAIN", "https://My-Shop.myshopify.com/")
	t.Setenv("SHOPIFY_STOREFRONT_TOKEN", "public-token")
	t.Setenv("SHOPIFY_RATE_LIMIT", "2.5")
	t.Setenv("SHOPIFY_RATE_BURST", "4")
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "pk_test_1")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_1")
	t.Setenv("CHECKOUT_CURRENCY", "EUR")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CART_ID_TTL", "48h")
	t.Setenv("CART_IDLE_TIMEOUT", "5m")
	t.Setenv("CART_ROLLBACK", "snapshot")
	t.Setenv("CART_MAX_ATTEMPTS", "3")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.Version != "v2.3.1" {
		t.Errorf("Version = %s, want v2.3.1", cfg.Version)
	}
	if cfg.Shopify.StoreDomain != "my-shop.myshopify.com" {
		t.Errorf("StoreDomain = %s, want my-shop.myshopify.com", cfg.Shopify.StoreDomain)
	}
	if cfg.DemoMode() {
		t.Error("DemoMode() should be false")
	}
	if cfg.Shopify.StorefrontToken != "public-token" {
		t.Errorf("StorefrontToken = %s", cfg.Shopify.StorefrontToken)
	}
	if cfg.Shopify.RateLimit != 2.5 || cfg.Shopify.RateBurst != 4 {
		t.Errorf("rate = %v/%d, want 2.5/4", cfg.Shopify.RateLimit, cfg.Shopify.RateBurst)
	}
	if !cfg.PaymentsEnabled() {
		t.Error("PaymentsEnabled() should be true")
	}
	if cfg.Stripe.Currency != "eur" {
		t.Errorf("Currency = %s, want eur", cfg.Stripe.Currency)
	}
	if cfg.Cart.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %s", cfg.Cart.RedisURL)
	}
	if cfg.Cart.IDTTL != 48*time.Hour || cfg.Cart.IdleTimeout != 5*time.Minute {
		t.Errorf("IDTTL = %v, IdleTimeout = %v", cfg.Cart.IDTTL, cfg.Cart.IdleTimeout)
	}
	if cfg.Cart.Rollback != "snapshot" || cfg.Cart.MaxAttempts != 3 {
		t.Errorf("Cart = %+v", cfg.Cart)
	}
}

func TestLoadInvalidEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad version", map[string]string{"APP_VERSION": "latest"}, "must be semver"},
		{"secret without publishable", map[string]string{"STRIPE_SECRET_KEY": "sk"}, "publishable key is required"},
		{"publishable without secret", map[string]string{"STRIPE_PUBLISHABLE_KEY": "pk"}, "secret key is required"},
		{"bad rollback", map[string]string{"CART_ROLLBACK": "ignore"}, "invalid cart rollback"},
		{"zero attempts", map[string]string{"CART_MAX_ATTEMPTS": "0"}, "at least 1"},
		{"non-numeric attempts", map[string]string{"CART_MAX_ATTEMPTS": "two"}, "CART_MAX_ATTEMPTS"},
		{"bad ttl", map[string]string{"CART_ID_TTL": "forever"}, "CART_ID_TTL"},
		{"negative ttl", map[string]string{"CART_ID_TTL": "-1h"}, "must be positive"},
		{"zero idle timeout", map[string]string{"CART_IDLE_TIMEOUT": "0s"}, "idle timeout must be positive"},
		{"bad rate", map[string]string{"SHOPIFY_RATE_LIMIT": "fast"}, "SHOPIFY_RATE_LIMIT"},
		{"negative rate", map[string]string{"SHOPIFY_RATE_LIMIT": "-1"}, "must not be negative"},
		{"bad domain", map[string]string{"SHOPIFY_STORE_DOMAIN": "shop_name!"}, "invalid store domain"},
		{"production without project", map[string]string{"ENVIRONMENT": "production"}, "GCP_PROJECT required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeStoreDomain(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"   ", "", false},
		{"my-shop", "my-shop.myshopify.com", false},
		{"my-shop.myshopify.com", "my-shop.myshopify.com", false},
		{"https://my-shop.myshopify.com", "my-shop.myshopify.com", false},
		{"http://my-shop.myshopify.com/", "my-shop.myshopify.com", false},
		{"https://my-shop.myshopify.com/admin/products?x=1", "my-shop.myshopify.com", false},
		{"MY-SHOP.MyShopify.com", "my-shop.myshopify.com", false},
		{"shop.example.com.", "shop.example.com", false},
		{"https://", "", true},
		{"-shop", "", true},
		{"shop..example.com", "", true},
		{"shop name", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeStoreDomain(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeStoreDomain(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeStoreDomain(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{
		Stripe:  StripeConfig{SecretKey: "sk_env"},
		Shopify: ShopifyConfig{StorefrontToken: "token_env"},
	}

	if err := cfg.applySecrets([]byte(`{"stripe_secret_key":"sk_secret"}`)); err != nil {
		t.Fatalf("applySecrets: %v", err)
	}
	if cfg.Stripe.SecretKey != "sk_secret" {
		t.Errorf("SecretKey = %s, want sk_secret", cfg.Stripe.SecretKey)
	}
	if cfg.Shopify.StorefrontToken != "token_env" {
		t.Errorf("StorefrontToken = %s, want env value kept", cfg.Shopify.StorefrontToken)
	}

	if err := cfg.applySecrets([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "custom")
	if got := envOrDefault("TEST_ENV_VAR", "default"); got != "custom" {
		t.Errorf("envOrDefault = %q, want custom", got)
	}

	t.Setenv("TEST_ENV_VAR", "")
	if got := envOrDefault("TEST_ENV_VAR", "default"); got != "default" {
		t.Errorf("envOrDefault = %q, want default", got)
	}
}

func TestWithDefault(t *testing.T) {
	if got := withDefault("value", "default"); got != "value" {
		t.Errorf("withDefault(value, default) = %q, want value", got)
	}
	if got := withDefault("", "default"); got != "default" {
		t.Errorf("withDefault('', default) = %q, want default", got)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config-*.json")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfigFile(t, `{
		"port": "9090",
		"environment": "test",
		"log_level": "debug",
		"version": "v1.4.0",
		"shopify": {"store_domain": "file-shop", "storefront_token": "tok", "rate_limit": 5},
		"stripe": {"publishable_key": "pk_file", "secret_key": "sk_file"},
		"cart": {"redis_url": "redis://cache:6379", "id_ttl": "24h", "rollback": "snapshot"}
	}`))

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.Shopify.StoreDomain != "file-shop.myshopify.com" {
		t.Errorf("StoreDomain = %s, want file-shop.myshopify.com (normalized)", cfg.Shopify.StoreDomain)
	}
	if cfg.Shopify.APIVersion != "2025-07" {
		t.Errorf("APIVersion = %s, want default", cfg.Shopify.APIVersion)
	}
	if cfg.Shopify.RateLimit != 5 || cfg.Shopify.RateBurst != 1 {
		t.Errorf("rate = %v/%d", cfg.Shopify.RateLimit, cfg.Shopify.RateBurst)
	}
	if cfg.Stripe.SecretKey != "sk_file" || cfg.Stripe.Currency != "usd" {
		t.Errorf("Stripe = %+v", cfg.Stripe)
	}
	if cfg.Cart.IDTTL != 24*time.Hour || cfg.Cart.IdleTimeout != 30*time.Minute {
		t.Errorf("IDTTL = %v, IdleTimeout = %v", cfg.Cart.IDTTL, cfg.Cart.IdleTimeout)
	}
	if cfg.Cart.Rollback != "snapshot" || cfg.Cart.MaxAttempts != 2 {
		t.Errorf("Cart = %+v", cfg.Cart)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "file not found",
			path:    func(t *testing.T) string { return "/nonexistent/config.json" },
			wantErr: "reading config file",
		},
		{
			name:    "invalid JSON",
			path:    func(t *testing.T) string { return writeConfigFile(t, "{invalid json") },
			wantErr: "parsing config file",
		},
		{
			name:    "bad duration",
			path:    func(t *testing.T) string { return writeConfigFile(t, `{"cart": {"id_ttl": "soon"}}`) },
			wantErr: "cart.id_ttl",
		},
		{
			name:    "unpaired stripe key",
			path:    func(t *testing.T) string { return writeConfigFile(t, `{"stripe": {"secret_key": "sk"}}`) },
			wantErr: "publishable key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CONFIG_FILE", tt.path(t))

			_, err := Load(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
