// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"golang.org/x/mod/semver"
)

// Defaults for optional settings.
const (
	DefaultPort            = "8080"
	DefaultVersion         = "v1.0.0"
	DefaultAPIVersion      = "2025-07"
	DefaultCurrency        = "usd"
	DefaultSecretsName     = "storefront"
	DefaultCartIDTTL       = 30 * 24 * time.Hour
	DefaultCartIdleTimeout = 30 * time.Minute
	DefaultCartRollback    = "refetch"
	DefaultCartMaxAttempts = 2
	DefaultRateBurst       = 1
)

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"
	Version     string // Semver, reported by /health and checked by the CLI

	// GCP settings (required in production)
	GCPProject  string
	SecretsName string

	Shopify ShopifyConfig
	Stripe  StripeConfig
	Cart    CartConfig
}

// ShopifyConfig selects the commerce backend. An empty StoreDomain means
// demo mode: static catalog and local-only carts.
type ShopifyConfig struct {
	StoreDomain     string  `json:"store_domain"` // Normalized by NormalizeStoreDomain
	APIVersion      string  `json:"api_version"`
	StorefrontToken string  `json:"storefront_token"`
	RateLimit       float64 `json:"rate_limit"` // Requests per second, 0 = unlimited
	RateBurst       int     `json:"rate_burst"`
}

// StripeConfig enables embedded checkout. Both keys or neither.
type StripeConfig struct {
	PublishableKey string `json:"publishable_key"`
	SecretKey      string `json:"secret_key"`
	Currency       string `json:"currency"`
}

// CartConfig tunes per-visitor cart handling.
type CartConfig struct {
	RedisURL    string        // Empty = in-memory cart ID store
	IDTTL       time.Duration // Lifetime of a persisted cart ID
	IdleTimeout time.Duration // Stores unused this long are released
	Rollback    string        // "refetch" or "snapshot"
	MaxAttempts int
}

// Secrets is the JSON payload stored in Secret Manager.
type Secrets struct {
	StripeSecretKey string `json:"stripe_secret_key"`
	StorefrontToken string `json:"storefront_token"`
}

// DemoMode reports whether no commerce backend is configured.
func (c *Config) DemoMode() bool {
	return c.Shopify.StoreDomain == ""
}

// PaymentsEnabled reports whether checkout sessions can be created.
func (c *Config) PaymentsEnabled() bool {
	return c.Stripe.SecretKey != ""
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Normalizes the store domain and validates the result.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", DefaultPort),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		Version:     envOrDefault("APP_VERSION", DefaultVersion),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		SecretsName: envOrDefault("SECRETS_NAME", DefaultSecretsName),
		Shopify: ShopifyConfig{
			StoreDomain:     os.Getenv("SHOPIFY_STORE_DOMAIN"),
			APIVersion:      envOrDefault("SHOPIFY_API_VERSION", DefaultAPIVersion),
			StorefrontToken: os.Getenv("SHOPIFY_STOREFRONT_TOKEN"),
		},
		Stripe: StripeConfig{
			PublishableKey: os.Getenv("STRIPE_PUBLISHABLE_KEY"),
			SecretKey:      os.Getenv("STRIPE_SECRET_KEY"),
			Currency:       envOrDefault("CHECKOUT_CURRENCY", DefaultCurrency),
		},
		Cart: CartConfig{
			RedisURL: os.Getenv("REDIS_URL"),
			Rollback: envOrDefault("CART_ROLLBACK", DefaultCartRollback),
		},
	}

	var err error
	if cfg.Shopify.RateLimit, err = envFloat("SHOPIFY_RATE_LIMIT", 0); err != nil {
		return nil, err
	}
	if cfg.Shopify.RateBurst, err = envInt("SHOPIFY_RATE_BURST", DefaultRateBurst); err != nil {
		return nil, err
	}
	if cfg.Cart.MaxAttempts, err = envInt("CART_MAX_ATTEMPTS", DefaultCartMaxAttempts); err != nil {
		return nil, err
	}
	if cfg.Cart.IDTTL, err = envDuration("CART_ID_TTL", DefaultCartIDTTL); err != nil {
		return nil, err
	}
	if cfg.Cart.IdleTimeout, err = envDuration("CART_IDLE_TIMEOUT", DefaultCartIdleTimeout); err != nil {
		return nil, err
	}

	// Secrets come from Secret Manager in production; env values are the fallback
	if cfg.IsProduction() {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading secrets: %w", err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Use a struct that matches the JSON structure
	var fileConfig struct {
		Port        string        `json:"port"`
		Environment string        `json:"environment"`
		LogLevel    string        `json:"log_level"`
		Version     string        `json:"version"`
		Shopify     ShopifyConfig `json:"shopify"`
		Stripe      StripeConfig  `json:"stripe"`
		Cart        struct {
			RedisURL    string `json:"redis_url"`
			IDTTL       string `json:"id_ttl"`
			IdleTimeout string `json:"idle_timeout"`
			Rollback    string `json:"rollback"`
			MaxAttempts int    `json:"max_attempts"`
		} `json:"cart"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, DefaultPort),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		Version:     withDefault(fileConfig.Version, DefaultVersion),
		Shopify:     fileConfig.Shopify,
		Stripe:      fileConfig.Stripe,
		Cart: CartConfig{
			RedisURL:    fileConfig.Cart.RedisURL,
			Rollback:    withDefault(fileConfig.Cart.Rollback, DefaultCartRollback),
			MaxAttempts: fileConfig.Cart.MaxAttempts,
		},
	}

	cfg.Shopify.APIVersion = withDefault(cfg.Shopify.APIVersion, DefaultAPIVersion)
	cfg.Stripe.Currency = withDefault(cfg.Stripe.Currency, DefaultCurrency)
	if cfg.Shopify.RateBurst == 0 {
		cfg.Shopify.RateBurst = DefaultRateBurst
	}
	if cfg.Cart.MaxAttempts == 0 {
		cfg.Cart.MaxAttempts = DefaultCartMaxAttempts
	}
	if cfg.Cart.IDTTL, err = parseDuration("cart.id_ttl", fileConfig.Cart.IDTTL, DefaultCartIDTTL); err != nil {
		return nil, err
	}
	if cfg.Cart.IdleTimeout, err = parseDuration("cart.idle_timeout", fileConfig.Cart.IdleTimeout, DefaultCartIdleTimeout); err != nil {
		return nil, err
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches secrets from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{secrets_name}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SecretsName)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	return c.applySecrets(result.Payload.Data)
}

// applySecrets merges a Secrets JSON payload over the current values.
func (c *Config) applySecrets(data []byte) error {
	var s Secrets
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	if s.StripeSecretKey != "" {
		c.Stripe.SecretKey = s.StripeSecretKey
	}
	if s.StorefrontToken != "" {
		c.Shopify.StorefrontToken = s.StorefrontToken
	}
	return nil
}

// finish normalizes derived fields and validates the result.
func (c *Config) finish() error {
	domain, err := NormalizeStoreDomain(c.Shopify.StoreDomain)
	if err != nil {
		return err
	}
	c.Shopify.StoreDomain = domain

	if c.Version != "" && !strings.HasPrefix(c.Version, "v") {
		c.Version = "v" + c.Version
	}
	c.Stripe.Currency = strings.ToLower(c.Stripe.Currency)

	return c.validate()
}

// validate checks that configured values are consistent.
func (c *Config) validate() error {
	if !semver.IsValid(c.Version) {
		return fmt.Errorf("invalid version %q: must be semver", c.Version)
	}

	// The embedded form needs the publishable key; sessions need the secret key
	if c.Stripe.SecretKey != "" && c.Stripe.PublishableKey == "" {
		return fmt.Errorf("stripe publishable key is required when a secret key is set")
	}
	if c.Stripe.PublishableKey != "" && c.Stripe.SecretKey == "" {
		return fmt.Errorf("stripe secret key is required when a publishable key is set")
	}

	switch c.Cart.Rollback {
	case "refetch", "snapshot":
	default:
		return fmt.Errorf("invalid cart rollback %q: want refetch or snapshot", c.Cart.Rollback)
	}
	if c.Cart.MaxAttempts < 1 {
		return fmt.Errorf("cart max attempts must be at least 1, got %d", c.Cart.MaxAttempts)
	}
	if c.Cart.IDTTL <= 0 {
		return fmt.Errorf("cart id ttl must be positive")
	}
	if c.Cart.IdleTimeout <= 0 {
		return fmt.Errorf("cart idle timeout must be positive")
	}
	if c.Shopify.RateLimit < 0 {
		return fmt.Errorf("shopify rate limit must not be negative")
	}

	return nil
}

// NormalizeStoreDomain turns what a merchant pastes into a bare host.
//
//	https://my-shop.myshopify.com/admin/ → my-shop.myshopify.com
//	my-shop                             → my-shop.myshopify.com
//	shop.example.com                    → shop.example.com
//
// Empty input yields "" (demo mode).
func NormalizeStoreDomain(raw string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(raw))
	if d == "" {
		return "", nil
	}

	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimSuffix(d, ".")

	if d == "" {
		return "", fmt.Errorf("invalid store domain %q", raw)
	}
	if !strings.Contains(d, ".") {
		d += ".myshopify.com"
	}

	for _, label := range strings.Split(d, ".") {
		if !validLabel(label) {
			return "", fmt.Errorf("invalid store domain %q", raw)
		}
	}
	return d, nil
}

// validLabel checks one DNS label: [a-z0-9-], not starting or ending with '-'.
func validLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, r := range label {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return f, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	return parseDuration(key, os.Getenv(key), defaultVal)
}

func parseDuration(name, val string, defaultVal time.Duration) (time.Duration, error) {
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", name, err)
	}
	return d, nil
}
