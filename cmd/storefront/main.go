// Storefront - product catalog, per-visitor carts and embedded checkout.
// Runs against a Shopify store, or in demo mode when none is configured.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/session"
	"storefront/internal/shopify"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("version", cfg.Version),
		slog.String("store_domain", cfg.Shopify.StoreDomain),
		slog.Bool("demo_mode", cfg.DemoMode()),
		slog.Bool("payments_enabled", cfg.PaymentsEnabled()),
	)

	client := shopify.New(shopify.Config{
		StoreDomain:     cfg.Shopify.StoreDomain,
		APIVersion:      cfg.Shopify.APIVersion,
		StorefrontToken: cfg.Shopify.StorefrontToken,
		RateLimit:       cfg.Shopify.RateLimit,
		RateBurst:       cfg.Shopify.RateBurst,
		Logger:          logger,
	})

	backend, closeBackend, err := createCartBackend(ctx, cfg, client, logger)
	if err != nil {
		return fmt.Errorf("creating cart backend: %w", err)
	}
	defer closeBackend()

	carts := cart.NewManager(backend, logger)
	defer carts.Close()

	var sessions checkout.Sessions
	if cfg.PaymentsEnabled() {
		sessions = checkout.NewStripeSessions(cfg.Stripe.SecretKey, checkout.NewStripeBackend(nil))
	}
	initiator := checkout.NewInitiator(sessions, catalog.FindDemo, cfg.Stripe.Currency, logger)

	h := handler.New(
		catalog.NewService(client, logger),
		carts,
		initiator,
		handler.Info{
			StoreDomain:          cfg.Shopify.StoreDomain,
			StripePublishableKey: cfg.Stripe.PublishableKey,
			Version:              cfg.Version,
		},
		logger,
	)

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request ID → logging → session → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		session.Middleware(cfg.IsProduction(), logger),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(httpHandler, "storefront"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweepIdleCarts(sweepCtx, carts, cfg.Cart.IdleTimeout)

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// createCartBackend picks the cart strategy. Demo mode keeps carts in memory;
// otherwise carts live in Shopify and their IDs in Redis (or memory).
// The returned func releases backend resources.
func createCartBackend(ctx context.Context, cfg *config.Config, client *shopify.Client, logger *slog.Logger) (cart.Backend, func(), error) {
	noop := func() {}

	if cfg.DemoMode() {
		logger.Info("demo mode: carts are local only")
		return cart.NewLocalBackend(catalog.FindDemo), noop, nil
	}

	rollback, err := cart.ParseRollback(cfg.Cart.Rollback)
	if err != nil {
		return nil, nil, err
	}

	policy := cart.DefaultRetryPolicy()
	policy.MaxAttempts = cfg.Cart.MaxAttempts

	var ids cart.IDStore
	closeIDs := noop
	if cfg.Cart.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cart.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}

		ids = cart.NewRedisIDStore(rdb, cfg.Cart.IDTTL)
		closeIDs = func() { rdb.Close() }
		logger.Info("cart IDs persisted in redis", slog.String("addr", opts.Addr))
	} else {
		ids = cart.NewMemoryIDStore()
		logger.Warn("REDIS_URL not set: cart IDs are lost on restart")
	}

	backend := cart.NewRemoteBackend(client, ids,
		cart.WithRetryPolicy(policy),
		cart.WithRollback(rollback),
		cart.WithRemoteLogger(logger),
	)
	return backend, closeIDs, nil
}

// sweepIdleCarts releases cart stores unused for longer than idle.
func sweepIdleCarts(ctx context.Context, carts *cart.Manager, idle time.Duration) {
	interval := max(idle/2, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			carts.Sweep(idle)
		}
	}
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
