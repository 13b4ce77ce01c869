package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"go.uber.org/zap"

	"github.com/mlevasseur/boutique-api/internal/domain/address"
	"github.com/mlevasseur/boutique-api/internal/domain/cart"
	"github.com/mlevasseur/boutique-api/internal/domain/catalog"
	"github.com/mlevasseur/boutique-api/internal/domain/checkout"
	"github.com/mlevasseur/boutique-api/internal/domain/order"
	"github.com/mlevasseur/boutique-api/internal/handler"
	"github.com/mlevasseur/boutique-api/internal/storage/postgres"
	"github.com/mlevasseur/boutique-api/pkg/health"
	"github.com/mlevasseur/boutique-api/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.SetReady(true)

	// Repositories.
	catalogRepo := postgres.NewCatalogRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	addressRepo := postgres.NewAddressRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	authRepo := postgres.NewAuthRepository(pool)

	// Domain services.
	reviewService := catalog.NewReviewService(catalogRepo, reviewRepo)
	cartService := cart.NewService(cartRepo, catalogRepo)
	addressService := address.NewService(addressRepo)
	orderService := order.NewService(orderRepo)

	stripeSessions := &session.Client{
		B:   stripe.GetBackend(stripe.APIBackend),
		Key: cfg.Stripe.SecretKey,
	}
	checkoutService := checkout.NewService(cartService, addressService, stripeSessions, checkout.Config{
		Currency:         cfg.Stripe.Currency,
		AllowedCountries: cfg.Stripe.AllowedCountries,
	})
	fulfiller := checkout.NewFulfiller(cartService, addressService, orderRepo)

	// HTTP handlers.
	h := handler.New(
		handler.Config{
			WebhookSecret: cfg.Stripe.WebhookSecret,
			SessionPepper: []byte(cfg.SessionPepper),
			PublicBaseURL: cfg.PublicBaseURL,
		},
		catalogRepo,
		reviewService,
		cartService,
		addressService,
		orderService,
		checkoutService,
		fulfiller,
		authRepo,
	)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "Stripe-Signature"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("boutique-api", m),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
