package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/checkout-bridge/api/controllers"
	webhookcontrollers "github.com/angelmondragon/checkout-bridge/api/controllers/webhooks"
	"github.com/angelmondragon/checkout-bridge/api/routes"
	checkoutsvc "github.com/angelmondragon/checkout-bridge/internal/checkout"
	"github.com/angelmondragon/checkout-bridge/internal/orders"
	stripewebhook "github.com/angelmondragon/checkout-bridge/internal/webhooks/stripe"
	"github.com/angelmondragon/checkout-bridge/pkg/config"
	"github.com/angelmondragon/checkout-bridge/pkg/db"
	"github.com/angelmondragon/checkout-bridge/pkg/instance"
	"github.com/angelmondragon/checkout-bridge/pkg/logger"
	"github.com/angelmondragon/checkout-bridge/pkg/metrics"
	"github.com/angelmondragon/checkout-bridge/pkg/migrate"
	"github.com/angelmondragon/checkout-bridge/pkg/redis"
	"github.com/angelmondragon/checkout-bridge/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: config.ServiceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: config.ServiceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	closers := []func() error{dbClient.Close}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	healthChecks := map[string]controllers.Pinger{"database": dbClient}

	var webhookGuard webhookcontrollers.StripeWebhookGuard
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)
		healthChecks["redis"] = redisClient

		idempotency, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.IdempotencyTTL, stripewebhook.IdempotencyScope)
		if err != nil {
			logg.Error(ctx, "failed to create webhook idempotency guard", err)
			os.Exit(1)
		}
		webhookGuard = idempotency
	} else {
		logg.Warn(ctx, "redis disabled; webhook redeliveries rely on the orders unique index")
	}

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stripe client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	sessions := stripe.NewSessions(stripeClient, checkoutMetrics)

	checkoutService, err := checkoutsvc.NewService(sessions, cfg.Frontend.BaseURL(), logg, checkoutMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	mode := config.PersistenceModeDirect
	if cfg.DB.UsesProcedure() {
		mode = config.PersistenceModeProcedure
	}
	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Gateway:         sessions,
		OrdersRepo:      orders.NewRepository(dbClient.DB()),
		PersistenceMode: mode,
		Logger:          logg,
		Metrics:         checkoutMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(cfg, logg, routes.Dependencies{
		Checkout:      checkoutService,
		Webhooks:      webhookService,
		WebhookGuard:  webhookGuard,
		Stripe:        stripeClient,
		HealthChecks:  healthChecks,
		HTTPMetrics:   metrics.NewHTTPMetrics(registry),
		MetricsSource: registry,
	})

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(router, config.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveCtx := logg.WithFields(ctx, map[string]any{
		"env":             cfg.App.Env,
		"addr":            addr,
		"instance":        instance.ID(),
		"stripe_env":      stripeClient.Environment(),
		"persistence":     mode,
		"redis_enabled":   cfg.Redis.Enabled(),
		"allowed_origins": cfg.Frontend.Origins(),
	})
	logg.Info(serveCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serveCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(serveCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serveCtx, "graceful shutdown failed", err)
			exitCode = 1
		}
		cancel()
	}

	var closeErr error
	for _, closeFn := range closers {
		closeErr = multierr.Append(closeErr, closeFn())
	}
	if closeErr != nil {
		logg.Error(serveCtx, "error closing resources", closeErr)
	}

	os.Exit(exitCode)
}
