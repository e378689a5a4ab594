package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hrznstays/direct-booking-api/cmd/mainconfig"
	"github.com/hrznstays/direct-booking-api/internal/api/router"
	"github.com/hrznstays/direct-booking-api/internal/booking"
	appconfig "github.com/hrznstays/direct-booking-api/internal/config"
	"github.com/hrznstays/direct-booking-api/internal/http/handlers"
	"github.com/hrznstays/direct-booking-api/internal/notify"
	"github.com/hrznstays/direct-booking-api/internal/observability/metrics"
	"github.com/hrznstays/direct-booking-api/internal/payments"
	"github.com/hrznstays/direct-booking-api/internal/property"
	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

func main() {
	// Local development reads .env; deployed environments set real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting direct-booking-api server",
		"env", cfg.Env,
		"port", cfg.Port,
		"bookings_file", cfg.BookingsFile,
	)

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// Notification sink
	klaviyo := notify.NewKlaviyoClient(cfg.KlaviyoAPIKey, cfg.KlaviyoAlertEmail, logger)
	notifier := notify.NewService(klaviyo, bookingMetrics, logger)

	// Property directory
	directory := property.NewDirectory(cfg.DefaultPropertyCode)
	if cfg.PropertyMapJSON != "" {
		var err error
		directory, err = property.NewDirectoryFromJSON(cfg.PropertyMapJSON, cfg.DefaultPropertyCode)
		if err != nil {
			logger.Error("invalid PROPERTY_MAP_JSON", "error", err)
			os.Exit(1)
		}
	}

	// Booking store with optional S3 snapshot backup
	store := booking.NewStore(cfg.BookingsFile, logger)
	if cfg.BackupS3Bucket != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		store = store.WithBackup(booking.NewS3Backup(s3.NewFromConfig(awsCfg), cfg.BackupS3Bucket, logger))
	}
	if err := store.Load(); err != nil {
		// Serve on an empty store rather than refuse to start; the alert
		// gives the operator a chance to restore from a snapshot.
		logger.Error("bookings file unreadable, serving empty store", "error", err)
		notifier.AlertError(context.Background(), "FILE_LOAD_FAILED", map[string]any{
			"error": err.Error(),
			"file":  cfg.BookingsFile,
		})
	}

	// Webhook dedupe: Redis when configured, otherwise in-process.
	var tracker payments.ProcessedTracker
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		tracker = payments.NewRedisEventTracker(redis.NewClient(opts), cfg.WebhookEventTTL, logger)
		logger.Info("webhook dedupe backed by redis", "addr", cfg.RedisAddr)
	} else {
		tracker = payments.NewMemoryEventTracker(cfg.WebhookEventTTL)
		logger.Warn("webhook dedupe is in-memory only; set REDIS_ADDR for durable dedupe")
	}

	// Stripe integration
	stripe := payments.NewStripeClient(cfg.StripeSecretKey, logger).WithDryRun(cfg.StripeDryRun)
	checkout := payments.NewCheckoutHandler(stripe, directory, notifier, payments.CheckoutConfig{
		Currency:           cfg.Currency,
		DefaultCleaningFee: int64(cfg.DefaultCleaningFeeCents),
		SuccessURL:         cfg.CheckoutSuccessURL,
		CancelURL:          cfg.CheckoutCancelURL,
	}, logger)
	reconciler := payments.NewReconciler(store, directory, notifier, bookingMetrics, logger)
	webhook := payments.NewWebhookHandler(cfg.StripeWebhookSecret, reconciler, tracker, notifier, bookingMetrics, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		CheckoutHandler:    checkout,
		WebhookHandler:     webhook,
		BookingHandler:     handlers.NewBookingHandler(store, notifier, logger),
		AdminPassword:      cfg.AdminPassword,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
