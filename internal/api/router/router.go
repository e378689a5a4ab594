// Package router assembles the chi router for the booking API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hrznstays/direct-booking-api/internal/http/handlers"
	httpmiddleware "github.com/hrznstays/direct-booking-api/internal/http/middleware"
	"github.com/hrznstays/direct-booking-api/internal/payments"
	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	CheckoutHandler    *payments.CheckoutHandler
	WebhookHandler     *payments.WebhookHandler
	BookingHandler     *handlers.BookingHandler
	AdminPassword      string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: checkout, webhook, calendar feeds, health.
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.BookingHandler.Health)
		if cfg.CheckoutHandler != nil {
			public.Post("/create-checkout-session", cfg.CheckoutHandler.CreateCheckoutSession)
			public.Post("/create-payment-intent", cfg.CheckoutHandler.CreatePaymentIntent)
		}
		if cfg.WebhookHandler != nil {
			public.Post("/webhook", cfg.WebhookHandler.Handle)
		}
		public.Get("/calendar/{propertyCode}.ics", cfg.BookingHandler.Calendar)
		public.Get("/bookings", cfg.BookingHandler.List)
		public.Get("/bookings/{propertyCode}", cfg.BookingHandler.List)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin endpoints.
	r.Group(func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminAuth(cfg.AdminPassword))
		admin.Delete("/bookings/{propertyCode}/{bookingId}", cfg.BookingHandler.Delete)
	})

	return r
}
