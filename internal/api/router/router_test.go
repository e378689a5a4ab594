package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hrznstays/direct-booking-api/internal/booking"
	"github.com/hrznstays/direct-booking-api/internal/http/handlers"
	"github.com/hrznstays/direct-booking-api/internal/payments"
	"github.com/hrznstays/direct-booking-api/internal/property"
	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

func newTestRouter(t *testing.T) (http.Handler, *booking.Store) {
	t.Helper()

	logger := logging.Default()
	store := booking.NewStore(filepath.Join(t.TempDir(), "bookings.json"), logger)
	directory := property.NewDirectory("cos1")

	stripe := payments.NewStripeClient("", logger).WithDryRun(true)
	checkout := payments.NewCheckoutHandler(stripe, directory, nil, payments.CheckoutConfig{
		Currency:   "usd",
		SuccessURL: "https://hrznstays.com/success",
		CancelURL:  "https://hrznstays.com/cancel",
	}, logger)
	reconciler := payments.NewReconciler(store, directory, nil, nil, logger)
	webhook := payments.NewWebhookHandler("", reconciler, nil, nil, nil, logger)

	cfg := &Config{
		Logger:             logger,
		CheckoutHandler:    checkout,
		WebhookHandler:     webhook,
		BookingHandler:     handlers.NewBookingHandler(store, nil, logger),
		AdminPassword:      "hunter2",
		CORSAllowedOrigins: []string{"*"},
	}
	return New(cfg), store
}

func TestRouterHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterCreatePaymentIntent(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{
		"amount": 90000,
		"email": "jane@example.com",
		"name": "Jane Doe",
		"booking": {"checkIn": "2026-12-10", "checkOut": "2026-12-13", "nights": 3, "guests": 2, "baseRate": 25000, "cleaningFee": 15000}
	}`
	req := httptest.NewRequest(http.MethodPost, "/create-payment-intent", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["client_secret"] == "" {
		t.Fatal("expected client_secret in response")
	}
}

func TestRouterWebhookCreatesBooking(t *testing.T) {
	router, store := newTestRouter(t)

	body := `{
		"id": "evt_router",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_router", "metadata": {
			"customer_name": "Jane Doe",
			"customer_email": "jane@example.com",
			"check_in": "2026-12-10",
			"check_out": "2026-12-13",
			"nights": "3",
			"guests": "2",
			"base_rate": "25000",
			"cleaning_fee": "15000",
			"listing_id": "869f5e1f-223b-4cc2-b64a-a0f4b8194c82"
		}}}
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if store.Count("cos1") != 1 {
		t.Fatalf("expected booking recorded, got %d", store.Count("cos1"))
	}
}

func TestRouterCalendarRoute(t *testing.T) {
	router, store := newTestRouter(t)
	if err := store.Append(context.Background(), booking.Booking{
		ID: "pi_feed", PaymentID: "pi_feed", GuestName: "Jane Doe",
		CheckIn: "2026-12-10", CheckOut: "2026-12-13",
		PropertyCode: "cos1", PropertyName: "Colorado Springs Retreat",
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/calendar/cos1.ics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "text/calendar" {
		t.Fatalf("expected text/calendar, got %q", got)
	}
	if !strings.Contains(rr.Body.String(), "UID:pi_feed@hrzn.com") {
		t.Fatalf("expected event in feed:\n%s", rr.Body.String())
	}
}

func TestRouterDeleteRequiresAdminPassword(t *testing.T) {
	router, store := newTestRouter(t)
	if err := store.Append(context.Background(), booking.Booking{
		ID: "pi_admin", PaymentID: "pi_admin", PropertyCode: "cos1",
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/bookings/cos1/pi_admin", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without password, got %d", rr.Code)
	}
	if store.Count("cos1") != 1 {
		t.Fatal("expected booking untouched after rejected delete")
	}

	req = httptest.NewRequest(http.MethodDelete, "/bookings/cos1/pi_admin", nil)
	req.Header.Set("X-Admin-Password", "hunter2")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with password, got %d: %s", rr.Code, rr.Body.String())
	}
	if store.Count("cos1") != 0 {
		t.Fatal("expected booking deleted")
	}
}

func TestRouterBookingsDump(t *testing.T) {
	router, store := newTestRouter(t)
	if err := store.Append(context.Background(), booking.Booking{
		ID: "pi_dump", PropertyCode: "cos1",
	}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/bookings/cos1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "pi_dump") {
		t.Fatalf("expected booking in dump: %s", rr.Body.String())
	}
}
