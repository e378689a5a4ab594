package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hrznstays/direct-booking-api/internal/booking"
	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

type stubAlerter struct {
	alerts []string
}

func (s *stubAlerter) AlertError(_ context.Context, errorType string, _ map[string]any) {
	s.alerts = append(s.alerts, errorType)
}

func seedBooking(id, propertyCode string) booking.Booking {
	return booking.Booking{
		ID:           id,
		PaymentID:    id,
		GuestName:    "Jane Doe",
		Email:        "jane@example.com",
		Phone:        "+15551234567",
		CheckIn:      "2026-12-10",
		CheckOut:     "2026-12-13",
		Nights:       3,
		Guests:       4,
		Total:        90000,
		PropertyCode: propertyCode,
		PropertyName: "Colorado Springs Retreat",
		ListingID:    "869f5e1f-223b-4cc2-b64a-a0f4b8194c82",
		PaymentType:  booking.PaymentCard,
		CreatedAt:    time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newSeededHandler(t *testing.T, notify alerter, bookings ...booking.Booking) (*BookingHandler, *booking.Store) {
	t.Helper()
	store := booking.NewStore(filepath.Join(t.TempDir(), "bookings.json"), logging.Default())
	for _, b := range bookings {
		if err := store.Append(context.Background(), b); err != nil {
			t.Fatalf("seed booking: %v", err)
		}
	}
	return NewBookingHandler(store, notify, logging.Default()), store
}

// routeRequest dispatches through a chi router so URL params resolve.
func routeRequest(h *BookingHandler, method, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/calendar/{propertyCode}.ics", h.Calendar)
	r.Get("/bookings", h.List)
	r.Get("/bookings/{propertyCode}", h.List)
	r.Delete("/bookings/{propertyCode}/{bookingId}", h.Delete)
	r.Get("/health", h.Health)

	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestCalendarFeed(t *testing.T) {
	h, _ := newSeededHandler(t, nil, seedBooking("pi_cal", "cos1"))

	rr := routeRequest(h, http.MethodGet, "/calendar/cos1.ics")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "text/calendar" {
		t.Fatalf("expected text/calendar, got %q", got)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"PRODID:-//HRZN//Direct Bookings COS1//EN",
		"UID:pi_cal@hrzn.com",
		"SUMMARY:Jane Doe - Direct Booking",
		"END:VCALENDAR",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("feed missing %q:\n%s", want, body)
		}
	}
}

func TestCalendarFeedUnknownPropertyIsEmpty(t *testing.T) {
	h, _ := newSeededHandler(t, nil)

	rr := routeRequest(h, http.MethodGet, "/calendar/nowhere.ics")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || strings.Contains(body, "BEGIN:VEVENT") {
		t.Fatalf("expected valid empty calendar, got:\n%s", body)
	}
}

func TestListSingleProperty(t *testing.T) {
	h, _ := newSeededHandler(t, nil, seedBooking("pi_a", "cos1"), seedBooking("pi_b", "vegas1"))

	rr := routeRequest(h, http.MethodGet, "/bookings/cos1")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Property string            `json:"property"`
		Bookings []booking.Booking `json:"bookings"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Property != "cos1" || len(resp.Bookings) != 1 || resp.Bookings[0].ID != "pi_a" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestListAllProperties(t *testing.T) {
	h, _ := newSeededHandler(t, nil, seedBooking("pi_a", "cos1"), seedBooking("pi_b", "vegas1"))

	rr := routeRequest(h, http.MethodGet, "/bookings")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string][]booking.Booking
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 || len(resp["cos1"]) != 1 || len(resp["vegas1"]) != 1 {
		t.Fatalf("unexpected dump: %+v", resp)
	}
}

func TestDeleteBooking(t *testing.T) {
	h, store := newSeededHandler(t, nil, seedBooking("pi_del", "cos1"), seedBooking("pi_keep", "cos1"))

	rr := routeRequest(h, http.MethodDelete, "/bookings/cos1/pi_del")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Message           string          `json:"message"`
		DeletedBooking    booking.Booking `json:"deletedBooking"`
		RemainingBookings int             `json:"remainingBookings"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "Booking deleted successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if resp.DeletedBooking.ID != "pi_del" {
		t.Fatalf("expected deleted booking echoed, got %+v", resp.DeletedBooking)
	}
	if resp.RemainingBookings != 1 {
		t.Fatalf("expected 1 remaining, got %d", resp.RemainingBookings)
	}
	if store.Count("cos1") != 1 {
		t.Fatalf("expected booking removed from store")
	}
}

func TestDeleteBookingNotFound(t *testing.T) {
	h, _ := newSeededHandler(t, nil, seedBooking("pi_a", "cos1"))

	for _, target := range []string{
		"/bookings/cos1/pi_missing",
		"/bookings/nowhere/pi_a",
	} {
		rr := routeRequest(h, http.MethodDelete, target)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", target, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "Booking not found") {
			t.Fatalf("%s: unexpected body %s", target, rr.Body.String())
		}
	}
}

func TestDeleteBookingPersistFailureStillSucceeds(t *testing.T) {
	dir := t.TempDir()
	store := booking.NewStore(filepath.Join(dir, "data", "bookings.json"), logging.Default())
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := store.Append(context.Background(), seedBooking("pi_del", "cos1")); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	// Yank the directory out from under the store so the flush fails.
	if err := os.RemoveAll(filepath.Join(dir, "data")); err != nil {
		t.Fatalf("remove dir: %v", err)
	}

	notify := &stubAlerter{}
	h := NewBookingHandler(store, notify, logging.Default())

	rr := routeRequest(h, http.MethodDelete, "/bookings/cos1/pi_del")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 despite flush failure, got %d: %s", rr.Code, rr.Body.String())
	}
	if store.Count("cos1") != 0 {
		t.Fatal("expected booking removed from memory")
	}
	if len(notify.alerts) != 1 || notify.alerts[0] != "FILE_SAVE_FAILED" {
		t.Fatalf("expected FILE_SAVE_FAILED alert, got %v", notify.alerts)
	}
}

func TestHealth(t *testing.T) {
	h, _ := newSeededHandler(t, nil)

	rr := routeRequest(h, http.MethodGet, "/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}
