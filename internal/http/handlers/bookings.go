// Package handlers implements the read and admin endpoints over the
// booking store: the iCalendar feeds, the bookings dump, and the
// password-protected delete.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hrznstays/direct-booking-api/internal/booking"
	"github.com/hrznstays/direct-booking-api/internal/calendar"
	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

// alerter sends operator alerts; failures are its own problem.
type alerter interface {
	AlertError(ctx context.Context, errorType string, details map[string]any)
}

// BookingHandler serves booking reads and the admin delete.
type BookingHandler struct {
	store  *booking.Store
	notify alerter
	logger *logging.Logger
}

// NewBookingHandler creates the handler. notify may be nil.
func NewBookingHandler(store *booking.Store, notify alerter, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{store: store, notify: notify, logger: logger}
}

// Calendar renders one property's bookings as an iCalendar feed. Channel
// managers poll these URLs to block direct-booked dates, so unknown
// property codes still return a valid empty calendar.
func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	propertyCode := chi.URLParam(r, "propertyCode")
	feed := calendar.Render(propertyCode, h.store.Get(propertyCode))

	w.Header().Set("Content-Type", "text/calendar")
	w.Write(feed)
}

// List dumps bookings for debugging: one property when the route carries a
// code, the whole store otherwise.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	propertyCode := chi.URLParam(r, "propertyCode")
	if propertyCode == "" {
		writeJSON(w, http.StatusOK, h.store.All())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"property": propertyCode,
		"bookings": h.store.Get(propertyCode),
	})
}

// Delete removes a booking by property code and id. Cancellations and test
// charges are cleaned up this way; the route sits behind admin auth.
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	propertyCode := chi.URLParam(r, "propertyCode")
	bookingID := chi.URLParam(r, "bookingId")

	removed, err := h.store.Remove(r.Context(), propertyCode, bookingID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "Booking not found")
			return
		}
		var perr *booking.PersistError
		if errors.As(err, &perr) {
			// Removed from memory; the file write failed. Alert and
			// report success, matching how creation treats the mirror.
			h.logger.Error("delete persisted in memory only", "error", err, "booking_id", bookingID)
			if h.notify != nil {
				h.notify.AlertError(r.Context(), "FILE_SAVE_FAILED", map[string]any{
					"error":      perr.Err.Error(),
					"file":       perr.Path,
					"booking_id": bookingID,
				})
			}
		} else {
			h.logger.Error("booking delete failed", "error", err, "booking_id", bookingID)
			if h.notify != nil {
				h.notify.AlertError(r.Context(), "BOOKING_DELETE_FAILED", map[string]any{
					"error":         err.Error(),
					"property_code": propertyCode,
					"booking_id":    bookingID,
				})
			}
			writeJSONError(w, http.StatusInternalServerError, "Failed to delete booking")
			return
		}
	}

	h.logger.Info("admin deleted booking",
		"booking_id", removed.ID,
		"guest", removed.GuestName,
		"property_code", propertyCode,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":           "Booking deleted successfully",
		"deletedBooking":    removed,
		"remainingBookings": h.store.Count(propertyCode),
	})
}

// Health is the liveness probe.
func (h *BookingHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "direct-booking-api",
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
