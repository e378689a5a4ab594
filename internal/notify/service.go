package notify

import (
	"context"
	"time"

	"github.com/hrznstays/direct-booking-api/internal/booking"
	"github.com/hrznstays/direct-booking-api/internal/observability/metrics"
	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

// EventSender posts events to the marketing sink. Implementations can be
// swapped without changing callers.
type EventSender interface {
	Enabled() bool
	SendEvent(ctx context.Context, metric string, properties map[string]any) error
}

// Metric names recognized by the operator's Klaviyo flows.
const (
	MetricNewBooking  = "New Booking Alert"
	MetricSystemError = "System Error Alert"
)

// Service sends operator notifications. Every method swallows delivery
// errors: a dead marketing sink must never fail a booking.
type Service struct {
	sender  EventSender
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
	now     func() time.Time
}

// NewService creates a notification service.
func NewService(sender EventSender, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{sender: sender, logger: logger, metrics: m, now: time.Now}
}

// BookingCreated announces a committed booking.
func (s *Service) BookingCreated(ctx context.Context, b booking.Booking) {
	if s == nil || s.sender == nil || !s.sender.Enabled() {
		return
	}
	props := map[string]any{
		"guest_name":    b.GuestName,
		"guest_email":   b.Email,
		"guest_phone":   b.Phone,
		"check_in":      b.CheckIn,
		"check_out":     b.CheckOut,
		"nights":        b.Nights,
		"guests":        b.Guests,
		"total_amount":  b.Total,
		"property_name": b.PropertyName,
		"property_code": b.PropertyCode,
		"listing_id":    b.ListingID,
		"payment_id":    b.PaymentID,
		"payment_type":  string(b.PaymentType),
		"booking_id":    b.ID,
		"created_at":    b.CreatedAt.Format(time.RFC3339),
	}
	if err := s.sender.SendEvent(ctx, MetricNewBooking, props); err != nil {
		s.metrics.ObserveNotifyFailure()
		s.logger.Error("failed to send booking notification", "error", err, "booking_id", b.ID)
		return
	}
	s.logger.Info("booking notification sent", "booking_id", b.ID, "property_code", b.PropertyCode)
}

// AlertError raises a system-error event for operator attention.
func (s *Service) AlertError(ctx context.Context, errorType string, details map[string]any) {
	if s == nil || s.sender == nil || !s.sender.Enabled() {
		return
	}
	props := map[string]any{
		"error_type": errorType,
		"timestamp":  s.now().UTC().Format(time.RFC3339),
	}
	for k, v := range details {
		props[k] = v
	}
	if err := s.sender.SendEvent(ctx, MetricSystemError, props); err != nil {
		s.metrics.ObserveNotifyFailure()
		s.logger.Error("failed to send error alert", "error", err, "error_type", errorType)
	}
}
