package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hrznstays/direct-booking-api/internal/booking"
	"github.com/hrznstays/direct-booking-api/internal/observability/metrics"
	"github.com/hrznstays/direct-booking-api/internal/property"
	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

// bookingStore is the slice of the booking store the reconciler needs.
type bookingStore interface {
	Append(ctx context.Context, b booking.Booking) error
	Count(propertyCode string) int
}

// notifier delivers booking and error alerts without ever failing the caller.
type notifier interface {
	BookingCreated(ctx context.Context, b booking.Booking)
	AlertError(ctx context.Context, errorType string, details map[string]any)
}

// Reconciler turns a succeeded payment into a durable booking record.
type Reconciler struct {
	store     bookingStore
	directory *property.Directory
	notify    notifier
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewReconciler wires a reconciler. metrics may be nil.
func NewReconciler(store bookingStore, directory *property.Directory, notify notifier, m *metrics.BookingMetrics, logger *logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Reconciler{
		store:     store,
		directory: directory,
		notify:    notify,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("hrzn.internal.payments.reconcile"),
		now:       time.Now,
	}
}

// Reconcile builds a booking from the payment's metadata, persists it, and
// fires the notification. The returned error means the payment could not be
// recorded at all; persistence failures alone are alerted and absorbed so
// the webhook still acknowledges.
func (r *Reconciler) Reconcile(ctx context.Context, pi PaymentIntentObject) (booking.Booking, error) {
	ctx, span := r.tracer.Start(ctx, "payments.reconcile")
	defer span.End()
	span.SetAttributes(attribute.String("hrzn.payment_id", pi.ID))

	md := pi.Metadata
	now := r.now().UTC()

	listingID := md["listing_id"]
	entry, known := r.directory.Resolve(listingID)
	if code := md["property_code"]; code != "" && !known {
		entry.Code = code
	}

	b := booking.Booking{
		ID:           pi.ID,
		PaymentID:    pi.ID,
		GuestName:    md["customer_name"],
		Email:        md["customer_email"],
		Phone:        md["customer_phone"],
		CheckIn:      r.resolveDate(md["check_in"], now),
		CheckOut:     r.resolveDate(md["check_out"], now),
		Nights:       atoi(md["nights"]),
		Guests:       atoi(md["guests"]),
		Total:        bookingTotal(md),
		PropertyCode: entry.Code,
		PropertyName: entry.Name,
		ListingID:    listingID,
		PaymentType:  booking.ParsePaymentType(md["payment_type"]),
		CreatedAt:    now,
	}

	if err := r.store.Append(ctx, b); err != nil {
		span.RecordError(err)
		var perr *booking.PersistError
		if !errors.As(err, &perr) {
			return booking.Booking{}, fmt.Errorf("payments: record booking: %w", err)
		}
		// Booking is live in memory; alert and keep going.
		r.logger.Error("booking persisted in memory only", "error", err, "booking_id", b.ID)
		r.metrics.ObservePersistFailure()
		if r.notify != nil {
			r.notify.AlertError(ctx, "FILE_SAVE_FAILED", map[string]any{
				"error":      perr.Err.Error(),
				"file":       perr.Path,
				"payment_id": b.PaymentID,
			})
		}
	}

	r.metrics.ObserveBookingCreated(b.PropertyCode)
	r.logger.Info("booking recorded",
		"booking_id", b.ID,
		"property_code", b.PropertyCode,
		"guest", b.GuestName,
		"check_in", b.CheckIn,
		"check_out", b.CheckOut,
		"total", b.Total,
		"property_bookings", r.store.Count(b.PropertyCode),
	)

	if r.notify != nil {
		// Detached so a slow notification sink never delays the ack.
		go r.notify.BookingCreated(context.WithoutCancel(ctx), b)
	}
	return b, nil
}

// resolveDate normalizes loose metadata dates, keeping the raw value when
// it cannot be made sense of.
func (r *Reconciler) resolveDate(text string, now time.Time) string {
	resolved, err := booking.ResolveDate(text, now)
	if err != nil {
		r.logger.Warn("unresolvable booking date", "value", text, "error", err)
		return text
	}
	return resolved
}

// bookingTotal recomputes the charge from its parts rather than trusting a
// client-supplied total: nightly rate times nights, plus the cleaning fee.
func bookingTotal(md map[string]string) int64 {
	rate, _ := strconv.ParseFloat(md["base_rate"], 64)
	cleaning, _ := strconv.ParseFloat(md["cleaning_fee"], 64)
	nights := atoi(md["nights"])
	return int64(math.Round(rate))*int64(nights) + int64(math.Round(cleaning))
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
