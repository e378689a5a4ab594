// Package booking owns the authoritative booking collection: the record
// model, the property-keyed store, and its durable file mirror.
package booking

import (
	"errors"
	"fmt"
	"time"
)

// PaymentType distinguishes how a booking was paid for. Both types produce
// the same booking record shape.
type PaymentType string

const (
	PaymentCard PaymentType = "card"
	PaymentACH  PaymentType = "ach"
)

// ParsePaymentType normalizes a metadata value, defaulting to card.
func ParsePaymentType(s string) PaymentType {
	if s == string(PaymentACH) {
		return PaymentACH
	}
	return PaymentCard
}

// Booking is one confirmed direct-booking payment. ID is the payment
// processor's charge id and doubles as the idempotency key.
type Booking struct {
	ID           string      `json:"id"`
	PaymentID    string      `json:"paymentId"`
	GuestName    string      `json:"guestName"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	CheckIn      string      `json:"checkIn"`  // ISO 8601 date
	CheckOut     string      `json:"checkOut"` // ISO 8601 date
	Nights       int         `json:"nights"`
	Guests       int         `json:"guests"`
	Total        int64       `json:"total"` // minor currency units
	PropertyCode string      `json:"propertyCode"`
	PropertyName string      `json:"propertyName"`
	ListingID    string      `json:"listingId"`
	PaymentType  PaymentType `json:"paymentType"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// ErrNotFound is returned when a property or booking id does not resolve.
var ErrNotFound = errors.New("booking: not found")

// PersistError reports a failed flush to durable storage. The in-memory
// mutation it followed is kept; callers alert and carry on.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("booking: persist %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
