package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/hrznstays/direct-booking-api/internal/booking"
	"github.com/hrznstays/direct-booking-api/internal/property"
	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

const (
	serviceFeeRate = 0.12
	taxRate        = 0.08
)

// CheckoutConfig carries the knobs for the checkout endpoints.
type CheckoutConfig struct {
	Currency           string
	DefaultCleaningFee int64
	SuccessURL         string
	CancelURL          string
}

// CheckoutHandler exposes the two charge-creation endpoints the booking
// widget calls: an embedded payment intent and a hosted checkout session.
type CheckoutHandler struct {
	stripe    *StripeClient
	directory *property.Directory
	notify    notifier
	cfg       CheckoutConfig
	logger    *logging.Logger
}

// NewCheckoutHandler creates the handler.
func NewCheckoutHandler(stripe *StripeClient, directory *property.Directory, notify notifier, cfg CheckoutConfig, logger *logging.Logger) *CheckoutHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.DefaultCleaningFee <= 0 {
		cfg.DefaultCleaningFee = 15000
	}
	return &CheckoutHandler{
		stripe:    stripe,
		directory: directory,
		notify:    notify,
		cfg:       cfg,
		logger:    logger,
	}
}

type paymentIntentRequest struct {
	Amount  int64  `json:"amount"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Booking struct {
		CheckIn     string `json:"checkIn"`
		CheckOut    string `json:"checkOut"`
		Nights      int    `json:"nights"`
		Guests      int    `json:"guests"`
		BaseRate    int64  `json:"baseRate"`
		CleaningFee int64  `json:"cleaningFee"`
		ListingID   string `json:"listingId"`
		PaymentType string `json:"paymentType"`
	} `json:"booking"`
}

// CreatePaymentIntent authorizes a charge for an embedded payment form.
// The booking details ride along as payment metadata so the confirmation
// webhook can rebuild the booking without any shared state.
func (h *CheckoutHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	nights, err := booking.NightsBetween(req.Booking.CheckIn, req.Booking.CheckOut)
	if err != nil || nights != req.Booking.Nights {
		h.logger.Warn("rejected payment intent with inconsistent dates",
			"check_in", req.Booking.CheckIn,
			"check_out", req.Booking.CheckOut,
			"claimed_nights", req.Booking.Nights,
		)
		writeJSONError(w, http.StatusBadRequest, "Invalid booking dates")
		return
	}

	entry, _ := h.directory.Resolve(req.Booking.ListingID)
	h.logger.Info("detected property",
		"listing_id", req.Booking.ListingID,
		"property_code", entry.Code,
		"property_name", entry.Name,
	)

	intent, err := h.stripe.CreatePaymentIntent(r.Context(), PaymentIntentRequest{
		AmountCents: req.Amount,
		Currency:    h.cfg.Currency,
		Metadata: map[string]string{
			"customer_email": req.Email,
			"customer_name":  req.Name,
			"customer_phone": req.Phone,
			"check_in":       req.Booking.CheckIn,
			"check_out":      req.Booking.CheckOut,
			"nights":         strconv.Itoa(req.Booking.Nights),
			"guests":         strconv.Itoa(req.Booking.Guests),
			"base_rate":      strconv.FormatInt(req.Booking.BaseRate, 10),
			"cleaning_fee":   strconv.FormatInt(req.Booking.CleaningFee, 10),
			"listing_id":     req.Booking.ListingID,
			"property_code":  entry.Code,
			"payment_type":   string(booking.ParsePaymentType(req.Booking.PaymentType)),
		},
	})
	if err != nil {
		h.logger.Error("payment intent creation failed", "error", err)
		if h.notify != nil {
			h.notify.AlertError(r.Context(), "STRIPE_PAYMENT_INTENT_FAILED", map[string]any{
				"error":      err.Error(),
				"user_email": req.Email,
				"user_name":  req.Name,
				"amount":     req.Amount,
				"check_in":   req.Booking.CheckIn,
				"check_out":  req.Booking.CheckOut,
				"listing_id": req.Booking.ListingID,
			})
		}
		writeJSONError(w, http.StatusInternalServerError, upstreamMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"client_secret": intent.ClientSecret,
	})
}

type checkoutSessionRequest struct {
	Amount       int64  `json:"amount"`
	ListingID    string `json:"listingId"`
	CheckIn      string `json:"checkIn"`
	CheckOut     string `json:"checkOut"`
	Nights       int    `json:"nights"`
	Guests       int    `json:"guests"`
	PropertyName string `json:"propertyName"`
	CleaningFee  int64  `json:"cleaningFee"`
}

// CreateCheckoutSession builds a hosted checkout page itemizing the stay,
// cleaning fee, service fee, and taxes.
func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cleaningFee := req.CleaningFee
	if cleaningFee <= 0 {
		cleaningFee = h.cfg.DefaultCleaningFee
	}
	serviceFee := int64(math.Round(float64(req.Amount) * serviceFeeRate))
	taxes := int64(math.Round(float64(req.Amount+cleaningFee+serviceFee) * taxRate))

	propertyName := req.PropertyName
	if propertyName == "" {
		propertyName = "Luxury Villa"
	}

	session, err := h.stripe.CreateCheckoutSession(r.Context(), CheckoutSessionRequest{
		Currency:   h.cfg.Currency,
		SuccessURL: h.cfg.SuccessURL,
		CancelURL:  h.cfg.CancelURL,
		LineItems: []LineItem{
			{
				Name:        fmt.Sprintf("%s - %d %s", propertyName, req.Nights, plural(req.Nights, "night")),
				Description: fmt.Sprintf("%s to %s • %d %s", req.CheckIn, req.CheckOut, req.Guests, plural(req.Guests, "guest")),
				AmountCents: req.Amount,
				Quantity:    1,
			},
			{Name: "Cleaning Fee", AmountCents: cleaningFee, Quantity: 1},
			{Name: "Service Fee", AmountCents: serviceFee, Quantity: 1},
			{Name: "Taxes", AmountCents: taxes, Quantity: 1},
		},
	})
	if err != nil {
		h.logger.Error("checkout session creation failed", "error", err)
		if h.notify != nil {
			h.notify.AlertError(r.Context(), "STRIPE_CHECKOUT_SESSION_FAILED", map[string]any{
				"error":      err.Error(),
				"amount":     req.Amount,
				"listing_id": req.ListingID,
				"check_in":   req.CheckIn,
				"check_out":  req.CheckOut,
			})
		}
		writeJSONError(w, http.StatusInternalServerError, upstreamMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": session.ID})
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

// upstreamMessage surfaces Stripe's own error message when we have one.
func upstreamMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "payment provider request failed"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
