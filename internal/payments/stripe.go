// Package payments owns the Stripe integration: outbound charge creation,
// the payment-confirmation webhook, and the reconciliation that turns a
// succeeded payment into a booking record.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

var stripeTracer = otel.Tracer("hrzn.internal.payments.stripe")

const (
	defaultStripeBaseURL = "https://api.stripe.com"
	stripeAPIVersion     = "2024-06-20"
)

// StripeClient talks to the Stripe REST API with form-encoded requests.
type StripeClient struct {
	secretKey  string
	baseURL    string
	dryRun     bool
	httpClient *http.Client
	logger     *logging.Logger
}

// NewStripeClient builds a client with a 10 second request timeout.
func NewStripeClient(secretKey string, logger *logging.Logger) *StripeClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &StripeClient{
		secretKey: secretKey,
		baseURL:   defaultStripeBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL overrides the API host, for tests.
func (c *StripeClient) WithBaseURL(baseURL string) *StripeClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// WithDryRun makes the client fabricate responses instead of calling Stripe.
func (c *StripeClient) WithDryRun(dry bool) *StripeClient {
	c.dryRun = dry
	return c
}

// PaymentIntentRequest describes a charge to authorize.
type PaymentIntentRequest struct {
	AmountCents int64
	Currency    string
	Metadata    map[string]string
}

// PaymentIntent is the subset of Stripe's payment_intent object we use.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// CreatePaymentIntent authorizes a charge carrying the booking details as
// metadata, so the confirmation webhook can reconstruct the booking.
func (c *StripeClient) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	ctx, span := stripeTracer.Start(ctx, "payments.stripe.create_payment_intent")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("hrzn.amount_cents", req.AmountCents),
		attribute.String("hrzn.currency", req.Currency),
	)

	if c.dryRun {
		id := "pi_dry_" + uuid.NewString()
		c.logger.Info("stripe dry-run payment intent", "id", id, "amount", req.AmountCents)
		return &PaymentIntent{ID: id, ClientSecret: id + "_secret", Status: "requires_payment_method"}, nil
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountCents, 10))
	form.Set("currency", req.Currency)
	for k, v := range req.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var intent PaymentIntent
	if err := c.post(ctx, "/v1/payment_intents", form, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// LineItem is one priced row on a hosted checkout page.
type LineItem struct {
	Name        string
	Description string
	AmountCents int64
	Quantity    int
}

// CheckoutSessionRequest describes a hosted checkout page to create.
type CheckoutSessionRequest struct {
	Currency   string
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the subset of Stripe's checkout.session object we use.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession creates a one-time-payment hosted checkout page.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	ctx, span := stripeTracer.Start(ctx, "payments.stripe.create_checkout_session")
	defer span.End()
	span.SetAttributes(attribute.Int("hrzn.line_items", len(req.LineItems)))

	if c.dryRun {
		id := "cs_dry_" + uuid.NewString()
		c.logger.Info("stripe dry-run checkout session", "id", id)
		return &CheckoutSession{ID: id, URL: "https://checkout.stripe.com/c/pay/" + id}, nil
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", req.SuccessURL)
	form.Set("cancel_url", req.CancelURL)
	for i, item := range req.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", req.Currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if item.Description != "" {
			form.Set(prefix+"[price_data][product_data][description]", item.Description)
		}
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.AmountCents, 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	var session CheckoutSession
	if err := c.post(ctx, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *StripeClient) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("payments: build request: %w", err)
	}
	req.SetBasicAuth(c.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Stripe-Version", stripeAPIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payments: stripe request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("payments: read stripe response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeStripeError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("payments: decode stripe response: %w", err)
	}
	return nil
}

// APIError is a non-2xx response from Stripe.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payments: stripe %s (status=%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("payments: stripe http status %d", e.StatusCode)
}

func decodeStripeError(status int, body []byte) error {
	var parsed struct {
		Error struct {
			Type    string `json:"type"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	return &APIError{
		StatusCode: status,
		Type:       parsed.Error.Type,
		Code:       parsed.Error.Code,
		Message:    parsed.Error.Message,
	}
}
