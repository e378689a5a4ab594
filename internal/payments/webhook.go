package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hrznstays/direct-booking-api/internal/observability/metrics"
	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

// maxWebhookBody caps how much of a webhook payload we read.
const maxWebhookBody = 1 << 20

// WebhookHandler receives Stripe payment events and drives reconciliation.
//
// The status contract matters for delivery: Stripe retries anything that is
// not a 2xx. We return 400 only when the request itself is unusable (bad
// body, bad signature, malformed envelope); every other outcome is
// acknowledged with 200 so a transient downstream failure cannot pile up
// retries for an event we already absorbed.
type WebhookHandler struct {
	webhookSecret string
	reconciler    *Reconciler
	processed     ProcessedTracker
	notify        notifier
	metrics       *metrics.BookingMetrics
	logger        *logging.Logger
	now           func() time.Time
}

// NewWebhookHandler creates the webhook endpoint handler.
func NewWebhookHandler(
	webhookSecret string,
	reconciler *Reconciler,
	processed ProcessedTracker,
	notify notifier,
	m *metrics.BookingMetrics,
	logger *logging.Logger,
) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		webhookSecret: webhookSecret,
		reconciler:    reconciler,
		processed:     processed,
		notify:        notify,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

// Event is the Stripe webhook envelope.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object PaymentIntentObject `json:"object"`
	} `json:"data"`
}

// PaymentIntentObject is the payment_intent object carried by the event.
type PaymentIntentObject struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// Handle processes an incoming Stripe webhook delivery.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	start := h.now()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.metrics.ObserveWebhook("unknown", "bad_body")
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if !verifyStripeSignature(h.webhookSecret, payload, sigHeader, h.now()) {
		h.logger.Warn("webhook signature verification failed")
		h.metrics.ObserveWebhook("unknown", "bad_signature")
		if h.notify != nil {
			h.notify.AlertError(r.Context(), "WEBHOOK_SIGNATURE_FAILED", map[string]any{
				"signature_header": sigHeader,
			})
		}
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		h.logger.Error("failed to decode stripe event", "error", err)
		h.metrics.ObserveWebhook("unknown", "bad_envelope")
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if evt.ID == "" {
		h.metrics.ObserveWebhook("unknown", "bad_envelope")
		http.Error(w, "missing event id", http.StatusBadRequest)
		return
	}

	if evt.Type != "payment_intent.succeeded" {
		h.logger.Info("ignoring webhook event", "type", evt.Type, "event_id", evt.ID)
		h.metrics.ObserveWebhook(evt.Type, "ignored")
		h.ack(w)
		return
	}

	if h.processed != nil {
		already, err := h.processed.AlreadyProcessed(r.Context(), "stripe", evt.ID)
		if err != nil {
			// At-least-once beats dropped: fall through and reconcile.
			// The store upserts by payment id, so a duplicate is harmless.
			h.logger.Error("processed lookup failed", "error", err, "event_id", evt.ID)
		} else if already {
			h.logger.Info("duplicate webhook event", "event_id", evt.ID)
			h.metrics.ObserveWebhook(evt.Type, "duplicate")
			h.ack(w)
			return
		}
	}

	if _, err := h.reconciler.Reconcile(r.Context(), evt.Data.Object); err != nil {
		h.logger.Error("reconciliation failed", "error", err, "event_id", evt.ID)
		h.metrics.ObserveWebhook(evt.Type, "failed")
		if h.notify != nil {
			h.notify.AlertError(r.Context(), "BOOKING_CREATION_FAILED", map[string]any{
				"error":      err.Error(),
				"event_id":   evt.ID,
				"payment_id": evt.Data.Object.ID,
			})
		}
		// Acknowledge anyway: retrying the same event will not fix a
		// payload we could not reconcile.
		h.ack(w)
		return
	}

	if h.processed != nil {
		if _, err := h.processed.MarkProcessed(r.Context(), "stripe", evt.ID); err != nil {
			h.logger.Error("failed to record processed event", "error", err, "event_id", evt.ID)
		}
	}

	h.metrics.ObserveWebhook(evt.Type, "ok")
	h.metrics.ObserveWebhookLatency(evt.Type, h.now().Sub(start).Seconds())
	h.ack(w)
}

func (h *WebhookHandler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"received":true}`))
}

// verifyStripeSignature checks a Stripe-Signature header of the form
// t=<timestamp>,v1=<hex>[,v1=<hex>...] against HMAC-SHA256 of
// "<timestamp>.<payload>". An empty secret disables verification for
// local development.
func verifyStripeSignature(secret string, payload []byte, header string, now time.Time) bool {
	if secret == "" {
		return true
	}
	if header == "" {
		return false
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if abs64(now.Unix()-ts) > 300 {
		return false
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(strings.ToLower(sig)), []byte(expected)) {
			return true
		}
	}
	return false
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
