// Package notify delivers booking and error alerts to the marketing sink.
// Delivery is fire-and-forget: failures are logged and counted, never
// surfaced to the flows that triggered them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

const klaviyoRevision = "2024-10-15"

// KlaviyoClient posts events to the Klaviyo events API.
type KlaviyoClient struct {
	apiKey       string
	profileEmail string
	baseURL      string
	httpClient   *http.Client
	logger       *logging.Logger
}

// NewKlaviyoClient creates a Klaviyo events client. profileEmail is the
// operator profile all events attach to.
func NewKlaviyoClient(apiKey, profileEmail string, logger *logging.Logger) *KlaviyoClient {
	if logger == nil {
		logger = logging.Default()
	}
	return &KlaviyoClient{
		apiKey:       apiKey,
		profileEmail: profileEmail,
		baseURL:      "https://a.klaviyo.com",
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
	}
}

// WithBaseURL overrides the Klaviyo API base URL (for testing).
func (c *KlaviyoClient) WithBaseURL(baseURL string) *KlaviyoClient {
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// Enabled reports whether the client is configured to send.
func (c *KlaviyoClient) Enabled() bool {
	return c != nil && c.apiKey != "" && c.profileEmail != ""
}

// SendEvent posts one event under the given metric name.
func (c *KlaviyoClient) SendEvent(ctx context.Context, metric string, properties map[string]any) error {
	if !c.Enabled() {
		return nil
	}

	payload := map[string]any{
		"data": map[string]any{
			"type": "event",
			"attributes": map[string]any{
				"profile": map[string]any{
					"data": map[string]any{
						"type":       "profile",
						"attributes": map[string]any{"email": c.profileEmail},
					},
				},
				"metric": map[string]any{
					"data": map[string]any{
						"type":       "metric",
						"attributes": map[string]any{"name": metric},
					},
				},
				"properties": properties,
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal klaviyo event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/events/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: klaviyo request: %w", err)
	}
	req.Header.Set("Authorization", "Klaviyo-API-Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("revision", klaviyoRevision)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: klaviyo http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notify: klaviyo api status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
