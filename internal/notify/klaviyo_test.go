package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKlaviyoClientSendEvent(t *testing.T) {
	var gotAuth, gotRevision string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/events/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotRevision = r.Header.Get("revision")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("body not JSON: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewKlaviyoClient("pk_test", "ops@hrznstays.com", nil).WithBaseURL(srv.URL)

	err := client.SendEvent(context.Background(), MetricNewBooking, map[string]any{
		"booking_id": "pi_123",
	})
	if err != nil {
		t.Fatalf("SendEvent: %v", err)
	}

	if gotAuth != "Klaviyo-API-Key pk_test" {
		t.Fatalf("expected API key header, got %q", gotAuth)
	}
	if gotRevision != klaviyoRevision {
		t.Fatalf("expected revision header, got %q", gotRevision)
	}

	data := gotBody["data"].(map[string]any)
	attrs := data["attributes"].(map[string]any)
	metric := attrs["metric"].(map[string]any)["data"].(map[string]any)["attributes"].(map[string]any)
	if metric["name"] != MetricNewBooking {
		t.Fatalf("expected metric name, got %v", metric["name"])
	}
	props := attrs["properties"].(map[string]any)
	if props["booking_id"] != "pi_123" {
		t.Fatalf("expected booking_id property, got %v", props)
	}
}

func TestKlaviyoClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"detail":"bad key"}]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewKlaviyoClient("pk_bad", "ops@hrznstays.com", nil).WithBaseURL(srv.URL)
	if err := client.SendEvent(context.Background(), MetricSystemError, nil); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestKlaviyoClientDisabled(t *testing.T) {
	client := NewKlaviyoClient("", "", nil)
	if client.Enabled() {
		t.Fatal("expected disabled client without credentials")
	}
	// Disabled clients are silent no-ops.
	if err := client.SendEvent(context.Background(), MetricNewBooking, nil); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
