package openrouter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func completionBody(text string) string {
	return fmt.Sprintf(`{"id":"gen-1","object":"chat.completion","created":1,"model":"m",`+
		`"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}]}`,
		text)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, slog.Default())
	c.backoff = 0

	return c
}

func TestCompleteSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody("  - point one\n- point two  "))
	})

	text, err := c.Complete(context.Background(), "test-key", testModel, "sys", "user", 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if text != "- point one\n- point two" {
		t.Fatalf("expected trimmed output, got %q", text)
	}
}

func TestCompleteRetriesOnceOnServerError(t *testing.T) {
	var calls atomic.Int64

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":{"message":"overloaded"}}`)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody("recovered"))
	})

	text, err := c.Complete(context.Background(), "k", testModel, "sys", "user", 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if text != "recovered" {
		t.Fatalf("unexpected text: %q", text)
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestCompleteRetryCeiling(t *testing.T) {
	var calls atomic.Int64

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"message":"still overloaded"}}`)
	})

	_, err := c.Complete(context.Background(), "k", testModel, "sys", "user", 600)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}

	if apiErr.Kind != KindServerUnavailable {
		t.Fatalf("unexpected kind %q", apiErr.Kind)
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected exactly one retry (2 calls), got %d", got)
	}
}

func TestCompleteDailyLimitNotRetried(t *testing.T) {
	var calls atomic.Int64

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"free-models-per-day exceeded"}}`)
	})

	_, err := c.Complete(context.Background(), "k", testModel, "sys", "user", 600)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}

	if !apiErr.RateLimited || apiErr.RetryableHere {
		t.Fatalf("unexpected classification: %+v", apiErr)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("daily limit must not be retried locally, got %d calls", got)
	}
}

func TestCompleteMalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"gen-1","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	})

	_, err := c.Complete(context.Background(), "k", testModel, "sys", "user", 600)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}

	if apiErr.Kind != KindMalformedResponse {
		t.Fatalf("unexpected kind %q", apiErr.Kind)
	}
}

func TestCompleteNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := NewClient(srv.URL, slog.Default())
	c.backoff = 0

	_, err := c.Complete(context.Background(), "k", testModel, "sys", "user", 600)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}

	if apiErr.Kind != KindNetwork {
		t.Fatalf("unexpected kind %q", apiErr.Kind)
	}
}
