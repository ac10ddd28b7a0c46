package openrouter

import (
	"strings"
	"testing"
)

const testModel = "meta-llama/llama-3.3-70b-instruct:free"

func TestClassifyDailyRateLimit(t *testing.T) {
	body := []byte(`{"error":{"message":"Rate limit exceeded: free-models-per-day","code":429}}`)

	e := Classify(429, body, testModel)

	if !e.RateLimited {
		t.Fatalf("expected RateLimited")
	}

	if e.RetryableHere {
		t.Fatalf("daily exhaustion must not be retried on the same model")
	}

	if !strings.Contains(e.Message, "daily limit") || !strings.Contains(e.Message, testModel) {
		t.Fatalf("unexpected message: %q", e.Message)
	}
}

func TestClassifyTransientRateLimit(t *testing.T) {
	body := []byte(`{"error":{"message":"Rate limit exceeded: free-models-per-min. Try again shortly."}}`)

	e := Classify(429, body, testModel)

	if !e.RateLimited || !e.RetryableHere {
		t.Fatalf("expected transient rate limit, got %+v", e)
	}
}

func TestClassifyUnclassified429TreatedAsDaily(t *testing.T) {
	e := Classify(429, []byte(`{}`), testModel)

	if !e.RateLimited {
		t.Fatalf("expected RateLimited")
	}

	if e.RetryableHere {
		t.Fatalf("unclassified 429 must trigger cycling, not a local retry")
	}
}

func TestClassifyServerUnavailable(t *testing.T) {
	for _, status := range []int{502, 503} {
		e := Classify(status, nil, testModel)

		if e.RateLimited {
			t.Fatalf("status %d: unexpected RateLimited", status)
		}

		if !e.RetryableHere {
			t.Fatalf("status %d: expected RetryableHere", status)
		}

		if e.Kind != KindServerUnavailable {
			t.Fatalf("status %d: unexpected kind %q", status, e.Kind)
		}
	}
}

func TestClassifyFatalStatuses(t *testing.T) {
	cases := []struct {
		status  int
		kind    Kind
		message string
	}{
		{401, KindAuth, "invalid API key"},
		{402, KindBilling, "insufficient credits"},
	}

	for _, tc := range cases {
		e := Classify(tc.status, nil, testModel)

		if e.Kind != tc.kind {
			t.Fatalf("status %d: unexpected kind %q", tc.status, e.Kind)
		}

		if e.Message != tc.message {
			t.Fatalf("status %d: unexpected message %q", tc.status, e.Message)
		}

		if e.RetryableHere || e.RateLimited {
			t.Fatalf("status %d: must be fatal, got %+v", tc.status, e)
		}
	}
}

func TestClassifyBadRequestUsesBodyMessage(t *testing.T) {
	body := []byte(`{"error":{"message":"max_tokens must be positive"}}`)

	e := Classify(400, body, testModel)

	if e.Message != "max_tokens must be positive" {
		t.Fatalf("unexpected message: %q", e.Message)
	}
}

func TestClassifyBadRequestUnknownModel(t *testing.T) {
	body := []byte(`{"error":{"message":"acme/bogus is not a valid model ID"}}`)

	e := Classify(400, body, "acme/bogus")

	if !strings.Contains(e.Message, "not a valid model") {
		t.Fatalf("unexpected message: %q", e.Message)
	}
}

func TestClassifyUnknownStatusFallsBackToGenericMessage(t *testing.T) {
	e := Classify(418, []byte(`not json`), testModel)

	if e.Kind != KindAPI {
		t.Fatalf("unexpected kind %q", e.Kind)
	}

	if e.Message != "API error: 418" {
		t.Fatalf("unexpected message: %q", e.Message)
	}
}

func TestClassifyBareMessageShape(t *testing.T) {
	e := Classify(500, []byte(`{"message":"internal blew up"}`), testModel)

	if e.Message != "internal blew up" {
		t.Fatalf("unexpected message: %q", e.Message)
	}
}
