package openrouter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Marker substrings OpenRouter puts into 429 bodies. Unclassified 429s are
// treated as daily exhaustion; that is policy, not a provider contract —
// cycling to another model is the safer recovery.
var (
	dailyMarkers = []string{
		"free-models-per-day",
		"per-day",
		"per day",
		"daily",
	}
	transientMarkers = []string{
		"free-models-per-min",
		"per-minute",
		"per minute",
		"temporarily rate-limited",
		"rate-limited upstream",
		"try again",
	}
)

// Classify maps a non-success HTTP status and its error body to an
// APIError. Pure: no network, no state.
func Classify(status int, body []byte, model string) *APIError {
	message := errorMessage(body)
	lowered := strings.ToLower(string(body))

	switch status {
	case http.StatusTooManyRequests:
		e := &APIError{
			Kind:        KindRateLimited,
			Model:       model,
			RateLimited: true,
		}

		switch {
		case containsAny(lowered, dailyMarkers):
			e.Message = fmt.Sprintf("daily limit reached for %s", model)
		case containsAny(lowered, transientMarkers):
			e.Message = fmt.Sprintf("%s is temporarily busy", model)
			e.RetryableHere = true
		default:
			e.Message = fmt.Sprintf("rate limit reached for %s", model)
		}

		return e

	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return &APIError{
			Kind:          KindServerUnavailable,
			Model:         model,
			Message:       "server temporarily unavailable",
			RetryableHere: true,
		}

	case http.StatusUnauthorized:
		return &APIError{
			Kind:    KindAuth,
			Model:   model,
			Message: "invalid API key",
		}

	case http.StatusPaymentRequired:
		return &APIError{
			Kind:    KindBilling,
			Model:   model,
			Message: "insufficient credits",
		}

	case http.StatusBadRequest:
		if message == "" || strings.Contains(lowered, "not a valid model") ||
			strings.Contains(lowered, "no endpoints found") {
			message = fmt.Sprintf("%s is not a valid model", model)
		}

		return &APIError{
			Kind:    KindBadRequest,
			Model:   model,
			Message: message,
		}

	default:
		if message == "" {
			message = fmt.Sprintf("API error: %d", status)
		}

		return &APIError{
			Kind:    KindAPI,
			Model:   model,
			Message: message,
		}
	}
}

// errorMessage pulls a human-readable message out of an error body of
// either the enveloped `{"error": {"message": ...}}` shape or the bare
// `{"message": ...}` shape.
func errorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}

	if m := strings.TrimSpace(parsed.Error.Message); m != "" {
		return m
	}

	return strings.TrimSpace(parsed.Message)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}

	return false
}
