package openrouter

// Kind partitions provider failures by how callers may recover from them.
type Kind string

const (
	// KindRateLimited covers 429 responses. RetryableHere distinguishes a
	// transient per-minute throttle from daily quota exhaustion.
	KindRateLimited       Kind = "rate_limited"
	KindServerUnavailable Kind = "server_unavailable"
	KindAuth              Kind = "auth"
	KindBilling           Kind = "billing"
	KindBadRequest        Kind = "bad_request"
	KindTimeout           Kind = "timeout"
	KindNetwork           Kind = "network"
	KindMalformedResponse Kind = "malformed_response"
	KindAPI               Kind = "api"
)

// APIError is a classified provider failure.
type APIError struct {
	Kind    Kind
	Model   string
	Message string
	// RetryableHere means one bounded retry on the same model may succeed.
	RetryableHere bool
	// RateLimited means the model's quota is the cause; the orchestrator
	// may recover by cycling to another model.
	RateLimited bool
}

func (e *APIError) Error() string {
	return e.Message
}
