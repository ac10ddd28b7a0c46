// Package openrouter performs single bounded chat-completion calls against
// an OpenAI-compatible endpoint and classifies failures.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"pagebrief/internal/config"
)

const temperature = 0.3

// Client issues one timed API call per attempt with a single bounded retry
// for transient failures. Retrying a different model is not its job; that
// belongs to the orchestrator.
type Client struct {
	baseURL string
	backoff time.Duration
	log     *slog.Logger
}

func NewClient(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		backoff: config.RetryBackoff,
		log:     log,
	}
}

// Complete runs one chat completion and returns the trimmed model output.
// Failures are always *APIError. Transient classifications (502/503,
// per-minute throttling) are retried once after a fixed backoff; everything
// else surfaces immediately.
func (c *Client) Complete(
	ctx context.Context,
	apiKey string,
	model string,
	systemPrompt string,
	userPrompt string,
	maxOutputTokens int64,
) (string, error) {
	api := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(c.baseURL),
		option.WithMaxRetries(0),
	)

	var lastErr *APIError

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.WarnContext(ctx, "Retrying request",
				"model", model,
				"attempt", attempt,
				"backoff", c.backoff.String(),
				"previousError", lastErr.Message)

			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return "", &APIError{
					Kind:    KindTimeout,
					Model:   model,
					Message: "request aborted",
				}
			}
		}

		text, apiErr := c.complete(ctx, &api, model, systemPrompt, userPrompt, maxOutputTokens)
		if apiErr == nil {
			return text, nil
		}

		lastErr = apiErr
		if !apiErr.RetryableHere {
			break
		}
	}

	return "", lastErr
}

func (c *Client) complete(
	ctx context.Context,
	api *openai.Client,
	model string,
	systemPrompt string,
	userPrompt string,
	maxOutputTokens int64,
) (string, *APIError) {
	callCtx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
	defer cancel()

	resp, err := api.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxOutputTokens),
	})
	if err != nil {
		return "", c.classifyCallError(ctx, err, model)
	}

	if len(resp.Choices) == 0 {
		return "", &APIError{
			Kind:    KindMalformedResponse,
			Model:   model,
			Message: "response has no choices",
		}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &APIError{
			Kind:    KindMalformedResponse,
			Model:   model,
			Message: "response text is empty",
		}
	}

	return text, nil
}

func (c *Client) classifyCallError(ctx context.Context, err error, model string) *APIError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		classified := Classify(apiErr.StatusCode, []byte(apiErr.RawJSON()), model)

		c.log.WarnContext(ctx, "API call failed",
			"model", model,
			"status", apiErr.StatusCode,
			"kind", string(classified.Kind),
			"message", classified.Message)

		return classified
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &APIError{
			Kind:    KindTimeout,
			Model:   model,
			Message: fmt.Sprintf("request to %s timed out", model),
		}
	}

	return &APIError{
		Kind:    KindNetwork,
		Model:   model,
		Message: fmt.Sprintf("network error: %v", err),
	}
}
