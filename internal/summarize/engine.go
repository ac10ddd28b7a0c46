// Package summarize drives one summarization request to completion:
// chunking, sequential provider calls, and fallback cycling across free
// models when daily quotas run out.
package summarize

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"pagebrief/internal/chunk"
	"pagebrief/internal/config"
	"pagebrief/internal/domain"
	"pagebrief/internal/openrouter"
	"pagebrief/internal/registry"
)

var (
	ErrEmptyText          = errors.New("text is empty")
	ErrMissingAPIKey      = errors.New("API key is missing")
	ErrAllModelsExhausted = errors.New("all free models are exhausted for today")
)

// Request is one summarization job. A non-empty Model pins that model; a
// pin outside the free catalogue also disables fallback cycling.
type Request struct {
	Text   string
	APIKey string
	Model  string
	// Title is optional context for the prompt, supplied by the extractor.
	Title string
}

// Result is a completed summary. FallbackUsed reports whether ModelUsed
// differs from the model the request started on.
type Result struct {
	Summary      string
	ModelUsed    string
	FallbackUsed bool
	ChunkCount   int
}

// exhaustionTracker is the daily-quota state the engine consults between
// attempts.
type exhaustionTracker interface {
	IsExhausted(ctx context.Context, modelID string) bool
	MarkExhausted(ctx context.Context, modelID string)
	Available(ctx context.Context, catalogue []string) []string
}

// Engine is the orchestrator. One Summarize call owns its whole attempt
// state; the only shared mutable state is the exhaustion tracker.
type Engine struct {
	chunks        chunkSummarizer
	tracker       exhaustionTracker
	catalogue     []string
	maxChunkChars int
	chunkPause    time.Duration
	cyclePause    time.Duration
	sleep         func(ctx context.Context, d time.Duration) error
	log           *slog.Logger
}

func New(client completer, tracker exhaustionTracker, log *slog.Logger) *Engine {
	return &Engine{
		chunks:        chunkSummarizer{client: client},
		tracker:       tracker,
		catalogue:     registry.Catalogue(),
		maxChunkChars: config.MaxChunkChars,
		chunkPause:    config.ChunkPause,
		cyclePause:    config.CyclePause,
		sleep:         sleepCtx,
		log:           log,
	}
}

// Availability is a best-effort snapshot for status display.
func (e *Engine) Availability(ctx context.Context) domain.Snapshot {
	return domain.Snapshot{
		Available: e.tracker.Available(ctx, e.catalogue),
		Total:     len(e.catalogue),
	}
}

// Summarize runs the fallback state machine to a terminal state: either a
// Result or an error from the taxonomy. Rate-limited attempts mark the
// model exhausted and restart on the next available catalogue entry;
// partial chunk summaries from a failed model are discarded, never mixed
// into another model's output.
func (e *Engine) Summarize(ctx context.Context, req Request) (*Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	if strings.TrimSpace(req.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	cycling := true
	model := strings.TrimSpace(req.Model)

	switch {
	case model != "" && !e.inCatalogue(model):
		// Explicit custom model: exactly one attempt.
		cycling = false
	case model == "":
		available := e.tracker.Available(ctx, e.catalogue)
		if len(available) == 0 {
			return nil, ErrAllModelsExhausted
		}

		model = available[0]
	}

	firstModel := model
	attempts := 0

	for {
		attempts++

		e.log.InfoContext(ctx, "Summarization attempt",
			"model", model,
			"attempt", attempts,
			"cycling", cycling,
			"textChars", utf8.RuneCountInString(text))

		result, err := e.attempt(ctx, req.APIKey, model, req.Title, text)
		if err == nil {
			result.ModelUsed = model
			result.FallbackUsed = model != firstModel

			return result, nil
		}

		var apiErr *openrouter.APIError
		rateLimited := errors.As(err, &apiErr) && apiErr.RateLimited

		if !rateLimited || !cycling {
			return nil, err
		}

		e.tracker.MarkExhausted(ctx, model)

		if attempts >= len(e.catalogue) {
			return nil, ErrAllModelsExhausted
		}

		next := e.nextModel(ctx, model)
		if next == "" {
			return nil, ErrAllModelsExhausted
		}

		e.log.WarnContext(ctx, "Model is exhausted, switching",
			"from", model,
			"to", next,
			"attempt", attempts)

		model = next

		if err = e.sleep(ctx, e.cyclePause); err != nil {
			return nil, err
		}
	}
}

// attempt runs one full chunk pass on a single model.
func (e *Engine) attempt(
	ctx context.Context,
	apiKey string,
	model string,
	title string,
	text string,
) (*Result, error) {
	if utf8.RuneCountInString(text) <= e.maxChunkChars {
		summary, err := e.chunks.SummarizeChunk(ctx, apiKey, model, title, text, 1, 1)
		if err != nil {
			return nil, err
		}

		return &Result{Summary: summary, ChunkCount: 1}, nil
	}

	parts := chunk.Split(text, e.maxChunkChars)

	summaries := make([]string, 0, len(parts))
	for i, part := range parts {
		if i > 0 {
			if err := e.sleep(ctx, e.chunkPause); err != nil {
				return nil, err
			}
		}

		summary, err := e.chunks.SummarizeChunk(ctx, apiKey, model, title, part, i+1, len(parts))
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, summary)
	}

	if len(parts) == 1 {
		return &Result{Summary: summaries[0], ChunkCount: 1}, nil
	}

	joined := strings.Join(summaries, "\n")

	// A merge over already-oversized material would just start another
	// chunking round; join verbatim instead.
	if utf8.RuneCountInString(joined) > config.MergeSkipMultiplier*e.maxChunkChars {
		e.log.InfoContext(ctx, "Skipping merge call, joined summaries exceed threshold",
			"model", model,
			"chunkCount", len(parts),
			"joinedChars", utf8.RuneCountInString(joined))

		return &Result{Summary: joined, ChunkCount: len(parts)}, nil
	}

	if err := e.sleep(ctx, e.chunkPause); err != nil {
		return nil, err
	}

	merged, err := e.chunks.MergeSummaries(ctx, apiKey, model, summaries)
	if err != nil {
		return nil, err
	}

	return &Result{Summary: merged, ChunkCount: len(parts)}, nil
}

func (e *Engine) inCatalogue(model string) bool {
	for _, m := range e.catalogue {
		if m == model {
			return true
		}
	}

	return false
}

// nextModel picks the next unexhausted catalogue entry after current,
// wrapping around. Empty means nothing is left today.
func (e *Engine) nextModel(ctx context.Context, current string) string {
	start := 0
	for i, m := range e.catalogue {
		if m == current {
			start = i
			break
		}
	}

	n := len(e.catalogue)
	for i := 1; i <= n; i++ {
		candidate := e.catalogue[(start+i)%n]
		if !e.tracker.IsExhausted(ctx, candidate) {
			return candidate
		}
	}

	return ""
}

// IsRetryableElsewhere reports whether the failure is a quota problem that
// a different model, or the next UTC day, could resolve.
func IsRetryableElsewhere(err error) bool {
	if errors.Is(err, ErrAllModelsExhausted) {
		return true
	}

	var apiErr *openrouter.APIError
	return errors.As(err, &apiErr) && apiErr.RateLimited
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
