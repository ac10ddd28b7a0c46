package summarize

import (
	"context"
	"fmt"
	"strings"

	"pagebrief/internal/config"
)

const chunkSystemPrompt = `Summarize the following part of a web page into bullet points.

Rules:
- Bullet points only, one per line, starting with "- ".
- No preamble, no closing remarks.
- Keep concrete facts: names, numbers, dates, calls to action.
- Same language as the input.`

const mergeSystemPrompt = `Merge the bullet-point summaries below into one list.

Rules:
- Deduplicate overlapping points.
- Bullet points only, one per line, starting with "- ".
- No preamble, no closing remarks.
- Preserve the original order of ideas.
- Same language as the input.`

// completer is the single provider call the engine depends on.
type completer interface {
	Complete(
		ctx context.Context,
		apiKey string,
		model string,
		systemPrompt string,
		userPrompt string,
		maxOutputTokens int64,
	) (string, error)
}

// chunkSummarizer owns the prompt templates. It holds no state and does no
// classification; failures pass through from the client untouched.
type chunkSummarizer struct {
	client completer
}

func (s chunkSummarizer) SummarizeChunk(
	ctx context.Context,
	apiKey string,
	model string,
	title string,
	text string,
	part int,
	total int,
) (string, error) {
	maxTokens := int64(config.ChunkMaxOutputTokens)
	if total == 1 {
		maxTokens = config.FinalMaxOutputTokens
	}

	return s.client.Complete(ctx, apiKey, model,
		chunkSystemPrompt, chunkUserPrompt(title, text, part, total), maxTokens)
}

func (s chunkSummarizer) MergeSummaries(
	ctx context.Context,
	apiKey string,
	model string,
	summaries []string,
) (string, error) {
	return s.client.Complete(ctx, apiKey, model,
		mergeSystemPrompt, mergeUserPrompt(summaries), config.FinalMaxOutputTokens)
}

func chunkUserPrompt(title, text string, part, total int) string {
	var b strings.Builder

	if total > 1 {
		fmt.Fprintf(&b, "Part %d of %d.\n", part, total)
	}

	if title = strings.TrimSpace(title); title != "" {
		b.WriteString("Page title: ")
		b.WriteString(title)
		b.WriteString("\n")
	}

	b.WriteString("Content:\n")
	b.WriteString(text)

	return b.String()
}

func mergeUserPrompt(summaries []string) string {
	return "Summaries:\n\n" + strings.Join(summaries, "\n\n")
}
