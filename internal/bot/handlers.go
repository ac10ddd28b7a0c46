package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"pagebrief/internal/config"
	"pagebrief/internal/database"
	"pagebrief/internal/domain"
	"pagebrief/internal/registry"
	"pagebrief/internal/summarize"
)

// A chunked request with fallback cycling can legitimately run for minutes.
const summarizeTimeout = 10 * time.Minute

const startText = `Send me a link (https://...) and I will reply with a bullet-point summary of the page.

You can also paste a long text directly.

Commands:
/models — free models still available today
/history — recent summaries
/show <id> — full summary by its history id`

func (b *Bot) handleStart(ctx context.Context, update *models.Update) error {
	return b.reply(ctx, update, startText)
}

func (b *Bot) handleModels(ctx context.Context, update *models.Update) error {
	snap := b.engine.Availability(ctx)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d of %d free models available today\n", len(snap.Available), snap.Total)

	available := make(map[string]struct{}, len(snap.Available))
	for _, id := range snap.Available {
		available[id] = struct{}{}
	}

	for _, id := range registry.Catalogue() {
		info := registry.Resolve(id)

		mark := "✅"
		if _, ok := available[id]; !ok {
			mark = "⛔"
		}

		fmt.Fprintf(&sb, "\n%s %s — %s, %s context", mark, info.DisplayName, info.Provider, info.ContextSize)
	}

	if b.pinnedModel != "" {
		fmt.Fprintf(&sb, "\n\nPinned model: %s (cycling disabled)", b.pinnedModel)
	}

	return b.reply(ctx, update, sb.String())
}

func (b *Bot) handleHistory(ctx context.Context, update *models.Update) error {
	entries, err := b.db.RecentSummaries(ctx, config.HistoryPageSize)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if len(entries) == 0 {
		return b.reply(ctx, update, "No summaries yet. Send me a link to get started.")
	}

	var sb strings.Builder
	sb.WriteString("Recent summaries:\n")

	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = e.URL
		}
		if title == "" {
			title = "(pasted text)"
		}

		fmt.Fprintf(&sb, "\n#%d %s\n    %s, %s",
			e.ID, title,
			registry.Resolve(e.Model).DisplayName,
			e.CreatedAt.Format("2006-01-02 15:04"))
	}

	sb.WriteString("\n\nUse /show <id> for the full summary.")

	return b.reply(ctx, update, sb.String())
}

func (b *Bot) handleShow(ctx context.Context, update *models.Update) error {
	arg := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/show"))

	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return b.reply(ctx, update, "Usage: /show <id> — the id comes from /history.")
	}

	entry, err := b.db.GetSummary(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return b.reply(ctx, update, fmt.Sprintf("No summary #%d.", id))
	}
	if err != nil {
		return fmt.Errorf("get summary: %w", err)
	}

	return b.reply(ctx, update, formatEntry(entry))
}

func (b *Bot) handleMessage(ctx context.Context, update *models.Update) error {
	text := strings.TrimSpace(update.Message.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	pageURL := b.urlRe.FindString(text)

	var content *domain.PageContent

	switch {
	case pageURL != "":
		b.typing(ctx, update)

		fetched, err := b.extractor.Fetch(ctx, pageURL)
		if err != nil {
			if replyErr := b.reply(ctx, update, "Failed to fetch that page. Is the link correct and public?"); replyErr != nil {
				return replyErr
			}

			return fmt.Errorf("fetch page: %w", err)
		}

		content = fetched

	case utf8.RuneCountInString(text) >= minPlainTextChars:
		b.typing(ctx, update)
		content = &domain.PageContent{Text: text}

	default:
		return b.reply(ctx, update, "Send an https:// link, or paste a longer text to summarize.")
	}

	result, err := b.engine.Summarize(ctx, summarize.Request{
		Text:   content.Text,
		APIKey: b.apiKey,
		Model:  b.pinnedModel,
		Title:  content.Title,
	})
	if err != nil {
		msg := err.Error()
		if summarize.IsRetryableElsewhere(err) {
			msg += "\n\nFree quotas reset at midnight UTC — try again later."
		}

		return b.reply(ctx, update, msg)
	}

	entry := &domain.HistoryEntry{
		URL:        content.URL,
		Title:      content.Title,
		Model:      result.ModelUsed,
		Fallback:   result.FallbackUsed,
		ChunkCount: int64(result.ChunkCount),
		Summary:    result.Summary,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err = b.db.AddSummary(ctx, entry); err != nil {
		b.log.ErrorContext(ctx, "Failed to store history entry",
			"error", err,
			"pageURL", content.URL,
			"model", result.ModelUsed)
	}

	return b.reply(ctx, update, formatResult(content, result))
}

func formatResult(content *domain.PageContent, result *summarize.Result) string {
	var sb strings.Builder

	if content.Title != "" {
		sb.WriteString(content.Title)
		sb.WriteString("\n\n")
	}

	sb.WriteString(result.Summary)

	fmt.Fprintf(&sb, "\n\n— %s", registry.Resolve(result.ModelUsed).DisplayName)
	if result.FallbackUsed {
		sb.WriteString(" (fallback)")
	}
	if result.ChunkCount > 1 {
		fmt.Fprintf(&sb, ", %d parts", result.ChunkCount)
	}

	return sb.String()
}

func formatEntry(e *domain.HistoryEntry) string {
	var sb strings.Builder

	if e.Title != "" {
		sb.WriteString(e.Title)
		sb.WriteString("\n")
	}
	if e.URL != "" {
		sb.WriteString(e.URL)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(e.Summary)

	fmt.Fprintf(&sb, "\n\n— %s, %s",
		registry.Resolve(e.Model).DisplayName,
		e.CreatedAt.Format("2006-01-02 15:04"))

	return sb.String()
}

func (b *Bot) typing(ctx context.Context, update *models.Update) {
	_, err := b.api.SendChatAction(ctx, &tgbot.SendChatActionParams{
		ChatID: update.Message.Chat.ID,
		Action: models.ChatActionTyping,
	})
	if err != nil {
		b.log.DebugContext(ctx, "Failed to send chat action",
			"error", err,
			"chatID", update.Message.Chat.ID)
	}
}
