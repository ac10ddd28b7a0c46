package bot

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Telegram message size ceiling.
const maxMessageLen = 4096

// reply sends text as a reply to the incoming message, split into several
// messages when it exceeds the Telegram limit. Replies are plain text so a
// summary can never break on stray markdown characters.
func (b *Bot) reply(ctx context.Context, update *models.Update, text string) error {
	for i, part := range splitMessage(text, maxMessageLen) {
		params := &tgbot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   part,
		}

		if i == 0 {
			params.ReplyParameters = &models.ReplyParameters{
				MessageID: update.Message.ID,
			}
		}

		if _, err := b.api.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}

	return nil
}

// splitMessage cuts text into pieces of at most maxLen characters,
// preferring a newline past the midpoint of each window.
func splitMessage(text string, maxLen int) []string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return []string{text}
	}

	var parts []string

	for len(runes) > 0 {
		if len(runes) <= maxLen {
			parts = append(parts, string(runes))
			break
		}

		splitAt := maxLen
		for i := maxLen - 1; i > maxLen/2; i-- {
			if runes[i] == '\n' {
				splitAt = i + 1
				break
			}
		}

		parts = append(parts, string(runes[:splitAt]))
		runes = runes[splitAt:]
	}

	return parts
}
