// Package bot is the Telegram surface: it turns incoming messages into
// summarization requests and renders results, history, and model
// availability.
package bot

import (
	"context"
	"log/slog"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"mvdan.cc/xurls/v2"

	"pagebrief/internal/config"
	"pagebrief/internal/database"
	"pagebrief/internal/extract"
	"pagebrief/internal/summarize"
)

// Plain-text messages are summarized directly once they carry enough
// content; shorter ones get a usage hint instead.
const minPlainTextChars = 200

type Bot struct {
	api          *tgbot.Bot
	db           *database.Database
	engine       *summarize.Engine
	extractor    *extract.Extractor
	apiKey       string
	pinnedModel  string
	allowedUsers []int64
	urlRe        urlMatcher
	log          *slog.Logger
}

type urlMatcher interface {
	FindString(s string) string
}

func New(
	cfg config.Config,
	db *database.Database,
	engine *summarize.Engine,
	extractor *extract.Extractor,
	log *slog.Logger,
) (*Bot, error) {
	urlRe, err := xurls.StrictMatchingScheme("https://")
	if err != nil {
		return nil, err
	}

	b := &Bot{
		db:           db,
		engine:       engine,
		extractor:    extractor,
		apiKey:       cfg.OpenRouterAPIKey,
		pinnedModel:  strings.TrimSpace(cfg.Model),
		allowedUsers: cfg.AllowedUsers,
		urlRe:        urlRe,
		log:          log,
	}

	api, err := tgbot.New(cfg.Token, tgbot.WithDefaultHandler(b.wrap(b.handleMessage)))
	if err != nil {
		return nil, err
	}
	b.api = api

	api.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, b.wrap(b.handleStart))
	api.RegisterHandler(tgbot.HandlerTypeMessageText, "/models", tgbot.MatchTypeExact, b.wrap(b.handleModels))
	api.RegisterHandler(tgbot.HandlerTypeMessageText, "/history", tgbot.MatchTypeExact, b.wrap(b.handleHistory))
	api.RegisterHandler(tgbot.HandlerTypeMessageText, "/show", tgbot.MatchTypePrefix, b.wrap(b.handleShow))

	return b, nil
}

func (b *Bot) Start(ctx context.Context) {
	b.api.Start(ctx)
}

// wrap applies the allow-list and funnels handler errors into one log site.
func (b *Bot) wrap(
	handler func(ctx context.Context, update *models.Update) error,
) tgbot.HandlerFunc {
	return func(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}

		userID := update.Message.From.ID
		if !b.userAllowed(userID) {
			b.log.DebugContext(ctx, "User is not allowed",
				"userID", userID,
				"chatID", update.Message.Chat.ID)

			return
		}

		if err := handler(ctx, update); err != nil {
			b.log.ErrorContext(ctx, "Failed to handle update",
				"error", err,
				"userID", userID,
				"chatID", update.Message.Chat.ID,
				"messageID", update.Message.ID)
		}
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	if len(b.allowedUsers) == 0 {
		return true
	}

	for _, allowed := range b.allowedUsers {
		if allowed == userID {
			return true
		}
	}

	return false
}
