package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"travel-planner-client/internal/domain"
	"travel-planner-client/internal/infra/logging"
	"travel-planner-client/internal/infra/metrics"
)

const (
	cbSuggestionPrefix = "sugg:"
	cbResetBookings    = "bk:reset"
)

type cbHandler func(ctx context.Context, chatID int64, data string) error

type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

func (b *Bot) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		cbResetBookings: func(ctx context.Context, chatID int64, _ string) error { return b.resetPage(ctx, chatID) },
	}
}

func (b *Bot) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{Prefix: cbSuggestionPrefix, Fn: b.suggestionCBRoute},
	}
}

func (b *Bot) handleQuery(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if _, err := b.out.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.log.Debug().Err(err).Msg("callback ack failed")
	}
	if q.Message == nil || q.Message.Chat == nil {
		return nil
	}
	chatID := q.Message.Chat.ID
	data := q.Data

	metrics.IncTelegramCommand("callback")
	if !b.allow(ctx, chatID, "callback") {
		return b.sendText(chatID, b.tr.T("tg.rate_limited"))
	}

	if fn, ok := b.cbRoutes()[data]; ok {
		return fn(ctx, chatID, data)
	}
	for _, r := range b.cbPrefixRoutes() {
		if strings.HasPrefix(data, r.Prefix) {
			return r.Fn(ctx, chatID, data)
		}
	}
	b.log.Debug().Str("data", data).Msg("unknown callback")
	return nil
}

// suggestionCBRoute sends the canned prompt behind a suggestion button.
func (b *Bot) suggestionCBRoute(ctx context.Context, chatID int64, data string) error {
	idx, err := strconv.Atoi(strings.TrimPrefix(data, cbSuggestionPrefix))
	key := sessionKey(chatID)
	ctrl := b.sessions.Ensure(key)
	list := ctrl.Suggestions()
	if err != nil || idx < 0 || idx >= len(list) {
		return b.sendText(chatID, b.tr.T("chat.unknown_suggestion"))
	}

	ctx = logging.WithSessID(ctx, key)
	err = ctrl.SubmitSuggestion(ctx, list[idx])
	if errors.Is(err, domain.ErrSuggestionsClosed) {
		return b.sendText(chatID, b.tr.T("chat.unknown_suggestion"))
	}
	return b.replyRejection(chatID, err)
}
