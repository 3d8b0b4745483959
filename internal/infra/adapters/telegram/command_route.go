package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"travel-planner-client/internal/domain"
	"travel-planner-client/internal/infra/render"
	"travel-planner-client/internal/usecase"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

func (b *Bot) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":    b.handleStartCommand,
		"new":      b.handleStartCommand,
		"help":     b.handleHelpCommand,
		"bookings": b.handleBookingsCommand,
		"reset":    b.handleResetCommand,
	}
}

// handleStartCommand drops the chat's conversation and opens a fresh one.
func (b *Bot) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	key := sessionKey(chatID)
	_ = b.sessions.Close(key)
	ctrl := b.sessions.Ensure(key)

	transcript := ctrl.Transcript()
	welcome := transcript[0].Content
	return b.sendButtons(chatID, welcome, suggestionRows(ctrl.Suggestions()))
}

func (b *Bot) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return b.sendText(message.Chat.ID, b.tr.T("tg.help"))
}

// handleBookingsCommand shows every user's bookings, or one user's when an
// email is given.
func (b *Bot) handleBookingsCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	page := b.pages.ensure(chatID)
	email := strings.TrimSpace(message.CommandArguments())

	if email == "" {
		page.Reset()
		if err := page.Load(ctx); err != nil {
			return err
		}
		return b.sendPage(chatID, page, false)
	}

	err := page.Search(ctx, email)
	switch {
	case errors.Is(err, domain.ErrRequestInFlight):
		return b.sendText(chatID, b.tr.T("chat.busy"))
	case err != nil:
		return err
	}
	return b.sendPage(chatID, page, true)
}

func (b *Bot) handleResetCommand(ctx context.Context, message *tgbotapi.Message) error {
	return b.resetPage(ctx, message.Chat.ID)
}

func (b *Bot) resetPage(ctx context.Context, chatID int64) error {
	page := b.pages.ensure(chatID)
	page.Reset()
	if !page.View().Loaded {
		if err := page.Load(ctx); err != nil {
			return err
		}
	}
	return b.sendPage(chatID, page, false)
}

// sendPage sends pending notices, then the current view. Search views carry
// a button back to the aggregate view.
func (b *Bot) sendPage(chatID int64, page *usecase.BookingsPage, backButton bool) error {
	for _, n := range page.DrainNotices() {
		if err := b.sendText(chatID, b.render.Notice(n)); err != nil {
			return err
		}
	}
	view := page.View()
	text := b.render.Page(view)
	if backButton && view.Mode == usecase.ModeSearch {
		rows := [][]tgbotapi.InlineKeyboardButton{{
			tgbotapi.NewInlineKeyboardButtonData(b.tr.T("tg.show_all"), cbResetBookings),
		}}
		return b.sendButtons(chatID, text, rows)
	}
	return b.sendText(chatID, text)
}

func suggestionRows(list []string) [][]tgbotapi.InlineKeyboardButton {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list))
	for i, s := range list {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(render.TruncateSuggestion(s), cbSuggestionPrefix+strconv.Itoa(i)),
		))
	}
	return rows
}
