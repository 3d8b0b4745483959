package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"travel-planner-client/internal/config"
	"travel-planner-client/internal/domain"
	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/domain/ports/adapter"
	"travel-planner-client/internal/infra/logging"
	"travel-planner-client/internal/infra/metrics"
	red "travel-planner-client/internal/infra/redis"
	"travel-planner-client/internal/infra/render"
	"travel-planner-client/internal/usecase"
)

// maxMessageLen is Telegram's limit for one text message.
const maxMessageLen = 4096

// sender is the part of *tgbotapi.BotAPI the bot writes through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Limiter is satisfied by *redis.RateLimiter and *LocalLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Deps struct {
	Assistant   adapter.TravelAssistant
	Bookings    *usecase.BookingsService
	Translator  usecase.Translator
	Limiter     Limiter
	Suggestions []string
	Logger      *zerolog.Logger
}

// Bot serves one chat session and one bookings page per Telegram chat.
type Bot struct {
	api *tgbotapi.BotAPI
	out sender
	cfg config.BotConfig

	assistant   adapter.TravelAssistant
	bookings    *usecase.BookingsService
	tr          usecase.Translator
	limiter     Limiter
	suggestions []string
	render      *render.Renderer

	sessions *usecase.SessionRegistry
	pages    *pageStore
	log      *zerolog.Logger

	cancelPolling context.CancelFunc
}

func New(cfg config.BotConfig, deps Deps) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("bot token is empty")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	b := newBot(api, cfg, deps)
	b.api = api
	return b, nil
}

func newBot(out sender, cfg config.BotConfig, deps Deps) *Bot {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "TelegramBot").Logger()
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	b := &Bot{
		out:         out,
		cfg:         cfg,
		assistant:   deps.Assistant,
		bookings:    deps.Bookings,
		tr:          deps.Translator,
		limiter:     deps.Limiter,
		suggestions: deps.Suggestions,
		render:      render.New(deps.Translator, false),
		log:         &l,
	}
	b.sessions = usecase.NewSessionRegistry(b.newController, &l)
	b.pages = newPageStore(func() *usecase.BookingsPage {
		return usecase.NewBookingsPage(b.bookings, b.tr, &l)
	})
	return b
}

// Sessions exposes the per-chat conversations for the idle reaper.
func (b *Bot) Sessions() *usecase.SessionRegistry { return b.sessions }

// Pages exposes the per-chat bookings pages for the idle reaper.
func (b *Bot) Pages() interface{ CloseIdle(time.Duration) int } { return b.pages }

func sessionKey(chatID int64) string { return "tg:" + strconv.FormatInt(chatID, 10) }

func (b *Bot) newController(key string) *usecase.ChatController {
	chatID, err := strconv.ParseInt(strings.TrimPrefix(key, "tg:"), 10, 64)
	if err != nil {
		b.log.Error().Err(err).Str("key", key).Msg("bad session key")
	}
	return usecase.NewChatController(b.assistant, b.tr,
		usecase.WithChatLogger(b.log),
		usecase.WithSuggestions(b.suggestions),
		usecase.WithListener(&chatRelay{bot: b, chatID: chatID}),
	)
}

// chatRelay forwards assistant replies of one session to its chat.
type chatRelay struct {
	bot    *Bot
	chatID int64
}

func (c *chatRelay) OnMessage(msg model.Message, phase usecase.Phase) {
	if phase != usecase.PhaseConfirmed || msg.Sender != model.SenderAssistant {
		return
	}
	if err := c.bot.sendText(c.chatID, c.bot.render.Message(msg)); err != nil {
		c.bot.log.Warn().Err(err).Int64("chat_id", c.chatID).Msg("relay reply failed")
	}
}

func (c *chatRelay) OnAwaiting(awaiting bool) {
	if !awaiting {
		return
	}
	if _, err := c.bot.out.Request(tgbotapi.NewChatAction(c.chatID, tgbotapi.ChatTyping)); err != nil {
		c.bot.log.Debug().Err(err).Msg("chat action failed")
	}
}

// StartPolling fans updates out to cfg.Workers goroutines until ctx ends.
func (b *Bot) StartPolling(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot has no api client")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < b.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := b.handleUpdate(ctx, up); err != nil {
						b.log.Error().Err(err).Int("worker", id).Msg("update failed")
					}
				}
			}
		}(i)
	}

	b.log.Info().Int("workers", b.cfg.Workers).Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			wg.Wait()
			b.sessions.CloseAll()
			b.pages.CloseAll()
			b.log.Info().Msg("telegram polling stopped")
			return ctx.Err()
		case up := <-updates:
			select {
			case updateChan <- up:
			case <-ctx.Done():
			}
		}
	}
}

func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return b.handleQuery(ctx, update.CallbackQuery)
	}
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}
	chatID := msg.Chat.ID

	command := "message"
	if msg.IsCommand() {
		command = "/" + msg.Command()
	}
	metrics.IncTelegramCommand(command)
	if !b.allow(ctx, chatID, command) {
		return b.sendText(chatID, b.tr.T("tg.rate_limited"))
	}

	if msg.IsCommand() {
		if h, ok := b.commandRoutes()[msg.Command()]; ok {
			return h(ctx, msg)
		}
		return b.sendText(chatID, b.tr.T("tg.help"))
	}
	return b.handleChatText(ctx, chatID, msg.Text)
}

// allow consults the limiter; limiter errors let the message through.
func (b *Bot) allow(ctx context.Context, chatID int64, command string) bool {
	if b.limiter == nil {
		return true
	}
	ok, err := b.limiter.Allow(ctx, red.ChatCommandKey(chatID, command), b.cfg.RateLimit, b.cfg.Window)
	if err != nil {
		b.log.Warn().Err(err).Msg("rate limit check failed")
		return true
	}
	if !ok {
		metrics.IncRateLimitTriggered()
	}
	return ok
}

func (b *Bot) handleChatText(ctx context.Context, chatID int64, text string) error {
	key := sessionKey(chatID)
	ctx = logging.WithSessID(ctx, key)
	err := b.sessions.Ensure(key).SubmitText(ctx, text)
	if errors.Is(err, domain.ErrSessionClosed) {
		// Reaped between lookup and submit; a fresh session takes the text.
		err = b.sessions.Ensure(key).SubmitText(ctx, text)
	}
	return b.replyRejection(chatID, err)
}

func (b *Bot) replyRejection(chatID int64, err error) error {
	switch {
	case err == nil:
		return nil
	case usecase.IsRejection(err):
		if errors.Is(err, domain.ErrRequestInFlight) {
			return b.sendText(chatID, b.tr.T("chat.busy"))
		}
		b.log.Debug().Err(err).Int64("chat_id", chatID).Msg("message rejected")
		return nil
	default:
		return err
	}
}

// sendText sends text, split on line boundaries when it exceeds one message.
func (b *Bot) sendText(chatID int64, text string) error {
	for _, part := range splitMessage(text, maxMessageLen) {
		if _, err := b.out.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			return fmt.Errorf("send to chat %d: %w", chatID, err)
		}
	}
	return nil
}

func (b *Bot) sendButtons(chatID int64, text string, rows [][]tgbotapi.InlineKeyboardButton) error {
	parts := splitMessage(text, maxMessageLen)
	for i, part := range parts {
		msg := tgbotapi.NewMessage(chatID, part)
		if i == len(parts)-1 && len(rows) > 0 {
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		}
		if _, err := b.out.Send(msg); err != nil {
			return fmt.Errorf("send to chat %d: %w", chatID, err)
		}
	}
	return nil
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var parts []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			}
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if cur.Len()+len(line) > limit {
			parts = append(parts, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
