//go:build !integration

package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"travel-planner-client/internal/config"
	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/domain/ports/adapter"
	"travel-planner-client/internal/infra/i18n"
	"travel-planner-client/internal/usecase"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.messages = append(f.messages, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		out = append(out, m.Text)
	}
	return out
}

func (f *fakeSender) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[len(f.messages)-1]
}

type planAssistant struct {
	mu    sync.Mutex
	calls []adapter.SendRequest
}

func (a *planAssistant) SendMessage(ctx context.Context, req adapter.SendRequest) (adapter.SendResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, req)
	return adapter.SendResponse{Message: "✓ Query plan created", Plan: "Search " + req.Message, SubQueries: []string{"dates"}}, nil
}

type bookingsAPI struct {
	userErr error
}

var ann = &model.UserIdentity{ID: "u1", Name: "Ann", Email: "ann@example.com"}

func (bookingsAPI) AllBookings(ctx context.Context) (*model.AllBookings, error) {
	return &model.AllBookings{
		Flights: []model.FlightBooking{{ID: "f1", BookingReference: "FL1", TotalPrice: 120, Currency: "USD", Status: "confirmed", User: ann}},
	}, nil
}

func (bookingsAPI) FlightBookings(ctx context.Context) ([]model.FlightBooking, error) { return nil, nil }
func (bookingsAPI) HotelBookings(ctx context.Context) ([]model.HotelBooking, error)   { return nil, nil }

func (a bookingsAPI) UserBookings(ctx context.Context, email string) (*model.UserBookings, error) {
	if a.userErr != nil {
		return nil, a.userErr
	}
	if email != ann.Email {
		return &model.UserBookings{}, nil
	}
	return &model.UserBookings{User: ann, FlightBookings: []model.FlightBooking{{BookingReference: "FL1", Currency: "USD", TotalPrice: 120}}}, nil
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string, int, time.Duration) (bool, error) { return false, nil }

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func newTestBot(t *testing.T, api adapter.BookingsAPI, lim Limiter) (*Bot, *fakeSender, *planAssistant) {
	t.Helper()
	out := &fakeSender{}
	asst := &planAssistant{}
	b := newBot(out, config.BotConfig{RateLimit: 5, Window: time.Minute}, Deps{
		Assistant:   asst,
		Bookings:    usecase.NewBookingsService(api, nil, nil),
		Translator:  i18n.Default(),
		Limiter:     lim,
		Suggestions: []string{"Plan a 5-day trip to Thailand with beach and culture experiences", "Paris"},
	})
	return b, out, asst
}

func command(chatID int64, text string) tgbotapi.Update {
	name := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func text(chatID int64, s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID},
		Text: s,
	}}
}

func callback(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestBot_StartAndChat(t *testing.T) {
	ctx := context.Background()
	b, out, asst := newTestBot(t, bookingsAPI{}, nil)

	if err := b.handleUpdate(ctx, command(7, "/start")); err != nil {
		t.Fatalf("/start: %v", err)
	}
	welcome := out.last()
	if !strings.Contains(welcome.Text, "travel assistant") {
		t.Fatalf("unexpected welcome %q", welcome.Text)
	}
	kb, ok := welcome.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != 2 {
		t.Fatalf("want 2 suggestion rows, got %#v", welcome.ReplyMarkup)
	}
	if label := kb.InlineKeyboard[0][0].Text; !strings.HasSuffix(label, "...") {
		t.Fatalf("long suggestion must be truncated, got %q", label)
	}

	if err := b.handleUpdate(ctx, text(7, "Tokyo in spring")); err != nil {
		t.Fatalf("text: %v", err)
	}
	reply := out.last().Text
	for _, want := range []string{"✓ Query plan created", "Search Tokyo in spring", "[dates]"} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply missing %q:\n%s", want, reply)
		}
	}
	if len(asst.calls) != 1 || asst.calls[0].ThreadID == "" {
		t.Fatalf("unexpected assistant calls %+v", asst.calls)
	}

	var typing bool
	for _, r := range out.requests {
		if a, ok := r.(tgbotapi.ChatActionConfig); ok && a.Action == tgbotapi.ChatTyping {
			typing = true
		}
	}
	if !typing {
		t.Fatal("expected a typing action while awaiting")
	}

	t.Run("new resets thread", func(t *testing.T) {
		first := asst.calls[0].ThreadID
		if err := b.handleUpdate(ctx, command(7, "/new")); err != nil {
			t.Fatalf("/new: %v", err)
		}
		if err := b.handleUpdate(ctx, text(7, "Again")); err != nil {
			t.Fatalf("text: %v", err)
		}
		if asst.calls[1].ThreadID == first {
			t.Fatal("/new must start a new thread")
		}
	})
}

func TestBot_SuggestionCallback(t *testing.T) {
	ctx := context.Background()
	b, out, asst := newTestBot(t, bookingsAPI{}, nil)

	if err := b.handleUpdate(ctx, callback(9, "sugg:1")); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if len(asst.calls) != 1 || asst.calls[0].Message != "Paris" {
		t.Fatalf("suggestion not sent verbatim: %+v", asst.calls)
	}

	if err := b.handleUpdate(ctx, callback(9, "sugg:0")); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if got := out.last().Text; got != i18n.Default().T("chat.unknown_suggestion") {
		t.Fatalf("suggestions must close after engaging, got %q", got)
	}
	if len(asst.calls) != 1 {
		t.Fatal("closed suggestion must not reach the assistant")
	}

	if err := b.handleUpdate(ctx, callback(10, "sugg:99")); err != nil {
		t.Fatalf("callback: %v", err)
	}
	if got := out.last().Text; got != i18n.Default().T("chat.unknown_suggestion") {
		t.Fatalf("out of range suggestion, got %q", got)
	}
}

func TestBot_Bookings(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregate", func(t *testing.T) {
		b, out, _ := newTestBot(t, bookingsAPI{}, nil)
		if err := b.handleUpdate(ctx, command(3, "/bookings")); err != nil {
			t.Fatalf("/bookings: %v", err)
		}
		got := out.last().Text
		for _, want := range []string{"(1 users, 1 flights, 0 hotels)", "Ann", "1 booking • Total value: $120.00"} {
			if !strings.Contains(got, want) {
				t.Errorf("page missing %q:\n%s", want, got)
			}
		}
	})

	t.Run("search and reset", func(t *testing.T) {
		b, out, _ := newTestBot(t, bookingsAPI{}, nil)
		if err := b.handleUpdate(ctx, command(3, "/bookings ann@example.com")); err != nil {
			t.Fatalf("/bookings email: %v", err)
		}
		msg := out.last()
		if !strings.Contains(msg.Text, "ann@example.com") || !strings.Contains(msg.Text, "FL1") {
			t.Fatalf("unexpected search page:\n%s", msg.Text)
		}
		if _, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); !ok {
			t.Fatal("search page must carry the back button")
		}

		if err := b.handleUpdate(ctx, callback(3, cbResetBookings)); err != nil {
			t.Fatalf("reset callback: %v", err)
		}
		if got := out.last().Text; !strings.Contains(got, "Showing all users") {
			t.Fatalf("reset must show the aggregate view:\n%s", got)
		}
	})

	t.Run("none found", func(t *testing.T) {
		b, out, _ := newTestBot(t, bookingsAPI{}, nil)
		if err := b.handleUpdate(ctx, command(3, "/bookings nobody@example.com")); err != nil {
			t.Fatalf("/bookings: %v", err)
		}
		texts := out.texts()
		if !strings.Contains(strings.Join(texts, "\n"), "No Bookings Found") {
			t.Fatalf("expected none-found notice, got %v", texts)
		}
	})

	t.Run("search failure", func(t *testing.T) {
		b, out, _ := newTestBot(t, bookingsAPI{userErr: errors.New("502")}, nil)
		if err := b.handleUpdate(ctx, command(3, "/bookings ann@example.com")); err != nil {
			t.Fatalf("/bookings: %v", err)
		}
		if !strings.Contains(strings.Join(out.texts(), "\n"), "Please check your email") {
			t.Fatalf("expected search failure notice, got %v", out.texts())
		}
	})

	t.Run("pages reaped", func(t *testing.T) {
		b, _, _ := newTestBot(t, bookingsAPI{}, nil)
		_ = b.handleUpdate(ctx, command(3, "/bookings"))
		if b.pages.Len() != 1 {
			t.Fatalf("want 1 page, got %d", b.pages.Len())
		}
		if n := b.Pages().CloseIdle(0); n != 1 {
			t.Fatalf("want 1 reaped, got %d", n)
		}
	})
}

func TestBot_RateLimit(t *testing.T) {
	ctx := context.Background()

	b, out, asst := newTestBot(t, bookingsAPI{}, denyAll{})
	if err := b.handleUpdate(ctx, text(5, "hello")); err != nil {
		t.Fatalf("text: %v", err)
	}
	if got := out.last().Text; got != i18n.Default().T("tg.rate_limited") {
		t.Fatalf("want rate limit reply, got %q", got)
	}
	if len(asst.calls) != 0 {
		t.Fatal("limited message must not reach the assistant")
	}

	b, _, asst = newTestBot(t, bookingsAPI{}, brokenLimiter{})
	if err := b.handleUpdate(ctx, text(5, "hello")); err != nil {
		t.Fatalf("text: %v", err)
	}
	if len(asst.calls) != 1 {
		t.Fatal("a failing limiter must let messages through")
	}
}

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow(ctx, "k", 3, time.Hour); !ok {
			t.Fatalf("call %d should be allowed", i)
		}
	}
	if ok, _ := l.Allow(ctx, "k", 3, time.Hour); ok {
		t.Fatal("fourth call should be limited")
	}
	if ok, _ := l.Allow(ctx, "other", 3, time.Hour); !ok {
		t.Fatal("keys are independent")
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 {
		t.Fatalf("unexpected split %v", got)
	}
	got := splitMessage("aaaa\nbbbb\ncccc\n", 10)
	if len(got) != 2 || got[0] != "aaaa\nbbbb\n" || got[1] != "cccc\n" {
		t.Fatalf("unexpected split %q", got)
	}
	long := strings.Repeat("é", 10)
	parts := splitMessage(long, 5)
	if strings.Join(parts, "") != long {
		t.Fatal("split must not lose bytes")
	}
	for _, p := range parts {
		if len(p) > 5 || !utf8.ValidString(p) {
			t.Fatalf("bad part %q", p)
		}
	}
}
