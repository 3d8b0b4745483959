// File: internal/usecase/chat_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"travel-planner-client/internal/domain"
	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/domain/ports/adapter"
	"travel-planner-client/internal/infra/logging"
	"travel-planner-client/internal/infra/metrics"
)

// Translator resolves user-facing text. *i18n.Translator satisfies it.
type Translator interface {
	T(key string, args ...interface{}) string
}

// TaskSubmitter runs work off the caller's goroutine. *worker.Pool satisfies it.
type TaskSubmitter interface {
	Submit(task func(ctx context.Context) error) error
}

// Phase tells listeners whether a message was appended before the backend
// answered (the user's own turn) or as the result of a reply.
type Phase int

const (
	PhaseProvisional Phase = iota
	PhaseConfirmed
)

func (p Phase) String() string {
	if p == PhaseProvisional {
		return "provisional"
	}
	return "confirmed"
}

// ChatListener observes a session. Callbacks run outside the session lock
// on the goroutine that changed the state.
type ChatListener interface {
	OnMessage(msg model.Message, phase Phase)
	OnAwaiting(awaiting bool)
}

type ChatOption func(*ChatController)

func WithChatLogger(l *zerolog.Logger) ChatOption {
	return func(c *ChatController) {
		if l != nil {
			c.log = l
		}
	}
}

func WithListener(l ChatListener) ChatOption {
	return func(c *ChatController) { c.listener = l }
}

// WithInterruptHandler registers a hook invoked after an interrupt reply was
// appended. The controller itself takes no further action on interrupts.
func WithInterruptHandler(fn func(msg model.Message)) ChatOption {
	return func(c *ChatController) { c.onInterrupt = fn }
}

func WithSuggestions(s []string) ChatOption {
	return func(c *ChatController) { c.suggestions = append([]string(nil), s...) }
}

func WithClock(now func() time.Time) ChatOption {
	return func(c *ChatController) { c.now = now }
}

func WithDevMode(dev bool) ChatOption {
	return func(c *ChatController) { c.devMode = dev }
}

// ChatController owns one chat session and serializes user input into at
// most one outstanding assistant request.
type ChatController struct {
	mu          sync.Mutex
	session     *model.ChatSession
	assistant   adapter.TravelAssistant
	tr          Translator
	listener    ChatListener
	onInterrupt func(msg model.Message)
	suggestions []string
	log         *zerolog.Logger
	now         func() time.Time
	devMode     bool
}

func NewChatController(assistant adapter.TravelAssistant, tr Translator, opts ...ChatOption) *ChatController {
	c := &ChatController{
		assistant: assistant,
		tr:        tr,
		log:       logging.Nop(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	c.session = model.NewChatSession(c.now())
	l := c.log.With().Str("component", "ChatController").Str("thread_id", c.session.ThreadID).Logger()
	c.log = &l
	c.session.AddMessage(c.now(), model.SenderAssistant, model.KindText, tr.T("chat.welcome"), "", nil)
	return c
}

func (c *ChatController) ThreadID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ThreadID
}

func (c *ChatController) Transcript() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Snapshot()
}

func (c *ChatController) Awaiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Awaiting
}

func (c *ChatController) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Closed
}

func (c *ChatController) UpdatedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.UpdatedAt
}

func (c *ChatController) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Draft = text
}

func (c *ChatController) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Draft
}

// Suggestions returns the canned prompts while the user has not engaged yet.
func (c *ChatController) Suggestions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.session.Messages) > 1 {
		return nil
	}
	return append([]string(nil), c.suggestions...)
}

// Close ends the session. Replies that arrive afterwards are dropped.
func (c *ChatController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.Closed {
		c.session.Closed = true
		c.log.Debug().Msg("session closed")
	}
}

// Submit sends the current draft, trimmed.
func (c *ChatController) Submit(ctx context.Context) error {
	return c.SubmitText(ctx, strings.TrimSpace(c.Draft()))
}

// SubmitText appends text as the user's turn, sends it and appends the
// assistant's reply, or the fallback reply if the send failed. Send failures
// are absorbed into the transcript; the returned error only reports
// rejections that happened before any network call.
func (c *ChatController) SubmitText(ctx context.Context, text string) error {
	threadID, err := c.begin(text)
	if err != nil {
		return err
	}
	c.dispatch(ctx, text, threadID)
	return nil
}

// SubmitSuggestion sends a canned prompt. It does nothing while a reply is
// awaited and is refused once the user has engaged.
func (c *ChatController) SubmitSuggestion(ctx context.Context, text string) error {
	c.mu.Lock()
	awaiting, engaged := c.session.Awaiting, len(c.session.Messages) > 1
	c.mu.Unlock()
	if awaiting {
		metrics.IncChatRejected("in_flight")
		return domain.ErrRequestInFlight
	}
	if engaged {
		metrics.IncChatRejected("suggestions_closed")
		return domain.ErrSuggestionsClosed
	}
	return c.SubmitText(ctx, text)
}

// SendAsync is SubmitText with the network round-trip run on runner. The
// user's turn is appended and the awaiting flag raised before it returns.
func (c *ChatController) SendAsync(runner TaskSubmitter, text string) error {
	threadID, err := c.begin(text)
	if err != nil {
		return err
	}
	task := func(ctx context.Context) error {
		c.dispatch(ctx, text, threadID)
		return nil
	}
	if err := runner.Submit(task); err != nil {
		c.log.Warn().Err(err).Msg("async dispatch refused")
		c.finish(adapter.SendResponse{}, err)
	}
	return nil
}

// begin is the provisional phase: validate, append the user's turn and
// raise the awaiting flag.
func (c *ChatController) begin(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		metrics.IncChatRejected("empty")
		return "", domain.ErrEmptyMessage
	}

	c.mu.Lock()
	if c.session.Closed {
		c.mu.Unlock()
		metrics.IncChatRejected("closed")
		return "", domain.ErrSessionClosed
	}
	if c.session.Awaiting {
		c.mu.Unlock()
		metrics.IncChatRejected("in_flight")
		return "", domain.ErrRequestInFlight
	}
	msg := c.session.AddMessage(c.now(), model.SenderUser, model.KindText, text, "", nil)
	c.session.Draft = ""
	c.session.Awaiting = true
	threadID := c.session.ThreadID
	c.mu.Unlock()

	c.emitMessage(msg, PhaseProvisional)
	c.emitAwaiting(true)
	return threadID, nil
}

func (c *ChatController) dispatch(ctx context.Context, text, threadID string) {
	defer logging.TraceDuration(c.log, "ChatController.dispatch")()
	start := time.Now()
	resp, err := c.assistant.SendMessage(ctx, adapter.SendRequest{
		Message:  text,
		ThreadID: threadID,
		Resume:   false,
	})
	metrics.ObserveChatSend(time.Since(start), err)
	c.finish(resp, err)
}

// finish is the confirmed phase: append the reply (or the fallback), then
// clear the awaiting flag. A closed session only has its flag cleared.
func (c *ChatController) finish(resp adapter.SendResponse, err error) {
	if err != nil {
		c.log.Error().Err(err).Msg("send message failed")
	}

	c.mu.Lock()
	c.session.Awaiting = false
	if c.session.Closed {
		c.mu.Unlock()
		c.log.Debug().Bool("failed", err != nil).Msg("discarding reply for closed session")
		return
	}
	var msg model.Message
	switch {
	case err != nil:
		msg = c.session.AddMessage(c.now(), model.SenderAssistant, model.KindError, c.tr.T("chat.fallback"), "", nil)
	case resp.IsInterrupt:
		msg = c.session.AddMessage(c.now(), model.SenderAssistant, model.KindInterrupt, resp.Message, resp.Plan, resp.SubQueries)
	default:
		msg = c.session.AddMessage(c.now(), model.SenderAssistant, model.KindText, resp.Message, resp.Plan, resp.SubQueries)
	}
	c.mu.Unlock()

	if err == nil {
		c.log.Debug().
			Str("reply", logging.Redact(resp.Message, c.devMode)).
			Bool("plan", resp.Plan != "").
			Int("sub_queries", len(resp.SubQueries)).
			Msg("assistant replied")
	}
	c.emitMessage(msg, PhaseConfirmed)
	c.emitAwaiting(false)

	if msg.Kind == model.KindInterrupt {
		metrics.IncChatInterrupt()
		if c.onInterrupt != nil {
			c.onInterrupt(msg)
		}
	}
}

func (c *ChatController) emitMessage(msg model.Message, phase Phase) {
	if c.listener != nil {
		c.listener.OnMessage(msg, phase)
	}
}

func (c *ChatController) emitAwaiting(v bool) {
	if c.listener != nil {
		c.listener.OnAwaiting(v)
	}
}

// IsRejection reports whether err came from a submit that never reached the
// network.
func IsRejection(err error) bool {
	return errors.Is(err, domain.ErrEmptyMessage) ||
		errors.Is(err, domain.ErrRequestInFlight) ||
		errors.Is(err, domain.ErrSessionClosed) ||
		errors.Is(err, domain.ErrSuggestionsClosed)
}
