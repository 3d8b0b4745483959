// Package console is an interactive terminal surface: one chat session and
// one bookings page driven by line commands.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"travel-planner-client/internal/domain"
	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/domain/ports/adapter"
	"travel-planner-client/internal/infra/logging"
	"travel-planner-client/internal/infra/render"
	"travel-planner-client/internal/usecase"
)

const helpText = `Commands:
  <text>              send a travel request
  /s <n>              send suggestion n
  /new                start a new conversation
  /history            print the transcript
  /bookings [email]   all bookings, or one user's
  /reset              back to all bookings
  /quit               exit`

type Deps struct {
	Assistant   adapter.TravelAssistant
	Bookings    *usecase.BookingsService
	Translator  usecase.Translator
	Suggestions []string
	Styled      bool
	Logger      *zerolog.Logger
}

type REPL struct {
	deps   Deps
	in     io.Reader
	out    io.Writer
	render *render.Renderer
	log    *zerolog.Logger

	outMu sync.Mutex
	chat  *usecase.ChatController
	page  *usecase.BookingsPage
}

func New(in io.Reader, out io.Writer, deps Deps) *REPL {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "console").Logger()
	r := &REPL{
		deps:   deps,
		in:     in,
		out:    out,
		render: render.New(deps.Translator, deps.Styled),
		log:    &l,
	}
	r.page = usecase.NewBookingsPage(deps.Bookings, deps.Translator, &l)
	return r
}

func (r *REPL) newChat() {
	if r.chat != nil {
		r.chat.Close()
	}
	r.chat = usecase.NewChatController(r.deps.Assistant, r.deps.Translator,
		usecase.WithChatLogger(r.log),
		usecase.WithSuggestions(r.deps.Suggestions),
		usecase.WithListener(r),
	)
	r.println(r.render.Transcript(r.chat.Transcript()))
	if s := r.render.Suggestions(r.chat.Suggestions()); s != "" {
		r.println(s)
	}
}

// OnMessage prints assistant replies once they are confirmed.
func (r *REPL) OnMessage(msg model.Message, phase usecase.Phase) {
	if phase == usecase.PhaseConfirmed && msg.Sender == model.SenderAssistant {
		r.println(r.render.Message(msg))
	}
}

// OnAwaiting shows the loading plan while a reply is outstanding.
func (r *REPL) OnAwaiting(awaiting bool) {
	if awaiting {
		r.println(r.render.Plan(usecase.RenderQueryPlan("", nil, true)))
	}
}

func (r *REPL) println(s string) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintln(r.out, s)
}

// Run reads commands until /quit, EOF or ctx ends.
func (r *REPL) Run(ctx context.Context) error {
	r.newChat()
	defer func() {
		r.chat.Close()
		r.page.Close()
	}()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		sc := bufio.NewScanner(r.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-stop:
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			quit, err := r.handle(ctx, line)
			if err != nil {
				r.log.Error().Err(err).Msg("command failed")
				r.println(r.render.Notice(model.Notice{Title: "Error", Description: err.Error(), Variant: model.NoticeDestructive}))
			}
			if quit {
				return nil
			}
		}
	}
}

func (r *REPL) handle(ctx context.Context, line string) (bool, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		r.chat.SetDraft(line)
		return false, r.reportChat(r.chat.Submit(ctx))
	}

	cmd, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		r.println(helpText)
	case "/new":
		r.newChat()
	case "/history":
		r.println(r.render.Transcript(r.chat.Transcript()))
	case "/s":
		n, err := strconv.Atoi(arg)
		list := r.chat.Suggestions()
		if err != nil || n < 1 || n > len(list) {
			r.println(r.deps.Translator.T("chat.unknown_suggestion"))
			return false, nil
		}
		return false, r.reportChat(r.chat.SubmitSuggestion(ctx, list[n-1]))
	case "/bookings":
		return false, r.bookings(ctx, arg)
	case "/reset":
		r.page.Reset()
		if !r.page.View().Loaded {
			if err := r.page.Load(ctx); err != nil {
				return false, err
			}
		}
		r.showPage()
	default:
		r.println(helpText)
	}
	return false, nil
}

func (r *REPL) bookings(ctx context.Context, email string) error {
	if email == "" {
		r.page.Reset()
		if err := r.page.Load(ctx); err != nil {
			return err
		}
		r.showPage()
		return nil
	}
	err := r.page.Search(ctx, email)
	if errors.Is(err, domain.ErrRequestInFlight) {
		r.println(r.deps.Translator.T("chat.busy"))
		return nil
	}
	if err != nil {
		return err
	}
	r.showPage()
	return nil
}

func (r *REPL) showPage() {
	for _, n := range r.page.DrainNotices() {
		r.println(r.render.Notice(n))
	}
	r.println(r.render.Page(r.page.View()))
}

func (r *REPL) reportChat(err error) error {
	switch {
	case err == nil, errors.Is(err, domain.ErrEmptyMessage):
		return nil
	case errors.Is(err, domain.ErrRequestInFlight):
		r.println(r.deps.Translator.T("chat.busy"))
		return nil
	case errors.Is(err, domain.ErrSuggestionsClosed):
		r.println(r.deps.Translator.T("chat.unknown_suggestion"))
		return nil
	default:
		return err
	}
}
