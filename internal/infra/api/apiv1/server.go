// Package apiv1 is the JSON facade over chat sessions and bookings.
package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"travel-planner-client/internal/domain"
	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/infra/logging"
	"travel-planner-client/internal/usecase"
)

// Session is the wire view of one chat session.
type Session struct {
	SessionID   string          `json:"session_id"`
	ThreadID    string          `json:"thread_id"`
	Awaiting    bool            `json:"awaiting"`
	Messages    []model.Message `json:"messages"`
	Suggestions []string        `json:"suggestions,omitempty"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type SuggestionRequest struct {
	Index int `json:"index"`
}

type Error struct {
	Error string `json:"error"`
}

type Server struct {
	sessions *usecase.SessionRegistry
	bookings *usecase.BookingsService
	runner   usecase.TaskSubmitter
	log      *zerolog.Logger
}

// NewServer builds the facade. runner may be nil, in which case async
// sends are refused with 400.
func NewServer(sessions *usecase.SessionRegistry, bookings *usecase.BookingsService, runner usecase.TaskSubmitter, logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "apiv1").Logger()
	return &Server{sessions: sessions, bookings: bookings, runner: runner, log: &l}
}

// Register mounts the routes under /api/v1.
func (s *Server) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.createSession)
		r.Get("/sessions/{id}", s.getSession)
		r.Delete("/sessions/{id}", s.deleteSession)
		r.Post("/sessions/{id}/messages", s.sendMessage)
		r.Post("/sessions/{id}/suggestions", s.sendSuggestion)

		r.Get("/bookings", s.allBookings)
		r.Get("/bookings/cards", s.bookingCards)
		r.Get("/bookings/flights", s.flightBookings)
		r.Get("/bookings/hotels", s.hotelBookings)
		r.Get("/bookings/user", s.userBookings)
	})
}

func view(id string, c *usecase.ChatController) Session {
	return Session{
		SessionID:   id,
		ThreadID:    c.ThreadID(),
		Awaiting:    c.Awaiting(),
		Messages:    c.Transcript(),
		Suggestions: c.Suggestions(),
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	id, c := s.sessions.Open()
	writeJSON(w, http.StatusCreated, view(id, c))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.sessions.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view(id, c))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sendMessage submits text and answers with the updated session. With
// ?async=true the reply is produced on the worker pool and 202 is returned
// as soon as the user's turn is recorded.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.sessions.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	ctx := logging.WithThreadID(logging.WithSessID(r.Context(), id), c.ThreadID())

	if r.URL.Query().Get("async") == "true" {
		if s.runner == nil {
			s.writeError(w, r, domain.ErrInvalidArgument)
			return
		}
		if err := c.SendAsync(s.runner, req.Text); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, view(id, c))
		return
	}

	if err := c.SubmitText(ctx, req.Text); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view(id, c))
}

func (s *Server) sendSuggestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.sessions.Get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req SuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	list := c.Suggestions()
	if list == nil {
		s.writeError(w, r, domain.ErrSuggestionsClosed)
		return
	}
	if req.Index < 0 || req.Index >= len(list) {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	ctx := logging.WithThreadID(logging.WithSessID(r.Context(), id), c.ThreadID())
	if err := c.SubmitSuggestion(ctx, list[req.Index]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view(id, c))
}

func (s *Server) allBookings(w http.ResponseWriter, r *http.Request) {
	all, err := s.bookings.All(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) bookingCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.bookings.Cards(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cards})
}

func (s *Server) flightBookings(w http.ResponseWriter, r *http.Request) {
	out, err := s.bookings.Flights(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) hotelBookings(w http.ResponseWriter, r *http.Request) {
	out, err := s.bookings.Hotels(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) userBookings(w http.ResponseWriter, r *http.Request) {
	out, err := s.bookings.Search(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// StatusFor maps domain errors to HTTP statuses; anything unrecognised came
// from the travel backend and is reported as 502.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrEmailRequired),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrSuggestionsClosed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRequestInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrSessionClosed):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	msg := err.Error()
	if code == http.StatusBadGateway {
		logging.With(r.Context(), s.log).Error().Err(err).Str("path", r.URL.Path).Msg("upstream failure")
		msg = strings.ToLower(http.StatusText(code))
	}
	writeJSON(w, code, Error{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
