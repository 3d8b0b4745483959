package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"travel-planner-client/internal/domain"
	"travel-planner-client/internal/infra/logging"
	"travel-planner-client/internal/infra/metrics"
)

// ControllerFactory builds a fresh controller for a new session.
type ControllerFactory func(sessionID string) *ChatController

type registryEntry struct {
	ctrl     *ChatController
	lastUsed time.Time
}

// SessionRegistry holds the chat sessions of surfaces that serve many
// conversations at once. Each session is created and destroyed explicitly.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*registryEntry
	factory  ControllerFactory
	now      func() time.Time
	log      *zerolog.Logger
}

func NewSessionRegistry(factory ControllerFactory, logger *zerolog.Logger) *SessionRegistry {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "SessionRegistry").Logger()
	return &SessionRegistry{
		sessions: make(map[string]*registryEntry),
		factory:  factory,
		now:      time.Now,
		log:      &l,
	}
}

// Open creates a session under a new random ID.
func (r *SessionRegistry) Open() (string, *ChatController) {
	id := uuid.NewString()
	return id, r.Ensure(id)
}

// Ensure returns the session stored under key, creating it if needed.
func (r *SessionRegistry) Ensure(key string) *ChatController {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[key]; ok {
		e.lastUsed = r.now()
		return e.ctrl
	}
	c := r.factory(key)
	r.sessions[key] = &registryEntry{ctrl: c, lastUsed: r.now()}
	metrics.SetChatSessionsOpen(len(r.sessions))
	r.log.Debug().Str("session_id", key).Str("thread_id", c.ThreadID()).Msg("session opened")
	return c
}

func (r *SessionRegistry) Get(id string) (*ChatController, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.lastUsed = r.now()
	return e.ctrl, nil
}

// Close destroys the session; an outstanding reply for it will be dropped.
func (r *SessionRegistry) Close(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		metrics.SetChatSessionsOpen(len(r.sessions))
	}
	r.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	e.ctrl.Close()
	r.log.Debug().Str("session_id", id).Msg("session closed")
	return nil
}

// CloseIdle closes sessions unused for longer than ttl. Sessions waiting on
// a reply are left alone.
func (r *SessionRegistry) CloseIdle(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)
	var victims []*ChatController

	r.mu.Lock()
	for id, e := range r.sessions {
		if e.lastUsed.After(cutoff) || e.ctrl.Awaiting() {
			continue
		}
		delete(r.sessions, id)
		victims = append(victims, e.ctrl)
	}
	metrics.SetChatSessionsOpen(len(r.sessions))
	r.mu.Unlock()

	for _, c := range victims {
		c.Close()
	}
	return len(victims)
}

// CloseAll destroys every session; used at shutdown.
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*registryEntry)
	metrics.SetChatSessionsOpen(0)
	r.mu.Unlock()
	for _, e := range all {
		e.ctrl.Close()
	}
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
