package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"travel-planner-client/internal/infra/logging"
	"travel-planner-client/internal/infra/metrics"
)

// IdleCloser drops entries unused for longer than ttl and reports how many.
// *usecase.SessionRegistry and the bot's page store satisfy it.
type IdleCloser interface {
	CloseIdle(ttl time.Duration) int
}

// SessionReaper periodically closes idle sessions.
type SessionReaper struct {
	kind     string
	interval time.Duration
	ttl      time.Duration
	target   IdleCloser
	log      *zerolog.Logger
}

func NewSessionReaper(kind string, interval, ttl time.Duration, target IdleCloser, logger *zerolog.Logger) *SessionReaper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "SessionReaper").Str("kind", kind).Logger()
	return &SessionReaper{kind: kind, interval: interval, ttl: ttl, target: target, log: &l}
}

func (w *SessionReaper) Run(ctx context.Context) error {
	w.log.Info().Dur("ttl", w.ttl).Msg("Starting session reaper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping session reaper")
			return ctx.Err()
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *SessionReaper) sweep() {
	n := w.target.CloseIdle(w.ttl)
	if n > 0 {
		metrics.AddSessionsReaped(w.kind, n)
		w.log.Info().Int("count", n).Msg("idle sessions closed")
	}
}
