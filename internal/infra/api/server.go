package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"travel-planner-client/internal/config"
	"travel-planner-client/internal/infra/logging"
)

// Registrar mounts a group of routes; *apiv1.Server satisfies it.
type Registrar interface {
	Register(r chi.Router)
}

// Server is the process's HTTP listener: health, metrics and the versioned
// JSON facade behind optional bearer auth.
type Server struct {
	srv *http.Server
	log *zerolog.Logger
}

func NewServer(cfg config.HTTPConfig, metricsEnabled bool, auth *AuthManager, logger *zerolog.Logger, groups ...Registrar) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "http").Logger()
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewRouter(cfg, metricsEnabled, auth, &l, groups...),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: &l,
	}
}

// NewRouter builds the handler tree. It is separate from NewServer so tests
// can drive it through httptest.
func NewRouter(cfg config.HTTPConfig, metricsEnabled bool, auth *AuthManager, logger *zerolog.Logger, groups ...Registrar) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	r := chi.NewRouter()
	// Inside the mux so RequestLog can read the matched route pattern.
	r.Use(TraceID(), RequestLog(logger), Recover(logger), Timeout(timeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(auth))
		for _, g := range groups {
			g.Register(r)
		}
	})
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("http listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("http shutdown")
		return err
	}
	s.log.Info().Msg("http stopped")
	return nil
}
