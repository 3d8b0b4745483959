// Package application composes adapters and use cases into the running
// surfaces: the HTTP facade, the Telegram bot and the console.
package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"travel-planner-client/internal/config"
	"travel-planner-client/internal/domain/model"
	"travel-planner-client/internal/domain/ports/adapter"
	"travel-planner-client/internal/domain/ports/repository"
	"travel-planner-client/internal/infra/adapters/planner"
	"travel-planner-client/internal/infra/adapters/telegram"
	"travel-planner-client/internal/infra/adapters/travelapi"
	"travel-planner-client/internal/infra/api"
	"travel-planner-client/internal/infra/api/apiv1"
	"travel-planner-client/internal/infra/i18n"
	"travel-planner-client/internal/infra/memcache"
	red "travel-planner-client/internal/infra/redis"
	"travel-planner-client/internal/infra/sched"
	"travel-planner-client/internal/infra/scheduler"
	"travel-planner-client/internal/infra/security"
	"travel-planner-client/internal/infra/worker"
	"travel-planner-client/internal/usecase"
)

// ErrBackendNotConfigured is returned by the bookings source when the
// process runs in dev mode without api.base_url.
var ErrBackendNotConfigured = errors.New("travel backend not configured")

type App struct {
	Config      *config.Config
	Log         *zerolog.Logger
	Translator  *i18n.Translator
	Assistant   adapter.TravelAssistant
	BookingsAPI adapter.BookingsAPI
	Bookings    *usecase.BookingsService
	Pool        *worker.Pool
	Sessions    *usecase.SessionRegistry

	redis *red.Client
}

// Build wires every dependency named by cfg. It does not start anything.
func Build(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Language)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: logger, Translator: tr}

	var backend *travelapi.Client
	if cfg.API.BaseURL != "" {
		backend, err = travelapi.New(cfg.API, logger)
		if err != nil {
			return nil, fmt.Errorf("travel api: %w", err)
		}
		a.BookingsAPI = backend
	} else {
		logger.Warn().Msg("api.base_url not set; bookings are unavailable")
		a.BookingsAPI = unconfiguredBookings{}
	}

	if a.Assistant, err = buildAssistant(ctx, cfg, backend, logger); err != nil {
		return nil, err
	}

	cache, err := a.buildCache(ctx)
	if err != nil {
		return nil, err
	}
	var memo *usecase.AggregateMemo
	if cache != nil {
		memo = usecase.NewAggregateMemo(cache, logger)
	}
	a.Bookings = usecase.NewBookingsService(a.BookingsAPI, memo, logger)

	a.Pool = worker.NewPool(cfg.Chat.Workers, logger)
	a.Sessions = usecase.NewSessionRegistry(a.NewController, logger)
	return a, nil
}

func buildAssistant(ctx context.Context, cfg *config.Config, backend *travelapi.Client, logger *zerolog.Logger) (adapter.TravelAssistant, error) {
	switch cfg.Planner.Mode {
	case "gemini":
		p, err := planner.NewGeminiPlanner(ctx, cfg.Planner, logger)
		if err != nil {
			return nil, fmt.Errorf("gemini planner: %w", err)
		}
		logger.Info().Str("model", cfg.Planner.Model).Msg("assistant: gemini planner")
		return p, nil
	case "offline":
		logger.Info().Msg("assistant: offline stub")
		return planner.OfflineAssistant{}, nil
	default:
		if backend == nil {
			logger.Warn().Msg("assistant: no backend configured, using offline stub")
			return planner.OfflineAssistant{}, nil
		}
		logger.Info().Str("base_url", cfg.API.BaseURL).Msg("assistant: travel backend")
		return backend, nil
	}
}

func (a *App) buildCache(ctx context.Context) (repository.AggregateCache, error) {
	switch a.Config.Cache.Backend {
	case "redis":
		cli, err := red.NewClient(ctx, &a.Config.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = cli
		var opts []red.AggregateCacheOption
		if key := a.Config.Security.EncryptionKey; key != "" {
			sealer, err := security.NewSealer([]byte(key))
			if err != nil {
				return nil, err
			}
			opts = append(opts, red.WithSealer(sealer))
		}
		a.Log.Info().Bool("sealed", len(opts) > 0).Msg("aggregate cache: redis")
		return red.NewAggregateCache(cli, a.Config.Redis.TTL, opts...), nil
	case "none":
		return nil, nil
	default:
		a.Log.Info().Int("size", a.Config.Cache.Size).Msg("aggregate cache: memory")
		return memcache.NewAggregateLRU(a.Config.Cache.Size), nil
	}
}

// NewController is the factory for HTTP facade sessions.
func (a *App) NewController(sessionID string) *usecase.ChatController {
	l := a.Log.With().Str("session_id", sessionID).Logger()
	return usecase.NewChatController(a.Assistant, a.Translator,
		usecase.WithChatLogger(&l),
		usecase.WithSuggestions(a.Config.Chat.Suggestions),
		usecase.WithDevMode(a.Config.Runtime.Dev),
	)
}

// Run starts the worker pool, the reapers, the cache warmer, the HTTP server
// and, when a token is configured, the Telegram bot. It blocks until ctx ends
// or one of them fails.
func (a *App) Run(ctx context.Context) error {
	cfg := a.Config

	var warmer *scheduler.Scheduler
	if cfg.Cache.WarmSchedule != "" {
		warmer = scheduler.New(a.Log)
		if err := warmer.Add(scheduler.CacheWarmJob(cfg.Cache.WarmSchedule, a.Bookings, a.Log)); err != nil {
			return fmt.Errorf("cache warm job: %w", err)
		}
	}

	var bot *telegram.Bot
	if cfg.Bot.Token != "" {
		var err error
		bot, err = telegram.New(cfg.Bot, telegram.Deps{
			Assistant:   a.Assistant,
			Bookings:    a.Bookings,
			Translator:  a.Translator,
			Limiter:     a.limiter(),
			Suggestions: cfg.Chat.Suggestions,
			Logger:      a.Log,
		})
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
	}

	var auth *api.AuthManager
	if cfg.HTTP.JWTSecret != "" {
		auth = api.NewAuthManager(cfg.HTTP.JWTSecret, 0)
		if cfg.Runtime.Dev {
			if tok, err := auth.Mint("dev"); err == nil {
				a.Log.Info().Str("token", tok).Msg("dev bearer token")
			}
		}
	}
	facade := apiv1.NewServer(a.Sessions, a.Bookings, a.Pool, a.Log)
	srv := api.NewServer(cfg.HTTP, cfg.Metrics.Enabled, auth, a.Log, facade)

	g, ctx := errgroup.WithContext(ctx)
	a.Pool.Start(ctx)
	defer a.Pool.Stop()
	defer a.Sessions.CloseAll()

	if warmer != nil {
		warmer.Start()
		defer warmer.Stop()
	}

	reaper := sched.NewSessionReaper("chat", cfg.Chat.ReapInterval, cfg.Chat.SessionTTL, a.Sessions, a.Log)
	g.Go(func() error { return ignoreCanceled(reaper.Run(ctx)) })
	g.Go(func() error { return srv.Run(ctx) })

	if bot != nil {
		botReaper := sched.NewSessionReaper("chat", cfg.Chat.ReapInterval, cfg.Chat.SessionTTL, bot.Sessions(), a.Log)
		pageReaper := sched.NewSessionReaper("bookings_page", cfg.Chat.ReapInterval, cfg.Chat.SessionTTL, bot.Pages(), a.Log)
		g.Go(func() error { return ignoreCanceled(bot.StartPolling(ctx)) })
		g.Go(func() error { return ignoreCanceled(botReaper.Run(ctx)) })
		g.Go(func() error { return ignoreCanceled(pageReaper.Run(ctx)) })
	}

	return g.Wait()
}

// limiter prefers the shared Redis counter so limits hold across replicas.
func (a *App) limiter() telegram.Limiter {
	if a.redis != nil {
		return red.NewRateLimiter(a.redis)
	}
	return telegram.NewLocalLimiter()
}

func (a *App) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type unconfiguredBookings struct{}

func (unconfiguredBookings) AllBookings(context.Context) (*model.AllBookings, error) {
	return nil, ErrBackendNotConfigured
}

func (unconfiguredBookings) FlightBookings(context.Context) ([]model.FlightBooking, error) {
	return nil, ErrBackendNotConfigured
}

func (unconfiguredBookings) HotelBookings(context.Context) ([]model.HotelBooking, error) {
	return nil, ErrBackendNotConfigured
}

func (unconfiguredBookings) UserBookings(context.Context, string) (*model.UserBookings, error) {
	return nil, ErrBackendNotConfigured
}

