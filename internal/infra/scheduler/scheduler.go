package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"travel-planner-client/internal/infra/logging"
)

// Job is one scheduled unit of work. Each run gets its own bounded context.
type Job struct {
	Name     string
	Schedule string // standard 5-field cron spec, UTC
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs Jobs on cron schedules. Runs of the same job never overlap.
type Scheduler struct {
	cron *cron.Cron
	log  *zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

func New(logger *zerolog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "Scheduler").Logger()
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:    &l,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers a job. It must be called before Start.
func (s *Scheduler) Add(j Job) error {
	if j.Run == nil {
		return errors.New("scheduler: job has no run func")
	}
	if j.Timeout <= 0 {
		j.Timeout = 30 * time.Second
	}
	_, err := s.cron.AddFunc(j.Schedule, func() { s.runOnce(j) })
	if err != nil {
		return err
	}
	s.log.Info().Str("job", j.Name).Str("schedule", j.Schedule).Msg("job registered")
	return nil
}

func (s *Scheduler) runOnce(j Job) {
	ctx, cancel := context.WithTimeout(s.ctx, j.Timeout)
	defer cancel()
	start := time.Now()
	if err := j.Run(ctx); err != nil {
		s.log.Error().Err(err).Str("job", j.Name).Msg("job failed")
		return
	}
	s.log.Debug().Str("job", j.Name).Dur("duration", time.Since(start)).Msg("job done")
}

// Start begins firing jobs. Calling it more than once has no effect.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.cancel()
		return
	}
	s.started = false
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Warmer is what the cache warm job needs from the bookings service.
type Warmer interface {
	Warm(ctx context.Context) (int, error)
}

// CacheWarmJob recomputes the per-user aggregates into the cache.
func CacheWarmJob(schedule string, w Warmer, logger *zerolog.Logger) Job {
	if logger == nil {
		logger = logging.Nop()
	}
	return Job{
		Name:     "bookings_cache_warm",
		Schedule: schedule,
		Timeout:  time.Minute,
		Run: func(ctx context.Context) error {
			n, err := w.Warm(ctx)
			if err != nil {
				return err
			}
			logger.Debug().Int("users", n).Msg("aggregate cache warmed")
			return nil
		},
	}
}
