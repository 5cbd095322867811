package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/searchvault/internal/ingest"
	"github.com/searchvault/internal/models"
	"github.com/searchvault/internal/storage"
	"github.com/searchvault/pkg/logger"
)

// Runner executes one ingestion run for one query config
type Runner interface {
	Run(ctx context.Context, cfg *models.QueryConfig, hooks ingest.Hooks) (*ingest.RunResult, error)
}

type entry struct {
	cfg  *models.QueryConfig
	next time.Time
}

// Scheduler fires every enabled automated query config exactly once per
// daily occurrence of its trigger time. One loop ticks on a fixed short
// interval over an in-memory table of next-fire instants; it only decides
// to fire and hands off, never blocking on ingestion.
type Scheduler struct {
	repo     storage.Repository
	runner   Runner
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger

	mu      sync.Mutex
	entries map[uint]entry
}

// New creates a new scheduler. Interval defaults to one second, which is
// plenty of resolution for minute-granularity triggers.
func New(repo storage.Repository, runner Runner, interval time.Duration, log *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{
		repo:     repo,
		runner:   runner,
		interval: interval,
		now:      time.Now,
		log:      log.WithComponent("scheduler"),
		entries:  make(map[uint]entry),
	}
}

// Load populates the fire table from the enabled automated configs
func (s *Scheduler) Load(ctx context.Context) error {
	automated, enabled := true, true
	configs, err := s.repo.ListQueryConfigs(ctx, storage.QueryFilter{
		Automated: &automated,
		Enabled:   &enabled,
	})
	if err != nil {
		return err
	}

	for _, cfg := range configs {
		s.SetConfig(cfg)
	}

	s.log.Info().Int("configs", len(configs)).Msg("Schedule table loaded")
	return nil
}

// SetConfig adds or refreshes one config. A disabled config is removed;
// an edited one gets its next-fire instant recomputed from the current
// time rather than carrying over a stale one. Malformed trigger times
// fall back to midnight.
func (s *Scheduler) SetConfig(cfg *models.QueryConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !cfg.Schedulable() {
		delete(s.entries, cfg.ID)
		return
	}

	clock, err := cfg.Schedule.Trigger()
	if err != nil {
		s.log.Warn().
			Uint("query_id", cfg.ID).
			Str("time", cfg.Schedule.Time).
			Err(err).
			Msg("Malformed schedule time, falling back to 00:00")
		clock = models.Clock{}
	}

	next := clock.NextAfter(s.now())
	s.entries[cfg.ID] = entry{cfg: cfg, next: next}

	s.log.Debug().
		Uint("query_id", cfg.ID).
		Time("next_fire", next).
		Msg("Next fire computed")
}

// RemoveConfig drops one config from consideration
func (s *Scheduler) RemoveConfig(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// NextFire reports the computed next-fire instant for one config
func (s *Scheduler) NextFire(id uint) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	en, ok := s.entries[id]
	return en.next, ok
}

// Start runs the tick loop until the context is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("Scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick fires every due config and immediately advances its next-fire
// instant to the following occurrence, so a config cannot fire twice
// for the same one.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []*models.QueryConfig
	for id, en := range s.entries {
		if now.Before(en.next) {
			continue
		}
		due = append(due, en.cfg)

		clock, err := en.cfg.Schedule.Trigger()
		if err != nil {
			clock = models.Clock{}
		}
		s.entries[id] = entry{cfg: en.cfg, next: clock.NextAfter(now)}
	}
	s.mu.Unlock()

	for _, cfg := range due {
		go s.fire(ctx, cfg, now)
	}
}

// fire runs the executor for one due config and writes the execution
// bookkeeping. A skip-if-busy does no bookkeeping; a completed attempt
// (success, partial, or aborted run) does.
func (s *Scheduler) fire(ctx context.Context, cfg *models.QueryConfig, firedAt time.Time) {
	log := s.log.WithQueryID(cfg.ID)
	log.Info().Str("query", cfg.Query).Msg("Firing scheduled run")

	result, err := s.runner.Run(ctx, cfg, ingest.Hooks{})
	if errors.Is(err, ingest.ErrRunInFlight) {
		log.Warn().Msg("Previous run still in flight, skipping this occurrence")
		return
	}

	s.mu.Lock()
	cfg.Schedule.ExecutionCount++
	ranAt := firedAt
	cfg.Schedule.LastRunAt = &ranAt
	s.mu.Unlock()

	if uerr := s.repo.UpdateQueryConfig(ctx, cfg); uerr != nil {
		log.Error().Err(uerr).Msg("Failed to persist execution bookkeeping")
	}

	if err != nil {
		// The next occurrence stays scheduled; a failed run never
		// disables the config
		log.Error().Err(err).Msg("Scheduled run failed")
		return
	}

	log.Info().
		Int("created", result.ArticlesCreated).
		Int("duplicates", result.DuplicatesSkipped).
		Int("failures", result.Failures).
		Msg("Scheduled run completed")
}
