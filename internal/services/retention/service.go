package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
)

// pruneTimeout bounds one sweep against the database
const pruneTimeout = time.Minute

// Service prunes terminal scan jobs past the configured age on a cron
// schedule. The queue sweeper bounds Redis; this bounds the jobs table, so
// the history API stays fast without a manual cleanup task.
type Service struct {
	storage interfaces.JobStorage
	maxAge  time.Duration
	cron    *cron.Cron
	logger  arbor.ILogger
}

// NewService creates the retention service
func NewService(storage interfaces.JobStorage, maxAge time.Duration, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		maxAge:  maxAge,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start registers the sweep on the given cron schedule and begins running.
// A non-positive max age disables retention entirely.
func (s *Service) Start(schedule string) error {
	if s.maxAge <= 0 {
		s.logger.Info().Msg("Job retention disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, s.prune); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	s.cron.Start()

	s.logger.Info().
		Str("schedule", schedule).
		Dur("max_age", s.maxAge).
		Msg("Job retention started")
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Service) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	cutoff := time.Now().Add(-s.maxAge)
	removed, err := s.storage.PruneJobs(ctx, cutoff)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Job retention sweep failed")
		return
	}
	if removed > 0 {
		s.logger.Debug().Int64("removed", removed).Msg("Job retention sweep complete")
	}
}
