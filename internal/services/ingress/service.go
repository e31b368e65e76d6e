package ingress

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

const dedupKeyPrefix = "vigil:inflight:"

// enqueueFailureMessage is persisted on the job when queue placement fails
const enqueueFailureMessage = "Failed to enqueue scan job"

// Counters incremented during admission
type Counters interface {
	IncCached()
	IncSSRFBlocked()
	IncValidationErrors()
}

// Admission is the outcome of a successful submission. Cached admissions
// point at an existing SUCCESS job; coalesced admissions point at a
// PENDING or RUNNING job another submission already created.
type Admission struct {
	Job       *models.ScanJob
	Cached    bool
	Coalesced bool
	CachedAt  *time.Time
}

// Service runs the admission pipeline: validate, resolve, SSRF-guard,
// dedup, create, enqueue.
type Service struct {
	storage     interfaces.JobStorage
	queue       interfaces.QueueManager
	dedup       interfaces.DedupStore
	resolver    Resolver
	counters    Counters
	dedupWindow time.Duration
	logger      arbor.ILogger
}

// NewService creates the admission service
func NewService(storage interfaces.JobStorage, queue interfaces.QueueManager, dedup interfaces.DedupStore, resolver Resolver, counters Counters, dedupWindow time.Duration, logger arbor.ILogger) *Service {
	return &Service{
		storage:     storage,
		queue:       queue,
		dedup:       dedup,
		resolver:    resolver,
		counters:    counters,
		dedupWindow: dedupWindow,
		logger:      logger,
	}
}

// Submit admits a raw URL for scanning. Validation, resolution, and the
// SSRF guard run in order before any resource is allocated; the dedup
// coordinator then either serves a recent result, coalesces onto a live
// job, or creates and enqueues a new one.
func (s *Service) Submit(ctx context.Context, rawURL string, userID *string) (*Admission, error) {
	canonical, hostname, err := ValidateURL(rawURL)
	if err != nil {
		s.counters.IncValidationErrors()
		s.logger.Debug().Str("url", rawURL).Str("code", CodeOf(err)).Msg("Submission rejected by validator")
		return nil, err
	}

	addr, err := s.resolver.Resolve(ctx, hostname)
	if err != nil {
		s.counters.IncValidationErrors()
		s.logger.Debug().Str("hostname", hostname).Str("code", CodeOf(err)).Msg("Submission rejected by resolver")
		return nil, err
	}

	if err := GuardSSRF(hostname, addr); err != nil {
		s.counters.IncSSRFBlocked()
		s.logger.Warn().Str("hostname", hostname).Str("address", addr.String()).Str("code", CodeOf(err)).Msg("Submission blocked by SSRF guard")
		return nil, err
	}

	// DB-level cache: a SUCCESS within the window short-circuits admission
	since := time.Now().Add(-s.dedupWindow)
	if recent, err := s.storage.FindRecentSuccess(ctx, canonical, since); err != nil {
		return nil, NewError(CodeStorageUnavailable, "recent-success lookup failed: %v", err)
	} else if recent != nil {
		s.counters.IncCached()
		s.logger.Info().Str("url", canonical).Str("job_id", recent.ID).Msg("Serving cached scan result")
		return &Admission{Job: recent, Cached: true, CachedAt: recent.CompletedAt}, nil
	}

	// In-flight lock: losing the race means another admission owns the URL
	key := dedupKeyPrefix + canonical
	acquired, err := s.dedup.AcquireInFlight(ctx, key, s.dedupWindow)
	if err != nil {
		return nil, NewError(CodeStorageUnavailable, "in-flight lock failed: %v", err)
	}
	if !acquired {
		active, err := s.storage.FindActive(ctx, canonical)
		if err != nil {
			return nil, NewError(CodeStorageUnavailable, "active-job lookup failed: %v", err)
		}
		if active != nil {
			s.logger.Info().Str("url", canonical).Str("job_id", active.ID).Msg("Coalescing onto in-flight scan")
			return &Admission{Job: active, Coalesced: true}, nil
		}
		// Lock held but no visible job yet; fall through and enqueue
	}

	job, err := s.storage.CreateJob(ctx, canonical, userID)
	if err != nil {
		if relErr := s.dedup.ReleaseInFlight(ctx, key); relErr != nil {
			s.logger.Warn().Str("url", canonical).Err(relErr).Msg("Failed to release in-flight key after create failure")
		}
		return nil, NewError(CodeStorageUnavailable, "job creation failed: %v", err)
	}

	payload := models.ScanPayload{JobID: job.ID, URL: canonical}
	if err := s.queue.Enqueue(ctx, payload, interfaces.EnqueueOptions{}); err != nil {
		s.logger.Error().Str("job_id", job.ID).Err(err).Msg("Failed to enqueue scan job")
		msg := enqueueFailureMessage
		if trErr := s.storage.Transition(ctx, job.ID, models.JobStatusPending, models.JobStatusFailed, &msg); trErr != nil {
			s.logger.Error().Str("job_id", job.ID).Err(trErr).Msg("Failed to mark job FAILED after enqueue failure")
		}
		if relErr := s.dedup.ReleaseInFlight(ctx, key); relErr != nil {
			s.logger.Warn().Str("url", canonical).Err(relErr).Msg("Failed to release in-flight key after enqueue failure")
		}
		return nil, NewError(CodeEnqueueFailed, "queue placement failed: %v", err)
	}

	s.logger.Info().Str("job_id", job.ID).Str("url", canonical).Msg("Scan job enqueued")
	return &Admission{Job: job}, nil
}
