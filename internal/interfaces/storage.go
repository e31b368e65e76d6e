package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/vigil/internal/models"
)

var (
	// ErrJobNotFound is returned when a job id has no row
	ErrJobNotFound = errors.New("scan job not found")
	// ErrJobRunning is returned when deletion is refused for a RUNNING job
	ErrJobRunning = errors.New("scan job is running and cannot be deleted")
	// ErrInvalidTransition is returned when a guarded status update matches no row
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// JobStorage is the durable record of job lifecycle and final results.
// Multi-step mutations (completion + result creation, failure + error) are
// transactional; partial writes are rejected.
type JobStorage interface {
	// CreateJob inserts a new PENDING job for the canonical URL
	CreateJob(ctx context.Context, targetURL string, userID *string) (*models.ScanJob, error)

	// GetJob returns a job by id, or ErrJobNotFound
	GetJob(ctx context.Context, id string) (*models.ScanJob, error)

	// GetResult returns the result for a SUCCESS job, or ErrJobNotFound
	GetResult(ctx context.Context, jobID string) (*models.ScanResult, error)

	// Transition moves a job from one status to another. The from-status is
	// part of the WHERE clause, so out-of-state updates return
	// ErrInvalidTransition instead of clobbering concurrent writers.
	// startedAt is set when to==RUNNING; completedAt when to is terminal;
	// errorMessage is persisted (truncated) when to==FAILED.
	Transition(ctx context.Context, id string, from, to models.JobStatus, errorMessage *string) error

	// CompleteWithResult atomically creates the result row and moves the job
	// RUNNING -> SUCCESS in a single transaction.
	CompleteWithResult(ctx context.Context, jobID string, result *models.ScanResult) error

	// FindRecentSuccess returns the newest SUCCESS job for the URL completed
	// at or after since, or nil when none exists.
	FindRecentSuccess(ctx context.Context, targetURL string, since time.Time) (*models.ScanJob, error)

	// FindActive returns a PENDING or RUNNING job for the URL, or nil
	FindActive(ctx context.Context, targetURL string) (*models.ScanJob, error)

	// ListJobs returns one page of jobs plus the unpaginated total
	ListJobs(ctx context.Context, filter models.JobFilter) ([]*models.ScanJob, int, error)

	// DeleteJob removes a job unless it is RUNNING (ErrJobRunning)
	DeleteJob(ctx context.Context, id string) error

	// PruneJobs removes non-RUNNING jobs created before the cutoff and
	// returns the number of rows deleted. Results cascade with their jobs.
	PruneJobs(ctx context.Context, olderThan time.Time) (int64, error)

	// Ping verifies database liveness with a lightweight query
	Ping(ctx context.Context) error

	Close() error
}
