package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/vigil/internal/models"
)

// EnqueueOptions tune placement of a queued job
type EnqueueOptions struct {
	Priority int           // Lower value dequeues first within the ready set
	Delay    time.Duration // Defer visibility; used for retry backoff
}

// QueueJob is a leased queue entry held by exactly one worker until the
// lease lapses or the worker settles it.
type QueueJob struct {
	Payload models.ScanPayload
	Attempt int // 1-based delivery count
}

// QueueManager is the persistent at-least-once work queue. FIFO within a
// priority class; leases must be renewed strictly more often than half the
// lock duration or the stalled sweeper returns the job to the ready set
// without consuming an attempt.
type QueueManager interface {
	// Enqueue adds a payload to the queue; the payload's JobID doubles as
	// the queue job id for traceability.
	Enqueue(ctx context.Context, payload models.ScanPayload, opts EnqueueOptions) error

	// Dequeue leases the next ready job. Returns nil when the queue is empty.
	Dequeue(ctx context.Context) (*QueueJob, error)

	// RenewLease extends the worker's claim on an active job
	RenewLease(ctx context.Context, jobID string) error

	// Complete settles a job successfully and records it for retention
	Complete(ctx context.Context, jobID string) error

	// Retry releases a failed job back to the queue with exponential backoff.
	// The attempt counter is preserved and increments on redelivery.
	Retry(ctx context.Context, job *QueueJob) error

	// DeadLetter settles a job whose attempts are exhausted into the DLQ
	DeadLetter(ctx context.Context, rec models.DeadLetterRecord) error

	// MaxAttempts returns the configured delivery limit
	MaxAttempts() int

	// Depth reports per-state queue sizes
	Depth(ctx context.Context) (models.QueueDepth, error)

	// Events exposes {completed, failed, stalled} lifecycle notifications.
	// Observability only; consumers must not use this for flow control.
	Events() <-chan models.QueueEvent

	// Ping verifies queue backing-store liveness
	Ping(ctx context.Context) error

	Close() error
}

// DedupStore provides the atomic set-if-absent primitive backing the
// in-flight dedup lock. Referenced by interface so the backing store can
// be swapped in tests.
type DedupStore interface {
	// AcquireInFlight atomically sets the key with a TTL if absent.
	// Returns false when another admission holds the key.
	AcquireInFlight(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// ReleaseInFlight deletes the key
	ReleaseInFlight(ctx context.Context, key string) error
}
