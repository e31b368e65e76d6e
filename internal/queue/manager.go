package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// Options configure the queue manager
type Options struct {
	Name                 string
	Attempts             int
	BackoffBase          time.Duration
	LockDuration         time.Duration
	StalledCheckInterval time.Duration
	CompletedRetention   time.Duration
	CompletedKeep        int
	FailedRetention      time.Duration
}

const eventBufferSize = 64

// Manager is the Redis-backed work queue. Ready jobs live in a sorted set
// ordered by (priority, enqueue time); delayed jobs in a second sorted set
// scored by their visibility time; active jobs hold a TTL lease key that
// the stalled sweeper checks. Jobs exhausting their attempts land in a
// dead-letter list.
type Manager struct {
	client *redis.Client
	opts   Options
	logger arbor.ILogger

	events chan models.QueueEvent
	stop   chan struct{}
	done   chan struct{}
}

// NewManager creates the queue manager and starts its background sweeper
func NewManager(client *redis.Client, opts Options, logger arbor.ILogger) *Manager {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	m := &Manager{
		client: client,
		opts:   opts,
		logger: logger,
		events: make(chan models.QueueEvent, eventBufferSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go m.runSweeper()
	return m
}

func (m *Manager) prefix() string          { return "vigil:queue:" + m.opts.Name }
func (m *Manager) keyReady() string        { return m.prefix() + ":ready" }
func (m *Manager) keyDelayed() string      { return m.prefix() + ":delayed" }
func (m *Manager) keyActive() string       { return m.prefix() + ":active" }
func (m *Manager) keyCompleted() string    { return m.prefix() + ":completed" }
func (m *Manager) keyFailed() string       { return m.prefix() + ":failed" }
func (m *Manager) keyDLQ() string          { return m.prefix() + ":dlq" }
func (m *Manager) keyJob(id string) string { return m.prefix() + ":job:" + id }
func (m *Manager) keyLease(id string) string {
	return m.prefix() + ":lease:" + id
}

// readyScore orders the ready set: lower priority first, FIFO within a
// priority class.
func readyScore(priority int, t time.Time) float64 {
	return float64(priority)*1e13 + float64(t.UnixMilli())
}

// Enqueue adds a payload to the queue
func (m *Manager) Enqueue(ctx context.Context, payload models.ScanPayload, opts interfaces.EnqueueOptions) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := time.Now()
	pipe := m.client.TxPipeline()
	pipe.HSet(ctx, m.keyJob(payload.JobID), map[string]interface{}{
		"payload":  string(data),
		"url":      payload.URL,
		"attempt":  0,
		"priority": opts.Priority,
	})
	if opts.Delay > 0 {
		pipe.ZAdd(ctx, m.keyDelayed(), redis.Z{
			Score:  float64(now.Add(opts.Delay).UnixMilli()),
			Member: payload.JobID,
		})
	} else {
		pipe.ZAdd(ctx, m.keyReady(), redis.Z{
			Score:  readyScore(opts.Priority, now),
			Member: payload.JobID,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", payload.JobID, err)
	}
	return nil
}

// Dequeue leases the next ready job, or returns nil when the queue is
// empty. The attempt counter increments on every delivery, including
// redeliveries after retry.
func (m *Manager) Dequeue(ctx context.Context) (*interfaces.QueueJob, error) {
	if err := m.promoteDelayed(ctx); err != nil {
		return nil, err
	}

	// A popped id whose record was reaped by retention is skipped
	for i := 0; i < 8; i++ {
		popped, err := m.client.ZPopMin(ctx, m.keyReady(), 1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to pop ready job: %w", err)
		}
		if len(popped) == 0 {
			return nil, nil
		}
		jobID, _ := popped[0].Member.(string)

		record, err := m.client.HGetAll(ctx, m.keyJob(jobID)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
		}
		if len(record) == 0 {
			m.logger.Warn().Str("job_id", jobID).Msg("Dropping ready job with no record")
			continue
		}

		attempt, err := m.client.HIncrBy(ctx, m.keyJob(jobID), "attempt", 1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to bump attempt for job %s: %w", jobID, err)
		}

		pipe := m.client.TxPipeline()
		pipe.Set(ctx, m.keyLease(jobID), "1", m.opts.LockDuration)
		pipe.SAdd(ctx, m.keyActive(), jobID)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to lease job %s: %w", jobID, err)
		}

		var payload models.ScanPayload
		if err := json.Unmarshal([]byte(record["payload"]), &payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload for job %s: %w", jobID, err)
		}
		return &interfaces.QueueJob{Payload: payload, Attempt: int(attempt)}, nil
	}
	return nil, nil
}

// RenewLease extends the worker's claim on an active job
func (m *Manager) RenewLease(ctx context.Context, jobID string) error {
	renewed, err := m.client.Expire(ctx, m.keyLease(jobID), m.opts.LockDuration).Result()
	if err != nil {
		return fmt.Errorf("failed to renew lease for job %s: %w", jobID, err)
	}
	if !renewed {
		return fmt.Errorf("lease for job %s no longer held", jobID)
	}
	return nil
}

// Complete settles a job successfully and records it for retention
func (m *Manager) Complete(ctx context.Context, jobID string) error {
	url, _ := m.client.HGet(ctx, m.keyJob(jobID), "url").Result()

	pipe := m.client.TxPipeline()
	pipe.SRem(ctx, m.keyActive(), jobID)
	pipe.Del(ctx, m.keyLease(jobID))
	pipe.ZAdd(ctx, m.keyCompleted(), redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: jobID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}

	m.emit(models.QueueEvent{Type: models.QueueEventCompleted, JobID: jobID, URL: url, Timestamp: time.Now()})
	return nil
}

// Retry releases a failed job back to the queue with exponential backoff.
// The attempt counter lives in the job record, so it survives the
// round-trip through the delayed set.
func (m *Manager) Retry(ctx context.Context, job *interfaces.QueueJob) error {
	jobID := job.Payload.JobID
	delay := Backoff(m.opts.BackoffBase, job.Attempt)

	pipe := m.client.TxPipeline()
	pipe.SRem(ctx, m.keyActive(), jobID)
	pipe.Del(ctx, m.keyLease(jobID))
	pipe.ZAdd(ctx, m.keyDelayed(), redis.Z{
		Score:  float64(time.Now().Add(delay).UnixMilli()),
		Member: jobID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to retry job %s: %w", jobID, err)
	}

	m.logger.Info().Str("job_id", jobID).Int("attempt", job.Attempt).Str("delay", delay.String()).Msg("Job released for retry")
	return nil
}

// DeadLetter settles a job whose attempts are exhausted into the DLQ
func (m *Manager) DeadLetter(ctx context.Context, rec models.DeadLetterRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal dead-letter record: %w", err)
	}

	pipe := m.client.TxPipeline()
	pipe.SRem(ctx, m.keyActive(), rec.JobID)
	pipe.Del(ctx, m.keyLease(rec.JobID))
	pipe.LPush(ctx, m.keyDLQ(), data)
	pipe.ZAdd(ctx, m.keyFailed(), redis.Z{
		Score:  float64(rec.FailedAt.UnixMilli()),
		Member: rec.JobID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to dead-letter job %s: %w", rec.JobID, err)
	}

	m.emit(models.QueueEvent{Type: models.QueueEventFailed, JobID: rec.JobID, URL: rec.URL, Error: rec.Error, Timestamp: time.Now()})
	return nil
}

// MaxAttempts returns the configured delivery limit
func (m *Manager) MaxAttempts() int {
	return m.opts.Attempts
}

// Depth reports per-state queue sizes
func (m *Manager) Depth(ctx context.Context) (models.QueueDepth, error) {
	pipe := m.client.Pipeline()
	ready := pipe.ZCard(ctx, m.keyReady())
	active := pipe.SCard(ctx, m.keyActive())
	completed := pipe.ZCard(ctx, m.keyCompleted())
	failed := pipe.ZCard(ctx, m.keyFailed())
	delayed := pipe.ZCard(ctx, m.keyDelayed())
	dlq := pipe.LLen(ctx, m.keyDLQ())
	if _, err := pipe.Exec(ctx); err != nil {
		return models.QueueDepth{}, fmt.Errorf("failed to read queue depth: %w", err)
	}

	return models.QueueDepth{
		Waiting:      ready.Val(),
		Active:       active.Val(),
		Completed:    completed.Val(),
		Failed:       failed.Val(),
		Delayed:      delayed.Val(),
		DeadLettered: dlq.Val(),
	}, nil
}

// Events exposes queue lifecycle notifications
func (m *Manager) Events() <-chan models.QueueEvent {
	return m.events
}

// Ping verifies queue backing-store liveness
func (m *Manager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

// Close stops the sweeper and the event stream. The Redis client is shared
// with the dedup store and closed by the owner.
func (m *Manager) Close() error {
	close(m.stop)
	<-m.done
	close(m.events)
	return nil
}

// emit publishes an event without blocking; a full buffer drops
func (m *Manager) emit(event models.QueueEvent) {
	select {
	case m.events <- event:
	default:
		m.logger.Debug().Str("job_id", event.JobID).Msg("Dropping queue event, buffer full")
	}
}
