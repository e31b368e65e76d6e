package queue

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ternarybob/vigil/internal/models"
)

func stalledEvent(jobID, url string) models.QueueEvent {
	return models.QueueEvent{
		Type:      models.QueueEventStalled,
		JobID:     jobID,
		URL:       url,
		Timestamp: time.Now(),
	}
}

const (
	sweepTimeout      = 30 * time.Second
	retentionInterval = 5 * time.Minute
)

// runSweeper drives the periodic maintenance loops: delayed-job promotion
// and stalled-lease recovery on the stalled-check interval, retention on a
// coarser one.
func (m *Manager) runSweeper() {
	defer close(m.done)

	stalledTicker := time.NewTicker(m.opts.StalledCheckInterval)
	defer stalledTicker.Stop()
	retentionTicker := time.NewTicker(retentionInterval)
	defer retentionTicker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-stalledTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			if err := m.promoteDelayed(ctx); err != nil {
				m.logger.Warn().Err(err).Msg("Delayed-job promotion failed")
			}
			if err := m.recoverStalled(ctx); err != nil {
				m.logger.Warn().Err(err).Msg("Stalled-job recovery failed")
			}
			cancel()
		case <-retentionTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			if err := m.applyRetention(ctx); err != nil {
				m.logger.Warn().Err(err).Msg("Queue retention sweep failed")
			}
			cancel()
		}
	}
}

// promoteDelayed moves due jobs from the delayed set to the ready set
func (m *Manager) promoteDelayed(ctx context.Context) error {
	now := time.Now()
	due, err := m.client.ZRangeByScore(ctx, m.keyDelayed(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return err
	}

	for _, jobID := range due {
		priority := 0
		if p, err := m.client.HGet(ctx, m.keyJob(jobID), "priority").Int(); err == nil {
			priority = p
		}
		pipe := m.client.TxPipeline()
		pipe.ZRem(ctx, m.keyDelayed(), jobID)
		pipe.ZAdd(ctx, m.keyReady(), redis.Z{
			Score:  readyScore(priority, now),
			Member: jobID,
		})
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// recoverStalled returns jobs with a lapsed lease to the ready set.
// Recovery does not consume an attempt; the counter only moves on
// delivery.
func (m *Manager) recoverStalled(ctx context.Context) error {
	active, err := m.client.SMembers(ctx, m.keyActive()).Result()
	if err != nil {
		return err
	}

	for _, jobID := range active {
		held, err := m.client.Exists(ctx, m.keyLease(jobID)).Result()
		if err != nil {
			return err
		}
		if held > 0 {
			continue
		}

		// Lease lapsed; attempt counter was bumped at delivery, so undo it
		// before the job goes back to ready.
		priority := 0
		if p, err := m.client.HGet(ctx, m.keyJob(jobID), "priority").Int(); err == nil {
			priority = p
		}
		url, _ := m.client.HGet(ctx, m.keyJob(jobID), "url").Result()

		pipe := m.client.TxPipeline()
		pipe.SRem(ctx, m.keyActive(), jobID)
		pipe.HIncrBy(ctx, m.keyJob(jobID), "attempt", -1)
		pipe.ZAdd(ctx, m.keyReady(), redis.Z{
			Score:  readyScore(priority, time.Now()),
			Member: jobID,
		})
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}

		m.logger.Warn().Str("job_id", jobID).Msg("Recovered stalled job")
		m.emit(stalledEvent(jobID, url))
	}
	return nil
}

// applyRetention prunes settled jobs: completed by age and count, failed
// by age. Dead-letter records are kept; only the bookkeeping entries and
// job records are reaped.
func (m *Manager) applyRetention(ctx context.Context) error {
	now := time.Now()

	completedCutoff := strconv.FormatInt(now.Add(-m.opts.CompletedRetention).UnixMilli(), 10)
	aged, err := m.client.ZRangeByScore(ctx, m.keyCompleted(), &redis.ZRangeBy{Min: "-inf", Max: completedCutoff}).Result()
	if err != nil {
		return err
	}
	if err := m.reap(ctx, m.keyCompleted(), aged); err != nil {
		return err
	}

	if m.opts.CompletedKeep > 0 {
		count, err := m.client.ZCard(ctx, m.keyCompleted()).Result()
		if err != nil {
			return err
		}
		if overflow := count - int64(m.opts.CompletedKeep); overflow > 0 {
			oldest, err := m.client.ZRange(ctx, m.keyCompleted(), 0, overflow-1).Result()
			if err != nil {
				return err
			}
			if err := m.reap(ctx, m.keyCompleted(), oldest); err != nil {
				return err
			}
		}
	}

	failedCutoff := strconv.FormatInt(now.Add(-m.opts.FailedRetention).UnixMilli(), 10)
	agedFailed, err := m.client.ZRangeByScore(ctx, m.keyFailed(), &redis.ZRangeBy{Min: "-inf", Max: failedCutoff}).Result()
	if err != nil {
		return err
	}
	return m.reap(ctx, m.keyFailed(), agedFailed)
}

// reap removes settled entries and their job records
func (m *Manager) reap(ctx context.Context, setKey string, jobIDs []string) error {
	if len(jobIDs) == 0 {
		return nil
	}
	pipe := m.client.TxPipeline()
	for _, jobID := range jobIDs {
		pipe.ZRem(ctx, setKey, jobID)
		pipe.Del(ctx, m.keyJob(jobID))
	}
	_, err := pipe.Exec(ctx)
	return err
}
