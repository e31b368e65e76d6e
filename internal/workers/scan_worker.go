package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// process executes one leased queue job end to end
func (p *Pool) process(ctx context.Context, workerID int, job *interfaces.QueueJob) {
	jobID := job.Payload.JobID
	logger := p.logger

	record, err := p.storage.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			// Deleted while queued; the payload is a no-op success
			logger.Info().Int("worker", workerID).Str("job_id", jobID).Msg("Job deleted before pickup, skipping")
			p.settleComplete(ctx, jobID)
			return
		}
		logger.Error().Int("worker", workerID).Str("job_id", jobID).Err(err).Msg("Job lookup failed")
		p.handleFailure(ctx, job, time.Now(), fmt.Sprintf("job lookup failed: %v", err))
		return
	}

	switch record.Status {
	case models.JobStatusPending:
		if err := p.storage.Transition(ctx, jobID, models.JobStatusPending, models.JobStatusRunning, nil); err != nil {
			logger.Error().Int("worker", workerID).Str("job_id", jobID).Err(err).Msg("Failed to mark job running")
			p.handleFailure(ctx, job, time.Now(), fmt.Sprintf("failed to mark job running: %v", err))
			return
		}
	case models.JobStatusRunning:
		// Redelivery after a stalled lease; resume
		logger.Warn().Int("worker", workerID).Str("job_id", jobID).Msg("Resuming job after stalled lease")
	default:
		// Already terminal; nothing to do
		p.settleComplete(ctx, jobID)
		return
	}

	p.collector.IncStarted()
	start := time.Now()
	logger.Info().Int("worker", workerID).Str("job_id", jobID).Str("url", job.Payload.URL).Int("attempt", job.Attempt).Msg("Scan started")

	stopRenewal := p.startLeaseRenewal(ctx, jobID)
	defer stopRenewal()

	crawl, err := p.crawler.Crawl(ctx, job.Payload.URL)
	if err != nil {
		p.handleFailure(ctx, job, start, fmt.Sprintf("crawl failed: %v", err))
		return
	}

	report, err := p.analyzer.Analyze(ctx, crawl)
	if err != nil {
		p.handleFailure(ctx, job, start, fmt.Sprintf("analysis failed: %v", err))
		return
	}

	result, err := resultFromReport(report)
	if err != nil {
		p.handleFailure(ctx, job, start, fmt.Sprintf("result encoding failed: %v", err))
		return
	}

	if err := p.storage.CompleteWithResult(ctx, jobID, result); err != nil {
		if errors.Is(err, interfaces.ErrInvalidTransition) {
			// Another delivery already settled the job
			logger.Warn().Int("worker", workerID).Str("job_id", jobID).Msg("Job already settled, skipping result write")
			p.settleComplete(ctx, jobID)
			return
		}
		p.handleFailure(ctx, job, start, fmt.Sprintf("result persistence failed: %v", err))
		return
	}

	p.settleComplete(ctx, jobID)
	duration := time.Since(start)
	p.collector.IncSucceeded()
	p.collector.ObserveJobDuration(duration)
	logger.Info().Int("worker", workerID).Str("job_id", jobID).Str("duration", duration.String()).Int("score", report.Score).Msg("Scan succeeded")
}

// handleFailure routes a failed delivery to retry or the DLQ
func (p *Pool) handleFailure(ctx context.Context, job *interfaces.QueueJob, start time.Time, message string) {
	jobID := job.Payload.JobID
	duration := time.Since(start)

	if job.Attempt < p.queue.MaxAttempts() {
		p.logger.Warn().Str("job_id", jobID).Int("attempt", job.Attempt).Str("error", message).Msg("Scan failed, releasing for retry")
		if err := p.queue.Retry(ctx, job); err != nil {
			p.logger.Error().Str("job_id", jobID).Err(err).Msg("Retry release failed")
		}
		return
	}

	p.logger.Error().Str("job_id", jobID).Int("attempt", job.Attempt).Str("error", message).Msg("Scan failed permanently")
	p.fail(ctx, job, message)
	p.collector.IncFailed()
	p.collector.ObserveJobDuration(duration)
}

// fail records the job FAILED and duplicates it to the DLQ
func (p *Pool) fail(ctx context.Context, job *interfaces.QueueJob, message string) {
	jobID := job.Payload.JobID

	rec := models.DeadLetterRecord{
		OriginalJobID: jobID,
		JobID:         jobID,
		URL:           job.Payload.URL,
		Error:         models.TruncateError(message),
		Attempts:      job.Attempt,
		FailedAt:      time.Now(),
	}
	if err := p.queue.DeadLetter(ctx, rec); err != nil {
		p.logger.Error().Str("job_id", jobID).Err(err).Msg("Dead-letter placement failed")
	}

	msg := models.TruncateError(message)
	if err := p.storage.Transition(ctx, jobID, models.JobStatusRunning, models.JobStatusFailed, &msg); err != nil {
		if !errors.Is(err, interfaces.ErrJobNotFound) && !errors.Is(err, interfaces.ErrInvalidTransition) {
			p.logger.Error().Str("job_id", jobID).Err(err).Msg("Failed to mark job FAILED")
		}
	}
}

// settleComplete settles the queue entry; errors are logged, not fatal
func (p *Pool) settleComplete(ctx context.Context, jobID string) {
	if err := p.queue.Complete(ctx, jobID); err != nil {
		p.logger.Error().Str("job_id", jobID).Err(err).Msg("Queue completion failed")
	}
}

// startLeaseRenewal keeps the queue lease alive while the job runs.
// The renew interval must stay well under half the lock duration.
func (p *Pool) startLeaseRenewal(ctx context.Context, jobID string) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(p.leaseRenewInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.queue.RenewLease(ctx, jobID); err != nil {
					p.logger.Warn().Str("job_id", jobID).Err(err).Msg("Lease renewal failed")
				}
			}
		}
	}()
	return func() { close(done) }
}

// resultFromReport flattens the analysis report into the persisted result
func resultFromReport(report *models.AnalysisReport) (*models.ScanResult, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	return &models.ScanResult{
		Score:               report.Score,
		RiskLevel:           report.RiskLevel,
		Summary:             report.Summary,
		TrackerCount:        report.TrackerCount,
		CookieCount:         report.CookieCount,
		ExternalDomainCount: report.ExternalDomainCount,
		PagesCrawled:        report.PagesCrawled,
		IsHTTPS:             report.IsHTTPS,
		HasCSP:              report.HasCSP,
		CanvasFingerprint:   report.CanvasFingerprint,
		WebGLFingerprint:    report.WebGLFingerprint,
		FontFingerprint:     report.FontFingerprint,
		Keylogger:           report.Keylogger,
		RawData:             raw,
	}, nil
}
