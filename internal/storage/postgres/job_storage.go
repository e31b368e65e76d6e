package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

const jobColumns = `id, user_id, target_url, status, error_message, started_at, completed_at, created_at, updated_at`

// JobStorage is the sqlx-backed implementation of interfaces.JobStorage
type JobStorage struct {
	db     *sqlx.DB
	logger arbor.ILogger
}

// NewJobStorage creates the store and applies the schema
func NewJobStorage(ctx context.Context, db *sqlx.DB, logger arbor.ILogger) (*JobStorage, error) {
	if err := ApplySchema(ctx, db); err != nil {
		return nil, err
	}
	return &JobStorage{db: db, logger: logger}, nil
}

// CreateJob inserts a new PENDING job for the canonical URL
func (s *JobStorage) CreateJob(ctx context.Context, targetURL string, userID *string) (*models.ScanJob, error) {
	job := &models.ScanJob{
		ID:        uuid.New().String(),
		UserID:    userID,
		TargetURL: targetURL,
		Status:    models.JobStatusPending,
	}

	query := `
		INSERT INTO scan_jobs (id, user_id, target_url, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, job.ID, job.UserID, job.TargetURL, job.Status).
		Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan job: %w", err)
	}

	return job, nil
}

// GetJob returns a job by id
func (s *JobStorage) GetJob(ctx context.Context, id string) (*models.ScanJob, error) {
	var job models.ScanJob
	query := `SELECT ` + jobColumns + ` FROM scan_jobs WHERE id = $1`

	if err := s.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interfaces.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get scan job: %w", err)
	}
	return &job, nil
}

// GetResult returns the result row for a completed job
func (s *JobStorage) GetResult(ctx context.Context, jobID string) (*models.ScanResult, error) {
	var result models.ScanResult
	query := `
		SELECT id, scan_job_id, score, risk_level, summary,
		       tracker_count, cookie_count, external_domain_count, pages_crawled,
		       is_https, has_csp, canvas_fingerprint, webgl_fingerprint,
		       font_fingerprint, keylogger, raw_data, created_at, updated_at
		FROM scan_results
		WHERE scan_job_id = $1
	`

	if err := s.db.GetContext(ctx, &result, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interfaces.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get scan result: %w", err)
	}
	return &result, nil
}

// Transition moves a job between statuses. The from-status is part of the
// WHERE clause so a stale writer matches zero rows instead of clobbering a
// concurrent update.
func (s *JobStorage) Transition(ctx context.Context, id string, from, to models.JobStatus, errorMessage *string) error {
	res, err := s.db.ExecContext(ctx, transitionQuery(to), transitionArgs(id, from, to, errorMessage)...)
	if err != nil {
		return fmt.Errorf("failed to transition scan job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read transition result: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing row from an out-of-state one
		if _, getErr := s.GetJob(ctx, id); getErr != nil {
			return getErr
		}
		return interfaces.ErrInvalidTransition
	}
	return nil
}

func transitionQuery(to models.JobStatus) string {
	switch {
	case to == models.JobStatusRunning:
		return `UPDATE scan_jobs
			SET status = $3, started_at = now(), updated_at = now()
			WHERE id = $1 AND status = $2`
	case to.IsTerminal():
		return `UPDATE scan_jobs
			SET status = $3, error_message = $4, completed_at = now(), updated_at = now()
			WHERE id = $1 AND status = $2`
	default:
		return `UPDATE scan_jobs
			SET status = $3, updated_at = now()
			WHERE id = $1 AND status = $2`
	}
}

func transitionArgs(id string, from, to models.JobStatus, errorMessage *string) []interface{} {
	if !to.IsTerminal() {
		return []interface{}{id, from, to}
	}
	var msg *string
	if errorMessage != nil {
		truncated := models.TruncateError(*errorMessage)
		msg = &truncated
	}
	return []interface{}{id, from, to, msg}
}

// CompleteWithResult creates the result row and moves the job
// RUNNING -> SUCCESS in one transaction. Partial writes roll back.
func (s *JobStorage) CompleteWithResult(ctx context.Context, jobID string, result *models.ScanResult) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin completion transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE scan_jobs
		SET status = $2, completed_at = now(), updated_at = now()
		WHERE id = $1 AND status = $3
	`, jobID, models.JobStatusSuccess, models.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to complete scan job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read completion result: %w", err)
	}
	if affected == 0 {
		return interfaces.ErrInvalidTransition
	}

	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	result.ScanJobID = jobID

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scan_results (
			id, scan_job_id, score, risk_level, summary,
			tracker_count, cookie_count, external_domain_count, pages_crawled,
			is_https, has_csp, canvas_fingerprint, webgl_fingerprint,
			font_fingerprint, keylogger, raw_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		result.ID, result.ScanJobID, result.Score, result.RiskLevel, result.Summary,
		result.TrackerCount, result.CookieCount, result.ExternalDomainCount, result.PagesCrawled,
		result.IsHTTPS, result.HasCSP, result.CanvasFingerprint, result.WebGLFingerprint,
		result.FontFingerprint, result.Keylogger, result.RawData,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}
	return nil
}

// FindRecentSuccess returns the newest SUCCESS job for the URL completed at
// or after since, or nil
func (s *JobStorage) FindRecentSuccess(ctx context.Context, targetURL string, since time.Time) (*models.ScanJob, error) {
	var job models.ScanJob
	query := `
		SELECT ` + jobColumns + `
		FROM scan_jobs
		WHERE target_url = $1 AND status = $2 AND completed_at >= $3
		ORDER BY completed_at DESC
		LIMIT 1
	`

	err := s.db.GetContext(ctx, &job, query, targetURL, models.JobStatusSuccess, since)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recent success: %w", err)
	}
	return &job, nil
}

// FindActive returns a PENDING or RUNNING job for the URL, or nil
func (s *JobStorage) FindActive(ctx context.Context, targetURL string) (*models.ScanJob, error) {
	var job models.ScanJob
	query := `
		SELECT ` + jobColumns + `
		FROM scan_jobs
		WHERE target_url = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := s.db.GetContext(ctx, &job, query, targetURL, models.JobStatusPending, models.JobStatusRunning)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active job: %w", err)
	}
	return &job, nil
}

// ListJobs returns one page of jobs plus the unpaginated total
func (s *JobStorage) ListJobs(ctx context.Context, filter models.JobFilter) ([]*models.ScanJob, int, error) {
	filter.Normalize()

	var conditions []string
	var args []interface{}
	if filter.URL != "" {
		args = append(args, filter.URL)
		conditions = append(conditions, fmt.Sprintf("target_url = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM scan_jobs`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count scan jobs: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM scan_jobs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		jobColumns, where, len(args)-1, len(args))

	jobs := []*models.ScanJob{}
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list scan jobs: %w", err)
	}
	return jobs, total, nil
}

// DeleteJob removes a job unless it is RUNNING. Results cascade.
func (s *JobStorage) DeleteJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM scan_jobs WHERE id = $1 AND status <> $2
	`, id, models.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to delete scan job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		job, getErr := s.GetJob(ctx, id)
		if getErr != nil {
			return getErr
		}
		if job.Status == models.JobStatusRunning {
			return interfaces.ErrJobRunning
		}
		return interfaces.ErrJobNotFound
	}

	s.logger.Debug().Str("job_id", id).Msg("Deleted scan job")
	return nil
}

// PruneJobs removes terminal and stale PENDING jobs created before the
// cutoff. RUNNING jobs are always kept; their workers still hold them.
func (s *JobStorage) PruneJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM scan_jobs WHERE created_at < $1 AND status <> $2
	`, olderThan, models.JobStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to prune scan jobs: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read prune result: %w", err)
	}
	if affected > 0 {
		s.logger.Info().Int64("removed", affected).Str("cutoff", olderThan.Format(time.RFC3339)).Msg("Pruned old scan jobs")
	}
	return affected, nil
}

// Ping verifies database liveness
func (s *JobStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool
func (s *JobStorage) Close() error {
	return s.db.Close()
}
