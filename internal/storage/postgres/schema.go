package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema statements are idempotent so startup can always apply them
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS scan_jobs (
		id            UUID PRIMARY KEY,
		user_id       TEXT,
		target_url    TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'PENDING',
		error_message TEXT,
		started_at    TIMESTAMPTZ,
		completed_at  TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_jobs_target_url ON scan_jobs (target_url)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_jobs_status ON scan_jobs (status)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_jobs_url_status_completed
		ON scan_jobs (target_url, status, completed_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_jobs_user_id ON scan_jobs (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_jobs_created_at ON scan_jobs (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_jobs_url_created
		ON scan_jobs (target_url, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS scan_results (
		id                    UUID PRIMARY KEY,
		scan_job_id           UUID NOT NULL UNIQUE REFERENCES scan_jobs (id) ON DELETE CASCADE,
		score                 INTEGER NOT NULL,
		risk_level            TEXT NOT NULL,
		summary               TEXT NOT NULL,
		tracker_count         INTEGER NOT NULL DEFAULT 0,
		cookie_count          INTEGER NOT NULL DEFAULT 0,
		external_domain_count INTEGER NOT NULL DEFAULT 0,
		pages_crawled         INTEGER NOT NULL DEFAULT 0,
		is_https              BOOLEAN NOT NULL DEFAULT false,
		has_csp               BOOLEAN NOT NULL DEFAULT false,
		canvas_fingerprint    BOOLEAN NOT NULL DEFAULT false,
		webgl_fingerprint     BOOLEAN NOT NULL DEFAULT false,
		font_fingerprint      BOOLEAN NOT NULL DEFAULT false,
		keylogger             BOOLEAN NOT NULL DEFAULT false,
		raw_data              JSONB NOT NULL,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_results_job_id ON scan_results (scan_job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_results_score ON scan_results (score)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_results_risk_level ON scan_results (risk_level)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_results_created_at ON scan_results (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_results_canvas_fp ON scan_results (canvas_fingerprint)`,
	`CREATE INDEX IF NOT EXISTS idx_scan_results_keylogger ON scan_results (keylogger)`,
}

// ApplySchema creates the scan tables and indexes if absent
func ApplySchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
