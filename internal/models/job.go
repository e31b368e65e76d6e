package models

import (
	"time"
)

// JobStatus represents the state of a scan job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// IsTerminal reports whether the status is a final state
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

// MaxErrorMessageLength bounds the persisted error message on failed jobs.
const MaxErrorMessageLength = 1000

// ScanJob represents one privacy scan of a canonical target URL.
//
// Lifecycle: created PENDING at admission; RUNNING when a worker leases it;
// terminal SUCCESS or FAILED. A SUCCESS job has exactly one ScanResult.
// Status transitions are guarded in the store: out-of-state updates are
// rejected, which makes worker completion idempotent under redelivery.
type ScanJob struct {
	ID           string     `db:"id" json:"jobId"`
	UserID       *string    `db:"user_id" json:"userId,omitempty"`
	TargetURL    string     `db:"target_url" json:"targetUrl"`
	Status       JobStatus  `db:"status" json:"status"`
	ErrorMessage *string    `db:"error_message" json:"errorMessage,omitempty"`
	StartedAt    *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// TruncateError bounds an error message for persistence
func TruncateError(msg string) string {
	if len(msg) > MaxErrorMessageLength {
		return msg[:MaxErrorMessageLength]
	}
	return msg
}

// Pagination is the envelope returned by list operations
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPagination computes the pagination envelope for a page of results
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// JobFilter narrows list operations
type JobFilter struct {
	URL    string
	Status JobStatus
	Page   int
	Limit  int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Normalize applies list defaults and caps
func (f *JobFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
}
