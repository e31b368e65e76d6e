package models

import (
	"time"
)

// ScanPayload is the opaque queue payload for one scan job.
// JobID equals the ScanJob identifier so queue entries remain traceable
// back to the job store.
type ScanPayload struct {
	JobID string `json:"jobId"`
	URL   string `json:"url"`
}

// DeadLetterRecord preserves a job that exhausted its attempts
type DeadLetterRecord struct {
	OriginalJobID string    `json:"originalJobId"`
	JobID         string    `json:"jobId"`
	URL           string    `json:"url"`
	Error         string    `json:"error"`
	Attempts      int       `json:"attempts"`
	FailedAt      time.Time `json:"failedAt"`
}

// QueueEventType identifies a queue lifecycle event
type QueueEventType string

const (
	QueueEventCompleted QueueEventType = "completed"
	QueueEventFailed    QueueEventType = "failed"
	QueueEventStalled   QueueEventType = "stalled"
)

// QueueEvent is published for observability; it is not flow control
type QueueEvent struct {
	Type      QueueEventType `json:"type"`
	JobID     string         `json:"jobId"`
	URL       string         `json:"url,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// QueueDepth reports per-state queue sizes for health/metrics
type QueueDepth struct {
	Waiting      int64 `json:"waiting"`
	Active       int64 `json:"active"`
	Completed    int64 `json:"completed"`
	Failed       int64 `json:"failed"`
	Delayed      int64 `json:"delayed"`
	DeadLettered int64 `json:"dlq"`
}
