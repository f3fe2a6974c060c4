package models

import "time"

// Job statuses
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// TranscriptJob is the queue message requesting an asynchronous
// transcript extraction.
type TranscriptJob struct {
	ID         string    `json:"id"`
	VideoID    string    `json:"video_id"`
	Languages  []string  `json:"languages,omitempty"`
	Timestamps bool      `json:"timestamps"`
	TimeoutMs  int64     `json:"timeout_ms,omitempty"`
	RetryCount int       `json:"retry_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// JobResult is the queue message carrying the outcome of a processed
// transcript job.
type JobResult struct {
	JobID       string    `json:"job_id"`
	VideoID     string    `json:"video_id"`
	Success     bool      `json:"success"`
	Transcript  string    `json:"transcript,omitempty"`
	Language    string    `json:"language,omitempty"`
	Source      string    `json:"source,omitempty"`
	Error       string    `json:"error,omitempty"`
	ErrorType   string    `json:"error_type,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}
