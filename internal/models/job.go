package models

import "time"

// Job statuses.
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// Job types.
const (
	JobAnalyze = "analyze"
	JobExport  = "export"
)

// Job tracks one asynchronous analysis or export run. The unique index on
// IdempotencyKey is what makes duplicate submissions collapse onto a single
// run: the second inserter hits the constraint and adopts the winner's row.
type Job struct {
	ID             string `gorm:"primaryKey;size:100"`
	TranscriptID   string `gorm:"size:36;not null;index"`
	JobType        string `gorm:"size:16;default:analyze"`
	Status         string `gorm:"size:16;default:queued;index"`
	IdempotencyKey string `gorm:"size:100;not null;uniqueIndex"`
	Progress       int    `gorm:"default:0"`
	// Result holds the diagnostics payload as JSON.
	Result       string `gorm:"type:text"`
	ErrorMessage string `gorm:"type:text"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

// Finished reports whether the job reached a terminal status.
func (j *Job) Finished() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
