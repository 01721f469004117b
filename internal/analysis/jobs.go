// Package analysis orchestrates transcript analysis: idempotent job
// submission on the API side, and the extract-persist-analyze pipeline on
// the worker side.
package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow/internal/models"
	"gorm.io/gorm"
)

// JobFilters holds optional filters for listing jobs.
type JobFilters struct {
	TranscriptID string
	Status       string
	JobType      string
}

// NewJobID builds a job ID in the analyze-<transcript>-<8hex> shape.
func NewJobID(jobType, transcriptID string) string {
	return fmt.Sprintf("%s-%s-%s", jobType, transcriptID, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// GetJob retrieves a job by ID.
func GetJob(db *gorm.DB, id string) (*models.Job, error) {
	var job models.Job
	if err := db.Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis: job not found: %s", id)
		}
		return nil, fmt.Errorf("analysis: get job %s: %w", id, err)
	}
	return &job, nil
}

// ListJobs returns jobs matching the given filters, newest first.
func ListJobs(db *gorm.DB, filters JobFilters) ([]models.Job, error) {
	q := db.Model(&models.Job{})

	if filters.TranscriptID != "" {
		q = q.Where("transcript_id = ?", filters.TranscriptID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.JobType != "" {
		q = q.Where("job_type = ?", filters.JobType)
	}

	var jobs []models.Job
	if err := q.Order("created_at DESC, id ASC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("analysis: list jobs: %w", err)
	}
	return jobs, nil
}
