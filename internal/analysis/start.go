package analysis

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow/internal/db"
	"github.com/taskflow/taskflow/internal/models"
	"gorm.io/gorm"
)

// StartResult reports the job a submission resolved to.
type StartResult struct {
	JobID      string `json:"job_id"`
	IsExisting bool   `json:"is_existing"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Message    string `json:"message,omitempty"`
}

// Start submits an analysis job with idempotency-key semantics:
//
//   - no job under the key: create a queued job
//   - existing job queued or processing: return it, never a second run
//   - existing job finished, force false: return it unchanged
//   - existing job finished, force true: delete the transcript's tasks,
//     dependencies, cached graph and the old job, then queue a fresh run
//
// Two concurrent submissions under the same key race on the unique index;
// the loser re-reads and adopts the winner's job.
func Start(gdb *gorm.DB, transcriptID, idempotencyKey string, force bool) (*StartResult, error) {
	if idempotencyKey == "" {
		return nil, fmt.Errorf("analysis: idempotency key is required")
	}

	var tcount int64
	if err := gdb.Model(&models.Transcript{}).Where("id = ?", transcriptID).Count(&tcount).Error; err != nil {
		return nil, fmt.Errorf("analysis: check transcript %s: %w", transcriptID, err)
	}
	if tcount == 0 {
		return nil, fmt.Errorf("analysis: transcript not found: %s", transcriptID)
	}

	var res *StartResult
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var existing models.Job
		err := tx.Where("idempotency_key = ?", idempotencyKey).First(&existing).Error
		switch {
		case err == nil:
			if !existing.Finished() {
				res = existingResult(&existing, "Analysis already in progress")
				return nil
			}
			if !force {
				res = existingResult(&existing, "Analysis already completed. Use force=true to re-analyze.")
				return nil
			}
			if err := clearTranscriptArtifacts(tx, transcriptID); err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("analysis: delete job %s: %w", existing.ID, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// fall through to create
		default:
			return fmt.Errorf("analysis: check idempotency key: %w", err)
		}

		job := models.Job{
			ID:             NewJobID(models.JobAnalyze, transcriptID),
			TranscriptID:   transcriptID,
			JobType:        models.JobAnalyze,
			Status:         models.JobQueued,
			IdempotencyKey: idempotencyKey,
		}
		if err := tx.Create(&job).Error; err != nil {
			return fmt.Errorf("analysis: create job: %w", err)
		}
		res = &StartResult{JobID: job.ID, Status: job.Status, Message: "Analysis job started"}
		return nil
	})
	if err != nil {
		// Concurrent submission with the same key: adopt the winner.
		if db.IsDuplicateEntry(err) {
			var winner models.Job
			if rerr := gdb.Where("idempotency_key = ?", idempotencyKey).First(&winner).Error; rerr == nil {
				return existingResult(&winner, "Analysis already in progress"), nil
			}
		}
		return nil, err
	}
	return res, nil
}

// Retry queues a fresh analysis run for a transcript under a new
// idempotency key, leaving prior jobs in place.
func Retry(gdb *gorm.DB, transcriptID string) (*StartResult, error) {
	var tcount int64
	if err := gdb.Model(&models.Transcript{}).Where("id = ?", transcriptID).Count(&tcount).Error; err != nil {
		return nil, fmt.Errorf("analysis: check transcript %s: %w", transcriptID, err)
	}
	if tcount == 0 {
		return nil, fmt.Errorf("analysis: transcript not found: %s", transcriptID)
	}

	key := fmt.Sprintf("retry-%s-%s", transcriptID, uuid.NewString()[:8])
	job := models.Job{
		ID:             NewJobID(models.JobAnalyze, transcriptID),
		TranscriptID:   transcriptID,
		JobType:        models.JobAnalyze,
		Status:         models.JobQueued,
		IdempotencyKey: key,
	}
	if err := gdb.Create(&job).Error; err != nil {
		return nil, fmt.Errorf("analysis: create retry job: %w", err)
	}
	return &StartResult{JobID: job.ID, Status: job.Status, Message: "Re-analysis job started"}, nil
}

func existingResult(job *models.Job, message string) *StartResult {
	return &StartResult{
		JobID:      job.ID,
		IsExisting: true,
		Status:     job.Status,
		Progress:   job.Progress,
		Message:    message,
	}
}

// clearTranscriptArtifacts removes the tasks, dependencies and cached graph
// of a transcript ahead of a forced re-analysis.
func clearTranscriptArtifacts(tx *gorm.DB, transcriptID string) error {
	taskIDs := func() *gorm.DB {
		return tx.Model(&models.Task{}).Select("id").Where("transcript_id = ?", transcriptID)
	}
	if err := tx.Where("task_id IN (?) OR depends_on_task_id IN (?)", taskIDs(), taskIDs()).
		Delete(&models.Dependency{}).Error; err != nil {
		return fmt.Errorf("analysis: clear dependencies of %s: %w", transcriptID, err)
	}
	if err := tx.Where("transcript_id = ?", transcriptID).Delete(&models.Task{}).Error; err != nil {
		return fmt.Errorf("analysis: clear tasks of %s: %w", transcriptID, err)
	}
	if err := tx.Where("transcript_id = ?", transcriptID).Delete(&models.GraphRecord{}).Error; err != nil {
		return fmt.Errorf("analysis: clear graph of %s: %w", transcriptID, err)
	}
	return nil
}
