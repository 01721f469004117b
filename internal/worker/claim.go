// Package worker runs the job daemon: N slots polling for queued jobs,
// claiming them atomically, plus a cron reaper that fails jobs stuck in
// processing past the timeout.
package worker

import (
	"errors"
	"fmt"

	"github.com/taskflow/taskflow/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoJobs is returned by ClaimJob when the queue is empty.
var ErrNoJobs = errors.New("worker: no queued jobs")

// ClaimJob atomically takes the oldest queued job: the status flip from
// queued to processing is a compare-and-set, so two concurrent claimers
// can never take the same job.
func ClaimJob(db *gorm.DB) (*models.Job, error) {
	var claimed models.Job

	err := db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("status = ?", models.JobQueued).
			Order("created_at ASC, id ASC").
			Limit(1)
		if tx.Dialector.Name() == "mysql" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		result := q.Find(&claimed)
		if result.Error != nil {
			return fmt.Errorf("worker: find queued job: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNoJobs
		}

		cas := tx.Model(&models.Job{}).
			Where("id = ? AND status = ?", claimed.ID, models.JobQueued).
			Update("status", models.JobProcessing)
		if cas.Error != nil {
			return fmt.Errorf("worker: claim job %s: %w", claimed.ID, cas.Error)
		}
		if cas.RowsAffected == 0 {
			// Another claimer won the race inside the window.
			return ErrNoJobs
		}
		claimed.Status = models.JobProcessing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &claimed, nil
}
