package worker

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/taskflow/taskflow/internal/models"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ReapStuck fails jobs that have sat in processing longer than timeout.
// A crashed worker leaves its job processing forever otherwise; the cron
// entry makes the failure visible instead of silent.
func ReapStuck(db *gorm.DB, timeout time.Duration) (int, error) {
	cutoff := time.Now().Add(-timeout)
	now := time.Now()

	result := db.Model(&models.Job{}).
		Where("status = ? AND started_at IS NOT NULL AND started_at < ?", models.JobProcessing, cutoff).
		Updates(map[string]interface{}{
			"status":        models.JobFailed,
			"error_message": fmt.Sprintf("job timed out after %s in processing", timeout),
			"completed_at":  now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("worker: reap stuck jobs: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("worker: reaped %d stuck job(s) older than %s", result.RowsAffected, timeout)
	}
	return int(result.RowsAffected), nil
}

// startReaper schedules ReapStuck on the given cron expression and returns
// the running scheduler.
func startReaper(db *gorm.DB, schedule string, timeout time.Duration) (*cron.Cron, error) {
	c := cron.New(cron.WithParser(cronParser))
	_, err := c.AddFunc(schedule, func() {
		if _, err := ReapStuck(db, timeout); err != nil {
			log.Printf("worker: reaper: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("worker: invalid reaper schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}
