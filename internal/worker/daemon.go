package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/taskflow/taskflow/internal/analysis"
	"github.com/taskflow/taskflow/internal/export"
	"github.com/taskflow/taskflow/internal/models"
	"gorm.io/gorm"
)

// Defaults for daemon tuning knobs left zero.
const (
	DefaultSlots        = 2
	DefaultPollInterval = 3 * time.Second
	DefaultJobTimeout   = 10 * time.Minute
)

// Daemon polls the job queue and executes claimed jobs.
type Daemon struct {
	DB     *gorm.DB
	Runner *analysis.Runner

	Slots          int
	PollInterval   time.Duration
	JobTimeout     time.Duration
	ReaperSchedule string // 5-field cron expression; empty disables the reaper
}

// Start launches the worker slots and the reaper, then blocks until ctx is
// cancelled and all slots have drained.
func (d *Daemon) Start(ctx context.Context) error {
	slots := d.Slots
	if slots <= 0 {
		slots = DefaultSlots
	}
	poll := d.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	timeout := d.JobTimeout
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}

	if d.ReaperSchedule != "" {
		c, err := startReaper(d.DB, d.ReaperSchedule, timeout)
		if err != nil {
			return err
		}
		defer c.Stop()
	}

	log.Printf("worker: starting %d slot(s), polling every %s", slots, poll)

	var wg sync.WaitGroup
	for i := 0; i < slots; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			d.runSlot(ctx, slot, poll)
		}(i)
	}
	wg.Wait()
	log.Printf("worker: all slots stopped")
	return nil
}

// runSlot is one polling loop: claim, execute, repeat. An empty queue backs
// off for the poll interval.
func (d *Daemon) runSlot(ctx context.Context, slot int, poll time.Duration) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		job, err := ClaimJob(d.DB)
		switch {
		case errors.Is(err, ErrNoJobs):
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				continue
			}
		case err != nil:
			log.Printf("worker: slot %d: claim: %v", slot, err)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				continue
			}
		}

		log.Printf("worker: slot %d claimed job %s (%s)", slot, job.ID, job.JobType)
		if err := d.Execute(ctx, job); err != nil {
			log.Printf("worker: slot %d: job %s: %v", slot, job.ID, err)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// Execute dispatches one claimed job by type.
func (d *Daemon) Execute(ctx context.Context, job *models.Job) error {
	switch job.JobType {
	case models.JobAnalyze:
		return d.Runner.Run(ctx, job.ID)
	case models.JobExport:
		return d.runExport(job)
	default:
		err := fmt.Errorf("worker: unknown job type %q", job.JobType)
		d.failJob(job.ID, err)
		return err
	}
}

// runExport renders the export and stores it inline on the job record.
func (d *Daemon) runExport(job *models.Job) error {
	now := time.Now()
	if err := d.DB.Model(&models.Job{}).Where("id = ?", job.ID).
		Update("started_at", now).Error; err != nil {
		return fmt.Errorf("worker: mark export started: %w", err)
	}

	res, err := export.Transcript(d.DB, job.TranscriptID, export.FormatJSON)
	if err != nil {
		d.failJob(job.ID, err)
		return err
	}

	done := time.Now()
	if err := d.DB.Model(&models.Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status":       models.JobCompleted,
		"progress":     100,
		"result":       string(res.Data),
		"completed_at": done,
	}).Error; err != nil {
		return fmt.Errorf("worker: mark export completed: %w", err)
	}
	return nil
}

func (d *Daemon) failJob(jobID string, cause error) {
	now := time.Now()
	if err := d.DB.Model(&models.Job{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":        models.JobFailed,
		"error_message": cause.Error(),
		"completed_at":  now,
	}).Error; err != nil {
		log.Printf("worker: mark job %s failed: %v", jobID, err)
	}
}
