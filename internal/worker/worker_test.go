package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/taskflow/taskflow/internal/analysis"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db"
	"github.com/taskflow/taskflow/internal/extract"
	"github.com/taskflow/taskflow/internal/models"
	"github.com/taskflow/taskflow/internal/transcript"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func seedJob(t *testing.T, gdb *gorm.DB, id, status string, startedAgo time.Duration) {
	t.Helper()
	job := models.Job{
		ID:             id,
		TranscriptID:   "tr-1",
		JobType:        models.JobAnalyze,
		Status:         status,
		IdempotencyKey: "key-" + id,
	}
	if startedAgo > 0 {
		at := time.Now().Add(-startedAgo)
		job.StartedAt = &at
	}
	if err := gdb.Create(&job).Error; err != nil {
		t.Fatalf("seed job %s: %v", id, err)
	}
}

func TestClaimJob_OldestFirst(t *testing.T) {
	gdb := testDB(t)
	seedJob(t, gdb, "job-b", models.JobQueued, 0)
	seedJob(t, gdb, "job-a", models.JobQueued, 0)
	seedJob(t, gdb, "job-done", models.JobCompleted, 0)

	job, err := ClaimJob(gdb)
	if err != nil {
		t.Fatalf("ClaimJob: %v", err)
	}
	if job.Status != models.JobProcessing {
		t.Errorf("claimed status = %s, want processing", job.Status)
	}

	var stored models.Job
	gdb.Where("id = ?", job.ID).First(&stored)
	if stored.Status != models.JobProcessing {
		t.Errorf("stored status = %s, want processing", stored.Status)
	}
}

func TestClaimJob_Empty(t *testing.T) {
	gdb := testDB(t)
	if _, err := ClaimJob(gdb); !errors.Is(err, ErrNoJobs) {
		t.Errorf("err = %v, want ErrNoJobs", err)
	}
}

func TestClaimJob_NoDoubleClaim(t *testing.T) {
	gdb := testDB(t)
	seedJob(t, gdb, "job-1", models.JobQueued, 0)
	seedJob(t, gdb, "job-2", models.JobQueued, 0)

	var mu sync.Mutex
	claimed := map[string]int{}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, err := ClaimJob(gdb)
			if err != nil {
				return
			}
			mu.Lock()
			claimed[job.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(claimed) != 2 {
		t.Fatalf("claimed jobs = %v, want both", claimed)
	}
	for id, n := range claimed {
		if n != 1 {
			t.Errorf("job %s claimed %d times", id, n)
		}
	}
}

func TestReapStuck(t *testing.T) {
	gdb := testDB(t)
	seedJob(t, gdb, "stuck", models.JobProcessing, time.Hour)
	seedJob(t, gdb, "fresh", models.JobProcessing, time.Second)
	seedJob(t, gdb, "queued", models.JobQueued, 0)

	n, err := ReapStuck(gdb, 10*time.Minute)
	if err != nil {
		t.Fatalf("ReapStuck: %v", err)
	}
	if n != 1 {
		t.Errorf("reaped = %d, want 1", n)
	}

	var stuck models.Job
	gdb.Where("id = ?", "stuck").First(&stuck)
	if stuck.Status != models.JobFailed || !strings.Contains(stuck.ErrorMessage, "timed out") {
		t.Errorf("stuck = %s/%q", stuck.Status, stuck.ErrorMessage)
	}
	if stuck.CompletedAt == nil {
		t.Error("reaped job has no completed_at")
	}

	var fresh models.Job
	gdb.Where("id = ?", "fresh").First(&fresh)
	if fresh.Status != models.JobProcessing {
		t.Errorf("fresh flipped to %s", fresh.Status)
	}
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(context.Context, string) (*extract.Result, error) {
	return &extract.Result{
		Tasks: []extract.Task{{Title: "Only task", EstimatedHours: 1}},
	}, nil
}

func TestExecute_AnalyzeJob(t *testing.T) {
	gdb := testDB(t)
	res, err := transcript.Create(gdb, transcript.CreateOpts{Content: "notes"})
	if err != nil {
		t.Fatalf("create transcript: %v", err)
	}
	started, err := analysis.Start(gdb, res.Transcript.ID, "key-1", false)
	if err != nil {
		t.Fatalf("start analysis: %v", err)
	}
	job, err := ClaimJob(gdb)
	if err != nil {
		t.Fatalf("ClaimJob: %v", err)
	}
	if job.ID != started.JobID {
		t.Fatalf("claimed %s, want %s", job.ID, started.JobID)
	}

	d := &Daemon{DB: gdb, Runner: &analysis.Runner{DB: gdb, Extractor: fakeExtractor{}}}
	if err := d.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	final, err := analysis.GetJob(gdb, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if final.Status != models.JobCompleted || final.Progress != 100 {
		t.Errorf("job = %s/%d, want completed/100", final.Status, final.Progress)
	}
}

func TestExecute_ExportJob(t *testing.T) {
	gdb := testDB(t)
	res, err := transcript.Create(gdb, transcript.CreateOpts{Filename: "a.txt", Content: "notes"})
	if err != nil {
		t.Fatalf("create transcript: %v", err)
	}
	job := models.Job{
		ID:             "export-1",
		TranscriptID:   res.Transcript.ID,
		JobType:        models.JobExport,
		Status:         models.JobProcessing,
		IdempotencyKey: "key-export-1",
	}
	if err := gdb.Create(&job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}

	d := &Daemon{DB: gdb}
	if err := d.Execute(context.Background(), &job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	final, err := analysis.GetJob(gdb, "export-1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if final.Status != models.JobCompleted {
		t.Fatalf("status = %s, want completed", final.Status)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(final.Result), &payload); err != nil {
		t.Fatalf("result not JSON: %v", err)
	}
	if _, ok := payload["transcript"]; !ok {
		t.Errorf("result payload missing transcript section: %v", payload)
	}
}

func TestExecute_UnknownType(t *testing.T) {
	gdb := testDB(t)
	job := models.Job{ID: "weird", TranscriptID: "tr-1", JobType: "compact", Status: models.JobProcessing, IdempotencyKey: "k"}
	if err := gdb.Create(&job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}

	d := &Daemon{DB: gdb}
	if err := d.Execute(context.Background(), &job); err == nil {
		t.Fatal("expected error for unknown job type")
	}
	var stored models.Job
	gdb.Where("id = ?", "weird").First(&stored)
	if stored.Status != models.JobFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
}

func TestDaemon_StopsOnCancel(t *testing.T) {
	gdb := testDB(t)
	d := &Daemon{DB: gdb, Slots: 1, PollInterval: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop after cancel")
	}
}
