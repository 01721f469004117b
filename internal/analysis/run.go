package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow/internal/extract"
	"github.com/taskflow/taskflow/internal/graph"
	"github.com/taskflow/taskflow/internal/models"
	"github.com/taskflow/taskflow/internal/notify"
	"github.com/taskflow/taskflow/internal/schedule"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Progress checkpoints reported while a job runs.
const (
	progressStarted    = 10
	progressCleared    = 20
	progressExtracted  = 50
	progressTasksSaved = 70
	progressDepsSaved  = 80
	progressGraphSaved = 90
	progressDone       = 100
)

// ResultSummary is the diagnostics payload stored on completed jobs and on
// the transcript's analysis_result column.
type ResultSummary struct {
	TaskCount          int      `json:"task_count"`
	DependencyCount    int      `json:"dependency_count"`
	DroppedEdgeCount   int      `json:"dropped_edge_count"`
	CriticalPathLength int      `json:"critical_path_length"`
	IsValidDAG         bool     `json:"is_valid_dag"`
	TotalDurationHours float64  `json:"total_duration_hours"`
	TotalDurationDays  float64  `json:"total_duration_days"`
	Warning            string   `json:"warning,omitempty"`
	Cycle              []string `json:"cycle,omitempty"`
	CycleTaskIDs       []string `json:"cycle_task_ids,omitempty"`
	BlockedTaskCount   int      `json:"blocked_task_count"`
}

// Runner executes analysis jobs.
type Runner struct {
	DB        *gorm.DB
	Extractor extract.Extractor
	Notifier  notify.Notifier // optional; delivery failures are logged only
	Schedule  schedule.Options
}

// Run executes one analysis job end to end: extract tasks and edges from
// the transcript, persist them, build and validate the graph, then either
// compute the schedule or quarantine the cycle. The job never stays in
// processing: any failure flips it to failed with the error message.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	job, err := GetJob(r.DB, jobID)
	if err != nil {
		return err
	}

	summary, err := r.analyze(ctx, job)
	if err != nil {
		r.fail(job, err)
		return err
	}

	r.emit(ctx, notify.Event{
		Kind:            notify.KindAnalysisCompleted,
		TranscriptID:    job.TranscriptID,
		TaskCount:       summary.TaskCount,
		DependencyCount: summary.DependencyCount,
	})
	return nil
}

func (r *Runner) analyze(ctx context.Context, job *models.Job) (*ResultSummary, error) {
	now := time.Now()
	if err := r.DB.Model(&models.Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status":     models.JobProcessing,
		"started_at": now,
		"progress":   progressStarted,
	}).Error; err != nil {
		return nil, fmt.Errorf("analysis: mark job processing: %w", err)
	}

	var tr models.Transcript
	if err := r.DB.Where("id = ?", job.TranscriptID).First(&tr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis: transcript not found: %s", job.TranscriptID)
		}
		return nil, fmt.Errorf("analysis: load transcript %s: %w", job.TranscriptID, err)
	}
	if err := r.DB.Model(&tr).Update("status", models.TranscriptAnalyzing).Error; err != nil {
		return nil, fmt.Errorf("analysis: mark transcript analyzing: %w", err)
	}

	// Re-analysis replaces the previous extraction instead of appending.
	if err := r.DB.Transaction(func(tx *gorm.DB) error {
		return clearTranscriptArtifacts(tx, tr.ID)
	}); err != nil {
		return nil, err
	}
	r.setProgress(job.ID, progressCleared)

	extraction, err := r.Extractor.Extract(ctx, tr.Content)
	if err != nil {
		return nil, fmt.Errorf("analysis: extract: %w", err)
	}
	extraction, dangling := extract.Normalize(extraction)
	if dangling > 0 {
		log.Printf("analysis: job %s dropped %d dangling dependencies", job.ID, dangling)
	}
	r.setProgress(job.ID, progressExtracted)
	log.Printf("analysis: job %s extracted %d tasks, %d dependencies",
		job.ID, len(extraction.Tasks), len(extraction.Dependencies))

	tasks, deps, unresolved, err := r.persist(job.ID, tr.ID, extraction)
	if err != nil {
		return nil, err
	}
	r.setProgress(job.ID, progressDepsSaved)

	g, buildErr := graph.Build(tasks, deps)
	summary := &ResultSummary{
		TaskCount:        len(tasks),
		DependencyCount:  len(deps),
		DroppedEdgeCount: dangling + unresolved,
	}
	if buildErr != nil {
		var cerr *graph.ConstructionError
		if !errors.As(buildErr, &cerr) {
			return nil, fmt.Errorf("analysis: build graph: %w", buildErr)
		}
		summary.DroppedEdgeCount += len(cerr.Dangling)
		log.Printf("analysis: job %s: %v", job.ID, cerr)
	}

	dag, err := graph.Validate(g)
	if err != nil {
		return nil, fmt.Errorf("analysis: validate graph: %w", err)
	}

	if !dag.IsDAG {
		if err := r.quarantineCycle(tr.ID, dag.Cycle, summary); err != nil {
			return nil, err
		}
		if err := r.saveGraph(tr.ID, g, nil, nil); err != nil {
			return nil, err
		}
	} else {
		summary.IsValidDAG = true
		res, err := schedule.Analyze(g, r.Schedule)
		if err != nil {
			return nil, fmt.Errorf("analysis: schedule: %w", err)
		}
		summary.CriticalPathLength = len(res.CriticalPath)
		summary.TotalDurationHours = res.TotalDurationHours
		summary.TotalDurationDays = res.TotalDurationDays
		if err := r.saveGraph(tr.ID, g, res, res.CriticalPath); err != nil {
			return nil, err
		}
	}
	r.setProgress(job.ID, progressGraphSaved)

	if err := r.finalize(job.ID, tr.ID, summary); err != nil {
		return nil, err
	}
	log.Printf("analysis: job %s completed for transcript %s", job.ID, tr.ID)
	return summary, nil
}

// persist stores extracted tasks, then resolves dependency titles to the
// new task IDs and stores the edges. Edges whose titles resolve to no
// stored task are dropped and counted.
func (r *Runner) persist(jobID, transcriptID string, extraction *extract.Result) ([]models.Task, []models.Dependency, int, error) {
	var tasks []models.Task
	var deps []models.Dependency
	unresolved := 0

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		titleToID := make(map[string]string, len(extraction.Tasks))
		for _, et := range extraction.Tasks {
			t := models.Task{
				ID:             uuid.NewString(),
				TranscriptID:   transcriptID,
				Title:          et.Title,
				Description:    et.Description,
				Status:         models.TaskPending,
				Priority:       et.Priority,
				EstimatedHours: et.EstimatedHours,
				Assignee:       et.Assignee,
				Deadline:       et.Deadline,
			}
			if err := tx.Create(&t).Error; err != nil {
				return fmt.Errorf("analysis: create task %q: %w", et.Title, err)
			}
			titleToID[strings.ToLower(et.Title)] = t.ID
			tasks = append(tasks, t)
		}
		if err := tx.Model(&models.Job{}).Where("id = ?", jobID).
			Update("progress", progressTasksSaved).Error; err != nil {
			return fmt.Errorf("analysis: update progress: %w", err)
		}

		for _, ed := range extraction.Dependencies {
			taskID := titleToID[strings.ToLower(ed.TaskTitle)]
			dependsOn := titleToID[strings.ToLower(ed.DependsOnTitle)]
			if taskID == "" || dependsOn == "" {
				unresolved++
				continue
			}
			d := models.Dependency{
				ID:              uuid.NewString(),
				TaskID:          taskID,
				DependsOnTaskID: dependsOn,
				DependencyType:  ed.Type,
				LagDays:         ed.LagDays,
			}
			if err := tx.Create(&d).Error; err != nil {
				return fmt.Errorf("analysis: create dependency %s -> %s: %w", dependsOn, taskID, err)
			}
			deps = append(deps, d)
		}
		return nil
	})
	if err != nil {
		return nil, nil, 0, err
	}
	return tasks, deps, unresolved, nil
}

// quarantineCycle marks cycle members blocked and fills the cycle fields of
// the summary. Scheduling is skipped for cyclic graphs.
func (r *Runner) quarantineCycle(transcriptID string, cycle []string, summary *ResultSummary) error {
	res := r.DB.Model(&models.Task{}).
		Where("transcript_id = ? AND id IN ?", transcriptID, cycle).
		Update("status", models.TaskBlocked)
	if res.Error != nil {
		return fmt.Errorf("analysis: block cycle tasks: %w", res.Error)
	}
	summary.Warning = "Cyclic dependencies detected"
	summary.Cycle = cycle
	summary.CycleTaskIDs = cycle
	summary.BlockedTaskCount = int(res.RowsAffected)
	log.Printf("analysis: transcript %s has a dependency cycle, %d tasks blocked", transcriptID, res.RowsAffected)
	return nil
}

// saveGraph upserts the cached graph row for a transcript. res is nil for
// cyclic graphs: counts and the render payload are stored, durations stay zero.
func (r *Runner) saveGraph(transcriptID string, g *graph.Graph, res *schedule.Result, criticalPath []string) error {
	render, err := json.Marshal(Render(g, criticalPath))
	if err != nil {
		return fmt.Errorf("analysis: marshal graph data: %w", err)
	}

	record := models.GraphRecord{
		ID:           uuid.NewString(),
		TranscriptID: transcriptID,
		NodesCount:   g.NodeCount(),
		EdgesCount:   g.EdgeCount(),
		GraphData:    string(render),
	}
	if res != nil {
		pathJSON, err := json.Marshal(res.CriticalPath)
		if err != nil {
			return fmt.Errorf("analysis: marshal critical path: %w", err)
		}
		slack := make(map[string]float64, len(res.Tasks))
		for id, ts := range res.Tasks {
			slack[id] = ts.Slack
		}
		slackJSON, err := json.Marshal(slack)
		if err != nil {
			return fmt.Errorf("analysis: marshal slack data: %w", err)
		}
		record.CriticalPath = string(pathJSON)
		record.CriticalPathLength = len(res.CriticalPath)
		record.TotalDurationHours = res.TotalDurationHours
		record.TotalDurationDays = res.TotalDurationDays
		record.SlackData = string(slackJSON)
	}

	err = r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "transcript_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"nodes_count", "edges_count", "critical_path", "critical_path_length",
			"total_duration_hours", "total_duration_days", "slack_data", "graph_data", "updated_at",
		}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("analysis: save graph for %s: %w", transcriptID, err)
	}
	return nil
}

// finalize stamps the transcript and job with the completed result.
func (r *Runner) finalize(jobID, transcriptID string, summary *ResultSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("analysis: marshal result: %w", err)
	}

	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transcript{}).Where("id = ?", transcriptID).Updates(map[string]interface{}{
			"status":          models.TranscriptAnalyzed,
			"analysis_result": string(payload),
			"error_message":   "",
		}).Error; err != nil {
			return fmt.Errorf("analysis: mark transcript analyzed: %w", err)
		}
		now := time.Now()
		if err := tx.Model(&models.Job{}).Where("id = ?", jobID).Updates(map[string]interface{}{
			"status":       models.JobCompleted,
			"progress":     progressDone,
			"result":       string(payload),
			"completed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("analysis: mark job completed: %w", err)
		}
		return nil
	})
}

// fail flips the job and transcript to failed. Best-effort: the original
// error matters more than bookkeeping failures here.
func (r *Runner) fail(job *models.Job, cause error) {
	now := time.Now()
	if err := r.DB.Model(&models.Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status":        models.JobFailed,
		"error_message": cause.Error(),
		"completed_at":  now,
	}).Error; err != nil {
		log.Printf("analysis: mark job %s failed: %v", job.ID, err)
	}
	if err := r.DB.Model(&models.Transcript{}).Where("id = ?", job.TranscriptID).Updates(map[string]interface{}{
		"status":        models.TranscriptFailed,
		"error_message": cause.Error(),
	}).Error; err != nil {
		log.Printf("analysis: mark transcript %s failed: %v", job.TranscriptID, err)
	}
	r.emit(context.Background(), notify.Event{
		Kind:         notify.KindAnalysisFailed,
		TranscriptID: job.TranscriptID,
		Message:      cause.Error(),
	})
}

func (r *Runner) setProgress(jobID string, progress int) {
	if err := r.DB.Model(&models.Job{}).Where("id = ?", jobID).
		Update("progress", progress).Error; err != nil {
		log.Printf("analysis: update progress of %s: %v", jobID, err)
	}
}

func (r *Runner) emit(ctx context.Context, ev notify.Event) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.Notify(ctx, ev); err != nil {
		log.Printf("analysis: notify %s: %v", ev.Kind, err)
	}
}
