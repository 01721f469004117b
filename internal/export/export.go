// Package export renders a transcript's tasks and dependencies as JSON or
// CSV. Output stays deliberately plain: consumers do their own styling.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taskflow/taskflow/internal/models"
	"github.com/taskflow/taskflow/internal/transcript"
	"gorm.io/gorm"
)

// Formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Result is one rendered export.
type Result struct {
	Data        []byte
	Filename    string
	ContentType string
}

// TaskRow is a task in the JSON export payload.
type TaskRow struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Deadline       string  `json:"deadline,omitempty"`
	Priority       string  `json:"priority"`
	Status         string  `json:"status"`
	Assignee       string  `json:"assignee,omitempty"`
	EstimatedHours float64 `json:"estimated_hours"`
	ActualHours    float64 `json:"actual_hours"`
}

// DependencyRow is a dependency edge in the JSON export payload.
type DependencyRow struct {
	ID              string `json:"id"`
	TaskID          string `json:"task_id"`
	DependsOnTaskID string `json:"depends_on_task_id"`
	Type            string `json:"type"`
	LagDays         int    `json:"lag_days"`
}

// Payload is the JSON export document.
type Payload struct {
	Transcript struct {
		ID        string `json:"id"`
		Filename  string `json:"filename"`
		CreatedAt string `json:"created_at"`
		Status    string `json:"status"`
	} `json:"transcript"`
	Tasks        []TaskRow       `json:"tasks"`
	Dependencies []DependencyRow `json:"dependencies"`
	Summary      struct {
		TotalTasks        int            `json:"total_tasks"`
		TotalDependencies int            `json:"total_dependencies"`
		TasksByStatus     map[string]int `json:"tasks_by_status"`
		TasksByPriority   map[string]int `json:"tasks_by_priority"`
	} `json:"summary"`
	ExportedAt string `json:"exported_at"`
}

// Transcript renders the transcript's current tasks and edges in the
// requested format.
func Transcript(gdb *gorm.DB, transcriptID, format string) (*Result, error) {
	tr, err := transcript.Get(gdb, transcriptID)
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	if err := gdb.Where("transcript_id = ?", transcriptID).Order("created_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("export: load tasks of %s: %w", transcriptID, err)
	}
	taskIDs := make([]string, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}
	var deps []models.Dependency
	if len(taskIDs) > 0 {
		if err := gdb.Where("task_id IN ?", taskIDs).Order("created_at ASC, id ASC").
			Find(&deps).Error; err != nil {
			return nil, fmt.Errorf("export: load dependencies of %s: %w", transcriptID, err)
		}
	}

	switch format {
	case FormatJSON, "":
		return exportJSON(tr, tasks, deps)
	case FormatCSV:
		return exportCSV(tr, tasks, deps)
	default:
		return nil, fmt.Errorf("export: unknown format %q", format)
	}
}

func exportJSON(tr *models.Transcript, tasks []models.Task, deps []models.Dependency) (*Result, error) {
	var p Payload
	p.Transcript.ID = tr.ID
	p.Transcript.Filename = tr.Filename
	p.Transcript.CreatedAt = tr.CreatedAt.Format(time.RFC3339)
	p.Transcript.Status = tr.Status

	p.Tasks = make([]TaskRow, 0, len(tasks))
	p.Summary.TasksByStatus = map[string]int{}
	p.Summary.TasksByPriority = map[string]int{}
	for _, t := range tasks {
		row := TaskRow{
			ID:             t.ID,
			Title:          t.Title,
			Description:    t.Description,
			Priority:       t.Priority,
			Status:         t.Status,
			Assignee:       t.Assignee,
			EstimatedHours: t.EstimatedHours,
			ActualHours:    t.ActualHours,
		}
		if t.Deadline != nil {
			row.Deadline = t.Deadline.Format(time.RFC3339)
		}
		p.Tasks = append(p.Tasks, row)
		p.Summary.TasksByStatus[t.Status]++
		p.Summary.TasksByPriority[t.Priority]++
	}

	p.Dependencies = make([]DependencyRow, 0, len(deps))
	for _, d := range deps {
		p.Dependencies = append(p.Dependencies, DependencyRow{
			ID:              d.ID,
			TaskID:          d.TaskID,
			DependsOnTaskID: d.DependsOnTaskID,
			Type:            d.DependencyType,
			LagDays:         d.LagDays,
		})
	}
	p.Summary.TotalTasks = len(tasks)
	p.Summary.TotalDependencies = len(deps)
	p.ExportedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal json: %w", err)
	}
	return &Result{
		Data:        data,
		Filename:    baseName(tr.Filename) + "_export.json",
		ContentType: "application/json",
	}, nil
}

func exportCSV(tr *models.Transcript, tasks []models.Task, deps []models.Dependency) (*Result, error) {
	titles := make(map[string]string, len(tasks))
	for _, t := range tasks {
		titles[t.ID] = t.Title
	}
	// Prerequisite titles per dependent task.
	prereqs := make(map[string][]string)
	for _, d := range deps {
		title, ok := titles[d.DependsOnTaskID]
		if !ok {
			title = "Unknown"
		}
		prereqs[d.TaskID] = append(prereqs[d.TaskID], title)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{
		"ID", "Title", "Description", "Deadline", "Priority", "Status",
		"Assignee", "Estimated Hours", "Actual Hours", "Dependencies",
	}); err != nil {
		return nil, fmt.Errorf("export: write csv header: %w", err)
	}

	for _, t := range tasks {
		deadline := ""
		if t.Deadline != nil {
			deadline = t.Deadline.Format(time.RFC3339)
		}
		record := []string{
			t.ID, t.Title, t.Description, deadline, t.Priority, t.Status,
			t.Assignee,
			strconv.FormatFloat(t.EstimatedHours, 'f', -1, 64),
			strconv.FormatFloat(t.ActualHours, 'f', -1, 64),
			strings.Join(prereqs[t.ID], "; "),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("export: write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export: flush csv: %w", err)
	}

	return &Result{
		Data:        buf.Bytes(),
		Filename:    baseName(tr.Filename) + "_export.csv",
		ContentType: "text/csv",
	}, nil
}

func baseName(filename string) string {
	if i := strings.LastIndex(filename, "."); i > 0 {
		return filename[:i]
	}
	return filename
}
