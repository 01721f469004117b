package analysis

import (
	"errors"
	"fmt"

	"github.com/taskflow/taskflow/internal/graph"
	"github.com/taskflow/taskflow/internal/models"
	"github.com/taskflow/taskflow/internal/schedule"
	"gorm.io/gorm"
)

// GraphView is a freshly computed graph analysis for one transcript. Built
// and Schedule carry the in-memory artifacts for follow-up computations
// (bottlenecks, Gantt rows) and stay out of JSON payloads.
type GraphView struct {
	TranscriptID       string             `json:"transcript_id"`
	NodesCount         int                `json:"nodes_count"`
	EdgesCount         int                `json:"edges_count"`
	IsDAG              bool               `json:"is_valid_dag"`
	Cycle              []string           `json:"cycle,omitempty"`
	DroppedEdgeCount   int                `json:"dropped_edge_count"`
	CriticalPath       []string           `json:"critical_path"`
	CriticalPathLength int                `json:"critical_path_length"`
	TotalDurationHours float64            `json:"total_duration_hours"`
	TotalDurationDays  float64            `json:"total_duration_days"`
	Slack              map[string]float64 `json:"slack"`
	Graph              *RenderGraph       `json:"graph"`

	Built    *graph.Graph     `json:"-"`
	Schedule *schedule.Result `json:"-"`
}

// ComputeGraph rebuilds the graph for a transcript from its current tasks
// and dependencies. Cyclic graphs are a valid outcome: IsDAG is false, the
// cycle is reported, and scheduling fields stay zero.
func ComputeGraph(gdb *gorm.DB, transcriptID string, opts schedule.Options) (*GraphView, error) {
	var tcount int64
	if err := gdb.Model(&models.Transcript{}).Where("id = ?", transcriptID).Count(&tcount).Error; err != nil {
		return nil, fmt.Errorf("analysis: check transcript %s: %w", transcriptID, err)
	}
	if tcount == 0 {
		return nil, fmt.Errorf("analysis: transcript not found: %s", transcriptID)
	}

	var tasks []models.Task
	if err := gdb.Where("transcript_id = ?", transcriptID).Order("created_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("analysis: load tasks of %s: %w", transcriptID, err)
	}
	taskIDs := make([]string, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}
	var deps []models.Dependency
	if len(taskIDs) > 0 {
		if err := gdb.Where("task_id IN ?", taskIDs).Find(&deps).Error; err != nil {
			return nil, fmt.Errorf("analysis: load dependencies of %s: %w", transcriptID, err)
		}
	}

	g, buildErr := graph.Build(tasks, deps)
	view := &GraphView{
		TranscriptID: transcriptID,
		NodesCount:   g.NodeCount(),
		EdgesCount:   g.EdgeCount(),
		CriticalPath: []string{},
		Slack:        map[string]float64{},
		Built:        g,
	}
	if buildErr != nil {
		var cerr *graph.ConstructionError
		if !errors.As(buildErr, &cerr) {
			return nil, fmt.Errorf("analysis: build graph: %w", buildErr)
		}
		view.DroppedEdgeCount = len(cerr.Dangling)
	}

	dag, err := graph.Validate(g)
	if err != nil {
		return nil, fmt.Errorf("analysis: validate graph: %w", err)
	}
	if !dag.IsDAG {
		view.Cycle = dag.Cycle
		view.Graph = Render(g, nil)
		return view, nil
	}

	view.IsDAG = true
	res, err := schedule.Analyze(g, opts)
	if err != nil {
		return nil, fmt.Errorf("analysis: schedule: %w", err)
	}
	view.Schedule = res
	view.CriticalPath = res.CriticalPath
	view.CriticalPathLength = len(res.CriticalPath)
	view.TotalDurationHours = res.TotalDurationHours
	view.TotalDurationDays = res.TotalDurationDays
	for id, ts := range res.Tasks {
		view.Slack[id] = ts.Slack
	}
	view.Graph = Render(g, res.CriticalPath)
	return view, nil
}

// CachedGraph returns the persisted graph row for a transcript, or
// gorm.ErrRecordNotFound wrapped when no analysis has completed yet.
func CachedGraph(gdb *gorm.DB, transcriptID string) (*models.GraphRecord, error) {
	var record models.GraphRecord
	if err := gdb.Where("transcript_id = ?", transcriptID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis: no cached graph for %s: %w", transcriptID, err)
		}
		return nil, fmt.Errorf("analysis: load cached graph of %s: %w", transcriptID, err)
	}
	return &record, nil
}
