package schedule

import (
	"time"

	"github.com/taskflow/taskflow/internal/graph"
	"github.com/taskflow/taskflow/internal/models"
)

// GanttRow is one task bar on a Gantt timeline.
type GanttRow struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Progress     int      `json:"progress"`
	Dependencies []string `json:"dependencies"`
	Assignee     string   `json:"assignee,omitempty"`
}

// GanttRows projects the forward-pass schedule onto wall-clock timestamps
// anchored at projectStart, one row per task in topological order.
// Completed tasks report 100% progress, everything else 0.
func GanttRows(g *graph.Graph, res *Result, projectStart time.Time) []GanttRow {
	rows := make([]GanttRow, 0, len(res.TopoOrder))
	for _, id := range res.TopoOrder {
		ts := res.Tasks[id]
		node := g.Nodes[id]

		start := projectStart.Add(time.Duration(ts.EarliestStart * float64(time.Hour)))
		end := projectStart.Add(time.Duration(ts.EarliestFinish * float64(time.Hour)))

		progress := 0
		if node.Status == models.TaskCompleted {
			progress = 100
		}

		deps := make([]string, len(g.RevAdj[id]))
		copy(deps, g.RevAdj[id])

		rows = append(rows, GanttRow{
			ID:           id,
			Name:         node.Title,
			Start:        start.Format(time.RFC3339),
			End:          end.Format(time.RFC3339),
			Progress:     progress,
			Dependencies: deps,
			Assignee:     node.Assignee,
		})
	}
	return rows
}
