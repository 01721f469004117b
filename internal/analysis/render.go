package analysis

import (
	"fmt"
	"sort"

	"github.com/taskflow/taskflow/internal/graph"
)

// RenderNode is one task node in the renderable graph payload. Level is the
// node's layer in a hierarchical layout: the longest root-to-node path.
type RenderNode struct {
	ID            string  `json:"id"`
	Label         string  `json:"label"`
	Title         string  `json:"title"`
	Priority      string  `json:"priority"`
	Status        string  `json:"status"`
	Assignee      string  `json:"assignee,omitempty"`
	DurationHours float64 `json:"duration_hours"`
	Level         int     `json:"level"`
	Critical      bool    `json:"is_critical"`
}

// RenderEdge is one dependency edge in the renderable payload. An edge is
// critical when both endpoints sit on the critical path.
type RenderEdge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Label    string `json:"label"`
	Critical bool   `json:"is_critical"`
}

// RenderGraph is the persistable node/edge payload for graph consumers.
type RenderGraph struct {
	Nodes           []RenderNode `json:"nodes"`
	Edges           []RenderEdge `json:"edges"`
	DependenciesAvg float64      `json:"dependencies_avg"`
}

const maxLabelLen = 50

// Render projects a built graph onto the renderable payload. criticalPath
// may be nil (cyclic graph or no analysis yet).
func Render(g *graph.Graph, criticalPath []string) *RenderGraph {
	critical := make(map[string]bool, len(criticalPath))
	for _, id := range criticalPath {
		critical[id] = true
	}

	levels := layoutLevels(g)

	out := &RenderGraph{Nodes: []RenderNode{}, Edges: []RenderEdge{}}
	for _, id := range g.SortedIDs() {
		n := g.Nodes[id]
		label := n.Title
		if len(label) > maxLabelLen {
			label = label[:maxLabelLen]
		}
		out.Nodes = append(out.Nodes, RenderNode{
			ID:            id,
			Label:         label,
			Title:         n.Title,
			Priority:      n.Priority,
			Status:        n.Status,
			Assignee:      n.Assignee,
			DurationHours: n.EstimatedHours,
			Level:         levels[id],
			Critical:      critical[id],
		})

		for _, succ := range g.Adj[id] {
			out.Edges = append(out.Edges, RenderEdge{
				ID:       fmt.Sprintf("%s-%s", id, succ),
				Source:   id,
				Target:   succ,
				Label:    "blocks",
				Critical: critical[id] && critical[succ],
			})
		}
	}

	if len(out.Nodes) > 0 {
		out.DependenciesAvg = float64(len(out.Edges)) / float64(len(out.Nodes))
	}
	return out
}

// layoutLevels assigns each node the length of the longest path from a root,
// via Kahn's order. Nodes on a cycle never drain and stay at level 0.
func layoutLevels(g *graph.Graph) map[string]int {
	levels := make(map[string]int, len(g.Nodes))
	inDegree := make(map[string]int, len(g.Nodes))
	var queue []string
	for id := range g.Nodes {
		inDegree[id] = len(g.RevAdj[id])
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, succ := range g.Adj[node] {
			if lvl := levels[node] + 1; lvl > levels[succ] {
				levels[succ] = lvl
			}
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}
	return levels
}
