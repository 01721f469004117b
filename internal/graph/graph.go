// Package graph builds and validates task dependency graphs.
package graph

import (
	"sort"

	"github.com/taskflow/taskflow/internal/models"
)

// Build constructs a Graph from a transcript's tasks and dependencies.
// Informational edge types (parent_of, related_to) are excluded, duplicate
// (dependent, prerequisite) pairs collapse to one edge keeping the first
// lag seen, and edges referencing unknown task IDs are dropped. When any
// edge was dropped the returned error is a *ConstructionError describing
// them; the graph itself is complete and usable either way.
func Build(tasks []models.Task, deps []models.Dependency) (*Graph, error) {
	g := &Graph{
		Nodes:   make(map[string]*Node),
		Adj:     make(map[string][]string),
		RevAdj:  make(map[string][]string),
		lagDays: make(map[[2]string]int),
	}

	for i := range tasks {
		t := &tasks[i]
		g.Nodes[t.ID] = &Node{
			ID:             t.ID,
			Title:          t.Title,
			Status:         t.Status,
			Priority:       t.Priority,
			EstimatedHours: t.EstimatedHours,
			Assignee:       t.Assignee,
		}
	}

	var dangling []DanglingEdge
	for _, d := range deps {
		if !d.SchedulingRelevant() {
			continue
		}
		if d.TaskID == d.DependsOnTaskID {
			continue
		}
		if _, ok := g.Nodes[d.TaskID]; !ok {
			dangling = append(dangling, DanglingEdge{TaskID: d.TaskID, DependsOnTaskID: d.DependsOnTaskID})
			continue
		}
		if _, ok := g.Nodes[d.DependsOnTaskID]; !ok {
			dangling = append(dangling, DanglingEdge{TaskID: d.TaskID, DependsOnTaskID: d.DependsOnTaskID})
			continue
		}

		// Edge direction: prerequisite -> dependent.
		key := [2]string{d.DependsOnTaskID, d.TaskID}
		if _, seen := g.lagDays[key]; seen {
			continue
		}
		g.lagDays[key] = d.LagDays
		g.Adj[d.DependsOnTaskID] = append(g.Adj[d.DependsOnTaskID], d.TaskID)
		g.RevAdj[d.TaskID] = append(g.RevAdj[d.TaskID], d.DependsOnTaskID)
	}

	// Sort adjacency lists for deterministic traversal order.
	for k := range g.Adj {
		sort.Strings(g.Adj[k])
	}
	for k := range g.RevAdj {
		sort.Strings(g.RevAdj[k])
	}

	for id := range g.Nodes {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}
	sort.Strings(g.Roots)
	sort.Strings(g.Leaves)

	if len(dangling) > 0 {
		return g, &ConstructionError{Dangling: dangling}
	}
	return g, nil
}

// SortedIDs returns all node IDs in lexicographic order.
func (g *Graph) SortedIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
