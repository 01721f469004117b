package graph

import (
	"fmt"
	"strings"
)

// Node is one task's view inside the dependency graph.
type Node struct {
	ID             string
	Title          string
	Status         string
	Priority       string
	EstimatedHours float64
	Assignee       string
}

// Graph is a directed dependency graph of tasks. Edges run from
// prerequisite to dependent and carry only scheduling-relevant
// dependency types (blocks, precedes), deduplicated per pair.
type Graph struct {
	Nodes  map[string]*Node
	Adj    map[string][]string // prerequisite -> dependents
	RevAdj map[string][]string // dependent -> prerequisites
	Roots  []string            // nodes with no prerequisites
	Leaves []string            // nodes with no dependents

	lagDays map[[2]string]int
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of deduplicated scheduling edges.
func (g *Graph) EdgeCount() int {
	return len(g.lagDays)
}

// LagDays returns the lag for the edge from prerequisite to dependent,
// 0 if the edge does not exist.
func (g *Graph) LagDays(from, to string) int {
	return g.lagDays[[2]string{from, to}]
}

// DagResult is the outcome of cycle validation. A cyclic graph is an
// expected condition, not an error: IsDAG is false and Cycle holds one
// simple cycle in forward edge order (closed by the edge from the last
// element back to the first).
type DagResult struct {
	IsDAG bool
	Cycle []string
}

// DanglingEdge records a dependency referencing a task outside the
// transcript's task set.
type DanglingEdge struct {
	TaskID          string
	DependsOnTaskID string
}

// ConstructionError reports edges dropped during graph construction
// because they referenced unknown task IDs. The graph returned alongside
// it is still usable; callers record the count and continue.
type ConstructionError struct {
	Dangling []DanglingEdge
}

func (e *ConstructionError) Error() string {
	refs := make([]string, 0, len(e.Dangling))
	for _, d := range e.Dangling {
		refs = append(refs, fmt.Sprintf("%s->%s", d.DependsOnTaskID, d.TaskID))
	}
	return fmt.Sprintf("graph: %d dangling edge(s) dropped: %s", len(e.Dangling), strings.Join(refs, ", "))
}
