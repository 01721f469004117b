package graph

import "fmt"

// Validate checks the graph for cycles over scheduling edges.
//
// Uses DFS with coloring: white (unvisited), gray (in progress), black
// (done). Nodes are visited in sorted ID order so the cycle reported for a
// given graph is always the same one. A cyclic graph is not an error; the
// cycle is returned in the result. The only error case is structurally
// invalid input: edges present with an empty node set.
func Validate(g *Graph) (DagResult, error) {
	if len(g.Nodes) == 0 {
		if len(g.Adj) > 0 {
			return DagResult{}, fmt.Errorf("graph: edges present with empty node set")
		}
		return DagResult{IsDAG: true}, nil
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(g.Nodes))
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range g.Adj[node] {
			if color[next] == gray {
				// Back edge: reconstruct the cycle by walking parents
				// from node back to next, then reverse into edge order.
				cycle := []string{node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, id := range g.SortedIDs() {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return DagResult{IsDAG: false, Cycle: cycle}, nil
			}
		}
	}
	return DagResult{IsDAG: true}, nil
}
