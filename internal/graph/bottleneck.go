package graph

import "sort"

// Degree weights for bottleneck scoring. Out-degree is weighted higher:
// a task that blocks many successors is structurally riskier than one
// that merely waits on many prerequisites.
const (
	inDegreeWeight  = 1.0
	outDegreeWeight = 1.5
)

// Bottleneck describes one node's structural importance.
type Bottleneck struct {
	TaskID           string  `json:"task_id"`
	Title            string  `json:"task_title"`
	InDegree         int     `json:"in_degree"`
	OutDegree        int     `json:"out_degree"`
	TotalConnections int     `json:"total_connections"`
	Score            float64 `json:"score"`
}

// Bottlenecks ranks every node by connectivity score, descending. Ties
// break by total connections, then task ID. Isolated nodes are included
// with zero degrees. Pure function of the graph.
func Bottlenecks(g *Graph) []Bottleneck {
	out := make([]Bottleneck, 0, len(g.Nodes))
	for id, n := range g.Nodes {
		in := len(g.RevAdj[id])
		outDeg := len(g.Adj[id])
		out = append(out, Bottleneck{
			TaskID:           id,
			Title:            n.Title,
			InDegree:         in,
			OutDegree:        outDeg,
			TotalConnections: in + outDeg,
			Score:            float64(in)*inDegreeWeight + float64(outDeg)*outDegreeWeight,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].TotalConnections != out[j].TotalConnections {
			return out[i].TotalConnections > out[j].TotalConnections
		}
		return out[i].TaskID < out[j].TaskID
	})
	return out
}
