// Package schedule computes critical-path metrics over a validated task DAG.
package schedule

import (
	"fmt"
	"sort"

	"github.com/taskflow/taskflow/internal/graph"
)

// DefaultHoursPerDay converts dependency lag_days into hours. Overridable
// via Options for teams that schedule in working days.
const DefaultHoursPerDay = 24.0

// slackEpsilon absorbs floating-point noise when testing slack for zero.
const slackEpsilon = 1e-9

// Options holds scheduling model constants.
type Options struct {
	// HoursPerDay is the lag conversion factor; 0 means DefaultHoursPerDay.
	HoursPerDay float64
}

// TaskSchedule holds the computed schedule for a single task. All values
// are floating-point hours from project start.
type TaskSchedule struct {
	TaskID         string
	EarliestStart  float64
	EarliestFinish float64
	LatestStart    float64
	LatestFinish   float64
	Slack          float64
	Critical       bool
}

// Result is the complete critical path analysis for one graph.
type Result struct {
	Tasks              map[string]*TaskSchedule
	TopoOrder          []string
	CriticalPath       []string
	TotalDurationHours float64
	TotalDurationDays  float64
}

// Analyze runs the critical path method over g. Precondition: g is a
// validated DAG; a cycle is returned as an error here because the caller
// was supposed to have quarantined it already.
//
// Task duration is EstimatedHours, defaulting to 0 for tasks without an
// estimate (zero-duration milestones are legal). Edge lag is lag_days
// converted at HoursPerDay. Disconnected components are scheduled
// independently against the global project duration, so zero-slack nodes
// (and therefore the critical path) lie in the component that determines
// the overall finish.
func Analyze(g *graph.Graph, opts Options) (*Result, error) {
	hoursPerDay := opts.HoursPerDay
	if hoursPerDay <= 0 {
		hoursPerDay = DefaultHoursPerDay
	}

	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Tasks:     make(map[string]*TaskSchedule, len(order)),
		TopoOrder: order,
	}
	if len(order) == 0 {
		return res, nil
	}

	duration := func(id string) float64 {
		return g.Nodes[id].EstimatedHours
	}
	lagHours := func(from, to string) float64 {
		return float64(g.LagDays(from, to)) * hoursPerDay
	}

	// Forward pass.
	for _, id := range order {
		ts := &TaskSchedule{TaskID: id}
		for _, pred := range g.RevAdj[id] {
			if es := res.Tasks[pred].EarliestFinish + lagHours(pred, id); es > ts.EarliestStart {
				ts.EarliestStart = es
			}
		}
		ts.EarliestFinish = ts.EarliestStart + duration(id)
		res.Tasks[id] = ts
	}

	for _, ts := range res.Tasks {
		if ts.EarliestFinish > res.TotalDurationHours {
			res.TotalDurationHours = ts.EarliestFinish
		}
	}
	res.TotalDurationDays = res.TotalDurationHours / hoursPerDay

	// Backward pass in reverse topological order.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		ts := res.Tasks[id]
		if len(g.Adj[id]) == 0 {
			ts.LatestFinish = res.TotalDurationHours
		} else {
			min := res.TotalDurationHours
			for _, succ := range g.Adj[id] {
				if lf := res.Tasks[succ].LatestStart - lagHours(id, succ); lf < min {
					min = lf
				}
			}
			ts.LatestFinish = min
		}
		ts.LatestStart = ts.LatestFinish - duration(id)

		slack := ts.LatestStart - ts.EarliestStart
		ts.Critical = slack <= slackEpsilon
		if slack < 0 {
			slack = 0
		}
		ts.Slack = slack
	}

	res.CriticalPath = criticalWalk(g, res)
	return res, nil
}

// topoSort runs Kahn's algorithm with sorted tie-breaks for determinism.
func topoSort(g *graph.Graph) ([]string, error) {
	inDegree := make(map[string]int, len(g.Nodes))
	for id := range g.Nodes {
		inDegree[id] = len(g.RevAdj[id])
	}

	var queue []string
	for id := range g.Nodes {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(g.Nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var ready []string
		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				ready = append(ready, succ)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(order) != len(g.Nodes) {
		return nil, fmt.Errorf("schedule: graph has a cycle (%d of %d tasks sorted)", len(order), len(g.Nodes))
	}
	return order, nil
}

// criticalWalk builds the critical path: start at a zero-slack source and
// follow zero-slack successors to a sink. Where several candidates tie,
// prefer the larger duration, then the smaller task ID.
func criticalWalk(g *graph.Graph, res *Result) []string {
	pick := func(candidates []string) string {
		best := ""
		for _, id := range candidates {
			if !res.Tasks[id].Critical {
				continue
			}
			if best == "" {
				best = id
				continue
			}
			db, dc := g.Nodes[best].EstimatedHours, g.Nodes[id].EstimatedHours
			if dc > db || (dc == db && id < best) {
				best = id
			}
		}
		return best
	}

	start := pick(g.Roots)
	if start == "" {
		return nil
	}

	path := []string{start}
	for cur := start; ; {
		next := pick(g.Adj[cur])
		if next == "" {
			break
		}
		path = append(path, next)
		cur = next
	}
	return path
}
