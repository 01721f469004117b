package extract

import (
	"strings"

	"github.com/taskflow/taskflow/internal/models"
)

const (
	maxTitleLen           = 500
	defaultEstimatedHours = 4
)

// Normalize cleans a raw extraction result in place and returns it along
// with the number of dangling dependencies it dropped: untitled tasks are
// removed, priorities and estimates get defaults, and dependencies are
// filtered to known titles with self-references and duplicate pairs
// removed. Only edges referencing unknown or empty titles count as
// dropped; self-references and duplicates are dedup, not data loss.
// Edge direction and lag are preserved.
func Normalize(res *Result) (*Result, int) {
	tasks := res.Tasks[:0]
	titles := make(map[string]bool, len(res.Tasks))
	for _, t := range res.Tasks {
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			continue
		}
		if len(t.Title) > maxTitleLen {
			t.Title = t.Title[:maxTitleLen]
		}
		t.Priority = strings.ToLower(t.Priority)
		if !models.ValidPriority(t.Priority) {
			t.Priority = models.PriorityMedium
		}
		if t.EstimatedHours < 0 {
			t.EstimatedHours = defaultEstimatedHours
		}
		t.Assignee = strings.TrimSpace(t.Assignee)
		tasks = append(tasks, t)
		titles[strings.ToLower(t.Title)] = true
	}
	res.Tasks = tasks

	dropped := 0
	deps := res.Dependencies[:0]
	seen := make(map[[2]string]bool, len(res.Dependencies))
	for _, d := range res.Dependencies {
		d.TaskTitle = strings.TrimSpace(d.TaskTitle)
		d.DependsOnTitle = strings.TrimSpace(d.DependsOnTitle)

		from := strings.ToLower(d.DependsOnTitle)
		to := strings.ToLower(d.TaskTitle)
		if from == "" || to == "" || !titles[from] || !titles[to] {
			dropped++
			continue
		}
		if from == to {
			continue
		}
		key := [2]string{to, from}
		if seen[key] {
			continue
		}
		seen[key] = true

		if !models.ValidDependencyType(d.Type) {
			d.Type = models.DepBlocks
		}
		if d.LagDays < 0 {
			d.LagDays = 0
		}
		deps = append(deps, d)
	}
	res.Dependencies = deps
	return res, dropped
}
