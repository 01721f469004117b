// Package extract turns transcript text into candidate tasks and dependency
// edges. The Extractor interface keeps the NL machinery swappable; Heuristic
// is the built-in implementation.
package extract

import (
	"context"
	"time"
)

// Task is a candidate task produced by an extractor, keyed by title until
// persistence assigns IDs.
type Task struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	Assignee       string     `json:"assignee"`
	EstimatedHours float64    `json:"estimated_hours"`
	Deadline       *time.Time `json:"deadline,omitempty"`
}

// Dependency links two candidate tasks by title.
type Dependency struct {
	TaskTitle      string `json:"task_title"`
	DependsOnTitle string `json:"depends_on_title"`
	Type           string `json:"type"`
	LagDays        int    `json:"lag_days"`
}

// Result is the raw extractor output, before normalization.
type Result struct {
	Tasks        []Task       `json:"tasks"`
	Dependencies []Dependency `json:"dependencies"`
}

// Extractor produces tasks and dependencies from transcript text.
type Extractor interface {
	Extract(ctx context.Context, transcriptText string) (*Result, error)
}
