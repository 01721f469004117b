package models

import "time"

// Task statuses.
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskCompleted  = "completed"
	TaskBlocked    = "blocked"
)

// Task priorities.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Task is a unit of work extracted from a transcript. Status mutations go
// through the task package so the dependency invariant holds: a completed
// task never has an incomplete blocks/precedes predecessor.
type Task struct {
	ID             string  `gorm:"primaryKey;size:36"`
	TranscriptID   string  `gorm:"size:36;not null;index;index:ix_tasks_transcript_status,priority:1"`
	Title          string  `gorm:"size:500;not null"`
	Description    string  `gorm:"type:text"`
	Status         string  `gorm:"size:16;default:pending;index:ix_tasks_transcript_status,priority:2"`
	Priority       string  `gorm:"size:16;default:medium"`
	EstimatedHours float64 `gorm:"default:0"`
	ActualHours    float64 `gorm:"default:0"`
	Assignee       string  `gorm:"size:255"`
	Deadline       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Dependencies []Dependency `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	Dependents   []Dependency `gorm:"foreignKey:DependsOnTaskID;constraint:OnDelete:CASCADE"`
}

// ValidPriority reports whether p is a known priority level.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ValidTaskStatus reports whether s is a known task status.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskBlocked:
		return true
	}
	return false
}
