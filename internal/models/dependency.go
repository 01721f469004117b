package models

import "time"

// Dependency types. Only blocks and precedes constrain scheduling and
// unlock; parent_of and related_to are informational.
const (
	DepBlocks    = "blocks"
	DepPrecedes  = "precedes"
	DepParentOf  = "parent_of"
	DepRelatedTo = "related_to"
)

// Dependency is a directed edge in the task graph: TaskID depends on
// DependsOnTaskID. LagDays is added to the prerequisite's finish before the
// dependent may start.
type Dependency struct {
	ID              string `gorm:"primaryKey;size:36"`
	TaskID          string `gorm:"size:36;not null;index;index:ix_deps_pair,priority:1"`
	DependsOnTaskID string `gorm:"size:36;not null;index;index:ix_deps_pair,priority:2"`
	DependencyType  string `gorm:"size:16;default:blocks"`
	LagDays         int    `gorm:"default:0"`
	CreatedAt       time.Time

	Task          Task `gorm:"foreignKey:TaskID"`
	DependsOnTask Task `gorm:"foreignKey:DependsOnTaskID"`
}

// SchedulingRelevant reports whether this edge constrains timing and unlock.
func (d Dependency) SchedulingRelevant() bool {
	return d.DependencyType == DepBlocks || d.DependencyType == DepPrecedes
}

// ValidDependencyType reports whether t is a known dependency type.
func ValidDependencyType(t string) bool {
	switch t {
	case DepBlocks, DepPrecedes, DepParentOf, DepRelatedTo:
		return true
	}
	return false
}
