package models

import "time"

// GraphRecord caches computed graph metrics for one transcript. It is a
// derived artifact: any task or dependency mutation makes it stale, and the
// API recomputes rather than serving a stale row unless the caller asks for
// the cached copy.
type GraphRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	TranscriptID string `gorm:"size:36;not null;uniqueIndex"`
	NodesCount   int    `gorm:"default:0"`
	EdgesCount   int    `gorm:"default:0"`
	// CriticalPath is a JSON array of task IDs in path order.
	CriticalPath       string  `gorm:"type:text"`
	CriticalPathLength int     `gorm:"default:0"`
	TotalDurationHours float64 `gorm:"default:0"`
	TotalDurationDays  float64 `gorm:"default:0"`
	// SlackData is a JSON map of task ID to slack hours.
	SlackData string `gorm:"type:text"`
	// GraphData is the renderable node/edge payload as JSON.
	GraphData string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
