package models

import "time"

// Transcript statuses.
const (
	TranscriptUploaded  = "uploaded"
	TranscriptAnalyzing = "analyzing"
	TranscriptAnalyzed  = "analyzed"
	TranscriptFailed    = "failed"
)

// Transcript is an uploaded project transcript awaiting or holding analysis.
type Transcript struct {
	ID           string `gorm:"primaryKey;size:36"`
	Filename     string `gorm:"size:255;not null"`
	Content      string `gorm:"type:text;not null"`
	ContentHash  string `gorm:"size:64;not null;uniqueIndex"`
	Status       string `gorm:"size:16;default:uploaded;index"`
	ErrorMessage string `gorm:"type:text"`
	// AnalysisResult caches the last job's diagnostics summary as JSON.
	AnalysisResult string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Tasks []Task `gorm:"foreignKey:TranscriptID;constraint:OnDelete:CASCADE"`
	Jobs  []Job  `gorm:"foreignKey:TranscriptID;constraint:OnDelete:CASCADE"`
}
