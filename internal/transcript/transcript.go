// Package transcript handles transcript intake and lookup. Uploads are
// deduplicated by content hash: re-submitting identical content returns the
// existing record instead of creating a second one.
package transcript

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/taskflow/taskflow/internal/db"
	"github.com/taskflow/taskflow/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for a transcript upload.
type CreateOpts struct {
	Filename string
	Content  string
}

// CreateResult reports the stored transcript and whether the upload was a
// duplicate of existing content.
type CreateResult struct {
	Transcript *models.Transcript
	Duplicate  bool
}

// ContentHash returns the canonical hash for transcript content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Create stores a transcript, or returns the existing record when the same
// content was uploaded before.
func Create(db *gorm.DB, opts CreateOpts) (*CreateResult, error) {
	if strings.TrimSpace(opts.Content) == "" {
		return nil, fmt.Errorf("transcript: content is required")
	}
	if opts.Filename == "" {
		opts.Filename = "transcript.txt"
	}

	hash := ContentHash(opts.Content)

	var existing models.Transcript
	err := db.Where("content_hash = ?", hash).First(&existing).Error
	if err == nil {
		return &CreateResult{Transcript: &existing, Duplicate: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("transcript: check content hash: %w", err)
	}

	tr := models.Transcript{
		ID:          uuid.NewString(),
		Filename:    opts.Filename,
		Content:     opts.Content,
		ContentHash: hash,
		Status:      models.TranscriptUploaded,
	}
	if err := db.Create(&tr).Error; err != nil {
		// Concurrent upload of the same content: the unique index on
		// content_hash decides the winner, lose gracefully.
		if isDuplicateHash(db, err, hash, &existing) {
			return &CreateResult{Transcript: &existing, Duplicate: true}, nil
		}
		return nil, fmt.Errorf("transcript: create: %w", err)
	}
	return &CreateResult{Transcript: &tr}, nil
}

// Get retrieves a transcript by ID.
func Get(db *gorm.DB, id string) (*models.Transcript, error) {
	var tr models.Transcript
	if err := db.Where("id = ?", id).First(&tr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transcript: not found: %s", id)
		}
		return nil, fmt.Errorf("transcript: get %s: %w", id, err)
	}
	return &tr, nil
}

// List returns all transcripts, newest first.
func List(db *gorm.DB) ([]models.Transcript, error) {
	var trs []models.Transcript
	if err := db.Order("created_at DESC, id ASC").Find(&trs).Error; err != nil {
		return nil, fmt.Errorf("transcript: list: %w", err)
	}
	return trs, nil
}

// SetStatus updates transcript status and, for failures, the error message.
func SetStatus(db *gorm.DB, id, status, errorMessage string) error {
	updates := map[string]interface{}{"status": status}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	res := db.Model(&models.Transcript{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("transcript: set status of %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transcript: not found: %s", id)
	}
	return nil
}

func isDuplicateHash(gdb *gorm.DB, err error, hash string, out *models.Transcript) bool {
	if !db.IsDuplicateEntry(err) {
		return false
	}
	return gdb.Where("content_hash = ?", hash).First(out).Error == nil
}
