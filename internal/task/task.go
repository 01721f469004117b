// Package task provides task lifecycle operations. Completion and start are
// gated on dependencies; completing a task unlocks blocked dependents whose
// prerequisites are all done.
package task

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/taskflow/taskflow/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDependencyNotSatisfied is the sentinel wrapped by every *BlockedError.
var ErrDependencyNotSatisfied = errors.New("task: dependency not satisfied")

// BlockedError is returned when a lifecycle transition is refused because
// scheduling-relevant prerequisites are not completed.
type BlockedError struct {
	TaskID   string
	Blockers []string // incomplete prerequisite task IDs, sorted
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("task: %s is blocked by %d incomplete dependencies: %v", e.TaskID, len(e.Blockers), e.Blockers)
}

func (e *BlockedError) Unwrap() error { return ErrDependencyNotSatisfied }

// ListFilters holds optional filters for listing tasks.
type ListFilters struct {
	TranscriptID string
	Status       string
	Priority     string
	Assignee     string
}

// ValidTransitions maps each status to its valid next statuses. Blocked
// tasks leave only through an explicit reset to pending; "any → blocked"
// is the one special case, handled in isValidTransition.
var ValidTransitions = map[string][]string{
	models.TaskPending:    {models.TaskInProgress, models.TaskCompleted},
	models.TaskInProgress: {models.TaskCompleted, models.TaskPending},
	models.TaskCompleted:  {models.TaskPending},
	models.TaskBlocked:    {models.TaskPending},
}

// CompleteResult reports a successful completion and the direct successors
// whose prerequisites are now all completed.
type CompleteResult struct {
	Task     *models.Task
	Unlocked []string
}

// Get retrieves a task by ID, preloading its dependency edges.
func Get(db *gorm.DB, id string) (*models.Task, error) {
	var t models.Task
	if err := db.Preload("Dependencies").Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task: not found: %s", id)
		}
		return nil, fmt.Errorf("task: get %s: %w", id, err)
	}
	return &t, nil
}

// List returns tasks matching the given filters, ordered by creation time.
func List(db *gorm.DB, filters ListFilters) ([]models.Task, error) {
	q := db.Model(&models.Task{})

	if filters.TranscriptID != "" {
		q = q.Where("transcript_id = ?", filters.TranscriptID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Priority != "" {
		q = q.Where("priority = ?", filters.Priority)
	}
	if filters.Assignee != "" {
		q = q.Where("assignee = ?", filters.Assignee)
	}

	var tasks []models.Task
	if err := q.Order("created_at ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task: list: %w", err)
	}
	return tasks, nil
}

// Start moves a task to in_progress. Refused with *BlockedError while any
// scheduling-relevant prerequisite is incomplete.
func Start(db *gorm.DB, id string) (*models.Task, error) {
	var started models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		t, err := lockTask(tx, id)
		if err != nil {
			return err
		}
		blockers, err := incompleteBlockers(tx, id)
		if err != nil {
			return err
		}
		if len(blockers) > 0 {
			return &BlockedError{TaskID: id, Blockers: blockers}
		}
		if !isValidTransition(t.Status, models.TaskInProgress) {
			return transitionError(t, models.TaskInProgress)
		}

		t.Status = models.TaskInProgress
		if err := tx.Model(&models.Task{}).Where("id = ?", id).
			Update("status", models.TaskInProgress).Error; err != nil {
			return fmt.Errorf("task: start %s: %w", id, err)
		}
		started = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &started, nil
}

// Complete marks a task completed and reports the direct successors whose
// prerequisites are now all completed. The unlock is derived, not stored:
// successor rows are left untouched. Refused with *BlockedError while any
// scheduling-relevant prerequisite is incomplete. The whole operation runs
// in one transaction so a successor is never reported unlocked against a
// completion that rolled back.
func Complete(db *gorm.DB, id string, actualHours float64) (*CompleteResult, error) {
	var res CompleteResult
	err := db.Transaction(func(tx *gorm.DB) error {
		t, err := lockTask(tx, id)
		if err != nil {
			return err
		}
		blockers, err := incompleteBlockers(tx, id)
		if err != nil {
			return err
		}
		if len(blockers) > 0 {
			return &BlockedError{TaskID: id, Blockers: blockers}
		}
		if !isValidTransition(t.Status, models.TaskCompleted) {
			return transitionError(t, models.TaskCompleted)
		}

		updates := map[string]interface{}{
			"status":     models.TaskCompleted,
			"updated_at": time.Now(),
		}
		if actualHours > 0 {
			updates["actual_hours"] = actualHours
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("task: complete %s: %w", id, err)
		}

		unlocked, err := newlyUnlocked(tx, id)
		if err != nil {
			return err
		}

		t.Status = models.TaskCompleted
		res = CompleteResult{Task: t, Unlocked: unlocked}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Block moves a task to blocked. Always permitted.
func Block(db *gorm.DB, id string) (*models.Task, error) {
	return forceStatus(db, id, models.TaskBlocked)
}

// Reset moves a task back to pending. Always permitted; completed tasks can
// be reopened when an estimate turns out wrong.
func Reset(db *gorm.DB, id string) (*models.Task, error) {
	return forceStatus(db, id, models.TaskPending)
}

// Update modifies task fields. Status changes are validated against
// ValidTransitions; priority values against the known levels.
func Update(db *gorm.DB, id string, updates map[string]interface{}) (*models.Task, error) {
	var t models.Task
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task: not found: %s", id)
		}
		return nil, fmt.Errorf("task: get %s for update: %w", id, err)
	}

	if newStatus, ok := updates["status"].(string); ok {
		if !models.ValidTaskStatus(newStatus) {
			return nil, fmt.Errorf("task: unknown status %q", newStatus)
		}
		if !isValidTransition(t.Status, newStatus) {
			return nil, transitionError(&t, newStatus)
		}
	}
	if priority, ok := updates["priority"].(string); ok {
		if !models.ValidPriority(priority) {
			return nil, fmt.Errorf("task: unknown priority %q", priority)
		}
	}

	if err := db.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("task: update %s: %w", id, err)
	}
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		return nil, fmt.Errorf("task: reload %s: %w", id, err)
	}
	return &t, nil
}

// IsBlocked reports whether the task has incomplete scheduling-relevant
// prerequisites, and which ones.
func IsBlocked(db *gorm.DB, id string) (bool, []string, error) {
	var count int64
	if err := db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, nil, fmt.Errorf("task: check %s: %w", id, err)
	}
	if count == 0 {
		return false, nil, fmt.Errorf("task: not found: %s", id)
	}

	blockers, err := incompleteBlockers(db, id)
	if err != nil {
		return false, nil, err
	}
	return len(blockers) > 0, blockers, nil
}

// ReadyTasks returns pending tasks of a transcript with no incomplete
// scheduling-relevant prerequisites, ordered by priority then creation time.
func ReadyTasks(db *gorm.DB, transcriptID string) ([]models.Task, error) {
	q := db.Where("status = ?", models.TaskPending).
		Where("id NOT IN (?)",
			db.Table("dependencies").
				Select("dependencies.task_id").
				Joins("JOIN tasks prereq ON dependencies.depends_on_task_id = prereq.id").
				Where("dependencies.dependency_type IN ?", []string{models.DepBlocks, models.DepPrecedes}).
				Where("prereq.status != ?", models.TaskCompleted),
		)

	if transcriptID != "" {
		q = q.Where("transcript_id = ?", transcriptID)
	}

	var tasks []models.Task
	if err := q.Order("created_at ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task: ready: %w", err)
	}
	return tasks, nil
}

// Delete removes a task and every dependency edge touching it.
func Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ? OR depends_on_task_id = ?", id, id).
			Delete(&models.Dependency{}).Error; err != nil {
			return fmt.Errorf("task: delete edges of %s: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Task{})
		if res.Error != nil {
			return fmt.Errorf("task: delete %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("task: not found: %s", id)
		}
		return nil
	})
}

// lockTask loads a task inside a transaction, with a row lock where the
// dialect supports one. SQLite serializes writers already.
func lockTask(tx *gorm.DB, id string) (*models.Task, error) {
	q := tx.Where("id = ?", id)
	if tx.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var t models.Task
	if err := q.First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task: not found: %s", id)
		}
		return nil, fmt.Errorf("task: get %s: %w", id, err)
	}
	return &t, nil
}

// incompleteBlockers returns the scheduling-relevant prerequisites of id
// that are not completed, sorted for stable reporting.
func incompleteBlockers(db *gorm.DB, id string) ([]string, error) {
	var blockers []string
	err := db.Table("dependencies").
		Joins("JOIN tasks prereq ON dependencies.depends_on_task_id = prereq.id").
		Where("dependencies.task_id = ?", id).
		Where("dependencies.dependency_type IN ?", []string{models.DepBlocks, models.DepPrecedes}).
		Where("prereq.status != ?", models.TaskCompleted).
		Pluck("dependencies.depends_on_task_id", &blockers).Error
	if err != nil {
		return nil, fmt.Errorf("task: blockers of %s: %w", id, err)
	}
	sort.Strings(blockers)
	return blockers, nil
}

// newlyUnlocked returns the direct successors of completedID whose
// scheduling-relevant prerequisites are now all completed. The unlock is
// derived, never stored: successor rows keep whatever status they have,
// and readiness stays a read-time property (IsBlocked, ReadyTasks).
// Successors already started or completed are not reported.
func newlyUnlocked(tx *gorm.DB, completedID string) ([]string, error) {
	var deps []models.Dependency
	if err := tx.Where("depends_on_task_id = ? AND dependency_type IN ?",
		completedID, []string{models.DepBlocks, models.DepPrecedes}).Find(&deps).Error; err != nil {
		return nil, fmt.Errorf("task: dependents of %s: %w", completedID, err)
	}

	var unlocked []string
	seen := make(map[string]bool, len(deps))
	for _, d := range deps {
		if seen[d.TaskID] {
			continue
		}
		seen[d.TaskID] = true

		var dependent models.Task
		if err := tx.Where("id = ?", d.TaskID).First(&dependent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("task: load dependent %s: %w", d.TaskID, err)
		}
		if dependent.Status != models.TaskPending && dependent.Status != models.TaskBlocked {
			continue
		}

		blockers, err := incompleteBlockers(tx, d.TaskID)
		if err != nil {
			return nil, err
		}
		if len(blockers) == 0 {
			unlocked = append(unlocked, d.TaskID)
		}
	}
	sort.Strings(unlocked)
	return unlocked, nil
}

// forceStatus applies one of the always-permitted transitions.
func forceStatus(db *gorm.DB, id, status string) (*models.Task, error) {
	var t models.Task
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task: not found: %s", id)
		}
		return nil, fmt.Errorf("task: get %s: %w", id, err)
	}
	if err := db.Model(&models.Task{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("task: set %s to %s: %w", id, status, err)
	}
	t.Status = status
	return &t, nil
}

// isValidTransition checks whether a status transition is allowed.
func isValidTransition(from, to string) bool {
	if to == models.TaskBlocked {
		return true
	}
	if from == to {
		return true
	}
	valid, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, v := range valid {
		if v == to {
			return true
		}
	}
	return false
}

func transitionError(t *models.Task, to string) error {
	return fmt.Errorf("task: invalid status transition from %q to %q; valid transitions: %v",
		t.Status, to, ValidTransitions[t.Status])
}
