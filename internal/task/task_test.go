package task

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/db"
	"github.com/taskflow/taskflow/internal/models"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func seedTask(t *testing.T, gdb *gorm.DB, id, status string) {
	t.Helper()
	tk := models.Task{ID: id, TranscriptID: "tr-1", Title: "Task " + id, Status: status, EstimatedHours: 1}
	if err := gdb.Create(&tk).Error; err != nil {
		t.Fatalf("seed task %s: %v", id, err)
	}
}

func seedDep(t *testing.T, gdb *gorm.DB, taskID, dependsOn, depType string) {
	t.Helper()
	d := models.Dependency{ID: taskID + "<-" + dependsOn, TaskID: taskID, DependsOnTaskID: dependsOn, DependencyType: depType}
	if err := gdb.Create(&d).Error; err != nil {
		t.Fatalf("seed dep %s -> %s: %v", taskID, dependsOn, err)
	}
}

func taskStatus(t *testing.T, gdb *gorm.DB, id string) string {
	t.Helper()
	var tk models.Task
	if err := gdb.Where("id = ?", id).First(&tk).Error; err != nil {
		t.Fatalf("load task %s: %v", id, err)
	}
	return tk.Status
}

func TestComplete_NoDependencies(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskInProgress)

	res, err := Complete(gdb, "a", 2.5)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Task.Status != models.TaskCompleted {
		t.Errorf("status = %q, want completed", res.Task.Status)
	}
	if len(res.Unlocked) != 0 {
		t.Errorf("Unlocked = %v, want none", res.Unlocked)
	}

	var tk models.Task
	gdb.Where("id = ?", "a").First(&tk)
	if tk.ActualHours != 2.5 {
		t.Errorf("ActualHours = %v, want 2.5", tk.ActualHours)
	}
}

func TestComplete_RefusedWhileBlocked(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskPending)
	seedTask(t, gdb, "b", models.TaskPending)
	seedDep(t, gdb, "b", "a", models.DepBlocks)

	_, err := Complete(gdb, "b", 0)
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("error = %v, want *BlockedError", err)
	}
	if !reflect.DeepEqual(blocked.Blockers, []string{"a"}) {
		t.Errorf("Blockers = %v, want [a]", blocked.Blockers)
	}
	if got := taskStatus(t, gdb, "b"); got != models.TaskPending {
		t.Errorf("b status changed to %q on refused completion", got)
	}
}

func TestComplete_InformationalDepsDoNotGate(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskPending)
	seedTask(t, gdb, "b", models.TaskPending)
	seedDep(t, gdb, "b", "a", models.DepRelatedTo)

	if _, err := Complete(gdb, "b", 0); err != nil {
		t.Fatalf("Complete with informational dep: %v", err)
	}
}

func TestComplete_ReportsUnlockedSuccessors(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskInProgress)
	seedTask(t, gdb, "b", models.TaskPending)
	seedTask(t, gdb, "c", models.TaskPending)
	seedTask(t, gdb, "d", models.TaskInProgress)
	seedTask(t, gdb, "other", models.TaskPending)
	seedDep(t, gdb, "b", "a", models.DepBlocks)
	seedDep(t, gdb, "c", "a", models.DepPrecedes)
	// c has a second, still-incomplete prerequisite.
	seedDep(t, gdb, "c", "other", models.DepBlocks)
	// d already started; nothing to unlock there.
	seedDep(t, gdb, "d", "a", models.DepBlocks)

	res, err := Complete(gdb, "a", 0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !reflect.DeepEqual(res.Unlocked, []string{"b"}) {
		t.Errorf("Unlocked = %v, want [b]", res.Unlocked)
	}
	if got := taskStatus(t, gdb, "b"); got != models.TaskPending {
		t.Errorf("b status = %q, want pending untouched", got)
	}
}

func TestComplete_UnlockIsDerivedNotStored(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskInProgress)
	seedTask(t, gdb, "b", models.TaskBlocked)
	seedDep(t, gdb, "b", "a", models.DepBlocks)

	res, err := Complete(gdb, "a", 0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !reflect.DeepEqual(res.Unlocked, []string{"b"}) {
		t.Errorf("Unlocked = %v, want [b]", res.Unlocked)
	}
	// The stored status is not rewritten; leaving blocked takes an
	// explicit reset.
	if got := taskStatus(t, gdb, "b"); got != models.TaskBlocked {
		t.Errorf("b status = %q, want still blocked", got)
	}
	blocked, _, err := IsBlocked(gdb, "b")
	if err != nil {
		t.Fatalf("IsBlocked: %v", err)
	}
	if blocked {
		t.Error("b still derived as blocked after its only prerequisite completed")
	}
}

func TestComplete_ChainUnlocksOneLevel(t *testing.T) {
	// a -> b -> c: completing a unlocks b only; c waits for b.
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskInProgress)
	seedTask(t, gdb, "b", models.TaskPending)
	seedTask(t, gdb, "c", models.TaskPending)
	seedDep(t, gdb, "b", "a", models.DepBlocks)
	seedDep(t, gdb, "c", "b", models.DepBlocks)

	res, err := Complete(gdb, "a", 0)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !reflect.DeepEqual(res.Unlocked, []string{"b"}) {
		t.Errorf("Unlocked = %v, want [b]", res.Unlocked)
	}
	blocked, _, err := IsBlocked(gdb, "c")
	if err != nil {
		t.Fatalf("IsBlocked: %v", err)
	}
	if !blocked {
		t.Error("c no longer gated on b")
	}
}

func TestComplete_BlockedRequiresReset(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskBlocked)

	_, err := Complete(gdb, "a", 0)
	if err == nil || !strings.Contains(err.Error(), "invalid status transition") {
		t.Fatalf("Complete blocked = %v, want transition error", err)
	}

	if _, err := Reset(gdb, "a"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := Complete(gdb, "a", 0); err != nil {
		t.Fatalf("Complete after reset: %v", err)
	}
}

func TestComplete_NotFound(t *testing.T) {
	gdb := testDB(t)
	_, err := Complete(gdb, "missing", 0)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestStart_GatedOnPrerequisites(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskPending)
	seedTask(t, gdb, "b", models.TaskPending)
	seedDep(t, gdb, "b", "a", models.DepBlocks)

	var blocked *BlockedError
	if _, err := Start(gdb, "b"); !errors.As(err, &blocked) {
		t.Fatalf("error = %v, want *BlockedError", err)
	}

	if _, err := Complete(gdb, "a", 0); err != nil {
		t.Fatalf("Complete a: %v", err)
	}
	tk, err := Start(gdb, "b")
	if err != nil {
		t.Fatalf("Start after prerequisite done: %v", err)
	}
	if tk.Status != models.TaskInProgress {
		t.Errorf("status = %q, want in_progress", tk.Status)
	}
}

func TestBlockAndReset_AlwaysPermitted(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskCompleted)

	tk, err := Block(gdb, "a")
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	if tk.Status != models.TaskBlocked {
		t.Errorf("status = %q, want blocked", tk.Status)
	}

	tk, err = Reset(gdb, "a")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if tk.Status != models.TaskPending {
		t.Errorf("status = %q, want pending", tk.Status)
	}
}

func TestUpdate_ValidatesStatusAndPriority(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskCompleted)

	if _, err := Update(gdb, "a", map[string]interface{}{"status": "in_progress"}); err == nil {
		t.Error("expected error for completed -> in_progress")
	}
	if _, err := Update(gdb, "a", map[string]interface{}{"status": "bogus"}); err == nil {
		t.Error("expected error for unknown status")
	}
	if _, err := Update(gdb, "a", map[string]interface{}{"priority": "urgent"}); err == nil {
		t.Error("expected error for unknown priority")
	}

	tk, err := Update(gdb, "a", map[string]interface{}{"assignee": "dana", "priority": models.PriorityHigh})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if tk.Assignee != "dana" || tk.Priority != models.PriorityHigh {
		t.Errorf("assignee/priority = %q/%q", tk.Assignee, tk.Priority)
	}
}

func TestIsBlocked(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskPending)
	seedTask(t, gdb, "b", models.TaskPending)
	seedDep(t, gdb, "b", "a", models.DepBlocks)

	blocked, blockers, err := IsBlocked(gdb, "b")
	if err != nil {
		t.Fatalf("IsBlocked: %v", err)
	}
	if !blocked || !reflect.DeepEqual(blockers, []string{"a"}) {
		t.Errorf("IsBlocked = %v %v, want true [a]", blocked, blockers)
	}

	if _, err := Complete(gdb, "a", 0); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	blocked, blockers, err = IsBlocked(gdb, "b")
	if err != nil {
		t.Fatalf("IsBlocked: %v", err)
	}
	if blocked || len(blockers) != 0 {
		t.Errorf("IsBlocked = %v %v, want false none", blocked, blockers)
	}

	if _, _, err := IsBlocked(gdb, "missing"); err == nil {
		t.Error("expected error for unknown task")
	}
}

func TestReadyTasks(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskPending)
	seedTask(t, gdb, "b", models.TaskPending) // gated on a
	seedTask(t, gdb, "c", models.TaskCompleted)
	seedTask(t, gdb, "d", models.TaskPending) // gated on completed c only
	seedDep(t, gdb, "b", "a", models.DepBlocks)
	seedDep(t, gdb, "d", "c", models.DepPrecedes)

	ready, err := ReadyTasks(gdb, "tr-1")
	if err != nil {
		t.Fatalf("ReadyTasks: %v", err)
	}
	ids := make([]string, len(ready))
	for i, tk := range ready {
		ids[i] = tk.ID
	}
	if !reflect.DeepEqual(ids, []string{"a", "d"}) {
		t.Errorf("ready = %v, want [a d]", ids)
	}
}

func TestList_Filters(t *testing.T) {
	gdb := testDB(t)
	seedTask(t, gdb, "a", models.TaskPending)
	seedTask(t, gdb, "b", models.TaskCompleted)

	tasks, err := List(gdb, ListFilters{TranscriptID: "tr-1", Status: models.TaskCompleted})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "b" {
		t.Errorf("List = %v, want just b", tasks)
	}
}
