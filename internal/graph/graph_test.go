package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/taskflow/taskflow/internal/models"
)

func task(id string, hours float64) models.Task {
	return models.Task{ID: id, Title: "Task " + id, Status: models.TaskPending, EstimatedHours: hours}
}

func dep(taskID, dependsOn, depType string, lag int) models.Dependency {
	return models.Dependency{TaskID: taskID, DependsOnTaskID: dependsOn, DependencyType: depType, LagDays: lag}
}

func TestBuild_SimpleDAG(t *testing.T) {
	// a -> b -> d
	// a -> c -> d
	tasks := []models.Task{task("a", 1), task("b", 2), task("c", 3), task("d", 4)}
	deps := []models.Dependency{
		dep("b", "a", models.DepBlocks, 0),
		dep("c", "a", models.DepBlocks, 0),
		dep("d", "b", models.DepBlocks, 0),
		dep("d", "c", models.DepPrecedes, 0),
	}

	g, err := Build(tasks, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.NodeCount() != 4 {
		t.Errorf("NodeCount = %d, want 4", g.NodeCount())
	}
	if g.EdgeCount() != 4 {
		t.Errorf("EdgeCount = %d, want 4", g.EdgeCount())
	}
	if !reflect.DeepEqual(g.Roots, []string{"a"}) {
		t.Errorf("Roots = %v, want [a]", g.Roots)
	}
	if !reflect.DeepEqual(g.Leaves, []string{"d"}) {
		t.Errorf("Leaves = %v, want [d]", g.Leaves)
	}
	if !reflect.DeepEqual(g.Adj["a"], []string{"b", "c"}) {
		t.Errorf("Adj[a] = %v, want [b c]", g.Adj["a"])
	}
	if !reflect.DeepEqual(g.RevAdj["d"], []string{"b", "c"}) {
		t.Errorf("RevAdj[d] = %v, want [b c]", g.RevAdj["d"])
	}
}

func TestBuild_InformationalEdgesExcluded(t *testing.T) {
	tasks := []models.Task{task("a", 1), task("b", 1)}
	deps := []models.Dependency{
		dep("b", "a", models.DepParentOf, 0),
		dep("b", "a", models.DepRelatedTo, 0),
	}

	g, err := Build(tasks, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0 (informational edges excluded)", g.EdgeCount())
	}
	if len(g.Roots) != 2 {
		t.Errorf("Roots = %v, want both nodes", g.Roots)
	}
}

func TestBuild_DuplicatePairsDeduplicated(t *testing.T) {
	tasks := []models.Task{task("a", 1), task("b", 1)}
	deps := []models.Dependency{
		dep("b", "a", models.DepBlocks, 2),
		dep("b", "a", models.DepBlocks, 5),
		dep("b", "a", models.DepPrecedes, 9),
	}

	g, err := Build(tasks, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
	if lag := g.LagDays("a", "b"); lag != 2 {
		t.Errorf("LagDays(a,b) = %d, want first-seen 2", lag)
	}
}

func TestBuild_SelfLoopDropped(t *testing.T) {
	tasks := []models.Task{task("a", 1)}
	deps := []models.Dependency{dep("a", "a", models.DepBlocks, 0)}

	g, err := Build(tasks, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0", g.EdgeCount())
	}
}

func TestBuild_DanglingEdges(t *testing.T) {
	tasks := []models.Task{task("a", 1), task("b", 1)}
	deps := []models.Dependency{
		dep("b", "a", models.DepBlocks, 0),
		dep("b", "ghost", models.DepBlocks, 0),
		dep("phantom", "a", models.DepBlocks, 0),
	}

	g, err := Build(tasks, deps)
	if err == nil {
		t.Fatal("expected ConstructionError")
	}
	var cerr *ConstructionError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type = %T, want *ConstructionError", err)
	}
	if len(cerr.Dangling) != 2 {
		t.Errorf("Dangling = %d, want 2", len(cerr.Dangling))
	}
	// The graph is still usable with the valid edge intact.
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
	if g.LagDays("a", "b") != 0 {
		t.Errorf("valid edge a->b missing")
	}
}

func TestBuild_LagPreserved(t *testing.T) {
	tasks := []models.Task{task("a", 1), task("b", 1)}
	deps := []models.Dependency{dep("b", "a", models.DepBlocks, 3)}

	g, err := Build(tasks, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lag := g.LagDays("a", "b"); lag != 3 {
		t.Errorf("LagDays(a,b) = %d, want 3", lag)
	}
	if lag := g.LagDays("b", "a"); lag != 0 {
		t.Errorf("LagDays(b,a) = %d, want 0 for missing edge", lag)
	}
}

func TestBuild_Empty(t *testing.T) {
	g, err := Build(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("empty build: nodes=%d edges=%d, want 0/0", g.NodeCount(), g.EdgeCount())
	}
}
