package graph

import (
	"testing"

	"github.com/taskflow/taskflow/internal/models"
)

func TestBottlenecks_Ranking(t *testing.T) {
	// hub blocks three tasks and depends on one: in=1 out=3, score 5.5.
	tasks := []models.Task{
		task("hub", 1), task("src", 1),
		task("w1", 1), task("w2", 1), task("w3", 1),
	}
	deps := []models.Dependency{
		dep("hub", "src", models.DepBlocks, 0),
		dep("w1", "hub", models.DepBlocks, 0),
		dep("w2", "hub", models.DepBlocks, 0),
		dep("w3", "hub", models.DepBlocks, 0),
	}
	g := mustBuild(t, tasks, deps)

	ranked := Bottlenecks(g)
	if len(ranked) != 5 {
		t.Fatalf("len = %d, want 5 (isolated nodes included)", len(ranked))
	}

	top := ranked[0]
	if top.TaskID != "hub" {
		t.Fatalf("top = %q, want hub", top.TaskID)
	}
	if top.InDegree != 1 || top.OutDegree != 3 {
		t.Errorf("hub degrees = in %d out %d, want 1/3", top.InDegree, top.OutDegree)
	}
	if top.TotalConnections != 4 {
		t.Errorf("hub TotalConnections = %d, want 4", top.TotalConnections)
	}
	if top.Score != 1*1.0+3*1.5 {
		t.Errorf("hub Score = %v, want 5.5", top.Score)
	}
}

func TestBottlenecks_OutDegreeWeighted(t *testing.T) {
	// fan-out node (out=2) must outrank fan-in node (in=2).
	tasks := []models.Task{
		task("fanout", 1), task("fanin", 1),
		task("m1", 1), task("m2", 1),
	}
	deps := []models.Dependency{
		dep("m1", "fanout", models.DepBlocks, 0),
		dep("m2", "fanout", models.DepBlocks, 0),
		dep("fanin", "m1", models.DepBlocks, 0),
		dep("fanin", "m2", models.DepBlocks, 0),
	}
	g := mustBuild(t, tasks, deps)

	ranked := Bottlenecks(g)
	if ranked[0].TaskID != "fanout" {
		t.Errorf("top = %q, want fanout (out-degree weighted higher)", ranked[0].TaskID)
	}
	var fanin Bottleneck
	for _, b := range ranked {
		if b.TaskID == "fanin" {
			fanin = b
		}
	}
	if ranked[0].Score <= fanin.Score {
		t.Errorf("fanout score %v not greater than fanin score %v", ranked[0].Score, fanin.Score)
	}
}

func TestBottlenecks_TieBreakByID(t *testing.T) {
	// Two structurally identical nodes: order must be by ID.
	tasks := []models.Task{task("b", 1), task("a", 1), task("sink", 1)}
	deps := []models.Dependency{
		dep("sink", "a", models.DepBlocks, 0),
		dep("sink", "b", models.DepBlocks, 0),
	}
	g := mustBuild(t, tasks, deps)

	ranked := Bottlenecks(g)
	// sink has in=2 (score 2.0), a and b each out=1 (score 1.5).
	if ranked[0].TaskID != "sink" {
		t.Fatalf("top = %q, want sink", ranked[0].TaskID)
	}
	if ranked[1].TaskID != "a" || ranked[2].TaskID != "b" {
		t.Errorf("tie order = %q, %q; want a then b", ranked[1].TaskID, ranked[2].TaskID)
	}
}

func TestBottlenecks_IsolatedNodes(t *testing.T) {
	g := mustBuild(t, []models.Task{task("solo", 2)}, nil)
	ranked := Bottlenecks(g)
	if len(ranked) != 1 {
		t.Fatalf("len = %d, want 1", len(ranked))
	}
	if ranked[0].Score != 0 || ranked[0].TotalConnections != 0 {
		t.Errorf("isolated node score = %v connections = %d, want zeros",
			ranked[0].Score, ranked[0].TotalConnections)
	}
}

func TestBottlenecks_Empty(t *testing.T) {
	g := mustBuild(t, nil, nil)
	if ranked := Bottlenecks(g); len(ranked) != 0 {
		t.Errorf("len = %d, want 0", len(ranked))
	}
}
