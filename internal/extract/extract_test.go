package extract

import (
	"context"
	"testing"

	"github.com/taskflow/taskflow/internal/models"
)

func TestNormalize(t *testing.T) {
	res, dropped := Normalize(&Result{
		Tasks: []Task{
			{Title: "  Build API  ", Priority: "HIGH", EstimatedHours: 8},
			{Title: "", Priority: "medium"},
			{Title: "Write docs", Priority: "whenever", EstimatedHours: -1},
		},
		Dependencies: []Dependency{
			{TaskTitle: "Write docs", DependsOnTitle: "Build API", Type: "blocks", LagDays: 1},
			{TaskTitle: "Write docs", DependsOnTitle: "Build API", Type: "blocks"}, // duplicate pair
			{TaskTitle: "Write docs", DependsOnTitle: "write docs"},                // self
			{TaskTitle: "Write docs", DependsOnTitle: "Unknown task"},              // dangling title
			{TaskTitle: "Build API", DependsOnTitle: "Write docs", Type: "banana"},
		},
	})

	if len(res.Tasks) != 2 {
		t.Fatalf("tasks = %d, want 2 (untitled dropped)", len(res.Tasks))
	}
	if res.Tasks[0].Title != "Build API" || res.Tasks[0].Priority != models.PriorityHigh {
		t.Errorf("task[0] = %+v", res.Tasks[0])
	}
	if res.Tasks[1].Priority != models.PriorityMedium || res.Tasks[1].EstimatedHours != defaultEstimatedHours {
		t.Errorf("task[1] defaults not applied: %+v", res.Tasks[1])
	}

	if len(res.Dependencies) != 2 {
		t.Fatalf("deps = %d, want 2: %+v", len(res.Dependencies), res.Dependencies)
	}
	// Only the edge referencing an unknown title is dangling; the self
	// and duplicate drops are dedup.
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if res.Dependencies[0].LagDays != 1 {
		t.Errorf("first-seen lag not kept: %+v", res.Dependencies[0])
	}
	if res.Dependencies[1].Type != models.DepBlocks {
		t.Errorf("unknown type not defaulted: %+v", res.Dependencies[1])
	}
}

func TestHeuristic_Extract(t *testing.T) {
	transcript := `Weekly planning notes.

Alice: We need to design the database schema first, about 6 hours.
Bob: I will implement the REST endpoints after the database schema design. This is urgent.
- Write integration tests once the REST endpoints are done
Some chatter that is not an action item.
`
	res, err := Heuristic{}.Extract(context.Background(), transcript)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(res.Tasks) != 3 {
		t.Fatalf("tasks = %d, want 3: %+v", len(res.Tasks), res.Tasks)
	}
	if res.Tasks[0].Assignee != "Alice" {
		t.Errorf("task[0] assignee = %q, want Alice", res.Tasks[0].Assignee)
	}
	if res.Tasks[0].EstimatedHours != 6 {
		t.Errorf("task[0] hours = %v, want 6", res.Tasks[0].EstimatedHours)
	}
	if res.Tasks[1].Priority != models.PriorityCritical {
		t.Errorf("task[1] priority = %q, want critical", res.Tasks[1].Priority)
	}
	if res.Tasks[2].EstimatedHours != defaultEstimatedHours {
		t.Errorf("task[2] hours = %v, want default", res.Tasks[2].EstimatedHours)
	}

	if len(res.Dependencies) < 1 {
		t.Fatalf("no dependencies extracted: %+v", res)
	}
	for _, d := range res.Dependencies {
		if d.Type != models.DepBlocks {
			t.Errorf("dependency type = %q, want blocks", d.Type)
		}
		if d.TaskTitle == d.DependsOnTitle {
			t.Errorf("self dependency survived normalization: %+v", d)
		}
	}
}

func TestHeuristic_EmptyTranscript(t *testing.T) {
	res, err := Heuristic{}.Extract(context.Background(), "just\nchatter\n")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(res.Tasks) != 0 || len(res.Dependencies) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}
