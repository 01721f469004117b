// Package notify delivers analysis and task lifecycle events to chat
// channels. Delivery is best-effort: callers log failures and move on.
package notify

import (
	"context"
	"fmt"
)

// Event kinds.
const (
	KindAnalysisCompleted = "analysis_completed"
	KindAnalysisFailed    = "analysis_failed"
	KindTaskCompleted     = "task_completed"
)

// Event is one notification payload.
type Event struct {
	Kind            string
	TranscriptID    string
	TaskID          string
	TaskTitle       string
	TaskCount       int
	DependencyCount int
	Message         string // optional extra detail (error text, unlock list)
}

// Notifier delivers events to one destination.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Format renders the standard one-line message for an event.
func Format(ev Event) string {
	switch ev.Kind {
	case KindAnalysisCompleted:
		return fmt.Sprintf("Analysis completed for transcript %s: %d tasks, %d dependencies",
			ev.TranscriptID, ev.TaskCount, ev.DependencyCount)
	case KindAnalysisFailed:
		return fmt.Sprintf("Analysis failed for transcript %s: %s", ev.TranscriptID, ev.Message)
	case KindTaskCompleted:
		msg := fmt.Sprintf("Task completed: %s (%s)", ev.TaskTitle, ev.TaskID)
		if ev.Message != "" {
			msg += "; unlocked: " + ev.Message
		}
		return msg
	}
	return fmt.Sprintf("%s: transcript %s", ev.Kind, ev.TranscriptID)
}

// Multi fans an event out to several notifiers, returning the first error
// after attempting all of them.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
