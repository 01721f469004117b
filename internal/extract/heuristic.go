package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/taskflow/taskflow/internal/models"
)

// Heuristic is a rule-based extractor for transcripts in the common
// meeting-notes shape: bullet or "Speaker: ..." lines, one action item per
// line. It is deliberately conservative; anything smarter plugs in behind
// the Extractor interface.
type Heuristic struct{}

var (
	bulletRe  = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	speakerRe = regexp.MustCompile(`^([A-Z][\w .'-]{0,40}):\s+(.*)$`)
	hoursRe   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`)
	actionRe  = regexp.MustCompile(`(?i)\b(?:need to|needs to|should|must|will|todo|to-do|task:|action:)\b`)
	dependRe  = regexp.MustCompile(`(?i)\b(?:after|depends on|blocked by|once|requires|waiting on)\b\s*(.{3,80})`)
)

// Extract scans transcriptText line by line. Lines that look like action
// items become tasks; dependency phrases ("after X", "depends on X") are
// resolved against other task titles by substring match.
func (Heuristic) Extract(_ context.Context, transcriptText string) (*Result, error) {
	res := &Result{}

	type line struct {
		assignee string
		text     string
	}
	var candidates []line

	for _, raw := range strings.Split(transcriptText, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}

		assignee := ""
		if m := speakerRe.FindStringSubmatch(text); m != nil {
			assignee, text = m[1], m[2]
		}
		isBullet := bulletRe.MatchString(text)
		text = strings.TrimSpace(bulletRe.ReplaceAllString(text, ""))

		if !isBullet && !actionRe.MatchString(text) {
			continue
		}
		candidates = append(candidates, line{assignee: assignee, text: text})
	}

	for _, c := range candidates {
		res.Tasks = append(res.Tasks, Task{
			Title:          title(c.text),
			Description:    c.text,
			Priority:       priorityOf(c.text),
			Assignee:       c.assignee,
			EstimatedHours: hoursOf(c.text),
		})
	}

	// Second pass: resolve dependency phrases against the task titles.
	for i, c := range candidates {
		m := dependRe.FindStringSubmatch(c.text)
		if m == nil {
			continue
		}
		phrase := strings.ToLower(m[1])
		for j, other := range res.Tasks {
			if i == j {
				continue
			}
			if overlaps(phrase, strings.ToLower(other.Title)) {
				res.Dependencies = append(res.Dependencies, Dependency{
					TaskTitle:      res.Tasks[i].Title,
					DependsOnTitle: other.Title,
					Type:           models.DepBlocks,
				})
				break
			}
		}
	}

	normalized, _ := Normalize(res)
	return normalized, nil
}

// title trims a task line down to its first sentence, capped for storage.
func title(text string) string {
	if i := strings.IndexAny(text, ".;("); i > 10 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if len(text) > maxTitleLen {
		text = text[:maxTitleLen]
	}
	return text
}

func priorityOf(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "urgent"), strings.Contains(lower, "asap"), strings.Contains(lower, "critical"):
		return models.PriorityCritical
	case strings.Contains(lower, "important"), strings.Contains(lower, "high priority"):
		return models.PriorityHigh
	case strings.Contains(lower, "nice to have"), strings.Contains(lower, "low priority"):
		return models.PriorityLow
	}
	return models.PriorityMedium
}

func hoursOf(text string) float64 {
	m := hoursRe.FindStringSubmatch(text)
	if m == nil {
		return defaultEstimatedHours
	}
	h, err := strconv.ParseFloat(m[1], 64)
	if err != nil || h <= 0 {
		return defaultEstimatedHours
	}
	return h
}

// overlaps reports whether a dependency phrase names another task: either
// string contains the other, or they share two or more significant words.
func overlaps(phrase, title string) bool {
	if strings.Contains(phrase, title) || strings.Contains(title, phrase) {
		return true
	}
	words := 0
	for _, w := range strings.Fields(title) {
		if len(w) < 4 {
			continue
		}
		if strings.Contains(phrase, w) {
			words++
		}
		if words >= 2 {
			return true
		}
	}
	return false
}
