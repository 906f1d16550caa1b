package query

import (
	"math"
	"time"

	"vibelist-api/domain"
)

// Mood labels by completion tier.
const (
	MoodEmpty      = "add something!"
	MoodComplete   = "you did it!!"
	MoodAlmostDone = "almost done!"
	MoodCrushingIt = "crushing it"
	MoodOnARoll    = "on a roll"
	MoodLetsGo     = "let's go"
)

// Summary aggregates the full, unfiltered collection.
type Summary struct {
	Total             int    `json:"total"`
	DoneCount         int    `json:"doneCount"`
	ActiveCount       int    `json:"activeCount"`
	CompletionPercent int    `json:"completionPercent"`
	OverdueCount      int    `json:"overdueCount"`
	Mood              string `json:"mood"`
}

// Today returns the current UTC calendar date in ISO form. All due
// date comparisons in this package are UTC calendar dates.
func Today(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// Summarize computes aggregates over the whole collection. today is an
// ISO date; a task counts as overdue when it is not done and its due
// date is strictly earlier than today.
func Summarize(tasks []domain.Task, today string) Summary {
	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		if t.Done {
			s.DoneCount++
			continue
		}
		if t.DueDate != "" && t.DueDate < today {
			s.OverdueCount++
		}
	}
	s.ActiveCount = s.Total - s.DoneCount
	if s.Total > 0 {
		s.CompletionPercent = int(math.Round(float64(s.DoneCount) / float64(s.Total) * 100))
	}
	s.Mood = mood(s.Total, s.CompletionPercent)
	return s
}

func mood(total, pct int) string {
	switch {
	case total == 0:
		return MoodEmpty
	case pct == 100:
		return MoodComplete
	case pct >= 90:
		return MoodAlmostDone
	case pct >= 60:
		return MoodCrushingIt
	case pct >= 30:
		return MoodOnARoll
	default:
		return MoodLetsGo
	}
}
