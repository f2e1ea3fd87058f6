package goalrisk

import (
	"fmt"
	"math"
	"slices"
	"time"
)

const defaultGoalSpan = 30 * 24 * time.Hour

// NormalizeGoal validates a goal at the ingestion boundary and returns a
// copy that the scoring code can trust: finite progress in [0,100], history
// sorted by date with unusable points dropped, and non-zero dates. Each
// substitution is reported as a data issue.
func NormalizeGoal(goal GoalRecord, now time.Time) (GoalRecord, []string) {
	var issues []string
	out := goal

	if !isFinite(out.Progress) {
		issues = append(issues, "progress was not a finite number; treated as 0")
		out.Progress = 0
	}
	out.Progress = clamp(out.Progress, 0, 100)

	history := make([]ProgressUpdate, 0, len(goal.History))
	dropped := 0
	for _, u := range goal.History {
		if u.Date.IsZero() || !isFinite(u.Progress) {
			dropped++
			continue
		}
		u.Progress = clamp(u.Progress, 0, 100)
		history = append(history, u)
	}
	if dropped > 0 {
		issues = append(issues, fmt.Sprintf("%d progress updates dropped for missing date or invalid progress", dropped))
	}
	out.History = sortHistory(history)

	if out.DueDate.IsZero() {
		issues = append(issues, "missing due date; assumed 30 days from now")
		out.DueDate = now.Add(defaultGoalSpan)
	}
	if out.StartDate.IsZero() {
		switch {
		case len(out.History) > 0:
			out.StartDate = out.History[0].Date
			issues = append(issues, "missing start date; using first progress update")
		default:
			out.StartDate = out.DueDate.Add(-defaultGoalSpan)
			if out.StartDate.After(now) {
				out.StartDate = now
			}
			issues = append(issues, "missing start date; assumed 30 days before due date")
		}
	}
	if out.StartDate.After(out.DueDate) {
		issues = append(issues, "start date is after due date")
	}
	return out, issues
}

func sortHistory(history []ProgressUpdate) []ProgressUpdate {
	out := slices.Clone(history)
	slices.SortStableFunc(out, func(a, b ProgressUpdate) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// daysUntil counts partial days as whole days; zero or less means overdue.
func daysUntil(now, due time.Time) int {
	return int(math.Ceil(daysBetween(now, due)))
}
