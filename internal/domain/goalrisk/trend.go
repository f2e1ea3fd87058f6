package goalrisk

import (
	"math"
	"time"
)

const (
	recentWindow       = 5
	fallbackConfidence = 30
	maxUncertainty     = 10

	// velocities closer than this are treated as equal
	momentumTolerance = 1e-9
)

var projectionOffsets = []int{7, 14, 21}

// AnalyzeTrend derives velocity, required velocity and short-term
// projections from a goal's progress history.
func AnalyzeTrend(history []ProgressUpdate, progress float64, start, due, now time.Time) TrendResult {
	history = sortHistory(history)
	progress = clamp(progress, 0, 100)
	days := daysUntil(now, due)

	result := TrendResult{Momentum: MomentumSteady}
	if len(history) < 2 {
		elapsed := daysBetween(start, now)
		if elapsed > 0 {
			result.ProgressVelocity = progress / elapsed
		}
		result.Confidence = fallbackConfidence
	} else {
		result.ProgressVelocity = windowVelocity(history[max(0, len(history)-recentWindow):])
		result.Momentum = momentum(history)
		result.WeekOverWeekDelta = weekOverWeekDelta(history, progress, now)
		result.Confidence = math.Min(100, float64(len(history))*10+20)
	}
	result.Accelerating = result.Momentum == MomentumAccelerating
	result.RequiredVelocity = requiredVelocity(progress, days)
	result.VelocityGap = result.RequiredVelocity - result.ProgressVelocity
	result.Projections = project(progress, result.ProgressVelocity, days, now)
	return result
}

// windowVelocity is Σdelta/Σdays over consecutive pairs with a positive gap.
func windowVelocity(points []ProgressUpdate) float64 {
	var delta, span float64
	for i := 1; i < len(points); i++ {
		gap := daysBetween(points[i-1].Date, points[i].Date)
		if gap <= 0 {
			continue
		}
		delta += points[i].Progress - points[i-1].Progress
		span += gap
	}
	if span == 0 {
		return 0
	}
	return delta / span
}

// momentum compares first-half and second-half velocity. Each half needs
// two points to carry a velocity, so shorter histories are steady.
func momentum(history []ProgressUpdate) Momentum {
	mid := len(history) / 2
	if mid < 2 || len(history)-mid < 2 {
		return MomentumSteady
	}
	diff := windowVelocity(history[mid:]) - windowVelocity(history[:mid])
	switch {
	case diff > momentumTolerance:
		return MomentumAccelerating
	case diff < -momentumTolerance:
		return MomentumDecelerating
	default:
		return MomentumSteady
	}
}

// weekOverWeekDelta compares the last seven days of gain with the seven
// before. It is zero unless the history reaches back two full weeks.
func weekOverWeekDelta(history []ProgressUpdate, current float64, now time.Time) float64 {
	if len(history) == 0 || history[0].Date.After(now.AddDate(0, 0, -14)) {
		return 0
	}
	weekAgo := progressAt(history, now.AddDate(0, 0, -7))
	twoWeeksAgo := progressAt(history, now.AddDate(0, 0, -14))
	return (current - weekAgo) - (weekAgo - twoWeeksAgo)
}

// progressAt returns the latest recorded progress at or before t.
func progressAt(history []ProgressUpdate, t time.Time) float64 {
	value := 0.0
	for _, u := range history {
		if u.Date.After(t) {
			break
		}
		value = u.Progress
	}
	return value
}

func requiredVelocity(progress float64, days int) float64 {
	remaining := 100 - progress
	if remaining <= 0 {
		return 0
	}
	if days <= 0 {
		return remaining
	}
	return remaining / float64(days)
}

func project(progress, velocity float64, days int, now time.Time) []Projection {
	if days <= 0 {
		return nil
	}
	offsets := make([]int, 0, len(projectionOffsets)+1)
	for _, offset := range projectionOffsets {
		if offset < days {
			offsets = append(offsets, offset)
		}
	}
	offsets = append(offsets, days)

	out := make([]Projection, 0, len(offsets))
	for _, offset := range offsets {
		value := clamp(progress+velocity*float64(offset), 0, 100)
		band := math.Min(maxUncertainty, float64(offset)*0.5)
		out = append(out, Projection{
			Date:        now.AddDate(0, 0, offset),
			DaysAhead:   offset,
			Progress:    round1(value),
			Uncertainty: band,
			Lower:       round1(clamp(value-band, 0, 100)),
			Upper:       round1(clamp(value+band, 0, 100)),
		})
	}
	return out
}
