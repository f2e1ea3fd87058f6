package goalrisk

import (
	"fmt"
	"slices"
	"time"
)

// IdentifyRiskFactors turns trend output, owner history and goal metadata
// into qualitative risk factors. Every factor carries at least one data point.
func IdentifyRiskFactors(goal GoalRecord, trend TrendResult, owner OwnerHistory, deps []GoalRecord, now time.Time, w Weights) []RiskFactor {
	var factors []RiskFactor
	days := daysUntil(now, goal.DueDate)
	remaining := 100 - goal.Progress

	if idle, ok := daysSinceLastUpdate(goal, now); ok && idle > float64(w.StallDays) {
		factors = append(factors, RiskFactor{
			Kind:        FactorProgressStall,
			Name:        "Progress Stall",
			Impact:      ImpactHigh,
			Description: fmt.Sprintf("No progress update in more than %d days", w.StallDays),
			DataPoints:  []string{fmt.Sprintf("Last update %d days ago", int(idle))},
			Mitigable:   true,
		})
	}

	if trend.VelocityGap > w.VelocityGapThreshold {
		impact := ImpactMedium
		if trend.VelocityGap > w.HighVelocityGap {
			impact = ImpactHigh
		}
		factors = append(factors, RiskFactor{
			Kind:        FactorInsufficientVelocity,
			Name:        "Insufficient Velocity",
			Impact:      impact,
			Description: "Current pace is below what is needed to finish by the due date",
			DataPoints: []string{
				fmt.Sprintf("Current velocity %.2f pts/day", trend.ProgressVelocity),
				fmt.Sprintf("Required velocity %.2f pts/day", trend.RequiredVelocity),
				fmt.Sprintf("Velocity gap %.2f pts/day", trend.VelocityGap),
			},
			Mitigable: true,
		})
	}

	if !trend.Accelerating && trend.WeekOverWeekDelta < w.MomentumDropThreshold {
		factors = append(factors, RiskFactor{
			Kind:        FactorDecliningMomentum,
			Name:        "Declining Momentum",
			Impact:      ImpactMedium,
			Description: "Progress this week is lagging behind the previous week",
			DataPoints:  []string{fmt.Sprintf("Week-over-week change %.1f pts", trend.WeekOverWeekDelta)},
			Mitigable:   true,
		})
	}

	if owner.AverageCompletionRate < w.TrackRecordThreshold {
		factors = append(factors, RiskFactor{
			Kind:        FactorHistoricalTrackRecord,
			Name:        "Historical Track Record",
			Impact:      ImpactMedium,
			Description: "Owner has completed a below-average share of past goals",
			DataPoints: []string{
				fmt.Sprintf("Average completion rate %.0f%%", owner.AverageCompletionRate),
				fmt.Sprintf("%d goals completed, %d missed", owner.GoalsCompleted, owner.GoalsMissed),
			},
			Mitigable: false,
		})
	}

	if days < w.TimePressureDays && remaining > w.TimePressureRemaining {
		factors = append(factors, RiskFactor{
			Kind:        FactorTimePressure,
			Name:        "Time Pressure",
			Impact:      ImpactHigh,
			Description: "Substantial work remains with little time before the due date",
			DataPoints: []string{
				fmt.Sprintf("%d days until deadline", days),
				fmt.Sprintf("%.0f%% of the goal remaining", remaining),
			},
			Mitigable: true,
		})
	}

	if lagging := laggingDependencies(goal, deps, w); len(lagging) > 0 {
		points := make([]string, 0, len(lagging))
		for _, dep := range lagging {
			points = append(points, fmt.Sprintf("%s (%s) at %.0f%%", dep.Title, dep.ID, dep.Progress))
		}
		factors = append(factors, RiskFactor{
			Kind:        FactorDependencyRisk,
			Name:        "Dependency Risk",
			Impact:      ImpactMedium,
			Description: fmt.Sprintf("%d dependent goals are below %.0f%% progress", len(lagging), w.DependencyProgressFloor),
			DataPoints:  points,
			Mitigable:   true,
		})
	}

	return factors
}

// daysSinceLastUpdate falls back to the start date when no update exists.
func daysSinceLastUpdate(goal GoalRecord, now time.Time) (float64, bool) {
	if len(goal.History) > 0 {
		latest := goal.History[0].Date
		for _, u := range goal.History[1:] {
			if u.Date.After(latest) {
				latest = u.Date
			}
		}
		return daysBetween(latest, now), true
	}
	if goal.StartDate.IsZero() {
		return 0, false
	}
	return daysBetween(goal.StartDate, now), true
}

func laggingDependencies(goal GoalRecord, deps []GoalRecord, w Weights) []GoalRecord {
	var out []GoalRecord
	for _, dep := range deps {
		if len(goal.DependencyIDs) > 0 && !slices.Contains(goal.DependencyIDs, dep.ID) {
			continue
		}
		if dep.IsActive() && dep.Progress < w.DependencyProgressFloor {
			out = append(out, dep)
		}
	}
	return out
}
