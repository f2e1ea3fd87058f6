package goalrisk

import "slices"

// BuildRecommendations maps fired factors to guidance, adds the blanket
// CRITICAL actions, and falls back to an update-cadence nudge for AT_RISK.
// Priority 1 is act within 24-48h, 2 within a few days, 3 ongoing.
func BuildRecommendations(level RiskLevel, factors []RiskFactor) []Recommendation {
	var out []Recommendation
	for _, f := range factors {
		if rec, ok := factorRecommendation(f); ok {
			out = append(out, rec)
		}
	}

	if level == RiskCritical {
		out = append(out,
			Recommendation{
				Priority:       1,
				Action:         "Hold an emergency goal review with the owner and manager",
				ExpectedImpact: "Agree on a recovery plan before the gap widens",
				Responsible:    PartyManager,
				Timeframe:      "Within 24 hours",
			},
			Recommendation{
				Priority:       1,
				Action:         "Evaluate reducing scope or extending the deadline",
				ExpectedImpact: "Resets the goal to an achievable target",
				Responsible:    PartyManager,
				Timeframe:      "Within 48 hours",
			},
		)
	}

	if len(out) == 0 && level == RiskAtRisk {
		out = append(out, Recommendation{
			Priority:       2,
			Action:         "Increase progress update frequency to twice a week",
			ExpectedImpact: "Earlier visibility of slippage",
			Responsible:    PartyEmployee,
			Timeframe:      "Starting this week",
		})
	}

	slices.SortStableFunc(out, func(a, b Recommendation) int {
		return a.Priority - b.Priority
	})
	return out
}

func factorRecommendation(f RiskFactor) (Recommendation, bool) {
	switch f.Kind {
	case FactorProgressStall:
		return Recommendation{
			Priority:       1,
			Action:         "Schedule a check-in to identify and clear blockers",
			ExpectedImpact: "Restarts progress on a stalled goal",
			Responsible:    PartyManager,
			Timeframe:      "Within 48 hours",
			Factor:         f.Kind,
		}, true
	case FactorInsufficientVelocity:
		priority := 2
		if f.Impact == ImpactHigh {
			priority = 1
		}
		return Recommendation{
			Priority:       priority,
			Action:         "Break the remaining work into weekly milestones and protect time for it",
			ExpectedImpact: "Raises daily velocity toward the required pace",
			Responsible:    PartyEmployee,
			Timeframe:      "This week",
			Factor:         f.Kind,
		}, true
	case FactorDecliningMomentum:
		return Recommendation{
			Priority:       2,
			Action:         "Review what changed since last week and remove new obstacles",
			ExpectedImpact: "Recovers lost momentum",
			Responsible:    PartyManager,
			Timeframe:      "Within a few days",
			Factor:         f.Kind,
		}, true
	case FactorHistoricalTrackRecord:
		return Recommendation{
			Priority:       3,
			Action:         "Pair the owner with a mentor for planning and estimation",
			ExpectedImpact: "Improves delivery on future goals",
			Responsible:    PartyManager,
			Timeframe:      "Ongoing",
			Factor:         f.Kind,
		}, true
	case FactorTimePressure:
		return Recommendation{
			Priority:       1,
			Action:         "Prioritize the critical remaining deliverables and defer the rest",
			ExpectedImpact: "Delivers the highest-value outcome before the deadline",
			Responsible:    PartyEmployee,
			Timeframe:      "Within 24 hours",
			Factor:         f.Kind,
		}, true
	case FactorDependencyRisk:
		return Recommendation{
			Priority:       2,
			Action:         "Coordinate with the owners of lagging dependencies",
			ExpectedImpact: "Unblocks work that depends on other goals",
			Responsible:    PartyTeam,
			Timeframe:      "This week",
			Factor:         f.Kind,
		}, true
	default:
		return Recommendation{}, false
	}
}
