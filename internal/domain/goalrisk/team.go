package goalrisk

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"
)

type TeamInput struct {
	TeamID   string
	TeamName string
	Current  []GoalRiskAssessment
	Previous []GoalRiskAssessment
	Now      time.Time
}

// BuildTeamDashboard aggregates per-goal assessments. A nil Previous slice
// leaves the trend section empty.
func BuildTeamDashboard(in TeamInput, w Weights) TeamRiskDashboard {
	summary := Summarize(in.Current)
	dash := TeamRiskDashboard{
		TeamID:                       in.TeamID,
		TeamName:                     in.TeamName,
		GeneratedAt:                  in.Now,
		Summary:                      summary,
		AverageCompletionProbability: averageProbability(in.Current),
		TopRisks:                     TopRisks(in.Current, w.TopRisks),
		HealthScore:                  HealthScore(summary, w),
	}
	if in.Previous != nil {
		trend := CompareRuns(in.Current, in.Previous, w)
		dash.Trend = &trend
	}
	dash.Recommendations = teamRecommendations(in.Current, summary, dash.AverageCompletionProbability, dash.Trend)
	return dash
}

func Summarize(assessments []GoalRiskAssessment) RiskSummary {
	s := RiskSummary{Total: len(assessments)}
	for _, a := range assessments {
		switch a.RiskLevel {
		case RiskAtRisk:
			s.AtRisk++
		case RiskHighRisk:
			s.HighRisk++
		case RiskCritical:
			s.Critical++
		default:
			s.OnTrack++
		}
	}
	return s
}

// HealthScore is the tier-weighted mean over all goals, 100 for no goals.
func HealthScore(s RiskSummary, w Weights) int {
	if s.Total == 0 {
		return 100
	}
	total := float64(s.OnTrack)*w.tierWeight(RiskOnTrack) +
		float64(s.AtRisk)*w.tierWeight(RiskAtRisk) +
		float64(s.HighRisk)*w.tierWeight(RiskHighRisk) +
		float64(s.Critical)*w.tierWeight(RiskCritical)
	return int(math.Round(clamp(total/float64(s.Total), 0, 100)))
}

// TopRisks returns up to limit non-on-track assessments, highest score first.
func TopRisks(assessments []GoalRiskAssessment, limit int) []GoalRiskAssessment {
	out := make([]GoalRiskAssessment, 0, len(assessments))
	for _, a := range assessments {
		if a.RiskLevel != RiskOnTrack {
			out = append(out, a)
		}
	}
	sortByRiskScore(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortByRiskScore(assessments []GoalRiskAssessment) {
	slices.SortStableFunc(assessments, func(a, b GoalRiskAssessment) int {
		if c := cmp.Compare(b.RiskScore, a.RiskScore); c != 0 {
			return c
		}
		return cmp.Compare(a.GoalID, b.GoalID)
	})
}

// CompareRuns matches goals by id across two runs.
func CompareRuns(current, previous []GoalRiskAssessment, w Weights) TeamTrend {
	prior := make(map[string]GoalRiskAssessment, len(previous))
	for _, p := range previous {
		prior[p.GoalID] = p
	}

	var trend TeamTrend
	trend.HighRiskDelta = severeCount(current) - severeCount(previous)
	for _, c := range current {
		p, ok := prior[c.GoalID]
		if !ok {
			continue
		}
		if c.RiskLevel == RiskOnTrack && (p.RiskLevel == RiskAtRisk || p.RiskLevel == RiskHighRisk) {
			trend.GoalsRecovered++
		}
		if (c.RiskLevel == RiskHighRisk || c.RiskLevel == RiskCritical) &&
			(p.RiskLevel == RiskOnTrack || p.RiskLevel == RiskAtRisk) {
			trend.GoalsEscalated++
		}
	}

	diff := averageVelocity(current) - averageVelocity(previous)
	switch {
	case diff > w.VelocityTrendThreshold:
		trend.VelocityTrend = VelocityImproving
	case diff < -w.VelocityTrendThreshold:
		trend.VelocityTrend = VelocityDeclining
	default:
		trend.VelocityTrend = VelocityStable
	}
	return trend
}

func severeCount(assessments []GoalRiskAssessment) int {
	n := 0
	for _, a := range assessments {
		if a.RiskLevel == RiskHighRisk || a.RiskLevel == RiskCritical {
			n++
		}
	}
	return n
}

func averageProbability(assessments []GoalRiskAssessment) float64 {
	if len(assessments) == 0 {
		return 0
	}
	var sum float64
	for _, a := range assessments {
		sum += a.CompletionProbability
	}
	return round1(sum / float64(len(assessments)))
}

func averageVelocity(assessments []GoalRiskAssessment) float64 {
	if len(assessments) == 0 {
		return 0
	}
	var sum float64
	for _, a := range assessments {
		sum += a.Trend.ProgressVelocity
	}
	return sum / float64(len(assessments))
}

func teamRecommendations(current []GoalRiskAssessment, s RiskSummary, avgProbability float64, trend *TeamTrend) []string {
	out := []string{}
	if s.Total == 0 {
		return out
	}
	severe := s.HighRisk + s.Critical
	if float64(severe) > 0.3*float64(s.Total) {
		out = append(out, fmt.Sprintf("Review team capacity: %d of %d goals are high risk or critical", severe, s.Total))
	}
	if s.Critical > 0 {
		out = append(out, fmt.Sprintf("Hold manager reviews for the %d critical goals this week", s.Critical))
	}
	if avgProbability < 50 {
		out = append(out, "Re-baseline goal targets: average completion probability is below 50%")
	}
	stalled := 0
	for _, a := range current {
		if a.HasFactor(FactorProgressStall) {
			stalled++
		}
	}
	if stalled >= 2 {
		out = append(out, fmt.Sprintf("Reinforce a weekly update cadence: %d goals have stalled", stalled))
	}
	if trend != nil {
		if trend.GoalsEscalated > trend.GoalsRecovered {
			out = append(out, "More goals escalated than recovered since the last run; run a team retrospective on blockers")
		}
		if trend.VelocityTrend == VelocityDeclining {
			out = append(out, "Team velocity is declining; look for shared blockers or competing priorities")
		}
	}
	if len(out) == 0 {
		out = append(out, "Team goals are on track; keep the current check-in cadence")
	}
	return out
}
