package goalrisk

import (
	"math"
	"time"
)

// Assessor composes trend analysis, factor identification, scoring,
// prediction, recommendations and alerts into one assessment per goal.
// It holds no mutable state and is safe for concurrent use.
type Assessor struct {
	Weights Weights
	Now     func() time.Time
	NewID   IDFunc
}

type Option func(*Assessor)

func WithWeights(w Weights) Option {
	return func(a *Assessor) {
		a.Weights = w
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Assessor) {
		if now != nil {
			a.Now = now
		}
	}
}

func WithIDFunc(fn IDFunc) Option {
	return func(a *Assessor) {
		if fn != nil {
			a.NewID = fn
		}
	}
}

func NewAssessor(opts ...Option) *Assessor {
	a := &Assessor{Weights: DefaultWeights(), Now: time.Now, NewID: StableID}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type AssessmentInput struct {
	Goal         GoalRecord
	Owner        *OwnerHistory
	Dependencies []GoalRecord
}

func (a *Assessor) Assess(in AssessmentInput) GoalRiskAssessment {
	return a.AssessAt(in, a.Now())
}

// AssessAt assesses the goal as of now. Identical inputs and instants give
// identical output.
func (a *Assessor) AssessAt(in AssessmentInput, now time.Time) GoalRiskAssessment {
	w := a.Weights
	goal, issues := NormalizeGoal(in.Goal, now)
	owner, ownerIssue := ownerOrDefault(in.Owner, goal.OwnerID)
	if ownerIssue != "" {
		issues = append(issues, ownerIssue)
	}

	days := daysUntil(now, goal.DueDate)
	trend := AnalyzeTrend(goal.History, goal.Progress, goal.StartDate, goal.DueDate, now)
	if len(issues) > 0 {
		trend.Confidence = math.Max(10, trend.Confidence-10*float64(len(issues)))
	}

	out := GoalRiskAssessment{
		GoalID:            goal.ID,
		GoalTitle:         goal.Title,
		OwnerID:           goal.OwnerID,
		OwnerName:         goal.OwnerName,
		ManagerID:         goal.ManagerID,
		TeamID:            goal.TeamID,
		Progress:          goal.Progress,
		DaysUntilDeadline: days,
		HistoricalContext: historicalContext(owner, in.Owner == nil),
		Trend:             trend,
		AssessedAt:        now,
		DataIssues:        issues,
		RiskFactors:       []RiskFactor{},
		Recommendations:   []Recommendation{},
		Alerts:            []Alert{},
	}

	pred := PredictCompletion(goal.Progress, trend.ProgressVelocity, days, now)
	out.PredictedCompletionDate = pred.PredictedDate
	out.WillMissDeadline = pred.WillMissDeadline

	if goal.Progress >= 100 {
		out.RiskLevel = RiskOnTrack
		out.CompletionProbability = 100
		return out
	}

	factors := IdentifyRiskFactors(goal, trend, owner, in.Dependencies, now, w)
	out.CompletionProbability = CompletionProbability(goal.Progress, trend, owner.AverageCompletionRate, days, w)
	out.RiskScore = RiskScore(out.CompletionProbability, factors, days, w)
	out.RiskLevel = w.RiskLevel(out.RiskScore)
	if len(factors) > 0 {
		out.RiskFactors = factors
	}
	if recs := BuildRecommendations(out.RiskLevel, factors); len(recs) > 0 {
		out.Recommendations = recs
	}
	if alerts := GenerateAlerts(goal, out.RiskLevel, factors, days, now, a.NewID); len(alerts) > 0 {
		out.Alerts = alerts
	}
	return out
}

// InsufficientData is the stand-in recorded when a goal cannot be assessed.
func InsufficientData(goal GoalRecord, now time.Time, reason string) GoalRiskAssessment {
	out := GoalRiskAssessment{
		GoalID:                goal.ID,
		GoalTitle:             goal.Title,
		OwnerID:               goal.OwnerID,
		OwnerName:             goal.OwnerName,
		ManagerID:             goal.ManagerID,
		TeamID:                goal.TeamID,
		RiskLevel:             RiskAtRisk,
		RiskScore:             50,
		CompletionProbability: 50,
		Progress:              clamp(goal.Progress, 0, 100),
		WillMissDeadline:      false,
		RiskFactors:           []RiskFactor{},
		Recommendations:       []Recommendation{},
		Alerts:                []Alert{},
		HistoricalContext:     historicalContext(NewOwnerHistory(goal.OwnerID), true),
		Trend:                 TrendResult{Momentum: MomentumSteady},
		AssessedAt:            now,
		Degraded:              true,
		DataIssues:            []string{"insufficient data: " + reason},
	}
	if !goal.DueDate.IsZero() {
		out.DaysUntilDeadline = daysUntil(now, goal.DueDate)
	}
	return out
}

func ownerOrDefault(owner *OwnerHistory, ownerID string) (OwnerHistory, string) {
	if owner == nil {
		return NewOwnerHistory(ownerID), ""
	}
	out := *owner
	if !isFinite(out.AverageDaysEarlyLate) {
		out.AverageDaysEarlyLate = 0
	}
	if !isFinite(out.AverageCompletionRate) {
		out.AverageCompletionRate = newOwnerCompletionRate
		return out, "owner completion rate was not a finite number; using new-owner default"
	}
	out.AverageCompletionRate = clamp(out.AverageCompletionRate, 0, 100)
	return out, ""
}

func historicalContext(owner OwnerHistory, newOwner bool) HistoricalContext {
	ctx := HistoricalContext{
		OwnerCompletionRate:  owner.AverageCompletionRate,
		GoalsCompleted:       owner.GoalsCompleted,
		GoalsMissed:          owner.GoalsMissed,
		AverageDaysEarlyLate: owner.AverageDaysEarlyLate,
		NewOwner:             newOwner,
	}
	var sum float64
	var n int
	for _, v := range owner.RecentVelocities {
		if isFinite(v) {
			sum += v
			n++
		}
	}
	if n > 0 {
		ctx.AverageVelocity = round1(sum / float64(n))
	}
	return ctx
}
