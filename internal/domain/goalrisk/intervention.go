package goalrisk

import (
	"math"
	"slices"
	"strconv"
	"time"
)

type interventionEffect struct {
	riskReduction   float64
	probabilityGain float64
}

// Fixed per-type effects used to simulate the plan outcome.
var interventionEffects = map[InterventionType]interventionEffect{
	InterventionEmergencyReview:     {riskReduction: 15, probabilityGain: 12},
	InterventionScopeEvaluation:     {riskReduction: 20, probabilityGain: 15},
	InterventionResourceAssessment:  {riskReduction: 10, probabilityGain: 8},
	InterventionBlockerRemoval:      {riskReduction: 12, probabilityGain: 10},
	InterventionCheckIn:             {riskReduction: 5, probabilityGain: 4},
	InterventionVelocityImprovement: {riskReduction: 10, probabilityGain: 8},
	InterventionRestartPlan:         {riskReduction: 8, probabilityGain: 6},
}

const (
	maxRiskReduction   = 50
	maxProbabilityGain = 40
	maxPlanConfidence  = 80
)

// PlanIntervention builds a remediation plan from an assessment.
func (a *Assessor) PlanIntervention(assessment GoalRiskAssessment, createdBy string) InterventionPlan {
	return a.PlanInterventionAt(assessment, createdBy, a.Now())
}

func (a *Assessor) PlanInterventionAt(assessment GoalRiskAssessment, createdBy string, now time.Time) InterventionPlan {
	newID := a.NewID
	if newID == nil {
		newID = StableID
	}
	stamp := strconv.FormatInt(now.UnixNano(), 10)
	manager := assessment.ManagerID
	if manager == "" {
		manager = string(PartyManager)
	}
	owner := assessment.OwnerID
	if owner == "" {
		owner = string(PartyEmployee)
	}

	var items []Intervention
	add := func(t InterventionType, title, desc, who string, days, priority int) {
		items = append(items, Intervention{
			ID:          newID("intervention", assessment.GoalID, string(t), stamp),
			Type:        t,
			Title:       title,
			Description: desc,
			Owner:       who,
			Deadline:    now.AddDate(0, 0, days),
			Status:      InterventionStatusPending,
			Priority:    priority,
		})
	}

	level := assessment.RiskLevel
	if level == RiskCritical {
		add(InterventionEmergencyReview, "Emergency Goal Review",
			"Meet with the owner to agree on a recovery plan or an alternative outcome", manager, 1, 1)
		add(InterventionScopeEvaluation, "Evaluate Goal Scope",
			"Decide whether to reduce scope, extend the deadline or close the goal", manager, 3, 1)
	}
	if level == RiskHighRisk || level == RiskCritical {
		add(InterventionResourceAssessment, "Resource Assessment",
			"Check whether the owner has the time, skills and support the goal needs", manager, 5, 2)
		add(InterventionBlockerRemoval, "Blocker Removal",
			"List current blockers and assign someone to clear each one", manager, 3, 1)
	}
	if level == RiskAtRisk {
		add(InterventionCheckIn, "Weekly Check-in",
			"Review progress against the plan every week until the goal is back on track", manager, 7, 3)
	}
	if f := findFactor(assessment.RiskFactors, FactorInsufficientVelocity); f != nil && f.Impact == ImpactHigh {
		add(InterventionVelocityImprovement, "Velocity Improvement Plan",
			"Break remaining work into weekly milestones sized to the required velocity", owner, 3, 2)
	}
	if findFactor(assessment.RiskFactors, FactorProgressStall) != nil {
		add(InterventionRestartPlan, "Restart Plan",
			"Agree on the next concrete step and record progress within two days", owner, 2, 1)
	}
	slices.SortStableFunc(items, func(x, y Intervention) int {
		return x.Priority - y.Priority
	})
	if items == nil {
		items = []Intervention{}
	}

	return InterventionPlan{
		ID:               newID("plan", assessment.GoalID, stamp),
		GoalID:           assessment.GoalID,
		GoalTitle:        assessment.GoalTitle,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		CurrentRiskLevel: level,
		Interventions:    items,
		ProjectedOutcome: a.projectOutcome(assessment, items),
		EscalationPath:   escalationPath(level, manager),
		Checkpoints:      checkpoints(assessment, now),
	}
}

func (a *Assessor) projectOutcome(assessment GoalRiskAssessment, items []Intervention) ProjectedOutcome {
	var reduction, gain float64
	for _, item := range items {
		effect := interventionEffects[item.Type]
		reduction += effect.riskReduction
		gain += effect.probabilityGain
	}
	reduction = math.Min(reduction, maxRiskReduction)
	gain = math.Min(gain, maxProbabilityGain)

	score := round1(clamp(assessment.RiskScore-reduction, 0, 100))
	confidence := 0.0
	if len(items) > 0 {
		confidence = math.Min(maxPlanConfidence, 40+8*float64(len(items)))
	}
	return ProjectedOutcome{
		RiskLevel:             a.Weights.RiskLevel(score),
		RiskScore:             score,
		CompletionProbability: round1(clamp(assessment.CompletionProbability+gain, 0, 100)),
		Confidence:            confidence,
	}
}

func escalationPath(level RiskLevel, manager string) []EscalationStep {
	var steps []EscalationStep
	switch level {
	case RiskAtRisk:
		steps = []EscalationStep{
			{Trigger: "No improvement after 1 week", Action: "Escalate to direct manager review", Owner: manager},
		}
	case RiskHighRisk:
		steps = []EscalationStep{
			{Trigger: "No progress after 3 days", Action: "Escalate to skip-level manager", Owner: "skip_level_manager"},
			{Trigger: "No improvement after 1 week", Action: "Involve HR and leadership", Owner: "hr"},
		}
	case RiskCritical:
		steps = []EscalationStep{
			{Trigger: "No progress after 3 days", Action: "Escalate to skip-level manager", Owner: "skip_level_manager"},
			{Trigger: "No improvement after 1 week", Action: "Involve HR and leadership", Owner: "hr"},
			{Trigger: "Goal cannot be salvaged", Action: "Close the goal and run a post-mortem", Owner: manager},
		}
	default:
		return []EscalationStep{}
	}
	for i := range steps {
		steps[i].Order = i + 1
	}
	return steps
}

func checkpoints(assessment GoalRiskAssessment, now time.Time) []Checkpoint {
	type slot struct {
		offset int
		check  CheckType
	}
	var slots []slot
	switch days := assessment.DaysUntilDeadline; {
	case days > 14:
		slots = []slot{{7, CheckWeekly}, {14, CheckWeekly}}
	case days > 7:
		slots = []slot{{3, CheckMidWeek}, {7, CheckWeekly}}
	case days > 0:
		slots = []slot{{1, CheckDaily}}
	default:
		return []Checkpoint{}
	}
	out := make([]Checkpoint, 0, len(slots))
	for _, s := range slots {
		expected := assessment.Progress + assessment.Trend.RequiredVelocity*float64(s.offset)
		out = append(out, Checkpoint{
			Date:             now.AddDate(0, 0, s.offset),
			ExpectedProgress: round1(clamp(expected, 0, 100)),
			CheckType:        s.check,
		})
	}
	return out
}
