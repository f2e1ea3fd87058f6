package goalrisk

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Monitor assesses a goal set concurrently and aggregates the results.
type Monitor struct {
	Assessor    *Assessor
	Concurrency int
	Logger      *slog.Logger
}

func NewMonitor(assessor *Assessor, concurrency int) *Monitor {
	if assessor == nil {
		assessor = NewAssessor()
	}
	return &Monitor{Assessor: assessor, Concurrency: concurrency, Logger: slog.Default()}
}

type MonitorInput struct {
	TeamID   string
	TeamName string
	Goals    []GoalRecord
	// Owners is keyed by owner id; missing owners get the new-owner prior.
	Owners map[string]OwnerHistory
	// Dependencies is keyed by goal id.
	Dependencies map[string]GoalRecord
	// Previous is the prior run; nil disables trend comparison.
	Previous []GoalRiskAssessment
}

type MonitorResult struct {
	RunAt          time.Time            `json:"runAt"`
	Assessments    []GoalRiskAssessment `json:"assessments"`
	Alerts         []Alert              `json:"alerts"`
	ActionRequired []GoalRiskAssessment `json:"actionRequired"`
	Dashboard      TeamRiskDashboard    `json:"dashboard"`
	Degraded       []string             `json:"degraded"`
	Skipped        int                  `json:"skipped"`
	Partial        bool                 `json:"partial"`
}

// Run assesses every active goal. One goal's panic is isolated into an
// insufficient-data assessment. Cancelling ctx stops dispatching further
// goals; the partial result is returned together with ctx.Err().
func (m *Monitor) Run(ctx context.Context, in MonitorInput) (MonitorResult, error) {
	assessor := m.Assessor
	if assessor == nil {
		assessor = NewAssessor()
	}
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := assessor.Now()

	active := make([]GoalRecord, 0, len(in.Goals))
	skipped := 0
	for _, g := range in.Goals {
		if g.IsActive() {
			active = append(active, g)
		} else {
			skipped++
		}
	}

	slots := make([]*GoalRiskAssessment, len(active))
	degraded := make([]bool, len(active))
	var g errgroup.Group
	g.SetLimit(m.limit(len(active)))
	for i, goal := range active {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			a, ok := m.assessOne(assessor, logger, goal, in, now)
			slots[i] = &a
			degraded[i] = !ok
			return nil
		})
	}
	_ = g.Wait()

	result := MonitorResult{RunAt: now, Skipped: skipped, Degraded: []string{}, Alerts: []Alert{}}
	result.Assessments = make([]GoalRiskAssessment, 0, len(active))
	for i, a := range slots {
		if a == nil {
			result.Partial = true
			continue
		}
		result.Assessments = append(result.Assessments, *a)
		result.Alerts = append(result.Alerts, a.Alerts...)
		if degraded[i] {
			result.Degraded = append(result.Degraded, a.GoalID)
		}
	}
	SortAlerts(result.Alerts)
	result.ActionRequired = ActionRequired(result.Assessments)
	result.Dashboard = BuildTeamDashboard(TeamInput{
		TeamID:   in.TeamID,
		TeamName: in.TeamName,
		Current:  result.Assessments,
		Previous: in.Previous,
		Now:      now,
	}, assessor.Weights)

	if result.Partial {
		return result, ctx.Err()
	}
	return result, nil
}

func (m *Monitor) limit(n int) int {
	limit := m.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	return max(1, min(limit, n))
}

func (m *Monitor) assessOne(assessor *Assessor, logger *slog.Logger, goal GoalRecord, in MonitorInput, now time.Time) (out GoalRiskAssessment, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("goal risk assessment failed", "goalId", goal.ID, "teamId", in.TeamID, "err", r)
			out = InsufficientData(goal, now, fmt.Sprint(r))
			ok = false
		}
	}()

	var owner *OwnerHistory
	if h, found := in.Owners[goal.OwnerID]; found {
		owner = &h
	}
	var deps []GoalRecord
	for _, id := range goal.DependencyIDs {
		if dep, found := in.Dependencies[id]; found {
			deps = append(deps, dep)
		}
	}
	return assessor.AssessAt(AssessmentInput{Goal: goal, Owner: owner, Dependencies: deps}, now), true
}

// ActionRequired lists CRITICAL and HIGH_RISK assessments by score, highest first.
func ActionRequired(assessments []GoalRiskAssessment) []GoalRiskAssessment {
	out := []GoalRiskAssessment{}
	for _, a := range assessments {
		if a.RiskLevel == RiskCritical || a.RiskLevel == RiskHighRisk {
			out = append(out, a)
		}
	}
	sortByRiskScore(out)
	return out
}
