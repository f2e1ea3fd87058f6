package goalrisk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultOwnerCacheSize = 1024
	defaultOwnerCacheTTL  = 10 * time.Minute
)

// RunObserver receives a summary of each monitoring run.
type RunObserver interface {
	ObserveMonitorRun(teamID string, levels map[string]int, healthScore, degraded int, duration time.Duration)
}

type ServiceConfig struct {
	Concurrency    int
	OwnerCacheSize int
	OwnerCacheTTL  time.Duration
}

type ownerEntry struct {
	history OwnerHistory
	found   bool
}

type Service struct {
	store    StoreAPI
	Assessor *Assessor
	Monitor  *Monitor
	Observer RunObserver
	owners   *expirable.LRU[string, ownerEntry]
}

func NewService(store StoreAPI, assessor *Assessor, cfg ServiceConfig) *Service {
	if assessor == nil {
		assessor = NewAssessor()
	}
	if cfg.OwnerCacheSize <= 0 {
		cfg.OwnerCacheSize = defaultOwnerCacheSize
	}
	if cfg.OwnerCacheTTL <= 0 {
		cfg.OwnerCacheTTL = defaultOwnerCacheTTL
	}
	return &Service{
		store:    store,
		Assessor: assessor,
		Monitor:  NewMonitor(assessor, cfg.Concurrency),
		owners:   expirable.NewLRU[string, ownerEntry](cfg.OwnerCacheSize, nil, cfg.OwnerCacheTTL),
	}
}

// Assess runs the engine on caller-supplied data without touching storage.
func (s *Service) Assess(in AssessmentInput) GoalRiskAssessment {
	return s.Assessor.Assess(in)
}

func (s *Service) AssessGoal(ctx context.Context, tenantID, goalID string) (GoalRiskAssessment, error) {
	goal, err := s.store.LoadGoal(ctx, tenantID, goalID)
	if err != nil {
		return GoalRiskAssessment{}, err
	}
	in, err := s.goalInput(ctx, tenantID, goal)
	if err != nil {
		return GoalRiskAssessment{}, err
	}
	return s.Assessor.Assess(in), nil
}

// CreateInterventionPlan is triggered by a manager; it assesses the goal
// now and stores the resulting plan.
func (s *Service) CreateInterventionPlan(ctx context.Context, tenantID, goalID, createdBy string) (InterventionPlan, error) {
	goal, err := s.store.LoadGoal(ctx, tenantID, goalID)
	if err != nil {
		return InterventionPlan{}, err
	}
	if !goal.IsActive() {
		return InterventionPlan{}, ErrGoalNotActive
	}
	in, err := s.goalInput(ctx, tenantID, goal)
	if err != nil {
		return InterventionPlan{}, err
	}
	now := s.Assessor.Now()
	plan := s.Assessor.PlanInterventionAt(s.Assessor.AssessAt(in, now), createdBy, now)
	if err := s.store.SavePlan(ctx, tenantID, plan); err != nil {
		return InterventionPlan{}, fmt.Errorf("save intervention plan: %w", err)
	}
	return plan, nil
}

// TeamDashboard computes a live view without persisting it.
func (s *Service) TeamDashboard(ctx context.Context, tenantID, teamID string) (MonitorResult, error) {
	in, err := s.teamInput(ctx, tenantID, teamID)
	if err != nil {
		return MonitorResult{}, err
	}
	return s.run(ctx, in)
}

// MonitorTeam runs monitoring and persists the snapshot and its alerts so
// the next run can compare against it.
func (s *Service) MonitorTeam(ctx context.Context, tenantID, teamID string) (MonitorResult, error) {
	in, err := s.teamInput(ctx, tenantID, teamID)
	if err != nil {
		return MonitorResult{}, err
	}
	result, err := s.run(ctx, in)
	if err != nil {
		return result, err
	}
	runID := s.Assessor.NewID("run", tenantID, teamID, strconv.FormatInt(result.RunAt.UnixNano(), 10))
	if err := s.store.SaveAssessments(ctx, tenantID, teamID, runID, result.Assessments); err != nil {
		return result, fmt.Errorf("save assessments: %w", err)
	}
	if err := s.store.SaveAlerts(ctx, tenantID, teamID, result.Alerts); err != nil {
		return result, fmt.Errorf("save alerts: %w", err)
	}
	return result, nil
}

func (s *Service) ListTeams(ctx context.Context, tenantID string) ([]string, error) {
	return s.store.ListTeams(ctx, tenantID)
}

func (s *Service) ListAlerts(ctx context.Context, tenantID string, filter AlertFilter) ([]Alert, error) {
	return s.store.ListAlerts(ctx, tenantID, filter)
}

func (s *Service) AcknowledgeAlert(ctx context.Context, tenantID, alertID, userID string) error {
	return s.store.AcknowledgeAlert(ctx, tenantID, alertID, userID, s.Assessor.Now())
}

func (s *Service) run(ctx context.Context, in MonitorInput) (MonitorResult, error) {
	start := time.Now()
	result, err := s.Monitor.Run(ctx, in)
	if s.Observer != nil {
		levels := map[string]int{
			string(RiskOnTrack):  result.Dashboard.Summary.OnTrack,
			string(RiskAtRisk):   result.Dashboard.Summary.AtRisk,
			string(RiskHighRisk): result.Dashboard.Summary.HighRisk,
			string(RiskCritical): result.Dashboard.Summary.Critical,
		}
		s.Observer.ObserveMonitorRun(in.TeamID, levels, result.Dashboard.HealthScore, len(result.Degraded), time.Since(start))
	}
	return result, err
}

func (s *Service) goalInput(ctx context.Context, tenantID string, goal GoalRecord) (AssessmentInput, error) {
	in := AssessmentInput{Goal: goal}
	owner, found, err := s.ownerHistory(ctx, tenantID, goal.OwnerID)
	if err != nil {
		return AssessmentInput{}, err
	}
	if found {
		in.Owner = &owner
	}
	if len(goal.DependencyIDs) > 0 {
		deps, err := s.store.LoadGoals(ctx, tenantID, goal.DependencyIDs)
		if err != nil {
			return AssessmentInput{}, fmt.Errorf("load dependencies: %w", err)
		}
		in.Dependencies = deps
	}
	return in, nil
}

func (s *Service) teamInput(ctx context.Context, tenantID, teamID string) (MonitorInput, error) {
	name, err := s.store.TeamName(ctx, tenantID, teamID)
	if err != nil {
		return MonitorInput{}, err
	}
	goals, err := s.store.ListTeamGoals(ctx, tenantID, teamID)
	if err != nil {
		return MonitorInput{}, fmt.Errorf("list team goals: %w", err)
	}

	in := MonitorInput{
		TeamID:       teamID,
		TeamName:     name,
		Goals:        goals,
		Owners:       map[string]OwnerHistory{},
		Dependencies: map[string]GoalRecord{},
	}
	var missing []string
	for _, g := range goals {
		in.Dependencies[g.ID] = g
	}
	for _, g := range goals {
		if _, seen := in.Owners[g.OwnerID]; !seen && g.OwnerID != "" {
			owner, found, err := s.ownerHistory(ctx, tenantID, g.OwnerID)
			if err != nil {
				return MonitorInput{}, err
			}
			if found {
				in.Owners[g.OwnerID] = owner
			}
		}
		for _, id := range g.DependencyIDs {
			if _, ok := in.Dependencies[id]; !ok {
				missing = append(missing, id)
			}
		}
	}
	if len(missing) > 0 {
		deps, err := s.store.LoadGoals(ctx, tenantID, missing)
		if err != nil {
			return MonitorInput{}, fmt.Errorf("load dependencies: %w", err)
		}
		for _, d := range deps {
			in.Dependencies[d.ID] = d
		}
	}

	prior, err := s.store.LoadPriorAssessments(ctx, tenantID, teamID)
	if err != nil {
		slog.Warn("prior assessments lookup failed", "tenantId", tenantID, "teamId", teamID, "err", err)
		prior = nil
	}
	in.Previous = prior
	return in, nil
}

// ownerHistory reads through the expiring LRU cache. Misses are cached too so new
// owners do not hit the store on every run.
func (s *Service) ownerHistory(ctx context.Context, tenantID, ownerID string) (OwnerHistory, bool, error) {
	key := tenantID + ":" + ownerID
	if entry, ok := s.owners.Get(key); ok {
		return entry.history, entry.found, nil
	}

	history, err := s.store.LoadOwnerHistory(ctx, tenantID, ownerID)
	found := true
	if err != nil {
		if !errors.Is(err, ErrOwnerHistoryNotFound) {
			return OwnerHistory{}, false, fmt.Errorf("load owner history: %w", err)
		}
		found = false
	}
	s.owners.Add(key, ownerEntry{history: history, found: found})
	return history, found, nil
}
