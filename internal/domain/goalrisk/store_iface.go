package goalrisk

import (
	"context"
	"time"
)

// StoreAPI is the only external-data seam. The scoring code never sees it;
// Service loads snapshots through it and hands plain values to the engine.
type StoreAPI interface {
	LoadGoal(ctx context.Context, tenantID, goalID string) (GoalRecord, error)
	LoadGoals(ctx context.Context, tenantID string, goalIDs []string) ([]GoalRecord, error)
	ListTeamGoals(ctx context.Context, tenantID, teamID string) ([]GoalRecord, error)
	TeamName(ctx context.Context, tenantID, teamID string) (string, error)
	ListTeams(ctx context.Context, tenantID string) ([]string, error)
	LoadOwnerHistory(ctx context.Context, tenantID, ownerID string) (OwnerHistory, error)
	LoadPriorAssessments(ctx context.Context, tenantID, teamID string) ([]GoalRiskAssessment, error)
	SaveAssessments(ctx context.Context, tenantID, teamID, runID string, assessments []GoalRiskAssessment) error
	SaveAlerts(ctx context.Context, tenantID, teamID string, alerts []Alert) error
	ListAlerts(ctx context.Context, tenantID string, filter AlertFilter) ([]Alert, error)
	AcknowledgeAlert(ctx context.Context, tenantID, alertID, userID string, at time.Time) error
	SavePlan(ctx context.Context, tenantID string, plan InterventionPlan) error
}

type AlertFilter struct {
	GoalID         string
	TeamID         string
	Unacknowledged bool
	Limit          int
	Offset         int
}
