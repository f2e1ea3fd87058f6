package goalrisk

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func monitorGoals() []GoalRecord {
	healthy := activeGoal("g1", 60, 40)
	healthy.History = linearHistory(testNow, 5, 60, 3)

	stalled := activeGoal("g2", 20, 40)
	stalled.History = []ProgressUpdate{{Date: daysFrom(testNow, -25), Progress: 20}}

	urgent := activeGoal("g3", 30, 3)
	urgent.History = linearHistory(testNow, 5, 30, 1)

	done := activeGoal("g4", 100, 10)
	done.Status = GoalStatusCompleted
	return []GoalRecord{healthy, stalled, urgent, done}
}

func TestMonitorRun(t *testing.T) {
	m := NewMonitor(testAssessor(), 2)
	result, err := m.Run(context.Background(), MonitorInput{TeamID: "team-1", TeamName: "Core", Goals: monitorGoals()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Assessments) != 3 || result.Skipped != 1 || result.Partial {
		t.Fatalf("unexpected result shape: %d assessments, %d skipped, partial %v", len(result.Assessments), result.Skipped, result.Partial)
	}
	for i, id := range []string{"g1", "g2", "g3"} {
		if result.Assessments[i].GoalID != id {
			t.Fatalf("expected input order, got %s at %d", result.Assessments[i].GoalID, i)
		}
	}
	if len(result.Alerts) == 0 {
		t.Fatal("expected alerts")
	}
	for i := 1; i < len(result.Alerts); i++ {
		if severityOrder(result.Alerts[i].Severity) < severityOrder(result.Alerts[i-1].Severity) {
			t.Fatalf("alerts not sorted by severity: %+v", result.Alerts)
		}
	}
	for _, a := range result.ActionRequired {
		if a.RiskLevel != RiskCritical && a.RiskLevel != RiskHighRisk {
			t.Fatalf("unexpected action-required level %s", a.RiskLevel)
		}
	}
	if result.Dashboard.Summary.Total != 3 || result.Dashboard.TeamName != "Core" {
		t.Fatalf("unexpected dashboard: %+v", result.Dashboard.Summary)
	}
	if len(result.Degraded) != 0 {
		t.Fatalf("expected no degraded goals, got %v", result.Degraded)
	}
}

func TestMonitorIsolatesPanics(t *testing.T) {
	explode := func(parts ...string) string {
		if slices.Contains(parts, "g2") {
			panic("id service unavailable")
		}
		return StableID(parts...)
	}
	m := NewMonitor(testAssessor(WithIDFunc(explode)), 0)
	result, err := m.Run(context.Background(), MonitorInput{TeamID: "team-1", Goals: monitorGoals()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Assessments) != 3 {
		t.Fatalf("expected all goals assessed, got %d", len(result.Assessments))
	}
	if len(result.Degraded) != 1 || result.Degraded[0] != "g2" {
		t.Fatalf("expected g2 degraded, got %v", result.Degraded)
	}
	g2 := result.Assessments[1]
	if !g2.Degraded || g2.RiskLevel != RiskAtRisk || g2.RiskScore != 50 {
		t.Fatalf("unexpected degraded assessment: %+v", g2)
	}
	if result.Assessments[2].Degraded {
		t.Fatal("expected other goals to be unaffected")
	}
}

func TestMonitorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := NewMonitor(testAssessor(), 1).Run(ctx, MonitorInput{TeamID: "team-1", Goals: monitorGoals()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !result.Partial || len(result.Assessments) != 0 {
		t.Fatalf("expected an empty partial result, got %+v", result)
	}
}

func TestMonitorUsesOwnersAndDependencies(t *testing.T) {
	goal := activeGoal("g1", 50, 30)
	goal.History = linearHistory(testNow, 5, 50, 2)
	goal.DependencyIDs = []string{"dep"}
	in := MonitorInput{
		TeamID:       "team-1",
		Goals:        []GoalRecord{goal},
		Owners:       map[string]OwnerHistory{goal.OwnerID: {OwnerID: goal.OwnerID, AverageCompletionRate: 30}},
		Dependencies: map[string]GoalRecord{"dep": activeGoal("dep", 10, 20)},
	}
	result, err := NewMonitor(testAssessor(), 1).Run(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := result.Assessments[0]
	if !a.HasFactor(FactorHistoricalTrackRecord) || !a.HasFactor(FactorDependencyRisk) {
		t.Fatalf("expected owner and dependency factors, got %+v", a.RiskFactors)
	}
	if a.HistoricalContext.NewOwner {
		t.Fatal("expected the supplied owner history")
	}
}
