package goalrisk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu          sync.Mutex
	goals       map[string]GoalRecord
	teams       map[string]string
	owners      map[string]OwnerHistory
	prior       []GoalRiskAssessment
	priorErr    error
	saved       []GoalRiskAssessment
	savedRunID  string
	alerts      []Alert
	plans       []InterventionPlan
	ownerLoads  int
	acked       map[string]string
	saveErr     error
	listFilters []AlertFilter
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		goals:  map[string]GoalRecord{},
		teams:  map[string]string{},
		owners: map[string]OwnerHistory{},
		acked:  map[string]string{},
	}
}

func (f *fakeStore) LoadGoal(_ context.Context, _ string, goalID string) (GoalRecord, error) {
	g, ok := f.goals[goalID]
	if !ok {
		return GoalRecord{}, ErrGoalNotFound
	}
	return g, nil
}

func (f *fakeStore) LoadGoals(_ context.Context, _ string, ids []string) ([]GoalRecord, error) {
	var out []GoalRecord
	for _, id := range ids {
		if g, ok := f.goals[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTeamGoals(_ context.Context, _ string, teamID string) ([]GoalRecord, error) {
	var out []GoalRecord
	for _, id := range []string{"g1", "g2", "g3", "dep"} {
		if g, ok := f.goals[id]; ok && g.TeamID == teamID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) TeamName(_ context.Context, _ string, teamID string) (string, error) {
	name, ok := f.teams[teamID]
	if !ok {
		return "", ErrTeamNotFound
	}
	return name, nil
}

func (f *fakeStore) ListTeams(context.Context, string) ([]string, error) {
	var out []string
	for id := range f.teams {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeStore) LoadOwnerHistory(_ context.Context, _ string, ownerID string) (OwnerHistory, error) {
	f.mu.Lock()
	f.ownerLoads++
	f.mu.Unlock()
	h, ok := f.owners[ownerID]
	if !ok {
		return OwnerHistory{}, ErrOwnerHistoryNotFound
	}
	return h, nil
}

func (f *fakeStore) LoadPriorAssessments(context.Context, string, string) ([]GoalRiskAssessment, error) {
	return f.prior, f.priorErr
}

func (f *fakeStore) SaveAssessments(_ context.Context, _, _ string, runID string, assessments []GoalRiskAssessment) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedRunID = runID
	f.saved = assessments
	return nil
}

func (f *fakeStore) SaveAlerts(_ context.Context, _, _ string, alerts []Alert) error {
	f.alerts = append(f.alerts, alerts...)
	return nil
}

func (f *fakeStore) ListAlerts(_ context.Context, _ string, filter AlertFilter) ([]Alert, error) {
	f.listFilters = append(f.listFilters, filter)
	return f.alerts, nil
}

func (f *fakeStore) AcknowledgeAlert(_ context.Context, _ string, alertID, userID string, _ time.Time) error {
	for _, a := range f.alerts {
		if a.ID == alertID {
			f.acked[alertID] = userID
			return nil
		}
	}
	return ErrAlertNotFound
}

func (f *fakeStore) SavePlan(_ context.Context, _ string, plan InterventionPlan) error {
	f.plans = append(f.plans, plan)
	return nil
}

type recordingObserver struct {
	teamID string
	levels map[string]int
	runs   int
}

func (r *recordingObserver) ObserveMonitorRun(teamID string, levels map[string]int, _ int, _ int, _ time.Duration) {
	r.teamID = teamID
	r.levels = levels
	r.runs++
}

func seededStore() *fakeStore {
	store := newFakeStore()
	store.teams["team-1"] = "Core"
	for _, g := range monitorGoals()[:3] {
		store.goals[g.ID] = g
	}
	dep := activeGoal("dep", 10, 20)
	dep.TeamID = "team-2"
	store.goals["dep"] = dep
	g1 := store.goals["g1"]
	g1.DependencyIDs = []string{"dep"}
	store.goals["g1"] = g1
	store.owners["owner-g1"] = OwnerHistory{OwnerID: "owner-g1", AverageCompletionRate: 90}
	return store
}

func TestServiceAssessGoal(t *testing.T) {
	store := seededStore()
	svc := NewService(store, testAssessor(), ServiceConfig{})

	a, err := svc.AssessGoal(context.Background(), "tenant", "g1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.HistoricalContext.NewOwner || a.HistoricalContext.OwnerCompletionRate != 90 {
		t.Fatalf("expected stored owner history, got %+v", a.HistoricalContext)
	}
	if !a.HasFactor(FactorDependencyRisk) {
		t.Fatalf("expected dependency factor, got %+v", a.RiskFactors)
	}

	if _, err := svc.AssessGoal(context.Background(), "tenant", "missing"); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("expected ErrGoalNotFound, got %v", err)
	}
}

func TestServiceCachesOwnerHistory(t *testing.T) {
	store := seededStore()
	svc := NewService(store, testAssessor(), ServiceConfig{OwnerCacheTTL: time.Hour})

	for i := 0; i < 3; i++ {
		if _, err := svc.AssessGoal(context.Background(), "tenant", "g2"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if store.ownerLoads != 1 {
		t.Fatalf("expected a single owner lookup for a cached miss, got %d", store.ownerLoads)
	}
	if _, err := svc.AssessGoal(context.Background(), "other-tenant", "g2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.ownerLoads != 2 {
		t.Fatalf("expected tenant-scoped cache keys, got %d loads", store.ownerLoads)
	}
}

func TestServiceOwnerHistoryExpires(t *testing.T) {
	store := seededStore()
	svc := NewService(store, testAssessor(), ServiceConfig{OwnerCacheTTL: 20 * time.Millisecond})

	if _, err := svc.AssessGoal(context.Background(), "tenant", "g1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(80 * time.Millisecond)
	if _, err := svc.AssessGoal(context.Background(), "tenant", "g1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.ownerLoads != 2 {
		t.Fatalf("expected an expired entry to reload, got %d loads", store.ownerLoads)
	}
}

func TestServiceMonitorTeamPersists(t *testing.T) {
	store := seededStore()
	store.prior = []GoalRiskAssessment{assessmentWithLevel("g2", RiskOnTrack, 10)}
	observer := &recordingObserver{}
	svc := NewService(store, testAssessor(), ServiceConfig{Concurrency: 2})
	svc.Observer = observer

	result, err := svc.MonitorTeam(context.Background(), "tenant", "team-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.saved) != 3 || store.savedRunID == "" {
		t.Fatalf("expected 3 saved assessments with a run id, got %d (%q)", len(store.saved), store.savedRunID)
	}
	if len(store.alerts) != len(result.Alerts) {
		t.Fatalf("expected %d saved alerts, got %d", len(result.Alerts), len(store.alerts))
	}
	if result.Dashboard.Trend == nil {
		t.Fatal("expected a trend against the prior run")
	}
	if observer.runs != 1 || observer.teamID != "team-1" {
		t.Fatalf("expected one observed run, got %+v", observer)
	}
	total := 0
	for _, n := range observer.levels {
		total += n
	}
	if total != 3 {
		t.Fatalf("expected level counts to cover 3 goals, got %v", observer.levels)
	}
}

func TestServiceTeamDashboardDoesNotPersist(t *testing.T) {
	store := seededStore()
	store.priorErr = errors.New("snapshot table missing")
	svc := NewService(store, testAssessor(), ServiceConfig{})

	result, err := svc.TeamDashboard(context.Background(), "tenant", "team-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Dashboard.Trend != nil {
		t.Fatal("expected no trend when the prior run cannot be loaded")
	}
	if len(store.saved) != 0 || len(store.alerts) != 0 {
		t.Fatal("expected a live dashboard to leave storage untouched")
	}

	if _, err := svc.TeamDashboard(context.Background(), "tenant", "nope"); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
}

func TestServiceMonitorTeamSaveError(t *testing.T) {
	store := seededStore()
	store.saveErr = errors.New("disk full")
	svc := NewService(store, testAssessor(), ServiceConfig{})
	if _, err := svc.MonitorTeam(context.Background(), "tenant", "team-1"); err == nil {
		t.Fatal("expected save error")
	}
}

func TestServiceCreateInterventionPlan(t *testing.T) {
	store := seededStore()
	svc := NewService(store, testAssessor(), ServiceConfig{})

	plan, err := svc.CreateInterventionPlan(context.Background(), "tenant", "g3", "manager-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.plans) != 1 || store.plans[0].ID != plan.ID {
		t.Fatalf("expected plan to be saved, got %+v", store.plans)
	}
	if plan.CreatedBy != "manager-1" || plan.GoalID != "g3" {
		t.Fatalf("unexpected plan: %+v", plan)
	}

	g := store.goals["g3"]
	g.Status = GoalStatusCancelled
	store.goals["g3"] = g
	if _, err := svc.CreateInterventionPlan(context.Background(), "tenant", "g3", "manager-1"); !errors.Is(err, ErrGoalNotActive) {
		t.Fatalf("expected ErrGoalNotActive, got %v", err)
	}
}

func TestServiceAcknowledgeAlert(t *testing.T) {
	store := seededStore()
	store.alerts = []Alert{{ID: "a1", GoalID: "g1"}}
	svc := NewService(store, testAssessor(), ServiceConfig{})

	if err := svc.AcknowledgeAlert(context.Background(), "tenant", "a1", "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.acked["a1"] != "user-1" {
		t.Fatalf("expected acknowledgement by user-1, got %v", store.acked)
	}
	if err := svc.AcknowledgeAlert(context.Background(), "tenant", "a2", "user-1"); !errors.Is(err, ErrAlertNotFound) {
		t.Fatalf("expected ErrAlertNotFound, got %v", err)
	}
}

func TestRenderTeamReport(t *testing.T) {
	store := seededStore()
	svc := NewService(store, testAssessor(), ServiceConfig{})
	pdf, err := svc.TeamReport(context.Background(), "tenant", "team-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pdf) < 4 || string(pdf[:4]) != "%PDF" {
		t.Fatalf("expected a PDF document, got %d bytes", len(pdf))
	}
}
