package goalrisk

import (
	"math"
	"math/rand/v2"
	"reflect"
	"testing"
)

func TestAssessBehindScheduleGoal(t *testing.T) {
	goal := activeGoal("g1", 50, 5)
	goal.History = linearHistory(testNow, 5, 50, 2)

	got := testAssessor().Assess(AssessmentInput{Goal: goal})

	if math.Abs(got.Trend.RequiredVelocity-10) > 1e-9 || math.Abs(got.Trend.VelocityGap-8) > 1e-9 {
		t.Fatalf("unexpected trend: %+v", got.Trend)
	}
	if got.RiskScore < 60 {
		t.Fatalf("expected risk score >= 60, got %v", got.RiskScore)
	}
	if got.RiskLevel != RiskHighRisk && got.RiskLevel != RiskCritical {
		t.Fatalf("expected HIGH_RISK or CRITICAL, got %s", got.RiskLevel)
	}
	if got.CompletionProbability != 39 {
		t.Fatalf("expected probability 39, got %v", got.CompletionProbability)
	}
	if !got.HasFactor(FactorInsufficientVelocity) || !got.HasFactor(FactorTimePressure) {
		t.Fatalf("expected velocity and time pressure factors, got %+v", got.RiskFactors)
	}
	if !got.WillMissDeadline {
		t.Fatal("expected the goal to miss its deadline")
	}
	if !got.HistoricalContext.NewOwner || got.HistoricalContext.OwnerCompletionRate != 70 {
		t.Fatalf("expected new-owner defaults, got %+v", got.HistoricalContext)
	}
}

func TestAssessCompletedGoal(t *testing.T) {
	goal := activeGoal("g1", 100, 10)
	got := testAssessor().Assess(AssessmentInput{Goal: goal})

	if got.RiskLevel != RiskOnTrack {
		t.Fatalf("expected ON_TRACK, got %s", got.RiskLevel)
	}
	if got.WillMissDeadline {
		t.Fatal("expected willMissDeadline false")
	}
	if got.PredictedCompletionDate == nil || !got.PredictedCompletionDate.Equal(testNow) {
		t.Fatalf("expected predicted completion now, got %v", got.PredictedCompletionDate)
	}
	if got.CompletionProbability != 100 || got.RiskScore != 0 {
		t.Fatalf("expected probability 100 and score 0, got %v / %v", got.CompletionProbability, got.RiskScore)
	}
	if len(got.Alerts) != 0 {
		t.Fatalf("expected no alerts, got %d", len(got.Alerts))
	}
}

func TestAssessStalledGoal(t *testing.T) {
	goal := activeGoal("g1", 30, 60)
	goal.StartDate = daysFrom(testNow, -40)
	goal.History = []ProgressUpdate{{Date: daysFrom(testNow, -20), Progress: 30}}

	got := testAssessor().Assess(AssessmentInput{Goal: goal})

	if !got.HasFactor(FactorProgressStall) {
		t.Fatalf("expected a progress stall factor, got %+v", got.RiskFactors)
	}
	found := false
	for _, a := range got.Alerts {
		if a.Type == AlertProgressStall {
			found = true
			if a.Severity != SeverityWarning {
				t.Fatalf("expected WARNING severity, got %s", a.Severity)
			}
			if len(a.Recipients) != 2 {
				t.Fatalf("expected owner and manager recipients, got %v", a.Recipients)
			}
		}
	}
	if !found {
		t.Fatalf("expected a PROGRESS_STALL alert, got %+v", got.Alerts)
	}
}

func TestAssessDueTodayAppliesOverdueMultiplier(t *testing.T) {
	goal := activeGoal("g1", 90, 0)
	got := testAssessor().Assess(AssessmentInput{Goal: goal})

	if got.DaysUntilDeadline != 0 {
		t.Fatalf("expected 0 days until deadline, got %d", got.DaysUntilDeadline)
	}
	if got.RiskScore > 100 {
		t.Fatalf("expected score <= 100, got %v", got.RiskScore)
	}
	unscaled := RiskScore(got.CompletionProbability, got.RiskFactors, 30, DefaultWeights())
	if got.RiskScore < unscaled {
		t.Fatalf("expected overdue score %v to be at least the unscaled %v", got.RiskScore, unscaled)
	}
	if got.RiskLevel != DetermineRiskLevel(got.RiskScore) {
		t.Fatalf("level %s does not match score %v", got.RiskLevel, got.RiskScore)
	}
}

func TestAssessIsDeterministic(t *testing.T) {
	goal := activeGoal("g1", 40, 12)
	goal.History = linearHistory(testNow, 6, 40, 1.5)
	owner := OwnerHistory{OwnerID: goal.OwnerID, GoalsCompleted: 3, GoalsMissed: 4, AverageCompletionRate: 45, RecentVelocities: []float64{1, 2}}
	in := AssessmentInput{Goal: goal, Owner: &owner}

	a := testAssessor()
	first := a.Assess(in)
	second := a.Assess(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical assessments:\n%+v\n%+v", first, second)
	}
	if !first.HasFactor(FactorHistoricalTrackRecord) {
		t.Fatal("expected a historical track record factor")
	}
	if first.HistoricalContext.AverageVelocity != 1.5 {
		t.Fatalf("expected average velocity 1.5, got %v", first.HistoricalContext.AverageVelocity)
	}
}

func TestAssessRecordsDataIssues(t *testing.T) {
	goal := activeGoal("g1", math.NaN(), 20)
	goal.History = []ProgressUpdate{{Progress: 10}, {Date: daysFrom(testNow, -1), Progress: math.Inf(1)}}
	owner := OwnerHistory{OwnerID: goal.OwnerID, AverageCompletionRate: math.NaN()}

	got := testAssessor().Assess(AssessmentInput{Goal: goal, Owner: &owner})
	if got.Progress != 0 {
		t.Fatalf("expected progress 0, got %v", got.Progress)
	}
	if len(got.DataIssues) != 3 {
		t.Fatalf("expected 3 data issues, got %v", got.DataIssues)
	}
	if got.HistoricalContext.OwnerCompletionRate != 70 {
		t.Fatalf("expected fallback owner rate, got %v", got.HistoricalContext.OwnerCompletionRate)
	}
	if got.Trend.Confidence != 10 {
		t.Fatalf("expected confidence reduced to 10, got %v", got.Trend.Confidence)
	}
}

func TestInsufficientData(t *testing.T) {
	goal := activeGoal("g1", 20, 10)
	got := InsufficientData(goal, testNow, "boom")
	if got.RiskLevel != RiskAtRisk || got.RiskScore != 50 || got.CompletionProbability != 50 {
		t.Fatalf("unexpected degraded assessment: %+v", got)
	}
	if !got.Degraded || len(got.DataIssues) != 1 || got.DaysUntilDeadline != 10 {
		t.Fatalf("unexpected degraded metadata: %+v", got)
	}
}

func TestAssessRandomInputsStayInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	a := testAssessor()
	for i := 0; i < 500; i++ {
		goal := activeGoal("g", rng.Float64()*120-10, rng.IntN(120)-20)
		points := rng.IntN(8)
		for p := 0; p < points; p++ {
			goal.History = append(goal.History, ProgressUpdate{
				Date:     daysFrom(testNow, -rng.IntN(40)),
				Progress: rng.Float64() * 100,
			})
		}
		var owner *OwnerHistory
		if rng.IntN(2) == 0 {
			owner = &OwnerHistory{OwnerID: goal.OwnerID, AverageCompletionRate: rng.Float64() * 100}
		}
		if i%50 == 0 {
			goal.Progress = math.NaN()
		}

		got := a.Assess(AssessmentInput{Goal: goal, Owner: owner})

		if got.RiskScore < 0 || got.RiskScore > 100 || math.IsNaN(got.RiskScore) {
			t.Fatalf("case %d: score out of range: %v", i, got.RiskScore)
		}
		if got.CompletionProbability < 0 || got.CompletionProbability > 100 || math.IsNaN(got.CompletionProbability) {
			t.Fatalf("case %d: probability out of range: %v", i, got.CompletionProbability)
		}
		if got.RiskLevel != DetermineRiskLevel(got.RiskScore) {
			t.Fatalf("case %d: level %s does not match score %v", i, got.RiskLevel, got.RiskScore)
		}
		if got.Progress < 100 {
			hasDate := got.PredictedCompletionDate != nil
			if hasDate != (got.Trend.ProgressVelocity > 0) {
				t.Fatalf("case %d: prediction %v inconsistent with velocity %v", i, got.PredictedCompletionDate, got.Trend.ProgressVelocity)
			}
		}
		for _, f := range got.RiskFactors {
			if len(f.DataPoints) == 0 {
				t.Fatalf("case %d: factor %s has no data points", i, f.Kind)
			}
		}
		for _, p := range got.Trend.Projections {
			if p.Progress < 0 || p.Progress > 100 || p.Lower > p.Progress || p.Upper < p.Progress {
				t.Fatalf("case %d: bad projection %+v", i, p)
			}
		}
	}
}

func TestRiskScoreRisesAsVelocityFalls(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	a := testAssessor()
	for run := 0; run < 50; run++ {
		progress := 20 + rng.Float64()*60
		due := 10 + rng.IntN(40)
		maxGain := progress / 5
		prev := -1.0
		for step := 20; step >= 0; step-- {
			gain := maxGain * float64(step) / 20
			goal := activeGoal("g1", progress, due)
			goal.History = linearHistory(testNow, 6, progress, gain)
			score := a.AssessAt(AssessmentInput{Goal: goal}, testNow).RiskScore
			if score < prev {
				t.Fatalf("progress %.2f due %d: score fell from %v to %v at gain %.3f", progress, due, prev, score, gain)
			}
			prev = score
		}
	}
}
