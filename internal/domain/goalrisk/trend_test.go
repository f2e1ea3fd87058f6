package goalrisk

import (
	"math"
	"testing"
	"time"
)

func TestAnalyzeTrendRecentVelocity(t *testing.T) {
	history := linearHistory(testNow, 8, 50, 2)
	trend := AnalyzeTrend(history, 50, daysFrom(testNow, -30), daysFrom(testNow, 5), testNow)

	if math.Abs(trend.ProgressVelocity-2) > 1e-9 {
		t.Fatalf("expected velocity 2, got %v", trend.ProgressVelocity)
	}
	if trend.RequiredVelocity != 10 {
		t.Fatalf("expected required velocity 10, got %v", trend.RequiredVelocity)
	}
	if math.Abs(trend.VelocityGap-8) > 1e-9 {
		t.Fatalf("expected gap 8, got %v", trend.VelocityGap)
	}
	if trend.Confidence != 100 {
		t.Fatalf("expected confidence capped at 100, got %v", trend.Confidence)
	}
}

func TestAnalyzeTrendFallbackVelocity(t *testing.T) {
	trend := AnalyzeTrend(nil, 30, daysFrom(testNow, -10), daysFrom(testNow, 20), testNow)
	if math.Abs(trend.ProgressVelocity-3) > 1e-9 {
		t.Fatalf("expected fallback velocity 3, got %v", trend.ProgressVelocity)
	}
	if trend.Confidence != 30 {
		t.Fatalf("expected confidence 30, got %v", trend.Confidence)
	}
	if trend.Momentum != MomentumSteady {
		t.Fatalf("expected steady momentum, got %s", trend.Momentum)
	}
}

func TestWindowVelocitySkipsZeroGaps(t *testing.T) {
	points := []ProgressUpdate{
		{Date: daysFrom(testNow, -2), Progress: 10},
		{Date: daysFrom(testNow, -2), Progress: 40},
		{Date: testNow, Progress: 50},
	}
	if v := windowVelocity(points); v != 5 {
		t.Fatalf("expected 5, got %v", v)
	}
	if v := windowVelocity(points[:2]); v != 0 {
		t.Fatalf("expected 0 for a zero span, got %v", v)
	}
}

func TestMomentum(t *testing.T) {
	accelerating := []ProgressUpdate{
		{Date: daysFrom(testNow, -3), Progress: 0},
		{Date: daysFrom(testNow, -2), Progress: 1},
		{Date: daysFrom(testNow, -1), Progress: 5},
		{Date: testNow, Progress: 10},
	}
	if m := momentum(accelerating); m != MomentumAccelerating {
		t.Fatalf("expected accelerating, got %s", m)
	}

	decelerating := []ProgressUpdate{
		{Date: daysFrom(testNow, -3), Progress: 0},
		{Date: daysFrom(testNow, -2), Progress: 10},
		{Date: daysFrom(testNow, -1), Progress: 12},
		{Date: testNow, Progress: 13},
	}
	if m := momentum(decelerating); m != MomentumDecelerating {
		t.Fatalf("expected decelerating, got %s", m)
	}

	if m := momentum(accelerating[:3]); m != MomentumSteady {
		t.Fatalf("expected steady for three points, got %s", m)
	}
}

func TestRequiredVelocity(t *testing.T) {
	if v := requiredVelocity(100, 10); v != 0 {
		t.Fatalf("expected 0 for a finished goal, got %v", v)
	}
	if v := requiredVelocity(60, 0); v != 40 {
		t.Fatalf("expected remaining work when overdue, got %v", v)
	}
	if v := requiredVelocity(60, 8); v != 5 {
		t.Fatalf("expected 5, got %v", v)
	}
}

func TestProjections(t *testing.T) {
	trend := AnalyzeTrend(linearHistory(testNow, 3, 20, 1), 20, daysFrom(testNow, -30), daysFrom(testNow, 30), testNow)
	if len(trend.Projections) != 4 {
		t.Fatalf("expected 4 projections, got %d", len(trend.Projections))
	}
	wantDays := []int{7, 14, 21, 30}
	for i, p := range trend.Projections {
		if p.DaysAhead != wantDays[i] {
			t.Fatalf("projection %d: expected %d days ahead, got %d", i, wantDays[i], p.DaysAhead)
		}
		if p.Lower > p.Progress || p.Progress > p.Upper {
			t.Fatalf("projection %d: band does not contain value: %+v", i, p)
		}
	}
	last := trend.Projections[3]
	if last.Progress != 50 || last.Uncertainty != 10 {
		t.Fatalf("unexpected final projection: %+v", last)
	}

	short := AnalyzeTrend(nil, 20, daysFrom(testNow, -10), daysFrom(testNow, 10), testNow)
	if len(short.Projections) != 2 || short.Projections[1].DaysAhead != 10 {
		t.Fatalf("expected projections at 7 and 10 days, got %+v", short.Projections)
	}

	overdue := AnalyzeTrend(nil, 20, daysFrom(testNow, -10), daysFrom(testNow, -1), testNow)
	if len(overdue.Projections) != 0 {
		t.Fatalf("expected no projections for an overdue goal, got %d", len(overdue.Projections))
	}
}

func TestDaysUntil(t *testing.T) {
	if d := daysUntil(testNow, testNow); d != 0 {
		t.Fatalf("expected 0, got %d", d)
	}
	if d := daysUntil(testNow, testNow.Add(36*time.Hour)); d != 2 {
		t.Fatalf("expected partial days rounded up to 2, got %d", d)
	}
	if d := daysUntil(testNow, daysFrom(testNow, -3)); d != -3 {
		t.Fatalf("expected -3, got %d", d)
	}
}

func TestMomentumLinearHistoriesAreSteady(t *testing.T) {
	for gain := 0.0; gain <= 8; gain += 0.05 {
		history := linearHistory(testNow, 6, 40, gain)
		if got := momentum(history); got != MomentumSteady {
			t.Fatalf("gain %v: expected steady, got %s", gain, got)
		}
	}
}

func TestAnalyzeTrendWeekOverWeek(t *testing.T) {
	at := func(days int, progress float64) ProgressUpdate {
		return ProgressUpdate{Date: daysFrom(testNow, days), Progress: progress}
	}
	tests := []struct {
		name    string
		history []ProgressUpdate
		current float64
		want    float64
	}{
		{
			name:    "history shorter than two weeks",
			history: []ProgressUpdate{at(-10, 60), at(-5, 62.5), at(0, 65)},
			current: 65,
			want:    0,
		},
		{
			name:    "linear over three weeks",
			history: linearHistory(testNow, 20, 60, 2),
			current: 60,
			want:    0,
		},
		{
			name:    "slowing",
			history: []ProgressUpdate{at(-14, 20), at(-7, 40), at(0, 45)},
			current: 45,
			want:    -15,
		},
		{
			name:    "speeding up",
			history: []ProgressUpdate{at(-21, 10), at(-14, 12), at(-7, 15), at(0, 25)},
			current: 25,
			want:    7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trend := AnalyzeTrend(tt.history, tt.current, daysFrom(testNow, -30), daysFrom(testNow, 30), testNow)
			if math.Abs(trend.WeekOverWeekDelta-tt.want) > 1e-9 {
				t.Fatalf("expected week-over-week %v, got %v", tt.want, trend.WeekOverWeekDelta)
			}
		})
	}
}

func TestShortHistoryHasNoDecliningMomentum(t *testing.T) {
	goal := activeGoal("g1", 65, 30)
	goal.History = []ProgressUpdate{
		{Date: daysFrom(testNow, -10), Progress: 60},
		{Date: daysFrom(testNow, -5), Progress: 62.5},
		{Date: testNow, Progress: 65},
	}
	got := testAssessor().AssessAt(AssessmentInput{Goal: goal}, testNow)
	for _, f := range got.RiskFactors {
		if f.Kind == FactorDecliningMomentum {
			t.Fatalf("unexpected declining momentum factor: %+v", f)
		}
	}
}
