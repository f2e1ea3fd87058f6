package goalrisk

import "time"

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func daysFrom(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// linearHistory returns one update per day ending at now with the given
// daily gain, finishing at progress.
func linearHistory(now time.Time, points int, progress, gain float64) []ProgressUpdate {
	out := make([]ProgressUpdate, 0, points)
	for i := points - 1; i >= 0; i-- {
		out = append(out, ProgressUpdate{
			Date:     daysFrom(now, -i),
			Progress: progress - gain*float64(i),
		})
	}
	return out
}

func activeGoal(id string, progress float64, dueInDays int) GoalRecord {
	return GoalRecord{
		ID:        id,
		Title:     "Goal " + id,
		OwnerID:   "owner-" + id,
		OwnerName: "Owner " + id,
		ManagerID: "manager-1",
		TeamID:    "team-1",
		Type:      GoalTypeIndividual,
		Status:    GoalStatusActive,
		Progress:  progress,
		StartDate: daysFrom(testNow, -30),
		DueDate:   daysFrom(testNow, dueInDays),
		Weight:    1,
	}
}

func testAssessor(opts ...Option) *Assessor {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewAssessor(opts...)
}

func assessmentWithLevel(id string, level RiskLevel, score float64) GoalRiskAssessment {
	return GoalRiskAssessment{
		GoalID:                id,
		GoalTitle:             "Goal " + id,
		RiskLevel:             level,
		RiskScore:             score,
		CompletionProbability: 100 - score,
	}
}
