package goalrisk

import (
	"math"
	"time"
)

// CompletionProbability estimates the chance (0-100) of finishing on time.
func CompletionProbability(progress float64, trend TrendResult, ownerRate float64, days int, w Weights) float64 {
	p := w.BaseProbability
	p += (clamp(progress, 0, 100)/100 - 0.5) * w.ProgressWeight

	if trend.RequiredVelocity > 0 {
		ratio := trend.ProgressVelocity / trend.RequiredVelocity
		p += (math.Min(ratio, w.VelocityRatioCap) - 0.5) * w.VelocityWeight
	}

	if isFinite(ownerRate) {
		p += (clamp(ownerRate, 0, 100) - 50) * w.OwnerRateWeight
	}

	switch {
	case days <= 0:
		p -= w.OverduePenalty
	case days < w.UrgentWindowDays:
		p -= float64(w.UrgentWindowDays-days) * w.FinalWeekPenaltyPerDay
	}

	switch trend.Momentum {
	case MomentumAccelerating:
		p += w.MomentumAdjustment
	case MomentumDecelerating:
		p -= w.MomentumAdjustment
	}

	return round1(clamp(p, 0, 100))
}

// RiskScore inverts the probability, adds a penalty per factor and scales by
// deadline urgency.
func RiskScore(probability float64, factors []RiskFactor, days int, w Weights) float64 {
	score := 100 - clamp(probability, 0, 100)
	for _, f := range factors {
		score += w.factorPenalty(f.Impact)
	}
	switch {
	case days <= 0:
		score *= w.OverdueMultiplier
	case days <= w.UrgentWindowDays:
		score *= w.UrgentMultiplier
	}
	return round1(clamp(score, 0, 100))
}

const maxPredictionDays = 100 * 365

type CompletionPrediction struct {
	PredictedDate    *time.Time
	WillMissDeadline bool
	DaysToComplete   float64
}

// PredictCompletion projects a completion date at the current velocity.
// The date is nil exactly when an unfinished goal has no positive velocity.
func PredictCompletion(progress, velocity float64, days int, now time.Time) CompletionPrediction {
	if progress >= 100 {
		done := now
		return CompletionPrediction{PredictedDate: &done}
	}
	if !(velocity > 0) {
		return CompletionPrediction{WillMissDeadline: true}
	}
	toComplete := (100 - progress) / velocity
	date := now.AddDate(0, 0, int(math.Min(math.Ceil(toComplete), maxPredictionDays)))
	return CompletionPrediction{
		PredictedDate:    &date,
		WillMissDeadline: toComplete > float64(days),
		DaysToComplete:   toComplete,
	}
}
