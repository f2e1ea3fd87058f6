package goalrisk

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Weights holds the heuristic scoring constants. DefaultWeights reproduces
// the reference scenarios; hosts may override any subset from YAML.
type Weights struct {
	BaseProbability         float64 `yaml:"baseProbability"`
	ProgressWeight          float64 `yaml:"progressWeight"`
	VelocityWeight          float64 `yaml:"velocityWeight"`
	VelocityRatioCap        float64 `yaml:"velocityRatioCap"`
	OwnerRateWeight         float64 `yaml:"ownerRateWeight"`
	OverduePenalty          float64 `yaml:"overduePenalty"`
	FinalWeekPenaltyPerDay  float64 `yaml:"finalWeekPenaltyPerDay"`
	MomentumAdjustment      float64 `yaml:"momentumAdjustment"`
	HighFactorPenalty       float64 `yaml:"highFactorPenalty"`
	MediumFactorPenalty     float64 `yaml:"mediumFactorPenalty"`
	LowFactorPenalty        float64 `yaml:"lowFactorPenalty"`
	OverdueMultiplier       float64 `yaml:"overdueMultiplier"`
	UrgentMultiplier        float64 `yaml:"urgentMultiplier"`
	UrgentWindowDays        int     `yaml:"urgentWindowDays"`
	CriticalThreshold       float64 `yaml:"criticalThreshold"`
	HighRiskThreshold       float64 `yaml:"highRiskThreshold"`
	AtRiskThreshold         float64 `yaml:"atRiskThreshold"`
	StallDays               int     `yaml:"stallDays"`
	VelocityGapThreshold    float64 `yaml:"velocityGapThreshold"`
	HighVelocityGap         float64 `yaml:"highVelocityGap"`
	MomentumDropThreshold   float64 `yaml:"momentumDropThreshold"`
	TrackRecordThreshold    float64 `yaml:"trackRecordThreshold"`
	TimePressureDays        int     `yaml:"timePressureDays"`
	TimePressureRemaining   float64 `yaml:"timePressureRemaining"`
	DependencyProgressFloor float64 `yaml:"dependencyProgressFloor"`
	TierWeightOnTrack       float64 `yaml:"tierWeightOnTrack"`
	TierWeightAtRisk        float64 `yaml:"tierWeightAtRisk"`
	TierWeightHighRisk      float64 `yaml:"tierWeightHighRisk"`
	TierWeightCritical      float64 `yaml:"tierWeightCritical"`
	TopRisks                int     `yaml:"topRisks"`
	VelocityTrendThreshold  float64 `yaml:"velocityTrendThreshold"`
}

func DefaultWeights() Weights {
	return Weights{
		BaseProbability:         50,
		ProgressWeight:          25,
		VelocityWeight:          30,
		VelocityRatioCap:        1.5,
		OwnerRateWeight:         0.2,
		OverduePenalty:          30,
		FinalWeekPenaltyPerDay:  3,
		MomentumAdjustment:      10,
		HighFactorPenalty:       15,
		MediumFactorPenalty:     8,
		LowFactorPenalty:        3,
		OverdueMultiplier:       1.5,
		UrgentMultiplier:        1.2,
		UrgentWindowDays:        7,
		CriticalThreshold:       80,
		HighRiskThreshold:       60,
		AtRiskThreshold:         40,
		StallDays:               14,
		VelocityGapThreshold:    2,
		HighVelocityGap:         5,
		MomentumDropThreshold:   -5,
		TrackRecordThreshold:    60,
		TimePressureDays:        7,
		TimePressureRemaining:   30,
		DependencyProgressFloor: 80,
		TierWeightOnTrack:       100,
		TierWeightAtRisk:        60,
		TierWeightHighRisk:      30,
		TierWeightCritical:      0,
		TopRisks:                5,
		VelocityTrendThreshold:  0.5,
	}
}

// ParseWeights overlays YAML onto the defaults and validates the result.
func ParseWeights(data []byte) (Weights, error) {
	w := DefaultWeights()
	if len(data) == 0 {
		return w, nil
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("%w: %v", ErrInvalidWeights, err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}

func (w Weights) Validate() error {
	values := []float64{
		w.BaseProbability, w.ProgressWeight, w.VelocityWeight, w.VelocityRatioCap,
		w.OwnerRateWeight, w.OverduePenalty, w.FinalWeekPenaltyPerDay, w.MomentumAdjustment,
		w.HighFactorPenalty, w.MediumFactorPenalty, w.LowFactorPenalty,
		w.OverdueMultiplier, w.UrgentMultiplier, w.CriticalThreshold, w.HighRiskThreshold,
		w.AtRiskThreshold, w.VelocityGapThreshold, w.HighVelocityGap, w.MomentumDropThreshold,
		w.TrackRecordThreshold, w.TimePressureRemaining, w.DependencyProgressFloor,
		w.TierWeightOnTrack, w.TierWeightAtRisk, w.TierWeightHighRisk, w.TierWeightCritical,
		w.VelocityTrendThreshold,
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrInvalidWeights)
		}
	}
	if !(w.AtRiskThreshold < w.HighRiskThreshold && w.HighRiskThreshold < w.CriticalThreshold) {
		return fmt.Errorf("%w: thresholds must satisfy atRisk < highRisk < critical", ErrInvalidWeights)
	}
	if w.OverdueMultiplier < 1 || w.UrgentMultiplier < 1 {
		return fmt.Errorf("%w: multipliers must be at least 1", ErrInvalidWeights)
	}
	if w.VelocityRatioCap <= 0 {
		return fmt.Errorf("%w: velocityRatioCap must be positive", ErrInvalidWeights)
	}
	if w.HighFactorPenalty < 0 || w.MediumFactorPenalty < 0 || w.LowFactorPenalty < 0 {
		return fmt.Errorf("%w: factor penalties must not be negative", ErrInvalidWeights)
	}
	if w.TopRisks <= 0 {
		return fmt.Errorf("%w: topRisks must be positive", ErrInvalidWeights)
	}
	if w.StallDays <= 0 || w.UrgentWindowDays <= 0 || w.TimePressureDays <= 0 {
		return fmt.Errorf("%w: day windows must be positive", ErrInvalidWeights)
	}
	return nil
}

// RiskLevel maps a score onto the risk tiers.
func (w Weights) RiskLevel(score float64) RiskLevel {
	switch {
	case score >= w.CriticalThreshold:
		return RiskCritical
	case score >= w.HighRiskThreshold:
		return RiskHighRisk
	case score >= w.AtRiskThreshold:
		return RiskAtRisk
	default:
		return RiskOnTrack
	}
}

func (w Weights) factorPenalty(impact Impact) float64 {
	switch impact {
	case ImpactHigh:
		return w.HighFactorPenalty
	case ImpactMedium:
		return w.MediumFactorPenalty
	default:
		return w.LowFactorPenalty
	}
}

func (w Weights) tierWeight(level RiskLevel) float64 {
	switch level {
	case RiskAtRisk:
		return w.TierWeightAtRisk
	case RiskHighRisk:
		return w.TierWeightHighRisk
	case RiskCritical:
		return w.TierWeightCritical
	default:
		return w.TierWeightOnTrack
	}
}

// DetermineRiskLevel classifies a score with the default thresholds.
func DetermineRiskLevel(score float64) RiskLevel {
	return DefaultWeights().RiskLevel(score)
}
