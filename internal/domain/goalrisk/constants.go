package goalrisk

type GoalType string

const (
	GoalTypeIndividual   GoalType = "individual"
	GoalTypeTeam         GoalType = "team"
	GoalTypeDepartment   GoalType = "department"
	GoalTypeCompany      GoalType = "company"
	GoalTypeOKRObjective GoalType = "okr_objective"
	GoalTypeKeyResult    GoalType = "key_result"
)

type GoalStatus string

const (
	GoalStatusDraft     GoalStatus = "draft"
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusCancelled GoalStatus = "cancelled"
	GoalStatusOnHold    GoalStatus = "on_hold"
)

// RiskLevel is ordered: ON_TRACK < AT_RISK < HIGH_RISK < CRITICAL.
type RiskLevel string

const (
	RiskOnTrack  RiskLevel = "ON_TRACK"
	RiskAtRisk   RiskLevel = "AT_RISK"
	RiskHighRisk RiskLevel = "HIGH_RISK"
	RiskCritical RiskLevel = "CRITICAL"
)

func (l RiskLevel) Rank() int {
	switch l {
	case RiskAtRisk:
		return 1
	case RiskHighRisk:
		return 2
	case RiskCritical:
		return 3
	default:
		return 0
	}
}

func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskOnTrack, RiskAtRisk, RiskHighRisk, RiskCritical:
		return true
	default:
		return false
	}
}

type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

type FactorKind string

const (
	FactorProgressStall         FactorKind = "progress_stall"
	FactorInsufficientVelocity  FactorKind = "insufficient_velocity"
	FactorDecliningMomentum     FactorKind = "declining_momentum"
	FactorHistoricalTrackRecord FactorKind = "historical_track_record"
	FactorTimePressure          FactorKind = "time_pressure"
	FactorDependencyRisk        FactorKind = "dependency_risk"
)

type Momentum string

const (
	MomentumAccelerating Momentum = "accelerating"
	MomentumDecelerating Momentum = "decelerating"
	MomentumSteady       Momentum = "steady"
)

type AlertType string

const (
	AlertProgressStall       AlertType = "PROGRESS_STALL"
	AlertVelocityDrop        AlertType = "VELOCITY_DROP"
	AlertDeadlineApproaching AlertType = "DEADLINE_APPROACHING"
	AlertTrajectoryMiss      AlertType = "TRAJECTORY_MISS"
	AlertBlocker             AlertType = "BLOCKER"
	AlertDependencyRisk      AlertType = "DEPENDENCY_RISK"
	AlertResourceConstraint  AlertType = "RESOURCE_CONSTRAINT"
	AlertScopeCreep          AlertType = "SCOPE_CREEP"
)

type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "INFO"
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityUrgent   AlertSeverity = "URGENT"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// severityOrder sorts CRITICAL first.
func severityOrder(s AlertSeverity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityUrgent:
		return 1
	case SeverityWarning:
		return 2
	default:
		return 3
	}
}

type Party string

const (
	PartyEmployee Party = "employee"
	PartyManager  Party = "manager"
	PartyTeam     Party = "team"
)

type InterventionType string

const (
	InterventionEmergencyReview     InterventionType = "emergency_review"
	InterventionScopeEvaluation     InterventionType = "scope_evaluation"
	InterventionResourceAssessment  InterventionType = "resource_assessment"
	InterventionBlockerRemoval      InterventionType = "blocker_removal"
	InterventionCheckIn             InterventionType = "check_in"
	InterventionVelocityImprovement InterventionType = "velocity_improvement"
	InterventionRestartPlan         InterventionType = "restart_plan"
)

const (
	InterventionStatusPending    = "pending"
	InterventionStatusInProgress = "in_progress"
	InterventionStatusDone       = "done"
)

type CheckType string

const (
	CheckDaily   CheckType = "daily"
	CheckMidWeek CheckType = "mid_week"
	CheckWeekly  CheckType = "weekly"
)

type VelocityTrend string

const (
	VelocityImproving VelocityTrend = "improving"
	VelocityStable    VelocityTrend = "stable"
	VelocityDeclining VelocityTrend = "declining"
)

// newOwnerCompletionRate is an optimistic prior for owners with no record.
const newOwnerCompletionRate = 70
