package goalrisk

import "time"

type ProgressUpdate struct {
	Date     time.Time `json:"date"`
	Progress float64   `json:"progress"`
	Value    *float64  `json:"value,omitempty"`
	Note     string    `json:"note,omitempty"`
}

// GoalRecord is a read-only snapshot of a goal supplied by the host.
// ManagerID and TeamID are empty when absent.
type GoalRecord struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	OwnerID       string           `json:"ownerId"`
	OwnerName     string           `json:"ownerName"`
	ManagerID     string           `json:"managerId,omitempty"`
	TeamID        string           `json:"teamId,omitempty"`
	Type          GoalType         `json:"type"`
	Status        GoalStatus       `json:"status"`
	Progress      float64          `json:"progress"`
	TargetValue   *float64         `json:"targetValue,omitempty"`
	CurrentValue  *float64         `json:"currentValue,omitempty"`
	StartDate     time.Time        `json:"startDate"`
	DueDate       time.Time        `json:"dueDate"`
	Weight        float64          `json:"weight"`
	DependencyIDs []string         `json:"dependencyIds,omitempty"`
	History       []ProgressUpdate `json:"progressHistory"`
}

func (g GoalRecord) HasManager() bool {
	return g.ManagerID != ""
}

func (g GoalRecord) IsActive() bool {
	return g.Status == GoalStatusActive
}

type OwnerHistory struct {
	OwnerID               string    `json:"ownerId"`
	GoalsCompleted        int       `json:"goalsCompleted"`
	GoalsMissed           int       `json:"goalsMissed"`
	AverageCompletionRate float64   `json:"averageCompletionRate"`
	AverageDaysEarlyLate  float64   `json:"averageDaysEarlyLate"`
	RecentVelocities      []float64 `json:"recentVelocities,omitempty"`
}

// hasOutcomes reports whether the owner has finished any goal. Rows with
// no outcomes carry column defaults rather than a track record.
func (h OwnerHistory) hasOutcomes() bool {
	return h.GoalsCompleted+h.GoalsMissed > 0
}

// NewOwnerHistory is the prior used when an owner has no recorded history.
func NewOwnerHistory(ownerID string) OwnerHistory {
	return OwnerHistory{OwnerID: ownerID, AverageCompletionRate: newOwnerCompletionRate}
}

type Projection struct {
	Date        time.Time `json:"date"`
	DaysAhead   int       `json:"daysAhead"`
	Progress    float64   `json:"progress"`
	Uncertainty float64   `json:"uncertainty"`
	Lower       float64   `json:"lower"`
	Upper       float64   `json:"upper"`
}

type TrendResult struct {
	ProgressVelocity  float64      `json:"progressVelocity"`
	RequiredVelocity  float64      `json:"requiredVelocity"`
	VelocityGap       float64      `json:"velocityGap"`
	Accelerating      bool         `json:"accelerating"`
	Momentum          Momentum     `json:"momentum"`
	WeekOverWeekDelta float64      `json:"weekOverWeekDelta"`
	Projections       []Projection `json:"projections"`
	Confidence        float64      `json:"confidence"`
}

type RiskFactor struct {
	Kind        FactorKind `json:"kind"`
	Name        string     `json:"name"`
	Impact      Impact     `json:"impact"`
	Description string     `json:"description"`
	DataPoints  []string   `json:"dataPoints"`
	Mitigable   bool       `json:"mitigable"`
}

type Recommendation struct {
	Priority       int        `json:"priority"`
	Action         string     `json:"action"`
	ExpectedImpact string     `json:"expectedImpact"`
	Responsible    Party      `json:"responsible"`
	Timeframe      string     `json:"timeframe"`
	Factor         FactorKind `json:"factor,omitempty"`
}

type HistoricalContext struct {
	OwnerCompletionRate  float64 `json:"ownerCompletionRate"`
	GoalsCompleted       int     `json:"goalsCompleted"`
	GoalsMissed          int     `json:"goalsMissed"`
	AverageDaysEarlyLate float64 `json:"averageDaysEarlyLate"`
	AverageVelocity      float64 `json:"averageVelocity"`
	NewOwner             bool    `json:"newOwner"`
}

type Alert struct {
	ID               string        `json:"id"`
	GoalID           string        `json:"goalId"`
	Type             AlertType     `json:"type"`
	Severity         AlertSeverity `json:"severity"`
	Message          string        `json:"message"`
	Recipients       []string      `json:"recipients"`
	CreatedAt        time.Time     `json:"createdAt"`
	Acknowledged     bool          `json:"acknowledged"`
	AcknowledgedAt   *time.Time    `json:"acknowledgedAt,omitempty"`
	AcknowledgedBy   string        `json:"acknowledgedBy,omitempty"`
	SuggestedActions []string      `json:"suggestedActions"`
}

// GoalRiskAssessment is built fresh on every call and never mutated.
type GoalRiskAssessment struct {
	GoalID                  string            `json:"goalId"`
	GoalTitle               string            `json:"goalTitle"`
	OwnerID                 string            `json:"ownerId"`
	OwnerName               string            `json:"ownerName"`
	ManagerID               string            `json:"managerId,omitempty"`
	TeamID                  string            `json:"teamId,omitempty"`
	RiskLevel               RiskLevel         `json:"riskLevel"`
	RiskScore               float64           `json:"riskScore"`
	CompletionProbability   float64           `json:"completionProbability"`
	Progress                float64           `json:"progress"`
	DaysUntilDeadline       int               `json:"daysUntilDeadline"`
	PredictedCompletionDate *time.Time        `json:"predictedCompletionDate"`
	WillMissDeadline        bool              `json:"willMissDeadline"`
	RiskFactors             []RiskFactor      `json:"riskFactors"`
	Recommendations         []Recommendation  `json:"recommendations"`
	HistoricalContext       HistoricalContext `json:"historicalContext"`
	Trend                   TrendResult       `json:"trend"`
	Alerts                  []Alert           `json:"alerts"`
	AssessedAt              time.Time         `json:"assessedAt"`
	Degraded                bool              `json:"degraded"`
	DataIssues              []string          `json:"dataIssues,omitempty"`
}

func (a GoalRiskAssessment) HasFactor(kind FactorKind) bool {
	for _, f := range a.RiskFactors {
		if f.Kind == kind {
			return true
		}
	}
	return false
}

type Intervention struct {
	ID          string           `json:"id"`
	Type        InterventionType `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Owner       string           `json:"owner"`
	Deadline    time.Time        `json:"deadline"`
	Status      string           `json:"status"`
	Priority    int              `json:"priority"`
}

type ProjectedOutcome struct {
	RiskLevel             RiskLevel `json:"riskLevel"`
	RiskScore             float64   `json:"riskScore"`
	CompletionProbability float64   `json:"completionProbability"`
	Confidence            float64   `json:"confidence"`
}

type EscalationStep struct {
	Order   int    `json:"order"`
	Trigger string `json:"trigger"`
	Action  string `json:"action"`
	Owner   string `json:"owner"`
}

type Checkpoint struct {
	Date             time.Time `json:"date"`
	ExpectedProgress float64   `json:"expectedProgress"`
	CheckType        CheckType `json:"checkType"`
}

type InterventionPlan struct {
	ID               string           `json:"id"`
	GoalID           string           `json:"goalId"`
	GoalTitle        string           `json:"goalTitle"`
	CreatedBy        string           `json:"createdBy,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	CurrentRiskLevel RiskLevel        `json:"currentRiskLevel"`
	Interventions    []Intervention   `json:"interventions"`
	ProjectedOutcome ProjectedOutcome `json:"projectedOutcome"`
	EscalationPath   []EscalationStep `json:"escalationPath"`
	Checkpoints      []Checkpoint     `json:"checkpoints"`
}

type RiskSummary struct {
	Total    int `json:"total"`
	OnTrack  int `json:"onTrack"`
	AtRisk   int `json:"atRisk"`
	HighRisk int `json:"highRisk"`
	Critical int `json:"critical"`
}

type TeamTrend struct {
	HighRiskDelta  int           `json:"highRiskDelta"`
	GoalsRecovered int           `json:"goalsRecovered"`
	GoalsEscalated int           `json:"goalsEscalated"`
	VelocityTrend  VelocityTrend `json:"velocityTrend"`
}

type TeamRiskDashboard struct {
	TeamID                       string               `json:"teamId"`
	TeamName                     string               `json:"teamName,omitempty"`
	GeneratedAt                  time.Time            `json:"generatedAt"`
	Summary                      RiskSummary          `json:"summary"`
	AverageCompletionProbability float64              `json:"averageCompletionProbability"`
	TopRisks                     []GoalRiskAssessment `json:"topRisks"`
	HealthScore                  int                  `json:"healthScore"`
	Trend                        *TeamTrend           `json:"trend,omitempty"`
	Recommendations              []string             `json:"recommendations"`
}
