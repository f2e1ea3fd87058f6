package goalrisk

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDFunc derives an identifier from its parts.
type IDFunc func(parts ...string) string

// StableID returns a name-based UUID, so identical inputs give identical ids.
func StableID(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, "|"))).String()
}

// GenerateAlerts derives notifications from the risk level and factors.
// Alerts are not deduplicated against earlier runs.
func GenerateAlerts(goal GoalRecord, level RiskLevel, factors []RiskFactor, days int, now time.Time, newID IDFunc) []Alert {
	if newID == nil {
		newID = StableID
	}
	recipients := []string{goal.OwnerID}
	if goal.HasManager() {
		recipients = append(recipients, goal.ManagerID)
	}
	stamp := strconv.FormatInt(now.UnixNano(), 10)
	build := func(t AlertType, sev AlertSeverity, msg string, actions ...string) Alert {
		return Alert{
			ID:               newID("alert", goal.ID, string(t), string(sev), stamp),
			GoalID:           goal.ID,
			Type:             t,
			Severity:         sev,
			Message:          msg,
			Recipients:       slices.Clone(recipients),
			CreatedAt:        now,
			SuggestedActions: actions,
		}
	}

	var alerts []Alert
	if level == RiskCritical {
		alerts = append(alerts, build(AlertTrajectoryMiss, SeverityCritical,
			fmt.Sprintf("%q is on a trajectory to miss its deadline", goal.Title),
			"view_assessment", "create_intervention_plan", "schedule_review"))
	}
	if findFactor(factors, FactorProgressStall) != nil {
		alerts = append(alerts, build(AlertProgressStall, SeverityWarning,
			fmt.Sprintf("No progress has been recorded on %q recently", goal.Title),
			"update_progress", "schedule_check_in"))
	}
	if days <= 7 && goal.Progress < 80 {
		sev := SeverityWarning
		if days <= 3 {
			sev = SeverityUrgent
		}
		alerts = append(alerts, build(AlertDeadlineApproaching, sev,
			deadlineMessage(goal, days),
			"update_progress", "request_extension"))
	}
	if f := findFactor(factors, FactorInsufficientVelocity); f != nil && f.Impact == ImpactHigh {
		alerts = append(alerts, build(AlertVelocityDrop, SeverityWarning,
			fmt.Sprintf("Progress on %q is well below the pace needed to finish on time", goal.Title),
			"view_trend", "adjust_plan"))
	}
	if findFactor(factors, FactorDependencyRisk) != nil {
		alerts = append(alerts, build(AlertDependencyRisk, SeverityInfo,
			fmt.Sprintf("Goals that %q depends on are behind", goal.Title),
			"view_dependencies"))
	}
	return alerts
}

func deadlineMessage(goal GoalRecord, days int) string {
	switch {
	case days <= 0:
		return fmt.Sprintf("%q is past its deadline at %.0f%% progress", goal.Title, goal.Progress)
	case days == 1:
		return fmt.Sprintf("%q is due tomorrow at %.0f%% progress", goal.Title, goal.Progress)
	default:
		return fmt.Sprintf("%q is due in %d days at %.0f%% progress", goal.Title, days, goal.Progress)
	}
}

func findFactor(factors []RiskFactor, kind FactorKind) *RiskFactor {
	for i := range factors {
		if factors[i].Kind == kind {
			return &factors[i]
		}
	}
	return nil
}

// SortAlerts orders alerts CRITICAL, URGENT, WARNING, INFO, then oldest
// first within a severity.
func SortAlerts(alerts []Alert) {
	slices.SortStableFunc(alerts, func(a, b Alert) int {
		if d := severityOrder(a.Severity) - severityOrder(b.Severity); d != 0 {
			return d
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.GoalID, b.GoalID)
	})
}
