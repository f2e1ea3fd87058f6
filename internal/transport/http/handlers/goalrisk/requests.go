package goalriskhandler

import (
	"strings"
	"time"

	"goalrisk/internal/domain/goalrisk"
	"goalrisk/internal/transport/http/shared"
)

var (
	goalStatuses = []string{
		string(goalrisk.GoalStatusDraft),
		string(goalrisk.GoalStatusActive),
		string(goalrisk.GoalStatusCompleted),
		string(goalrisk.GoalStatusCancelled),
		string(goalrisk.GoalStatusOnHold),
	}
	goalTypes = []string{
		string(goalrisk.GoalTypeIndividual),
		string(goalrisk.GoalTypeTeam),
		string(goalrisk.GoalTypeDepartment),
		string(goalrisk.GoalTypeCompany),
		string(goalrisk.GoalTypeOKRObjective),
		string(goalrisk.GoalTypeKeyResult),
	}
)

type progressPayload struct {
	Date     string   `json:"date"`
	Progress float64  `json:"progress"`
	Value    *float64 `json:"value"`
	Note     string   `json:"note"`
}

// goalPayload accepts dates as RFC3339 or YYYY-MM-DD strings.
type goalPayload struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	OwnerID       string            `json:"ownerId"`
	OwnerName     string            `json:"ownerName"`
	ManagerID     string            `json:"managerId"`
	TeamID        string            `json:"teamId"`
	Type          string            `json:"type"`
	Status        string            `json:"status"`
	Progress      float64           `json:"progress"`
	TargetValue   *float64          `json:"targetValue"`
	CurrentValue  *float64          `json:"currentValue"`
	StartDate     string            `json:"startDate"`
	DueDate       string            `json:"dueDate"`
	Weight        float64           `json:"weight"`
	DependencyIDs []string          `json:"dependencyIds"`
	History       []progressPayload `json:"progressHistory"`
}

type assessRequest struct {
	Goal         goalPayload            `json:"goal"`
	Owner        *goalrisk.OwnerHistory `json:"ownerHistory"`
	Dependencies []goalPayload          `json:"dependencies"`
}

func (p assessRequest) toInput() (goalrisk.AssessmentInput, *shared.Validator) {
	v := shared.NewValidator()
	in := goalrisk.AssessmentInput{
		Goal:  p.Goal.toRecord(v, "goal"),
		Owner: p.Owner,
	}
	if p.Owner != nil {
		v.Range("ownerHistory.averageCompletionRate", p.Owner.AverageCompletionRate, 0, 100)
		v.NonNegative("ownerHistory.goalsCompleted", float64(p.Owner.GoalsCompleted))
		v.NonNegative("ownerHistory.goalsMissed", float64(p.Owner.GoalsMissed))
		if p.Owner.OwnerID == "" {
			p.Owner.OwnerID = in.Goal.OwnerID
		}
	}
	for _, dep := range p.Dependencies {
		in.Dependencies = append(in.Dependencies, dep.toRecord(v, "dependencies"))
	}
	return in, v
}

func (p goalPayload) toRecord(v *shared.Validator, prefix string) goalrisk.GoalRecord {
	v.Required(prefix+".id", p.ID, "is required")
	v.Required(prefix+".ownerId", p.OwnerID, "is required")
	v.Enum(prefix+".status", p.Status, goalStatuses, "is not a known goal status")
	v.Enum(prefix+".type", p.Type, goalTypes, "is not a known goal type")
	v.NonNegative(prefix+".weight", p.Weight)

	status := goalrisk.GoalStatus(strings.ToLower(strings.TrimSpace(p.Status)))
	if status == "" {
		status = goalrisk.GoalStatusActive
	}
	goalType := goalrisk.GoalType(strings.ToLower(strings.TrimSpace(p.Type)))
	if goalType == "" {
		goalType = goalrisk.GoalTypeIndividual
	}

	record := goalrisk.GoalRecord{
		ID:            p.ID,
		Title:         p.Title,
		OwnerID:       p.OwnerID,
		OwnerName:     p.OwnerName,
		ManagerID:     p.ManagerID,
		TeamID:        p.TeamID,
		Type:          goalType,
		Status:        status,
		Progress:      p.Progress,
		TargetValue:   p.TargetValue,
		CurrentValue:  p.CurrentValue,
		StartDate:     optionalDate(v, prefix+".startDate", p.StartDate),
		DueDate:       optionalDate(v, prefix+".dueDate", p.DueDate),
		Weight:        p.Weight,
		DependencyIDs: p.DependencyIDs,
	}
	for _, u := range p.History {
		date, ok := v.Date(prefix+".progressHistory.date", u.Date)
		if !ok {
			continue
		}
		record.History = append(record.History, goalrisk.ProgressUpdate{
			Date:     date,
			Progress: u.Progress,
			Value:    u.Value,
			Note:     u.Note,
		})
	}
	return record
}

// Missing dates are filled in by goal normalization; only malformed ones are rejected.
func optionalDate(v *shared.Validator, field, raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, _ := v.Date(field, raw)
	return parsed
}
