package goalrisk

import "errors"

var (
	ErrGoalNotFound         = errors.New("goal not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrAlertNotFound        = errors.New("alert not found")
	ErrOwnerHistoryNotFound = errors.New("owner history not found")
	ErrInvalidWeights       = errors.New("invalid scoring weights")
	ErrGoalNotActive        = errors.New("goal is not active")
)
