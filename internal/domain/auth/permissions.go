package auth

import (
	"context"
	"slices"
)

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleHR       = "hr"
	RoleAdmin    = "admin"
)

const (
	PermGoalRiskRead    = "goalrisk.read"
	PermGoalRiskPlan    = "goalrisk.plan"
	PermGoalRiskMonitor = "goalrisk.monitor"
	PermGoalRiskAlerts  = "goalrisk.alerts.ack"
)

var DefaultPermissions = []string{
	PermGoalRiskRead,
	PermGoalRiskPlan,
	PermGoalRiskMonitor,
	PermGoalRiskAlerts,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermGoalRiskRead,
		PermGoalRiskAlerts,
	},
	RoleManager: {
		PermGoalRiskRead,
		PermGoalRiskPlan,
		PermGoalRiskMonitor,
		PermGoalRiskAlerts,
	},
	RoleHR: {
		PermGoalRiskRead,
		PermGoalRiskPlan,
		PermGoalRiskMonitor,
		PermGoalRiskAlerts,
	},
	RoleAdmin: {
		PermGoalRiskRead,
		PermGoalRiskMonitor,
	},
}

// StaticPermissions resolves permissions from RolePermissions by role name.
type StaticPermissions struct {
	Roles map[string][]string
}

func NewStaticPermissions() *StaticPermissions {
	return &StaticPermissions{Roles: RolePermissions}
}

func (p *StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	roles := p.Roles
	if roles == nil {
		roles = RolePermissions
	}
	return slices.Contains(roles[role], permission), nil
}
