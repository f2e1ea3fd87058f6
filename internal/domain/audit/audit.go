package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	ActionPlanCreate       = "goalrisk.plan.create"
	ActionAlertAcknowledge = "goalrisk.alert.acknowledge"
	ActionTeamMonitor      = "goalrisk.team.monitor"
)

const (
	EntityGoal  = "goal"
	EntityAlert = "alert"
	EntityTeam  = "team"
)

// Event is one manager or HR action on goal-risk data.
type Event struct {
	TenantID   string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Details    any
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// Record writes evt to audit_events. A nil service or pool drops the event.
func (s *Service) Record(ctx context.Context, evt Event) error {
	if s == nil || s.DB == nil {
		return nil
	}
	var details []byte
	if evt.Details != nil {
		payload, err := json.Marshal(evt.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = payload
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (tenant_id, actor_user_id, action, entity_type, entity_id, details_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, evt.TenantID, evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, details, evt.RequestID, evt.IP)
	return err
}
