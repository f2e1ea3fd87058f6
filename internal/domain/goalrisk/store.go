package goalrisk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const goalColumns = `
    g.id, g.title, g.owner_id, g.owner_name, COALESCE(g.manager_id, ''), COALESCE(g.team_id, ''),
    g.goal_type, g.status, g.progress, g.target_value, g.current_value,
    g.start_date, g.due_date, g.weight, COALESCE(g.dependency_ids, '{}')
`

func scanGoal(row pgx.Row) (GoalRecord, error) {
	var g GoalRecord
	var goalType, status string
	err := row.Scan(&g.ID, &g.Title, &g.OwnerID, &g.OwnerName, &g.ManagerID, &g.TeamID,
		&goalType, &status, &g.Progress, &g.TargetValue, &g.CurrentValue,
		&g.StartDate, &g.DueDate, &g.Weight, &g.DependencyIDs)
	g.Type = GoalType(goalType)
	g.Status = GoalStatus(status)
	return g, err
}

func (s *Store) LoadGoal(ctx context.Context, tenantID, goalID string) (GoalRecord, error) {
	goal, err := scanGoal(s.DB.QueryRow(ctx, `
    SELECT `+goalColumns+`
    FROM goals g
    WHERE g.tenant_id = $1 AND g.id = $2
  `, tenantID, goalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return GoalRecord{}, ErrGoalNotFound
		}
		return GoalRecord{}, err
	}
	goals := []GoalRecord{goal}
	if err := s.attachHistory(ctx, tenantID, goals); err != nil {
		return GoalRecord{}, err
	}
	return goals[0], nil
}

func (s *Store) LoadGoals(ctx context.Context, tenantID string, goalIDs []string) ([]GoalRecord, error) {
	if len(goalIDs) == 0 {
		return nil, nil
	}
	return s.queryGoals(ctx, tenantID, `
    SELECT `+goalColumns+`
    FROM goals g
    WHERE g.tenant_id = $1 AND g.id = ANY($2)
    ORDER BY g.id
  `, tenantID, goalIDs)
}

func (s *Store) ListTeamGoals(ctx context.Context, tenantID, teamID string) ([]GoalRecord, error) {
	return s.queryGoals(ctx, tenantID, `
    SELECT `+goalColumns+`
    FROM goals g
    WHERE g.tenant_id = $1 AND g.team_id = $2
    ORDER BY g.due_date, g.id
  `, tenantID, teamID)
}

func (s *Store) queryGoals(ctx context.Context, tenantID, query string, args ...any) ([]GoalRecord, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []GoalRecord
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachHistory(ctx, tenantID, goals); err != nil {
		return nil, err
	}
	return goals, nil
}

func (s *Store) attachHistory(ctx context.Context, tenantID string, goals []GoalRecord) error {
	if len(goals) == 0 {
		return nil
	}
	ids := make([]string, len(goals))
	index := make(map[string]int, len(goals))
	for i, g := range goals {
		ids[i] = g.ID
		index[g.ID] = i
	}

	rows, err := s.DB.Query(ctx, `
    SELECT goal_id, recorded_at, progress, value, COALESCE(note, '')
    FROM goal_progress_updates
    WHERE tenant_id = $1 AND goal_id = ANY($2)
    ORDER BY goal_id, recorded_at
  `, tenantID, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var goalID string
		var u ProgressUpdate
		if err := rows.Scan(&goalID, &u.Date, &u.Progress, &u.Value, &u.Note); err != nil {
			return err
		}
		if i, ok := index[goalID]; ok {
			goals[i].History = append(goals[i].History, u)
		}
	}
	return rows.Err()
}

func (s *Store) TeamName(ctx context.Context, tenantID, teamID string) (string, error) {
	var name string
	if err := s.DB.QueryRow(ctx, "SELECT name FROM teams WHERE tenant_id = $1 AND id = $2", tenantID, teamID).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrTeamNotFound
		}
		return "", err
	}
	return name, nil
}

func (s *Store) ListTeams(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT id FROM teams WHERE tenant_id = $1 ORDER BY id", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) LoadOwnerHistory(ctx context.Context, tenantID, ownerID string) (OwnerHistory, error) {
	h := OwnerHistory{OwnerID: ownerID}
	err := s.DB.QueryRow(ctx, `
    SELECT goals_completed, goals_missed, avg_completion_rate, avg_days_early_late, COALESCE(recent_velocities, '{}')
    FROM owner_histories
    WHERE tenant_id = $1 AND owner_id = $2
  `, tenantID, ownerID).Scan(&h.GoalsCompleted, &h.GoalsMissed, &h.AverageCompletionRate, &h.AverageDaysEarlyLate, &h.RecentVelocities)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OwnerHistory{}, ErrOwnerHistoryNotFound
		}
		return OwnerHistory{}, err
	}
	if !h.hasOutcomes() {
		return OwnerHistory{}, ErrOwnerHistoryNotFound
	}
	return h, nil
}

// LoadPriorAssessments returns the most recent stored run for the team, or
// nil when the team has never been monitored.
func (s *Store) LoadPriorAssessments(ctx context.Context, tenantID, teamID string) ([]GoalRiskAssessment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT payload
    FROM goal_risk_snapshots
    WHERE tenant_id = $1 AND team_id = $2 AND run_id = (
      SELECT run_id FROM goal_risk_snapshots
      WHERE tenant_id = $1 AND team_id = $2
      ORDER BY assessed_at DESC
      LIMIT 1
    )
  `, tenantID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GoalRiskAssessment
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var a GoalRiskAssessment
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) SaveAssessments(ctx context.Context, tenantID, teamID, runID string, assessments []GoalRiskAssessment) error {
	if len(assessments) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, a := range assessments {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode snapshot %s: %w", a.GoalID, err)
		}
		batch.Queue(`
      INSERT INTO goal_risk_snapshots (tenant_id, team_id, run_id, goal_id, risk_level, risk_score, completion_probability, assessed_at, payload)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, tenantID, teamID, runID, a.GoalID, string(a.RiskLevel), a.RiskScore, a.CompletionProbability, a.AssessedAt, payload)
	}
	return s.sendBatch(ctx, batch)
}

func (s *Store) SaveAlerts(ctx context.Context, tenantID, teamID string, alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, a := range alerts {
		batch.Queue(`
      INSERT INTO goal_risk_alerts (id, tenant_id, team_id, goal_id, alert_type, severity, message, recipients, suggested_actions, created_at)
      VALUES ($1,$2,NULLIF($3, ''),$4,$5,$6,$7,$8,$9,$10)
      ON CONFLICT (id) DO NOTHING
    `, a.ID, tenantID, teamID, a.GoalID, string(a.Type), string(a.Severity), a.Message, a.Recipients, a.SuggestedActions, a.CreatedAt)
	}
	return s.sendBatch(ctx, batch)
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			_ = tx.Rollback(ctx)
			return err
		}
	}
	if err := results.Close(); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) ListAlerts(ctx context.Context, tenantID string, filter AlertFilter) ([]Alert, error) {
	query := `
    SELECT id, goal_id, alert_type, severity, message, recipients, suggested_actions, created_at,
           acknowledged_at, COALESCE(acknowledged_by, '')
    FROM goal_risk_alerts
    WHERE tenant_id = $1
  `
	args := []any{tenantID}
	if filter.GoalID != "" {
		args = append(args, filter.GoalID)
		query += fmt.Sprintf(" AND goal_id = $%d", len(args))
	}
	if filter.TeamID != "" {
		args = append(args, filter.TeamID)
		query += fmt.Sprintf(" AND team_id = $%d", len(args))
	}
	if filter.Unacknowledged {
		query += " AND acknowledged_at IS NULL"
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := []Alert{}
	for rows.Next() {
		var a Alert
		var alertType, severity string
		if err := rows.Scan(&a.ID, &a.GoalID, &alertType, &severity, &a.Message, &a.Recipients, &a.SuggestedActions, &a.CreatedAt, &a.AcknowledgedAt, &a.AcknowledgedBy); err != nil {
			return nil, err
		}
		a.Type = AlertType(alertType)
		a.Severity = AlertSeverity(severity)
		a.Acknowledged = a.AcknowledgedAt != nil
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// AcknowledgeAlert keeps the first acknowledgement if one already exists.
func (s *Store) AcknowledgeAlert(ctx context.Context, tenantID, alertID, userID string, at time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE goal_risk_alerts
    SET acknowledged_at = COALESCE(acknowledged_at, $3),
        acknowledged_by = COALESCE(acknowledged_by, $4)
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, alertID, at, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

func (s *Store) SavePlan(ctx context.Context, tenantID string, plan InterventionPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO intervention_plans (id, tenant_id, goal_id, created_by, created_at, payload)
    VALUES ($1,$2,$3,NULLIF($4, ''),$5,$6)
    ON CONFLICT (id) DO NOTHING
  `, plan.ID, tenantID, plan.GoalID, plan.CreatedBy, plan.CreatedAt, payload)
	return err
}
