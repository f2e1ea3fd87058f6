package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"goalrisk/internal/domain/goalrisk"
	"goalrisk/internal/platform/config"
)

const JobGoalRiskMonitor = "goal_risk_monitor"

type TeamMonitor interface {
	ListTeams(ctx context.Context, tenantID string) ([]string, error)
	MonitorTeam(ctx context.Context, tenantID, teamID string) (goalrisk.MonitorResult, error)
}

type Observer interface {
	ObserveJob(jobType, status string)
}

type Service struct {
	DB       *pgxpool.Pool
	Monitor  TeamMonitor
	Observer Observer
	Interval time.Duration
	// ListTenants defaults to reading the tenants table.
	ListTenants func(ctx context.Context) ([]string, error)
	queue       chan job
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, monitor TeamMonitor, cfg config.Config) *Service {
	s := &Service{
		DB:       db,
		Monitor:  monitor,
		Interval: cfg.MonitorInterval,
		queue:    make(chan job, 128),
	}
	s.ListTenants = s.listTenants
	return s
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Interval > 0 && s.Monitor != nil {
		go s.scheduleMonitoring(ctx, s.Interval)
	}
}

func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

// runJob records the run in job_runs when a database is configured.
func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO job_runs (tenant_id, job_type, status)
      VALUES ($1,$2,$3)
      RETURNING id
    `, j.TenantID, j.Type, "running").Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	if s.Observer != nil {
		s.Observer.ObserveJob(j.Type, status)
	}
	if runID == "" {
		return details, err
	}

	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if _, updErr := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); updErr != nil {
		slog.Warn("job run update failed", "err", updErr)
	}
	return details, err
}

func (s *Service) scheduleMonitoring(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EnqueueMonitoring(ctx)
		}
	}
}

// EnqueueMonitoring queues one monitoring job per tenant team and returns
// how many were queued.
func (s *Service) EnqueueMonitoring(ctx context.Context) int {
	tenants, err := s.ListTenants(ctx)
	if err != nil {
		slog.Warn("monitor scheduler tenant lookup failed", "err", err)
		return 0
	}
	queued := 0
	for _, tenant := range tenants {
		teams, err := s.Monitor.ListTeams(ctx, tenant)
		if err != nil {
			slog.Warn("monitor scheduler team lookup failed", "tenantId", tenant, "err", err)
			continue
		}
		for _, team := range teams {
			if s.Enqueue(JobGoalRiskMonitor, tenant, s.monitorJob(tenant, team)) {
				queued++
			}
		}
	}
	return queued
}

func (s *Service) monitorJob(tenantID, teamID string) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		result, err := s.Monitor.MonitorTeam(ctx, tenantID, teamID)
		return RunSummary(teamID, result), err
	}
}

func RunSummary(teamID string, result goalrisk.MonitorResult) map[string]any {
	return map[string]any{
		"teamId":         teamID,
		"assessed":       len(result.Assessments),
		"skipped":        result.Skipped,
		"alerts":         len(result.Alerts),
		"actionRequired": len(result.ActionRequired),
		"healthScore":    result.Dashboard.HealthScore,
		"degraded":       result.Degraded,
		"partial":        result.Partial,
	}
}

func (s *Service) listTenants(ctx context.Context) ([]string, error) {
	if s.DB == nil {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `SELECT id FROM tenants`)
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
