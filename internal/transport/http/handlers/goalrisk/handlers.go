package goalriskhandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"goalrisk/internal/domain/audit"
	"goalrisk/internal/domain/auth"
	"goalrisk/internal/domain/goalrisk"
	"goalrisk/internal/transport/http/api"
	"goalrisk/internal/transport/http/middleware"
	"goalrisk/internal/transport/http/shared"
)

const planEndpoint = "goalrisk.intervention_plan"

type AuditRecorder interface {
	Record(ctx context.Context, evt audit.Event) error
}

type Handler struct {
	Service     *goalrisk.Service
	Perms       middleware.PermissionStore
	Idempotency *middleware.IdempotencyStore
	Audit       AuditRecorder
}

func NewHandler(service *goalrisk.Service, perms middleware.PermissionStore, idem *middleware.IdempotencyStore, auditRec AuditRecorder) *Handler {
	return &Handler{Service: service, Perms: perms, Idempotency: idem, Audit: auditRec}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/goal-risk", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermGoalRiskRead, h.Perms)).Post("/assess", h.handleAssess)
		r.With(middleware.RequirePermission(auth.PermGoalRiskRead, h.Perms)).Get("/goals/{goalID}/assessment", h.handleGoalAssessment)
		r.With(middleware.RequirePermission(auth.PermGoalRiskPlan, h.Perms)).Post("/goals/{goalID}/intervention-plans", h.handleCreatePlan)
		r.With(middleware.RequirePermission(auth.PermGoalRiskRead, h.Perms)).Get("/teams/{teamID}/dashboard", h.handleTeamDashboard)
		r.With(middleware.RequirePermission(auth.PermGoalRiskMonitor, h.Perms)).Post("/teams/{teamID}/monitor", h.handleMonitorTeam)
		r.With(middleware.RequirePermission(auth.PermGoalRiskRead, h.Perms)).Get("/teams/{teamID}/report.pdf", h.handleTeamReport)
		r.With(middleware.RequirePermission(auth.PermGoalRiskRead, h.Perms)).Get("/alerts", h.handleListAlerts)
		r.With(middleware.RequirePermission(auth.PermGoalRiskAlerts, h.Perms)).Post("/alerts/{alertID}/acknowledge", h.handleAcknowledgeAlert)
	})
}

func (h *Handler) handleAssess(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUser(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload assessRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	in, validator := payload.toInput()
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	api.Success(w, h.Service.Assess(in), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGoalAssessment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	assessment, err := h.Service.AssessGoal(r.Context(), user.TenantID, chi.URLParam(r, "goalID"))
	if err != nil {
		writeError(w, r, err, "goal assessment failed")
		return
	}
	api.Success(w, assessment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	goalID := chi.URLParam(r, "goalID")

	key, err := middleware.IdempotencyKey(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_idempotency_key", err.Error(), requestID)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	scope := middleware.IdempotencyScope{
		TenantID: user.TenantID,
		UserID:   user.UserID,
		Endpoint: planEndpoint,
		Key:      key,
		Hash:     middleware.RequestHash(append([]byte(goalID+"\n"), body...)),
	}

	stored, found, err := h.Idempotency.Check(r.Context(), scope)
	if errors.Is(err, middleware.ErrIdempotencyConflict) {
		api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different request", requestID)
		return
	}
	if err != nil {
		slog.Warn("idempotency check failed", "goalId", goalID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "idempotency_failed", "idempotency check failed", requestID)
		return
	}
	if found {
		api.Replay(w, http.StatusCreated, stored)
		return
	}

	plan, err := h.Service.CreateInterventionPlan(r.Context(), user.TenantID, goalID, user.UserID)
	if err != nil {
		writeError(w, r, err, "intervention plan failed")
		return
	}

	h.recordAudit(r, user, audit.ActionPlanCreate, audit.EntityGoal, goalID, map[string]any{
		"planId":        plan.ID,
		"riskLevel":     plan.CurrentRiskLevel,
		"interventions": len(plan.Interventions),
	})

	envelope := api.Envelope{Success: true, Data: plan, RequestID: requestID}
	if key != "" {
		raw, err := json.Marshal(envelope)
		if err == nil {
			err = h.Idempotency.Save(r.Context(), scope, raw)
		}
		if err != nil {
			slog.Warn("idempotency save failed", "goalId", goalID, "planId", plan.ID, "err", err)
		}
	}
	api.WriteJSON(w, http.StatusCreated, envelope)
}

func (h *Handler) handleTeamDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.TeamDashboard(r.Context(), user.TenantID, chi.URLParam(r, "teamID"))
	if err != nil {
		writeError(w, r, err, "team dashboard failed")
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMonitorTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	teamID := chi.URLParam(r, "teamID")
	result, err := h.Service.MonitorTeam(r.Context(), user.TenantID, teamID)
	if err != nil {
		writeError(w, r, err, "team monitoring failed")
		return
	}
	h.recordAudit(r, user, audit.ActionTeamMonitor, audit.EntityTeam, teamID, map[string]any{
		"goals":       len(result.Assessments),
		"alerts":      len(result.Alerts),
		"healthScore": result.Dashboard.HealthScore,
	})
	slog.Info("team monitored",
		"tenantId", user.TenantID,
		"teamId", teamID,
		"goals", len(result.Assessments),
		"alerts", len(result.Alerts),
		"healthScore", result.Dashboard.HealthScore,
	)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTeamReport(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	teamID := chi.URLParam(r, "teamID")
	pdf, err := h.Service.TeamReport(r.Context(), user.TenantID, teamID)
	if err != nil {
		writeError(w, r, err, "team report failed")
		return
	}
	api.WritePDF(w, "goal-risk-"+teamID+".pdf", pdf)
}

func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	query := r.URL.Query()
	filter := goalrisk.AlertFilter{
		GoalID: query.Get("goalId"),
		TeamID: query.Get("teamId"),
	}
	validator := shared.NewValidator()
	if filter.GoalID == "" && filter.TeamID == "" {
		validator.Add("goalId", "goalId or teamId is required")
	}
	if raw := query.Get("unacknowledged"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			validator.Add("unacknowledged", "must be true or false")
		}
		filter.Unacknowledged = v
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	page := shared.ParsePagination(r, shared.DefaultPageLimit, shared.MaxPageLimit)
	filter.Limit, filter.Offset = page.Limit, page.Offset

	alerts, err := h.Service.ListAlerts(r.Context(), user.TenantID, filter)
	if err != nil {
		writeError(w, r, err, "alert list failed")
		return
	}
	if alerts == nil {
		alerts = []goalrisk.Alert{}
	}
	api.SuccessPage(w, alerts, page.Meta(len(alerts)), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	alertID := chi.URLParam(r, "alertID")
	if err := h.Service.AcknowledgeAlert(r.Context(), user.TenantID, alertID, user.UserID); err != nil {
		writeError(w, r, err, "alert acknowledge failed")
		return
	}
	h.recordAudit(r, user, audit.ActionAlertAcknowledge, audit.EntityAlert, alertID, nil)
	api.Success(w, map[string]any{"alertId": alertID, "acknowledged": true}, middleware.GetRequestID(r.Context()))
}

// recordAudit never fails the request; a lost audit row is logged.
func (h *Handler) recordAudit(r *http.Request, user auth.UserContext, action, entityType, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Record(r.Context(), audit.Event{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         middleware.ClientIP(r),
		Details:    details,
	})
	if err != nil {
		slog.Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, goalrisk.ErrGoalNotFound):
		api.Fail(w, http.StatusNotFound, "goal_not_found", "goal not found", requestID)
	case errors.Is(err, goalrisk.ErrTeamNotFound):
		api.Fail(w, http.StatusNotFound, "team_not_found", "team not found", requestID)
	case errors.Is(err, goalrisk.ErrAlertNotFound):
		api.Fail(w, http.StatusNotFound, "alert_not_found", "alert not found", requestID)
	case errors.Is(err, goalrisk.ErrGoalNotActive):
		api.Fail(w, http.StatusConflict, "goal_not_active", "goal is not active", requestID)
	default:
		slog.Warn(logMsg, "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "assessment_failed", "goal risk request failed", requestID)
	}
}
