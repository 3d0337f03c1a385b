package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/proforma-studio/engine/internal/api/types"
	"github.com/proforma-studio/engine/internal/api/validators"
	"github.com/proforma-studio/engine/internal/queue/tasks"
	"github.com/proforma-studio/engine/internal/schedule"
	"github.com/proforma-studio/engine/internal/services"
)

// TaskEnqueuer is the slice of asynq.Client the handler needs.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type ScheduleHandler struct {
	calcSvc  services.CalculationService
	enqueuer TaskEnqueuer
}

func NewScheduleHandler(calcSvc services.CalculationService, enqueuer TaskEnqueuer) *ScheduleHandler {
	return &ScheduleHandler{calcSvc: calcSvc, enqueuer: enqueuer}
}

// Calculate runs a synchronous recalculation for one project, committing
// the result unless dry_run is set.
func (h *ScheduleHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req types.CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validators.New().Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project_id")
		return
	}
	overrides, err := parseUUIDs(req.OverrideBaselineIDs)
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid override_baseline_ids")
		return
	}

	res, err := h.calcSvc.Calculate(r.Context(), &services.CalculateInput{
		ProjectID:           projectID,
		DryRun:              req.DryRun,
		TargetFinish:        req.TargetFinishDate,
		OverrideBaselineIDs: overrides,
	})
	if err != nil {
		status, apiErr := types.FromCalculationError(err)
		writeJSON(w, status, types.APIResponse{Success: false, Error: apiErr})
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: toCalculateResponse(res)})
}

// Recalculate enqueues an asynchronous commit-mode recalculation. The
// task id is derived from the project id, so at most one recalculation
// per project is pending at a time.
func (h *ScheduleHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	var req types.RecalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validators.New().Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project_id")
		return
	}
	nodeIDs, err := parseUUIDs(req.TriggeringNodeIDs)
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid triggering_node_ids")
		return
	}

	task, err := tasks.NewRecalculateTask(projectID, nodeIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if _, err := h.enqueuer.EnqueueContext(r.Context(), task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			// Already pending for this project; draining it will pick up
			// the current rows anyway.
			writeJSON(w, http.StatusAccepted, types.APIResponse{Success: true, Data: map[string]any{"queued": false, "reason": "recalculation already pending"}})
			return
		}
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusAccepted, types.APIResponse{Success: true, Data: map[string]any{"queued": true}})
}

// ProjectSchedule returns the persisted schedule rows for one project.
func (h *ScheduleHandler) ProjectSchedule(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	nodes, err := h.calcSvc.ProjectSchedule(r.Context(), projectID)
	if err != nil {
		status, apiErr := types.FromCalculationError(err)
		writeJSON(w, status, types.APIResponse{Success: false, Error: apiErr})
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: nodes})
}

// RecalculationLog returns the append-only audit entries for one project,
// newest first.
func (h *ScheduleHandler) RecalculationLog(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	entries, err := h.calcSvc.RecalculationLog(r.Context(), projectID, limit)
	if err != nil {
		status, apiErr := types.FromCalculationError(err)
		writeJSON(w, status, types.APIResponse{Success: false, Error: apiErr})
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: entries})
}

func parseUUIDs(in []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(in))
	for _, s := range in {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func toCalculateResponse(res *schedule.Result) types.CalculateResponse {
	nodes := make([]types.NodeScheduleDTO, len(res.Nodes))
	for i, n := range res.Nodes {
		nodes[i] = types.NodeScheduleDTO{
			ID:          n.ID.String(),
			EarlyStart:  n.EarlyStart,
			EarlyFinish: n.EarlyFinish,
			LateStart:   n.LateStart,
			LateFinish:  n.LateFinish,
			TotalFloat:  n.TotalFloat,
			FreeFloat:   n.FreeFloat,
			IsCritical:  n.IsCritical,
		}
	}
	paths := make([][]string, len(res.CriticalPaths))
	for i, p := range res.CriticalPaths {
		path := make([]string, len(p))
		for j, id := range p {
			path[j] = id.String()
		}
		paths[i] = path
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return types.CalculateResponse{Nodes: nodes, CriticalPath: paths, Warnings: warnings}
}
