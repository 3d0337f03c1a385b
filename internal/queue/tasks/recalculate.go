package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/proforma-studio/engine/internal/services"
	appErr "github.com/proforma-studio/engine/pkg/errors"
	"github.com/proforma-studio/engine/pkg/logger"
)

// TypeScheduleRecalculate is the asynq task type draining queued
// recalculation triggers from upstream cost-item edits.
const TypeScheduleRecalculate = "schedule:recalculate"

// RecalculatePayload is the task payload for queued recalculations.
type RecalculatePayload struct {
	ProjectID         string   `json:"project_id"`
	TriggeringNodeIDs []string `json:"triggering_node_ids,omitempty"`
}

// NewRecalculateTask builds the queued-recalculation task for one project.
// The task id is derived from the project id so the queue holds at most
// one pending recalculation per project; the handler reads the current
// rows when it runs, so collapsing triggers loses nothing.
func NewRecalculateTask(projectID uuid.UUID, triggeringNodeIDs []uuid.UUID) (*asynq.Task, error) {
	p := RecalculatePayload{ProjectID: projectID.String()}
	for _, id := range triggeringNodeIDs {
		p.TriggeringNodeIDs = append(p.TriggeringNodeIDs, id.String())
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "encode recalculate payload failed")
	}
	return asynq.NewTask(TypeScheduleRecalculate, b,
		asynq.TaskID(fmt.Sprintf("%s:%s", TypeScheduleRecalculate, projectID)),
	), nil
}

// RecalculateTaskHandler drains queued recalculations. Runs are
// idempotent: re-processing a task over unchanged rows rewrites identical
// dates and appends a log entry with an empty diff set.
type RecalculateTaskHandler struct {
	calcSvc services.CalculationService
}

func NewRecalculateTaskHandler(calcSvc services.CalculationService) *RecalculateTaskHandler {
	return &RecalculateTaskHandler{calcSvc: calcSvc}
}

func (h *RecalculateTaskHandler) HandleRecalculate(ctx context.Context, t *asynq.Task) error {
	var p RecalculatePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid recalculate task payload", zap.Error(err))
		return err
	}
	projectID, err := uuid.Parse(p.ProjectID)
	if err != nil {
		logger.L().Error("invalid project id in task", zap.Error(err))
		return err
	}
	triggeredBy := make([]uuid.UUID, 0, len(p.TriggeringNodeIDs))
	for _, s := range p.TriggeringNodeIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			logger.L().Error("invalid triggering node id in task", zap.String("value", s), zap.Error(err))
			return err
		}
		triggeredBy = append(triggeredBy, id)
	}

	logger.L().Info("handling recalculate task", zap.String("project_id", projectID.String()))

	_, err = h.calcSvc.Calculate(ctx, &services.CalculateInput{
		ProjectID:   projectID,
		TriggeredBy: triggeredBy,
	})
	if err != nil {
		if appErr.IsCode(err, appErr.CodeConflict) {
			// Another writer holds the project lock; let asynq retry.
			logger.L().Warn("project locked, will retry", zap.String("project_id", projectID.String()))
		} else {
			logger.L().Error("recalculate task failed", zap.String("project_id", projectID.String()), zap.Error(err))
		}
		return err
	}
	return nil
}
