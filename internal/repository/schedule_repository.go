package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/proforma-studio/engine/internal/models"
	"github.com/proforma-studio/engine/internal/schedule"
	appErr "github.com/proforma-studio/engine/pkg/errors"
	"github.com/proforma-studio/engine/pkg/utils"
)

// ComputeFunc runs the pure calculation over the rows read inside the
// commit transaction, so the advisory lock covers graph build through
// commit as one critical section.
type ComputeFunc func(nodes []models.ScheduleNode, deps []models.ScheduleDependency) (*schedule.Result, error)

type ScheduleRepository interface {
	ListNodes(ctx context.Context, projectID uuid.UUID) ([]models.ScheduleNode, error)
	ListDependencies(ctx context.Context, projectID uuid.UUID) ([]models.ScheduleDependency, error)
	ListLogEntries(ctx context.Context, projectID uuid.UUID, limit int) ([]models.RecalculationLog, error)

	// CommitCalculation serializes recalculation per project: it takes a
	// transaction-scoped advisory lock keyed by the project id, reads the
	// node and dependency rows, runs compute, writes the computed dates of
	// every node that is not baseline-locked (or is explicitly overridden)
	// and appends one RecalculationLog entry. Either all of that commits
	// or none of it does. A concurrent commit for the same project is
	// rejected with CodeConflict; commits for other projects never contend.
	CommitCalculation(ctx context.Context, projectID uuid.UUID, compute ComputeFunc, overrides map[uuid.UUID]bool, triggeredBy []uuid.UUID) (*schedule.Result, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) ListNodes(ctx context.Context, projectID uuid.UUID) ([]models.ScheduleNode, error) {
	var out []models.ScheduleNode
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list schedule nodes failed")
	}
	return out, nil
}

func (r *scheduleRepository) ListDependencies(ctx context.Context, projectID uuid.UUID) ([]models.ScheduleDependency, error) {
	var out []models.ScheduleDependency
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("id").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list schedule dependencies failed")
	}
	return out, nil
}

func (r *scheduleRepository) ListLogEntries(ctx context.Context, projectID uuid.UUID, limit int) ([]models.RecalculationLog, error) {
	var out []models.RecalculationLog
	q := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list recalculation log failed")
	}
	return out, nil
}

func (r *scheduleRepository) CommitCalculation(ctx context.Context, projectID uuid.UUID, compute ComputeFunc, overrides map[uuid.UUID]bool, triggeredBy []uuid.UUID) (*schedule.Result, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, appErr.Wrap(tx.Error, appErr.CodeUnavailable, "begin transaction failed")
	}

	var locked bool
	if err := tx.Raw("SELECT pg_try_advisory_xact_lock(?)", utils.AdvisoryLockKey(projectID)).Scan(&locked).Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "acquire project lock failed")
	}
	if !locked {
		tx.Rollback()
		return nil, appErr.New(appErr.CodeConflict, "a calculation for this project is already in progress")
	}

	var nodes []models.ScheduleNode
	if err := tx.Where("project_id = ?", projectID).Order("id").Find(&nodes).Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "load schedule nodes failed")
	}
	var deps []models.ScheduleDependency
	if err := tx.Where("project_id = ?", projectID).Order("id").Find(&deps).Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "load schedule dependencies failed")
	}

	res, err := compute(nodes, deps)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	writes, changes := applyBaselineGuard(nodes, res, overrides)
	now := time.Now()
	for _, ns := range writes {
		updates := map[string]any{
			"early_start":   ns.EarlyStart,
			"early_finish":  ns.EarlyFinish,
			"late_start":    ns.LateStart,
			"late_finish":   ns.LateFinish,
			"total_float":   ns.TotalFloat,
			"free_float":    ns.FreeFloat,
			"is_critical":   ns.IsCritical,
			"calculated_at": now,
		}
		if err := tx.Model(&models.ScheduleNode{}).Where("id = ?", ns.ID).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, appErr.Wrap(err, appErr.CodeUnavailable, "write computed dates failed")
		}
	}

	entry, err := buildLogEntry(projectID, res, changes, triggeredBy)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Create(entry).Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "append recalculation log failed")
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "commit calculation failed")
	}
	return res, nil
}

// applyBaselineGuard decides which computed nodes may be written:
// baseline-locked nodes keep their persisted dates unless explicitly
// overridden, and nodes whose dates did not move are not rewritten. The
// returned changes feed the audit log; skipped locked nodes are recorded
// there too.
func applyBaselineGuard(current []models.ScheduleNode, res *schedule.Result, overrides map[uuid.UUID]bool) ([]schedule.NodeSchedule, []models.NodeChange) {
	byID := make(map[uuid.UUID]*models.ScheduleNode, len(current))
	for i := range current {
		byID[current[i].ID] = &current[i]
	}

	var writes []schedule.NodeSchedule
	changes := make([]models.NodeChange, 0, len(res.Nodes))
	for _, ns := range res.Nodes {
		cur, ok := byID[ns.ID]
		if !ok {
			continue
		}
		after := models.DateSet{
			EarlyStart:  ns.EarlyStart,
			EarlyFinish: ns.EarlyFinish,
			LateStart:   ns.LateStart,
			LateFinish:  ns.LateFinish,
			TotalFloat:  ns.TotalFloat,
			FreeFloat:   ns.FreeFloat,
			IsCritical:  ns.IsCritical,
		}
		before := persistedDates(cur)

		if cur.BaselineLocked && !overrides[ns.ID] {
			changes = append(changes, models.NodeChange{NodeID: ns.ID, Before: before, After: after, Skipped: true})
			continue
		}
		if before != nil && *before == after {
			continue
		}
		writes = append(writes, ns)
		changes = append(changes, models.NodeChange{NodeID: ns.ID, Before: before, After: after})
	}
	return writes, changes
}

func persistedDates(n *models.ScheduleNode) *models.DateSet {
	if n.EarlyStart == nil || n.EarlyFinish == nil || n.LateStart == nil || n.LateFinish == nil {
		return nil
	}
	ds := models.DateSet{
		EarlyStart:  *n.EarlyStart,
		EarlyFinish: *n.EarlyFinish,
		LateStart:   *n.LateStart,
		LateFinish:  *n.LateFinish,
		IsCritical:  n.IsCritical,
	}
	if n.TotalFloat != nil {
		ds.TotalFloat = *n.TotalFloat
	}
	if n.FreeFloat != nil {
		ds.FreeFloat = *n.FreeFloat
	}
	return &ds
}

func buildLogEntry(projectID uuid.UUID, res *schedule.Result, changes []models.NodeChange, triggeredBy []uuid.UUID) (*models.RecalculationLog, error) {
	changesB, err := json.Marshal(changes)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "encode change diff failed")
	}
	triggerB, err := json.Marshal(triggeredBy)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "encode trigger ids failed")
	}
	resB, err := json.Marshal(res)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "encode result failed")
	}
	return &models.RecalculationLog{
		ProjectID:   projectID,
		TriggeredBy: datatypes.JSON(triggerB),
		DryRun:      false,
		Changes:     datatypes.JSON(changesB),
		Checksum:    utils.ChecksumHex(resB),
	}, nil
}
