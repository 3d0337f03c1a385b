package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/proforma-studio/engine/internal/models"
	"github.com/proforma-studio/engine/internal/repository"
	"github.com/proforma-studio/engine/internal/schedule"
	appErr "github.com/proforma-studio/engine/pkg/errors"
	"github.com/proforma-studio/engine/pkg/logger"
)

// CalculateInput is the public contract of one recalculation request.
// TargetFinish and all computed dates are integer period offsets from the
// project schedule origin.
type CalculateInput struct {
	ProjectID           uuid.UUID
	DryRun              bool
	TargetFinish        *int
	OverrideBaselineIDs []uuid.UUID
	TriggeredBy         []uuid.UUID
}

// Limits caps one calculation run. Exceeding any of them aborts with a
// schedule.TimeoutError before any write happens.
type Limits struct {
	MaxNodes   int
	MaxEdges   int
	TimeBudget time.Duration
}

// DefaultLimits match the expected graph sizes of hundreds of nodes with
// ample headroom.
var DefaultLimits = Limits{MaxNodes: 10000, MaxEdges: 50000, TimeBudget: 5 * time.Second}

type CalculationService interface {
	// Calculate validates the project's dependency graph, runs the CPM
	// passes and, unless DryRun is set, commits the computed dates and an
	// audit log entry in one transaction under the per-project lock.
	Calculate(ctx context.Context, input *CalculateInput) (*schedule.Result, error)
	ProjectSchedule(ctx context.Context, projectID uuid.UUID) ([]models.ScheduleNode, error)
	RecalculationLog(ctx context.Context, projectID uuid.UUID, limit int) ([]models.RecalculationLog, error)
}

type calculationService struct {
	projectRepo  repository.ProjectRepository
	scheduleRepo repository.ScheduleRepository
	limits       Limits
}

func NewCalculationService(projectRepo repository.ProjectRepository, scheduleRepo repository.ScheduleRepository, limits Limits) CalculationService {
	if limits.MaxNodes <= 0 {
		limits.MaxNodes = DefaultLimits.MaxNodes
	}
	if limits.MaxEdges <= 0 {
		limits.MaxEdges = DefaultLimits.MaxEdges
	}
	if limits.TimeBudget <= 0 {
		limits.TimeBudget = DefaultLimits.TimeBudget
	}
	return &calculationService{projectRepo: projectRepo, scheduleRepo: scheduleRepo, limits: limits}
}

var _ CalculationService = (*calculationService)(nil)

func (s *calculationService) Calculate(ctx context.Context, input *CalculateInput) (*schedule.Result, error) {
	logger.L().Info("calculate schedule",
		zap.String("project_id", input.ProjectID.String()),
		zap.Bool("dry_run", input.DryRun),
	)

	var p models.Project
	if err := s.projectRepo.GetByID(ctx, input.ProjectID, &p); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.limits.TimeBudget)
	defer cancel()

	compute := func(nodes []models.ScheduleNode, deps []models.ScheduleDependency) (*schedule.Result, error) {
		return s.compute(ctx, nodes, deps, input.TargetFinish)
	}

	if input.DryRun {
		// No lock and no writes: a dry run reads a plain snapshot and
		// returns the result transiently.
		nodes, err := s.scheduleRepo.ListNodes(ctx, input.ProjectID)
		if err != nil {
			return nil, err
		}
		deps, err := s.scheduleRepo.ListDependencies(ctx, input.ProjectID)
		if err != nil {
			return nil, err
		}
		return compute(nodes, deps)
	}

	overrides := make(map[uuid.UUID]bool, len(input.OverrideBaselineIDs))
	for _, id := range input.OverrideBaselineIDs {
		overrides[id] = true
	}

	res, err := s.scheduleRepo.CommitCalculation(ctx, input.ProjectID, compute, overrides, input.TriggeredBy)
	if err != nil {
		return nil, err
	}
	logger.L().Info("schedule committed",
		zap.String("project_id", input.ProjectID.String()),
		zap.Int("nodes", len(res.Nodes)),
		zap.Int("critical_paths", len(res.CriticalPaths)),
	)
	return res, nil
}

// compute is the pure part of a run: fast-fail validation, graph build,
// cycle detection and the CPM passes. The graph builder re-checks the
// fast-fail conditions as defense in depth.
func (s *calculationService) compute(ctx context.Context, nodes []models.ScheduleNode, deps []models.ScheduleDependency, target *int) (*schedule.Result, error) {
	if len(nodes) > s.limits.MaxNodes {
		return nil, &schedule.TimeoutError{Reason: fmt.Sprintf("graph too large: %d nodes exceeds cap %d", len(nodes), s.limits.MaxNodes)}
	}
	if len(deps) > s.limits.MaxEdges {
		return nil, &schedule.TimeoutError{Reason: fmt.Sprintf("graph too large: %d edges exceeds cap %d", len(deps), s.limits.MaxEdges)}
	}

	inputs := make([]schedule.NodeInput, 0, len(nodes))
	for _, n := range nodes {
		if n.Duration < 0 {
			return nil, &schedule.DurationNegativeError{NodeID: n.ID}
		}
		inputs = append(inputs, schedule.NodeInput{
			ID:             n.ID,
			Duration:       n.Duration,
			AnchorStart:    n.AnchorStart,
			BaselineLocked: n.BaselineLocked,
		})
	}

	edges := make([]schedule.EdgeInput, 0, len(deps))
	for _, d := range deps {
		rel := schedule.Relation(d.Relation)
		if !rel.Valid() {
			return nil, appErr.New(appErr.CodeInvalid, fmt.Sprintf("dependency %s has unknown relation type %q", d.ID, d.Relation))
		}
		if d.PredecessorID == d.SuccessorID {
			return nil, &schedule.CycleDetectedError{NodeIDs: []uuid.UUID{d.PredecessorID}}
		}
		edges = append(edges, schedule.EdgeInput{
			PredecessorID: d.PredecessorID,
			SuccessorID:   d.SuccessorID,
			Relation:      rel,
			Lag:           d.Lag,
		})
	}

	g, err := schedule.Build(inputs, edges)
	if err != nil {
		return nil, err
	}
	if cyc := g.FindCycle(); cyc != nil {
		return nil, cyc
	}
	return schedule.Calculate(ctx, g, schedule.Options{TargetFinish: target})
}

func (s *calculationService) ProjectSchedule(ctx context.Context, projectID uuid.UUID) ([]models.ScheduleNode, error) {
	var p models.Project
	if err := s.projectRepo.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}
	return s.scheduleRepo.ListNodes(ctx, projectID)
}

func (s *calculationService) RecalculationLog(ctx context.Context, projectID uuid.UUID, limit int) ([]models.RecalculationLog, error) {
	var p models.Project
	if err := s.projectRepo.GetByID(ctx, projectID, &p); err != nil {
		return nil, err
	}
	return s.scheduleRepo.ListLogEntries(ctx, projectID, limit)
}
