package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/proforma-studio/engine/internal/models"
	"github.com/proforma-studio/engine/internal/repository"
	"github.com/proforma-studio/engine/internal/schedule"
	appErr "github.com/proforma-studio/engine/pkg/errors"
	"github.com/proforma-studio/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("error", "console"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type mockProjectRepo struct {
	mock.Mock
}

func (m *mockProjectRepo) Create(ctx context.Context, obj *models.Project) error {
	return m.Called(ctx, obj).Error(0)
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id any, dest *models.Project) error {
	return m.Called(ctx, id, dest).Error(0)
}

func (m *mockProjectRepo) Update(ctx context.Context, obj *models.Project) error {
	return m.Called(ctx, obj).Error(0)
}

func (m *mockProjectRepo) Delete(ctx context.Context, id any) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProjectRepo) List(ctx context.Context) ([]models.Project, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]models.Project), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProjectRepo) Archive(ctx context.Context, projectID uuid.UUID) error {
	return m.Called(ctx, projectID).Error(0)
}

type mockScheduleRepo struct {
	mock.Mock

	// txNodes and txDeps are the rows a real repository would read inside
	// the locked transaction; committed captures what the compute closure
	// produced there.
	txNodes   []models.ScheduleNode
	txDeps    []models.ScheduleDependency
	committed *schedule.Result
}

func (m *mockScheduleRepo) ListNodes(ctx context.Context, projectID uuid.UUID) ([]models.ScheduleNode, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.([]models.ScheduleNode), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScheduleRepo) ListDependencies(ctx context.Context, projectID uuid.UUID) ([]models.ScheduleDependency, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.([]models.ScheduleDependency), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScheduleRepo) ListLogEntries(ctx context.Context, projectID uuid.UUID, limit int) ([]models.RecalculationLog, error) {
	args := m.Called(ctx, projectID, limit)
	if v := args.Get(0); v != nil {
		return v.([]models.RecalculationLog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScheduleRepo) CommitCalculation(ctx context.Context, projectID uuid.UUID, compute repository.ComputeFunc, overrides map[uuid.UUID]bool, triggeredBy []uuid.UUID) (*schedule.Result, error) {
	args := m.Called(ctx, projectID, compute, overrides, triggeredBy)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	if v := args.Get(0); v != nil {
		return v.(*schedule.Result), nil
	}
	// Emulate the transaction: run the compute closure over the rows a
	// real repository would have read under the advisory lock.
	res, err := compute(m.txNodes, m.txDeps)
	m.committed = res
	return res, err
}

var projectID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func nodeRow(id string, duration int) models.ScheduleNode {
	return models.ScheduleNode{ID: uuid.MustParse(id), ProjectID: projectID, Name: "n", Kind: "cost_item", Duration: duration}
}

func depRow(pred, succ models.ScheduleNode, relation string, lag int) models.ScheduleDependency {
	return models.ScheduleDependency{
		ID:            uuid.New(),
		ProjectID:     projectID,
		PredecessorID: pred.ID,
		SuccessorID:   succ.ID,
		Relation:      relation,
		Lag:           lag,
	}
}

func newService(t *testing.T, limits Limits) (*mockProjectRepo, *mockScheduleRepo, CalculationService) {
	t.Helper()
	pr := new(mockProjectRepo)
	sr := new(mockScheduleRepo)
	return pr, sr, NewCalculationService(pr, sr, limits)
}

func expectProject(pr *mockProjectRepo) {
	pr.On("GetByID", mock.Anything, projectID, mock.AnythingOfType("*models.Project")).Return(nil)
}

func TestCalculateDryRunDoesNotCommit(t *testing.T) {
	pr, sr, svc := newService(t, Limits{})
	expectProject(pr)

	a := nodeRow("aaaaaaaa-0000-0000-0000-000000000001", 5)
	b := nodeRow("aaaaaaaa-0000-0000-0000-000000000002", 3)
	sr.On("ListNodes", mock.Anything, projectID).Return([]models.ScheduleNode{a, b}, nil)
	sr.On("ListDependencies", mock.Anything, projectID).Return([]models.ScheduleDependency{depRow(a, b, "FS", 0)}, nil)

	res, err := svc.Calculate(context.Background(), &CalculateInput{ProjectID: projectID, DryRun: true})
	require.NoError(t, err)
	require.Len(t, res.Nodes, 2)

	sa := res.Schedule(a.ID)
	require.NotNil(t, sa)
	require.Equal(t, 0, sa.EarlyStart)
	require.Equal(t, 5, sa.EarlyFinish)
	sb := res.Schedule(b.ID)
	require.NotNil(t, sb)
	require.Equal(t, 5, sb.EarlyStart)
	require.Equal(t, 8, sb.EarlyFinish)

	sr.AssertNotCalled(t, "CommitCalculation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	pr.AssertExpectations(t)
	sr.AssertExpectations(t)
}

func TestCalculateCommitRunsComputeInsideTransaction(t *testing.T) {
	pr, sr, svc := newService(t, Limits{})
	expectProject(pr)

	a := nodeRow("aaaaaaaa-0000-0000-0000-000000000001", 5)
	b := nodeRow("aaaaaaaa-0000-0000-0000-000000000002", 3)
	sr.txNodes = []models.ScheduleNode{a, b}
	sr.txDeps = []models.ScheduleDependency{depRow(a, b, "FS", 2)}
	sr.On("CommitCalculation", mock.Anything, projectID, mock.AnythingOfType("repository.ComputeFunc"), map[uuid.UUID]bool{b.ID: true}, []uuid.UUID{a.ID}).
		Return(nil, nil)

	res, err := svc.Calculate(context.Background(), &CalculateInput{
		ProjectID:           projectID,
		OverrideBaselineIDs: []uuid.UUID{b.ID},
		TriggeredBy:         []uuid.UUID{a.ID},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, sr.committed, res)
	sb := sr.committed.Schedule(b.ID)
	require.NotNil(t, sb)
	require.Equal(t, 7, sb.EarlyStart)
	require.Equal(t, 10, sb.EarlyFinish)
	pr.AssertExpectations(t)
	sr.AssertExpectations(t)
}

func TestCalculateRejectsUnknownProject(t *testing.T) {
	pr, _, svc := newService(t, Limits{})
	pr.On("GetByID", mock.Anything, projectID, mock.AnythingOfType("*models.Project")).
		Return(appErr.New(appErr.CodeNotFound, "entity not found"))

	_, err := svc.Calculate(context.Background(), &CalculateInput{ProjectID: projectID, DryRun: true})
	require.Error(t, err)
	var ae *appErr.AppError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, appErr.CodeNotFound, ae.Code)
}

func TestCalculateEnforcesNodeCap(t *testing.T) {
	pr, sr, svc := newService(t, Limits{MaxNodes: 1})
	expectProject(pr)

	a := nodeRow("aaaaaaaa-0000-0000-0000-000000000001", 5)
	b := nodeRow("aaaaaaaa-0000-0000-0000-000000000002", 3)
	sr.On("ListNodes", mock.Anything, projectID).Return([]models.ScheduleNode{a, b}, nil)
	sr.On("ListDependencies", mock.Anything, projectID).Return(nil, nil)

	_, err := svc.Calculate(context.Background(), &CalculateInput{ProjectID: projectID, DryRun: true})
	var te *schedule.TimeoutError
	require.ErrorAs(t, err, &te)
	require.Contains(t, te.Reason, "exceeds cap")
}

func TestCalculateSurfacesCycle(t *testing.T) {
	pr, sr, svc := newService(t, Limits{})
	expectProject(pr)

	a := nodeRow("aaaaaaaa-0000-0000-0000-000000000001", 5)
	b := nodeRow("aaaaaaaa-0000-0000-0000-000000000002", 3)
	sr.On("ListNodes", mock.Anything, projectID).Return([]models.ScheduleNode{a, b}, nil)
	sr.On("ListDependencies", mock.Anything, projectID).Return([]models.ScheduleDependency{
		depRow(a, b, "FS", 0),
		depRow(b, a, "FS", 0),
	}, nil)

	_, err := svc.Calculate(context.Background(), &CalculateInput{ProjectID: projectID, DryRun: true})
	var cyc *schedule.CycleDetectedError
	require.ErrorAs(t, err, &cyc)
	require.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, cyc.NodeIDs)
}

func TestCalculateRejectsNegativeDuration(t *testing.T) {
	pr, sr, svc := newService(t, Limits{})
	expectProject(pr)

	a := nodeRow("aaaaaaaa-0000-0000-0000-000000000001", -1)
	sr.On("ListNodes", mock.Anything, projectID).Return([]models.ScheduleNode{a}, nil)
	sr.On("ListDependencies", mock.Anything, projectID).Return(nil, nil)

	_, err := svc.Calculate(context.Background(), &CalculateInput{ProjectID: projectID, DryRun: true})
	var neg *schedule.DurationNegativeError
	require.ErrorAs(t, err, &neg)
	require.Equal(t, a.ID, neg.NodeID)
}

func TestCalculateRejectsUnknownRelation(t *testing.T) {
	pr, sr, svc := newService(t, Limits{})
	expectProject(pr)

	a := nodeRow("aaaaaaaa-0000-0000-0000-000000000001", 5)
	b := nodeRow("aaaaaaaa-0000-0000-0000-000000000002", 3)
	sr.On("ListNodes", mock.Anything, projectID).Return([]models.ScheduleNode{a, b}, nil)
	sr.On("ListDependencies", mock.Anything, projectID).Return([]models.ScheduleDependency{depRow(a, b, "XX", 0)}, nil)

	_, err := svc.Calculate(context.Background(), &CalculateInput{ProjectID: projectID, DryRun: true})
	var ae *appErr.AppError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, appErr.CodeInvalid, ae.Code)
}

func TestCalculatePropagatesCommitConflict(t *testing.T) {
	pr, sr, svc := newService(t, Limits{})
	expectProject(pr)

	sr.On("CommitCalculation", mock.Anything, projectID, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, appErr.New(appErr.CodeConflict, "a calculation for this project is already in progress"))

	_, err := svc.Calculate(context.Background(), &CalculateInput{ProjectID: projectID})
	var ae *appErr.AppError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, appErr.CodeConflict, ae.Code)
}

func TestProjectScheduleChecksProjectFirst(t *testing.T) {
	pr, sr, svc := newService(t, Limits{})
	pr.On("GetByID", mock.Anything, projectID, mock.AnythingOfType("*models.Project")).
		Return(appErr.New(appErr.CodeNotFound, "entity not found"))

	_, err := svc.ProjectSchedule(context.Background(), projectID)
	require.Error(t, err)
	sr.AssertNotCalled(t, "ListNodes", mock.Anything, mock.Anything)
}

func TestRecalculationLogPassesLimit(t *testing.T) {
	pr, sr, svc := newService(t, Limits{})
	expectProject(pr)
	sr.On("ListLogEntries", mock.Anything, projectID, 25).Return([]models.RecalculationLog{{ProjectID: projectID}}, nil)

	out, err := svc.RecalculationLog(context.Background(), projectID, 25)
	require.NoError(t, err)
	require.Len(t, out, 1)
	sr.AssertExpectations(t)
}

func TestCalculateHonorsTimeBudget(t *testing.T) {
	pr, sr, svc := newService(t, Limits{TimeBudget: time.Nanosecond})
	expectProject(pr)

	a := nodeRow("aaaaaaaa-0000-0000-0000-000000000001", 5)
	sr.On("ListNodes", mock.Anything, projectID).Return([]models.ScheduleNode{a}, nil)
	sr.On("ListDependencies", mock.Anything, projectID).Return(nil, nil)

	_, err := svc.Calculate(context.Background(), &CalculateInput{ProjectID: projectID, DryRun: true})
	var te *schedule.TimeoutError
	require.ErrorAs(t, err, &te)
}
