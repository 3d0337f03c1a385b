package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/proforma-studio/engine/internal/api/types"
	"github.com/proforma-studio/engine/internal/models"
	"github.com/proforma-studio/engine/internal/schedule"
	"github.com/proforma-studio/engine/internal/services"
	appErr "github.com/proforma-studio/engine/pkg/errors"
)

type mockCalcService struct {
	mock.Mock
}

func (m *mockCalcService) Calculate(ctx context.Context, input *services.CalculateInput) (*schedule.Result, error) {
	args := m.Called(ctx, input)
	if v := args.Get(0); v != nil {
		return v.(*schedule.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCalcService) ProjectSchedule(ctx context.Context, projectID uuid.UUID) ([]models.ScheduleNode, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.([]models.ScheduleNode), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCalcService) RecalculationLog(ctx context.Context, projectID uuid.UUID, limit int) ([]models.RecalculationLog, error) {
	args := m.Called(ctx, projectID, limit)
	if v := args.Get(0); v != nil {
		return v.([]models.RecalculationLog), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if v := args.Get(0); v != nil {
		return v.(*asynq.TaskInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) types.APIResponse {
	t.Helper()
	var out types.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestCalculateReturnsSchedule(t *testing.T) {
	svc := new(mockCalcService)
	h := NewScheduleHandler(svc, nil)

	projectID := uuid.New()
	nodeID := uuid.New()
	res := &schedule.Result{
		Nodes: []schedule.NodeSchedule{{
			ID: nodeID, EarlyStart: 0, EarlyFinish: 5, LateStart: 0, LateFinish: 5, IsCritical: true,
		}},
		CriticalPaths: [][]uuid.UUID{{nodeID}},
	}
	svc.On("Calculate", mock.Anything, mock.MatchedBy(func(in *services.CalculateInput) bool {
		return in.ProjectID == projectID && !in.DryRun
	})).Return(res, nil)

	rr := postJSON(t, h.Calculate, types.CalculateRequest{ProjectID: projectID.String()})
	require.Equal(t, http.StatusOK, rr.Code)

	out := decodeResponse(t, rr)
	require.True(t, out.Success)
	data, err := json.Marshal(out.Data)
	require.NoError(t, err)
	var payload types.CalculateResponse
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Len(t, payload.Nodes, 1)
	require.Equal(t, nodeID.String(), payload.Nodes[0].ID)
	require.True(t, payload.Nodes[0].IsCritical)
	require.Equal(t, [][]string{{nodeID.String()}}, payload.CriticalPath)
	require.NotNil(t, payload.Warnings)
}

func TestCalculateRejectsInvalidJSON(t *testing.T) {
	h := NewScheduleHandler(new(mockCalcService), nil)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	h.Calculate(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCalculateRejectsMissingProjectID(t *testing.T) {
	h := NewScheduleHandler(new(mockCalcService), nil)
	rr := postJSON(t, h.Calculate, types.CalculateRequest{})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCalculateMapsCycleTo422(t *testing.T) {
	svc := new(mockCalcService)
	h := NewScheduleHandler(svc, nil)

	a, b := uuid.New(), uuid.New()
	svc.On("Calculate", mock.Anything, mock.Anything).
		Return(nil, &schedule.CycleDetectedError{NodeIDs: []uuid.UUID{a, b}})

	rr := postJSON(t, h.Calculate, types.CalculateRequest{ProjectID: uuid.New().String()})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	out := decodeResponse(t, rr)
	require.False(t, out.Success)
	require.Equal(t, types.ErrCodeCycleDetected, out.Error.Code)
}

func TestCalculateMapsConflictTo409(t *testing.T) {
	svc := new(mockCalcService)
	h := NewScheduleHandler(svc, nil)

	svc.On("Calculate", mock.Anything, mock.Anything).
		Return(nil, appErr.New(appErr.CodeConflict, "a calculation for this project is already in progress"))

	rr := postJSON(t, h.Calculate, types.CalculateRequest{ProjectID: uuid.New().String()})
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestCalculateMapsTimeoutTo504(t *testing.T) {
	svc := new(mockCalcService)
	h := NewScheduleHandler(svc, nil)

	svc.On("Calculate", mock.Anything, mock.Anything).
		Return(nil, &schedule.TimeoutError{Reason: "time budget exhausted"})

	rr := postJSON(t, h.Calculate, types.CalculateRequest{ProjectID: uuid.New().String()})
	require.Equal(t, http.StatusGatewayTimeout, rr.Code)

	out := decodeResponse(t, rr)
	require.Equal(t, types.ErrCodeTimeout, out.Error.Code)
}

func TestRecalculateEnqueues(t *testing.T) {
	enq := new(mockEnqueuer)
	h := NewScheduleHandler(new(mockCalcService), enq)

	enq.On("EnqueueContext", mock.Anything, mock.AnythingOfType("*asynq.Task")).
		Return(&asynq.TaskInfo{}, nil)

	rr := postJSON(t, h.Recalculate, types.RecalculateRequest{ProjectID: uuid.New().String()})
	require.Equal(t, http.StatusAccepted, rr.Code)

	out := decodeResponse(t, rr)
	require.True(t, out.Success)
	data := out.Data.(map[string]any)
	require.Equal(t, true, data["queued"])
	enq.AssertExpectations(t)
}

func TestRecalculateDeduplicatesPendingTask(t *testing.T) {
	enq := new(mockEnqueuer)
	h := NewScheduleHandler(new(mockCalcService), enq)

	enq.On("EnqueueContext", mock.Anything, mock.AnythingOfType("*asynq.Task")).
		Return(nil, asynq.ErrTaskIDConflict)

	rr := postJSON(t, h.Recalculate, types.RecalculateRequest{ProjectID: uuid.New().String()})
	require.Equal(t, http.StatusAccepted, rr.Code)

	out := decodeResponse(t, rr)
	require.True(t, out.Success)
	data := out.Data.(map[string]any)
	require.Equal(t, false, data["queued"])
}

func urlParamRequest(method, target, id string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestProjectScheduleReturnsNodes(t *testing.T) {
	svc := new(mockCalcService)
	h := NewScheduleHandler(svc, nil)

	projectID := uuid.New()
	svc.On("ProjectSchedule", mock.Anything, projectID).
		Return([]models.ScheduleNode{{ID: uuid.New(), ProjectID: projectID, Name: "sitework"}}, nil)

	rr := httptest.NewRecorder()
	h.ProjectSchedule(rr, urlParamRequest(http.MethodGet, "/", projectID.String()))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, decodeResponse(t, rr).Success)
}

func TestProjectScheduleRejectsBadID(t *testing.T) {
	h := NewScheduleHandler(new(mockCalcService), nil)
	rr := httptest.NewRecorder()
	h.ProjectSchedule(rr, urlParamRequest(http.MethodGet, "/", "not-a-uuid"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecalculationLogClampsLimit(t *testing.T) {
	svc := new(mockCalcService)
	h := NewScheduleHandler(svc, nil)

	projectID := uuid.New()
	svc.On("RecalculationLog", mock.Anything, projectID, 50).
		Return([]models.RecalculationLog{}, nil)

	target := fmt.Sprintf("/?limit=%d", 9999)
	rr := httptest.NewRecorder()
	h.RecalculationLog(rr, urlParamRequest(http.MethodGet, target, projectID.String()))
	require.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}
