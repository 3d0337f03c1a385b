package types

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/proforma-studio/engine/internal/schedule"
	appErr "github.com/proforma-studio/engine/pkg/errors"
)

// Machine-readable error codes of the calculation API, distinct from the
// generic AppError codes so callers can branch on the failure kind.
const (
	ErrCodeInvalidDependency = "invalid_dependency"
	ErrCodeDurationNegative  = "duration_negative"
	ErrCodeCycleDetected     = "cycle_detected"
	ErrCodeTimeout           = "timeout"
	ErrCodePersistence       = "persistence"
)

func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	code := string(appErr.CodeUnknown)
	var ae *appErr.AppError
	if errors.As(err, &ae) {
		return &APIError{Code: string(ae.Code), Message: ae.Message}
	}
	return &APIError{Code: code, Message: err.Error()}
}

// FromCalculationError maps an error surfaced by a calculation run to an
// HTTP status and a structured API error carrying the offending ids.
func FromCalculationError(err error) (int, *APIError) {
	var dangling *schedule.InvalidDependencyError
	if errors.As(err, &dangling) {
		return http.StatusBadRequest, &APIError{
			Code:    ErrCodeInvalidDependency,
			Message: err.Error(),
			Details: map[string]string{"dangling_id": dangling.DanglingID.String()},
		}
	}
	var negative *schedule.DurationNegativeError
	if errors.As(err, &negative) {
		return http.StatusBadRequest, &APIError{
			Code:    ErrCodeDurationNegative,
			Message: err.Error(),
			Details: map[string]string{"node_id": negative.NodeID.String()},
		}
	}
	var cycle *schedule.CycleDetectedError
	if errors.As(err, &cycle) {
		return http.StatusUnprocessableEntity, &APIError{
			Code:    ErrCodeCycleDetected,
			Message: err.Error(),
			Details: map[string][]string{"node_ids": uuidStrings(cycle.NodeIDs)},
		}
	}
	var timeout *schedule.TimeoutError
	if errors.As(err, &timeout) {
		return http.StatusGatewayTimeout, &APIError{Code: ErrCodeTimeout, Message: err.Error()}
	}

	var ae *appErr.AppError
	if errors.As(err, &ae) {
		switch ae.Code {
		case appErr.CodeInvalid:
			return http.StatusBadRequest, FromAppError(err)
		case appErr.CodeNotFound:
			return http.StatusNotFound, FromAppError(err)
		case appErr.CodeConflict:
			return http.StatusConflict, FromAppError(err)
		case appErr.CodeUnavailable:
			return http.StatusServiceUnavailable, &APIError{Code: ErrCodePersistence, Message: ae.Message}
		case appErr.CodeDeadline:
			return http.StatusGatewayTimeout, FromAppError(err)
		}
	}
	return http.StatusInternalServerError, FromAppError(err)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
