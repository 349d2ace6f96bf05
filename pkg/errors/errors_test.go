package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad input"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("node"), ErrorTypeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("duplicate"), ErrorTypeConflict, http.StatusConflict},
		{"internal", NewInternalError("boom"), ErrorTypeInternal, http.StatusInternalServerError},
		{"timeout", NewTimeoutError("fetch"), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"unavailable", NewUnavailableError("store", nil), ErrorTypeUnavailable, http.StatusServiceUnavailable},
		{"external", NewExternalError("store", nil), ErrorTypeExternal, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
			assert.Equal(t, tt.wantStatus, HTTPStatus(tt.err))
			assert.True(t, IsType(tt.err, tt.wantType))
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NewNotFoundError("session")
	assert.Equal(t, "NOT_FOUND: session not found", err.Error())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewUnavailableError("knowledge-store", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, IsUnavailable(fmt.Errorf("load: %w", err)))
}

func TestCloneLeavesSentinelUntouched(t *testing.T) {
	sentinel := NewValidationError("no node selected").WithDetails(map[string]interface{}{"field": "nodeId"})

	clone := sentinel.Clone().WithCode("NO_SELECTION")
	clone.Details["field"] = "statistic"

	assert.Empty(t, sentinel.Code)
	assert.Equal(t, "nodeId", sentinel.Details["field"])
	assert.Equal(t, "NO_SELECTION", clone.Code)
	assert.True(t, IsValidation(clone))
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unavailable", NewUnavailableError("knowledge-store", stderrors.New("refused")), true},
		{"wrapped timeout", fmt.Errorf("load: %w", NewTimeoutError("fetch")), true},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), true},
		{"external", NewExternalError("knowledge-store", stderrors.New("403")), false},
		{"validation", NewValidationError("bad"), false},
		{"plain", stderrors.New("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestHTTPStatusForPlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("x")))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(fmt.Errorf("tick: %w", context.DeadlineExceeded)))
}
