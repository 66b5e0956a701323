package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTypeHelpers(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		status int
	}{
		{"validation", NewValidationError("prompt is required"), IsValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("project"), IsNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("version mismatch"), IsConflict, http.StatusConflict},
		{"model output", NewModelOutputError("bad json", "{", nil), IsModelOutput, http.StatusBadGateway},
		{"upstream", NewUpstreamError("llm", errors.New("timeout")), IsUpstream, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.status, GetAppError(tt.err).HTTPStatus)
		})
	}
}

func TestHelpersSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("load failed: %w", NewNotFoundError("project"))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
}

func TestUpstreamErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUpstreamError("store", cause)

	assert.ErrorIs(t, err, cause)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	wrapped := Wrap(NewNotFoundError("node"), "delete")
	assert.True(t, IsNotFound(wrapped))
	assert.Contains(t, wrapped.Error(), "delete: node not found")

	plain := Wrap(errors.New("boom"), "save")
	assert.True(t, IsType(plain, ErrorTypeInternal))
}

func TestErrorHandler_Handle(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error keeps its status and hides details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/p1/rate", nil)

		handler.Handle(rec, req, NewModelOutputError("rating was not valid JSON", "nonsense", nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "MODEL_OUTPUT", body.Type)
		assert.Nil(t, body.Details)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		handler.Handle(rec, req, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "An internal error occurred", body.Message)
	})
}

func TestErrorHandler_MiddlewareRecoversPanics(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), true)
	h := handler.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
