// internal/utils/response_test.go
package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
)

func recordEngineError(t *testing.T, err error) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	EngineErrorResponse(c, err)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestEngineErrorResponseStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "not found",
			err:    apperrors.NotFound("package", "p1"),
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "validation",
			err:    apperrors.Validation("license_pool", "reclaim needs a selection mode"),
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "duplicate seat",
			err:    apperrors.DuplicateActiveAssignment("license_pool", "pool1", "subject already seated"),
			status: http.StatusConflict,
			code:   "DUPLICATE_ACTIVE_ASSIGNMENT",
		},
		{
			name:   "already decided",
			err:    apperrors.AlreadyDecided("approval_request", "r1", "request is no longer pending"),
			status: http.StatusConflict,
			code:   "ALREADY_DECIDED",
		},
		{
			name:   "superseding cycle",
			err:    apperrors.SupersedingCycle("hardware", "hw1", "chain loops back"),
			status: http.StatusUnprocessableEntity,
			code:   "SUPERSEDING_CYCLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := recordEngineError(t, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)

			details, ok := resp.Error.Details.(map[string]interface{})
			require.True(t, ok)
			assert.NotEmpty(t, details["resource"])
		})
	}
}

func TestEngineErrorResponseConflictIsRetryable(t *testing.T) {
	rec, resp := recordEngineError(t,
		apperrors.Conflict("license_pool", "pool1", "pool was modified concurrently"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONCURRENT_MODIFICATION_CONFLICT", resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, details["retryable"])
	assert.Equal(t, "pool1", details["id"])
}

func TestEngineErrorResponseUntypedError(t *testing.T) {
	rec, resp := recordEngineError(t, errors.New("disk on fire"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
}
