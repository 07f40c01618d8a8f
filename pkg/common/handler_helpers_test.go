package common_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) common.Response {
	t.Helper()
	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		expectHandled bool
		expectStatus  int
		expectCode    string
	}{
		{
			name:          "nil error returns false",
			err:           nil,
			expectHandled: false,
		},
		{
			name:          "typed error keeps its status and code",
			err:           common.NewAlreadyAssignedError("ride already accepted by another driver"),
			expectHandled: true,
			expectStatus:  http.StatusConflict,
			expectCode:    common.CodeAlreadyAssigned,
		},
		{
			name:          "wrapped typed error is unwrapped",
			err:           errors.Join(errors.New("context"), common.NewInvalidTransitionError("cannot complete")),
			expectHandled: true,
			expectStatus:  http.StatusUnprocessableEntity,
			expectCode:    common.CodeInvalidTransition,
		},
		{
			name:          "untyped error becomes internal",
			err:           errors.New("database error"),
			expectHandled: true,
			expectStatus:  http.StatusInternalServerError,
			expectCode:    common.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			handled := common.HandleServiceError(c, tt.err, "failed to process ride")
			assert.Equal(t, tt.expectHandled, handled)
			if !tt.expectHandled {
				return
			}

			assert.Equal(t, tt.expectStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectCode, resp.Error.ErrorCode)
		})
	}
}

func TestHandleServiceError_ServerErrorsAreAttachedForTracking(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	common.HandleServiceError(c, common.NewUnavailableError("routing timed out", errors.New("deadline")), "failed")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Len(t, c.Errors, 1)
}

func TestParseUUIDParam(t *testing.T) {
	valid := uuid.New()

	tests := []struct {
		name     string
		value    string
		expectOK bool
	}{
		{name: "valid uuid", value: valid.String(), expectOK: true},
		{name: "malformed", value: "not-a-uuid", expectOK: false},
		{name: "missing", value: "", expectOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Params = gin.Params{{Key: "id", Value: tt.value}}

			id, ok := common.ParseUUIDParam(c, "id", "ride ID")
			assert.Equal(t, tt.expectOK, ok)
			if tt.expectOK {
				assert.Equal(t, valid, id)
				return
			}
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, common.CodeInvalidInput, decode(t, w).Error.ErrorCode)
		})
	}
}

func TestErrorsIsMatchesSentinels(t *testing.T) {
	assert.ErrorIs(t, common.NewRideTerminalError("done"), common.ErrRideTerminal)
	assert.ErrorIs(t, common.NewUnavailableError("timeout", errors.New("x")), common.ErrUnavailable)
	assert.Equal(t, common.CodeAlreadyRated, common.CodeOf(common.NewAlreadyRatedError("again")))
	assert.Equal(t, common.CodeInternal, common.CodeOf(errors.New("plain")))
}

func TestReadinessProbe(t *testing.T) {
	router := gin.New()
	router.GET("/ready", common.ReadinessProbe("rides", "test", map[string]func() error{
		"database": func() error { return nil },
		"redis":    func() error { return errors.New("connection refused") },
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body common.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"].Status)
	assert.Equal(t, "unhealthy", body.Checks["redis"].Status)
}
