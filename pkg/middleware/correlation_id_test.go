package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/richxcame/ride-lifecycle/pkg/logger"
)

func TestCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		header  string
		keepsIt bool
	}{
		{"generated when missing", "", false},
		{"upstream id kept", "req-42_abc.1", true},
		{"unsafe id replaced", "bad id\n", false},
		{"oversized id replaced", strings.Repeat("a", 200), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			r := gin.New()
			r.Use(CorrelationID())
			r.GET("/", func(c *gin.Context) {
				seen = logger.CorrelationIDFromContext(c.Request.Context())
				assert.Equal(t, seen, GetCorrelationID(c))
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(CorrelationIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, seen, w.Header().Get(CorrelationIDHeader))
			if tt.keepsIt {
				assert.Equal(t, tt.header, seen)
				return
			}
			_, err := uuid.Parse(seen)
			assert.NoError(t, err)
		})
	}
}
