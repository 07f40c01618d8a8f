package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/models"
)

// InternalAPIKeyHeader carries the shared secret for service-to-service calls
const InternalAPIKeyHeader = "X-Internal-API-Key"

// InternalAPIKey validates the shared secret in X-Internal-API-Key using a
// constant-time comparison. Authenticated callers act as the system.
func InternalAPIKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			common.ErrorResponse(c, http.StatusInternalServerError, common.CodeInternal, "internal API key not configured")
			c.Abort()
			return
		}

		provided := c.GetHeader(InternalAPIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
			common.ErrorResponse(c, http.StatusUnauthorized, common.CodeUnauthorized, "invalid internal API key")
			c.Abort()
			return
		}

		c.Set(userRoleKey, models.RoleAdmin)
		c.Set(actorKey, models.SystemActor())
		c.Next()
	}
}
