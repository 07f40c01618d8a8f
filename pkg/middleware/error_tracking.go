package middleware

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"github.com/richxcame/ride-lifecycle/pkg/errors"
)

// SentryMiddleware returns a middleware that integrates Sentry error tracking.
// Panics are captured and re-raised for gin's recovery handler.
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// ErrorHandler reports unexpected handler errors to Sentry. It should be
// placed after SentryMiddleware and the auth middleware.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		for _, err := range c.Errors {
			if errors.ShouldReportError(err.Err, statusCode) {
				captureError(c, err.Err, statusCode, time.Since(start))
			}
		}
	}
}

func captureError(c *gin.Context, err error, statusCode int, duration time.Duration) {
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(c.Request)
		scope.SetLevel(sentry.LevelError)

		if userID, err := GetUserID(c); err == nil {
			scope.SetUser(sentry.User{ID: userID.String(), IPAddress: c.ClientIP()})
		}
		if role, err := GetUserRole(c); err == nil {
			scope.SetTag("user.role", string(role))
		}

		scope.SetTag("http.method", c.Request.Method)
		scope.SetTag("http.status_code", fmt.Sprintf("%d", statusCode))
		scope.SetTag("endpoint", c.FullPath())
		if correlationID := GetCorrelationID(c); correlationID != "" {
			scope.SetTag("correlation_id", correlationID)
		}
		if rideID := c.Param("id"); rideID != "" {
			scope.SetTag("ride_id", rideID)
		}

		scope.SetContext("http", map[string]interface{}{
			"method":      c.Request.Method,
			"url":         c.Request.URL.String(),
			"status_code": statusCode,
			"duration_ms": duration.Milliseconds(),
		})

		hub.CaptureException(err)
	})
}
