package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/models"
)

const (
	userIDKey    = "user_id"
	userEmailKey = "user_email"
	userRoleKey  = "user_role"
	actorKey     = "actor"
)

// Claims represents JWT claims
type Claims struct {
	UserID uuid.UUID       `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates HS256 bearer tokens signed with jwtSecret.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	key := []byte(jwtSecret)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, common.CodeUnauthorized, "authorization required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.ErrorResponse(c, http.StatusUnauthorized, common.CodeUnauthorized, "invalid authorization header format")
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			common.ErrorResponse(c, http.StatusUnauthorized, common.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || claims.UserID == uuid.Nil {
			common.ErrorResponse(c, http.StatusUnauthorized, common.CodeUnauthorized, "invalid token claims")
			c.Abort()
			return
		}

		actor, err := models.NewActor(claims.UserID, claims.Role)
		if err != nil {
			common.ErrorResponse(c, http.StatusForbidden, common.CodeForbidden, "unsupported role")
			c.Abort()
			return
		}

		// Set user info in context
		c.Set(userIDKey, claims.UserID)
		c.Set(userEmailKey, claims.Email)
		c.Set(userRoleKey, claims.Role)
		c.Set(actorKey, actor)

		c.Next()
	}
}

// RequireRole middleware checks if user has required role
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRole(c)
		if err != nil {
			common.ErrorResponse(c, http.StatusUnauthorized, common.CodeUnauthorized, "user role not found")
			c.Abort()
			return
		}

		for _, requiredRole := range roles {
			if role == requiredRole {
				c.Next()
				return
			}
		}

		common.ErrorResponse(c, http.StatusForbidden, common.CodeForbidden, "insufficient permissions")
		c.Abort()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, common.ErrUnauthorized
	}
	id, ok := userID.(uuid.UUID)
	if !ok {
		return uuid.Nil, common.ErrUnauthorized
	}
	return id, nil
}

// GetUserRole extracts user role from context
func GetUserRole(c *gin.Context) (models.UserRole, error) {
	role, exists := c.Get(userRoleKey)
	if !exists {
		return "", common.ErrUnauthorized
	}
	userRole, ok := role.(models.UserRole)
	if !ok {
		return "", common.ErrUnauthorized
	}
	return userRole, nil
}

// GetActor returns the acting party resolved by AuthMiddleware or
// InternalAPIKey.
func GetActor(c *gin.Context) (models.Actor, error) {
	value, exists := c.Get(actorKey)
	if !exists {
		return models.Actor{}, common.ErrUnauthorized
	}
	actor, ok := value.(models.Actor)
	if !ok {
		return models.Actor{}, common.ErrUnauthorized
	}
	return actor, nil
}
