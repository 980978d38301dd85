package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/classroom-service/internal/auth"
	"github.com/SAP-F-2025/classroom-service/internal/models"
	"github.com/SAP-F-2025/classroom-service/internal/utils"
)

// ActorContextKey is where AuthMiddleware stores the models.Actor
const ActorContextKey = "actor"

// SessionAuthMiddleware authenticates bearer tokens issued by this service
type SessionAuthMiddleware struct {
	authenticator *auth.SessionAuthenticator
	logger        utils.Logger
}

func NewSessionAuthMiddleware(authenticator *auth.SessionAuthenticator, logger utils.Logger) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{
		authenticator: authenticator,
		logger:        logger,
	}
}

// AuthMiddleware rejects requests without a valid, unexpired token with 401
func (m *SessionAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := m.authenticator.Authenticate(c.GetHeader("Authorization"))
		if err != nil {
			code, message := CodeUnauthenticated, "User not authenticated"
			if errors.Is(err, auth.ErrTokenExpired) {
				code, message = CodeTokenExpired, "Session expired"
			}
			utils.FromContext(c, m.logger).Warn("Authentication failed", "path", c.FullPath(), "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: message,
				Code:    code,
			})
			return
		}

		c.Set(ActorContextKey, actor)
		c.Set("user_id", actor.ID)
		c.Set("user_role", actor.Role)
		c.Next()
	}
}

// RequireRoleMiddleware is a coarse route guard; services still evaluate
// the full permission table.
func (m *SessionAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActorFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
				Code:    CodeUnauthenticated,
			})
			return
		}

		if !slices.Contains(requiredRoles, actor.Role) {
			utils.FromContext(c, m.logger).Warn("Access denied",
				"actor_id", actor.ID, "role", actor.Role.String(), "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
				Code:    CodeUnauthorized,
			})
			return
		}

		c.Next()
	}
}

// GetActorFromContext extracts the authenticated actor from the Gin context
func GetActorFromContext(c *gin.Context) (models.Actor, error) {
	v, exists := c.Get(ActorContextKey)
	if !exists {
		return models.Actor{}, fmt.Errorf("actor not found in context")
	}
	actor, ok := v.(models.Actor)
	if !ok {
		return models.Actor{}, fmt.Errorf("invalid actor type in context")
	}
	return actor, nil
}
