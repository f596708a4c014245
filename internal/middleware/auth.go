package middleware

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/report-hub-api/internal/access"
	"github.com/yukikurage/report-hub-api/internal/constants"
	apierrors "github.com/yukikurage/report-hub-api/internal/errors"
	"github.com/yukikurage/report-hub-api/internal/models"
)

// UserLoader resolves the user stored in a session
type UserLoader interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth checks if the user is authenticated via session and loads its principal.
// A session pointing at a deleted user is cleared.
func RequireAuth(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(constants.ContextKeyUserID).(string)
		if !ok || userID == "" {
			apierrors.Unauthorized(c, "")
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			session.Clear()
			_ = session.Save()
			apierrors.Unauthorized(c, "Session is no longer valid")
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyPrincipal, access.PrincipalFromUser(user))
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

// GetPrincipal retrieves the principal set by RequireAuth
func GetPrincipal(c *gin.Context) (access.Principal, bool) {
	value, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return access.Principal{}, false
	}
	p, ok := value.(access.Principal)
	return p, ok
}

// RequireRole lets through principals holding one of roles.
// It must run after RequireAuth.
func RequireRole(roles ...models.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}
		for _, role := range roles {
			if p.Role == role {
				c.Next()
				return
			}
		}
		apierrors.Forbidden(c, "Your role cannot perform this action")
	}
}
