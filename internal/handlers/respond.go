package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yukikurage/report-hub-api/internal/access"
	"github.com/yukikurage/report-hub-api/internal/constants"
	apierrors "github.com/yukikurage/report-hub-api/internal/errors"
	"github.com/yukikurage/report-hub-api/internal/middleware"
	"github.com/yukikurage/report-hub-api/internal/services"
)

// respondServiceError maps a service error kind onto its status code.
// Anything outside the kinds is logged and hidden behind a generic 500.
func respondServiceError(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrValidation):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrPermission):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		apierrors.Conflict(c, err.Error())
	default:
		log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		apierrors.InternalError(c, "")
	}
}

// bindJSON binds the body and answers 400 on failure
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return false
	}
	return true
}

// currentPrincipal answers 401 when RequireAuth did not run
func currentPrincipal(c *gin.Context) (access.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "")
	}
	return p, ok
}
