package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/gotasks/auth"
	"github.com/kbukum/gotasks/auth/authctx"
	apperrors "github.com/kbukum/gotasks/errors"
	"github.com/kbukum/gotasks/logger"
)

// RespondWithError inspects err: if it is an *apperrors.AppError the status and
// structured body are derived automatically; otherwise a generic 500 is sent
// and the cause stays in the logs.
func RespondWithError(c *gin.Context, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, apperrors.Internal(err).ToResponse())
}

// RespondOK sends a 200 response with data as the body.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// RespondCreated sends a 201 response with data as the body.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// RespondNoContent sends a 204 with no body.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BindJSON decodes the request body into dst, answering 400 on failure.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondWithError(c, apperrors.Validation("Invalid request body").WithCause(err))
		return false
	}
	return true
}

// Principal returns the caller bound by the authentication gate. A protected
// handler reached without one is a wiring fault: it is logged and answered
// with 500, never served anonymously.
func Principal(c *gin.Context, log *logger.Logger) (auth.Principal, bool) {
	p, ok := authctx.FromContext(c.Request.Context())
	if !ok {
		log.WithContext(c.Request.Context()).Error("Principal missing on protected route", map[string]interface{}{
			logger.FieldPath: c.Request.URL.Path,
		})
		RespondWithError(c, apperrors.Internal(authctx.ErrNoPrincipal))
		return auth.Principal{}, false
	}
	return p, true
}

func notFoundRoute(path string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeNotFound, "Route not found: "+path, http.StatusNotFound)
}
