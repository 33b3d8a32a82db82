package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/gotasks/auth"
	"github.com/kbukum/gotasks/auth/authctx"
	"github.com/kbukum/gotasks/errors"
	"github.com/kbukum/gotasks/logger"
	"github.com/kbukum/gotasks/observability"
)

// TokenVerifier turns a raw bearer token into a Principal.
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// AuthConfig configures the authentication gate.
type AuthConfig struct {
	// Verifier validates bearer tokens.
	Verifier TokenVerifier
	// PublicPaths bypass authentication. An entry is an exact path or a
	// prefix ending in "*" (e.g. "/auth/check-*").
	PublicPaths []string
	// Logger receives one warning per rejected request.
	Logger *logger.Logger
	// Metrics counts rejections by reason (optional).
	Metrics *observability.Metrics
}

// Authenticate returns the gate placed in front of every protected route.
// On success the Principal is bound to the request's own context, where
// handlers read it with authctx.FromContext.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	public := auth.NewPathMatcher(cfg.PublicPaths...)
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("auth")

	return func(c *gin.Context) {
		if public.Match(c.Request.URL.Path) {
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			reject(c, log, cfg.Metrics, "missing_credentials", errors.Unauthorized(""))
			return
		}

		ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanVerifyToken)
		principal, err := cfg.Verifier.Verify(token)
		if err != nil {
			appErr := errors.InvalidToken().WithCause(err)
			reason := "invalid"
			if r, ok := auth.AsRejection(err); ok {
				appErr = r.AppError()
				reason = r.Kind.String()
			}
			observability.SetSpanAttribute(ctx, observability.AttrRejection, reason)
			observability.EndSpan(span, err)
			reject(c, log, cfg.Metrics, reason, appErr)
			return
		}
		observability.SetSpanAttribute(ctx, observability.AttrUserID, principal.UserID)
		observability.EndSpan(span, nil)

		reqCtx := authctx.Set(c.Request.Context(), principal)
		reqCtx = logger.ContextWithUserID(reqCtx, principal.UserID)
		c.Request = c.Request.WithContext(reqCtx)
		c.Next()
	}
}

func reject(c *gin.Context, log *logger.Logger, metrics *observability.Metrics, reason string, appErr *errors.AppError) {
	log.WithContext(c.Request.Context()).Warn("Request rejected", map[string]interface{}{
		logger.FieldReason: reason,
		logger.FieldPath:   c.Request.URL.Path,
		"method":           c.Request.Method,
	})
	metrics.RecordRejection(c.Request.Context(), reason)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// bearerToken extracts the credential from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively; the token must be non-empty.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
