package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/auth"
	"github.com/Monetiqai/Monetiq-sub003/internal/http/response"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/ctxutil"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

type AuthMiddleware struct {
	log      *logger.Logger
	identity auth.IdentityProvider
}

func NewAuthMiddleware(log *logger.Logger, identity auth.IdentityProvider) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), identity: identity}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" && am.identity.RequiresToken() {
			response.RespondAPIError(c, http.StatusUnauthorized, response.APIError{Message: "missing or invalid token", Code: "unauthorized"})
			return
		}
		ctx, err := am.identity.Resolve(c.Request.Context(), token)
		if err != nil {
			am.log.Debug("request identity rejected", "error", err)
			response.RespondAPIError(c, http.StatusUnauthorized, response.APIError{Message: "missing or invalid token", Code: "unauthorized"})
			return
		}
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			response.RespondAPIError(c, http.StatusForbidden, response.APIError{Message: "forbidden", Code: "forbidden"})
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// extractToken accepts ?token= for EventSource clients, which cannot set headers.
func extractToken(c *gin.Context) string {
	if q := strings.TrimSpace(c.Query("token")); q != "" {
		return q
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
