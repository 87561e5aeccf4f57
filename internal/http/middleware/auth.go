package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/meetingdesk-backend/internal/http/response"
	"github.com/yungbote/meetingdesk-backend/internal/platform/apierr"
	"github.com/yungbote/meetingdesk-backend/internal/platform/ctxutil"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
	"github.com/yungbote/meetingdesk-backend/internal/services"
)

// TokenCookie carries the access token for the server-rendered editor, where
// the browser cannot set an Authorization header.
const TokenCookie = "md_token"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
	disabled    bool
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, disabled bool) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	if disabled {
		middlewareLogger.Warn("authentication disabled; every request runs as admin")
	}
	return &AuthMiddleware{log: middlewareLogger, authService: authService, disabled: disabled}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if am.disabled {
			ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
				Subject: services.AdminSubject,
				Role:    services.AdminRole,
			})
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			response.AbortUnauthorized(c, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		rd, err := am.authService.VerifyToken(c.Request.Context(), tokenString)
		if err != nil {
			_, code := apierr.StatusOf(err)
			response.AbortUnauthorized(c, code, err)
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}
