package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/meetingdesk-backend/internal/http/middleware"
	"github.com/yungbote/meetingdesk-backend/internal/http/response"
	"github.com/yungbote/meetingdesk-backend/internal/services"
)

type AuthHandler struct {
	authService  services.AuthService
	secureCookie bool
}

func NewAuthHandler(authService services.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

// Login exchanges the admin password for an access token. The token is also
// set as an HttpOnly cookie for the editor pages.
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" form:"password"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid_request", err)
		return
	}
	tok, err := ah.authService.Login(c.Request.Context(), req.Password)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	maxAge := int(time.Until(tok.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, tok.Token, maxAge, "/", "", ah.secureCookie, true)
	response.RespondOK(c, gin.H{
		"access_token": tok.Token,
		"expires_at":   tok.ExpiresAt,
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
	})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", ah.secureCookie, true)
	response.RespondOK(c, gin.H{"ok": true})
}
