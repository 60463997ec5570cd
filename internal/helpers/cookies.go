package helpers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/supabase-community/gotrue-go/types"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	SessionCookie      = "session_id"

	refreshTokenMaxAge = 3600 * 24 * 30
)

// SetSessionCookies stores the token pair as http-only cookies. The access
// cookie lives as long as the token itself.
func SetSessionCookies(c *gin.Context, tokens *types.TokenResponse, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, tokens.AccessToken, tokens.ExpiresIn, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, tokens.RefreshToken, refreshTokenMaxAge, "/", "", secure, true)
}

func ClearSessionCookies(c *gin.Context, secure bool) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}

// AccessToken reads the token from the cookie, falling back to a bearer header.
func AccessToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
