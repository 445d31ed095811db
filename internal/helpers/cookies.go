package helpers

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/loopcard/internal/models"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	refreshTokenMaxAge = 3600 * 24 * 30
)

func isProduction() bool {
	return os.Getenv("ENVIRONMENT") == "production"
}

// SetAuthCookies stores the session tokens as HTTP only cookies.
func SetAuthCookies(c *gin.Context, s *models.Session) {
	maxAge := s.ExpiresIn
	if maxAge <= 0 {
		maxAge = 3600
	}
	c.SetCookie(AccessTokenCookie, s.AccessToken, maxAge, "/", "", isProduction(), true)
	if s.RefreshToken != "" {
		c.SetCookie(RefreshTokenCookie, s.RefreshToken, refreshTokenMaxAge, "/", "", isProduction(), true)
	}
}

func ClearAuthCookies(c *gin.Context) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", isProduction(), true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", isProduction(), true)
}

// AccessToken reads the bearer header first and the cookie second.
func AccessToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("bearer "):])
	}
	token, _ := c.Cookie(AccessTokenCookie)
	return token
}
