package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/loopcard/internal/helpers"
	"github.com/joshua-takyi/loopcard/internal/services"
)

type sessionView struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	ExpiresIn int    `json:"expires_in"`
	// Native clients cannot read HTTP only cookies, so tokens are returned too.
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SendOTP emails a six digit sign in code.
func SendOTP(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		email := helpers.NormalizeEmail(req.Email)
		if err := helpers.ValidateEmail(email); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid email format"))
			return
		}
		if err := u.SendOTP(c.Request.Context(), email); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"email": email}, "Code sent"))
	}
}

// VerifyOTP exchanges the emailed code for a session.
func VerifyOTP(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required"`
			Token string `json:"token" binding:"required,len=6,numeric"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("email and a 6 digit code are required"))
			return
		}
		session, err := u.VerifyOTP(c.Request.Context(), req.Email, req.Token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, helpers.ErrorResponse(err.Error()))
			return
		}
		helpers.SetAuthCookies(c, session)
		c.JSON(http.StatusOK, helpers.SuccessResponse(sessionView{
			UserID:       session.UserID.String(),
			Email:        session.Email,
			ExpiresIn:    session.ExpiresIn,
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
		}, "Signed in"))
	}
}

// GoogleAuth redirects to the Supabase Google OAuth flow, or returns the URL
// when the client asks for JSON.
func GoogleAuth(u *services.UserService, frontendURL string) gin.HandlerFunc {
	frontendURL = strings.TrimRight(frontendURL, "/")
	return func(c *gin.Context) {
		redirectTo := c.Query("redirect_to")
		if redirectTo == "" {
			redirectTo = frontendURL + "/auth/callback"
		}
		authURL := u.GoogleAuthURL(redirectTo)

		if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEJSON {
			c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"url": authURL}, ""))
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, authURL)
	}
}

// GoogleAuthCallback forwards provider errors to the client. Tokens arrive in
// the URL fragment and are posted back through CreateSession.
func GoogleAuthCallback(frontendURL string) gin.HandlerFunc {
	frontendURL = strings.TrimRight(frontendURL, "/")
	return func(c *gin.Context) {
		if e := c.Query("error"); e != "" {
			q := url.Values{}
			q.Set("error", e)
			q.Set("error_description", c.Query("error_description"))
			c.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("%s/auth/signin?%s", frontendURL, q.Encode()))
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, frontendURL+"/auth/callback")
	}
}

// CreateSession stores tokens the client received from the OAuth redirect.
func CreateSession(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			AccessToken  string `json:"access_token" binding:"required"`
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}
		session, err := u.AdoptSession(c.Request.Context(), req.AccessToken, req.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, helpers.ErrorResponse(err.Error()))
			return
		}
		helpers.SetAuthCookies(c, session)
		c.JSON(http.StatusOK, helpers.SuccessResponse(sessionView{
			UserID:       session.UserID.String(),
			Email:        session.Email,
			ExpiresIn:    session.ExpiresIn,
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
		}, "Signed in"))
	}
}

func RefreshSession(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.ShouldBindJSON(&req)
		if req.RefreshToken == "" {
			req.RefreshToken, _ = c.Cookie(helpers.RefreshTokenCookie)
		}
		session, err := u.RefreshToken(c.Request.Context(), req.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, helpers.ErrorResponse(err.Error()))
			return
		}
		helpers.SetAuthCookies(c, session)
		c.JSON(http.StatusOK, helpers.SuccessResponse(sessionView{
			UserID:       session.UserID.String(),
			Email:        session.Email,
			ExpiresIn:    session.ExpiresIn,
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
		}, ""))
	}
}

// Logout revokes the session upstream when possible and clears the cookies.
func Logout(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := helpers.AccessToken(c); token != "" {
			if err := u.Logout(c.Request.Context(), token); err != nil {
				_ = c.Error(err).SetType(gin.ErrorTypePrivate)
			}
		}
		helpers.ClearAuthCookies(c)
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Logged out successfully"))
	}
}

// Me returns the signed in user's profile.
func Me(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, id, err := helpers.CurrentUser(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, helpers.ErrorResponse(err.Error()))
			return
		}
		profile, err := u.GetProfile(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
				"id":    claims.UserID,
				"email": claims.Email,
			}, ""))
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(profile, ""))
	}
}
