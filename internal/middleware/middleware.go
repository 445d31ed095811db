package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/loopcard/internal/helpers"
	"github.com/joshua-takyi/loopcard/internal/models"
	"github.com/joshua-takyi/loopcard/internal/services"
)

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get("request_id")

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "HTTP Request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// ErrorHandler logs errors attached to the context. Handlers write their own
// responses; a generic 500 is sent only when nothing was written.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		requestID, _ := c.Get("request_id")
		for _, err := range c.Errors {
			logger.Error("Request error",
				"request_id", requestID,
				"error", err.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
		}

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":      "Internal server error",
				"request_id": requestID,
			})
		}
	}
}

// CORS allows credentialed requests from the configured frontends.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func unauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": "Unauthorized access",
		"error":   reason,
	})
}

// AuthMiddleware accepts a bearer token or the access token cookie. An expired
// cookie session is renewed with the refresh token cookie when present.
func AuthMiddleware(userService *services.UserService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := helpers.AccessToken(c)
		if token == "" {
			unauthorized(c, "access token not found")
			return
		}

		claims, err := userService.ValidateToken(token)
		if err != nil {
			refreshToken, refreshErr := c.Cookie(helpers.RefreshTokenCookie)
			if refreshErr != nil || refreshToken == "" {
				unauthorized(c, err.Error())
				return
			}

			session, refreshErr := userService.RefreshToken(c.Request.Context(), refreshToken)
			if refreshErr != nil {
				logger.Error("Token refresh failed", "error", refreshErr)
				unauthorized(c, "token expired and refresh failed")
				return
			}
			helpers.SetAuthCookies(c, session)
			logger.Info("Token refreshed successfully",
				"user_id", session.UserID,
				"expires_in", session.ExpiresIn,
			)

			token = session.AccessToken
			claims, err = userService.ValidateToken(token)
			if err != nil {
				unauthorized(c, "refreshed token validation failed")
				return
			}
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			logger.Error("Invalid user ID in token", "user_id", claims.Subject, "error", err)
			unauthorized(c, "invalid user ID in token")
			return
		}

		// Downstream repository calls run as the signed in user.
		c.Request = c.Request.WithContext(models.WithAccessToken(c.Request.Context(), token))

		enhanced := &helpers.EnhancedClaims{
			CustomClaims: claims,
			UserID:       claims.Subject,
			Email:        claims.Email,
			Provider:     claims.AppMetadata.Provider,
			AccessToken:  token,
		}
		if profile, err := userService.GetProfile(c.Request.Context(), userID); err == nil {
			enhanced.Fullname = profile.FullName
			enhanced.AvatarURL = profile.AvatarURL
			enhanced.CreatedAt = profile.CreatedAt.Format(time.RFC3339)
		} else {
			logger.Debug("Profile not loaded", "user_id", claims.Subject, "error", err)
		}

		c.Set(helpers.UserContextKey, enhanced)
		c.Next()
	}
}
