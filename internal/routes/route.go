package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/loopcard/internal/assets"
	"github.com/joshua-takyi/loopcard/internal/container"
	"github.com/joshua-takyi/loopcard/internal/handlers"
	"github.com/joshua-takyi/loopcard/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = assets.MaxUploadBytes

	r.Use(middleware.CORS(container.Config.AllowedOrigins))
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	cards := container.CardService
	wizard := container.WizardService
	analytics := container.AnalyticsService
	users := container.UserService

	// Public card pages
	r.GET("/u/:slug", handlers.PublicCard(cards, analytics))
	r.POST("/u/:slug/interactions", handlers.TrackInteraction(cards, analytics))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", handlers.Health())

		auth := v1.Group("/auth")
		auth.POST("/otp", handlers.SendOTP(users))
		auth.POST("/otp/verify", handlers.VerifyOTP(users))
		auth.GET("/google", handlers.GoogleAuth(users, container.Config.FrontendURL))
		auth.GET("/callback", handlers.GoogleAuthCallback(container.Config.FrontendURL))
		auth.POST("/session", handlers.CreateSession(users))
		auth.POST("/refresh", handlers.RefreshSession(users))
		auth.POST("/logout", handlers.Logout(users))
	}

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(users, container.Logger))
	{
		protected.GET("/me", handlers.Me(users))
		protected.GET("/analytics", handlers.CardAnalytics(analytics))
	}

	wizardRoutes := protected.Group("/wizard")
	{
		wizardRoutes.GET("", handlers.GetWizard(wizard))
		wizardRoutes.PATCH("", handlers.UpdateWizard(wizard))
		wizardRoutes.DELETE("", handlers.ResetWizard(wizard))
		wizardRoutes.POST("/photo", handlers.UploadWizardPhoto(wizard))
		wizardRoutes.POST("/next", handlers.NextWizardStep(wizard))
		wizardRoutes.POST("/back", handlers.PreviousWizardStep(wizard))
		wizardRoutes.GET("/preview", handlers.PreviewWizard(wizard))
		wizardRoutes.POST("/commit", handlers.CommitWizard(cards))
	}

	cardRoutes := protected.Group("/cards")
	{
		cardRoutes.GET("", handlers.ListMyCards(cards))
		cardRoutes.GET("/mine", handlers.GetMyCard(cards))
		cardRoutes.GET("/:id", handlers.GetCard(cards))
		cardRoutes.PATCH("/:id", handlers.UpdateCard(cards))
		cardRoutes.POST("/:id/avatar", handlers.ReplaceAvatar(cards))
		cardRoutes.POST("/:id/publish", handlers.SetPublished(cards))
		cardRoutes.POST("/:id/slug", handlers.RegenerateSlug(cards))
		cardRoutes.GET("/:id/share", handlers.ShareCard(cards))
		cardRoutes.GET("/:id/qr.png", handlers.CardQRCode(cards))
	}

	return r
}
