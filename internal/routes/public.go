package routes

import (
	"eventhire_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

func SetupPublicRoutes(api *gin.RouterGroup, h *handlers.AppHandlers, mw Middlewares) {
	auth := api.Group("/auth")
	if mw.AuthRateLimit != nil {
		auth.Use(mw.AuthRateLimit)
	}
	{
		auth.POST("/register", h.AuthHandler.Register)
		auth.POST("/login", h.AuthHandler.Login)
		auth.POST("/refresh", h.AuthHandler.RefreshToken)
		auth.POST("/logout", h.AuthHandler.Logout)
		auth.POST("/verify-email", h.AuthHandler.VerifyEmail)
		auth.POST("/password/forgot", h.AuthHandler.RequestPasswordReset)
		auth.POST("/password/reset", h.AuthHandler.ResetPassword)
	}

	// viewers are identified so owners and admins can see hidden profiles
	professionals := api.Group("/professionals", mw.OptionalAuth)
	{
		professionals.GET("", h.ProfileHandler.SearchProfessionals)
		professionals.GET("/:id", h.ProfileHandler.GetProfessional)
	}

	api.POST("/feedback", mw.OptionalAuth, h.FeedbackHandler.SubmitFeedback)

	// signed by the provider, no bearer token
	api.POST("/payments/webhook", h.PaymentHandler.Webhook)
}
