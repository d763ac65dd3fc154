package routes

import (
	"eventhire_backend/internal/handlers"
	"eventhire_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAdminRoutes(api *gin.RouterGroup, h *handlers.AppHandlers, mw Middlewares) {
	admin := api.Group("/admin", mw.Auth, middleware.AdminMiddleware())
	{
		admin.GET("/feedback", h.FeedbackHandler.ListFeedback)
	}
}
