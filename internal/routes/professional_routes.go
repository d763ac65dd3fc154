package routes

import (
	"eventhire_backend/internal/handlers"
	"eventhire_backend/internal/middleware"
	"eventhire_backend/internal/models"

	"github.com/gin-gonic/gin"
)

func SetupProfessionalRoutes(api *gin.RouterGroup, h *handlers.AppHandlers, mw Middlewares) {
	professional := api.Group("", mw.Auth, middleware.RequireRoles(models.UserRoleProfessional))
	{
		professional.POST("/profile/photo", h.ProfileHandler.UploadPhoto)
		professional.POST("/service-requests/:id/accept", h.ServiceRequestHandler.AcceptRequest)
		professional.POST("/service-requests/:id/decline", h.ServiceRequestHandler.DeclineRequest)
	}
}
