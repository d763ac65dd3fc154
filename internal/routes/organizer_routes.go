package routes

import (
	"eventhire_backend/internal/handlers"
	"eventhire_backend/internal/middleware"
	"eventhire_backend/internal/models"

	"github.com/gin-gonic/gin"
)

func SetupOrganizerRoutes(api *gin.RouterGroup, h *handlers.AppHandlers, mw Middlewares) {
	organizer := api.Group("", mw.Auth, middleware.RequireRoles(models.UserRoleOrganizer))
	{
		organizer.POST("/conversations", h.ConversationHandler.StartConversation)
		organizer.POST("/service-requests", h.ServiceRequestHandler.CreateRequest)
		organizer.POST("/service-requests/:id/payments", h.ServiceRequestHandler.CreatePayment)
		organizer.POST("/payments/:id/confirm", h.PaymentHandler.ConfirmPayment)
	}
}
