package routes

import (
	"eventhire_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupCommonRoutes registers routes open to any signed in user. Role
// specific rules are enforced by the services.
func SetupCommonRoutes(api *gin.RouterGroup, h *handlers.AppHandlers, mw Middlewares) {
	authed := api.Group("", mw.Auth)

	authed.GET("/auth/me", h.AuthHandler.Me)
	authed.POST("/auth/password/change", h.AuthHandler.ChangePassword)
	authed.PUT("/profile", h.ProfileHandler.UpdateProfile)
	authed.GET("/dashboard", h.DashboardHandler.GetDashboard)

	conversations := authed.Group("/conversations")
	{
		conversations.GET("", h.ConversationHandler.ListConversations)
		conversations.GET("/unread", h.ConversationHandler.UnreadCounts)
		conversations.GET("/:id", h.ConversationHandler.GetConversation)
		conversations.POST("/:id/close", h.ConversationHandler.CloseConversation)
		conversations.POST("/:id/archive", h.ConversationHandler.ArchiveConversation)
		conversations.POST("/:id/reopen", h.ConversationHandler.ReopenConversation)
		conversations.POST("/:id/read", h.ConversationHandler.MarkRead)
		conversations.GET("/:id/messages", h.ConversationHandler.ListMessages)
		conversations.POST("/:id/messages", h.ConversationHandler.SendMessage)
	}

	requests := authed.Group("/service-requests")
	{
		requests.GET("", h.ServiceRequestHandler.ListRequests)
		requests.GET("/:id", h.ServiceRequestHandler.GetRequest)
		requests.POST("/:id/complete", h.ServiceRequestHandler.CompleteRequest)
		requests.GET("/:id/payments", h.ServiceRequestHandler.ListPayments)
	}
}
