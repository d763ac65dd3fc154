package handlers

// AppHandlers holds every HTTP handler of the application.
type AppHandlers struct {
	AuthHandler           *AuthHandler
	ProfileHandler        *ProfileHandler
	ConversationHandler   *ConversationHandler
	ServiceRequestHandler *ServiceRequestHandler
	PaymentHandler        *PaymentHandler
	FeedbackHandler       *FeedbackHandler
	DashboardHandler      *DashboardHandler
}
