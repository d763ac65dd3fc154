package services

import (
	"eventhire_backend/internal/auth"
	"eventhire_backend/internal/email"
	"eventhire_backend/internal/events"
	"eventhire_backend/internal/payments"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/storage"
)

// Dependencies are the collaborators shared by the services.
type Dependencies struct {
	Store *repositories.Store
	// LegacyProfiles is the YAML seeded directory; nil when unused.
	LegacyProfiles repositories.ProfileRepository
	Tokens         *auth.TokenManager
	Publisher      events.Publisher
	Notifier       Notifier
	Gateway        payments.Gateway
	Storage        storage.Storage
	Mailer         *email.Mailer

	Auth    AuthConfig
	Booking BookingConfig
	Payment PaymentConfig
	Upload  UploadConfig
}

// ServiceContainer holds every application service.
type ServiceContainer struct {
	AuthService           AuthService
	ProfileService        ProfileService
	DirectoryService      DirectoryService
	ConversationService   ConversationService
	ServiceRequestService ServiceRequestService
	PaymentService        PaymentService
	FeedbackService       FeedbackService
	DashboardService      DashboardService
	NotificationService   NotificationService
}

func NewServiceContainer(d Dependencies) *ServiceContainer {
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Notifier == nil {
		d.Notifier = NopNotifier{}
	}
	authService := NewAuthService(d.Store, d.Tokens, d.Publisher, d.Auth)
	requests := NewServiceRequestService(d.Store, d.Publisher, d.Notifier, d.Booking)

	c := &ServiceContainer{
		AuthService:           authService,
		ProfileService:        NewProfileService(d.Store, d.Storage, d.Upload, authService),
		DirectoryService:      NewDirectoryService(d.Store.Profiles, d.LegacyProfiles),
		ConversationService:   NewConversationService(d.Store, d.Publisher, d.Notifier),
		ServiceRequestService: requests,
		PaymentService:        NewPaymentService(d.Store, d.Gateway, requests, d.Publisher, d.Payment),
		FeedbackService:       NewFeedbackService(d.Store),
		DashboardService:      NewDashboardService(d.Store),
	}
	if d.Mailer != nil {
		c.NotificationService = NewNotificationService(d.Store, d.Mailer)
	}
	return c
}
