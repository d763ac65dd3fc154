package dto

import "eventhire_backend/internal/models"

type DashboardResponse struct {
	Role         models.UserRole        `json:"role"`
	Organizer    *OrganizerDashboard    `json:"organizer,omitempty"`
	Professional *ProfessionalDashboard `json:"professional,omitempty"`
}

type OrganizerDashboard struct {
	RequestsByStatus map[models.ServiceRequestStatus]int64 `json:"requests_by_status"`
	UnreadMessages   int64                                 `json:"unread_messages"`
	UpcomingEvents   []*ServiceRequestResponse             `json:"upcoming_events"`
}

type ProfessionalDashboard struct {
	PendingRequests int64                     `json:"pending_requests"`
	AwaitingPayment int64                     `json:"awaiting_payment"`
	UnreadMessages  int64                     `json:"unread_messages"`
	CompletedJobs   int64                     `json:"completed_jobs"`
	UpcomingEvents  []*ServiceRequestResponse `json:"upcoming_events"`
}
