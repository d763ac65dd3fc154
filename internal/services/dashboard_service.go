package services

import (
	"context"
	"time"

	"eventhire_backend/internal/models"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/pkg/apperrors"

	"golang.org/x/sync/errgroup"
)

const upcomingEventsLimit = 5

type DashboardService interface {
	Get(ctx context.Context, userID string, role models.UserRole) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	store *repositories.Store
	now   func() time.Time
}

func NewDashboardService(store *repositories.Store) DashboardService {
	return &dashboardService{store: store, now: utcNow}
}

func (s *dashboardService) Get(ctx context.Context, userID string, role models.UserRole) (*dto.DashboardResponse, error) {
	var err error
	resp := &dto.DashboardResponse{Role: role}
	switch role {
	case models.UserRoleOrganizer:
		resp.Organizer, err = s.organizer(ctx, userID)
	case models.UserRoleProfessional:
		resp.Professional, err = s.professional(ctx, userID)
	default:
		return nil, apperrors.ErrInvalidUserRole
	}
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return resp, nil
}

func (s *dashboardService) organizer(ctx context.Context, userID string) (*dto.OrganizerDashboard, error) {
	out := &dto.OrganizerDashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.store.ServiceRequests.CountByStatus(gctx, repositories.ServiceRequestFilter{OrganizerID: userID})
		out.RequestsByStatus = counts
		return err
	})
	g.Go(func() error {
		n, err := s.store.Conversations.CountUnread(gctx, userID)
		out.UnreadMessages = n
		return err
	})
	g.Go(func() error {
		items, err := s.upcoming(gctx, repositories.ServiceRequestFilter{OrganizerID: userID})
		out.UpcomingEvents = items
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.RequestsByStatus == nil {
		out.RequestsByStatus = map[models.ServiceRequestStatus]int64{}
	}
	return out, nil
}

func (s *dashboardService) professional(ctx context.Context, userID string) (*dto.ProfessionalDashboard, error) {
	out := &dto.ProfessionalDashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := s.store.ServiceRequests.CountByStatus(gctx, repositories.ServiceRequestFilter{ProfessionalID: userID})
		if err != nil {
			return err
		}
		out.PendingRequests = counts[models.RequestStatusPending]
		out.AwaitingPayment = counts[models.RequestStatusAccepted]
		out.CompletedJobs = counts[models.RequestStatusCompleted]
		return nil
	})
	g.Go(func() error {
		n, err := s.store.Conversations.CountUnread(gctx, userID)
		out.UnreadMessages = n
		return err
	})
	g.Go(func() error {
		items, err := s.upcoming(gctx, repositories.ServiceRequestFilter{ProfessionalID: userID})
		out.UpcomingEvents = items
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// upcoming lists paid requests whose event has not happened yet.
func (s *dashboardService) upcoming(ctx context.Context, filter repositories.ServiceRequestFilter) ([]*dto.ServiceRequestResponse, error) {
	now := s.now()
	filter.Status = models.RequestStatusPaid
	filter.EventAfter = &now
	filter.Page = repositories.Page{Page: 1, PageSize: upcomingEventsLimit}
	items, _, err := s.store.ServiceRequests.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewServiceRequestList(items), nil
}
