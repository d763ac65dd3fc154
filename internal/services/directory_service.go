package services

import (
	"context"
	"errors"

	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/pkg/apperrors"
)

// DirectoryService serves the public professionals directory.
type DirectoryService interface {
	Search(ctx context.Context, q *dto.ProfessionalSearchQuery) (*dto.PaginatedResponse, error)
	GetProfessional(ctx context.Context, userID, viewerID string, viewerRole models.UserRole) (*dto.ProfessionalProfileResponse, error)
}

type directoryService struct {
	profiles repositories.ProfileRepository
	// legacy is the in-memory directory seeded from YAML. It answers when
	// the primary store fails or has nothing to show.
	legacy repositories.ProfileRepository
}

func NewDirectoryService(profiles, legacy repositories.ProfileRepository) DirectoryService {
	return &directoryService{profiles: profiles, legacy: legacy}
}

func (s *directoryService) Search(ctx context.Context, q *dto.ProfessionalSearchQuery) (*dto.PaginatedResponse, error) {
	if q.MinRate != nil && q.MaxRate != nil && *q.MinRate > *q.MaxRate {
		return nil, apperrors.NewBadRequestError("min_rate must not exceed max_rate")
	}

	filter := repositories.ProfessionalFilter{
		Category: q.Category,
		City:     q.City,
		MinRate:  q.MinRate,
		MaxRate:  q.MaxRate,
		Query:    q.Query,
		Sort:     q.Sort,
		Page:     q.ToPage(),
	}

	items, total, err := s.profiles.SearchProfessionals(ctx, filter)
	if err != nil {
		if s.legacy == nil {
			return nil, apperrors.InternalError(err)
		}
		logger.CtxWithError(ctx, "directory search failed, serving legacy directory", err)
		items, total, err = s.legacy.SearchProfessionals(ctx, filter)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
	} else if total == 0 && s.legacy != nil {
		items, total, err = s.legacy.SearchProfessionals(ctx, filter)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	out := make([]*dto.ProfessionalProfileResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewProfessionalProfileResponse(&items[i]))
	}
	return dto.NewPaginatedResponse(out, total, filter.Page), nil
}

// GetProfessional returns a public profile. Hidden profiles are visible to
// their owner and to admins only.
func (s *directoryService) GetProfessional(ctx context.Context, userID, viewerID string, viewerRole models.UserRole) (*dto.ProfessionalProfileResponse, error) {
	p, err := s.profiles.FindProfessionalByUserID(ctx, userID)
	if err != nil && s.legacy != nil && errors.Is(err, repositories.ErrProfileNotFound) {
		p, err = s.legacy.FindProfessionalByUserID(ctx, userID)
	}
	if err != nil {
		return nil, mapProfileError(err)
	}
	if !p.IsPublic && p.UserID != viewerID && viewerRole != models.UserRoleAdmin {
		return nil, apperrors.ErrProfileNotPublic
	}
	return dto.NewProfessionalProfileResponse(p), nil
}
