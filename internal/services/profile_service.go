package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"eventhire_backend/internal/imageprocessor"
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/internal/storage"
	"eventhire_backend/pkg/apperrors"

	"github.com/google/uuid"
)

type ProfileService interface {
	UpdateProfile(ctx context.Context, userID string, role models.UserRole, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	UploadPhoto(ctx context.Context, userID string, upload *dto.PhotoUpload) (*dto.ProfessionalProfileResponse, error)
}

type UploadConfig struct {
	MaxSize      int64
	AllowedTypes []string
	// MaxPhotoSide bounds the longest photo edge; larger photos are scaled down.
	MaxPhotoSide int
}

type ProfileServiceImpl struct {
	store   *repositories.Store
	storage storage.Storage
	upload  UploadConfig
	images  *imageprocessor.Processor
	auth    AuthService
}

func NewProfileService(
	store *repositories.Store,
	fileStorage storage.Storage,
	upload UploadConfig,
	authService AuthService,
) ProfileService {
	return &ProfileServiceImpl{
		store:   store,
		storage: fileStorage,
		upload:  upload,
		images:  imageprocessor.NewProcessor(upload.MaxPhotoSide, 85),
		auth:    authService,
	}
}

func (s *ProfileServiceImpl) UpdateProfile(ctx context.Context, userID string, role models.UserRole, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	var err error
	switch role {
	case models.UserRoleProfessional:
		err = s.updateProfessional(ctx, userID, req)
	case models.UserRoleOrganizer:
		err = s.updateOrganizer(ctx, userID, req)
	default:
		return nil, apperrors.ErrInvalidUserRole
	}
	if err != nil {
		return nil, err
	}
	return s.auth.Me(ctx, userID)
}

func (s *ProfileServiceImpl) updateProfessional(ctx context.Context, userID string, req *dto.UpdateProfileRequest) error {
	p, err := s.store.Profiles.FindProfessionalByUserID(ctx, userID)
	if err != nil {
		return mapProfileError(err)
	}

	applyString(&p.DisplayName, req.DisplayName)
	applyString(&p.City, req.City)
	applyString(&p.Bio, req.Bio)
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Services != nil {
		services := make([]string, 0, len(req.Services))
		for _, svc := range req.Services {
			if svc = strings.TrimSpace(svc); svc != "" {
				services = append(services, svc)
			}
		}
		p.Services = services
	}
	if req.HourlyRate != nil {
		p.HourlyRate = *req.HourlyRate
	}
	if req.MinBookingHours != nil {
		p.MinBookingHours = *req.MinBookingHours
	}
	if req.IsPublic != nil {
		p.IsPublic = *req.IsPublic
	}

	if err := s.store.Profiles.UpdateProfessional(ctx, p); err != nil {
		return mapProfileError(err)
	}
	return nil
}

func (s *ProfileServiceImpl) updateOrganizer(ctx context.Context, userID string, req *dto.UpdateProfileRequest) error {
	p, err := s.store.Profiles.FindOrganizerByUserID(ctx, userID)
	if err != nil {
		return mapProfileError(err)
	}

	applyString(&p.DisplayName, req.DisplayName)
	applyString(&p.City, req.City)
	applyString(&p.Bio, req.Bio)
	applyString(&p.CompanyName, req.CompanyName)
	applyString(&p.Phone, req.Phone)

	if err := s.store.Profiles.UpdateOrganizer(ctx, p); err != nil {
		return mapProfileError(err)
	}
	return nil
}

// UploadPhoto stores a new professional photo and removes the previous one.
// The content type is sniffed from the data, not taken from the client.
func (s *ProfileServiceImpl) UploadPhoto(ctx context.Context, userID string, upload *dto.PhotoUpload) (*dto.ProfessionalProfileResponse, error) {
	if s.upload.MaxSize > 0 && upload.Size > s.upload.MaxSize {
		return nil, apperrors.ErrFileTooLarge
	}

	p, err := s.store.Profiles.FindProfessionalByUserID(ctx, userID)
	if err != nil {
		return nil, mapProfileError(err)
	}

	limit := s.upload.MaxSize
	if limit <= 0 {
		limit = upload.Size
	}
	data, err := io.ReadAll(io.LimitReader(upload.Reader, limit+1))
	if err != nil {
		return nil, apperrors.NewBadRequestError("Failed to read uploaded file")
	}
	if len(data) == 0 {
		return nil, apperrors.NewBadRequestError("Uploaded file is empty")
	}
	if int64(len(data)) > limit {
		return nil, apperrors.ErrFileTooLarge
	}
	contentType := http.DetectContentType(data)
	if !s.allowedType(contentType) {
		return nil, apperrors.ErrInvalidFileType.WithDetails(map[string]string{"content_type": contentType})
	}

	photo, err := s.images.Fit(data, contentType)
	switch {
	case errors.Is(err, imageprocessor.ErrUnsupportedFormat):
		photo = &imageprocessor.Result{Data: data, ContentType: contentType}
	case errors.Is(err, imageprocessor.ErrImageTooLarge):
		return nil, apperrors.ErrFileTooLarge.WithDetails(map[string]string{"reason": "image dimensions are too large"})
	case err != nil:
		return nil, apperrors.ErrInvalidFileType.WithDetails(map[string]string{"reason": "image could not be decoded"})
	}

	key := fmt.Sprintf("professionals/%s/%s%s", userID, uuid.NewString(), extensionFor(photo.ContentType, upload.Filename))
	if err := s.storage.Save(ctx, key, bytes.NewReader(photo.Data), int64(len(photo.Data)), photo.ContentType); err != nil {
		return nil, apperrors.ExternalServiceError(err, "storage", "Failed to store photo")
	}

	oldKey := p.PhotoKey
	p.PhotoKey = key
	p.PhotoURL = s.storage.URL(key)
	if err := s.store.Profiles.UpdateProfessional(ctx, p); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			logger.CtxWithError(ctx, "failed to remove orphaned photo", delErr, "key", key)
		}
		return nil, mapProfileError(err)
	}

	if oldKey != "" {
		if err := s.storage.Delete(ctx, oldKey); err != nil {
			logger.CtxWithError(ctx, "failed to remove previous photo", err, "key", oldKey)
		}
	}
	logger.CtxInfo(ctx, "profile photo updated", "user_id", userID, "key", key)
	return dto.NewProfessionalProfileResponse(p), nil
}

func (s *ProfileServiceImpl) allowedType(contentType string) bool {
	for _, t := range s.upload.AllowedTypes {
		if strings.EqualFold(t, contentType) {
			return true
		}
	}
	return false
}

func extensionFor(contentType, filename string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return strings.ToLower(path.Ext(filename))
}

func applyString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func mapProfileError(err error) error {
	if errors.Is(err, repositories.ErrProfileNotFound) {
		return apperrors.ErrProfileNotFound
	}
	return apperrors.InternalError(err)
}
