package handlers

import (
	"net/http"

	"eventhire_backend/internal/services"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// ProfileHandler serves the caller's own profile and the public directory.
type ProfileHandler struct {
	*BaseHandler
	profileService   services.ProfileService
	directoryService services.DirectoryService
	maxUploadSize    int64
}

func NewProfileHandler(base *BaseHandler, profileService services.ProfileService, directoryService services.DirectoryService, maxUploadSize int64) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:      base,
		profileService:   profileService,
		directoryService: directoryService,
		maxUploadSize:    maxUploadSize,
	}
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, role, ok := h.GetUserAndRole(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.profileService.UpdateProfile(c.Request.Context(), userID, role, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UploadPhoto godoc
// @Summary  Upload the professional's profile photo
// @Tags     profile
// @Accept   multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param    file formData file true "Image"
// @Success  200 {object} dto.ProfessionalProfileResponse
// @Router   /api/v1/profile/photo [post]
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if h.maxUploadSize > 0 {
		// multipart overhead on top of the file itself
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+1<<20)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("no file provided"))
		return
	}
	if h.maxUploadSize > 0 && fileHeader.Size > h.maxUploadSize {
		h.HandleServiceError(c, apperrors.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("failed to read uploaded file"))
		return
	}
	defer file.Close()

	profile, err := h.profileService.UploadPhoto(c.Request.Context(), userID, &dto.PhotoUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      file,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// SearchProfessionals godoc
// @Summary  Browse public professionals
// @Tags     professionals
// @Produce  json
// @Param    category  query string false "Category"
// @Param    city      query string false "City"
// @Param    min_rate  query int    false "Minimum hourly rate (minor units)"
// @Param    max_rate  query int    false "Maximum hourly rate (minor units)"
// @Param    q         query string false "Text query"
// @Param    sort      query string false "rating | rate_asc | rate_desc | newest"
// @Param    page      query int    false "Page"
// @Param    page_size query int    false "Page size"
// @Success  200 {object} dto.PaginatedResponse
// @Router   /api/v1/professionals [get]
func (h *ProfileHandler) SearchProfessionals(c *gin.Context) {
	var q dto.ProfessionalSearchQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}
	if q.MinRate != nil && q.MaxRate != nil && *q.MinRate > *q.MaxRate {
		apperrors.HandleError(c, apperrors.NewBadRequestError("min_rate cannot be greater than max_rate"))
		return
	}

	result, err := h.directoryService.Search(c.Request.Context(), &q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ProfileHandler) GetProfessional(c *gin.Context) {
	id, ok := RequireParam(c, "id")
	if !ok {
		return
	}
	viewerID, viewerRole := OptionalUser(c)

	profile, err := h.directoryService.GetProfessional(c.Request.Context(), id, viewerID, viewerRole)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
