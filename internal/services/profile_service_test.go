package services

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"eventhire_backend/internal/models"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/internal/storage"
	"eventhire_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newProfileEnv(t *testing.T) (*testEnv, string) {
	t.Helper()
	env := newTestEnv(t)
	dir := t.TempDir()
	fs, err := storage.NewStorage(storage.Config{Type: "local", BasePath: dir, BaseURL: "/files"})
	require.NoError(t, err)
	env.svc.ProfileService = NewProfileService(env.store, fs, UploadConfig{
		MaxSize:      1 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png"},
		MaxPhotoSide: 100,
	}, env.svc.AuthService)
	return env, dir
}

func TestProfile_UpdateProfessional(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pro := env.register(t, "pro@example.com", models.UserRoleProfessional)

	name, rate := "DJ Nova", int64(15000)
	category := models.CategoryDJ
	resp, err := env.svc.ProfileService.UpdateProfile(ctx, pro, models.UserRoleProfessional, &dto.UpdateProfileRequest{
		DisplayName: &name,
		HourlyRate:  &rate,
		Category:    &category,
		Services:    []string{" weddings ", "", "corporate"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Professional)
	assert.Equal(t, "DJ Nova", resp.Professional.DisplayName)
	assert.Equal(t, int64(15000), resp.Professional.HourlyRate)
	assert.Equal(t, []string{"weddings", "corporate"}, resp.Professional.Services)
}

func TestProfile_UploadPhotoScalesDown(t *testing.T) {
	env, dir := newProfileEnv(t)
	ctx := context.Background()
	pro := env.register(t, "pro@example.com", models.UserRoleProfessional)

	data := pngBytes(t, 400, 200)
	resp, err := env.svc.ProfileService.UploadPhoto(ctx, pro, &dto.PhotoUpload{
		Filename: "me.png",
		Size:     int64(len(data)),
		Reader:   bytes.NewReader(data),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.PhotoURL, "/files/professionals/"+pro+"/"))

	key := strings.TrimPrefix(resp.PhotoURL, "/files/")
	stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestProfile_UploadPhotoRejects(t *testing.T) {
	env, _ := newProfileEnv(t)
	ctx := context.Background()
	pro := env.register(t, "pro@example.com", models.UserRoleProfessional)
	org := env.register(t, "org@example.com", models.UserRoleOrganizer)

	text := []byte("definitely not an image")
	_, err := env.svc.ProfileService.UploadPhoto(ctx, pro, &dto.PhotoUpload{Filename: "x.png", Size: int64(len(text)), Reader: bytes.NewReader(text)})
	assert.ErrorIs(t, err, apperrors.ErrInvalidFileType)

	_, err = env.svc.ProfileService.UploadPhoto(ctx, pro, &dto.PhotoUpload{Filename: "big.png", Size: 2 << 20, Reader: bytes.NewReader(nil)})
	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)

	huge := pngBytes(t, 10, 10)
	binary.BigEndian.PutUint32(huge[16:20], 30000)
	binary.BigEndian.PutUint32(huge[20:24], 30000)
	binary.BigEndian.PutUint32(huge[29:33], crc32.ChecksumIEEE(huge[12:29]))
	_, err = env.svc.ProfileService.UploadPhoto(ctx, pro, &dto.PhotoUpload{Filename: "huge.png", Size: int64(len(huge)), Reader: bytes.NewReader(huge)})
	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)

	data := pngBytes(t, 10, 10)
	_, err = env.svc.ProfileService.UploadPhoto(ctx, org, &dto.PhotoUpload{Filename: "org.png", Size: int64(len(data)), Reader: bytes.NewReader(data)})
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)
}

func TestDirectory_HiddenProfilesAndLegacyFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	pro := env.register(t, "pro@example.com", models.UserRoleProfessional)
	viewer := env.register(t, "org@example.com", models.UserRoleOrganizer)

	hidden := false
	_, err := env.svc.ProfileService.UpdateProfile(ctx, pro, models.UserRoleProfessional, &dto.UpdateProfileRequest{IsPublic: &hidden})
	require.NoError(t, err)

	_, err = env.svc.DirectoryService.GetProfessional(ctx, pro, viewer, models.UserRoleOrganizer)
	assert.ErrorIs(t, err, apperrors.ErrProfileNotPublic)
	_, err = env.svc.DirectoryService.GetProfessional(ctx, pro, pro, models.UserRoleProfessional)
	assert.NoError(t, err)

	legacyStore, _ := repositories.NewInMemoryStore()
	_, err = repositories.SeedProfessionals(ctx, legacyStore, []repositories.SeedProfessional{
		{Email: "legacy@example.com", DisplayName: "Legacy Florist", Category: "florist", City: "Porto", HourlyRate: 9000},
	})
	require.NoError(t, err)
	dir := NewDirectoryService(env.store.Profiles, legacyStore.Profiles)

	page, err := dir.Search(ctx, &dto.ProfessionalSearchQuery{City: "Porto"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	items := page.Data.([]*dto.ProfessionalProfileResponse)
	assert.Equal(t, "Legacy Florist", items[0].DisplayName)

	lo, hi := int64(500), int64(100)
	_, err = dir.Search(ctx, &dto.ProfessionalSearchQuery{MinRate: &lo, MaxRate: &hi})
	assertCode(t, err, apperrors.CodeValidationFailed)
}

func TestFeedback_SubmitAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org := env.register(t, "org@example.com", models.UserRoleOrganizer)

	anon, err := env.svc.FeedbackService.Submit(ctx, "", "curl/8", &dto.CreateFeedbackRequest{
		Sentiment: models.SentimentNegative,
		Message:   "  Search is slow ",
		Context:   map[string]interface{}{"path": "/search"},
	})
	require.NoError(t, err)
	assert.Nil(t, anon.UserID)
	assert.Equal(t, "Search is slow", anon.Message)

	mine, err := env.svc.FeedbackService.Submit(ctx, org, "", &dto.CreateFeedbackRequest{Sentiment: models.SentimentPositive, Message: "Love it"})
	require.NoError(t, err)
	require.NotNil(t, mine.UserID)
	assert.Equal(t, "org@example.com", mine.Email)

	page, err := env.svc.FeedbackService.List(ctx, &dto.FeedbackListQuery{Sentiment: models.SentimentPositive})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestDashboard_ProfessionalCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	org, pro := env.pair(t)
	env.createRequest(t, org, pro)

	dash, err := env.svc.DashboardService.Get(ctx, pro, models.UserRoleProfessional)
	require.NoError(t, err)
	require.NotNil(t, dash.Professional)
	assert.Equal(t, int64(1), dash.Professional.PendingRequests)

	orgDash, err := env.svc.DashboardService.Get(ctx, org, models.UserRoleOrganizer)
	require.NoError(t, err)
	require.NotNil(t, orgDash.Organizer)
	assert.Equal(t, int64(1), orgDash.Organizer.RequestsByStatus[models.RequestStatusPending])
	assert.Empty(t, orgDash.Organizer.UpcomingEvents, "only paid requests are upcoming")

	_, err = env.svc.DashboardService.Get(ctx, org, models.UserRoleAdmin)
	assert.ErrorIs(t, err, apperrors.ErrInvalidUserRole)
}
