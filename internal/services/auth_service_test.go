package services

import (
	"context"
	"testing"

	"eventhire_backend/internal/events"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterCreatesProfileAndAnnounces(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.svc.AuthService.Register(ctx, &dto.RegisterRequest{
		Email:       "  Chef@Example.com ",
		Password:    "Sup3rSecret!",
		Role:        models.UserRoleProfessional,
		DisplayName: "Chef Ana",
		Category:    models.CategoryCaterer,
	})
	require.NoError(t, err)
	assert.Equal(t, "chef@example.com", user.Email)
	assert.Equal(t, models.UserStatusPending, user.Status)
	assert.False(t, user.IsVerified)
	require.NotNil(t, user.Professional)
	assert.Equal(t, "Chef Ana", user.Professional.DisplayName)
	assert.Equal(t, models.CategoryCaterer, user.Professional.Category)

	ev, ok := env.publisher.last(events.UserRegistered)
	require.True(t, ok)
	var payload events.UserPayload
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, user.ID, payload.UserID)
	assert.NotEmpty(t, payload.Token)

	_, err = env.svc.AuthService.Register(ctx, &dto.RegisterRequest{
		Email:       "chef@example.com",
		Password:    "Sup3rSecret!",
		Role:        models.UserRoleOrganizer,
		DisplayName: "Copycat",
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestAuth_RegisterRejectsWeakPasswordAndAdminRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.AuthService.Register(ctx, &dto.RegisterRequest{
		Email: "a@example.com", Password: "onlyletters", Role: models.UserRoleOrganizer, DisplayName: "A",
	})
	assert.ErrorIs(t, err, apperrors.ErrWeakPassword)

	_, err = env.svc.AuthService.Register(ctx, &dto.RegisterRequest{
		Email: "b@example.com", Password: "Sup3rSecret!", Role: models.UserRoleAdmin, DisplayName: "B",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidUserRole)
}

func TestAuth_VerifyEmailActivatesUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "org@example.com", models.UserRoleOrganizer)

	stored, err := env.store.Users.FindByID(ctx, id)
	require.NoError(t, err)
	token := stored.VerificationToken
	require.NotEmpty(t, token)

	require.NoError(t, env.svc.AuthService.VerifyEmail(ctx, token))
	me, err := env.svc.AuthService.Me(ctx, id)
	require.NoError(t, err)
	assert.True(t, me.IsVerified)
	assert.Equal(t, models.UserStatusActive, me.Status)

	assert.ErrorIs(t, env.svc.AuthService.VerifyEmail(ctx, token), apperrors.ErrInvalidToken)
}

func TestAuth_LoginRefreshLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "org@example.com", models.UserRoleOrganizer)

	_, err := env.svc.AuthService.Login(ctx, &dto.LoginRequest{Email: "org@example.com", Password: "wrong-pass1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	resp, err := env.svc.AuthService.Login(ctx, &dto.LoginRequest{Email: "ORG@example.com", Password: "Sup3rSecret!"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, id, resp.User.ID)

	claims, err := env.tokens.Validate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID())
	assert.Equal(t, models.UserRoleOrganizer, claims.Role)

	rotated, err := env.svc.AuthService.Refresh(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, rotated.RefreshToken)

	_, err = env.svc.AuthService.Refresh(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "a refresh token is single use")

	require.NoError(t, env.svc.AuthService.Logout(ctx, rotated.AccessToken, rotated.RefreshToken))
	_, err = env.tokens.Validate(ctx, rotated.AccessToken)
	assert.Error(t, err)
	_, err = env.svc.AuthService.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestAuth_RequireVerifiedEmail(t *testing.T) {
	env := newTestEnv(t)
	env.svc.AuthService.(*AuthServiceImpl).cfg.RequireVerifiedEmail = true
	env.register(t, "org@example.com", models.UserRoleOrganizer)

	_, err := env.svc.AuthService.Login(context.Background(), &dto.LoginRequest{Email: "org@example.com", Password: "Sup3rSecret!"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotVerified)
}

func TestAuth_PasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "pro@example.com", models.UserRoleProfessional)

	login, err := env.svc.AuthService.Login(ctx, &dto.LoginRequest{Email: "pro@example.com", Password: "Sup3rSecret!"})
	require.NoError(t, err)

	require.NoError(t, env.svc.AuthService.RequestPasswordReset(ctx, "nobody@example.com"))
	require.NoError(t, env.svc.AuthService.RequestPasswordReset(ctx, "pro@example.com"))

	ev, ok := env.publisher.last(events.PasswordResetRequested)
	require.True(t, ok)
	var payload events.UserPayload
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, id, payload.UserID)

	err = env.svc.AuthService.ResetPassword(ctx, &dto.PasswordResetConfirm{Token: "bogus", NewPassword: "N3wSecret!!"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	require.NoError(t, env.svc.AuthService.ResetPassword(ctx, &dto.PasswordResetConfirm{Token: payload.Token, NewPassword: "N3wSecret!!"}))

	_, err = env.svc.AuthService.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "reset drops refresh tokens")

	_, err = env.svc.AuthService.Login(ctx, &dto.LoginRequest{Email: "pro@example.com", Password: "Sup3rSecret!"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = env.svc.AuthService.Login(ctx, &dto.LoginRequest{Email: "pro@example.com", Password: "N3wSecret!!"})
	assert.NoError(t, err)
}

func TestAuth_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.register(t, "org@example.com", models.UserRoleOrganizer)

	err := env.svc.AuthService.ChangePassword(ctx, id, &dto.ChangePasswordRequest{CurrentPassword: "nope1234", NewPassword: "N3wSecret!!"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, env.svc.AuthService.ChangePassword(ctx, id, &dto.ChangePasswordRequest{CurrentPassword: "Sup3rSecret!", NewPassword: "N3wSecret!!"}))
	_, err = env.svc.AuthService.Login(ctx, &dto.LoginRequest{Email: "org@example.com", Password: "N3wSecret!!"})
	assert.NoError(t, err)
}
