package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"eventhire_backend/internal/auth"
	"eventhire_backend/internal/events"
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/pkg/apperrors"
)

const (
	defaultRefreshTTL = 7 * 24 * time.Hour
	passwordResetTTL  = time.Hour
	tokenBytes        = 32
)

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *dto.PasswordResetConfirm) error
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type AuthConfig struct {
	RefreshTTL           time.Duration
	RequireVerifiedEmail bool
}

type AuthServiceImpl struct {
	store     *repositories.Store
	tokens    *auth.TokenManager
	publisher events.Publisher
	cfg       AuthConfig
	now       func() time.Time
}

func NewAuthService(
	store *repositories.Store,
	tokens *auth.TokenManager,
	publisher events.Publisher,
	cfg AuthConfig,
) AuthService {
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &AuthServiceImpl{
		store:     store,
		tokens:    tokens,
		publisher: publisher,
		cfg:       cfg,
		now:       utcNow,
	}
}

// Register creates the user and the empty profile for its role in one
// transaction, then announces the account so a verification email goes out.
func (s *AuthServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ErrWeakPassword
	}
	if req.Role != models.UserRoleOrganizer && req.Role != models.UserRoleProfessional {
		return nil, apperrors.ErrInvalidUserRole
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	verificationToken, err := auth.RandomToken(tokenBytes)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:             normalizeEmail(req.Email),
		PasswordHash:      hash,
		Role:              req.Role,
		Status:            models.UserStatusPending,
		VerificationToken: verificationToken,
	}

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.Users.Create(ctx, user); err != nil {
			return err
		}
		return s.createProfile(ctx, user, req)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	s.publish(ctx, events.UserRegistered, events.UserPayload{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        string(user.Role),
		DisplayName: req.DisplayName,
		Token:       verificationToken,
	})

	return s.buildUserResponse(ctx, user)
}

func (s *AuthServiceImpl) createProfile(ctx context.Context, user *models.User, req *dto.RegisterRequest) error {
	switch user.Role {
	case models.UserRoleProfessional:
		category := req.Category
		if category == "" {
			category = models.CategoryOther
		}
		return s.store.Profiles.CreateProfessional(ctx, &models.ProfessionalProfile{
			UserID:      user.ID,
			DisplayName: strings.TrimSpace(req.DisplayName),
			Category:    category,
			City:        strings.TrimSpace(req.City),
			IsPublic:    true,
		})
	case models.UserRoleOrganizer:
		return s.store.Profiles.CreateOrganizer(ctx, &models.OrganizerProfile{
			UserID:      user.ID,
			DisplayName: strings.TrimSpace(req.DisplayName),
			CompanyName: strings.TrimSpace(req.CompanyName),
			City:        strings.TrimSpace(req.City),
		})
	}
	return nil
}

func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.store.Users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.InternalError(err)
	}

	user.IsVerified = true
	user.VerificationToken = ""
	if user.Status == models.UserStatusPending {
		user.Status = models.UserStatusActive
	}
	if err := s.store.Users.Update(ctx, user); err != nil {
		return apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "email verified", "user_id", user.ID)
	return nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.store.Users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.CtxWarn(ctx, "failed login attempt", "user_id", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := s.checkUserStatus(user); err != nil {
		return nil, err
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.store.Users.Update(ctx, user); err != nil {
		logger.CtxWithError(ctx, "failed to record last login", err, "user_id", user.ID)
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token: the presented one is deleted and a new
// pair is issued. A token can only be redeemed once.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	token, err := s.store.RefreshTokens.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	if token.Expired(s.now()) {
		if err := s.store.RefreshTokens.DeleteByToken(ctx, refreshToken); err != nil && !errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			logger.CtxWithError(ctx, "failed to delete expired refresh token", err)
		}
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.store.Users.FindByID(ctx, token.UserID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	if err := s.checkUserStatus(user); err != nil {
		return nil, err
	}

	if err := s.store.RefreshTokens.DeleteByToken(ctx, refreshToken); err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.InternalError(err)
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes the access token until it expires and drops the refresh
// token if one was presented.
func (s *AuthServiceImpl) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		if err := s.tokens.Revoke(ctx, accessToken); err != nil && !errors.Is(err, auth.ErrInvalidToken) {
			return apperrors.InternalError(err)
		}
	}
	if refreshToken != "" {
		err := s.store.RefreshTokens.DeleteByToken(ctx, refreshToken)
		if err != nil && !errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			return apperrors.InternalError(err)
		}
	}
	return nil
}

// RequestPasswordReset never reveals whether the email is registered.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.store.Users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			logger.CtxDebug(ctx, "password reset for unknown email")
			return nil
		}
		return apperrors.InternalError(err)
	}
	if user.Status == models.UserStatusSuspended {
		return nil
	}

	token, err := auth.RandomToken(tokenBytes)
	if err != nil {
		return apperrors.InternalError(err)
	}
	exp := s.now().Add(passwordResetTTL)
	user.ResetToken = token
	user.ResetTokenExp = &exp
	if err := s.store.Users.Update(ctx, user); err != nil {
		return apperrors.InternalError(err)
	}

	s.publish(ctx, events.PasswordResetRequested, events.UserPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		Token:  token,
	})
	return nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, req *dto.PasswordResetConfirm) error {
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.ErrWeakPassword
	}

	user, err := s.store.Users.FindByResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.InternalError(err)
	}
	if user.ResetTokenExp == nil || s.now().After(*user.ResetTokenExp) {
		return apperrors.ErrInvalidToken
	}

	if err := s.setPassword(ctx, user, req.NewPassword, func(u *models.User) {
		u.ResetToken = ""
		u.ResetTokenExp = nil
	}); err != nil {
		return err
	}
	logger.CtxInfo(ctx, "password reset", "user_id", user.ID)
	return nil
}

func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}
	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.ErrWeakPassword
	}
	return s.setPassword(ctx, user, req.NewPassword, nil)
}

// setPassword stores the new hash, drops every refresh token and revokes
// access tokens issued so far.
func (s *AuthServiceImpl) setPassword(ctx context.Context, user *models.User, password string, mutate func(*models.User)) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return apperrors.InternalError(err)
	}
	user.PasswordHash = hash
	if mutate != nil {
		mutate(user)
	}

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.store.Users.Update(ctx, user); err != nil {
			return err
		}
		return s.store.RefreshTokens.DeleteByUserID(ctx, user.ID)
	})
	if err != nil {
		return apperrors.InternalError(err)
	}

	if err := s.tokens.RevokeUser(ctx, user.ID); err != nil {
		logger.CtxWithError(ctx, "failed to revoke access tokens", err, "user_id", user.ID)
	}
	return nil
}

func (s *AuthServiceImpl) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return s.buildUserResponse(ctx, user)
}

func (s *AuthServiceImpl) checkUserStatus(user *models.User) error {
	if user.Status == models.UserStatusSuspended {
		return apperrors.ErrUserSuspended
	}
	if s.cfg.RequireVerifiedEmail && !user.IsVerified && user.Role != models.UserRoleAdmin {
		return apperrors.ErrUserNotVerified
	}
	return nil
}

func (s *AuthServiceImpl) issueTokens(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	access, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	refresh, err := auth.RandomToken(tokenBytes)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.store.RefreshTokens.Create(ctx, &models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: s.now().Add(s.cfg.RefreshTTL),
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	userResp, err := s.buildUserResponse(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    expiresAt,
		User:         userResp,
	}, nil
}

func (s *AuthServiceImpl) buildUserResponse(ctx context.Context, user *models.User) (*dto.UserResponse, error) {
	resp := dto.NewUserResponse(user)
	switch user.Role {
	case models.UserRoleProfessional:
		p, err := s.store.Profiles.FindProfessionalByUserID(ctx, user.ID)
		if err == nil {
			resp.Professional = dto.NewProfessionalProfileResponse(p)
		} else if !errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, apperrors.InternalError(err)
		}
	case models.UserRoleOrganizer:
		p, err := s.store.Profiles.FindOrganizerByUserID(ctx, user.ID)
		if err == nil {
			resp.Organizer = dto.NewOrganizerProfileResponse(p)
		} else if !errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, apperrors.InternalError(err)
		}
	}
	return resp, nil
}

func (s *AuthServiceImpl) publish(ctx context.Context, t events.Type, payload any) {
	publishEvent(ctx, s.publisher, t, payload)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
