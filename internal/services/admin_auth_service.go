package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/database"
	"github.com/orgdesk/room-scheduler/internal/models"
	"github.com/orgdesk/room-scheduler/pkg/jwt"
	"github.com/orgdesk/room-scheduler/pkg/validator"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// AdminAuthService handles admin authentication business logic
type AdminAuthService struct {
	adminRepo        AdminUserStore
	refreshTokenRepo RefreshTokenStore
	jwtService       *jwt.Service
	auditor          Auditor
	logger           *logrus.Logger
	bcryptCost       int
	emails           *validator.EmailValidator
}

// NewAdminAuthService creates a new admin auth service
func NewAdminAuthService(
	adminRepo AdminUserStore,
	refreshTokenRepo RefreshTokenStore,
	jwtService *jwt.Service,
	auditor Auditor,
	logger *logrus.Logger,
	bcryptCost int,
) *AdminAuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AdminAuthService{
		adminRepo:        adminRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtService:       jwtService,
		auditor:          auditor,
		logger:           logger,
		bcryptCost:       bcryptCost,
		emails:           validator.NewEmailValidator(),
	}
}

// Login authenticates an admin user and returns tokens.
// Unknown e-mail, inactive account and wrong password all yield ErrInvalidCredentials.
func (s *AdminAuthService) Login(ctx context.Context, actor Actor, email, password string) (*models.AdminLoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
		s.loginFailed(ctx, actor, email, "unknown_email", nil)
		return nil, ErrInvalidCredentials
	}

	if !admin.IsActive {
		s.loginFailed(ctx, actor, email, "inactive", &admin.ID)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.loginFailed(ctx, actor, email, "wrong_password", &admin.ID)
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issueTokens(ctx, actor, admin)
	if err != nil {
		return nil, err
	}

	if err := s.adminRepo.UpdateLastLogin(ctx, admin.ID); err != nil {
		s.logger.WithError(err).WithField("admin_id", admin.ID).Warn("Failed to update last login")
	}

	s.logger.WithFields(logrus.Fields{"admin_id": admin.ID, "ip": actor.IPAddress}).Info("Admin logged in")
	actor.UserID = &admin.ID
	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionAdminLogin,
		EntityType: EntityAdmin,
		EntityID:   &admin.ID,
	})
	return resp, nil
}

func (s *AdminAuthService) loginFailed(ctx context.Context, actor Actor, email, reason string, adminID *uuid.UUID) {
	s.logger.WithFields(logrus.Fields{"email": email, "reason": reason, "ip": actor.IPAddress}).Warn("Admin login failed")
	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionAdminLoginFailed,
		EntityType: EntityAdmin,
		EntityID:   adminID,
		Details:    map[string]interface{}{"email": email, "reason": reason},
	})
}

func (s *AdminAuthService) issueTokens(ctx context.Context, actor Actor, admin *models.AdminUser) (*models.AdminLoginResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(admin.ID, admin.Email, []string{jwt.RoleAdmin})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(admin.ID, admin.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.jwtService.RefreshTokenExpiry())
	if err := s.refreshTokenRepo.Store(ctx, admin.ID, refreshToken, actor.IPAddress, actor.UserAgent, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &models.AdminLoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		AdminUser:    admin,
	}, nil
}

// RefreshToken exchanges a refresh token for a new token pair. The presented token is revoked.
func (s *AdminAuthService) RefreshToken(ctx context.Context, actor Actor, refreshToken string) (*models.AdminLoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", ErrNotAuthenticated)
	}

	stored, err := s.refreshTokenRepo.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("refresh token not found: %w", ErrNotAuthenticated)
		}
		return nil, err
	}
	if !stored.IsUsable(time.Now()) {
		return nil, fmt.Errorf("refresh token revoked or expired: %w", ErrNotAuthenticated)
	}

	admin, err := s.activeAdmin(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.refreshTokenRepo.Revoke(ctx, refreshToken); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// lost a race with a concurrent refresh or logout
			return nil, fmt.Errorf("refresh token revoked: %w", ErrNotAuthenticated)
		}
		return nil, err
	}

	return s.issueTokens(ctx, actor, admin)
}

// Logout revokes the refresh token. Unknown or already revoked tokens are ignored.
func (s *AdminAuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.Revoke(ctx, refreshToken); err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	return nil
}

// EnsureActive returns ErrUserNotFound unless id names an active admin
func (s *AdminAuthService) EnsureActive(ctx context.Context, id uuid.UUID) error {
	_, err := s.activeAdmin(ctx, id)
	return err
}

func (s *AdminAuthService) activeAdmin(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	admin, err := s.adminRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !admin.IsActive {
		return nil, ErrUserNotFound
	}
	return admin, nil
}

// GetAdminProfile returns the acting admin's account
func (s *AdminAuthService) GetAdminProfile(ctx context.Context, actor Actor) (*models.AdminUser, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.activeAdmin(ctx, *actor.UserID)
}

// ChangePassword changes the acting admin's password and revokes their refresh tokens
func (s *AdminAuthService) ChangePassword(ctx context.Context, actor Actor, oldPassword, newPassword string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	admin, err := s.activeAdmin(ctx, *actor.UserID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(oldPassword)); err != nil {
		return newValidationError("current_password", "current password is incorrect")
	}
	if len(newPassword) < minPasswordLength {
		return newValidationError("new_password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.adminRepo.UpdatePassword(ctx, admin.ID, string(hashedPassword)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.refreshTokenRepo.RevokeAllForAdmin(ctx, admin.ID); err != nil {
		s.logger.WithError(err).WithField("admin_id", admin.ID).Warn("Failed to revoke refresh tokens after password change")
	}

	s.auditor.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     ActionAdminPasswordChanged,
		EntityType: EntityAdmin,
		EntityID:   &admin.ID,
	})
	return nil
}

// CreateAdmin creates a new admin user
func (s *AdminAuthService) CreateAdmin(ctx context.Context, email, password, fullName string) (*models.AdminUser, error) {
	verr := &ValidationError{}
	normalized, err := s.emails.Validate(email)
	if err != nil {
		verr.Add("email", err.Error())
	}
	if len(password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.AdminUser{
		Email:        normalized,
		PasswordHash: string(hashedPassword),
		FullName:     strings.TrimSpace(fullName),
		IsActive:     true,
	}

	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, newValidationError("email", "an admin with this email already exists")
		}
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	s.logger.WithField("admin_id", admin.ID).Info("Admin user created")
	return admin, nil
}
