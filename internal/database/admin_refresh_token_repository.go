package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/orgdesk/room-scheduler/internal/models"
)

const adminRefreshTokenColumns = `
	id, admin_user_id, token_hash, ip_address, user_agent, created_at,
	expires_at, last_used_at, revoked, revoked_at`

// AdminRefreshTokenRepository handles admin refresh token database operations
type AdminRefreshTokenRepository struct {
	db DB
}

// NewAdminRefreshTokenRepository creates a new admin refresh token repository
func NewAdminRefreshTokenRepository(db DB) *AdminRefreshTokenRepository {
	return &AdminRefreshTokenRepository{db: db}
}

// hashAdminToken creates a SHA-256 hash of the token for storage
func hashAdminToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Store saves the hash of an issued refresh token
func (r *AdminRefreshTokenRepository) Store(ctx context.Context, adminUserID uuid.UUID, token, ipAddress, userAgent string, expiresAt time.Time) error {
	query := `
		INSERT INTO admin_refresh_tokens (admin_user_id, token_hash, ip_address, user_agent, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	var ipVal, userAgentVal interface{}
	if ipAddress != "" {
		ipVal = ipAddress
	}
	if userAgent != "" {
		userAgentVal = userAgent
	}

	_, err := r.db.ExecContext(ctx, query, adminUserID, hashAdminToken(token), ipVal, userAgentVal, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store admin refresh token: %w", translateError(err))
	}
	return nil
}

// Get looks a refresh token up by its hash
func (r *AdminRefreshTokenRepository) Get(ctx context.Context, token string) (*models.AdminRefreshToken, error) {
	var stored models.AdminRefreshToken
	query := `SELECT ` + adminRefreshTokenColumns + ` FROM admin_refresh_tokens WHERE token_hash = $1`
	if err := r.db.GetContext(ctx, &stored, query, hashAdminToken(token)); err != nil {
		return nil, fmt.Errorf("failed to get admin refresh token: %w", translateError(err))
	}
	return &stored, nil
}

// Revoke marks one token revoked. Revoking an unknown or already revoked token is ErrNotFound.
func (r *AdminRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	query := `
		UPDATE admin_refresh_tokens
		SET revoked = TRUE, revoked_at = $1
		WHERE token_hash = $2 AND revoked = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), hashAdminToken(token))
	if err != nil {
		return fmt.Errorf("failed to revoke admin token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("admin refresh token: %w", ErrNotFound)
	}
	return nil
}

// RevokeAllForAdmin revokes every live token of an admin, used after a password change
func (r *AdminRefreshTokenRepository) RevokeAllForAdmin(ctx context.Context, adminUserID uuid.UUID) error {
	query := `
		UPDATE admin_refresh_tokens
		SET revoked = TRUE, revoked_at = $1
		WHERE admin_user_id = $2 AND revoked = FALSE
	`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), adminUserID); err != nil {
		return fmt.Errorf("failed to revoke admin user tokens: %w", err)
	}
	return nil
}

// UpdateLastUsed stamps last_used_at
func (r *AdminRefreshTokenRepository) UpdateLastUsed(ctx context.Context, token string) error {
	query := `UPDATE admin_refresh_tokens SET last_used_at = $1 WHERE token_hash = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), hashAdminToken(token)); err != nil {
		return fmt.Errorf("failed to update admin token last used timestamp: %w", err)
	}
	return nil
}

// CleanupExpired removes expired tokens and revoked tokens older than revokedOlderThan
func (r *AdminRefreshTokenRepository) CleanupExpired(ctx context.Context, revokedOlderThan time.Duration) (int64, error) {
	now := time.Now()
	query := `
		DELETE FROM admin_refresh_tokens
		WHERE expires_at < $1 OR (revoked = TRUE AND revoked_at < $2)
	`
	result, err := r.db.ExecContext(ctx, query, now, now.Add(-revokedOlderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup admin refresh tokens: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
