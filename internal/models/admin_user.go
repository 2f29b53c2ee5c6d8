package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser represents an account allowed to use the admin surface
type AdminUser struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// AdminLoginResponse is returned by a successful admin login
type AdminLoginResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int64      `json:"expires_in"`
	AdminUser    *AdminUser `json:"admin_user"`
}

// AdminRefreshToken is a stored refresh token. Only the SHA-256 hash of the token is kept.
type AdminRefreshToken struct {
	ID          uuid.UUID  `db:"id"`
	AdminUserID uuid.UUID  `db:"admin_user_id"`
	TokenHash   string     `db:"token_hash"`
	IPAddress   *string    `db:"ip_address"`
	UserAgent   *string    `db:"user_agent"`
	CreatedAt   time.Time  `db:"created_at"`
	ExpiresAt   time.Time  `db:"expires_at"`
	LastUsedAt  *time.Time `db:"last_used_at"`
	Revoked     bool       `db:"revoked"`
	RevokedAt   *time.Time `db:"revoked_at"`
}

// IsUsable reports whether the token is neither revoked nor expired at now
func (t *AdminRefreshToken) IsUsable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
