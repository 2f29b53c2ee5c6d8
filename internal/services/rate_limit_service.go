package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/orgdesk/room-scheduler/internal/database"
)

// RateLimitService limits anonymous booking requests per client IP
type RateLimitService struct {
	db     database.DB
	config RateLimitConfig
	now    func() time.Time
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxIPRequests int           // Max public bookings per IP; zero disables the limit
	IPWindow      time.Duration // Time window for the IP limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxIPRequests: 10,
		IPWindow:      1 * time.Hour,
	}
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, config RateLimitConfig) *RateLimitService {
	return &RateLimitService{
		db:     db,
		config: config,
		now:    time.Now,
	}
}

// CheckBookingRateLimit returns a *RateLimitError when ip has used up its window
func (s *RateLimitService) CheckBookingRateLimit(ctx context.Context, ip string) error {
	if ip == "" || s.config.MaxIPRequests <= 0 {
		return nil
	}

	count, oldestRequest, err := s.getRequestCount(ctx, ip, "ip", s.config.IPWindow)
	if err != nil {
		return fmt.Errorf("failed to check IP rate limit: %w", err)
	}

	if count >= s.config.MaxIPRequests {
		// A slot frees up once the oldest request in the window ages out
		retryAfter := oldestRequest.Add(s.config.IPWindow)
		return &RateLimitError{
			Message:    fmt.Sprintf("Too many booking requests from this IP address. Please try again after %s", retryAfter.Format("15:04:05")),
			RetryAfter: retryAfter,
			Type:       "ip",
		}
	}
	return nil
}

// RecordBookingRequest records a booking attempt for rate limiting
func (s *RateLimitService) RecordBookingRequest(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}
	query := `
		INSERT INTO booking_rate_limits (identifier, identifier_type, created_at)
		VALUES ($1, $2, NOW())
	`
	if _, err := s.db.ExecContext(ctx, query, ip, "ip"); err != nil {
		return fmt.Errorf("failed to record IP request: %w", err)
	}
	return nil
}

// getRequestCount gets the number of requests within the time window and the oldest of them
func (s *RateLimitService) getRequestCount(ctx context.Context, identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	windowStart := s.now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MIN(created_at), NOW())
		FROM booking_rate_limits
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3
	`

	var count int
	var oldestRequest time.Time
	err := s.db.QueryRowxContext(ctx, query, identifier, identifierType, windowStart).Scan(&count, &oldestRequest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, err
	}
	return count, oldestRequest, nil
}

// CleanupExpiredRateLimits removes records older than the window
func (s *RateLimitService) CleanupExpiredRateLimits(ctx context.Context) (int64, error) {
	cutoffTime := s.now().Add(-s.config.IPWindow)

	result, err := s.db.ExecContext(ctx, `DELETE FROM booking_rate_limits WHERE created_at < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limits: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
