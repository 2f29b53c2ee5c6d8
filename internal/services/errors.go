package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/orgdesk/room-scheduler/internal/database"
	"github.com/orgdesk/room-scheduler/internal/scheduling"
)

var (
	// ErrNotAuthenticated means an admin-only operation ran without an identity
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUserNotFound means the identity no longer resolves to an active admin
	ErrUserNotFound = errors.New("user not found")
	// ErrNotFound means a referenced room, reservation or block does not exist
	ErrNotFound = errors.New("not found")
	// ErrSlotConflict is wrapped by every booking conflict
	ErrSlotConflict = scheduling.ErrConflict
	// ErrInvalidCredentials is returned by admin login for any credential mismatch
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports input that failed validation, keyed by field name
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a field failure
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// OrNil returns e when it holds failures, nil otherwise
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func newValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// ErrorKind classifies errors for the HTTP layer
type ErrorKind string

const (
	KindNotAuthenticated ErrorKind = "not_authenticated"
	KindNotFound         ErrorKind = "not_found"
	KindValidation       ErrorKind = "validation_failed"
	KindConflict         ErrorKind = "slot_conflict"
	KindRateLimited      ErrorKind = "rate_limited"
	KindApplication      ErrorKind = "application_failure"
)

// KindOf classifies err. Anything unrecognised is an application failure.
func KindOf(err error) ErrorKind {
	var validation *ValidationError
	var rateLimit *RateLimitError
	switch {
	case errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidCredentials):
		return KindNotAuthenticated
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrSlotConflict):
		return KindConflict
	case errors.As(err, &rateLimit):
		return KindRateLimited
	case errors.As(err, &validation):
		return KindValidation
	default:
		return KindApplication
	}
}

// notFound maps repository misses onto ErrNotFound and passes other errors through
func notFound(entity string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return entityNotFound(entity)
	}
	return err
}

func entityNotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}
