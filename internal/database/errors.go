package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a unique or exclusion constraint
	ErrConflict = errors.New("record conflicts with existing data")
	// ErrRoomInactive is returned when booking against a deactivated room
	ErrRoomInactive = errors.New("room is not active")
)

// Postgres SQLSTATE codes mapped to ErrConflict
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// translateError maps driver errors onto the package sentinels, keeping the
// original error in the chain
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if isConstraintViolation(err) {
		return &constraintError{err: err}
	}
	return err
}

func isConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation || pqErr.Code == pgExclusionViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation || pgErr.Code == pgExclusionViolation
	}
	return false
}

type constraintError struct {
	err error
}

func (e *constraintError) Error() string {
	return ErrConflict.Error() + ": " + e.err.Error()
}

func (e *constraintError) Is(target error) bool {
	return target == ErrConflict
}

func (e *constraintError) Unwrap() error {
	return e.err
}

// expectOneRow turns a zero-row UPDATE or DELETE into ErrNotFound
func expectOneRow(result sql.Result, entity string, id uuid.UUID) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}
