package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewFromSQLX(sqlx.NewDb(sqlDB, "sqlmock")), mock
}

var (
	ruleRowColumns  = []string{"id", "room_id", "day_of_week", "start_time", "end_time", "created_at", "updated_at"}
	blockRowColumns = []string{"id", "room_id", "date", "start_time", "end_time", "reason", "created_by", "created_at"}
	resRowColumns   = []string{
		"id", "room_id", "room_name", "date", "start_time", "end_time",
		"customer_name", "customer_email", "customer_phone", "purpose", "notes",
		"status", "created_by", "created_at", "updated_at",
	}
)
