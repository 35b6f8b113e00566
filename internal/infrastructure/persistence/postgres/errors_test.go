package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/alem-hub/mentoring-hub/internal/domain/shared"
)

func TestErrorHelpers(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsForeignKeyViolation(unique))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsCheckViolation(&pgconn.PgError{Code: "23514"}))
	assert.True(t, IsNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("other")))
}

func TestStorageError(t *testing.T) {
	assert.NoError(t, storageError("report", "Update", nil))

	wrapped := storageError("report", "Update", errors.New("connection reset"))
	assert.True(t, shared.IsConflict(wrapped))
	assert.True(t, shared.IsRetryable(wrapped))

	rejected := storageError("report", "Update", &pgconn.PgError{Code: "23514", ConstraintName: "valid_feedback"})
	assert.True(t, shared.IsValidation(rejected))
	assert.False(t, shared.IsRetryable(rejected))

	// Domain errors pass through untouched.
	assert.Same(t, shared.ErrReportNotFound, storageError("report", "Update", shared.ErrReportNotFound))
}

func TestCreateError(t *testing.T) {
	dup := createError("report", &pgconn.PgError{Code: "23505"}, shared.ErrReportAlreadyExists, "log missing")
	assert.Same(t, shared.ErrReportAlreadyExists, dup)

	dangling := createError("report", &pgconn.PgError{Code: "23503"}, shared.ErrReportAlreadyExists, "log missing")
	assert.True(t, shared.IsNotFound(dangling))
	assert.False(t, shared.IsRetryable(dangling))

	assert.True(t, shared.IsConflict(createError("report", errors.New("timeout"), shared.ErrReportAlreadyExists, "log missing")))
}

func TestNullableColumns(t *testing.T) {
	start, end := meetingColumns(nil)
	assert.Nil(t, start)
	assert.Nil(t, end)
	assert.Nil(t, nullableUUID(""))
	assert.Equal(t, []string{}, imageKeys(nil))
}
