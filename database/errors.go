package database

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/gotasks/errors"
)

const uniqueViolationPrefix = "UNIQUE constraint failed: "

// IsBusyError reports SQLite lock contention that a retry may resolve.
func IsBusyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, p := range []string{"database is locked", "database table is locked", "sqlite_busy"} {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// IsNotFoundError checks if the error is a GORM record-not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError checks if the error is a unique-key violation.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), uniqueViolationPrefix)
}

// DuplicateField extracts the column named by a SQLite unique violation,
// e.g. "username" from "UNIQUE constraint failed: users.username".
func DuplicateField(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	i := strings.Index(msg, uniqueViolationPrefix)
	if i < 0 {
		return ""
	}
	col := msg[i+len(uniqueViolationPrefix):]
	if j := strings.IndexAny(col, ", "); j >= 0 {
		col = col[:j]
	}
	if k := strings.LastIndex(col, "."); k >= 0 {
		col = col[k+1:]
	}
	return col
}

// FromDatabase converts a database error to an AppError.
func FromDatabase(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if IsNotFoundError(err) {
		return apperrors.NotFound(resource, "")
	}

	if IsDuplicateError(err) {
		field := DuplicateField(err)
		if field == "" {
			field = "key"
		}
		return apperrors.AlreadyExists(resource, field).WithCause(err)
	}

	if IsBusyError(err) {
		return (&apperrors.AppError{
			Code:       apperrors.ErrCodeDatabaseError,
			Message:    "Database is temporarily unavailable. Please try again.",
			HTTPStatus: http.StatusServiceUnavailable,
			Retryable:  true,
		}).WithCause(err)
	}

	return apperrors.DatabaseError(err)
}
