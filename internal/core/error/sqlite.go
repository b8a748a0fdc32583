package errx

import (
	"net/http"
	"strings"
)

// IsSQLiteConflict reports SQLITE_BUSY / "database is locked" errors.
func IsSQLiteConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// WrapSQLite maps SQLite errors to AppError. Lock contention is reported as 503
// so callers can tell it apart from real failures.
func WrapSQLite(err error) error {
	if err == nil {
		return nil
	}
	if IsSQLiteConflict(err) {
		return New(err, http.StatusServiceUnavailable, DatabaseBusyMessage)
	}
	return New(err, http.StatusInternalServerError, DatabaseErrorMessage)
}
