package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes for integrity constraint violations.
const (
	sqlStateNotNull    = "23502"
	sqlStateForeignKey = "23503"
	sqlStateUnique     = "23505"
	sqlStateCheck      = "23514"
)

// IsConstraintError reports whether err is a storage-level rejection of a write:
// a unique, not-null, check or foreign key rule.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateNotNull, sqlStateForeignKey, sqlStateUnique, sqlStateCheck:
			return true
		}
		return false
	}

	// SQLite and wrapped driver errors only expose text.
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"duplicate key",
		"unique constraint",
		"check constraint",
		"not null constraint",
		"foreign key constraint",
		sqlStateUnique,
		sqlStateCheck,
		sqlStateNotNull,
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsUniqueViolation reports whether err is specifically a duplicate key rejection.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateUnique
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, sqlStateUnique)
}
