// Package pgerr classifies PostgreSQL driver errors for repositories.
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation   = "23505"
	invalidTextRepr   = "22P02"
	foreignKeyViolate = "23503"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

// IsInvalidInput reports whether postgres rejected a parameter's text form,
// e.g. a malformed UUID.
func IsInvalidInput(err error) bool {
	return hasCode(err, invalidTextRepr)
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, foreignKeyViolate)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
