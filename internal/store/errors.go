package store

import (
	"errors"
	"strings"

	"users/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var ErrRecordNotFound = domain.ErrNotFound

const (
	uniqueEmailIndex = "ux_users_email"
	uniquePhoneIndex = "ux_users_phone"

	pgUniqueViolation = "23505"
)

// translateUnique maps a unique index violation on users to the matching
// domain conflict. Other errors are returned untouched.
func translateUnique(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case uniqueEmailIndex:
			return domain.ErrDuplicateEmail
		case uniquePhoneIndex:
			return domain.ErrDuplicatePhone
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		// sqlite reports the column list, e.g. "UNIQUE constraint failed: users.email"
		msg := liteErr.Error()
		switch {
		case strings.Contains(msg, "users.email"):
			return domain.ErrDuplicateEmail
		case strings.Contains(msg, "users.phone_number"):
			return domain.ErrDuplicatePhone
		}
	}
	return err
}
