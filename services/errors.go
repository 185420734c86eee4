package services

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"room-booking/policy"
)

// Errors returned by the services. Controllers map them to HTTP statuses.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("permission denied")
	ErrUnauthenticated    = errors.New("authentication credentials were not provided or are invalid")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("a user with this email already exists")
	ErrDuplicateBooking   = errors.New("room is already booked for this date")
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// authorize turns a policy decision into ErrUnauthenticated or ErrForbidden.
func authorize(p policy.Policy, actor policy.Actor, action policy.Action, res policy.Resource) error {
	if policy.Decide(p, actor, action, res).Allowed() {
		return nil
	}
	if !actor.IsAuthenticated() {
		return ErrUnauthenticated
	}
	return ErrForbidden
}

const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlNoReferencedRow
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return false
}

// notFoundOr maps gorm.ErrRecordNotFound to ErrNotFound and wraps anything else.
func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
