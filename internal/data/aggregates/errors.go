package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/modulegate-backend/internal/domain/aggregates"
)

// Sentinel tags for errors raised inside a write closure. MapError turns
// them into coded domain errors.
var (
	ErrValidation = errors.New("progress write: validation")
	ErrInvariant  = errors.New("progress write: invariant violation")
	ErrConflict   = errors.New("progress write: conflict")
	ErrRetryable  = errors.New("progress write: retryable")
)

func tagged(tag error, msg string) error {
	return errors.Join(tag, errors.New(strings.TrimSpace(msg)))
}

func ValidationError(msg string) error { return tagged(ErrValidation, msg) }
func InvariantError(msg string) error  { return tagged(ErrInvariant, msg) }
func ConflictError(msg string) error   { return tagged(ErrConflict, msg) }
func RetryableError(msg string) error  { return tagged(ErrRetryable, msg) }

var sentinelCodes = []struct {
	target error
	code   domainagg.ErrorCode
}{
	{ErrValidation, domainagg.CodeValidation},
	{ErrInvariant, domainagg.CodeInvariantViolation},
	{ErrConflict, domainagg.CodeConflict},
	{ErrRetryable, domainagg.CodeRetryable},
	{gorm.ErrRecordNotFound, domainagg.CodeNotFound},
	{context.Canceled, domainagg.CodeRetryable},
	{context.DeadlineExceeded, domainagg.CodeRetryable},
}

// Postgres SQLSTATEs we classify; everything else falls through to text
// matching, which also covers the SQLite driver used in tests.
var pgCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,           // unique_violation
	"23503": domainagg.CodePreconditionFailed, // foreign_key_violation
	"23514": domainagg.CodeInvariantViolation, // check_violation
	"40001": domainagg.CodeRetryable,          // serialization_failure
	"40P01": domainagg.CodeRetryable,          // deadlock_detected
	"55P03": domainagg.CodeRetryable,          // lock_not_available
}

var conflictText = []string{"duplicate key", "already exists", "unique constraint failed"}
var retryableText = []string{"deadlock", "serialization", "timeout", "database is locked", "temporar"}

// MapError attaches a domain error code to a storage failure. Errors that
// are already coded pass through unchanged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	return domainagg.Wrap(classify(err), op, err)
}

func classify(err error) domainagg.ErrorCode {
	for _, s := range sentinelCodes {
		if errors.Is(err, s.target) {
			return s.code
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgCodes[strings.TrimSpace(pgErr.Code)]; ok {
			return code
		}
	}
	msg := strings.ToLower(err.Error())
	if containsAny(msg, conflictText) {
		return domainagg.CodeConflict
	}
	if containsAny(msg, retryableText) {
		return domainagg.CodeRetryable
	}
	return domainagg.CodeInternal
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
