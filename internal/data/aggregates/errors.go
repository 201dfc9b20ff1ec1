package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
)

// Sentinel classes raised inside aggregate transactions. MapError turns them
// into domain error codes once the transaction has ended.
var (
	ErrValidation = errors.New("adpack: invalid input")
	ErrInvariant  = errors.New("adpack: invariant violated")
	ErrConflict   = errors.New("adpack: concurrent update")
	ErrRetryable  = errors.New("adpack: transient failure")
)

func tagged(class error, msg string) error {
	return errors.Join(class, errors.New(strings.TrimSpace(msg)))
}

func ValidationError(msg string) error { return tagged(ErrValidation, msg) }
func InvariantError(msg string) error  { return tagged(ErrInvariant, msg) }
func ConflictError(msg string) error   { return tagged(ErrConflict, msg) }

var sentinelCodes = []struct {
	target error
	code   domainagg.ErrorCode
}{
	{ErrValidation, domainagg.CodeValidation},
	{ErrInvariant, domainagg.CodeInvariantViolation},
	{ErrConflict, domainagg.CodeConflict},
	{ErrRetryable, domainagg.CodeRetryable},
	{gorm.ErrRecordNotFound, domainagg.CodeNotFound},
	{gorm.ErrDuplicatedKey, domainagg.CodeConflict},
	{gorm.ErrForeignKeyViolated, domainagg.CodePreconditionFailed},
	{context.Canceled, domainagg.CodeRetryable},
	{context.DeadlineExceeded, domainagg.CodeRetryable},
}

// Postgres SQLSTATEs that carry a meaning of their own.
var sqlStateCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,           // unique_violation
	"23503": domainagg.CodePreconditionFailed, // foreign_key_violation
	"40001": domainagg.CodeRetryable,          // serialization_failure
	"40P01": domainagg.CodeRetryable,          // deadlock_detected
	"55P03": domainagg.CodeRetryable,          // lock_not_available
}

// MapError classifies err under op. Domain errors pass through untouched and
// lifecycle refusals keep their reason and missing shots.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	var te *adpack.TransitionError
	if errors.As(err, &te) {
		return domainagg.InvalidTransition(op, te.Reason, adpack.ShotTypeStrings(te.Missing), err)
	}
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.target) {
			return domainagg.Wrap(sc.code, op, err)
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := sqlStateCodes[strings.TrimSpace(pgErr.Code)]; ok {
			return domainagg.Wrap(code, op, err)
		}
	}
	return domainagg.Wrap(classifyMessage(err.Error()), op, err)
}

// classifyMessage covers drivers that only report text, sqlite in tests.
func classifyMessage(msg string) domainagg.ErrorCode {
	msg = strings.ToLower(msg)
	for _, frag := range []string{"unique constraint failed", "duplicate key", "already exists"} {
		if strings.Contains(msg, frag) {
			return domainagg.CodeConflict
		}
	}
	for _, frag := range []string{"database is locked", "deadlock", "serialization", "timeout", "temporar"} {
		if strings.Contains(msg, frag) {
			return domainagg.CodeRetryable
		}
	}
	return domainagg.CodeInternal
}
