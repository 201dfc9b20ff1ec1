package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
)

func TestMapErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want domainagg.ErrorCode
	}{
		{"validation", ValidationError("pack id required"), domainagg.CodeValidation},
		{"invariant", InvariantError("second winner"), domainagg.CodeInvariantViolation},
		{"conflict", ConflictError("variant moved"), domainagg.CodeConflict},
		{"wrapped conflict", fmt.Errorf("mark winner: %w", ConflictError("x")), domainagg.CodeConflict},
		{"record not found", gorm.ErrRecordNotFound, domainagg.CodeNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, domainagg.CodeConflict},
		{"foreign key", gorm.ErrForeignKeyViolated, domainagg.CodePreconditionFailed},
		{"canceled", context.Canceled, domainagg.CodeRetryable},
		{"pg unique", &pgconn.PgError{Code: "23505"}, domainagg.CodeConflict},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, domainagg.CodeRetryable},
		{"pg other", &pgconn.PgError{Code: "22001"}, domainagg.CodeInternal},
		{"sqlite unique", errors.New("UNIQUE constraint failed: ad_variant.pack_id"), domainagg.CodeConflict},
		{"sqlite busy", errors.New("database is locked"), domainagg.CodeRetryable},
		{"opaque", errors.New("boom"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError("variant.test", tc.in)
			if code := domainagg.CodeOf(got); code != tc.want {
				t.Fatalf("want %q got %q (%v)", tc.want, code, got)
			}
			if !errors.Is(got, tc.in) {
				t.Fatalf("cause lost: %v", got)
			}
		})
	}
}

func TestMapErrorKeepsDomainErrors(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeForbidden, "pack.get", "not yours", nil)
	if out := MapError("other", in); out != in {
		t.Fatalf("domain error was rewrapped: %v", out)
	}
	if MapError("x", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestMapErrorTransitionRefusal(t *testing.T) {
	err := MapError("variant.promote", &adpack.TransitionError{
		Reason:  adpack.ReasonShotsIncomplete,
		Missing: []adpack.ShotType{adpack.ShotTypeWinner},
	})
	aggErr, ok := domainagg.As(err)
	if !ok || aggErr.Code != domainagg.CodeInvalidTransition {
		t.Fatalf("want invalid_transition, got %v", err)
	}
	if aggErr.Reason != adpack.ReasonShotsIncomplete || len(aggErr.Missing) != 1 || aggErr.Missing[0] != "winner" {
		t.Fatalf("unexpected fields: %+v", aggErr)
	}
}
