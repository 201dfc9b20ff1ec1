package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

func TestJWTProviderRoundTrip(t *testing.T) {
	cfg := JWTConfig{Secret: "s3cret", Issuer: "adpack", TTL: time.Minute}
	p, err := NewJWTProvider(logger.Nop(), cfg)
	if err != nil {
		t.Fatalf("NewJWTProvider: %v", err)
	}
	owner := uuid.New()
	tok, err := MintToken(cfg, owner, time.Now())
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	ctx, err := p.Resolve(context.Background(), tok)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := OwnerFromContext(ctx); got != owner {
		t.Fatalf("owner: want=%s got=%s", owner, got)
	}
}

func TestJWTProviderRejects(t *testing.T) {
	cfg := JWTConfig{Secret: "s3cret", Issuer: "adpack", TTL: time.Minute}
	p, err := NewJWTProvider(logger.Nop(), cfg)
	if err != nil {
		t.Fatalf("NewJWTProvider: %v", err)
	}
	owner := uuid.New()
	expired, _ := MintToken(cfg, owner, time.Now().Add(-2*time.Hour))
	wrongKey, _ := MintToken(JWTConfig{Secret: "other", Issuer: "adpack"}, owner, time.Now())
	wrongIssuer, _ := MintToken(JWTConfig{Secret: "s3cret", Issuer: "someone-else"}, owner, time.Now())
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   owner.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not.a.jwt", ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"wrong key", wrongKey, ErrInvalidToken},
		{"wrong issuer", wrongIssuer, ErrInvalidToken},
		{"alg none", none, ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Resolve(context.Background(), tc.token)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAnonymousProvider(t *testing.T) {
	owner := uuid.New()
	p := Anonymous(owner)
	if p.RequiresToken() {
		t.Fatalf("anonymous should not require a token")
	}
	ctx, err := p.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if OwnerFromContext(ctx) != owner {
		t.Fatalf("owner mismatch")
	}
	if OwnerFromContext(context.Background()) != uuid.Nil {
		t.Fatalf("empty context should have no owner")
	}
}

func TestMintTokenValidation(t *testing.T) {
	if _, err := MintToken(JWTConfig{}, uuid.New(), time.Now()); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := MintToken(JWTConfig{Secret: "x"}, uuid.Nil, time.Now()); err == nil {
		t.Fatalf("expected error for nil owner")
	}
}
