package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/ctxutil"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// IdentityProvider resolves the owner of a request.
type IdentityProvider interface {
	// Resolve returns ctx carrying the request identity.
	Resolve(ctx context.Context, token string) (context.Context, error)
	// RequiresToken reports whether requests without a token are rejected.
	RequiresToken() bool
}

type Claims struct {
	jwt.RegisteredClaims
}

type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type jwtProvider struct {
	log *logger.Logger
	cfg JWTConfig
}

func NewJWTProvider(log *logger.Logger, cfg JWTConfig) (IdentityProvider, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("jwt identity provider: empty secret")
	}
	return &jwtProvider{log: log.With("service", "JWTIdentityProvider"), cfg: cfg}, nil
}

func (p *jwtProvider) RequiresToken() bool { return true }

func (p *jwtProvider) Resolve(ctx context.Context, token string) (context.Context, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ctx, ErrMissingToken
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if p.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.cfg.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(p.cfg.Secret), nil
	}, opts...)
	if err != nil {
		p.log.Debug("token rejected", "error", err)
		return ctx, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return ctx, ErrInvalidToken
	}
	ownerID, err := uuid.Parse(claims.Subject)
	if err != nil || ownerID == uuid.Nil {
		return ctx, ErrInvalidToken
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: ownerID}), nil
}

// MintToken signs an HS256 access token for ownerID.
func MintToken(cfg JWTConfig, ownerID uuid.UUID, now time.Time) (string, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return "", fmt.Errorf("mint token: empty secret")
	}
	if ownerID == uuid.Nil {
		return "", fmt.Errorf("mint token: missing owner id")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   ownerID.String(),
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

// anonymous resolves every request to one fixed owner.
type anonymous struct {
	ownerID uuid.UUID
}

func Anonymous(ownerID uuid.UUID) IdentityProvider {
	return anonymous{ownerID: ownerID}
}

func (a anonymous) RequiresToken() bool { return false }

func (a anonymous) Resolve(ctx context.Context, _ string) (context.Context, error) {
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: a.ownerID, Anonymous: true}), nil
}

// OwnerFromContext returns the resolved owner, or uuid.Nil.
func OwnerFromContext(ctx context.Context) uuid.UUID {
	if rd := ctxutil.GetRequestData(ctx); rd != nil {
		return rd.UserID
	}
	return uuid.Nil
}
