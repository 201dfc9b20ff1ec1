package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Monetiqai/Monetiq-sub003/internal/auth"
	apihttp "github.com/Monetiqai/Monetiq-sub003/internal/http"
	httpH "github.com/Monetiqai/Monetiq-sub003/internal/http/handlers"
	httpMW "github.com/Monetiqai/Monetiq-sub003/internal/http/middleware"
	"github.com/Monetiqai/Monetiq-sub003/internal/observability"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"github.com/Monetiqai/Monetiq-sub003/internal/realtime"
	"github.com/Monetiqai/Monetiq-sub003/internal/services"
)

func wireIdentity(log *logger.Logger, cfg Config) (auth.IdentityProvider, error) {
	if cfg.AuthMode == AuthModeAnonymous {
		log.Warn("AUTH_MODE=anonymous; every request acts as one owner", "owner_id", cfg.AnonymousOwnerID)
		return auth.Anonymous(cfg.AnonymousOwnerID), nil
	}
	p, err := auth.NewJWTProvider(log, auth.JWTConfig{Secret: cfg.JWTSecretKey, Issuer: cfg.JWTIssuer, TTL: cfg.AccessTokenTTL})
	if err != nil {
		return nil, fmt.Errorf("init jwt identity: %w", err)
	}
	return p, nil
}

func wireServer(log *logger.Logger, cfg Config, db *gorm.DB, svc services.AdPackService, hub *realtime.SSEHub, identity auth.IdentityProvider, metrics *observability.Metrics) *apihttp.Server {
	log.Info("Wiring handlers...")
	return apihttp.NewServer(apihttp.RouterConfig{
		Log:            log,
		ServiceName:    "adpack-api",
		CORSOrigins:    cfg.CORSOrigins,
		Metrics:        metrics,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, identity),
		PackHandler:    httpH.NewPackHandler(log, svc, hub),
		VariantHandler: httpH.NewVariantHandler(log, svc),
		HealthHandler:  httpH.NewHealthHandler(db),
	})
}
