package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/envutil"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

const (
	AuthModeJWT       = "jwt"
	AuthModeAnonymous = "anonymous"
)

// defaultAnonymousOwner is the single owner used when AUTH_MODE=anonymous.
var defaultAnonymousOwner = uuid.MustParse("00000000-0000-4000-8000-000000000001")

type Config struct {
	Port        string
	Environment string
	Version     string
	CORSOrigins []string

	AuthMode         string
	JWTSecretKey     string
	JWTIssuer        string
	AccessTokenTTL   time.Duration
	AnonymousOwnerID uuid.UUID

	FastModel          string
	FinalModel         string
	VariantConcurrency int
	WinnerMaxAttempts  int
	StoryboardEnabled  bool

	ObjectStorageMode         string
	StorageEmulatorHost       string
	StorageModeCompatFallback bool

	RedisAddr    string
	RedisChannel string

	MetricsAddr string
}

func LoadConfig(log *logger.Logger) Config {
	storageMode := strings.ToLower(envutil.String("OBJECT_STORAGE_MODE", "", log))
	emulatorHost := envutil.String("STORAGE_EMULATOR_HOST", "", log)
	compat := false
	if storageMode == "" {
		if emulatorHost != "" {
			storageMode = "gcs_emulator"
			compat = true
		} else {
			storageMode = "gcs"
		}
	}

	owner, err := uuid.Parse(envutil.String("ANONYMOUS_OWNER_ID", defaultAnonymousOwner.String(), log))
	if err != nil || owner == uuid.Nil {
		if log != nil {
			log.Warn("ANONYMOUS_OWNER_ID is not a uuid; using default", "error", err)
		}
		owner = defaultAnonymousOwner
	}

	return Config{
		Port:        envutil.String("PORT", "8080", log),
		Environment: envutil.String("APP_ENV", "development", log),
		Version:     envutil.String("APP_VERSION", "dev", log),
		CORSOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),

		AuthMode:         strings.ToLower(envutil.String("AUTH_MODE", AuthModeJWT, log)),
		JWTSecretKey:     envutil.String("JWT_SECRET_KEY", "", log),
		JWTIssuer:        envutil.String("JWT_ISSUER", "adpack", log),
		AccessTokenTTL:   envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),
		AnonymousOwnerID: owner,

		FastModel:          envutil.String("ADPACK_FAST_MODEL", "gpt-image-1-mini", log),
		FinalModel:         envutil.String("ADPACK_FINAL_MODEL", "gpt-image-1", log),
		VariantConcurrency: envutil.Int("ADPACK_VARIANT_CONCURRENCY", 4),
		WinnerMaxAttempts:  envutil.Int("ADPACK_WINNER_MAX_ATTEMPTS", 3),
		StoryboardEnabled:  envutil.Bool("ADPACK_STORYBOARD_ENABLED", true),

		ObjectStorageMode:         storageMode,
		StorageEmulatorHost:       emulatorHost,
		StorageModeCompatFallback: compat,

		RedisAddr:    envutil.String("REDIS_ADDR", "", log),
		RedisChannel: envutil.String("REDIS_CHANNEL", "adpack.events", log),

		MetricsAddr: envutil.String("METRICS_ADDR", ":9090", log),
	}
}

// Validate reports configuration that would leave the API unusable.
func (c Config) Validate() error {
	switch c.AuthMode {
	case AuthModeJWT:
		if strings.TrimSpace(c.JWTSecretKey) == "" {
			return fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET_KEY")
		}
	case AuthModeAnonymous:
	default:
		return fmt.Errorf("unsupported AUTH_MODE %q", c.AuthMode)
	}
	if strings.TrimSpace(c.FastModel) == "" {
		return fmt.Errorf("ADPACK_FAST_MODEL must not be empty")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
