package temporalx

import (
	"os"
	"strings"
	"time"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/envutil"
)

type Config struct {
	Address   string
	Namespace string
	TaskQueue string

	ClientCertPath string
	ClientKeyPath  string
	ClientCAPath   string

	AutoRegisterNamespace bool
	RetentionDays         int

	// VariantTimeout bounds one variant activity: four renders plus uploads.
	VariantTimeout time.Duration
}

// Enabled reports whether generation runs should go through Temporal.
func (c Config) Enabled() bool { return c.Address != "" }

func LoadConfig() Config {
	retention := envutil.Int("TEMPORAL_NAMESPACE_RETENTION_DAYS", 7)
	if retention < 1 || retention > 365 {
		retention = 7
	}
	timeout := envutil.Seconds("TEMPORAL_VARIANT_TIMEOUT_SECONDS", 15*time.Minute)
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	return Config{
		Address:   strings.TrimSpace(os.Getenv("TEMPORAL_ADDRESS")),
		Namespace: stringsOr(os.Getenv("TEMPORAL_NAMESPACE"), "adpack"),
		TaskQueue: stringsOr(os.Getenv("TEMPORAL_TASK_QUEUE"), "adpack-generation"),

		ClientCertPath: strings.TrimSpace(os.Getenv("TEMPORAL_CLIENT_CERT_PATH")),
		ClientKeyPath:  strings.TrimSpace(os.Getenv("TEMPORAL_CLIENT_KEY_PATH")),
		ClientCAPath:   strings.TrimSpace(os.Getenv("TEMPORAL_CLIENT_CA_PATH")),

		AutoRegisterNamespace: envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false),
		RetentionDays:         retention,
		VariantTimeout:        timeout,
	}
}

func stringsOr(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
