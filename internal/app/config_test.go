package app

import (
	"testing"

	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"OBJECT_STORAGE_MODE", "STORAGE_EMULATOR_HOST", "AUTH_MODE", "ANONYMOUS_OWNER_ID", "ADPACK_WINNER_MAX_ATTEMPTS"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(logger.Nop())
	if cfg.ObjectStorageMode != "gcs" || cfg.StorageModeCompatFallback {
		t.Fatalf("storage mode = %q fallback=%v", cfg.ObjectStorageMode, cfg.StorageModeCompatFallback)
	}
	if cfg.AuthMode != AuthModeJWT {
		t.Fatalf("auth mode = %q", cfg.AuthMode)
	}
	if cfg.AnonymousOwnerID != defaultAnonymousOwner {
		t.Fatalf("anonymous owner = %s", cfg.AnonymousOwnerID)
	}
	if cfg.WinnerMaxAttempts != 3 {
		t.Fatalf("winner attempts = %d", cfg.WinnerMaxAttempts)
	}
}

func TestLoadConfigEmulatorFallback(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")
	cfg := LoadConfig(logger.Nop())
	if cfg.ObjectStorageMode != "gcs_emulator" || !cfg.StorageModeCompatFallback {
		t.Fatalf("storage mode = %q fallback=%v", cfg.ObjectStorageMode, cfg.StorageModeCompatFallback)
	}
}

func TestLoadConfigAnonymousOwner(t *testing.T) {
	owner := uuid.New()
	t.Setenv("ANONYMOUS_OWNER_ID", owner.String())
	if got := LoadConfig(logger.Nop()).AnonymousOwnerID; got != owner {
		t.Fatalf("owner = %s, want %s", got, owner)
	}
	t.Setenv("ANONYMOUS_OWNER_ID", "nope")
	if got := LoadConfig(logger.Nop()).AnonymousOwnerID; got != defaultAnonymousOwner {
		t.Fatalf("owner = %s, want default", got)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"jwt with secret", Config{AuthMode: AuthModeJWT, JWTSecretKey: "s", FastModel: "m"}, false},
		{"jwt without secret", Config{AuthMode: AuthModeJWT, FastModel: "m"}, true},
		{"anonymous", Config{AuthMode: AuthModeAnonymous, FastModel: "m"}, false},
		{"unknown mode", Config{AuthMode: "basic", FastModel: "m"}, true},
		{"no fast model", Config{AuthMode: AuthModeAnonymous}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example , ,https://b.example")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("splitList = %v", got)
	}
}
