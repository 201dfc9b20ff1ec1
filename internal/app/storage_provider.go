package app

import (
	"errors"
	"fmt"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/gcp"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

var newBucketServiceWithConfig = gcp.NewBucketServiceWithConfig

type StorageBootstrapCode string

const (
	StorageBootstrapInvalidMode         StorageBootstrapCode = "invalid_mode"
	StorageBootstrapMissingEmulatorHost StorageBootstrapCode = "missing_emulator_host"
	StorageBootstrapInvalidEmulatorHost StorageBootstrapCode = "invalid_emulator_host"
	StorageBootstrapConnectFailed       StorageBootstrapCode = "connect_failed"
)

type StorageBootstrapError struct {
	Code         StorageBootstrapCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageBootstrapError) Error() string {
	return fmt.Sprintf("shot storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v", e.Code, e.Mode, e.EmulatorHost, e.Cause)
}

func (e *StorageBootstrapError) Unwrap() error { return e.Cause }

// resolveBucketService opens the bucket that backs rendered shots and storyboards.
func resolveBucketService(log *logger.Logger, cfg Config) (gcp.BucketService, error) {
	storageCfg := gcp.ObjectStorageConfig{
		Mode:                  gcp.ObjectStorageMode(cfg.ObjectStorageMode),
		EmulatorHost:          cfg.StorageEmulatorHost,
		CompatibilityFallback: cfg.StorageModeCompatFallback,
	}
	if !gcp.IsSupportedObjectStorageMode(storageCfg.Mode) {
		err := &StorageBootstrapError{
			Code:  StorageBootstrapInvalidMode,
			Mode:  string(storageCfg.Mode),
			Cause: fmt.Errorf("unsupported object storage mode %q", storageCfg.Mode),
		}
		log.Error("shot storage selection failed", "mode", storageCfg.Mode, "error_code", err.Code)
		return nil, err
	}

	log.Info("selecting shot storage", "mode", storageCfg.Mode, "mode_source", storageCfg.ModeSource(), "emulator_host", storageCfg.EmulatorHost)
	bucket, err := newBucketServiceWithConfig(log, storageCfg)
	if err != nil {
		classified := classifyStorageBootstrapError(storageCfg, err)
		log.Error("shot storage bootstrap failed", "mode", storageCfg.Mode, "error_code", classified.Code, "error", err)
		return nil, classified
	}
	return bucket, nil
}

func classifyStorageBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) *StorageBootstrapError {
	out := &StorageBootstrapError{
		Code:         StorageBootstrapConnectFailed,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.ObjectStorageConfigErrorInvalidMode:
			out.Code = StorageBootstrapInvalidMode
		case gcp.ObjectStorageConfigErrorMissingEmulatorHost:
			out.Code = StorageBootstrapMissingEmulatorHost
		case gcp.ObjectStorageConfigErrorInvalidEmulatorHost:
			out.Code = StorageBootstrapInvalidEmulatorHost
		}
	}
	return out
}
