package temporalx

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/envutil"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

const (
	retryBase = 250 * time.Millisecond
	retryCap  = 5 * time.Second
)

// NewClient dials Temporal, retrying until TEMPORAL_DIAL_MAX_WAIT_SECONDS
// elapses. It returns (nil, nil) when TEMPORAL_ADDRESS is unset.
func NewClient(log *logger.Logger, cfg Config) (temporalsdkclient.Client, error) {
	if !cfg.Enabled() {
		if log != nil {
			log.Info("TEMPORAL_ADDRESS not set; generation runs in-process")
		}
		return nil, nil
	}
	tlsCfg, err := loadTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts := temporalsdkclient.Options{
		HostPort:          cfg.Address,
		Namespace:         cfg.Namespace,
		Logger:            log,
		ConnectionOptions: temporalsdkclient.ConnectionOptions{TLS: tlsCfg},
	}
	dialTimeout := envutil.Seconds("TEMPORAL_DIAL_TIMEOUT_SECONDS", 5*time.Second)
	maxWait := envutil.Seconds("TEMPORAL_DIAL_MAX_WAIT_SECONDS", 60*time.Second)

	waitCtx, cancel := context.WithTimeout(context.Background(), maxWait)
	defer cancel()
	var c temporalsdkclient.Client
	attempts, err := retry(waitCtx, func(int) (bool, error) {
		dialCtx, cancelDial := context.WithTimeout(context.Background(), dialTimeout)
		defer cancelDial()
		var dialErr error
		c, dialErr = temporalsdkclient.DialContext(dialCtx, opts)
		if dialErr != nil && log != nil {
			log.Warn("temporal not reachable; retrying", "address", cfg.Address, "error", dialErr)
		}
		return true, dialErr
	})
	if err != nil {
		return nil, fmt.Errorf("temporal dial failed (address=%s namespace=%s): %w", cfg.Address, cfg.Namespace, err)
	}
	if log != nil {
		log.Info("connected to temporal", "address", cfg.Address, "namespace", cfg.Namespace, "attempts", attempts)
	}
	if cfg.AutoRegisterNamespace {
		if err := EnsureNamespace(context.Background(), log, cfg); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// EnsureNamespace registers cfg.Namespace when Temporal does not know it.
// Managed Temporal namespaces are provisioned out of band; this is for
// self-hosted clusters.
func EnsureNamespace(ctx context.Context, log *logger.Logger, cfg Config) error {
	if !cfg.Enabled() || cfg.Namespace == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, envutil.Seconds("TEMPORAL_NAMESPACE_ENSURE_TIMEOUT_SECONDS", 10*time.Second))
	defer cancel()

	tlsCfg, err := loadTLSConfig(cfg)
	if err != nil {
		return err
	}
	// No Namespace option: the client must be able to talk before the namespace exists.
	ns, err := temporalsdkclient.NewNamespaceClient(temporalsdkclient.Options{
		HostPort:          cfg.Address,
		Logger:            log,
		ConnectionOptions: temporalsdkclient.ConnectionOptions{TLS: tlsCfg},
	})
	if err != nil {
		return fmt.Errorf("temporal namespace client: %w", err)
	}
	defer ns.Close()

	_, err = retry(ctx, func(int) (bool, error) {
		err := registerIfMissing(ctx, ns, cfg)
		if err != nil && log != nil {
			log.Warn("temporal namespace ensure failed", "namespace", cfg.Namespace, "error", err)
		}
		return isRetryableRPC(err), err
	})
	if err != nil {
		return fmt.Errorf("temporal namespace ensure (namespace=%s): %w", cfg.Namespace, err)
	}
	if log != nil {
		log.Info("temporal namespace ready", "namespace", cfg.Namespace, "retention_days", cfg.RetentionDays)
	}
	return nil
}

func registerIfMissing(ctx context.Context, ns temporalsdkclient.NamespaceClient, cfg Config) error {
	_, err := ns.Describe(ctx, cfg.Namespace)
	var missing *serviceerror.NamespaceNotFound
	if !errors.As(err, &missing) {
		return err
	}
	err = ns.Register(ctx, &workflowservice.RegisterNamespaceRequest{
		Namespace:                        cfg.Namespace,
		Description:                      "ad pack generation",
		WorkflowExecutionRetentionPeriod: durationpb.New(time.Duration(cfg.RetentionDays) * 24 * time.Hour),
	})
	var exists *serviceerror.NamespaceAlreadyExists
	if errors.As(err, &exists) {
		return nil
	}
	return err
}

// retry calls fn until it succeeds, reports a permanent failure, or ctx ends.
// It returns the number of attempts made.
func retry(ctx context.Context, fn func(attempt int) (retryable bool, err error)) (int, error) {
	for attempt := 1; ; attempt++ {
		retryable, err := fn(attempt)
		if err == nil {
			return attempt, nil
		}
		if !retryable {
			return attempt, err
		}
		select {
		case <-ctx.Done():
			return attempt, err
		case <-time.After(Backoff(retryBase, retryCap, attempt)):
		}
	}
}

func loadTLSConfig(cfg Config) (*tls.Config, error) {
	switch {
	case cfg.ClientCertPath == "" && cfg.ClientKeyPath == "" && cfg.ClientCAPath == "":
		return nil, nil
	case cfg.ClientCertPath == "" || cfg.ClientKeyPath == "":
		return nil, fmt.Errorf("temporal tls: TEMPORAL_CLIENT_CERT_PATH and TEMPORAL_CLIENT_KEY_PATH must be set together")
	}
	pair, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
	if err != nil {
		return nil, fmt.Errorf("temporal tls: load client key pair: %w", err)
	}
	out := &tls.Config{Certificates: []tls.Certificate{pair}, MinVersion: tls.VersionTLS12}
	if cfg.ClientCAPath == "" {
		return out, nil
	}
	pem, err := os.ReadFile(cfg.ClientCAPath)
	if err != nil {
		return nil, fmt.Errorf("temporal tls: read CA: %w", err)
	}
	out.RootCAs = x509.NewCertPool()
	if !out.RootCAs.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("temporal tls: no certificates in %s", cfg.ClientCAPath)
	}
	return out, nil
}

// Backoff doubles base per attempt, capped at max.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = retryBase
	}
	d := base
	for i := 1; i < attempt; i++ {
		if d *= 2; max > 0 && d >= max {
			return max
		}
	}
	return d
}

func isRetryableRPC(err error) bool {
	if err == nil {
		return false
	}
	s, ok := status.FromError(err)
	if !ok {
		return errors.Is(err, context.DeadlineExceeded)
	}
	switch s.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	}
	return false
}
