package temporalx

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 250 * time.Millisecond},
		{2, 500 * time.Millisecond},
		{4, 2 * time.Second},
		{10, 5 * time.Second},
	}
	for _, tc := range cases {
		if got := Backoff(250*time.Millisecond, 5*time.Second, tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: want=%s got=%s", tc.attempt, tc.want, got)
		}
	}
}

func TestIsRetryableRPC(t *testing.T) {
	if !isRetryableRPC(status.Error(codes.Unavailable, "down")) {
		t.Fatalf("unavailable should retry")
	}
	if isRetryableRPC(status.Error(codes.PermissionDenied, "no")) {
		t.Fatalf("permission denied should not retry")
	}
	if !isRetryableRPC(context.DeadlineExceeded) {
		t.Fatalf("deadline should retry")
	}
	if isRetryableRPC(errors.New("boom")) {
		t.Fatalf("plain error should not retry")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TEMPORAL_ADDRESS", "")
	t.Setenv("TEMPORAL_NAMESPACE", "")
	t.Setenv("TEMPORAL_NAMESPACE_RETENTION_DAYS", "900")
	cfg := LoadConfig()
	if cfg.Enabled() {
		t.Fatalf("expected disabled without address")
	}
	if cfg.Namespace != "adpack" || cfg.TaskQueue != "adpack-generation" {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.RetentionDays != 7 {
		t.Fatalf("retention clamp: %d", cfg.RetentionDays)
	}
}

func TestLoadTLSConfigRequiresPair(t *testing.T) {
	if c, err := loadTLSConfig(Config{}); c != nil || err != nil {
		t.Fatalf("no tls expected: %v %v", c, err)
	}
	if _, err := loadTLSConfig(Config{ClientCertPath: "/tmp/cert.pem"}); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestRetryStopsOnPermanentFailure(t *testing.T) {
	calls := 0
	attempts, err := retry(context.Background(), func(attempt int) (bool, error) {
		calls++
		if attempt < 2 {
			return true, errors.New("unavailable")
		}
		return false, errors.New("permission denied")
	})
	if err == nil || err.Error() != "permission denied" || attempts != 2 || calls != 2 {
		t.Fatalf("attempts=%d calls=%d err=%v", attempts, calls, err)
	}
}

func TestRetryGivesUpWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts, err := retry(ctx, func(int) (bool, error) { return true, errors.New("down") })
	if err == nil || attempts != 1 {
		t.Fatalf("attempts=%d err=%v", attempts, err)
	}
}
