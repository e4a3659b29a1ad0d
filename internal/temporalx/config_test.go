package temporalx

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TEMPORAL_ADDRESS", "")
	t.Setenv("TEMPORAL_NAMESPACE", "")
	t.Setenv("TEMPORAL_NAMESPACE_RETENTION_DAYS", "900")
	cfg := LoadConfig()
	if cfg.Enabled() {
		t.Fatalf("Enabled: want=false with no address")
	}
	if cfg.Namespace != "formationvault" || cfg.TaskQueue != "formationvault" {
		t.Fatalf("defaults: namespace=%q task_queue=%q", cfg.Namespace, cfg.TaskQueue)
	}
	if cfg.RetentionDays != 365 {
		t.Fatalf("RetentionDays: want=365 got=%d", cfg.RetentionDays)
	}
}

func TestClampBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{10, time.Second},
	}
	for _, tc := range cases {
		if got := clampBackoff(100*time.Millisecond, time.Second, tc.attempt); got != tc.want {
			t.Fatalf("clampBackoff(%d): want=%s got=%s", tc.attempt, tc.want, got)
		}
	}
}

func TestIsRetryableRPC(t *testing.T) {
	if !isRetryableRPC(status.Error(codes.Unavailable, "down")) {
		t.Fatalf("Unavailable must be retryable")
	}
	if isRetryableRPC(status.Error(codes.PermissionDenied, "no")) {
		t.Fatalf("PermissionDenied must not be retryable")
	}
	if isRetryableRPC(errors.New("plain")) {
		t.Fatalf("plain errors must not be retryable")
	}
}
