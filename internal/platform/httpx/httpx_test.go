package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"503", fmt.Errorf("wrap: %w", &StatusError{Service: "crm", StatusCode: 503}), true},
		{"429", &StatusError{StatusCode: 429}, true},
		{"404", &StatusError{StatusCode: 404}, false},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "30")
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 10*time.Second {
		t.Fatalf("capped: want=10s got=%s", got)
	}
	resp.Header.Set("Retry-After", "2")
	if got := RetryAfterDuration(resp, time.Second, 10*time.Second); got != 2*time.Second {
		t.Fatalf("seconds: want=2s got=%s", got)
	}
	if got := RetryAfterDuration(nil, time.Second, 0); got != time.Second {
		t.Fatalf("fallback: want=1s got=%s", got)
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Service: "render", StatusCode: 502, Body: ""}
	if err.Error() != "render http 502: <empty body>" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	long := make([]byte, MaxErrorBody+10)
	if got := TruncateBody(long); len(got) != MaxErrorBody+3 {
		t.Fatalf("TruncateBody: got len=%d", len(got))
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); err == nil {
		t.Fatalf("expected context error")
	}
}
