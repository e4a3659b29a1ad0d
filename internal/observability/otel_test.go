package observability

import (
	"context"
	"errors"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" x-api-key = abc , bad, =v, k= ")
	if len(got) != 1 || got["x-api-key"] != "abc" {
		t.Fatalf("parseHeaders: got=%v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("parseHeaders empty: want nil")
	}
}

func TestSampleRatio(t *testing.T) {
	cases := map[string]float64{"": 0.1, "0.5": 0.5, "7": 1, "-1": 0, "x": 0.1}
	for raw, want := range cases {
		t.Setenv("OTEL_SAMPLER_RATIO", raw)
		if got := sampleRatio(); got != want {
			t.Fatalf("sampleRatio(%q): want=%v got=%v", raw, want, got)
		}
	}
}

func TestSpanHelpersWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.span")
	if ctx == nil || span == nil {
		t.Fatalf("StartSpan returned nil")
	}
	EndSpan(span, errors.New("boom"))
	EndSpan(nil, nil)
}
