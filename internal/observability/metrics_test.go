package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsWritePrometheus(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/api/documents", "200", 20*time.Millisecond)
	m.ObserveGeneration("bylaws", "success", 3*time.Second)
	m.ObserveGeneration("bylaws", "success", time.Second)
	m.IncConversion("docx", "pdf", "failed")

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`fv_api_requests_total{method="GET",route="/api/documents",status="200"} 1`,
		`fv_document_generations_total{document="bylaws",outcome="success"} 2`,
		`fv_document_generation_duration_seconds_bucket{document="bylaws",le="+Inf"} 2`,
		`fv_conversions_total{from="docx",to="pdf",outcome="failed"} 1`,
		"# TYPE fv_api_inflight_requests gauge",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if got := m.GenerationCount("bylaws", "success"); got != 2 {
		t.Fatalf("GenerationCount: want=2 got=%v", got)
	}
}

func TestNilMetricsAreInert(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.ObserveGeneration("x", "y", time.Second)
	m.IncSyncFailure("crm")
	if m.GenerationCount("x", "y") != 0 {
		t.Fatalf("nil metrics must read zero")
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"a"}, []string{"x\"y"})
	if got != `{a="x\"y"}` {
		t.Fatalf("labelString: got=%q", got)
	}
	if withLe("", "1") != `{le="1"}` {
		t.Fatalf("withLe empty labels")
	}
}
