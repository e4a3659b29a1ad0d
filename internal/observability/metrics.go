package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/formationvault-backend/internal/platform/envutil"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

// Metrics is nil when METRICS_ENABLED is off; every method is nil-safe.
type Metrics struct {
	apiRequests   *CounterVec
	apiLatency    *HistogramVec
	apiInflight   *Gauge
	generations   *CounterVec
	genLatency    *HistogramVec
	renderLatency *HistogramVec
	conversions   *CounterVec
	syncFailures  *CounterVec
	documentReads *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

// NewMetrics builds an unregistered set, for tests and tools.
func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("fv_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec("fv_api_request_duration_seconds", "API request latency in seconds.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}),
		apiInflight: NewGauge("fv_api_inflight_requests", "In-flight API requests."),
		generations: NewCounterVec("fv_document_generations_total", "Document generations by document and outcome.", []string{"document", "outcome"}),
		genLatency: NewHistogramVec("fv_document_generation_duration_seconds", "End-to-end generation latency.",
			[]string{"document"}, nil),
		renderLatency: NewHistogramVec("fv_render_duration_seconds", "Rendering service call latency.",
			[]string{"status"}, nil),
		conversions:   NewCounterVec("fv_conversions_total", "Format conversions by pair and outcome.", []string{"from", "to", "outcome"}),
		syncFailures:  NewCounterVec("fv_metadata_sync_failures_total", "Ledger and CRM sync failures.", []string{"store"}),
		documentReads: NewCounterVec("fv_document_reads_total", "Document reads by outcome.", []string{"outcome"}),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.generations, m.genLatency, m.renderLatency,
		m.conversions, m.syncFailures, m.documentReads,
	}
	for _, mw := range writers {
		if err := mw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) APIInflight(delta float64) {
	if m == nil {
		return
	}
	m.apiInflight.Add(delta)
}

func (m *Metrics) ObserveGeneration(document, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.generations.Inc(document, outcome)
	m.genLatency.Observe(dur.Seconds(), document)
}

func (m *Metrics) ObserveRender(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.renderLatency.Observe(dur.Seconds(), status)
}

func (m *Metrics) IncConversion(from, to, outcome string) {
	if m == nil {
		return
	}
	m.conversions.Inc(from, to, outcome)
}

func (m *Metrics) IncSyncFailure(store string) {
	if m == nil {
		return
	}
	m.syncFailures.Inc(store)
}

func (m *Metrics) IncDocumentRead(outcome string) {
	if m == nil {
		return
	}
	m.documentReads.Inc(outcome)
}

// GenerationCount reads back one generation series.
func (m *Metrics) GenerationCount(document, outcome string) float64 {
	if m == nil {
		return 0
	}
	return m.generations.Value(document, outcome)
}
