package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/formationvault-backend/internal/domain/formation"
	"github.com/yungbote/formationvault-backend/internal/platform/logger"
)

func newTestStore(t *testing.T, h http.HandlerFunc) RecordStore {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	s, err := New(logger.NewNop(), Config{BaseURL: srv.URL, APIKey: "key", Table: "Companies", Timeout: time.Second, MaxRetries: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestFetch(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Companies/rec1" || r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("unexpected request %s %q", r.URL.Path, r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"id":"rec1","fields":{"Company Name":"Acme","Entity Type":"LLC","Owner Count":1,"Owner 1 Ownership %":0.5}}`))
	})
	rec, err := s.Fetch(context.Background(), "rec1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if rec.CompanyName != "Acme" || rec.EntityKind != formation.EntityLLC {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if v, ok := rec.Fields.Float("Owner 1 Ownership %"); !ok || v != 0.5 {
		t.Fatalf("numeric field lost: %v ok=%v", v, ok)
	}
}

func TestFetch_NotFound(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"NOT_FOUND"}`, http.StatusNotFound)
	})
	if _, err := s.Fetch(context.Background(), "missing"); !errors.Is(err, formation.ErrRecordNotFound) {
		t.Fatalf("want ErrRecordNotFound, got=%v", err)
	}
}

func TestUpdate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		if r.Method != http.MethodPatch {
			t.Errorf("method: want PATCH got %s", r.Method)
		}
		var body map[string]map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["fields"]["Bylaws URL"] != "https://app/x" {
			t.Errorf("unexpected body %+v", body)
		}
		_, _ = w.Write([]byte(`{"id":"rec1"}`))
	})
	if err := s.Update(context.Background(), "rec1", map[string]any{"Bylaws URL": "https://app/x"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls: want=2 got=%d", calls.Load())
	}
}

func TestUpdate_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad field", http.StatusUnprocessableEntity)
	})
	if err := s.Update(context.Background(), "rec1", map[string]any{"x": 1}); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls: want=1 got=%d", calls.Load())
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	if _, err := New(logger.NewNop(), Config{APIKey: "k"}); err == nil {
		t.Fatalf("missing base url must fail")
	}
	if _, err := New(logger.NewNop(), Config{BaseURL: "http://x"}); err == nil {
		t.Fatalf("missing api key must fail")
	}
}
