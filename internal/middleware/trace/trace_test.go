package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "wallet/internal/log"
)

func TestMiddleware_RequestIDAndLogging(t *testing.T) {
	var buf bytes.Buffer
	cfg := applog.DefaultConfig()
	cfg.Output = &buf
	cfg.Component = applog.ComponentHTTP
	m := NewMiddleware(func(*http.Request) string { return "203.0.113.9" }, applog.New(cfg))

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = applog.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/best", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request ID not in context: %q", seen)
	}
	if rr.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("response header %q != context ID %q", rr.Header().Get(RequestIDHeader), seen)
	}
	out := buf.String()
	if !strings.Contains(out, "HTTP request started") || !strings.Contains(out, "HTTP request completed") {
		t.Fatalf("missing request log lines:\n%s", out)
	}
	if !strings.Contains(out, "status_code=418") || !strings.Contains(out, "203.0.113.9") {
		t.Fatalf("completion line lacks status or client IP:\n%s", out)
	}

	got := m.GetMetrics()
	if got.TotalRequests != 1 || got.ServerErrors != 0 {
		t.Fatalf("unexpected metrics %+v", got)
	}
}

func TestMiddleware_CountsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	cfg := applog.DefaultConfig()
	cfg.Output = &buf
	m := NewMiddleware(nil, applog.New(cfg))
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	if m.GetMetrics().ServerErrors != 1 {
		t.Fatalf("expected one server error, got %+v", m.GetMetrics())
	}
}

func TestGenerateRequestID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate request ID %s", id)
		}
		seen[id] = true
	}
}
