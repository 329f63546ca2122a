package trace

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/log"
)

func newBufferedLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(log.Config{
		Level:     slog.LevelDebug,
		Component: "test",
		Handler:   slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	return entry
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := NewMiddleware(func(*http.Request) string { return "198.51.100.1" })

	var seen string
	h := log.Middleware(newBufferedLogger(&buf))(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/transactions", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id %q not generated", seen)
	}
	if rr.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("response header %q != %q", rr.Header().Get(RequestIDHeader), seen)
	}

	entry := lastLine(t, &buf)
	if entry["msg"] != "HTTP request completed" || entry["level"] != "WARN" {
		t.Fatalf("unexpected completion entry %v", entry)
	}
	if entry[log.FieldRequestID] != seen || entry[log.FieldClientIP] != "198.51.100.1" {
		t.Fatalf("missing request fields in %v", entry)
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Fatalf("TotalRequests = %d", got)
	}
}

func TestMiddlewareReusesValidInboundID(t *testing.T) {
	m := NewMiddleware(nil)
	tests := []struct {
		inbound string
		reuse   bool
	}{
		{"abcdef123456", true},
		{"short", false},
		{"has spaces in it", false},
		{"", false},
	}
	for _, tt := range tests {
		var seen string
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, tt.inbound)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if (seen == tt.inbound) != tt.reuse {
			t.Fatalf("inbound %q: got id %q, reuse=%v", tt.inbound, seen, tt.reuse)
		}
	}
}

func TestStatusCaptureKeepsFirstHeader(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	rw.Write([]byte("ok"))
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusOK {
		t.Fatalf("statusCode = %d, want 200 once the body was written", rw.statusCode)
	}
}
