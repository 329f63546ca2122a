package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestComponentStampedOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}).WithComponent(ComponentStore)
	l.With(FieldCount, 3).Info("hello")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0][FieldComponent] != ComponentStore {
		t.Fatalf("component = %v", lines[0][FieldComponent])
	}
	if strings.Count(buf.String(), `"component"`) != 1 {
		t.Fatalf("component repeated: %s", buf.String())
	}
	if lines[0][FieldCount] != float64(3) {
		t.Fatalf("count = %v", lines[0][FieldCount])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %q", l.Component())
	}
	want := Discard().WithComponent(ComponentHTTP)
	if got := FromContext(IntoContext(context.Background(), want)); got != want {
		t.Fatal("logger not recovered from context")
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf}))

	req := httptest.NewRequest("GET", "/api/dashboard?year=2025", nil)
	sl.LogHTTPEnd(context.Background(), req, 200, 3, "127.0.0.1")
	sl.LogHTTPEnd(context.Background(), req, 404, 1, "127.0.0.1")
	sl.LogHTTPEnd(context.Background(), req, 503, 1, "127.0.0.1")

	lines := decodeLines(t, &buf)
	levels := []string{"INFO", "WARN", "ERROR"}
	for i, want := range levels {
		if lines[i]["level"] != want {
			t.Errorf("line %d level = %v, want %s", i, lines[i]["level"], want)
		}
		if lines[i][FieldComponent] != ComponentHTTP {
			t.Errorf("line %d component = %v", i, lines[i][FieldComponent])
		}
	}
	if lines[0][FieldQuery] != "year=2025" || lines[0][FieldSuccess] != true {
		t.Fatalf("unexpected fields: %v", lines[0])
	}
}

func TestLogTransaction(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: "json", Output: &buf, Component: ComponentStore}))
	tx := core.Transaction{
		ID:       "abc",
		Amount:   core.Money{Cents: 1234},
		Date:     time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
		Category: "Travel",
		Type:     core.Expense,
	}
	sl.LogTransaction(context.Background(), OpUpdate, tx, 7)

	line := decodeLines(t, &buf)[0]
	if line["msg"] != "Transaction updated" {
		t.Fatalf("msg = %v", line["msg"])
	}
	if line[FieldTransactionID] != "abc" || line[FieldAmountCents] != float64(1234) ||
		line[FieldDate] != "2025-03-02" || line[FieldRevision] != float64(7) {
		t.Fatalf("unexpected fields: %v", line)
	}
}
