package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})

	logger.Info("Transaction created", FieldUserID, "u1")
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %s", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec[FieldComponent] != ComponentLedger || rec[FieldUserID] != "u1" {
		t.Errorf("unexpected record %v", rec)
	}

	buf.Reset()
	logger.WithComponent(ComponentAdvisor).Warn("switched")
	if !strings.Contains(buf.String(), `"component":"advisor"`) || strings.Count(buf.String(), "component") != 1 {
		t.Errorf("component not replaced: %s", buf.String())
	}
}

func TestFieldsBuilders(t *testing.T) {
	f := NewFields().
		WithTransaction(core.Transaction{ID: "t1", Amount: "12.50", Category: "Food", Type: core.Expense, Date: "2024-03-03"}).
		WithError(nil).
		WithOperation(OpCreate)
	if f[FieldMonth] != "2024-03" || f[FieldAmount] != "12.50" || f[FieldTxType] != "expense" {
		t.Errorf("unexpected fields %v", f)
	}
	if _, ok := f[FieldError]; ok {
		t.Error("nil error must not add a field")
	}
	if got := len(f.ToSlice()); got != 2*len(f) {
		t.Errorf("slice length %d for %d fields", got, len(f))
	}
	f.WithError(errors.New("boom"))
	if f[FieldError] != "boom" {
		t.Errorf("error field = %v", f[FieldError])
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &buf})

	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-42" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside handler")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/user", nil))

	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("request id missing: %s", buf.String())
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("expected fallback logger")
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelInfo, Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/api/goals", nil)

	for _, tc := range []struct {
		status int
		level  string
	}{{200, "INFO"}, {404, "WARN"}, {500, "ERROR"}} {
		buf.Reset()
		sl.LogHTTPEnd(context.Background(), r, tc.status, 3, "127.0.0.1")
		if !strings.Contains(buf.String(), "level="+tc.level) {
			t.Errorf("status %d logged as %s", tc.status, buf.String())
		}
	}
}
