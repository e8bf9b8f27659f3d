package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func parse(t *testing.T, body string) (*RequestBodyParser, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	return p, p.Parse()
}

func TestRequestBodyParserScalars(t *testing.T) {
	p, err := parse(t, `{"id": "123", "amount": 42.50, "big": 1e3, "flag": true, "label": "  lunch\u0007 ", "none": null, "obj": {"a": 1}}`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"id", "123"},
		{"amount", "42.50"},
		{"big", "1e3"},
		{"flag", "true"},
		{"label", "lunch"},
		{"none", ""},
		{"obj", ""},
		{"missing", ""},
	}
	for _, tt := range tests {
		if got := p.Get(tt.key); got != tt.want {
			t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}

	if p.Has("none") || p.Has("missing") || !p.Has("id") {
		t.Error("Has() must treat null and absent members as missing")
	}
}

func TestRequestBodyParserGetString(t *testing.T) {
	p, err := parse(t, `{"message": " hello\u0000 ", "count": 42, "flag": false, "none": null}`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got, ok := p.GetString("message"); !ok || got != "hello" {
		t.Errorf("GetString(message) = %q, %v", got, ok)
	}
	for _, key := range []string{"count", "flag", "none", "missing"} {
		if got, ok := p.GetString(key); ok {
			t.Errorf("GetString(%q) = %q, want not a string", key, got)
		}
	}
}

func TestRequestBodyParserRejectsNonObjects(t *testing.T) {
	for _, body := range []string{`[]`, `"text"`, `42`, `{"a":`, `name=x`} {
		_, err := parse(t, body)
		var verr *core.ValidationError
		if !errors.As(err, &verr) || verr.Field != "body" {
			t.Errorf("body %q: expected body validation error, got %v", body, err)
		}
	}
}

func TestRequestBodyParserEmptyBody(t *testing.T) {
	p, err := parse(t, "  ")
	if err != nil {
		t.Fatalf("empty body should parse as {}: %v", err)
	}
	if p.Has("anything") {
		t.Fatal("empty body has no members")
	}
}

func TestRequestBodyParserTooLarge(t *testing.T) {
	body := `{"label": "` + strings.Repeat("x", maxBodyBytes) + `"}`
	_, err := parse(t, body)
	var verr *core.ValidationError
	if !errors.As(err, &verr) || verr.Message != "Request body too large" {
		t.Fatalf("expected too-large error, got %v", err)
	}
}

func TestRequestBodyParserFields(t *testing.T) {
	p, err := parse(t, `{"name": "Trip", "target": 900, "color": null, "id": "forged"}`)
	if err != nil {
		t.Fatal(err)
	}
	got := p.Fields(core.GoalEntity)
	if len(got) != 2 || got["name"] != "Trip" || got["target"] != "900" {
		t.Fatalf("Fields() = %v", got)
	}
	if _, ok := got["color"]; ok {
		t.Fatal("null members must stay absent")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello ", "hello"},
		{"a\x00b", "ab"},
		{"line1\nline2\tx", "line1\nline2\tx"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
