package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Body(map[string]int{"n": 1}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Header().Get("X-Test") != "1" {
		t.Error("custom header missing")
	}
	if strings.TrimSpace(rr.Body.String()) != `{"n":1}` {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		builder  *JSONResponseBuilder
		wantCode int
		wantBody string
	}{
		{"bad request", BadRequestError("Amount is required"), 400, `{"error":"Amount is required"}`},
		{"not found", NotFoundError("Goal not found"), 404, `{"error":"Goal not found"}`},
		{"conflict", ConflictError("User already exists"), 409, `{"error":"User already exists"}`},
		{"internal", InternalServerError("AI request failed"), 500, `{"error":"AI request failed"}`},
		{"method", MethodNotAllowedError(), 405, `{"error":"Method not allowed"}`},
		{"success", SuccessResponse(), 200, `{"success":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.builder.Write(rr)
			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if got := strings.TrimSpace(rr.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestTooManyRequestsSetsRetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()
	TooManyRequestsError("30").Write(rr)
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "30" {
		t.Fatalf("status=%d retry-after=%q", rr.Code, rr.Header().Get("Retry-After"))
	}
}

func TestUnencodableBodyIs500(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Body(make(chan int)).Write(rr)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}
