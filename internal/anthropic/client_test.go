package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/core"
)

// sentRequest is the subset of the Messages API body the tests inspect.
type sentRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func newTestClient(url string) *Client {
	return NewClient(Options{APIKey: "k", BaseURL: url})
}

func TestNewClient(t *testing.T) {
	if c := NewClient(Options{APIKey: "  "}); c != nil {
		t.Fatal("expected nil client for blank key")
	}
	c := NewClient(Options{APIKey: "sk-test"})
	if c == nil {
		t.Fatal("expected client")
	}
	if c.Model() != DefaultModel || c.maxTokens != DefaultMaxTokens || c.timeout != DefaultTimeout {
		t.Errorf("defaults not applied: model=%s maxTokens=%d timeout=%v", c.model, c.maxTokens, c.timeout)
	}
}

func TestComplete(t *testing.T) {
	var got sentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "sk-test" {
			t.Errorf("api key header = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("missing anthropic-version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"m","stop_reason":"end_turn",
			"content":[{"type":"text","text":"Save more."}],
			"usage":{"input_tokens":10,"output_tokens":3}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "sk-test", BaseURL: srv.URL, Model: "m", MaxTokens: 200})
	out, err := c.Complete(context.Background(), "be helpful", []core.ChatTurn{
		{Role: core.RoleAssistant, Content: "Hi!"},
		{Role: core.RoleUser, Content: "Tips?"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !out.IsText || out.Text != "Save more." {
		t.Errorf("completion = %+v", out)
	}
	if got.Model != "m" || got.MaxTokens != 200 || len(got.Messages) != 2 {
		t.Fatalf("unexpected request body %+v", got)
	}
	if len(got.System) != 1 || got.System[0].Text != "be helpful" {
		t.Errorf("system = %+v", got.System)
	}
	if got.Messages[0].Role != "assistant" || got.Messages[1].Role != "user" {
		t.Errorf("roles = %s, %s", got.Messages[0].Role, got.Messages[1].Role)
	}
	if last := got.Messages[1].Content; len(last) != 1 || last[0].Text != "Tips?" {
		t.Errorf("unexpected last message %+v", last)
	}
}

func TestCompleteNonText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_2","type":"message","role":"assistant","model":"m",
			"content":[{"type":"tool_use","id":"t1","name":"lookup","input":{}},{"type":"text","text":"late"}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Complete(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out.IsText {
		t.Errorf("expected non-text completion, got %+v", out)
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		substr string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, want: ErrUnauthorized},
		{name: "rate limited", status: http.StatusTooManyRequests, want: ErrRateLimited},
		{name: "api error", status: http.StatusBadRequest,
			body:   `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens too large"}}`,
			substr: "status 400"},
		{name: "overloaded", status: 529, body: "oops", substr: "status 529"},
		{name: "bad json", status: http.StatusOK, body: "not json", substr: "anthropic:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Complete(context.Background(), "", nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if tt.substr != "" && !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q does not contain %q", err, tt.substr)
			}
		})
	}
}

func TestCompleteHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestClient(srv.URL).Complete(ctx, "", nil); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
