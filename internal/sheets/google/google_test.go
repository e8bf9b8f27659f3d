package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
	"fintrack/internal/services"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets records the calls the client makes against the Sheets REST API.
type fakeSheets struct {
	mu      sync.Mutex
	titles  []string
	calls   []string
	written map[string][][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/v4/spreadsheets/sid":
		ss := gsheet.Spreadsheet{}
		for _, title := range f.titles {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: title}})
		}
		_ = json.NewEncoder(w).Encode(ss)
	case r.Method == http.MethodPost && r.URL.Path == "/v4/spreadsheets/sid:batchUpdate":
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.titles = append(f.titles, rq.AddSheet.Properties.Title)
			}
		}
		_, _ = w.Write([]byte(`{"spreadsheetId":"sid"}`))
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
		_, _ = w.Write([]byte(`{"spreadsheetId":"sid"}`))
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sid/values/"):
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		rng := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/sid/values/")
		f.written[rng] = vr.Values
		_, _ = w.Write([]byte(`{"spreadsheetId":"sid"}`))
	default:
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	}
}

func (f *fakeSheets) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewWithOptions(context.Background(), "sid",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewWithOptionsRequiresSpreadsheet(t *testing.T) {
	if _, err := NewWithOptions(context.Background(), "  ", goption.WithoutAuthentication()); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := loadCredentials(context.Background(), Credentials{}); err == nil {
		t.Fatal("expected error without credentials")
	}
	got, err := loadCredentials(context.Background(), Credentials{JSON: `{"type":"service_account"}`, File: "/nonexistent"})
	if err != nil || string(got) != `{"type":"service_account"}` {
		t.Fatalf("inline json should win, got %q %v", got, err)
	}
	if _, err := loadCredentials(context.Background(), Credentials{File: "/nonexistent/sa.json"}); err == nil {
		t.Fatal("expected error for unreadable file")
	}
}

func TestExportMonthCreatesTabOnce(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Goals"}, written: map[string][][]any{}}
	c := newTestClient(t, fake)

	txs := []core.Transaction{
		{Date: "2024-03-01", Label: "Salary", Category: "Salary", Type: core.Income, Amount: "3000"},
	}
	export := ports.MonthExport{
		Month:        "2024-03",
		Currency:     "USD",
		Metrics:      services.ComputeMetrics(txs, "2024-03"),
		Transactions: txs,
	}
	for range 2 {
		if err := c.ExportMonth(context.Background(), export); err != nil {
			t.Fatalf("export: %v", err)
		}
	}

	if n := fake.count("GET "); n != 1 {
		t.Errorf("metadata reads = %d, want 1", n)
	}
	if n := fake.count("POST /v4/spreadsheets/sid:batchUpdate"); n != 1 {
		t.Errorf("tab creations = %d, want 1", n)
	}
	if n := fake.count("PUT "); n != 2 {
		t.Errorf("writes = %d, want 2", n)
	}
	rows := fake.written["'2024-03'!A1"]
	if len(rows) != 11 || rows[10][0] != "2024-03-01" {
		t.Fatalf("unexpected rows written: %v", rows)
	}
}

func TestExportGoalsUsesExistingTab(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Goals"}, written: map[string][][]any{}}
	c := newTestClient(t, fake)

	err := c.ExportGoals(context.Background(), []core.Goal{{Name: "Car", Target: "4000", Current: "1000", Color: "#007aff"}})
	if err != nil {
		t.Fatalf("export goals: %v", err)
	}
	if n := fake.count("POST /v4/spreadsheets/sid:batchUpdate"); n != 0 {
		t.Errorf("existing tab must not be recreated, got %d creations", n)
	}
	if rows := fake.written["'Goals'!A1"]; len(rows) != 2 || rows[1][0] != "Car" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestExportMonthRejectsBadMonth(t *testing.T) {
	c := &Client{tabs: map[string]bool{}}
	if err := c.ExportMonth(context.Background(), ports.MonthExport{Month: "March"}); err == nil {
		t.Fatal("expected error for invalid month")
	}
}

func TestQuoteTab(t *testing.T) {
	tests := map[string]string{
		"2024-03": "'2024-03'",
		"Goals":   "'Goals'",
		"Bob's":   "'Bob''s'",
	}
	for in, want := range tests {
		if got := quoteTab(in); got != want {
			t.Errorf("quoteTab(%q) = %q, want %q", in, got, want)
		}
	}
}
