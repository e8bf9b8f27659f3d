package memory

import (
	"context"
	"testing"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
	"fintrack/internal/services"
)

func TestExporterReplacesTabs(t *testing.T) {
	e := New()
	ctx := context.Background()

	txs := []core.Transaction{{Date: "2024-03-02", Label: "Lunch", Category: "Food", Type: core.Expense, Amount: "12.50"}}
	export := ports.MonthExport{Month: "2024-03", Currency: "USD", Metrics: services.ComputeMetrics(txs, "2024-03"), Transactions: txs}
	if err := e.ExportMonth(ctx, export); err != nil {
		t.Fatalf("export: %v", err)
	}
	export.Transactions = nil
	if err := e.ExportMonth(ctx, export); err != nil {
		t.Fatalf("re-export: %v", err)
	}

	rows, ok := e.Tab("2024-03")
	if !ok {
		t.Fatal("expected month tab")
	}
	if len(rows) != 10 {
		t.Errorf("second export must replace the tab, got %d rows", len(rows))
	}
	if e.Exports() != 2 {
		t.Errorf("exports = %d, want 2", e.Exports())
	}

	if err := e.ExportGoals(ctx, []core.Goal{{Name: "Car", Target: "100", Current: "5"}}); err != nil {
		t.Fatalf("export goals: %v", err)
	}
	if rows, _ := e.Tab(ports.GoalsTab); len(rows) != 2 {
		t.Errorf("goals rows = %d, want 2", len(rows))
	}

	if err := e.ExportMonth(ctx, ports.MonthExport{Month: "bad"}); err == nil {
		t.Error("expected error for invalid month")
	}
	if _, ok := e.Tab("bad"); ok {
		t.Error("invalid export must not create a tab")
	}
}
