// Package memory is the exporter used when no spreadsheet is configured. It
// keeps the last rendering of every tab and logs each export.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

type Exporter struct {
	mu      sync.Mutex
	tabs    map[string][][]any
	exports int
}

var _ ports.Exporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{tabs: make(map[string][][]any)}
}

func (e *Exporter) ExportMonth(ctx context.Context, m ports.MonthExport) error {
	if !core.ValidMonth(m.Month) {
		return fmt.Errorf("invalid month: %q", m.Month)
	}
	e.store(ctx, m.Month, ports.MonthRows(m))
	return nil
}

func (e *Exporter) ExportGoals(ctx context.Context, goals []core.Goal) error {
	e.store(ctx, ports.GoalsTab, ports.GoalRows(goals))
	return nil
}

func (e *Exporter) store(ctx context.Context, tab string, rows [][]any) {
	e.mu.Lock()
	e.tabs[tab] = rows
	e.exports++
	e.mu.Unlock()
	slog.InfoContext(ctx, "Sheet tab exported (memory)", "tab", tab, "rows", len(rows))
}

// Tab returns a copy of the rows last written to tab.
func (e *Exporter) Tab(tab string) ([][]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, ok := e.tabs[tab]
	if !ok {
		return nil, false
	}
	return append([][]any(nil), rows...), true
}

// Exports counts every export performed.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
