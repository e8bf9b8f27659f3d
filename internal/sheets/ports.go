// Package sheets mirrors the ledger into a spreadsheet: one tab per month
// plus a goals tab. Each export rewrites its tab completely, so replaying an
// event is harmless.
package sheets

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// GoalsTab is the title of the tab holding the goal list.
const GoalsTab = "Goals"

type (
	// MonthExport is everything written to a month tab.
	MonthExport struct {
		Month        string
		Currency     string
		Metrics      services.Metrics
		Transactions []core.Transaction
	}

	// Exporter is the outbound port implemented by the Google and memory adapters.
	Exporter interface {
		// ExportMonth replaces the contents of the month's tab.
		ExportMonth(ctx context.Context, export MonthExport) error
		// ExportGoals replaces the contents of the goals tab.
		ExportGoals(ctx context.Context, goals []core.Goal) error
	}
)
