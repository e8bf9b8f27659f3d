package sheets

import (
	"slices"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// Row layout shared by every adapter.
var (
	transactionHeader = []any{"Date", "Description", "Category", "Type", "Amount"}
	goalHeader        = []any{"Name", "Target", "Current", "Progress %", "Color"}
)

// MonthRows renders a month tab: a summary block, a blank row, then the
// month's transactions oldest first.
func MonthRows(e MonthExport) [][]any {
	m := e.Metrics
	rows := [][]any{
		{"Month", e.Month},
		{"Currency", e.Currency},
		{"Income", m.Income.StringFixed(2)},
		{"Expenses", m.Expenses.StringFixed(2)},
		{"Budget", m.Budget.StringFixed(2)},
		{"Budget used %", m.UsedPercent.StringFixed(2)},
		{"Remaining", m.Remaining.StringFixed(2)},
		{"Savings rate %", m.SavingsRate.StringFixed(2)},
		{},
		transactionHeader,
	}

	var txs []core.Transaction
	for _, t := range e.Transactions {
		if t.InMonth(e.Month) {
			txs = append(txs, t)
		}
	}
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	for _, t := range txs {
		rows = append(rows, []any{t.Date, t.Label, t.Category, string(t.Type), t.Amount})
	}
	return rows
}

// GoalRows renders the goals tab in the order given.
func GoalRows(goals []core.Goal) [][]any {
	rows := [][]any{goalHeader}
	for _, g := range goals {
		rows = append(rows, []any{
			g.Name, g.Target, g.Current,
			core.FormatPercent(services.GoalProgress(g)), g.Color,
		})
	}
	return rows
}
