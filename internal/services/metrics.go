package services

import (
	"encoding/json"
	"slices"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// MonthlyBudget is the fixed monthly spending budget. It is not yet configurable
// per user.
const MonthlyBudget = 2500

var (
	budget  = decimal.NewFromInt(MonthlyBudget)
	hundred = decimal.NewFromInt(100)
)

// Metrics summarises one month of transactions.
type Metrics struct {
	Month       string
	Income      decimal.Decimal
	Expenses    decimal.Decimal
	Budget      decimal.Decimal
	UsedPercent decimal.Decimal
	Remaining   decimal.Decimal
	SavingsRate decimal.Decimal
}

// MarshalJSON renders amounts and percentages as two-decimal strings.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Month       string `json:"month"`
		Income      string `json:"income"`
		Expenses    string `json:"expenses"`
		Budget      string `json:"budget"`
		UsedPercent string `json:"usedPercent"`
		Remaining   string `json:"remaining"`
		SavingsRate string `json:"savingsRate"`
	}{
		Month:       m.Month,
		Income:      m.Income.StringFixed(2),
		Expenses:    m.Expenses.StringFixed(2),
		Budget:      m.Budget.StringFixed(2),
		UsedPercent: m.UsedPercent.StringFixed(2),
		Remaining:   m.Remaining.StringFixed(2),
		SavingsRate: m.SavingsRate.StringFixed(2),
	})
}

// ComputeMetrics derives the monthly figures for month ("YYYY-MM").
// Amounts that do not parse count as zero.
func ComputeMetrics(txs []core.Transaction, month string) Metrics {
	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range txs {
		if !t.InMonth(month) {
			continue
		}
		switch t.Type {
		case core.Income:
			income = income.Add(core.ParseAmount(t.Amount))
		case core.Expense:
			expenses = expenses.Add(core.ParseAmount(t.Amount))
		}
	}

	m := Metrics{
		Month:       month,
		Income:      income,
		Expenses:    expenses,
		Budget:      budget,
		UsedPercent: core.Percent(expenses, budget),
		Remaining:   budget.Sub(expenses),
		SavingsRate: decimal.Zero,
	}
	if income.IsPositive() {
		m.SavingsRate = income.Sub(expenses).Div(income).Mul(hundred)
	}
	return m
}

// CategoryTotal is the expense total of one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// CategoryBreakdown sums the month's expenses per category in first-seen order.
func CategoryBreakdown(txs []core.Transaction, month string) []CategoryTotal {
	var out []CategoryTotal
	index := map[string]int{}
	for _, t := range txs {
		if t.Type != core.Expense || !t.InMonth(month) {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryTotal{Category: t.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(core.ParseAmount(t.Amount))
	}
	return out
}

// TopCategory returns the largest expense category. Ties keep the first seen.
func TopCategory(breakdown []CategoryTotal) (CategoryTotal, bool) {
	if len(breakdown) == 0 {
		return CategoryTotal{}, false
	}
	top := breakdown[0]
	for _, c := range breakdown[1:] {
		if c.Amount.GreaterThan(top.Amount) {
			top = c
		}
	}
	return top, true
}

// DayTotal is one calendar cell: the day's net amount and its transactions.
type DayTotal struct {
	Date         string             `json:"date"`
	Day          int                `json:"day"`
	Income       decimal.Decimal    `json:"income"`
	Expenses     decimal.Decimal    `json:"expenses"`
	Net          decimal.Decimal    `json:"net"`
	Transactions []core.Transaction `json:"transactions"`
}

// DailyTotals groups the month's transactions by day, ordered by date.
func DailyTotals(txs []core.Transaction, month string) []DayTotal {
	byDate := map[string]*DayTotal{}
	var dates []string
	for _, t := range txs {
		if !t.InMonth(month) {
			continue
		}
		d, ok := byDate[t.Date]
		if !ok {
			d = &DayTotal{Date: t.Date, Day: t.Day(), Income: decimal.Zero, Expenses: decimal.Zero, Net: decimal.Zero}
			byDate[t.Date] = d
			dates = append(dates, t.Date)
		}
		amount := core.ParseAmount(t.Amount)
		if t.Type == core.Income {
			d.Income = d.Income.Add(amount)
			d.Net = d.Net.Add(amount)
		} else {
			d.Expenses = d.Expenses.Add(amount)
			d.Net = d.Net.Sub(amount)
		}
		d.Transactions = append(d.Transactions, t)
	}

	slices.Sort(dates)
	out := make([]DayTotal, len(dates))
	for i, date := range dates {
		out[i] = *byDate[date]
	}
	return out
}

// PieSlice is one segment of the income/expense/savings chart.
type PieSlice struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Color string          `json:"color"`
}

// PieSlices returns the non-empty income, expense and savings segments.
func PieSlices(m Metrics) []PieSlice {
	var out []PieSlice
	if m.Income.IsPositive() {
		out = append(out, PieSlice{Name: "Income", Value: m.Income, Color: "chart-1"})
	}
	if m.Expenses.IsPositive() {
		out = append(out, PieSlice{Name: "Expense", Value: m.Expenses, Color: "chart-2"})
	}
	if savings := m.Income.Sub(m.Expenses); savings.IsPositive() {
		out = append(out, PieSlice{Name: "Savings", Value: savings, Color: "primary"})
	}
	return out
}

// RecentTransactions returns up to limit transactions of the month, newest date first.
func RecentTransactions(txs []core.Transaction, month string, limit int) []core.Transaction {
	var out []core.Transaction
	for _, t := range txs {
		if t.InMonth(month) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		switch {
		case a.Date > b.Date:
			return -1
		case a.Date < b.Date:
			return 1
		}
		return 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
