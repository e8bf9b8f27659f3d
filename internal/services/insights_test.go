package services

import (
	"strings"
	"testing"

	"fintrack/internal/core"
)

func TestGenerateInsights(t *testing.T) {
	tests := []struct {
		name  string
		input InsightInput
		want  map[string]string
	}{
		{
			name:  "empty ledger",
			input: InsightInput{Metrics: ComputeMetrics(nil, "2024-03"), Currency: "USD"},
			want: map[string]string{
				"savings":  "Start tracking your income to see your savings rate.",
				"spending": "No spending data available yet.",
				"goals":    "Set your first goal to start tracking progress!",
				"habits":   "Great spending discipline this month!",
				"budget":   "Budget looking good: 0.0% used",
			},
		},
		{
			name: "march scenario",
			input: InsightInput{
				Metrics:      ComputeMetrics(marchLedger(), "2024-03"),
				Transactions: marchLedger(),
				Goals: []core.Goal{
					{Name: "Vacation", Target: "2000", Current: "500"},
					{Name: "Emergency Fund", Target: "10000", Current: "2500"},
				},
				Currency: "USD",
			},
			want: map[string]string{
				"savings":  "Excellent! You're saving 66.7% of your income this month.",
				"spending": "Your top spending is Food: $800.00 this month.",
				"goals":    "Vacation is 25.0% complete - keep it up!",
				"habits":   "Great spending discipline this month!",
				"budget":   "Budget looking good: 40.0% used",
			},
		},
		{
			name: "near budget limit in euros",
			input: InsightInput{
				Metrics: ComputeMetrics([]core.Transaction{
					tx(core.Expense, "2100", "Bills", "2024-03-05"),
				}, "2024-03"),
				Transactions: []core.Transaction{tx(core.Expense, "2100", "Bills", "2024-03-05")},
				Goals:        []core.Goal{{Name: "Car", Target: "4000", Current: "1000"}, {Name: "House", Target: "100", Current: "50"}},
				Currency:     "EUR",
			},
			want: map[string]string{
				"savings":  "Start tracking your income to see your savings rate.",
				"spending": "Your top spending is Bills: €2,100.00 this month.",
				"goals":    "House is 50.0% complete - keep it up!",
				"habits":   "You're approaching your budget limit - watch your spending!",
				"budget":   "Budget looking good: 84.0% used",
			},
		},
	}

	order := []string{"savings", "spending", "goals", "habits", "budget"}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateInsights(tt.input)
			if len(got) != len(order) {
				t.Fatalf("expected %d insights, got %d", len(order), len(got))
			}
			for i, ins := range got {
				if ins.Type != order[i] {
					t.Errorf("insight %d type = %s, want %s", i, ins.Type, order[i])
				}
				if ins.Message != tt.want[ins.Type] {
					t.Errorf("%s message = %q, want %q", ins.Type, ins.Message, tt.want[ins.Type])
				}
			}
		})
	}
}

func TestGoalProgress(t *testing.T) {
	tests := []struct {
		target, current, want string
	}{
		{"10000", "2500", "25.0"},
		{"10000", "3000", "30.0"},
		{"3", "1", "33.3"},
		{"100", "150", "150.0"},
		{"0", "10", "0.0"},
	}
	for _, tt := range tests {
		got := core.FormatPercent(GoalProgress(core.Goal{Target: tt.target, Current: tt.current}))
		if got != tt.want {
			t.Errorf("progress(%s/%s) = %s, want %s", tt.current, tt.target, got, tt.want)
		}
	}
}

func TestQuickTip(t *testing.T) {
	tests := []struct {
		name   string
		txs    []core.Transaction
		prefix string
	}{
		{"strong savings", marchLedger(), "Great financial discipline!"},
		{"fair savings", []core.Transaction{
			tx(core.Income, "1000", "Salary", "2024-03-01"),
			tx(core.Expense, "850", "Food", "2024-03-02"),
		}, "You're staying within budget."},
		{"no income", nil, "Your expenses are high this month."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuickTip(ComputeMetrics(tt.txs, "2024-03"))
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("QuickTip = %q, want prefix %q", got, tt.prefix)
			}
		})
	}
}
