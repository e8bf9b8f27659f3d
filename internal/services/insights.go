package services

import (
	"fmt"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Insight is one advice card shown on the dashboard.
type Insight struct {
	Type    string `json:"type"`
	Color   string `json:"color"`
	Icon    string `json:"icon"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// InsightInput is everything the insight generator looks at.
type InsightInput struct {
	Metrics      Metrics
	Transactions []core.Transaction
	Goals        []core.Goal
	Currency     string
}

// habitsThreshold is the used-budget percentage above which spending habits
// are flagged.
var habitsThreshold = decimal.NewFromInt(80)

// GenerateInsights returns the five insight cards in display order:
// savings, spending, goals, habits, budget.
func GenerateInsights(in InsightInput) []Insight {
	m := in.Metrics

	savings := "Start tracking your income to see your savings rate."
	if m.SavingsRate.IsPositive() {
		savings = fmt.Sprintf("Excellent! You're saving %s%% of your income this month.", core.FormatPercent(m.SavingsRate))
	}

	spending := "No spending data available yet."
	if top, ok := TopCategory(CategoryBreakdown(in.Transactions, m.Month)); ok {
		spending = fmt.Sprintf("Your top spending is %s: %s this month.", top.Category, core.FormatMoney(top.Amount, in.Currency))
	}

	goals := "Set your first goal to start tracking progress!"
	if g, progress, ok := topGoal(in.Goals); ok {
		goals = fmt.Sprintf("%s is %s%% complete - keep it up!", g.Name, core.FormatPercent(progress))
	}

	habits := "You're approaching your budget limit - watch your spending!"
	if m.UsedPercent.LessThan(habitsThreshold) {
		habits = "Great spending discipline this month!"
	}

	return []Insight{
		{Type: "savings", Color: "green", Icon: "TrendingUp", Title: "Savings Analysis", Message: savings},
		{Type: "spending", Color: "red", Icon: "ShoppingBag", Title: "Spending Pattern", Message: spending},
		{Type: "goals", Color: "purple", Icon: "Target", Title: "Goal Progress", Message: goals},
		{Type: "habits", Color: "indigo", Icon: "Calendar", Title: "Spending Habits", Message: habits},
		{Type: "budget", Color: "green", Icon: "DollarSign", Title: "Budget Status",
			Message: fmt.Sprintf("Budget looking good: %s%% used", core.FormatPercent(m.UsedPercent))},
	}
}

// GoalProgress returns current/target as a percentage.
func GoalProgress(g core.Goal) decimal.Decimal {
	return core.Percent(core.ParseAmount(g.Current), core.ParseAmount(g.Target))
}

// topGoal picks the goal with the highest progress; ties keep list order.
func topGoal(goals []core.Goal) (core.Goal, decimal.Decimal, bool) {
	if len(goals) == 0 {
		return core.Goal{}, decimal.Zero, false
	}
	best, bestProgress := goals[0], GoalProgress(goals[0])
	for _, g := range goals[1:] {
		if p := GoalProgress(g); p.GreaterThan(bestProgress) {
			best, bestProgress = g, p
		}
	}
	return best, bestProgress, true
}

var (
	strongSavings = decimal.NewFromInt(20)
	fairSavings   = decimal.NewFromInt(10)
)

// QuickTip returns the one-line advisor hint for the dashboard.
func QuickTip(m Metrics) string {
	switch {
	case m.SavingsRate.GreaterThan(strongSavings):
		return "Great financial discipline! You're saving well above average. Consider increasing your emergency fund goal."
	case m.SavingsRate.GreaterThan(fairSavings):
		return "You're staying within budget. Consider setting up automatic transfers to boost your savings rate."
	default:
		return "Your expenses are high this month. I can help you find areas to optimize - just ask!"
	}
}
