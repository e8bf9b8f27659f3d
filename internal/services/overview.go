package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"

	"golang.org/x/sync/errgroup"
)

// RecentLimit is how many transactions the overview lists.
const RecentLimit = 5

// Overview is the dashboard payload for one month.
type Overview struct {
	Month     string             `json:"month"`
	Currency  string             `json:"currency"`
	Metrics   Metrics            `json:"metrics"`
	Breakdown []CategoryTotal    `json:"breakdown"`
	Pie       []PieSlice         `json:"pie"`
	Recent    []core.Transaction `json:"recent"`
	Insights  []Insight          `json:"insights"`
	QuickTip  string             `json:"quickTip"`
}

type ledgerSnapshot struct {
	user  core.User
	txs   []core.Transaction
	goals []core.Goal
}

// snapshot loads the user, transactions and goals concurrently.
func (s *LedgerService) snapshot(ctx context.Context, userID string) (ledgerSnapshot, error) {
	var snap ledgerSnapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.store.GetUser(ctx, userID)
		snap.user = u
		return err
	})
	g.Go(func() error {
		txs, err := s.store.ListTransactions(ctx, userID)
		snap.txs = txs
		return err
	})
	g.Go(func() error {
		goals, err := s.store.ListGoals(ctx, userID)
		snap.goals = goals
		return err
	})
	if err := g.Wait(); err != nil {
		return ledgerSnapshot{}, fmt.Errorf("load ledger: %w", err)
	}
	return snap, nil
}

// Overview computes the dashboard for month; an empty month means the current one.
func (s *LedgerService) Overview(ctx context.Context, userID, month string) (Overview, error) {
	month, err := resolveMonth(month)
	if err != nil {
		return Overview{}, err
	}
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return Overview{}, err
	}

	metrics := ComputeMetrics(snap.txs, month)
	breakdown := CategoryBreakdown(snap.txs, month)
	if breakdown == nil {
		breakdown = []CategoryTotal{}
	}
	pie := PieSlices(metrics)
	if pie == nil {
		pie = []PieSlice{}
	}
	recent := RecentTransactions(snap.txs, month, RecentLimit)
	if recent == nil {
		recent = []core.Transaction{}
	}

	return Overview{
		Month:     month,
		Currency:  snap.user.Currency,
		Metrics:   metrics,
		Breakdown: breakdown,
		Pie:       pie,
		Recent:    recent,
		Insights: GenerateInsights(InsightInput{
			Metrics:      metrics,
			Transactions: snap.txs,
			Goals:        snap.goals,
			Currency:     snap.user.Currency,
		}),
		QuickTip: QuickTip(metrics),
	}, nil
}

// Calendar returns the month's per-day totals.
func (s *LedgerService) Calendar(ctx context.Context, userID, month string) ([]DayTotal, error) {
	month, err := resolveMonth(month)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	days := DailyTotals(txs, month)
	if days == nil {
		days = []DayTotal{}
	}
	return days, nil
}

func resolveMonth(month string) (string, error) {
	if month == "" {
		return core.CurrentMonth(time.Now()), nil
	}
	if !core.ValidMonth(month) {
		return "", &core.ValidationError{Field: "month", Message: "month must be in YYYY-MM format"}
	}
	return month, nil
}
