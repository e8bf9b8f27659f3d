// Package worker mirrors ledger changes into the spreadsheet exporter.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"

	"github.com/robfig/cron/v3"
)

// LedgerReader is the part of the store the worker reads.
type LedgerReader interface {
	storage.UserStore
	storage.TransactionStore
	storage.GoalStore
}

// ExportWorker rebuilds spreadsheet tabs from the store. It never trusts the
// event payload beyond the user and month it names.
type ExportWorker struct {
	store    LedgerReader
	exporter sheets.Exporter
	now      func() time.Time
}

func NewExportWorker(store LedgerReader, exporter sheets.Exporter) *ExportWorker {
	return &ExportWorker{store: store, exporter: exporter, now: time.Now}
}

// WithClock replaces the clock used to pick the current month.
func (w *ExportWorker) WithClock(now func() time.Time) *ExportWorker {
	w.now = now
	return w
}

// HandleLedgerEvent processes a single ledger event from AMQP.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"type", ev.Type,
		"entity_id", ev.EntityID,
		"user_id", ev.UserID,
		"month", ev.Month)

	if ev.Type.IsTransaction() {
		month := ev.Month
		if month == "" {
			month = core.CurrentMonth(w.now())
		}
		return w.ExportMonth(ctx, ev.UserID, month)
	}
	return w.ExportGoals(ctx, ev.UserID)
}

// ExportMonth rewrites the month tab for userID.
func (w *ExportWorker) ExportMonth(ctx context.Context, userID, month string) error {
	if !core.ValidMonth(month) {
		return fmt.Errorf("invalid month %q", month)
	}

	currency := core.DefaultCurrency
	u, err := w.store.GetUser(ctx, userID)
	switch {
	case err == nil:
		currency = u.Currency
	case errors.Is(err, core.ErrNotFound):
		slog.WarnContext(ctx, "User not found, exporting with default currency", "user_id", userID)
	default:
		return fmt.Errorf("load user: %w", err)
	}

	txs, err := w.store.ListTransactions(ctx, userID)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	export := sheets.MonthExport{
		Month:        month,
		Currency:     currency,
		Metrics:      services.ComputeMetrics(txs, month),
		Transactions: txs,
	}
	if err := w.exporter.ExportMonth(ctx, export); err != nil {
		return fmt.Errorf("export month %s: %w", month, err)
	}
	return nil
}

// ExportGoals rewrites the goals tab for userID.
func (w *ExportWorker) ExportGoals(ctx context.Context, userID string) error {
	goals, err := w.store.ListGoals(ctx, userID)
	if err != nil {
		return fmt.Errorf("list goals: %w", err)
	}
	if err := w.exporter.ExportGoals(ctx, goals); err != nil {
		return fmt.Errorf("export goals: %w", err)
	}
	return nil
}

// ExportCurrent exports the current month and the goals. Used at startup and
// by the schedule to recover from missed events.
func (w *ExportWorker) ExportCurrent(ctx context.Context, userID string) error {
	month := core.CurrentMonth(w.now())
	monthErr := w.ExportMonth(ctx, userID, month)
	goalsErr := w.ExportGoals(ctx, userID)
	if err := errors.Join(monthErr, goalsErr); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Full export completed", "user_id", userID, "month", month)
	return nil
}

// Schedule registers ExportCurrent on a standard five-field cron spec. The
// caller starts and stops the returned scheduler.
func (w *ExportWorker) Schedule(ctx context.Context, spec, userID string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := w.ExportCurrent(ctx, userID); err != nil {
			slog.ErrorContext(ctx, "Scheduled export failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule export %q: %w", spec, err)
	}
	return c, nil
}
