package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/storage/postgres"
	"fintrack/internal/storage/sqlite"
	"fintrack/internal/worker"

	"github.com/spf13/cobra"
)

// Env is what the fintrackctl commands run against. The constructors are
// fields so tests can swap in the memory store and exporter.
type Env struct {
	Config *config.Config
	Logger *applog.Logger
	Out    io.Writer

	OpenStore   func(ctx context.Context) (*backend.StoreResult, error)
	NewExporter func(ctx context.Context) (sheets.Exporter, error)
	Migrate     func() error
	Now         func() time.Time
}

// NewEnv wires Env to the configured backends.
func NewEnv(cfg *config.Config, logger *applog.Logger) *Env {
	return &Env{
		Config: cfg,
		Logger: logger,
		Out:    os.Stdout,
		OpenStore: func(ctx context.Context) (*backend.StoreResult, error) {
			return OpenStore(ctx, logger, cfg)
		},
		NewExporter: func(ctx context.Context) (sheets.Exporter, error) {
			return NewExporter(ctx, logger, cfg)
		},
		Migrate: func() error { return RunMigrations(cfg) },
		Now:     time.Now,
	}
}

// RunMigrations applies the schema for the configured SQL backend.
func RunMigrations(cfg *config.Config) error {
	switch backend.BackendType(cfg.DataBackend) {
	case backend.SQLiteBackend:
		return sqlite.RunMigrations(cfg.SQLiteDBPath)
	case backend.PostgresBackend:
		return postgres.RunMigrations(cfg.DatabaseURL)
	default:
		return fmt.Errorf("backend %q has no schema to migrate", cfg.DataBackend)
	}
}

// NewRootCommand builds the fintrackctl command tree.
func NewRootCommand(env *Env) *cobra.Command {
	var userID string

	root := &cobra.Command{
		Use:           "fintrackctl",
		Short:         "FinTrack operations CLI",
		Long:          "Inspect and maintain a FinTrack ledger: migrations, monthly summaries, spreadsheet export and advisor chat.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(env.Out)
	root.PersistentFlags().StringVarP(&userID, "user", "u", env.Config.DemoUserID, "User ID to act on")

	root.AddCommand(
		newMigrateCommand(env),
		newSummaryCommand(env, &userID),
		newExportCommand(env, &userID),
		newChatCommand(env, &userID),
	)
	return root
}

// Execute runs fintrackctl and exits non-zero on error.
func Execute(env *Env) {
	root := NewRootCommand(env)
	if err := root.Execute(); err != nil {
		env.Logger.WithComponent(applog.ComponentCLI).Error("Command failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
}

func newMigrateCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := env.Migrate(); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", env.Config.DataBackend)
			return nil
		},
	}
}

func newSummaryCommand(env *Env, userID *string) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a month's metrics and insights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), env, func(res *backend.StoreResult) error {
				ledger := services.NewLedgerService(res.Store, nil)
				ov, err := ledger.Overview(cmd.Context(), *userID, month)
				if err != nil {
					return err
				}
				printSummary(cmd.OutOrStdout(), ov)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month in YYYY-MM format (default: current month)")
	return cmd
}

func printSummary(w io.Writer, ov services.Overview) {
	m := ov.Metrics

	fmt.Fprintf(w, "FinTrack summary %s\n\n", ov.Month)
	fmt.Fprintf(w, "  %-16s %s\n", "Income", core.FormatMoney(m.Income, ov.Currency))
	fmt.Fprintf(w, "  %-16s %s\n", "Expenses", core.FormatMoney(m.Expenses, ov.Currency))
	fmt.Fprintf(w, "  %-16s %s\n", "Budget", core.FormatMoney(m.Budget, ov.Currency))
	fmt.Fprintf(w, "  %-16s %s%%\n", "Budget used", core.FormatPercent(m.UsedPercent))
	fmt.Fprintf(w, "  %-16s %s\n", "Remaining", core.FormatMoney(m.Remaining, ov.Currency))
	fmt.Fprintf(w, "  %-16s %s%%\n", "Savings rate", core.FormatPercent(m.SavingsRate))

	if len(ov.Breakdown) > 0 {
		fmt.Fprintln(w, "\nBy category")
		for _, c := range ov.Breakdown {
			fmt.Fprintf(w, "  %-16s %s\n", c.Category, core.FormatMoney(c.Amount, ov.Currency))
		}
	}

	fmt.Fprintln(w, "\nInsights")
	for _, in := range ov.Insights {
		fmt.Fprintf(w, "  %s: %s\n", in.Title, in.Message)
	}
	fmt.Fprintf(w, "\nTip: %s\n", ov.QuickTip)
}

func newExportCommand(env *Env, userID *string) *cobra.Command {
	var month string
	var goals bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a month (and optionally the goals) to the spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if month == "" {
				month = core.CurrentMonth(env.Now())
			}
			if !core.ValidMonth(month) {
				return fmt.Errorf("invalid --month %q: must be YYYY-MM", month)
			}
			exporter, err := env.NewExporter(cmd.Context())
			if err != nil {
				return fmt.Errorf("create exporter: %w", err)
			}
			return withStore(cmd.Context(), env, func(res *backend.StoreResult) error {
				w := worker.NewExportWorker(res.Store, exporter).WithClock(env.Now)
				err := w.ExportMonth(cmd.Context(), *userID, month)
				if goals {
					err = errors.Join(err, w.ExportGoals(cmd.Context(), *userID))
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", month)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "Month in YYYY-MM format (default: current month)")
	cmd.Flags().BoolVar(&goals, "goals", true, "Also rewrite the Goals tab")
	return cmd
}

func newChatCommand(env *Env, userID *string) *cobra.Command {
	chat := &cobra.Command{
		Use:   "chat",
		Short: "Manage the advisor conversation",
	}
	chat.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the conversation and restore the welcome message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd.Context(), env, func(res *backend.StoreResult) error {
				if _, err := services.NewAdvisorService(res.Store, nil).Clear(cmd.Context(), *userID); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Conversation cleared")
				return nil
			})
		},
	})
	return chat
}

func withStore(ctx context.Context, env *Env, fn func(*backend.StoreResult) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := env.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				env.Logger.Warn("Failed to close store", applog.FieldError, err.Error())
			}
		}
	}()
	return fn(res)
}
