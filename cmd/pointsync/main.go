// Command pointsync is the operator CLI for the Loyverse points notifier.
//
// Usage:
//
//	pointsync customers
//	pointsync customers --json
//	pointsync check --ticks 3 --interval 1m
//	pointsync journal prune --days 30
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/pointsync/internal/cache"
	"github.com/albapepper/pointsync/internal/config"
	"github.com/albapepper/pointsync/internal/db"
	"github.com/albapepper/pointsync/internal/logging"
	"github.com/albapepper/pointsync/internal/notifications"
	"github.com/albapepper/pointsync/internal/provider/loyverse"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pointsync",
		Short: "Loyverse points change notifier CLI",
	}

	root.AddCommand(customersCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(journalCmd())
	return root
}

// --------------------------------------------------------------------------
// customers command
// --------------------------------------------------------------------------

func customersCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Fetch and print the current customers list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run((*config.Config).ValidateSource, func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
				client := newClient(cfg, logger)
				customers, err := client.ListCustomers(ctx)
				if err != nil {
					return fmt.Errorf("list customers: %w", err)
				}
				return printCustomers(cmd.OutOrStdout(), customers, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print customers as JSON")
	return cmd
}

func printCustomers(w io.Writer, customers []loyverse.Customer, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(customers)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPOINTS\tEMAIL")
	for _, c := range customers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Points.String(), c.Email)
	}
	return tw.Flush()
}

// --------------------------------------------------------------------------
// check command
// --------------------------------------------------------------------------

func checkCmd() *cobra.Command {
	var (
		ticks    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run point update checks in the foreground",
		Long: "Runs --ticks checks, --interval apart. The first check only " +
			"initializes the balance cache; later checks post webhooks for changes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ticks < 1 {
				return fmt.Errorf("--ticks must be at least 1")
			}
			return run(validateCheck, func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
				sender := notifications.NewWebhookSender(cfg.WebhookURL, cfg.WebhookSecret, cfg.WebhookTimeout)
				detector := notifications.NewDetector(newClient(cfg, logger), sender, cache.New(), nil, logger)
				return runChecks(ctx, detector, ticks, interval, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 2, "Number of checks to run (the first only initializes)")
	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "Delay between checks")
	return cmd
}

func validateCheck(cfg *config.Config) error {
	return errors.Join(cfg.ValidateSource(), cfg.ValidateWebhook())
}

type ticker interface {
	Tick(ctx context.Context) notifications.TickResult
}

func runChecks(ctx context.Context, t ticker, ticks int, interval time.Duration, out io.Writer) error {
	for i := 1; i <= ticks; i++ {
		result := t.Tick(ctx)
		fmt.Fprintf(out, "check %d/%d: %s\n", i, ticks, result.Summary())
		for _, o := range result.Outcomes {
			status := "sent"
			if o.Error != "" {
				status = "failed: " + o.Error
			}
			fmt.Fprintf(out, "  %s %s -> %s (%s)\n", o.CustomerID, o.Previous, o.Points, status)
		}

		if i == ticks {
			break
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// journal command
// --------------------------------------------------------------------------

func journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Manage the webhook delivery journal",
	}
	cmd.AddCommand(journalPruneCmd())
	return cmd
}

func journalPruneCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal rows older than --days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			return run((*config.Config).ValidateDatabase, func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
				pool, err := db.New(ctx, cfg)
				if err != nil {
					return fmt.Errorf("connect to database: %w", err)
				}
				defer pool.Close()

				n, err := notifications.NewPGJournal(pool).Prune(ctx, time.Duration(days)*24*time.Hour)
				if err != nil {
					return err
				}
				logger.Info("Journal pruned", "deleted", n, "older_than_days", days)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Retention in days")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

func newClient(cfg *config.Config, logger *slog.Logger) *loyverse.Client {
	return loyverse.NewClient(cfg.LoyverseAPIURL, cfg.LoyverseAPIToken,
		cfg.LoyverseTimeout, cfg.LoyverseRequestsPerMin, logger)
}

// run handles config loading, logger setup, and context cancellation.
// validate checks only the settings the command uses.
func run(validate func(*config.Config) error, fn func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Read()
	if err := validate(cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewWithWriter(cfg, os.Stderr)
	slog.SetDefault(logger)

	return fn(ctx, cfg, logger)
}
