package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bahi-ledger/bahi/internal/app/reminder"
	"github.com/bahi-ledger/bahi/internal/daemon"
	"github.com/bahi-ledger/bahi/internal/domain"
	"github.com/bahi-ledger/bahi/internal/infra/messaging"
	"github.com/bahi-ledger/bahi/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().Bool("dry-run", false, "age sales without sending reminders")
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one reminder sweep now",
	Long: `Run a single reminder sweep against the local ledger: sales pending
past the overdue threshold get one reminder attempt and move to OVERDUE.
Useful from cron, or when the daemon is not running.`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sqlite.Open(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	var messenger domain.Messenger
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if !dryRun && cfg.Messaging.Enabled() {
		messenger = messaging.New(messaging.Config{
			AccountSID: cfg.Messaging.AccountSID,
			AuthToken:  cfg.Messaging.AuthToken,
			BaseURL:    cfg.Messaging.BaseURL,
			SMSFrom:    cfg.Messaging.SMSFrom,
			WAFrom:     cfg.Messaging.WhatsAppFrom,
		})
	}
	if messenger == nil && !dryRun {
		fmt.Fprintln(os.Stderr, "messaging not configured; sales will age without reminders")
	}

	sweeper := reminder.New(db, messenger, time.Duration(cfg.Sweeper.OverdueAfterDays)*24*time.Hour)
	sum, err := sweeper.Sweep(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Sweep finished in %s\n", sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(os.Stdout, "  examined: %d\n", sum.Examined)
	fmt.Fprintf(os.Stdout, "  reminded: %d\n", sum.Reminded)
	fmt.Fprintf(os.Stdout, "  failed:   %d\n", sum.Failed)
	fmt.Fprintf(os.Stdout, "  skipped:  %d\n", sum.Skipped)
	fmt.Fprintf(os.Stdout, "  aged:     %d\n", sum.Aged)
	return nil
}
