// Package cli implements the bahi command-line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bahi",
	Short: "Bahi — credit ledger for small shops",
	Long: `Bahi keeps a small shop's credit ledger: customers, udhaar sales,
payment reconciliation and overdue reminders over SMS and WhatsApp.

Run 'bahi serve' to start the API daemon.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.bahi/config.toml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
