package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"orderdesk/internal/config"
	"orderdesk/internal/logger"
)

var version = "1.0.0"

// cfg is set by Execute before any command runs.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "orderdesk",
	Short: "Orderdesk - review and correct orders extracted from invoices",
	Long: `Orderdesk is the operator console for the invoice extraction service.

Upload invoice files, follow the background extraction job until it
finishes, then review and correct the resulting orders. Line edits are
recalculated locally so totals always match the lines before saving.

The order service URL is read from ORDERDESK_API_URL (default
http://localhost:5001) and can be overridden with --api-url.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("api-url") {
			cfg.APIURL, _ = cmd.Flags().GetString("api-url")
		}
		if cmd.Flags().Changed("timeout") {
			cfg.HTTPTimeout, _ = cmd.Flags().GetDuration("timeout")
		}
		noColor, _ := cmd.Flags().GetBool("no-color")
		colors.Disable = noColor
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Orderdesk CLI executed")
		return cmd.Help()
	},
}

// Execute runs the root command with c as the base configuration.
func Execute(c *config.Config) {
	log := logger.WithComponent("cmd")
	if c != nil {
		cfg = c
	}

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("api-url", "", "Order service base URL (default from ORDERDESK_API_URL)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Per-request HTTP timeout (default from HTTP_TIMEOUT)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable coloured output")
}
