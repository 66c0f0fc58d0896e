package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"orderdesk/internal/logger"
	"orderdesk/internal/poller"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show order count and value totals",
	Example: `  orderdesk stats
  orderdesk stats --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Bool("json", false, "Print raw JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("stats")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := newApp(poller.Options{}, log)
	if err != nil {
		return err
	}
	ctx, cancel := createCommandContext(cfg.HTTPTimeout, log)
	defer cancel()

	s, err := a.client.Stats(ctx)
	if err != nil {
		return handleServiceError(err, "fetching stats", log)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	fmt.Fprintf(out, "Total orders:        %d\n", s.TotalOrders)
	fmt.Fprintf(out, "Total value:         %.2f\n", s.TotalValue)
	fmt.Fprintf(out, "Average order value: %.2f\n", s.AverageOrderValue)
	return nil
}
