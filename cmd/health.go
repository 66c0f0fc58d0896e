package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"orderdesk/internal/logger"
	"orderdesk/internal/poller"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the order service is reachable",
	Example: `  orderdesk health
  orderdesk health --api-url http://orders.internal:5001`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("health")

	a, err := newApp(poller.Options{}, log)
	if err != nil {
		return err
	}
	ctx, cancel := createCommandContext(cfg.HTTPTimeout, log)
	defer cancel()

	h, err := a.client.Health(ctx)
	if err != nil {
		return handleServiceError(err, "health check", log)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is %s at %s\n", h.Service, h.Status, a.client.BaseURL())
	return nil
}
