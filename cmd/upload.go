package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"orderdesk/internal/logger"
	"orderdesk/internal/poller"
	"orderdesk/internal/upload"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [invoice-file]",
	Short: "Upload an invoice and wait for the extracted order",
	Long: `Upload an invoice file to the order service. The service creates a
provisional order immediately and extracts the invoice in the background;
this command follows the extraction job until it succeeds, fails or runs
out of attempts, then prints the resulting order.

Supported formats: PDF, JPG, JPEG, PNG and GIF, up to 16MB.`,
	Example: `  # Upload and wait for extraction
  orderdesk upload invoice.pdf

  # Upload only; check later with 'orderdesk watch'
  orderdesk upload scan.png --no-wait

  # Poll faster and give up sooner
  orderdesk upload invoice.pdf --interval 1s --max-attempts 20`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

var watchCmd = &cobra.Command{
	Use:   "watch [task-id]",
	Short: "Follow an extraction job started earlier",
	Example: `  orderdesk watch 3f1c2a9e-5b7d-4c1e-9a0b-1d2e3f4a5b6c --order 42`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(uploadCmd, watchCmd)

	for _, c := range []*cobra.Command{uploadCmd, watchCmd} {
		c.Flags().Duration("interval", 0, "Delay between job status checks (default from POLL_INTERVAL)")
		c.Flags().Int("max-attempts", 0, "Status checks before giving up (default from POLL_MAX_ATTEMPTS)")
		c.Flags().Bool("no-progress", false, "Do not draw a progress bar")
	}
	uploadCmd.Flags().Bool("no-wait", false, "Return after the upload without following the job")
	watchCmd.Flags().Int64("order", 0, "Order the job fills (required)")
	_ = watchCmd.MarkFlagRequired("order")
}

// pollOptions reads the polling flags and wires a progress bar to the
// attempt hook. The returned func finishes the bar.
func pollOptions(cmd *cobra.Command) (poller.Options, func()) {
	interval, _ := cmd.Flags().GetDuration("interval")
	maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	if interval <= 0 {
		interval = cfg.PollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = cfg.PollMaxAttempts
	}

	opts := poller.Options{Interval: interval, MaxAttempts: maxAttempts}
	if noProgress {
		return opts, func() {}
	}

	bar := progressbar.NewOptions(maxAttempts,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Processing invoice"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	finish := func() { _ = bar.Finish() }
	opts.OnAttempt = func(jobID string, a poller.Attempt) {
		_ = bar.Set(a.N)
		if a.Err == nil {
			bar.Describe(fmt.Sprintf("Processing invoice (%s)", a.State))
		}
		if a.State.Terminal() || a.N >= a.Max {
			finish()
		}
	}
	return opts, finish
}

func runUpload(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("upload")
	noWait, _ := cmd.Flags().GetBool("no-wait")
	path := args[0]

	if _, err := upload.ValidateFile(path); err != nil {
		return handleServiceError(err, "upload", log)
	}

	opts, finishBar := pollOptions(cmd)
	a, err := newApp(opts, log)
	if err != nil {
		return err
	}
	defer a.desk.Close()

	timeout := cfg.HTTPTimeout + time.Duration(opts.MaxAttempts)*opts.Interval + cfg.HTTPTimeout
	ctx, cancel := createCommandContext(timeout, log)
	defer cancel()

	coord := upload.NewCoordinator(a.client, a.desk, a.pollers, a.desk.Notifier())
	res, err := coord.Submit(ctx, path)
	if err != nil {
		return handleServiceError(err, "upload", log)
	}

	log.Info().
		Int64("order_id", res.OrderID).
		Str("task_id", res.JobID).
		Msg("Invoice accepted")

	if res.Handle == nil || noWait {
		fmt.Fprintf(cmd.OutOrStdout(), "Order %d created", res.OrderID)
		if res.JobID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "; follow it with: orderdesk watch %s --order %d", res.JobID, res.OrderID)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		finishBar()
		return nil
	}

	return waitForJob(ctx, cmd, a, res.Handle, finishBar, log)
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("watch")
	orderID, _ := cmd.Flags().GetInt64("order")
	taskID := args[0]

	opts, finishBar := pollOptions(cmd)
	a, err := newApp(opts, log)
	if err != nil {
		return err
	}
	defer a.desk.Close()

	timeout := time.Duration(opts.MaxAttempts)*opts.Interval + 2*cfg.HTTPTimeout
	ctx, cancel := createCommandContext(timeout, log)
	defer cancel()

	if _, err := a.desk.SelectByID(ctx, orderID); err != nil {
		return handleServiceError(err, "fetching order", log)
	}
	h, err := a.pollers.Start(ctx, taskID, orderID, a.desk.OnTerminal())
	if err != nil {
		return handleServiceError(err, "watching job", log)
	}
	return waitForJob(ctx, cmd, a, h, finishBar, log)
}

// waitForJob blocks until the poller finishes or ctx ends, then prints the
// displayed order.
func waitForJob(ctx context.Context, cmd *cobra.Command, a *app, h *poller.Handle, finishBar func(), log zerolog.Logger) error {
	select {
	case <-h.Done():
	case <-ctx.Done():
		h.Cancel()
		<-h.Done()
		finishBar()
		job := h.Job()
		fmt.Fprintf(cmd.ErrOrStderr(), "Job %s for order %d was still %s; run 'orderdesk watch %s --order %d' to resume.\n",
			job.ID, job.OrderID, job.State, job.ID, job.OrderID)
		return handleServiceError(ctx.Err(), "waiting for extraction", log)
	}
	finishBar()

	res, ok := h.Result()
	if !ok {
		return fmt.Errorf("extraction job %s was cancelled", h.JobID())
	}
	if sel := a.desk.Selected(); sel != nil && res.Outcome != poller.Timeout {
		fmt.Fprintln(cmd.OutOrStdout())
		printOrder(cmd.OutOrStdout(), sel)
	}
	if res.Outcome == poller.Failure {
		return fmt.Errorf("extraction failed for order %d", res.OrderID)
	}
	return nil
}
