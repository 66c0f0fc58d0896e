package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mitchellh/colorstring"
	"github.com/rs/zerolog"

	"orderdesk/internal/api"
	"orderdesk/internal/desk"
	"orderdesk/internal/poller"
	"orderdesk/internal/recalc"
)

var colors = &colorstring.Colorize{
	Colors: colorstring.DefaultColors,
	Reset:  true,
}

// printNotice writes a notice with a coloured marker. The text itself is
// printed verbatim so server messages cannot inject colour codes.
func printNotice(n desk.Notice) {
	var marker string
	switch n.Level {
	case desk.LevelSuccess:
		marker = "[green]✓"
	case desk.LevelWarning:
		marker = "[yellow]!"
	case desk.LevelError:
		marker = "[red]✗"
	default:
		marker = "[cyan]•"
	}
	out := os.Stdout
	if n.Level == desk.LevelError {
		out = os.Stderr
	}
	fmt.Fprintf(out, "%s %s\n", colors.Color("[bold]"+marker), n.Text)
}

// app is the wiring shared by commands that talk to the order service.
type app struct {
	client  *api.Client
	pollers *poller.Registry
	desk    *desk.Desk
}

func newApp(pollOpts poller.Options, log zerolog.Logger) (*app, error) {
	client, err := api.NewClient(cfg.APIURL, api.WithTimeout(cfg.HTTPTimeout))
	if err != nil {
		log.Error().Err(err).Str("api_url", cfg.APIURL).Msg("Invalid order service URL")
		return nil, err
	}

	policy, err := recalc.NewTaxPolicy(cfg.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rate: %w", err)
	}

	if pollOpts.Interval == 0 {
		pollOpts.Interval = cfg.PollInterval
	}
	if pollOpts.MaxAttempts == 0 {
		pollOpts.MaxAttempts = cfg.PollMaxAttempts
	}
	reg := poller.NewRegistry(poller.New(client, pollOpts))

	d := desk.New(client, reg, desk.Options{
		Engine:          recalc.NewEngine(policy),
		Notifier:        desk.NotifierFunc(printNotice),
		CallbackTimeout: cfg.HTTPTimeout,
	})
	return &app{client: client, pollers: reg, desk: d}, nil
}

// createCommandContext creates a context with timeout and signal handling.
func createCommandContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
