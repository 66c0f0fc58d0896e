package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"orderdesk/internal/api"
	"orderdesk/internal/desk"
	"orderdesk/internal/poller"
	"orderdesk/internal/sheets"
	"orderdesk/internal/upload"
)

// handleServiceError turns errors from the order service and the local
// components into messages an operator can act on.
func handleServiceError(err error, action string, log zerolog.Logger) error {
	log.Error().Err(err).Str("action", action).Msg("Command failed")

	var apiErr *api.Error
	var vErr *desk.ValidationError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s timed out. Try increasing --timeout", action)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s was canceled", action)
	case errors.Is(err, api.ErrUnavailable):
		return fmt.Errorf("cannot connect to the order service at %s. Is the backend running?", cfg.APIURL)
	case errors.Is(err, api.ErrNotFound):
		return fmt.Errorf("%s failed: order not found", action)
	case errors.As(err, &apiErr):
		return fmt.Errorf("%s failed: %s", action, apiErr.UserMessage())
	case errors.As(err, &vErr):
		return fmt.Errorf("invalid %s: %s", vErr.Field, vErr.Message)
	case errors.Is(err, upload.ErrUnsupportedFormat):
		return fmt.Errorf("%v. Supported formats are PDF and images", err)
	case errors.Is(err, upload.ErrFileTooLarge):
		return fmt.Errorf("file is too large (maximum 16MB). Try compressing or splitting the file")
	case errors.Is(err, upload.ErrEmptyFile):
		return fmt.Errorf("%v", err)
	case errors.Is(err, poller.ErrAlreadyPolling):
		return fmt.Errorf("this job is already being watched")
	case errors.Is(err, sheets.ErrMissingCredentials):
		return fmt.Errorf("missing Google credentials. Please set one of:\n" +
			"  GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n" +
			"  GOOGLE_CREDENTIALS='<json-credentials>'")
	default:
		return fmt.Errorf("%s failed: %w", action, err)
	}
}
