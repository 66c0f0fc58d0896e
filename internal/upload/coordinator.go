// Package upload submits invoice files and wires the resulting extraction
// job to a poller whose outcome is applied to the desk.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"orderdesk/internal/api"
	"orderdesk/internal/desk"
	"orderdesk/internal/logger"
	"orderdesk/internal/poller"
	"orderdesk/pkg/models"
)

const msgQueued = "Invoice uploaded and queued for processing!"

// Uploader sends one file to the order service.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (*api.UploadResult, error)
}

// Result describes an accepted submission. Handle is nil when the server
// processed the file synchronously.
type Result struct {
	JobID   string
	OrderID int64
	Order   *models.Order
	Handle  *poller.Handle
}

// Coordinator runs the submit, select, poll sequence.
type Coordinator struct {
	client  Uploader
	desk    *desk.Desk
	pollers *poller.Registry
	notify  desk.Notifier
	log     zerolog.Logger
}

// NewCoordinator wires a coordinator. pollers must be the registry the desk
// cancels on selection change.
func NewCoordinator(client Uploader, d *desk.Desk, pollers *poller.Registry, notify desk.Notifier) *Coordinator {
	if notify == nil {
		notify = desk.NotifierFunc(func(desk.Notice) {})
	}
	return &Coordinator{
		client:  client,
		desk:    d,
		pollers: pollers,
		notify:  notify,
		log:     logger.WithComponent("upload"),
	}
}

// Submit validates and uploads path. ctx bounds the upload request and the
// lifetime of the poller it starts.
func (c *Coordinator) Submit(ctx context.Context, path string) (*Result, error) {
	if _, err := ValidateFile(path); err != nil {
		c.log.Error().Err(err).Str("file", path).Msg("Rejected invoice file")
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open invoice file: %w", err)
	}
	defer f.Close()

	return c.SubmitReader(ctx, filepath.Base(path), f)
}

// SubmitReader uploads content under filename. Only the name is validated.
func (c *Coordinator) SubmitReader(ctx context.Context, filename string, content io.Reader) (*Result, error) {
	if err := CheckName(filename); err != nil {
		return nil, err
	}

	c.log.Info().Str("file", filename).Msg("Uploading invoice")
	up, err := c.client.Upload(ctx, filename, content)
	if err != nil {
		c.log.Error().Err(err).Str("file", filename).Msg("Upload failed")
		c.notify.Notify(desk.Notice{
			Level: desk.LevelError,
			Text:  "Failed to upload invoice: " + api.UserMessage(err, "request failed"),
		})
		return nil, err
	}

	res := &Result{JobID: up.TaskID, OrderID: up.OrderID, Order: up.Order}
	log := logger.WithJob(c.log, res.JobID, res.OrderID)

	if up.Order != nil {
		c.desk.Select(up.Order)
	}
	_ = c.desk.Refresh(ctx)

	msg := up.Message
	if msg == "" {
		msg = msgQueued
	}
	c.notify.Notify(desk.Notice{Level: desk.LevelSuccess, Text: msg, OrderID: res.OrderID})

	if res.JobID == "" {
		log.Info().Msg("Invoice processed synchronously")
		return res, nil
	}

	if h, ok := c.pollers.Active(res.JobID); ok {
		// the server deduplicated the upload onto a job we already watch
		res.Handle = h
		log.Info().Msg("Job already being polled")
		return res, nil
	}
	h, err := c.pollers.Start(ctx, res.JobID, res.OrderID, c.desk.OnTerminal())
	if err != nil {
		log.Error().Err(err).Msg("Failed to start poller")
		return res, fmt.Errorf("failed to watch job %s: %w", res.JobID, err)
	}
	res.Handle = h
	log.Info().Msg("Polling extraction job")
	return res, nil
}
