// Package desk owns the operator's view of the order list: the displayed
// order, its unsaved draft, and the pollers started for it.
//
// All snapshot writes go through the desk mutex and replace whole values.
// Outcomes delivered by pollers re-check the selection under that mutex, so
// a late outcome for an order the operator has navigated away from only
// refreshes the list.
package desk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"orderdesk/internal/api"
	"orderdesk/internal/logger"
	"orderdesk/internal/poller"
	"orderdesk/internal/recalc"
	"orderdesk/pkg/models"
)

// DefaultCallbackTimeout bounds the fetches made when a poller finishes.
const DefaultCallbackTimeout = 30 * time.Second

// OrderStore is the part of the REST client the desk uses.
type OrderStore interface {
	BaseURL() string
	Health(ctx context.Context) (*api.Health, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*models.Stats, error)
}

// Options configure a Desk. Zero fields take defaults.
type Options struct {
	Engine          recalc.Engine
	Notifier        Notifier
	CallbackTimeout time.Duration
}

// Desk is the view-state owner.
type Desk struct {
	store   OrderStore
	pollers *poller.Registry
	engine  recalc.Engine
	notify  Notifier
	timeout time.Duration
	log     zerolog.Logger

	mu       sync.Mutex
	orders   []models.Order
	stats    *models.Stats
	selected *models.Order
	draft    *models.Order
}

// New creates a desk. pollers may be shared with an upload coordinator; the
// desk cancels them on selection change, delete and Close.
func New(store OrderStore, pollers *poller.Registry, opts Options) *Desk {
	d := &Desk{
		store:   store,
		pollers: pollers,
		engine:  opts.Engine,
		notify:  opts.Notifier,
		timeout: opts.CallbackTimeout,
		log:     logger.WithComponent("desk"),
	}
	if d.notify == nil {
		d.notify = discard{}
	}
	if d.timeout <= 0 {
		d.timeout = DefaultCallbackTimeout
	}
	return d
}

// Engine returns the recalculation engine used for edits.
func (d *Desk) Engine() recalc.Engine { return d.engine }

// Notifier returns the notice sink, so collaborators report to the same place.
func (d *Desk) Notifier() Notifier { return d.notify }

// Start checks the backend is reachable, then loads orders and stats.
func (d *Desk) Start(ctx context.Context) error {
	if _, err := d.store.Health(ctx); err != nil {
		d.log.Error().Err(err).Str("api_url", d.store.BaseURL()).Msg("Health check failed")
		d.emit(LevelError, 0, fmt.Sprintf(msgUnreachable, d.store.BaseURL()))
		return err
	}
	return d.Refresh(ctx)
}

// Refresh reloads the order list and the aggregate stats. A stats failure is
// logged and leaves the previous stats in place.
func (d *Desk) Refresh(ctx context.Context) error {
	orders, err := d.store.ListOrders(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("Failed to fetch orders")
		d.emit(LevelError, 0, fmt.Sprintf(msgFetchFailed,
			api.UserMessage(err, "request failed"), d.store.BaseURL()))
		return err
	}
	stats, statsErr := d.store.Stats(ctx)
	if statsErr != nil {
		d.log.Warn().Err(statsErr).Msg("Failed to fetch stats")
	}

	d.mu.Lock()
	d.orders = orders
	if statsErr == nil {
		d.stats = stats
	}
	d.mu.Unlock()

	d.log.Debug().Int("orders", len(orders)).Msg("Orders refreshed")
	return nil
}

// Orders returns a copy of the last fetched list.
func (d *Desk) Orders() []models.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.Order, len(d.orders))
	for i := range d.orders {
		out[i] = *d.orders[i].Clone()
	}
	return out
}

// Stats returns the last fetched stats, or nil.
func (d *Desk) Stats() *models.Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stats == nil {
		return nil
	}
	s := *d.stats
	return &s
}

// Select displays order and drops any draft. Pollers for other orders are
// cancelled. Select(nil) closes the detail view and cancels every poller.
func (d *Desk) Select(order *models.Order) {
	d.mu.Lock()
	if order == nil {
		d.selected = nil
	} else {
		d.selected = order.Clone()
	}
	d.draft = nil
	d.mu.Unlock()

	var n int
	if order == nil {
		n = d.pollers.CancelAll()
	} else {
		n = d.pollers.CancelExcept(order.ID)
	}
	if n > 0 {
		d.log.Debug().Int("cancelled", n).Msg("Cancelled pollers on selection change")
	}
}

// SelectByID fetches an order and selects it.
func (d *Desk) SelectByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := d.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Select(order)
	return order.Clone(), nil
}

// Selected returns a copy of the displayed order, or nil.
func (d *Desk) Selected() *models.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selected.Clone()
}

// Draft returns a copy of the pending edits, or nil when there are none.
func (d *Desk) Draft() *models.Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft.Clone()
}

// DiscardDraft drops pending edits.
func (d *Desk) DiscardDraft() {
	d.mu.Lock()
	d.draft = nil
	d.mu.Unlock()
}

// ApplyEdit returns order with edits applied, using the desk's engine.
func (d *Desk) ApplyEdit(order *models.Order, edits ...Edit) (*models.Order, error) {
	return ApplyEdit(d.engine, order, edits...)
}

// Edit applies edits to the draft, starting one from the displayed order if
// needed. On error the draft is unchanged.
func (d *Desk) Edit(edits ...Edit) (*models.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	base := d.draft
	if base == nil {
		base = d.selected
	}
	if base == nil {
		return nil, ErrNoSelection
	}
	next, err := ApplyEdit(d.engine, base, edits...)
	if err != nil {
		return nil, err
	}
	d.draft = next
	return next.Clone(), nil
}

// Commit saves the draft with one full-order update. On failure the draft is
// kept so the operator can retry.
func (d *Desk) Commit(ctx context.Context) (*models.Order, error) {
	d.mu.Lock()
	draft := d.draft
	d.mu.Unlock()
	if draft == nil {
		return nil, ErrNoDraft
	}

	log := logger.WithOrder(d.log, draft.ID)
	updated, err := d.store.UpdateOrder(ctx, draft.Clone())
	if err != nil {
		log.Error().Err(err).Msg("Failed to update order")
		d.emit(LevelError, draft.ID, fmt.Sprintf(msgUpdateFailed, api.UserMessage(err, "request failed")))
		return nil, err
	}

	d.mu.Lock()
	// edits made while the request was in flight stay pending
	if d.draft == draft {
		d.draft = nil
	}
	if d.selected != nil && d.selected.ID == updated.ID {
		d.selected = updated.Clone()
	}
	d.mu.Unlock()

	log.Info().Msg("Order updated")
	d.emit(LevelSuccess, updated.ID, msgUpdated)
	_ = d.Refresh(ctx)
	return updated.Clone(), nil
}

// Delete removes an order. Its pollers are cancelled first, and the
// selection is cleared if it was displayed.
func (d *Desk) Delete(ctx context.Context, id int64) error {
	log := logger.WithOrder(d.log, id)
	if n := d.pollers.CancelOrder(id); n > 0 {
		log.Debug().Int("cancelled", n).Msg("Cancelled pollers for deleted order")
	}
	if err := d.store.DeleteOrder(ctx, id); err != nil {
		log.Error().Err(err).Msg("Failed to delete order")
		d.emit(LevelError, id, fmt.Sprintf(msgDeleteFailed, api.UserMessage(err, "request failed")))
		return err
	}

	d.mu.Lock()
	if d.selected != nil && d.selected.ID == id {
		d.selected = nil
		d.draft = nil
	}
	d.mu.Unlock()

	d.emit(LevelSuccess, id, msgDeleted)
	_ = d.Refresh(ctx)
	return nil
}

// Close cancels every poller. The desk stays usable.
func (d *Desk) Close() {
	if n := d.pollers.CancelAll(); n > 0 {
		d.log.Debug().Int("cancelled", n).Msg("Cancelled pollers on close")
	}
}

// OnTerminal returns a poller callback bound to this desk. Each call runs on
// a fresh context bounded by the callback timeout.
func (d *Desk) OnTerminal() func(poller.Result) {
	return func(res poller.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.ApplyTerminalOutcome(ctx, res)
	}
}

// ApplyTerminalOutcome reconciles the view with a finished job. Fetch
// errors are logged and reported as notices, never returned.
func (d *Desk) ApplyTerminalOutcome(ctx context.Context, res poller.Result) {
	log := logger.WithJob(d.log, res.JobID, res.OrderID)
	log.Info().Str("outcome", res.Outcome.String()).Int("attempts", res.Attempts).Msg("Job finished")

	switch res.Outcome {
	case poller.Timeout:
		d.emit(LevelWarning, res.OrderID, msgTimeout)
		return
	case poller.Success, poller.Failure:
	default:
		log.Warn().Int("outcome", int(res.Outcome)).Msg("Ignoring unknown outcome")
		return
	}

	_ = d.Refresh(ctx)

	fresh, err := d.store.GetOrder(ctx, res.OrderID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to reload order")
		if !errors.Is(err, context.Canceled) {
			d.emit(LevelWarning, res.OrderID, fmt.Sprintf(msgReloadFailed,
				res.OrderID, api.UserMessage(err, "request failed")))
		}
	} else if d.replaceIfSelected(fresh) {
		log.Debug().Msg("Replaced displayed order")
	}

	if res.Outcome == poller.Success {
		d.emit(LevelSuccess, res.OrderID, msgProcessed)
		return
	}
	d.emit(LevelError, res.OrderID, fmt.Sprintf(msgProcessingFail, failureText(fresh, res.Error)))
}

// replaceIfSelected swaps in fresh only if its id is still the displayed one.
func (d *Desk) replaceIfSelected(fresh *models.Order) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.selected == nil || d.selected.ID != fresh.ID {
		return false
	}
	d.selected = fresh.Clone()
	d.draft = nil
	return true
}

func failureText(order *models.Order, jobError string) string {
	if order != nil && order.ErrorMessage != nil && *order.ErrorMessage != "" {
		return *order.ErrorMessage
	}
	if jobError != "" {
		return jobError
	}
	return msgUnknownError
}

func (d *Desk) emit(level Level, orderID int64, text string) {
	d.notify.Notify(Notice{Level: level, Text: text, OrderID: orderID})
}
