package poller

import (
	"context"
	"fmt"
	"sync"
)

// Registry keeps at most one live poller per job id and lets the owner
// cancel them by order. It is scoped to the view that created it: Close
// (CancelAll) must run when that view goes away.
type Registry struct {
	poller *Poller

	mu     sync.Mutex
	active map[string]*Handle
}

func NewRegistry(p *Poller) *Registry {
	return &Registry{poller: p, active: make(map[string]*Handle)}
}

// Start polls jobID unless it is already being polled.
func (r *Registry) Start(ctx context.Context, jobID string, orderID int64, onTerminal func(Result)) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[jobID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPolling, jobID)
	}

	h, err := r.poller.Start(ctx, jobID, orderID, func(res Result) {
		r.removeFinished(jobID)
		if onTerminal != nil {
			onTerminal(res)
		}
	})
	if err != nil {
		return nil, err
	}
	r.active[jobID] = h

	go func() {
		<-h.Done()
		r.remove(jobID, h)
	}()
	return h, nil
}

func (r *Registry) remove(jobID string, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.active[jobID]; ok && cur == h {
		delete(r.active, jobID)
	}
}

// removeFinished drops the entry for jobID once its loop has reached a
// terminal state, so the job can be polled again from the callback.
func (r *Registry) removeFinished(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.active[jobID]; ok && cur.State().Terminal() {
		delete(r.active, jobID)
	}
}

// CancelOrder stops every poller filling orderID and returns how many.
func (r *Registry) CancelOrder(orderID int64) int {
	return r.cancelWhere(func(h *Handle) bool { return h.orderID == orderID })
}

// CancelExcept stops every poller not filling orderID.
func (r *Registry) CancelExcept(orderID int64) int {
	return r.cancelWhere(func(h *Handle) bool { return h.orderID != orderID })
}

// CancelAll stops every poller.
func (r *Registry) CancelAll() int {
	return r.cancelWhere(func(*Handle) bool { return true })
}

func (r *Registry) cancelWhere(match func(*Handle) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, h := range r.active {
		if match(h) {
			h.Cancel()
			delete(r.active, id)
			n++
		}
	}
	return n
}

// Active returns the handle polling jobID, if any.
func (r *Registry) Active(jobID string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.active[jobID]
	return h, ok
}

// Len is the number of live pollers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
