// Package poller watches one backend extraction job until it reaches a
// terminal outcome.
//
// Each Start spawns one goroutine that queries the job status on a fixed
// interval. The loop ends in exactly one of SUCCEEDED, FAILED or TIMED_OUT
// and then calls the terminal callback once; cancelling the handle ends it in
// CANCELLED with no callback. Failed status queries consume an attempt but do
// not decide the outcome, so the loop always stops after MaxAttempts ticks.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"orderdesk/internal/logger"
	"orderdesk/pkg/models"
)

const (
	// DefaultInterval is the delay between status checks.
	DefaultInterval = 2 * time.Second

	// DefaultMaxAttempts bounds the loop to roughly one minute.
	DefaultMaxAttempts = 30
)

var (
	// ErrAlreadyPolling is returned when a job id already has a live poller.
	ErrAlreadyPolling = errors.New("job is already being polled")

	// ErrMissingJobID is returned when Start is called without a job id.
	ErrMissingJobID = errors.New("job id is required")
)

// StatusSource reports the current state of a job, plus the server's error
// text for failed jobs.
type StatusSource interface {
	JobStatus(ctx context.Context, jobID string) (models.JobState, string, error)
}

// Outcome is how a poll ended.
type Outcome int

const (
	Success Outcome = iota + 1
	Failure
	Timeout
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Timeout:
		return "timeout"
	}
	return "unknown"
}

// State is the poller lifecycle.
type State int

const (
	StateInit State = iota
	StatePolling
	StateSucceeded
	StateFailed
	StateTimedOut
	StateCancelled
)

func (s State) String() string {
	return [...]string{"INIT", "POLLING", "SUCCEEDED", "FAILED", "TIMED_OUT", "CANCELLED"}[s]
}

// Terminal reports whether the loop has stopped.
func (s State) Terminal() bool {
	return s >= StateSucceeded
}

// Result is delivered to the terminal callback.
type Result struct {
	JobID    string
	OrderID  int64
	Outcome  Outcome
	Error    string // server error text for failures
	Attempts int
}

// Attempt describes one tick, for progress reporting.
type Attempt struct {
	N     int
	Max   int
	State models.JobState
	Err   error
}

// Ticker is the part of time.Ticker the loop needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Options tune a Poller. Zero fields take the defaults.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
	NewTicker   func(time.Duration) Ticker
	// OnAttempt, when set, is called after every tick from the poll goroutine.
	OnAttempt func(jobID string, a Attempt)
}

// Poller starts independent polling loops against one status source.
type Poller struct {
	source StatusSource
	opts   Options
	log    zerolog.Logger
}

// New returns a Poller reading job states from source.
func New(source StatusSource, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}
	return &Poller{source: source, opts: opts, log: logger.WithComponent("poller")}
}

// Handle owns one running loop.
type Handle struct {
	jobID   string
	orderID int64
	cancel  context.CancelFunc
	done    chan struct{}

	mu       sync.Mutex
	state    State
	attempts int
	result   *Result
	job      models.Job
}

// JobID returns the job the handle tracks.
func (h *Handle) JobID() string { return h.jobID }

// OrderID returns the order the job fills.
func (h *Handle) OrderID() int64 { return h.orderID }

// Cancel stops the loop. It is safe to call more than once and after the
// loop has finished.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed once the loop has exited and any terminal callback has
// returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// Job returns the job as last reported by the server. Before the first
// successful status check it is pending.
func (h *Handle) Job() models.Job {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.job
}

func (h *Handle) observe(state models.JobState, errText string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.job.State, h.job.Error = state, errText
}

// Result returns the terminal result, or false while polling or after a
// cancellation.
func (h *Handle) Result() (Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.result == nil {
		return Result{}, false
	}
	return *h.result, true
}

func (h *Handle) nextAttempt() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attempts++
	return h.attempts
}

func (h *Handle) finish(state State, res *Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
	h.result = res
}

// Start begins polling jobID. onTerminal is called exactly once, from the
// poll goroutine, unless the handle is cancelled first. The loop also stops
// when ctx is done.
func (p *Poller) Start(ctx context.Context, jobID string, orderID int64, onTerminal func(Result)) (*Handle, error) {
	if jobID == "" {
		return nil, ErrMissingJobID
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		jobID:   jobID,
		orderID: orderID,
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   StatePolling,
		job:     models.Job{ID: jobID, OrderID: orderID, State: models.JobPending},
	}
	go p.run(ctx, h, onTerminal)
	return h, nil
}

func (p *Poller) run(ctx context.Context, h *Handle, onTerminal func(Result)) {
	defer close(h.done)
	defer h.cancel()

	log := logger.WithJob(p.log, h.jobID, h.orderID)
	log.Debug().
		Dur("interval", p.opts.Interval).
		Int("max_attempts", p.opts.MaxAttempts).
		Msg("Polling started")

	ticker := p.opts.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.finish(StateCancelled, nil)
			log.Debug().Int("attempts", h.Attempts()).Msg("Polling cancelled")
			return
		case <-ticker.C():
		}

		n := h.nextAttempt()
		jobState, jobErr, err := p.source.JobStatus(ctx, h.jobID)
		if ctx.Err() != nil {
			h.finish(StateCancelled, nil)
			log.Debug().Int("attempts", n).Msg("Polling cancelled during status check")
			return
		}

		if p.opts.OnAttempt != nil {
			p.opts.OnAttempt(h.jobID, Attempt{N: n, Max: p.opts.MaxAttempts, State: jobState, Err: err})
		}

		if err == nil {
			h.observe(jobState, jobErr)
		}

		var (
			state State
			res   *Result
		)
		switch {
		case err != nil:
			log.Debug().Err(err).Int("attempt", n).Msg("Status check failed, will retry")
		case jobState == models.JobSucceeded:
			state, res = StateSucceeded, &Result{Outcome: Success}
		case jobState == models.JobFailed:
			state, res = StateFailed, &Result{Outcome: Failure, Error: jobErr}
		}
		if res == nil && n >= p.opts.MaxAttempts {
			state, res = StateTimedOut, &Result{Outcome: Timeout}
		}
		if res == nil {
			continue
		}

		res.JobID, res.OrderID, res.Attempts = h.jobID, h.orderID, n
		h.finish(state, res)
		log.Info().
			Str("outcome", res.Outcome.String()).
			Int("attempts", n).
			Msg("Polling finished")
		if onTerminal != nil {
			onTerminal(*res)
		}
		return
	}
}
