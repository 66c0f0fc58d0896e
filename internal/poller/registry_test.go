package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"orderdesk/pkg/models"
)

func newTestRegistry(src StatusSource) (*Registry, *manualTicker) {
	tk := newManualTicker()
	p := New(src, Options{
		MaxAttempts: 30,
		NewTicker:   func(time.Duration) Ticker { return tk },
	})
	return NewRegistry(p), tk
}

func TestRegistryRejectsDuplicateJob(t *testing.T) {
	reg, _ := newTestRegistry(&scriptedSource{steps: []step{{state: models.JobPending}}})
	defer reg.CancelAll()

	if _, err := reg.Start(context.Background(), "job-1", 1, nil); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if _, err := reg.Start(context.Background(), "job-1", 1, nil); !errors.Is(err, ErrAlreadyPolling) {
		t.Fatalf("second Start err = %v, want ErrAlreadyPolling", err)
	}
	if _, err := reg.Start(context.Background(), "job-2", 2, nil); err != nil {
		t.Fatalf("independent job: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("Len = %d", reg.Len())
	}
}

func TestRegistryCancelByOrder(t *testing.T) {
	reg, _ := newTestRegistry(&scriptedSource{steps: []step{{state: models.JobPending}}})

	a, _ := reg.Start(context.Background(), "job-a", 1, nil)
	b, _ := reg.Start(context.Background(), "job-b", 2, nil)

	if n := reg.CancelExcept(2); n != 1 {
		t.Fatalf("CancelExcept cancelled %d", n)
	}
	waitDone(t, a)
	if a.State() != StateCancelled || b.State() != StatePolling {
		t.Fatalf("a=%s b=%s", a.State(), b.State())
	}

	if n := reg.CancelOrder(2); n != 1 {
		t.Fatalf("CancelOrder cancelled %d", n)
	}
	waitDone(t, b)
	if reg.Len() != 0 {
		t.Fatalf("Len = %d after cancelling everything", reg.Len())
	}
}

func TestRegistryFreesJobAfterTerminal(t *testing.T) {
	reg, tk := newTestRegistry(&scriptedSource{steps: []step{{state: models.JobSucceeded}}})

	done := make(chan Result, 1)
	h, err := reg.Start(context.Background(), "job-1", 1, func(res Result) { done <- res })
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	tick(t, tk, 1)
	waitDone(t, h)
	<-done

	if _, ok := reg.Active("job-1"); ok {
		t.Fatal("finished job still registered")
	}
	again, err := reg.Start(context.Background(), "job-1", 1, nil)
	if err != nil {
		t.Fatalf("restart after terminal: %v", err)
	}
	again.Cancel()
}
