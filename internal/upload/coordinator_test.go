package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"orderdesk/internal/api"
	"orderdesk/internal/desk"
	"orderdesk/internal/poller"
)

// fakeBackend serves the order API for a single uploaded invoice.
type fakeBackend struct {
	taskID      string
	pendingFor  int32
	finalState  string
	orderError  string
	uploadCode  int
	uploads     atomic.Int32
	statusCalls atomic.Int32
}

func (b *fakeBackend) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/upload":
		b.uploads.Add(1)
		if b.uploadCode != 0 {
			w.WriteHeader(b.uploadCode)
			_, _ = io.WriteString(w, `{"error":"File type not allowed"}`)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		task := ""
		if b.taskID != "" {
			task = fmt.Sprintf(`,"task_id":%q`, b.taskID)
		}
		fmt.Fprintf(w, `{"message":"Invoice uploaded successfully. Processing in background.","order_id":42,"order_number":"ORD-42","processing_status":"pending"%s,"order":%s}`,
			task, b.order("pending", ""))
	case strings.HasPrefix(r.URL.Path, "/api/tasks/"):
		n := b.statusCalls.Add(1)
		if n <= b.pendingFor {
			_, _ = io.WriteString(w, `{"state":"PENDING","status":"Task is waiting to be processed"}`)
			return
		}
		fmt.Fprintf(w, `{"state":%q,"error":%q}`, b.finalState, "worker crashed")
	case r.URL.Path == "/api/orders/42":
		if b.statusCalls.Load() > b.pendingFor {
			_, _ = io.WriteString(w, b.order("completed", b.orderError))
			return
		}
		_, _ = io.WriteString(w, b.order("pending", ""))
	case r.URL.Path == "/api/orders":
		fmt.Fprintf(w, `{"orders":[%s],"count":1}`, b.order("pending", ""))
	case r.URL.Path == "/api/stats":
		_, _ = io.WriteString(w, `{"total_orders":1,"total_value":0,"average_order_value":0}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"Not found"}`)
	}
}

func (b *fakeBackend) order(status, errMsg string) string {
	inv := "null"
	if status == "completed" {
		inv = `"INV-2026-001"`
	}
	em := "null"
	if errMsg != "" {
		em = fmt.Sprintf("%q", errMsg)
	}
	return fmt.Sprintf(`{"id":42,"order_number":"ORD-42","invoice_number":%s,"currency":"USD","status":"pending","processing_status":%q,"error_message":%s,"line_items":[]}`,
		inv, status, em)
}

type notices struct {
	mu  sync.Mutex
	got []desk.Notice
}

func (n *notices) Notify(x desk.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, x)
}

func (n *notices) texts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.got))
	for i, x := range n.got {
		out[i] = x.Text
	}
	return out
}

type fixture struct {
	backend *fakeBackend
	desk    *desk.Desk
	reg     *poller.Registry
	coord   *Coordinator
	notices *notices
}

func newFixture(t *testing.T, b *fakeBackend) *fixture {
	t.Helper()
	return newFixtureWith(t, b, poller.Options{Interval: time.Millisecond, MaxAttempts: 10})
}

func newFixtureWith(t *testing.T, b *fakeBackend, opts poller.Options) *fixture {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(b.handler))
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	reg := poller.NewRegistry(poller.New(client, opts))
	n := &notices{}
	d := desk.New(client, reg, desk.Options{Notifier: n})
	t.Cleanup(d.Close)
	return &fixture{backend: b, desk: d, reg: reg, coord: NewCoordinator(client, d, reg, n), notices: n}
}

func writeInvoice(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func wait(t *testing.T, h *poller.Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not finish")
	}
}

func TestSubmitPollsToSuccess(t *testing.T) {
	f := newFixture(t, &fakeBackend{taskID: "task-42", pendingFor: 2, finalState: "SUCCESS"})

	res, err := f.coord.Submit(context.Background(), writeInvoice(t, "invoice.pdf", 128))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.JobID != "task-42" || res.OrderID != 42 || res.Handle == nil {
		t.Fatalf("result = %+v", res)
	}
	if sel := f.desk.Selected(); sel == nil || sel.ID != 42 {
		t.Fatalf("provisional order not selected: %+v", sel)
	}

	wait(t, res.Handle)
	if res.Handle.State() != poller.StateSucceeded || res.Handle.Attempts() != 3 {
		t.Errorf("state = %v after %d attempts", res.Handle.State(), res.Handle.Attempts())
	}
	sel := f.desk.Selected()
	if sel.InvoiceNumber == nil || *sel.InvoiceNumber != "INV-2026-001" {
		t.Errorf("selected order not refreshed: %+v", sel)
	}
	texts := f.notices.texts()
	if len(texts) != 2 || texts[1] != "Invoice processed successfully!" {
		t.Errorf("notices = %q", texts)
	}
}

func TestSubmitPollsToFailure(t *testing.T) {
	f := newFixture(t, &fakeBackend{taskID: "task-42", finalState: "FAILURE", orderError: "No text found in document"})

	res, err := f.coord.Submit(context.Background(), writeInvoice(t, "scan.PNG", 64))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	wait(t, res.Handle)

	texts := f.notices.texts()
	if got := texts[len(texts)-1]; got != "Processing failed: No text found in document" {
		t.Errorf("last notice = %q", got)
	}
}

func TestSubmitTimesOut(t *testing.T) {
	f := newFixture(t, &fakeBackend{taskID: "task-42", pendingFor: 1000})

	res, err := f.coord.Submit(context.Background(), writeInvoice(t, "invoice.pdf", 1))
	if err != nil {
		t.Fatal(err)
	}
	wait(t, res.Handle)
	if res.Handle.State() != poller.StateTimedOut || res.Handle.Attempts() != 10 {
		t.Errorf("state = %v after %d attempts", res.Handle.State(), res.Handle.Attempts())
	}
	texts := f.notices.texts()
	if got := texts[len(texts)-1]; !strings.HasPrefix(got, "Processing is taking longer") {
		t.Errorf("last notice = %q", got)
	}
}

func TestSubmitWithoutTaskStartsNoPoller(t *testing.T) {
	f := newFixture(t, &fakeBackend{})

	res, err := f.coord.Submit(context.Background(), writeInvoice(t, "invoice.jpeg", 10))
	if err != nil {
		t.Fatal(err)
	}
	if res.Handle != nil || f.reg.Len() != 0 {
		t.Errorf("poller started for synchronous upload")
	}
	if f.backend.statusCalls.Load() != 0 {
		t.Error("status endpoint queried")
	}
}

func TestSubmitErrorStartsNoPoller(t *testing.T) {
	f := newFixture(t, &fakeBackend{taskID: "task-42", uploadCode: http.StatusBadRequest})

	_, err := f.coord.Submit(context.Background(), writeInvoice(t, "invoice.pdf", 10))
	if !errors.Is(err, api.ErrRejected) {
		t.Fatalf("Submit() error = %v, want ErrRejected", err)
	}
	if f.reg.Len() != 0 || f.desk.Selected() != nil {
		t.Error("failed submission changed state")
	}
	if texts := f.notices.texts(); len(texts) != 1 || texts[0] != "Failed to upload invoice: File type not allowed" {
		t.Errorf("notices = %q", texts)
	}
}

func TestResubmitJoinsRunningPoller(t *testing.T) {
	f := newFixtureWith(t, &fakeBackend{taskID: "task-42"}, poller.Options{Interval: time.Hour})

	first, err := f.coord.Submit(context.Background(), writeInvoice(t, "invoice.pdf", 10))
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.coord.Submit(context.Background(), writeInvoice(t, "invoice.pdf", 10))
	if err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	if second.Handle != first.Handle {
		t.Error("resubmission started a second poller")
	}
	if f.reg.Len() != 1 {
		t.Errorf("registry holds %d pollers, want 1", f.reg.Len())
	}
	if f.backend.uploads.Load() != 2 {
		t.Errorf("uploads = %d, want 2", f.backend.uploads.Load())
	}
	first.Handle.Cancel()
	wait(t, first.Handle)
}

func TestSelectingAnotherOrderCancelsPoller(t *testing.T) {
	f := newFixture(t, &fakeBackend{taskID: "task-42", pendingFor: 1000})

	res, err := f.coord.Submit(context.Background(), writeInvoice(t, "invoice.pdf", 10))
	if err != nil {
		t.Fatal(err)
	}
	f.desk.Select(nil)
	wait(t, res.Handle)
	if res.Handle.State() != poller.StateCancelled {
		t.Errorf("state = %v, want cancelled", res.Handle.State())
	}
	if texts := f.notices.texts(); len(texts) != 1 {
		t.Errorf("cancelled poller produced notices: %q", texts)
	}
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path func() string
		want error
	}{
		{"pdf", func() string { return writeInvoice(t, "a.pdf", 10) }, nil},
		{"upper gif", func() string { return writeInvoice(t, "a.GIF", 10) }, nil},
		{"txt", func() string { return writeInvoice(t, "a.txt", 10) }, ErrUnsupportedFormat},
		{"no extension", func() string { return writeInvoice(t, "invoice", 10) }, ErrUnsupportedFormat},
		{"empty", func() string { return writeInvoice(t, "a.pdf", 0) }, ErrEmptyFile},
		{"too large", func() string { return writeInvoice(t, "a.png", MaxFileSize+1) }, ErrFileTooLarge},
		{"directory", func() string {
			p := filepath.Join(dir, "folder.pdf")
			if err := os.Mkdir(p, 0o700); err != nil {
				t.Fatal(err)
			}
			return p
		}, ErrNotRegularFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateFile(tt.path())
			if tt.want == nil {
				if err != nil {
					t.Errorf("ValidateFile() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateFile() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRejectedFileMakesNoRequest(t *testing.T) {
	f := newFixture(t, &fakeBackend{taskID: "task-42"})

	if _, err := f.coord.Submit(context.Background(), writeInvoice(t, "notes.docx", 10)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Submit() error = %v", err)
	}
	if f.backend.uploads.Load() != 0 {
		t.Error("upload request sent for rejected file")
	}
}
