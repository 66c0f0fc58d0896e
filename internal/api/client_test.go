package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"orderdesk/pkg/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestHealthAndRequestID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" || r.Header.Get("X-Request-ID") == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, `{"status":"healthy","service":"invoice-extractor-api"}`)
	})

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "healthy" || h.Service != "invoice-extractor-api" {
		t.Fatalf("health = %+v", h)
	}
}

func TestListAndGetOrders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/orders":
			_, _ = io.WriteString(w, `{"orders":[{"id":1,"order_number":"ORD-1","currency":"USD","status":"pending","line_items":[]}],"count":1}`)
		case "/api/orders/1":
			_, _ = io.WriteString(w, `{"id":1,"order_number":"ORD-1","currency":"USD","status":"pending","line_items":[]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<html>404</html>`)
		}
	})

	orders, err := c.ListOrders(context.Background())
	if err != nil || len(orders) != 1 || orders[0].OrderNumber != "ORD-1" {
		t.Fatalf("ListOrders = %+v, %v", orders, err)
	}

	o, err := c.GetOrder(context.Background(), 1)
	if err != nil || o.ID != 1 {
		t.Fatalf("GetOrder = %+v, %v", o, err)
	}

	_, err = c.GetOrder(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing order err = %v, want ErrNotFound", err)
	}
}

func TestUpdateOrderAcceptsEnvelopeAndBare(t *testing.T) {
	for name, body := range map[string]string{
		"envelope": `{"message":"Order updated successfully","order":{"id":5,"order_number":"ORD-5","currency":"USD","status":"completed","line_items":[]}}`,
		"bare":     `{"id":5,"order_number":"ORD-5","currency":"USD","status":"completed","line_items":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			var got models.Order
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut || r.URL.Path != "/api/orders/5" {
					w.WriteHeader(http.StatusMethodNotAllowed)
					return
				}
				_ = json.NewDecoder(r.Body).Decode(&got)
				_, _ = io.WriteString(w, body)
			})

			in := &models.Order{ID: 5, OrderNumber: "ORD-5", Status: models.OrderStatusCompleted, Currency: "USD"}
			out, err := c.UpdateOrder(context.Background(), in)
			if err != nil {
				t.Fatalf("UpdateOrder: %v", err)
			}
			if out.ID != 5 || out.Status != models.OrderStatusCompleted {
				t.Fatalf("updated = %+v", out)
			}
			if got.Status != models.OrderStatusCompleted {
				t.Fatalf("server received %+v", got)
			}
		})
	}
}

func TestUploadSendsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"No file provided"}`)
			return
		}
		data, _ := io.ReadAll(file)
		if header.Filename != "invoice.pdf" || string(data) != "%PDF-1.4" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, `{"message":"queued","order_id":9,"order_number":"ORD-9","task_id":"abc","processing_status":"pending","order":{"id":9,"order_number":"ORD-9","status":"pending","currency":"USD","line_items":[]}}`)
	})

	res, err := c.Upload(context.Background(), "invoice.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.OrderID != 9 || res.TaskID != "abc" || res.Order == nil || res.Order.OrderNumber != "ORD-9" {
		t.Fatalf("upload result = %+v", res)
	}
}

func TestServerErrorMessageSurfaces(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Unsupported file type. Supported: PDF, JPG, PNG, GIF"}`)
	})

	_, err := c.Upload(context.Background(), "x.txt", strings.NewReader("hi"))
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if msg := UserMessage(err, "fallback"); msg != "Unsupported file type. Supported: PDF, JPG, PNG, GIF" {
		t.Fatalf("UserMessage = %q", msg)
	}
}

func TestTaskStatusMapsStates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"state":"FAILURE","status":"Task failed","error":"bad scan"}`)
	})

	state, msg, err := c.JobStatus(context.Background(), "task/1")
	if err != nil {
		t.Fatalf("JobStatus: %v", err)
	}
	if state != models.JobFailed || msg != "bad scan" {
		t.Fatalf("state=%q msg=%q", state, msg)
	}
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.Stats(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if UserMessage(err, "x") != "The order service is not reachable" {
		t.Fatalf("UserMessage = %q", UserMessage(err, "x"))
	}
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	if _, err := NewClient("localhost:5001/api"); err == nil {
		t.Fatal("expected error for URL without scheme")
	}
}
