package models

import (
	"encoding/json"
	"strings"
	"testing"
)

const sampleOrder = `{
  "id": 1,
  "order_number": "ORD-001",
  "invoice_number": "INV-001",
  "invoice_date": "2024-01-15",
  "due_date": null,
  "customer_name": "Test Customer",
  "customer_address": null,
  "customer_email": "test@example.com",
  "customer_phone": null,
  "subtotal": 1000.0,
  "tax": 100.0,
  "total": 1100.0,
  "currency": "USD",
  "status": "pending",
  "processing_status": "processing",
  "error_message": null,
  "created_at": "2024-01-01T00:00:00",
  "updated_at": "2024-01-01T10:30:00.123456",
  "line_items": [
    {"id": 1, "order_id": 1, "line_number": 1, "product_code": "PROD-001",
     "product_name": "Product 1", "description": null, "quantity": 2,
     "unit_price": 500.0, "discount": 0, "line_total": 1000.0}
  ]
}`

func TestOrderDecodesServerShape(t *testing.T) {
	var o Order
	if err := json.Unmarshal([]byte(sampleOrder), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if o.OrderNumber != "ORD-001" || *o.InvoiceNumber != "INV-001" || o.DueDate != nil {
		t.Fatalf("header decoded wrong: %+v", o)
	}
	if o.Status != OrderStatusPending || *o.ProcessingStatus != ProcessingProcessing {
		t.Fatalf("status=%q processing=%q", o.Status, *o.ProcessingStatus)
	}
	if o.CreatedAt == nil || o.CreatedAt.Hour() != 0 || o.UpdatedAt.Nanosecond() != 123456000 {
		t.Fatalf("timestamps decoded wrong: %v %v", o.CreatedAt, o.UpdatedAt)
	}
	if len(o.LineItems) != 1 || *o.LineItems[0].Quantity != 2 || *o.LineItems[0].LineTotal != 1000 {
		t.Fatalf("line items decoded wrong: %+v", o.LineItems)
	}

	out, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"created_at":"2024-01-01T00:00:00"`) {
		t.Fatalf("naive timestamp not preserved: %s", out)
	}
}

func TestCloneIsDeep(t *testing.T) {
	var o Order
	if err := json.Unmarshal([]byte(sampleOrder), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	c := o.Clone()
	*c.InvoiceNumber = "CHANGED"
	*c.LineItems[0].Quantity = 99
	c.LineItems[0].Discount = 50

	if *o.InvoiceNumber != "INV-001" || *o.LineItems[0].Quantity != 2 || o.LineItems[0].Discount != 0 {
		t.Fatal("clone shares state with the original")
	}
}

func TestParseJobState(t *testing.T) {
	tests := map[string]JobState{
		"PENDING":    JobPending,
		"PROGRESS":   JobRunning,
		"PROCESSING": JobRunning,
		"SUCCESS":    JobSucceeded,
		"FAILURE":    JobFailed,
		"success":    JobSucceeded,
		"RETRY":      JobRunning,
	}
	for raw, want := range tests {
		if got := ParseJobState(raw); got != want {
			t.Errorf("ParseJobState(%q) = %q, want %q", raw, got, want)
		}
	}
}
