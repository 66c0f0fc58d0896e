// Package export turns order snapshots into tabular rows for spreadsheets.
package export

import (
	"strings"

	"orderdesk/pkg/models"
)

// OrderHeaders are the column titles of the orders table.
var OrderHeaders = []string{
	"Order Number",
	"Invoice Number",
	"Invoice Date",
	"Due Date",
	"Customer",
	"Email",
	"Currency",
	"Subtotal",
	"Tax",
	"Total",
	"Status",
	"Processing",
	"Lines",
	"Created",
}

// LineHeaders are the column titles of the line items table.
var LineHeaders = []string{
	"Order Number",
	"Line",
	"Product Code",
	"Product",
	"Description",
	"Quantity",
	"Unit Price",
	"Discount %",
	"Line Total",
}

// OrderRow is one order flattened for a spreadsheet.
type OrderRow struct {
	OrderNumber   string
	InvoiceNumber string
	InvoiceDate   string
	DueDate       string
	Customer      string
	Email         string
	Currency      string
	Subtotal      float64
	Tax           float64
	Total         float64
	Status        string
	Processing    string
	Lines         int
	Created       string
}

// Values returns the row in OrderHeaders order.
func (r OrderRow) Values() []interface{} {
	return []interface{}{
		r.OrderNumber,
		r.InvoiceNumber,
		r.InvoiceDate,
		r.DueDate,
		r.Customer,
		r.Email,
		r.Currency,
		r.Subtotal,
		r.Tax,
		r.Total,
		r.Status,
		r.Processing,
		r.Lines,
		r.Created,
	}
}

// LineRow is one line item with its order number.
type LineRow struct {
	OrderNumber string
	LineNumber  int
	ProductCode string
	ProductName string
	Description string
	Quantity    float64
	UnitPrice   float64
	Discount    float64
	LineTotal   float64
}

// Values returns the row in LineHeaders order.
func (r LineRow) Values() []interface{} {
	return []interface{}{
		r.OrderNumber,
		r.LineNumber,
		r.ProductCode,
		r.ProductName,
		r.Description,
		r.Quantity,
		r.UnitPrice,
		r.Discount,
		r.LineTotal,
	}
}

// OrderRows flattens orders. Absent values become empty strings or zero.
func OrderRows(orders []models.Order) []OrderRow {
	rows := make([]OrderRow, 0, len(orders))
	for _, o := range orders {
		row := OrderRow{
			OrderNumber:   o.OrderNumber,
			InvoiceNumber: str(o.InvoiceNumber),
			InvoiceDate:   date(o.InvoiceDate),
			DueDate:       date(o.DueDate),
			Customer:      str(o.CustomerName),
			Email:         str(o.CustomerEmail),
			Currency:      o.Currency,
			Subtotal:      num(o.Subtotal),
			Tax:           num(o.Tax),
			Total:         num(o.Total),
			Status:        string(o.Status),
			Lines:         len(o.LineItems),
		}
		if o.ProcessingStatus != nil {
			row.Processing = string(*o.ProcessingStatus)
		}
		if o.CreatedAt != nil {
			row.Created = o.CreatedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, row)
	}
	return rows
}

// LineRows flattens every line of every order, in order.
func LineRows(orders []models.Order) []LineRow {
	var rows []LineRow
	for _, o := range orders {
		for i, li := range o.LineItems {
			n := i + 1
			if li.LineNumber != nil {
				n = *li.LineNumber
			}
			rows = append(rows, LineRow{
				OrderNumber: o.OrderNumber,
				LineNumber:  n,
				ProductCode: str(li.ProductCode),
				ProductName: str(li.ProductName),
				Description: truncate(str(li.Description), 140),
				Quantity:    num(li.Quantity),
				UnitPrice:   num(li.UnitPrice),
				Discount:    li.Discount,
				LineTotal:   num(li.LineTotal),
			})
		}
	}
	return rows
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func num(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// date keeps the calendar part of ISO dates and timestamps.
func date(s *string) string {
	v := str(s)
	if i := strings.IndexByte(v, 'T'); i > 0 {
		return v[:i]
	}
	return v
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
