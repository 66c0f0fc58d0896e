package desk

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"orderdesk/internal/recalc"
	"orderdesk/pkg/models"
)

// Edit is one typed change to an order snapshot. Only the types declared in
// this file implement it, so every editable field and every recalculation
// trigger is listed here.
type Edit interface {
	apply(o *models.Order) (touchesLines bool, err error)
}

// SetInvoiceNumber sets or clears the invoice number.
type SetInvoiceNumber struct{ Value *string }

// SetInvoiceDate takes YYYY-MM-DD or nil.
type SetInvoiceDate struct{ Value *string }

// SetDueDate takes YYYY-MM-DD or nil.
type SetDueDate struct{ Value *string }

// SetCustomerName sets or clears the customer name.
type SetCustomerName struct{ Value *string }

// SetCustomerAddress sets or clears the billing address.
type SetCustomerAddress struct{ Value *string }

// SetCustomerEmail takes an address net/mail accepts, or nil.
type SetCustomerEmail struct{ Value *string }

// SetCustomerPhone sets or clears the phone number.
type SetCustomerPhone struct{ Value *string }

// SetCurrency takes an ISO 4217 code.
type SetCurrency struct{ Value string }

// SetStatus changes the business status; the extraction status is never
// edited by hand.
type SetStatus struct{ Value models.OrderStatus }

// EditLine routes a line edit through the recalculation engine.
type EditLine struct {
	Index int
	Edit  recalc.LineEdit
}

func (e SetInvoiceNumber) apply(o *models.Order) (bool, error) {
	o.InvoiceNumber = blankToNil(e.Value)
	return false, nil
}

func (e SetInvoiceDate) apply(o *models.Order) (bool, error) {
	v, err := parseDate("invoice_date", e.Value)
	if err != nil {
		return false, err
	}
	o.InvoiceDate = v
	return false, nil
}

func (e SetDueDate) apply(o *models.Order) (bool, error) {
	v, err := parseDate("due_date", e.Value)
	if err != nil {
		return false, err
	}
	o.DueDate = v
	return false, nil
}

func (e SetCustomerName) apply(o *models.Order) (bool, error) {
	o.CustomerName = blankToNil(e.Value)
	return false, nil
}

func (e SetCustomerAddress) apply(o *models.Order) (bool, error) {
	o.CustomerAddress = blankToNil(e.Value)
	return false, nil
}

func (e SetCustomerEmail) apply(o *models.Order) (bool, error) {
	v := blankToNil(e.Value)
	if v != nil {
		addr, err := mail.ParseAddress(*v)
		if err != nil || addr.Address != *v {
			return false, NewValidationError("customer_email", *v, "not a valid email address")
		}
	}
	o.CustomerEmail = v
	return false, nil
}

func (e SetCustomerPhone) apply(o *models.Order) (bool, error) {
	o.CustomerPhone = blankToNil(e.Value)
	return false, nil
}

func (e SetCurrency) apply(o *models.Order) (bool, error) {
	code := strings.ToUpper(strings.TrimSpace(e.Value))
	if len(code) != 3 {
		return false, NewValidationError("currency", e.Value, "must be a three-letter currency code")
	}
	o.Currency = code
	return false, nil
}

func (e SetStatus) apply(o *models.Order) (bool, error) {
	if !e.Value.Valid() {
		return false, NewValidationError("status", e.Value, "must be one of pending, processing, completed, cancelled")
	}
	o.Status = e.Value
	return false, nil
}

func (e EditLine) apply(o *models.Order) (bool, error) {
	if e.Edit == nil {
		return false, NewValidationError("line_items", e.Index, "missing line edit")
	}
	if e.Index < 0 || e.Index >= len(o.LineItems) {
		return false, NewValidationError("line_items", e.Index, fmt.Sprintf("order has %d lines", len(o.LineItems)))
	}
	line := recalc.RecomputeLine(o.LineItems[e.Index], e.Edit)
	if !recalc.AffectsTotals(e.Edit) {
		// descriptive edits leave the extracted total alone
		line.LineTotal = nil
		if stored := o.LineItems[e.Index].LineTotal; stored != nil {
			line.LineTotal = models.Float(*stored)
		}
		o.LineItems[e.Index] = line
		return false, nil
	}
	if err := recalc.ValidateLine(line); err != nil {
		if errors.Is(err, recalc.ErrDiscountOutOfRange) {
			return false, NewValidationError(e.Edit.Field(), line.Discount, err.Error())
		}
		return false, err
	}
	o.LineItems[e.Index] = line
	return true, nil
}

// ApplyEdit merges edits into a copy of order. Line edits recompute their
// line; the aggregates are recomputed once after all edits. On error the
// input is untouched and no partial result is returned.
func ApplyEdit(engine recalc.Engine, order *models.Order, edits ...Edit) (*models.Order, error) {
	if order == nil {
		return nil, ErrNoSelection
	}
	out := order.Clone()
	touched := false
	for _, e := range edits {
		t, err := e.apply(out)
		if err != nil {
			return nil, err
		}
		touched = touched || t
	}
	if touched {
		totals := engine.RecomputeAggregates(out.LineItems)
		out.Subtotal = models.Float(totals.Subtotal)
		out.Tax = models.Float(totals.Tax)
		out.Total = models.Float(totals.Total)
	}
	return out, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func parseDate(field string, s *string) (*string, error) {
	v := blankToNil(s)
	if v == nil {
		return nil, nil
	}
	// the store sends full timestamps for dates in some versions
	raw := *v
	if i := strings.IndexByte(raw, 'T'); i > 0 {
		raw = raw[:i]
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return nil, NewValidationError(field, *v, "expected YYYY-MM-DD")
	}
	return &raw, nil
}
