package recalc

import "orderdesk/pkg/models"

// LineEdit is one typed mutation of a line item. The set is closed: only the
// types in this file implement it.
type LineEdit interface {
	apply(item *models.LineItem)
	// Field names the wire field the edit targets.
	Field() string
}

// SetQuantity sets or clears the quantity.
type SetQuantity struct{ Value *float64 }

// SetUnitPrice sets or clears the unit price.
type SetUnitPrice struct{ Value *float64 }

// SetDiscount sets the discount percentage.
type SetDiscount struct{ Percent float64 }

// SetLineNumber sets or clears the printed line number.
type SetLineNumber struct{ Value *int }

// SetProductCode sets or clears the product code.
type SetProductCode struct{ Value *string }

// SetProductName sets or clears the product name.
type SetProductName struct{ Value *string }

// SetDescription sets or clears the free-text description.
type SetDescription struct{ Value *string }

func (e SetQuantity) apply(item *models.LineItem)    { item.Quantity = cloneFloat(e.Value) }
func (e SetUnitPrice) apply(item *models.LineItem)   { item.UnitPrice = cloneFloat(e.Value) }
func (e SetDiscount) apply(item *models.LineItem)    { item.Discount = e.Percent }
func (e SetLineNumber) apply(item *models.LineItem)  { item.LineNumber = cloneInt(e.Value) }
func (e SetProductCode) apply(item *models.LineItem) { item.ProductCode = cloneString(e.Value) }
func (e SetProductName) apply(item *models.LineItem) { item.ProductName = cloneString(e.Value) }
func (e SetDescription) apply(item *models.LineItem) { item.Description = cloneString(e.Value) }

func (SetQuantity) Field() string    { return "quantity" }
func (SetUnitPrice) Field() string   { return "unit_price" }
func (SetDiscount) Field() string    { return "discount" }
func (SetLineNumber) Field() string  { return "line_number" }
func (SetProductCode) Field() string { return "product_code" }
func (SetProductName) Field() string { return "product_name" }
func (SetDescription) Field() string { return "description" }

// AffectsTotals reports whether the edit changes a figure that feeds the
// line total.
func AffectsTotals(e LineEdit) bool {
	switch e.(type) {
	case SetQuantity, SetUnitPrice, SetDiscount:
		return true
	}
	return false
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
