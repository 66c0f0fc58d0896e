// Package recalc derives line totals and order aggregates from quantities,
// unit prices, discounts and a tax policy.
//
// Every function here is pure: inputs are never mutated and the results are
// fresh values the caller commits as a whole. Arithmetic is done in
// shopspring/decimal on the unrounded per-line products; rounding to two
// places happens only when a figure is written back to a model.
package recalc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"orderdesk/pkg/models"
)

// MoneyPlaces is the number of decimal places stored and displayed.
const MoneyPlaces = 2

var (
	// ErrDiscountOutOfRange is returned when a discount is not a percentage.
	ErrDiscountOutOfRange = errors.New("discount must be between 0 and 100")

	// ErrInvalidTaxRate is returned for tax rates outside [0, 1].
	ErrInvalidTaxRate = errors.New("tax rate must be between 0 and 1")

	hundred = decimal.NewFromInt(100)
)

// TaxPolicy is the rate applied to an order subtotal.
type TaxPolicy struct {
	Rate decimal.Decimal
}

// DefaultTaxPolicy is the flat 10% rate the order store assumes.
var DefaultTaxPolicy = TaxPolicy{Rate: decimal.NewFromFloat(0.10)}

// NewTaxPolicy builds a policy from a fractional rate such as 0.1.
func NewTaxPolicy(rate float64) (TaxPolicy, error) {
	if rate < 0 || rate > 1 {
		return TaxPolicy{}, fmt.Errorf("%w: %v", ErrInvalidTaxRate, rate)
	}
	return TaxPolicy{Rate: decimal.NewFromFloat(rate)}, nil
}

// Totals are the derived order figures, already rounded.
type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// Engine applies a tax policy. The zero value uses DefaultTaxPolicy.
type Engine struct {
	Policy *TaxPolicy
}

// NewEngine returns an engine bound to policy.
func NewEngine(policy TaxPolicy) Engine {
	return Engine{Policy: &policy}
}

func (e Engine) rate() decimal.Decimal {
	if e.Policy == nil {
		return DefaultTaxPolicy.Rate
	}
	return e.Policy.Rate
}

// RecomputeLine applies edit to a copy of item and recomputes its total.
// A nil edit only recomputes.
func RecomputeLine(item models.LineItem, edit LineEdit) models.LineItem {
	out := item.Clone()
	if edit != nil {
		edit.apply(&out)
	}
	out.LineTotal = roundedPtr(rawLineTotal(out))
	return out
}

// ValidateLine checks the figures an editor may set on a line.
func ValidateLine(item models.LineItem) error {
	if item.Discount < 0 || item.Discount > 100 {
		return fmt.Errorf("%w: %v", ErrDiscountOutOfRange, item.Discount)
	}
	return nil
}

// RecomputeAggregates sums the line totals and applies the engine's policy.
// Lines with quantity and unit price contribute their unrounded product;
// other lines contribute their stored total, absent counting as zero.
func (e Engine) RecomputeAggregates(items []models.LineItem) Totals {
	sum := decimal.Zero
	for _, item := range items {
		if raw := rawLineTotal(item); raw != nil {
			sum = sum.Add(*raw)
		} else if item.LineTotal != nil {
			sum = sum.Add(decimal.NewFromFloat(*item.LineTotal))
		}
	}

	subtotal := sum.Round(MoneyPlaces)
	tax := sum.Mul(e.rate()).Round(MoneyPlaces)
	return Totals{
		Subtotal: subtotal.InexactFloat64(),
		Tax:      tax.InexactFloat64(),
		Total:    subtotal.Add(tax).InexactFloat64(),
	}
}

// RecomputeAggregates uses DefaultTaxPolicy.
func RecomputeAggregates(items []models.LineItem) Totals {
	return Engine{}.RecomputeAggregates(items)
}

// Recalculate returns a copy of order with the line totals and the three
// aggregates rederived. A line without quantity or unit price keeps its
// stored total, the same figure RecomputeAggregates counts for it.
func (e Engine) Recalculate(order *models.Order) *models.Order {
	out := order.Clone()
	for i := range out.LineItems {
		if rawLineTotal(out.LineItems[i]) != nil {
			out.LineItems[i] = RecomputeLine(out.LineItems[i], nil)
		}
	}
	e.setTotals(out, e.RecomputeAggregates(out.LineItems))
	return out
}

func (e Engine) setTotals(order *models.Order, t Totals) {
	order.Subtotal = models.Float(t.Subtotal)
	order.Tax = models.Float(t.Tax)
	order.Total = models.Float(t.Total)
}

// ApplyLineEdit edits the line at index and rederives the aggregates. The
// input order is left untouched.
func (e Engine) ApplyLineEdit(order *models.Order, index int, edit LineEdit) (*models.Order, error) {
	if index < 0 || index >= len(order.LineItems) {
		return nil, fmt.Errorf("line index %d out of range (order has %d lines)", index, len(order.LineItems))
	}
	out := order.Clone()
	line := RecomputeLine(out.LineItems[index], edit)
	if err := ValidateLine(line); err != nil {
		return nil, err
	}
	out.LineItems[index] = line
	e.setTotals(out, e.RecomputeAggregates(out.LineItems))
	return out, nil
}

// rawLineTotal is quantity*unit_price*(1-discount/100), unrounded, or nil
// when either input is absent.
func rawLineTotal(item models.LineItem) *decimal.Decimal {
	if item.Quantity == nil || item.UnitPrice == nil {
		return nil
	}
	gross := decimal.NewFromFloat(*item.Quantity).Mul(decimal.NewFromFloat(*item.UnitPrice))
	v := gross.Mul(hundred.Sub(decimal.NewFromFloat(item.Discount))).Div(hundred)
	return &v
}

func roundedPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	return models.Float(d.Round(MoneyPlaces).InexactFloat64())
}
