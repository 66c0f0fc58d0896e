package recalc

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"orderdesk/internal/logger"
	"orderdesk/pkg/models"
)

// Tolerance is the largest difference, in currency units, that still
// counts as a match between a stored and a recomputed amount.
var Tolerance = decimal.New(1, -MoneyPlaces)

// AuditResult compares an order as stored with the same order recomputed.
type AuditResult struct {
	Expected       *models.Order
	Warnings       []string
	HasDiscrepancy bool
	MaxDiscrepancy float64 // percent
}

// Auditor checks stored amounts, usually written by the extraction job,
// against what the engine derives from the lines.
type Auditor struct {
	engine Engine
	log    zerolog.Logger
}

// NewAuditor creates an Auditor using engine's tax policy.
func NewAuditor(engine Engine) *Auditor {
	return &Auditor{
		engine: engine,
		log:    logger.WithComponent("audit"),
	}
}

// Audit reports every line and aggregate whose stored value differs from
// the recomputed one. Absent stored values are reported but are not
// discrepancies.
func (a *Auditor) Audit(order *models.Order) *AuditResult {
	expected := a.engine.Recalculate(order)
	result := &AuditResult{Expected: expected, Warnings: []string{}}

	for i := range order.LineItems {
		a.compare(result, fmt.Sprintf("line %d total", i), order.LineItems[i].LineTotal, expected.LineItems[i].LineTotal)
	}
	a.compare(result, "subtotal", order.Subtotal, expected.Subtotal)
	a.compare(result, "tax", order.Tax, expected.Tax)
	a.compare(result, "total", order.Total, expected.Total)
	a.crossValidate(result, order)

	a.log.Debug().
		Int64("order_id", order.ID).
		Bool("has_discrepancy", result.HasDiscrepancy).
		Float64("max_discrepancy_pct", result.MaxDiscrepancy).
		Strs("warnings", result.Warnings).
		Msg("Order audit completed")
	return result
}

func (a *Auditor) compare(result *AuditResult, name string, stored, expected *float64) {
	switch {
	case stored == nil && expected == nil:
		return
	case stored == nil:
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s missing, expected %.2f", name, *expected))
		return
	case expected == nil:
		// stored total on a line without quantity or price is taken as given
		return
	}

	s, e := decimal.NewFromFloat(*stored), decimal.NewFromFloat(*expected)
	if s.Sub(e).Abs().LessThanOrEqual(Tolerance) {
		return
	}
	pct := discrepancy(s, e)
	if pct > result.MaxDiscrepancy {
		result.MaxDiscrepancy = pct
	}
	result.HasDiscrepancy = true
	result.Warnings = append(result.Warnings, fmt.Sprintf("%s is %.2f, lines give %.2f (%.1f%% difference)",
		name, *stored, *expected, pct))
}

// crossValidate checks subtotal + tax = total on the stored figures alone.
func (a *Auditor) crossValidate(result *AuditResult, order *models.Order) {
	if order.Subtotal == nil || order.Tax == nil || order.Total == nil {
		return
	}
	calculated := decimal.NewFromFloat(*order.Subtotal).Add(decimal.NewFromFloat(*order.Tax))
	total := decimal.NewFromFloat(*order.Total)
	if calculated.Sub(total).Abs().LessThanOrEqual(Tolerance) {
		return
	}
	result.HasDiscrepancy = true
	result.Warnings = append(result.Warnings, fmt.Sprintf(
		"subtotal (%.2f) + tax (%.2f) = %s, but total is %.2f",
		*order.Subtotal, *order.Tax, calculated.StringFixed(MoneyPlaces), *order.Total))
}

// discrepancy is the percentage difference relative to the larger amount.
func discrepancy(x, y decimal.Decimal) float64 {
	x, y = x.Abs(), y.Abs()
	if x.IsZero() && y.IsZero() {
		return 0
	}
	if x.IsZero() || y.IsZero() {
		return 100
	}
	larger, smaller := decimal.Max(x, y), decimal.Min(x, y)
	return larger.Sub(smaller).Div(larger).Mul(hundred).InexactFloat64()
}
