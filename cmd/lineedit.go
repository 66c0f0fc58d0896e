package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"orderdesk/internal/desk"
	"orderdesk/internal/recalc"
	"orderdesk/pkg/models"
)

// parseLineEdit reads "INDEX:FIELD=VALUE", for example "0:quantity=3" or
// "1:discount=12.5". An empty value clears nullable fields.
func parseLineEdit(spec string) (desk.EditLine, error) {
	head, value, ok := strings.Cut(spec, "=")
	if !ok {
		return desk.EditLine{}, fmt.Errorf("line edit %q: expected INDEX:FIELD=VALUE", spec)
	}
	idx, field, ok := strings.Cut(head, ":")
	if !ok {
		return desk.EditLine{}, fmt.Errorf("line edit %q: expected INDEX:FIELD=VALUE", spec)
	}
	index, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil || index < 0 {
		return desk.EditLine{}, fmt.Errorf("line edit %q: index must be a non-negative integer", spec)
	}
	value = strings.TrimSpace(value)

	var edit recalc.LineEdit
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "quantity", "qty":
		v, err := optionalFloat(value)
		if err != nil {
			return desk.EditLine{}, fmt.Errorf("line edit %q: %w", spec, err)
		}
		edit = recalc.SetQuantity{Value: v}
	case "unit_price", "price":
		v, err := optionalFloat(value)
		if err != nil {
			return desk.EditLine{}, fmt.Errorf("line edit %q: %w", spec, err)
		}
		edit = recalc.SetUnitPrice{Value: v}
	case "discount":
		v := 0.0
		if value != "" {
			if v, err = strconv.ParseFloat(value, 64); err != nil {
				return desk.EditLine{}, fmt.Errorf("line edit %q: discount must be a number", spec)
			}
		}
		edit = recalc.SetDiscount{Percent: v}
	case "line_number":
		var v *int
		if value != "" {
			n, err := strconv.Atoi(value)
			if err != nil {
				return desk.EditLine{}, fmt.Errorf("line edit %q: line_number must be an integer", spec)
			}
			v = &n
		}
		edit = recalc.SetLineNumber{Value: v}
	case "product_code":
		edit = recalc.SetProductCode{Value: optionalString(value)}
	case "product_name", "product":
		edit = recalc.SetProductName{Value: optionalString(value)}
	case "description":
		edit = recalc.SetDescription{Value: optionalString(value)}
	default:
		return desk.EditLine{}, fmt.Errorf("line edit %q: unknown field %q", spec, field)
	}
	return desk.EditLine{Index: index, Edit: edit}, nil
}

// headerEdits builds edits from the header flags that were set.
func headerEdits(flags *pflag.FlagSet) []desk.Edit {
	var edits []desk.Edit
	str := func(name string) (*string, bool) {
		if !flags.Changed(name) {
			return nil, false
		}
		v, _ := flags.GetString(name)
		return optionalString(v), true
	}

	if v, ok := str("invoice-number"); ok {
		edits = append(edits, desk.SetInvoiceNumber{Value: v})
	}
	if v, ok := str("invoice-date"); ok {
		edits = append(edits, desk.SetInvoiceDate{Value: v})
	}
	if v, ok := str("due-date"); ok {
		edits = append(edits, desk.SetDueDate{Value: v})
	}
	if v, ok := str("customer-name"); ok {
		edits = append(edits, desk.SetCustomerName{Value: v})
	}
	if v, ok := str("customer-address"); ok {
		edits = append(edits, desk.SetCustomerAddress{Value: v})
	}
	if v, ok := str("customer-email"); ok {
		edits = append(edits, desk.SetCustomerEmail{Value: v})
	}
	if v, ok := str("customer-phone"); ok {
		edits = append(edits, desk.SetCustomerPhone{Value: v})
	}
	if flags.Changed("currency") {
		v, _ := flags.GetString("currency")
		edits = append(edits, desk.SetCurrency{Value: v})
	}
	if flags.Changed("status") {
		v, _ := flags.GetString("status")
		edits = append(edits, desk.SetStatus{Value: models.OrderStatus(strings.ToLower(v))})
	}
	return edits
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return &f, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
