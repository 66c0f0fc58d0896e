package cmd

import (
	"testing"

	"github.com/spf13/pflag"

	"orderdesk/internal/desk"
	"orderdesk/internal/recalc"
)

func TestParseLineEdit(t *testing.T) {
	tests := []struct {
		spec    string
		index   int
		field   string
		wantErr bool
	}{
		{"0:quantity=3", 0, "quantity", false},
		{"2:price=19.99", 2, "unit_price", false},
		{"1:discount=12.5", 1, "discount", false},
		{"0:quantity=", 0, "quantity", false},
		{"0:product=Widget", 0, "product_name", false},
		{"3:line_number=4", 3, "line_number", false},
		{"0:quantity=abc", 0, "", true},
		{"x:quantity=1", 0, "", true},
		{"-1:quantity=1", 0, "", true},
		{"0:colour=red", 0, "", true},
		{"0-quantity", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseLineEdit(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseLineEdit(%q) = %+v, want error", tt.spec, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLineEdit(%q) error = %v", tt.spec, err)
			}
			if got.Index != tt.index || got.Edit.Field() != tt.field {
				t.Errorf("parseLineEdit(%q) = %d/%s", tt.spec, got.Index, got.Edit.Field())
			}
		})
	}
}

func TestParseLineEditClearsQuantity(t *testing.T) {
	got, err := parseLineEdit("0:quantity=")
	if err != nil {
		t.Fatal(err)
	}
	if q, ok := got.Edit.(recalc.SetQuantity); !ok || q.Value != nil {
		t.Errorf("edit = %#v, want SetQuantity{nil}", got.Edit)
	}
}

func TestHeaderEditsOnlyChangedFlags(t *testing.T) {
	flags := pflag.NewFlagSet("edit", pflag.ContinueOnError)
	addEditFlags(flags)
	if err := flags.Parse([]string{"--customer-name", "Acme", "--invoice-number", "", "--status", "COMPLETED"}); err != nil {
		t.Fatal(err)
	}

	edits := headerEdits(flags)
	if len(edits) != 3 {
		t.Fatalf("edits = %d, want 3", len(edits))
	}
	if e, ok := edits[0].(desk.SetInvoiceNumber); !ok || e.Value != nil {
		t.Errorf("edits[0] = %#v, want cleared invoice number", edits[0])
	}
	if e, ok := edits[1].(desk.SetCustomerName); !ok || *e.Value != "Acme" {
		t.Errorf("edits[1] = %#v", edits[1])
	}
	if e, ok := edits[2].(desk.SetStatus); !ok || e.Value != "completed" {
		t.Errorf("edits[2] = %#v", edits[2])
	}
}
