package recalc_test

import (
	"fmt"

	"orderdesk/internal/recalc"
	"orderdesk/pkg/models"
)

func ExampleEngine_ApplyLineEdit() {
	order := &models.Order{
		ID: 1,
		LineItems: []models.LineItem{
			{ID: 1, Quantity: models.Float(2), UnitPrice: models.Float(500)},
		},
	}

	edited, err := recalc.Engine{}.ApplyLineEdit(order, 0, recalc.SetDiscount{Percent: 10})
	if err != nil {
		panic(err)
	}

	fmt.Printf("line %.2f subtotal %.2f tax %.2f total %.2f\n",
		*edited.LineItems[0].LineTotal, *edited.Subtotal, *edited.Tax, *edited.Total)
	// Output: line 900.00 subtotal 900.00 tax 90.00 total 990.00
}
