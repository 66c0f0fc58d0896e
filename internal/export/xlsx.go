package export

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"orderdesk/internal/logger"
	"orderdesk/pkg/models"
)

const (
	// OrdersSheet is the first worksheet of an exported workbook.
	OrdersSheet = "Orders"
	// LinesSheet holds one row per line item.
	LinesSheet = "Line Items"
)

// Exporter writes order snapshots to XLSX workbooks.
type Exporter struct {
	log zerolog.Logger
}

// NewExporter creates an Exporter.
func NewExporter() *Exporter {
	return &Exporter{log: logger.WithComponent("export")}
}

// XLSX returns a workbook with an orders sheet and a line items sheet.
func (e *Exporter) XLSX(orders []models.Order) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	// the default "Sheet1" becomes the orders sheet
	if err := f.SetSheetName(f.GetSheetName(0), OrdersSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LinesSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(0)

	orderRows := OrderRows(orders)
	values := make([][]interface{}, len(orderRows))
	for i, r := range orderRows {
		values[i] = r.Values()
	}
	if err := writeTable(f, OrdersSheet, OrderHeaders, values); err != nil {
		return nil, err
	}

	lineRows := LineRows(orders)
	values = make([][]interface{}, len(lineRows))
	for i, r := range lineRows {
		values[i] = r.Values()
	}
	if err := writeTable(f, LinesSheet, LineHeaders, values); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(OrdersSheet, "A", "B", 18)
	_ = f.SetColWidth(OrdersSheet, "C", "D", 12)
	_ = f.SetColWidth(OrdersSheet, "E", "F", 28)
	_ = f.SetColWidth(OrdersSheet, "H", "J", 12)
	_ = f.SetColWidth(LinesSheet, "A", "A", 18)
	_ = f.SetColWidth(LinesSheet, "D", "E", 36)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	e.log.Info().
		Int("orders", len(orderRows)).
		Int("lines", len(lineRows)).
		Dur("elapsed", time.Since(start)).
		Msg("Exported workbook")
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", last, bold)

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}
	return nil
}
