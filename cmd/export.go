package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"orderdesk/internal/export"
	"orderdesk/internal/logger"
	"orderdesk/internal/poller"
	"orderdesk/internal/sheets"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all orders to an XLSX workbook or a Google Sheet",
	Long: `Export the current order list.

The XLSX workbook has an Orders sheet with one row per order and a Line
Items sheet with one row per line. With --sheet-url (or GOOGLE_SHEET_URL)
the orders are written to a Google Sheet instead, using a service account
from GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.`,
	Example: `  # Write orders.xlsx in the current directory
  orderdesk export -o orders.xlsx

  # Replace the Orders worksheet of a shared spreadsheet
  orderdesk export --sheet-url https://docs.google.com/spreadsheets/d/ID/edit --replace`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "orders.xlsx", "XLSX output path")
	exportCmd.Flags().String("sheet-url", "", "Google Sheets URL (default from GOOGLE_SHEET_URL)")
	exportCmd.Flags().String("worksheet", "", "Worksheet name (default from GOOGLE_SHEET_WORKSHEET)")
	exportCmd.Flags().Bool("replace", false, "Clear existing rows in the worksheet before writing")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	outputPath, _ := cmd.Flags().GetString("output")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	worksheet, _ := cmd.Flags().GetString("worksheet")
	replace, _ := cmd.Flags().GetBool("replace")
	if sheetURL == "" {
		sheetURL = cfg.GoogleSheetURL
	}
	if worksheet == "" {
		worksheet = cfg.GoogleSheetWorksheet
	}
	// an explicit -o means a file even when a sheet is configured
	toSheet := sheetURL != "" && !cmd.Flags().Changed("output")

	a, err := newApp(poller.Options{}, log)
	if err != nil {
		return err
	}
	ctx, cancel := createCommandContext(2*cfg.HTTPTimeout, log)
	defer cancel()

	if err := a.desk.Refresh(ctx); err != nil {
		return handleServiceError(err, "listing orders", log)
	}
	orders := a.desk.Orders()

	if toSheet {
		svc, err := sheets.NewSheetsService(ctx, sheetURL)
		if err != nil {
			return handleServiceError(err, "connecting to Google Sheets", log)
		}
		if err := svc.WriteOrders(ctx, orders, worksheet, replace); err != nil {
			return handleServiceError(err, "writing to Google Sheets", log)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d orders to worksheet %q\n", len(orders), worksheet)
		return nil
	}

	data, err := export.NewExporter().XLSX(orders)
	if err != nil {
		return handleServiceError(err, "building workbook", log)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(data)).
		Msg("Workbook written")
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d orders to %s\n", len(orders), outputPath)
	return nil
}
