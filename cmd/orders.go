package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"orderdesk/internal/logger"
	"orderdesk/internal/poller"
	"orderdesk/internal/recalc"
	"orderdesk/pkg/models"
)

var ordersCmd = &cobra.Command{
	Use:     "orders",
	Aliases: []string{"order"},
	Short:   "List, inspect, edit and delete orders",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all orders, newest first",
	Example: `  orderdesk orders list
  orderdesk orders list --json`,
	Args: cobra.NoArgs,
	RunE: runOrdersList,
}

var ordersShowCmd = &cobra.Command{
	Use:   "show [order-id]",
	Short: "Show one order with its line items",
	Example: `  orderdesk orders show 42
  orderdesk orders show 42 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runOrdersShow,
}

var ordersDeleteCmd = &cobra.Command{
	Use:   "delete [order-id]",
	Short: "Delete an order and its line items",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrdersDelete,
}

var ordersEditCmd = &cobra.Command{
	Use:   "edit [order-id]",
	Short: "Edit order fields and line items, recalculating totals",
	Long: `Apply edits to an order and save them with a single update.

Header fields are set with flags; an empty value clears the field. Line
items are edited with --line INDEX:FIELD=VALUE, where INDEX is the
zero-based position in the order and FIELD is one of quantity,
unit_price, discount, line_number, product_code, product_name or
description. Quantity, unit price and discount changes recompute the
line total, and the order subtotal, tax and total are recomputed from
the lines before saving.`,
	Example: `  # Fix a quantity and apply a 10% discount to the first line
  orderdesk orders edit 42 --line 0:quantity=3 --line 0:discount=10

  # Correct the customer and preview the result without saving
  orderdesk orders edit 42 --customer-name "Acme GmbH" --currency EUR --dry-run

  # Mark an order completed
  orderdesk orders edit 42 --status completed`,
	Args: cobra.ExactArgs(1),
	RunE: runOrdersEdit,
}

func init() {
	rootCmd.AddCommand(ordersCmd)
	ordersCmd.AddCommand(ordersListCmd, ordersShowCmd, ordersDeleteCmd, ordersEditCmd)

	ordersListCmd.Flags().Bool("json", false, "Print raw JSON")
	ordersShowCmd.Flags().Bool("json", false, "Print raw JSON")
	addEditFlags(ordersEditCmd.Flags())
}

func addEditFlags(f *pflag.FlagSet) {
	f.String("invoice-number", "", "Invoice number")
	f.String("invoice-date", "", "Invoice date (YYYY-MM-DD)")
	f.String("due-date", "", "Due date (YYYY-MM-DD)")
	f.String("customer-name", "", "Customer name")
	f.String("customer-address", "", "Customer address")
	f.String("customer-email", "", "Customer email")
	f.String("customer-phone", "", "Customer phone")
	f.String("currency", "", "Currency code, e.g. USD")
	f.String("status", "", "Order status: pending, processing, completed, cancelled")
	f.StringArray("line", nil, "Line edit INDEX:FIELD=VALUE (repeatable)")
	f.Bool("dry-run", false, "Show the recalculated order without saving")
	f.Bool("json", false, "Print the resulting order as JSON")
}

func parseOrderID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id %q", arg)
	}
	return id, nil
}

func runOrdersList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("orders")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := newApp(poller.Options{}, log)
	if err != nil {
		return err
	}
	ctx, cancel := createCommandContext(cfg.HTTPTimeout, log)
	defer cancel()

	if err := a.desk.Refresh(ctx); err != nil {
		return handleServiceError(err, "listing orders", log)
	}
	orders := a.desk.Orders()
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), orders)
	}
	printOrderTable(cmd.OutOrStdout(), orders)
	return nil
}

func runOrdersShow(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("orders")
	asJSON, _ := cmd.Flags().GetBool("json")

	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	a, err := newApp(poller.Options{}, log)
	if err != nil {
		return err
	}
	ctx, cancel := createCommandContext(cfg.HTTPTimeout, log)
	defer cancel()

	o, err := a.client.GetOrder(ctx, id)
	if err != nil {
		return handleServiceError(err, "fetching order", log)
	}
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), o)
	}
	printOrder(cmd.OutOrStdout(), o)
	printAudit(cmd.OutOrStdout(), recalc.NewAuditor(a.desk.Engine()).Audit(o))
	return nil
}

func runOrdersDelete(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("orders")

	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	a, err := newApp(poller.Options{}, log)
	if err != nil {
		return err
	}
	ctx, cancel := createCommandContext(cfg.HTTPTimeout, log)
	defer cancel()

	if err := a.desk.Delete(ctx, id); err != nil {
		return handleServiceError(err, "deleting order", log)
	}
	return nil
}

func runOrdersEdit(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("orders")
	flags := cmd.Flags()
	dryRun, _ := flags.GetBool("dry-run")
	asJSON, _ := flags.GetBool("json")
	lineSpecs, _ := flags.GetStringArray("line")

	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}

	edits := headerEdits(flags)
	for _, spec := range lineSpecs {
		e, err := parseLineEdit(spec)
		if err != nil {
			return err
		}
		edits = append(edits, e)
	}
	if len(edits) == 0 {
		return fmt.Errorf("nothing to edit; see --help for the available flags")
	}

	a, err := newApp(poller.Options{}, log)
	if err != nil {
		return err
	}
	ctx, cancel := createCommandContext(cfg.HTTPTimeout, log)
	defer cancel()

	if _, err := a.desk.SelectByID(ctx, id); err != nil {
		return handleServiceError(err, "fetching order", log)
	}
	draft, err := a.desk.Edit(edits...)
	if err != nil {
		return handleServiceError(err, "editing order", log)
	}

	log.Info().
		Int64("order_id", id).
		Int("edits", len(edits)).
		Bool("dry_run", dryRun).
		Msg("Applied edits to draft")

	result := draft
	if dryRun {
		a.desk.DiscardDraft()
	} else if result, err = a.desk.Commit(ctx); err != nil {
		return handleServiceError(err, "saving order", log)
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	printOrder(cmd.OutOrStdout(), result)
	if dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "\n(dry run: nothing was saved)")
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return nil
}

func printOrderTable(w io.Writer, orders []models.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders yet. Upload an invoice with `orderdesk upload <file>`.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Order", "Invoice", "Customer", "Total", "Status", "Processing"})
	table.SetBorder(false)
	for _, o := range orders {
		processing := ""
		if o.ProcessingStatus != nil {
			processing = string(*o.ProcessingStatus)
		}
		table.Append([]string{
			strconv.FormatInt(o.ID, 10),
			o.OrderNumber,
			text(o.InvoiceNumber),
			text(o.CustomerName),
			money(o.Total, o.Currency),
			string(o.Status),
			processing,
		})
	}
	table.Render()
}

func printOrder(w io.Writer, o *models.Order) {
	fmt.Fprintf(w, "Order %s (id %d)\n", o.OrderNumber, o.ID)
	fmt.Fprintf(w, "  Invoice:    %s  dated %s  due %s\n", text(o.InvoiceNumber), text(o.InvoiceDate), text(o.DueDate))
	fmt.Fprintf(w, "  Customer:   %s\n", text(o.CustomerName))
	if o.CustomerEmail != nil || o.CustomerPhone != nil {
		fmt.Fprintf(w, "              %s  %s\n", text(o.CustomerEmail), text(o.CustomerPhone))
	}
	if o.CustomerAddress != nil {
		fmt.Fprintf(w, "              %s\n", *o.CustomerAddress)
	}
	fmt.Fprintf(w, "  Status:     %s", o.Status)
	if o.ProcessingStatus != nil {
		fmt.Fprintf(w, " (processing %s)", *o.ProcessingStatus)
	}
	fmt.Fprintln(w)
	if o.ProcessingStatus != nil && !o.ProcessingStatus.Settled() {
		fmt.Fprintln(w, "  Extraction is still running; figures may change.")
	}
	if o.ErrorMessage != nil {
		fmt.Fprintf(w, "  Error:      %s\n", *o.ErrorMessage)
	}

	if len(o.LineItems) > 0 {
		fmt.Fprintln(w)
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"#", "Code", "Product", "Qty", "Unit Price", "Disc %", "Line Total"})
		table.SetBorder(false)
		for i, li := range o.LineItems {
			table.Append([]string{
				strconv.Itoa(i),
				text(li.ProductCode),
				text(li.ProductName),
				number(li.Quantity),
				money(li.UnitPrice, ""),
				strconv.FormatFloat(li.Discount, 'f', -1, 64),
				money(li.LineTotal, ""),
			})
		}
		table.Render()
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Subtotal:   %s\n", money(o.Subtotal, o.Currency))
	fmt.Fprintf(w, "  Tax:        %s\n", money(o.Tax, o.Currency))
	fmt.Fprintf(w, "  Total:      %s\n", money(o.Total, o.Currency))
}

// printAudit lists the amounts that disagree with the lines, if any.
func printAudit(w io.Writer, res *recalc.AuditResult) {
	if !res.HasDiscrepancy {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, colors.Color("[yellow]Stored amounts do not match the line items:"))
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "  - %s\n", warning)
	}
	fmt.Fprintln(w, "Run 'orderdesk orders edit' on any line to save recalculated totals.")
}

func text(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func number(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func money(f *float64, currency string) string {
	if f == nil {
		return "-"
	}
	if currency == "" {
		return fmt.Sprintf("%.2f", *f)
	}
	return fmt.Sprintf("%.2f %s", *f, currency)
}
