package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/cpq-engine/api"
	"github.com/warp/cpq-engine/catalog"
	"github.com/warp/cpq-engine/internal/config"
	"github.com/warp/cpq-engine/pricing"
	"github.com/warp/cpq-engine/pricing/store"
	"github.com/warp/cpq-engine/quote"
)

// ---------------------------------------------------------------------------
// Report styles
// ---------------------------------------------------------------------------

var (
	titleStyle = lipgloss.NewStyle().Bold(true)

	headerCellStyle = lipgloss.NewStyle().Bold(true).PaddingRight(2)

	cellStyle = lipgloss.NewStyle().PaddingRight(2)

	labelStyle = lipgloss.NewStyle().Width(18)

	amountStyle = lipgloss.NewStyle().Width(12).Align(lipgloss.Right)

	dimStyle = lipgloss.NewStyle().Faint(true)
)

// =============================================================================
// PRICE
// =============================================================================

func newPriceCmd() *cobra.Command {
	var (
		catalogPath   string
		productID     string
		ratePlanID    string
		values        map[string]string
		customerPrice string
		output        string
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price one rate plan configuration",
		Example: `  cpq price --product energy-billing --plan eb-cloud --value eb-cloud-pdl=118
  cpq price --product document-archive --plan da-cloud --value da-cloud-invoices=45 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newOfflineService(cmd.Context(), catalogPath)
			if err != nil {
				return err
			}

			priced, err := svc.PriceConfiguration(cmd.Context(), quote.ConfigureRequest{
				CatalogProductID: productID,
				RatePlanID:       ratePlanID,
				ChargeValues:     values,
				CustomerPrice:    customerPrice,
			})
			if err != nil {
				return err
			}

			if output == "json" {
				return writeJSONReport(cmd.OutOrStdout(), api.NewRatePlanPriceDTO(priced))
			}
			writePriceReport(cmd.OutOrStdout(), svc.Engine(), priced)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file (default: configured catalog, else the demo catalog)")
	cmd.Flags().StringVar(&productID, "product", "", "catalog product id")
	cmd.Flags().StringVar(&ratePlanID, "plan", "", "rate plan id")
	cmd.Flags().StringToStringVar(&values, "value", nil, "charge quantity as chargeID=value (repeatable)")
	cmd.Flags().StringVar(&customerPrice, "customer-price", "", "customer price override")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func writePriceReport(w io.Writer, engine *pricing.Engine, priced quote.PricedConfiguration) {
	p := priced.Product
	currency := pricing.DefaultCurrency
	if p.RatePlan != nil && len(p.RatePlan.Charges) > 0 {
		if entry, ok := engine.SelectPricing(p.RatePlan.Charges[0]); ok {
			currency = entry.Currency
		}
	}

	title := p.Name
	if p.RatePlan != nil {
		title += " / " + p.RatePlan.Name
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%s)", title, currency)))
	fmt.Fprintln(w)

	rows := [][]string{{"Charge", "Type", "Model", "Entered", "Amount"}}
	for _, l := range priced.Totals.Lines {
		amount := l.CalculatedPrice.StringFixed(2)
		if l.Informational {
			amount += " (info)"
		}
		rows = append(rows, []string{l.Charge.Name, string(l.Charge.Type), string(l.Charge.Model), l.EnteredValue, amount})
	}
	fmt.Fprintln(w, renderTable(rows))
	fmt.Fprintln(w)

	t := priced.Totals
	writeAmount(w, "Recurring", t.Recurring)
	writeAmount(w, "One-time", t.OneTime)
	writeAmount(w, "Grand total", t.Grand)
	writeAmount(w, "From second year", t.FromSecondYear)
	if t.PerUnitUOM != "" {
		writeAmount(w, "Cost per "+t.PerUnitUOM, t.PerUnitCost)
	}

	o := priced.Override
	switch {
	case o.Rejected:
		fmt.Fprintln(w, dimStyle.Render("customer price rejected"))
	case o.CustomerPrice.Set && !o.CustomerPrice.Pending:
		writeAmount(w, "Customer price", o.Effective)
		fmt.Fprintf(w, "%s%s%%\n", labelStyle.Render("Discount"), amountStyle.Render(o.DiscountPercent.StringFixed(2)))
	}
}

// =============================================================================
// COMPARE
// =============================================================================

func newCompareCmd() *cobra.Command {
	var (
		catalogPath   string
		pathID        string
		current       []string
		removed       []string
		nonMigratable []string
		output        string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare current products against a migration path",
		Example: `  cpq compare --path cloud-first \
    --current legacy-billing=9500:9000 --current legacy-archive=4000 \
    --remove cf-support --non-migratable legacy-archive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			products, err := parseCurrentProducts(current)
			if err != nil {
				return err
			}

			svc, err := newOfflineService(ctx, catalogPath)
			if err != nil {
				return err
			}
			q, err := svc.CreateQuote(ctx, "compare", "")
			if err != nil {
				return err
			}
			q.Products = products
			if err := svc.Store().SaveQuote(ctx, q); err != nil {
				return err
			}

			res, err := svc.CompareMigration(ctx, quote.MigrationRequest{
				QuoteID:        q.ID,
				PathID:         pathID,
				RemovedTargets: removed,
				NonMigratable:  nonMigratable,
			})
			if err != nil {
				return err
			}

			if output == "json" {
				return writeJSONReport(cmd.OutOrStdout(), api.NewMigrationComparisonDTO(res))
			}
			writeCompareReport(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog file (default: configured catalog, else the demo catalog)")
	cmd.Flags().StringVar(&pathID, "path", "", "migration path id")
	cmd.Flags().StringArrayVar(&current, "current", nil, "current product as id=price[:customerPrice] (repeatable)")
	cmd.Flags().StringSliceVar(&removed, "remove", nil, "target product ids to drop from the path")
	cmd.Flags().StringSliceVar(&nonMigratable, "non-migratable", nil, "current product ids that cannot migrate")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

// parseCurrentProducts parses id=price[:customerPrice] entries.
func parseCurrentProducts(entries []string) ([]pricing.Product, error) {
	products := make([]pricing.Product, 0, len(entries))
	for _, e := range entries {
		id, prices, ok := strings.Cut(e, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --current %q: want id=price[:customerPrice]", e)
		}
		list, customer, hasCustomer := strings.Cut(prices, ":")

		price, err := decimal.NewFromString(list)
		if err != nil {
			return nil, fmt.Errorf("invalid --current %q: %w", e, err)
		}
		p := pricing.Product{ID: id, Name: id, Price: price}
		if hasCustomer {
			cp, err := decimal.NewFromString(customer)
			if err != nil {
				return nil, fmt.Errorf("invalid --current %q: %w", e, err)
			}
			p.CustomerPrice = decimal.NewNullDecimal(cp)
		}
		products = append(products, p)
	}
	return products, nil
}

func writeCompareReport(w io.Writer, res quote.MigrationResult) {
	cmp := res.Comparison
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Migration to %s", res.Path.Title)))
	fmt.Fprintln(w)

	rows := [][]string{{"Target", "Replaces", "Price", "Customer price"}}
	for _, p := range res.Target {
		rows = append(rows, []string{
			p.Name, p.ReplacesProductID,
			p.Price.StringFixed(2), p.EffectiveCustomerPrice().StringFixed(2),
		})
	}
	fmt.Fprintln(w, renderTable(rows))
	fmt.Fprintln(w)

	writeAmount(w, "Current", cmp.Current.CustomerTotal)
	writeAmount(w, "Target", cmp.Target.CustomerTotal)
	fmt.Fprintf(w, "%s%s\n", labelStyle.Render("Change"), amountStyle.Render(cmp.PercentChangeLabel))
	if len(cmp.NonMigratable) > 0 {
		fmt.Fprintln(w, dimStyle.Render("non-migratable: "+strings.Join(cmp.NonMigratable, ", ")))
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// newOfflineService builds a service over an in-memory store holding the
// catalog: the flag value, else the configured file, else the demo catalog.
func newOfflineService(ctx context.Context, catalogPath string) (*quote.Service, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Get()
	if catalogPath == "" {
		catalogPath = cfg.Catalog.Path
	}

	cat := catalog.DemoCatalog()
	if catalogPath != "" {
		var err error
		if cat, err = catalog.NewParser().LoadFile(catalogPath); err != nil {
			return nil, err
		}
	}

	mem := store.NewMemory()
	if err := cat.Install(ctx, mem, mem); err != nil {
		return nil, err
	}
	return quote.NewService(pricing.NewEngine(cfg.Pricing.Engine()), mem, nil), nil
}

func renderTable(rows [][]string) string {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if n := lipgloss.Width(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	lines := make([]string, len(rows))
	for r, row := range rows {
		style := cellStyle
		if r == 0 {
			style = headerCellStyle
		}
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = style.Width(widths[i] + 2).Render(cell)
		}
		lines[r] = lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	}
	return strings.Join(lines, "\n")
}

func writeAmount(w io.Writer, label string, amount decimal.Decimal) {
	fmt.Fprintf(w, "%s%s\n", labelStyle.Render(label), amountStyle.Render(amount.StringFixed(2)))
}

func writeJSONReport(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
