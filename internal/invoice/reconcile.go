package invoice

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/zombor/invoice-capture/internal/extraction"
)

// Totals sums the items of an invoice. Items without both quantity and rate only contribute
// their amount to the total.
func Totals(items []extraction.InvoiceLineItem) (subtotal, totalGST, total float64) {
	hundred := decimal.NewFromInt(100)
	var sub, gst, extra decimal.Decimal
	for _, it := range items {
		if it.Quantity > 0 && it.Rate > 0 {
			base := decimal.NewFromFloat(it.Quantity).Mul(decimal.NewFromFloat(it.Rate))
			sub = sub.Add(base)
			gst = gst.Add(base.Mul(decimal.NewFromFloat(it.GSTPct)).Div(hundred))
			continue
		}
		extra = extra.Add(decimal.NewFromFloat(it.Amount))
	}
	subtotal, _ = sub.Round(2).Float64()
	totalGST, _ = gst.Round(2).Float64()
	total, _ = sub.Add(gst).Add(extra).Round(2).Float64()
	return subtotal, totalGST, total
}

// withinTolerance compares a printed total with the computed one, allowing for rounding on
// the printed invoice: 0.05 or half a percent, whichever is larger
func withinTolerance(printed, computed float64) bool {
	p := decimal.NewFromFloat(printed)
	diff := p.Sub(decimal.NewFromFloat(computed)).Abs()
	tolerance := decimal.Max(decimal.NewFromFloat(0.05), p.Abs().Mul(decimal.NewFromFloat(0.005)))
	return diff.LessThanOrEqual(tolerance)
}

// Reconcile checks the printed totals of an extraction against its items. It returns one
// human readable warning per disagreement, or nil when everything adds up or there is
// nothing to compare.
func Reconcile(data extraction.ParsedInvoiceData) []string {
	var warnings []string
	for i, it := range data.Items {
		if it.Quantity <= 0 || it.Rate <= 0 {
			warnings = append(warnings, fmt.Sprintf("item %d (%s) is missing a quantity or rate", i+1, it.Description))
		}
	}
	if len(data.Items) == 0 {
		return warnings
	}

	subtotal, totalGST, total := Totals(data.Items)
	checks := []struct {
		name              string
		printed, computed float64
	}{
		{"subtotal", data.Subtotal, subtotal},
		{"total GST", data.TotalGST, totalGST},
		{"total", data.Total, total},
	}
	for _, c := range checks {
		if c.printed == 0 || withinTolerance(c.printed, c.computed) {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("printed %s %.2f does not match the items (%.2f)", c.name, c.printed, c.computed))
	}
	return warnings
}
