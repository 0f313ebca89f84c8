package invoice

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	invoicesSheet = "Invoices"
	itemsSheet    = "Items"
)

var (
	invoiceHeaders = []string{
		"Draft ID", "Invoice No", "Invoice Date", "Customer", "Phone", "Address",
		"Subtotal", "Total GST", "Total", "Notes", "Warnings", "Created",
	}
	itemHeaders = []string{
		"Draft ID", "Invoice No", "Line", "Description", "Quantity", "Rate", "GST %", "Amount",
	}
)

// ExportXLSX returns a workbook with one row per draft on the Invoices sheet and one row per
// line item on the Items sheet
func (s *Service) ExportXLSX() ([]byte, error) {
	start := time.Now()

	drafts, err := s.ListDrafts()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the invoices sheet
	if err := f.SetSheetName(f.GetSheetName(0), invoicesSheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}

	if err := writeRow(f, invoicesSheet, 1, toAny(invoiceHeaders)); err != nil {
		return nil, err
	}
	if err := writeRow(f, itemsSheet, 1, toAny(itemHeaders)); err != nil {
		return nil, err
	}

	itemRow := 2
	for i, d := range drafts {
		inv := d.Invoice
		row := []any{
			d.ID, inv.InvoiceNumber, inv.InvoiceDate, inv.CustomerName, inv.CustomerPhone,
			inv.CustomerAddress, inv.Subtotal, inv.TotalGST, inv.Total, inv.Notes,
			len(d.Warnings), d.CreatedAt.Format(time.RFC3339),
		}
		if err := writeRow(f, invoicesSheet, i+2, row); err != nil {
			return nil, err
		}

		for n, it := range inv.Items {
			row := []any{d.ID, inv.InvoiceNumber, n + 1, it.Description, it.Quantity, it.Rate, it.GSTPct, it.DisplayAmount()}
			if err := writeRow(f, itemsSheet, itemRow, row); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	_ = f.SetColWidth(invoicesSheet, "A", "A", 38) // id
	_ = f.SetColWidth(invoicesSheet, "D", "D", 24) // customer
	_ = f.SetColWidth(invoicesSheet, "F", "F", 40) // address
	_ = f.SetColWidth(invoicesSheet, "J", "J", 40) // notes
	_ = f.SetColWidth(itemsSheet, "A", "A", 38)
	_ = f.SetColWidth(itemsSheet, "D", "D", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing xlsx: %w", err)
	}

	slog.Info("Exported drafts",
		"drafts", len(drafts),
		"items", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("resolving cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
