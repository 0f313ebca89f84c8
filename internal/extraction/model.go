package extraction

import "github.com/shopspring/decimal"

// ParsedInvoiceData is the structured result of one OCR extraction
type ParsedInvoiceData struct {
	InvoiceNumber   string            `json:"invoiceNumber"`
	InvoiceDate     string            `json:"invoiceDate"` // YYYY-MM-DD or empty
	CustomerName    string            `json:"customerName"`
	CustomerPhone   string            `json:"customerPhone"`
	CustomerAddress string            `json:"customerAddress"`
	Items           []InvoiceLineItem `json:"items"`
	Subtotal        float64           `json:"subtotal"`
	TotalGST        float64           `json:"totalGST"`
	Total           float64           `json:"total"`
	Notes           string            `json:"notes"`
}

// IsEmpty reports whether nothing at all was extracted
func (d ParsedInvoiceData) IsEmpty() bool {
	return d.InvoiceNumber == "" && d.InvoiceDate == "" && d.CustomerName == "" &&
		d.CustomerPhone == "" && d.CustomerAddress == "" && d.Notes == "" &&
		len(d.Items) == 0 && d.Subtotal == 0 && d.TotalGST == 0 && d.Total == 0
}

// InvoiceLineItem is a single billed row
type InvoiceLineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	GSTPct      float64 `json:"gstPct"`
	Amount      float64 `json:"amount"` // full precision, see DisplayAmount
}

// Recalculate sets Amount from quantity, rate and GST when both quantity and rate are known
func (it *InvoiceLineItem) Recalculate() {
	if it.Quantity > 0 && it.Rate > 0 {
		it.Amount = LineAmount(it.Quantity, it.Rate, it.GSTPct)
	}
}

// DisplayAmount returns Amount rounded to 2 decimals
func (it InvoiceLineItem) DisplayAmount() float64 {
	return Round2(it.Amount)
}

// LineAmount computes quantity * rate with GST applied
func LineAmount(quantity, rate, gstPct float64) float64 {
	return quantity * rate * (1 + gstPct/100)
}

// Round2 rounds a monetary value half away from zero to 2 decimals
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
