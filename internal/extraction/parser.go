package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Parser extracts invoice fields from OCR text for one locale configuration.
// A Parser is immutable after construction and safe for concurrent use.
type Parser struct {
	cfg Config

	reUnsafe *regexp.Regexp

	currency string // optional currency prefix, including trailing space
	number   string // one amount in the configured locale

	tableWithGST *regexp.Regexp
	tableBare    *regexp.Regexp
	generic      *regexp.Regexp
	known        []knownItemRules

	subtotal   *regexp.Regexp
	totalGST   *regexp.Regexp
	grandTotal *regexp.Regexp
	total      *regexp.Regexp
}

var defaultParser = NewParser(DefaultConfig())

// NewParser compiles the extraction rules for cfg. Zero-valued fields of cfg fall back to
// DefaultConfig.
func NewParser(cfg Config) *Parser {
	cfg = cfg.withDefaults()
	p := &Parser{cfg: cfg, reUnsafe: unsafeCharsPattern(cfg.CurrencySymbols)}

	ts := regexp.QuoteMeta(cfg.ThousandsSeparator)
	ds := regexp.QuoteMeta(cfg.DecimalSeparator)
	p.number = `(?:\d{1,3}(?:` + ts + `\d{3})+(?:` + ds + `\d+)?|\d+(?:` + ds + `\d+)?)`
	if alt := cfg.currencyAlternation(); alt != "" {
		p.currency = `(?:(?:` + alt + `)\s*)?`
	}

	p.compileItemRules()
	p.compileTotalRules()
	return p
}

// Config returns the effective configuration of p
func (p *Parser) Config() Config {
	return p.cfg
}

// ParseInvoiceOCRText extracts structured invoice data using the default locale
func ParseInvoiceOCRText(text string) ParsedInvoiceData {
	return defaultParser.Parse(text)
}

// Parse extracts structured invoice data from raw OCR text. It never fails: fields that
// cannot be found are left at their zero value and Items is always non-nil.
func (p *Parser) Parse(text string) ParsedInvoiceData {
	data := ParsedInvoiceData{Items: []InvoiceLineItem{}}
	clean := p.Normalize(text)
	if clean == "" {
		return data
	}

	found := p.extractItems(clean)
	for _, f := range found {
		data.Items = append(data.Items, f.item)
	}
	extractHeader(withoutSpans(clean, found), &data)
	data.Subtotal, data.TotalGST, data.Total = p.extractTotals(clean)
	return data
}

// parseAmount converts a matched amount to float64 honouring the configured separators.
// Malformed input yields 0.
func (p *Parser) parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, p.cfg.ThousandsSeparator, "")
	if p.cfg.DecimalSeparator != "." {
		s = strings.ReplaceAll(s, p.cfg.DecimalSeparator, ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
