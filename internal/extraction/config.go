package extraction

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// KnownItem is a dictionary entry for the known-name line-item tier
type KnownItem struct {
	Name   string  `json:"name"`
	GSTPct float64 `json:"gstPct"`
}

// Config holds the locale assumptions of the engine
type Config struct {
	// CurrencySymbols are the glyphs/prefixes that may precede an amount, e.g. "₹", "Rs."
	CurrencySymbols []string
	// ThousandsSeparator groups digits, e.g. "," in 1,220
	ThousandsSeparator string
	// DecimalSeparator separates the fraction, e.g. "." in 199.4
	DecimalSeparator string
	// AllowedGST is the set of valid GST percentages
	AllowedGST []float64
	// DefaultGST is used when a rate is missing or outside AllowedGST. Zero means 18.
	DefaultGST float64
	// KnownItems enables the known-name tier; empty disables it
	KnownItems []KnownItem
}

// DefaultConfig returns the Indian-rupee locale the engine was built around
func DefaultConfig() Config {
	return Config{
		CurrencySymbols:    []string{"₹", "Rs.", "Rs", "INR"},
		ThousandsSeparator: ",",
		DecimalSeparator:   ".",
		AllowedGST:         []float64{0, 5, 12, 18, 28},
		DefaultGST:         18,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.CurrencySymbols) == 0 {
		c.CurrencySymbols = def.CurrencySymbols
	}
	if c.ThousandsSeparator == "" {
		c.ThousandsSeparator = def.ThousandsSeparator
	}
	if c.DecimalSeparator == "" {
		c.DecimalSeparator = def.DecimalSeparator
	}
	if len(c.AllowedGST) == 0 {
		c.AllowedGST = def.AllowedGST
	}
	if c.DefaultGST == 0 || !c.IsAllowedGST(c.DefaultGST) {
		c.DefaultGST = def.DefaultGST
	}
	return c
}

// IsAllowedGST reports whether pct is one of the allowed GST rates
func (c Config) IsAllowedGST(pct float64) bool {
	for _, allowed := range c.AllowedGST {
		if allowed == pct {
			return true
		}
	}
	return false
}

// SnapGST returns pct when allowed, otherwise the default rate
func (c Config) SnapGST(pct float64) float64 {
	if c.IsAllowedGST(pct) {
		return pct
	}
	return c.DefaultGST
}

// currencyAlternation returns a regexp alternation of the currency symbols, longest first
func (c Config) currencyAlternation() string {
	symbols := append([]string(nil), c.CurrencySymbols...)
	sort.SliceStable(symbols, func(i, j int) bool { return len(symbols[i]) > len(symbols[j]) })
	quoted := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.TrimSpace(s); s != "" {
			quoted = append(quoted, regexp.QuoteMeta(s))
		}
	}
	return strings.Join(quoted, "|")
}

// ParseKnownItems parses a "Name:GST,Name:GST" list, e.g. "Charger:5,Laptop Bag:12".
// Entries without a rate get a negative rate, which the extractor replaces with the default.
func ParseKnownItems(list string) ([]KnownItem, error) {
	var items []KnownItem
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, rate, hasRate := strings.Cut(entry, ":")
		item := KnownItem{Name: strings.TrimSpace(name), GSTPct: -1}
		if item.Name == "" {
			return nil, fmt.Errorf("known item %q has no name", entry)
		}
		if hasRate {
			pct, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(rate), "%"), 64)
			if err != nil {
				return nil, fmt.Errorf("parsing GST for known item %q: %w", item.Name, err)
			}
			item.GSTPct = pct
		}
		items = append(items, item)
	}
	return items, nil
}
