package extraction

import (
	"regexp"
	"strings"
)

var reSubPrefix = regexp.MustCompile(`(?i)sub\s*-?\s*$`)

func (p *Parser) compileTotalRules() {
	amount := `\s*[:\-]?\s*` + p.currency + `(` + p.number + `)`
	p.subtotal = regexp.MustCompile(`(?i)\bsub\s*-?\s*total` + amount)
	p.totalGST = regexp.MustCompile(`(?i)\b(?:total\s*(?:gst|tax|igst)|gst\s*(?:total|amount)|tax\s*amount)` + amount)
	p.grandTotal = regexp.MustCompile(`(?i)\b(?:grand\s*total|total\s*amount|amount\s*due|net\s*payable|net\s*amount)` + amount)
	p.total = regexp.MustCompile(`(?i)\btotal` + amount)
}

// extractTotals looks up the three labelled totals independently. Missing values are 0.
func (p *Parser) extractTotals(text string) (subtotal, totalGST, total float64) {
	if m := p.subtotal.FindStringSubmatch(text); m != nil {
		subtotal = p.parseAmount(m[1])
	}
	if m := p.totalGST.FindStringSubmatch(text); m != nil {
		totalGST = p.parseAmount(m[1])
	}
	total = p.extractGrandTotal(text)
	return subtotal, totalGST, total
}

// extractGrandTotal prefers an explicit grand total label, then the last bare "Total" that
// is not part of "Sub Total"
func (p *Parser) extractGrandTotal(text string) float64 {
	if m := p.grandTotal.FindStringSubmatch(text); m != nil {
		return p.parseAmount(m[1])
	}
	var last string
	for _, m := range p.total.FindAllStringSubmatchIndex(text, -1) {
		if reSubPrefix.MatchString(strings.TrimRight(text[:m[0]], " ")) {
			continue
		}
		last = text[m[2]:m[3]]
	}
	return p.parseAmount(last)
}
