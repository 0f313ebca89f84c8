package extraction

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// knownItemRules are the compiled patterns for one dictionary entry
type knownItemRules struct {
	item   KnownItem
	before *regexp.Regexp // name, then numbers
	after  *regexp.Regexp // numbers, then name
}

// positioned is an item together with the span of text it was read from
type positioned struct {
	pos, end int
	item     InvoiceLineItem
}

func (p *Parser) compileItemRules() {
	num, cur := p.number, p.currency
	ds := regexp.QuoteMeta(p.cfg.DecimalSeparator)
	qty := `\d+(?:` + ds + `\d+)?`
	pct := `\d{1,2}(?:` + ds + `\d+)?`
	desc := `([A-Za-z][A-Za-z0-9\-]*)`

	p.tableWithGST = regexp.MustCompile(`(?i)\b` + desc + `\s+(?:GST\s*)?(` + pct + `)\s*%\s*(` + qty + `)\s+` +
		cur + `(` + num + `)\s+` + cur + `(` + num + `)\b`)
	p.tableBare = regexp.MustCompile(`(?i)\b` + desc + `\s+(` + qty + `)\s+` + cur + `(` + num + `)\s+` + cur + `(` + num + `)\b`)
	p.generic = regexp.MustCompile(`\b(\d{1,4})\s+` + cur + `(` + num + `)\s+` + cur + `(` + num + `)\b`)

	p.known = p.known[:0]
	for _, k := range p.cfg.KnownItems {
		name := strings.Join(strings.Fields(regexp.QuoteMeta(k.Name)), `\s+`)
		if name == "" {
			continue
		}
		p.known = append(p.known, knownItemRules{
			item: k,
			before: regexp.MustCompile(`(?i)\b` + name + `\b(?:\s*GST)?(?:\s*(` + pct + `)\s*%)?\s*[:\-]?\s*(` + qty + `)\s+` +
				cur + `(` + num + `)(?:\s+` + cur + `(` + num + `))?`),
			after: regexp.MustCompile(`(?i)\b(` + qty + `)\s+` + cur + `(` + num + `)(?:\s+` + cur + `(` + num + `))?\s+` + name + `\b`),
		})
	}
}

// extractItems runs the table, known-name and generic tiers in order and returns the
// result of the first tier that finds anything, in text order
func (p *Parser) extractItems(text string) []positioned {
	for _, tier := range []func(string) []positioned{p.tableItems, p.knownItems, p.genericItems} {
		if found := tier(text); len(found) > 0 {
			sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })
			return found
		}
	}
	return nil
}

// tableItems matches rows with an explicit GST column first, then rows without one in the
// text that remains
func (p *Parser) tableItems(text string) []positioned {
	var found []positioned
	remaining := []byte(text)

	for _, m := range p.tableWithGST.FindAllStringSubmatchIndex(text, -1) {
		blank(remaining, m[0], m[1])
		desc, ok := p.cleanDescription(text[m[2]:m[3]])
		if !ok {
			continue
		}
		item, ok := p.buildItem(desc, text[m[6]:m[7]], text[m[8]:m[9]], text[m[10]:m[11]], text[m[4]:m[5]])
		if ok {
			found = append(found, positioned{pos: m[0], end: m[1], item: item})
		}
	}

	rest := string(remaining)
	for _, m := range p.tableBare.FindAllStringSubmatchIndex(rest, -1) {
		desc, ok := p.cleanDescription(rest[m[2]:m[3]])
		if !ok {
			continue
		}
		item, ok := p.buildItem(desc, rest[m[4]:m[5]], rest[m[6]:m[7]], rest[m[8]:m[9]], "")
		if ok {
			found = append(found, positioned{pos: m[0], end: m[1], item: item})
		}
	}

	return found
}

// knownItems tries every dictionary name, first with the name before the numbers and then
// after them. Each name yields at most one item.
func (p *Parser) knownItems(text string) []positioned {
	var found []positioned
	for _, k := range p.known {
		if m := k.before.FindStringSubmatchIndex(text); m != nil {
			pct := ""
			if m[2] >= 0 {
				pct = text[m[2]:m[3]]
			}
			if item, ok := p.buildKnownItem(k.item, text[m[4]:m[5]], text[m[6]:m[7]], pct); ok {
				found = append(found, positioned{pos: m[0], end: m[1], item: item})
				continue
			}
		}
		if m := k.after.FindStringSubmatchIndex(text); m != nil {
			if item, ok := p.buildKnownItem(k.item, text[m[2]:m[3]], text[m[4]:m[5]], ""); ok {
				found = append(found, positioned{pos: m[0], end: m[1], item: item})
			}
		}
	}
	return found
}

// genericItems reads every integer-number-number triplet as quantity, rate and amount
func (p *Parser) genericItems(text string) []positioned {
	var found []positioned
	for _, m := range p.generic.FindAllStringSubmatchIndex(text, -1) {
		if partOfNumber(text, m[2], m[3]) {
			continue
		}
		qty := p.parseAmount(text[m[2]:m[3]])
		rate := p.parseAmount(text[m[4]:m[5]])
		if qty <= 0 || rate <= 0 {
			continue
		}
		// bare triplets always take the default GST
		item := InvoiceLineItem{Description: fmt.Sprintf("Item %d", len(found)+1), Quantity: qty, Rate: rate, GSTPct: p.cfg.DefaultGST}
		item.Recalculate()
		found = append(found, positioned{pos: m[0], end: m[1], item: item})
	}
	return found
}

// buildItem assembles a validated line item. An explicit pct is snapped to the allowed set;
// without one the rate is inferred from the printed amount. Amount is always recomputed.
func (p *Parser) buildItem(desc, qtyText, rateText, amountText, pctText string) (InvoiceLineItem, bool) {
	qty := p.parseAmount(qtyText)
	rate := p.parseAmount(rateText)
	if qty <= 0 || rate <= 0 {
		return InvoiceLineItem{}, false
	}

	var gst float64
	if pctText != "" {
		gst = p.cfg.SnapGST(p.parseAmount(pctText))
	} else {
		gst = p.inferGST(qty, rate, p.parseAmount(amountText))
	}

	item := InvoiceLineItem{Description: desc, Quantity: qty, Rate: rate, GSTPct: gst}
	item.Recalculate()
	return item, true
}

func (p *Parser) buildKnownItem(k KnownItem, qtyText, rateText, pctText string) (InvoiceLineItem, bool) {
	qty := p.parseAmount(qtyText)
	rate := p.parseAmount(rateText)
	if qty <= 0 || rate <= 0 {
		return InvoiceLineItem{}, false
	}

	gst := p.cfg.DefaultGST
	if pct := p.parseAmount(pctText); pctText != "" && p.cfg.IsAllowedGST(pct) {
		gst = pct
	} else if k.GSTPct >= 0 && p.cfg.IsAllowedGST(k.GSTPct) {
		gst = k.GSTPct
	}

	item := InvoiceLineItem{Description: k.Name, Quantity: qty, Rate: rate, GSTPct: gst}
	item.Recalculate()
	return item, true
}

// inferGST returns the non-zero allowed rate whose computed amount matches the printed one,
// or the default rate
func (p *Parser) inferGST(qty, rate, amount float64) float64 {
	if amount <= 0 {
		return p.cfg.DefaultGST
	}
	tolerance := math.Max(0.011, amount*1e-6)
	for _, g := range p.cfg.AllowedGST {
		if g == 0 {
			continue
		}
		if math.Abs(LineAmount(qty, rate, g)-amount) <= tolerance {
			return g
		}
	}
	return p.cfg.DefaultGST
}

// cleanDescription rejects captions, currency words and fragments that cannot name a product
func (p *Parser) cleanDescription(desc string) (string, bool) {
	desc = strings.Trim(desc, "-")
	if len(desc) <= 2 || headerWords.has(desc) {
		return "", false
	}
	for _, sym := range p.cfg.CurrencySymbols {
		if strings.EqualFold(strings.TrimSuffix(sym, "."), desc) {
			return "", false
		}
	}
	return desc, true
}

func blank(b []byte, start, end int) {
	for i := start; i < end; i++ {
		b[i] = ' '
	}
}

// withoutSpans blanks the text each item was read from and collapses the gaps
func withoutSpans(text string, found []positioned) string {
	if len(found) == 0 {
		return text
	}
	b := []byte(text)
	for _, f := range found {
		blank(b, f.pos, f.end)
	}
	return strings.TrimSpace(reMultiSpace.ReplaceAllString(string(b), " "))
}
