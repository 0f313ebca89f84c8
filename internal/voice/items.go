package voice

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	spokenNumber = `(\d+(?:\.\d+)?)`
	itemAddress  = `(?i)^item\s+(?:number\s+)?(\d+)\b\s*`
	descLabel    = `(?:(?:description|name|product)\s+` + filler + `)?`
	qtyLabel     = `(?:quantity|qty)\b\s*` + filler
	rateLabel    = `(?:rate|price)\b\s*` + filler
	descLazy     = `([A-Za-z][A-Za-z0-9\s\-]*?)`
	descGreedy   = `([A-Za-z][A-Za-z0-9\s\-]*)`
)

// itemPattern is one speaking order for an item edit. The ints are submatch indexes, 0 when
// the pattern has no such group.
type itemPattern struct {
	name                  string
	re                    *regexp.Regexp
	desc, quantity, price int
	lazyDesc              bool
}

var itemPatterns = []itemPattern{
	{
		name:     "description-quantity-rate",
		re:       regexp.MustCompile(itemAddress + descLabel + descLazy + `\s+` + qtyLabel + spokenNumber + `(?:\s+` + rateLabel + spokenNumber + `)?`),
		desc:     2,
		quantity: 3,
		price:    4,
		lazyDesc: true,
	},
	{
		name: "quantity-rate-description",
		re: regexp.MustCompile(itemAddress + qtyLabel + spokenNumber + `(?:\s+` + rateLabel + spokenNumber + `)?` +
			`(?:\s+` + descLabel + descGreedy + `)?`),
		quantity: 2,
		price:    3,
		desc:     4,
	},
	{
		name:     "description-rate-quantity",
		re:       regexp.MustCompile(itemAddress + descLabel + descLazy + `\s+` + rateLabel + spokenNumber + `(?:\s+` + qtyLabel + spokenNumber + `)?`),
		desc:     2,
		price:    3,
		quantity: 4,
		lazyDesc: true,
	},
	{
		name:     "rate-quantity",
		re:       regexp.MustCompile(itemAddress + rateLabel + spokenNumber + `(?:\s+` + qtyLabel + spokenNumber + `)?`),
		price:    2,
		quantity: 3,
	},
	{
		name: "description",
		re:   regexp.MustCompile(itemAddress + `(?:description|name|product)\s+` + filler + descGreedy),
		desc: 2,
	},
}

var (
	reItemAddress       = regexp.MustCompile(`(?i)\bitem\s+(?:number\s+)?\d+\b`)
	reItemAddressPrefix = regexp.MustCompile(itemAddress)
	reLeadingDesc       = regexp.MustCompile(`(?i)^` + descLabel + descGreedy)

	reFallbackDescription = regexp.MustCompile(`(?i)\b(?:description|product|item\s+name)\b\s*` + filler + descGreedy)
	reFallbackQuantity    = regexp.MustCompile(`(?i)\b(?:quantity|qty)\b\s*` + filler + spokenNumber)
	reFallbackRate        = regexp.MustCompile(`(?i)\b(?:rate|price)\b\s*` + filler + spokenNumber)
)

// itemEdit is the set of fields one utterance assigns to one item
type itemEdit struct {
	index                 int
	desc, quantity, price string
}

func (e itemEdit) empty() bool {
	return e.desc == "" && e.quantity == "" && e.price == ""
}

// applyItemEdits splits the transcript at every "item N" and applies the first speaking
// order that fits each part, or the loose field scan when none does. It reports whether the
// transcript addressed any item for editing.
func (s *session) applyItemEdits() bool {
	locs := reItemAddress.FindAllStringIndex(s.text, -1)
	addressed := false
	for i, loc := range locs {
		if removalBefore(s.text[:loc[0]]) {
			continue
		}
		addressed = true
		end := len(s.text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segment := strings.TrimSpace(s.text[loc[0]:end])
		edit, ok := matchItemEdit(segment)
		if !ok {
			edit, ok = looseItemEdit(segment)
		}
		if ok {
			s.applyEdit(edit)
		}
	}
	return addressed
}

// looseItemEdit reads the fields of an addressed segment that fits no speaking order, such
// as "item 2 charger gst 5 percent quantity 3" where another field interrupts
func looseItemEdit(segment string) (itemEdit, bool) {
	m := reItemAddressPrefix.FindStringSubmatchIndex(segment)
	if m == nil {
		return itemEdit{}, false
	}
	n, err := strconv.Atoi(segment[m[2]:m[3]])
	if err != nil || n < 1 {
		return itemEdit{}, false
	}
	rest := segment[m[1]:]

	edit := fieldsIn(rest)
	edit.index = n - 1
	if edit.desc == "" {
		if d := reLeadingDesc.FindStringSubmatch(rest); d != nil {
			edit.desc = untilStopWord(d[1])
		}
	}
	return edit, !edit.empty()
}

func matchItemEdit(segment string) (itemEdit, bool) {
	for _, p := range itemPatterns {
		m := p.re.FindStringSubmatch(segment)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return itemEdit{}, false
		}
		edit := itemEdit{index: n - 1, quantity: group(m, p.quantity), price: group(m, p.price)}
		if p.desc > 0 && m[p.desc] != "" {
			desc := strings.TrimSpace(m[p.desc])
			clean := untilStopWord(desc)
			// a lazy description that swallowed another field belongs to a later pattern
			if p.lazyDesc && clean != desc {
				continue
			}
			edit.desc = clean
		}
		if edit.empty() {
			continue
		}
		return edit, true
	}
	return itemEdit{}, false
}

func group(m []string, i int) string {
	if i <= 0 || i >= len(m) {
		return ""
	}
	return m[i]
}

// applyEdit writes the captured fields into the addressed item, creating blank items up to
// it when needed, and recomputes the amount
func (s *session) applyEdit(edit itemEdit) bool {
	qty, hasQty := parsePositive(edit.quantity)
	rate, hasRate := parsePositive(edit.price)
	if edit.desc == "" && !hasQty && !hasRate {
		return false
	}

	for len(s.items) <= edit.index {
		s.items = append(s.items, s.blankItem())
	}
	item := &s.items[edit.index]
	if edit.desc != "" {
		item.Description = edit.desc
		s.update(edit.index, FieldDescription)
	}
	if hasQty {
		item.Quantity = qty
		s.update(edit.index, FieldQuantity)
	}
	if hasRate {
		item.Rate = rate
		s.update(edit.index, FieldRate)
	}
	item.Recalculate()
	s.itemsChanged = true
	return true
}

// applyFallback handles single field mentions without an item address, editing the first
// item
func (s *session) applyFallback() {
	edit := fieldsIn(s.text)
	if edit.empty() {
		return
	}
	description := edit.desc
	if s.applyEdit(edit) && description != "" {
		s.prop.Description = &description
	}
}

// fieldsIn collects labelled description, quantity and rate mentions from text in any order.
// A "rate" right after "gst" or "tax" is the tax rate, not the price.
func fieldsIn(text string) itemEdit {
	var edit itemEdit
	if m := reFallbackDescription.FindStringSubmatch(text); m != nil {
		edit.desc = untilStopWord(m[1])
	}
	if m := reFallbackQuantity.FindStringSubmatch(text); m != nil {
		edit.quantity = m[1]
	}
	for _, m := range reFallbackRate.FindAllStringSubmatchIndex(text, -1) {
		if prev := strings.ToLower(lastWord(text[:m[0]])); prev == "gst" || prev == "tax" {
			continue
		}
		edit.price = text[m[2]:m[3]]
		break
	}
	return edit
}

func parsePositive(v string) (float64, bool) {
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

func lastWord(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[len(fields)-1], ".,;:!?")
}

// removalBefore reports whether text ends with a removal verb, optionally followed by "the"
func removalBefore(text string) bool {
	fields := strings.Fields(strings.ToLower(text))
	if n := len(fields); n > 0 && fields[n-1] == "the" {
		fields = fields[:n-1]
	}
	if len(fields) == 0 {
		return false
	}
	switch fields[len(fields)-1] {
	case "remove", "delete", "drop":
		return true
	}
	return false
}
