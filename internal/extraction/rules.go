package extraction

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// rule is one extraction attempt within a field cascade
type rule struct {
	name    string
	pattern *regexp.Regexp
	group   int
	clean   func(string) string
	valid   func(string) bool
}

// cascade is an ordered list of rules, most specific first
type cascade []rule

// first returns the first capture that survives cleaning and validation, trying rules in
// order and each rule's matches left to right. The second result names the winning rule.
func (c cascade) first(text string) (string, string) {
	for _, r := range c {
		for _, m := range r.pattern.FindAllStringSubmatch(text, -1) {
			if r.group >= len(m) {
				continue
			}
			value := strings.TrimSpace(m[r.group])
			if r.clean != nil {
				value = r.clean(value)
			}
			if value == "" {
				continue
			}
			if r.valid != nil && !r.valid(value) {
				continue
			}
			return value, r.name
		}
	}
	return "", ""
}

// blankMatches replaces the capture of every accepted match of the cascades with spaces,
// keeping all offsets
func blankMatches(text string, cascades ...cascade) string {
	b := []byte(text)
	for _, c := range cascades {
		for _, r := range c {
			for _, m := range r.pattern.FindAllStringSubmatchIndex(text, -1) {
				start, end := m[2*r.group], m[2*r.group+1]
				if start < 0 {
					continue
				}
				value := strings.TrimSpace(text[start:end])
				if r.clean != nil {
					value = r.clean(value)
				}
				if value == "" || (r.valid != nil && !r.valid(value)) {
					continue
				}
				blank(b, start, end)
			}
		}
	}
	return string(b)
}

// candidate is a substring found by a permissive scan
type candidate struct {
	value string
	score int
	pos   int
}

// scoreCandidate rates how much a token looks like a document identifier
func scoreCandidate(value string) int {
	score := 0
	hasLetter := strings.IndexFunc(value, unicode.IsLetter) >= 0
	hasDigit := strings.IndexFunc(value, unicode.IsDigit) >= 0
	if hasLetter && hasDigit {
		score += 10
	}
	if strings.ContainsAny(value, "-_") {
		score += 5
	}
	switch n := len(value); {
	case n >= 5 && n <= 15:
		score += 3
	case n > 20:
		score -= 5
	}
	if r := []rune(value); len(r) > 0 && unicode.IsLetter(r[0]) {
		score += 2
	}
	return score
}

// bestCandidate returns the highest scoring candidate; ties keep the first seen
func bestCandidate(cands []candidate) (candidate, bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}
	ranked := append([]candidate(nil), cands...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	return ranked[0], true
}

// wordSet is a case-insensitive set of words
type wordSet map[string]bool

func newWordSet(words ...string) wordSet {
	s := make(wordSet, len(words))
	for _, w := range words {
		s[strings.ToUpper(w)] = true
	}
	return s
}

// has reports membership ignoring case and surrounding punctuation
func (s wordSet) has(word string) bool {
	return s[strings.ToUpper(strings.Trim(word, ".,:;-"))]
}

// with returns a new set holding the words of s plus extra
func (s wordSet) with(extra ...string) wordSet {
	out := make(wordSet, len(s)+len(extra))
	for w := range s {
		out[w] = true
	}
	for _, w := range extra {
		out[strings.ToUpper(w)] = true
	}
	return out
}

// headerWords are column captions and document headings that are never values
var headerWords = newWordSet(
	"INVOICE", "TAX", "BILL", "RECEIPT", "DESCRIPTION", "DESC", "ITEM", "ITEMS", "PARTICULARS",
	"PRODUCT", "QTY", "QUANTITY", "RATE", "PRICE", "UNIT", "GST", "GSTIN", "HSN", "SAC", "PCT",
	"PERCENT", "AMOUNT", "TOTAL", "SUBTOTAL", "GRAND", "DATE", "NUMBER", "NO", "SL", "SR",
	"CUSTOMER", "NAME", "PHONE", "MOBILE", "ADDRESS", "NOTES", "DISCOUNT", "BALANCE", "DUE",
	"CGST", "SGST", "IGST", "PAYMENT", "CASH", "TO",
)

// fieldLabels are captions that OCR commonly bleeds into the end of a neighbouring value
var fieldLabels = newWordSet(
	"PHONE", "MOBILE", "MOB", "TEL", "TELEPHONE", "CONTACT", "EMAIL", "ADDRESS", "GST", "GSTIN",
	"INVOICE", "DATE", "CUSTOMER", "BILL", "ITEM", "ITEMS", "DESCRIPTION", "QTY", "QUANTITY",
	"RATE", "AMOUNT", "TOTAL", "SUBTOTAL", "NOTES", "NOTE", "REMARKS", "TERMS", "HSN",
)

// cutAtLabel keeps the words before the first label in stops
func cutAtLabel(value string, stops wordSet) string {
	words := strings.Fields(value)
	for i, w := range words {
		if stops.has(w) {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}

// trimLabels strips label words from both ends of value
func trimLabels(value string, labels wordSet) string {
	words := strings.Fields(value)
	for len(words) > 0 && labels.has(words[0]) {
		words = words[1:]
	}
	for len(words) > 0 && labels.has(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

var (
	reISODate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reNumberDate = regexp.MustCompile(`^\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}$`)
	rePhoneLike  = regexp.MustCompile(`^\+?\d{10,13}$`)
	reBareYear   = regexp.MustCompile(`^(?:19|20)\d{2}$`)
	reAllDigits  = regexp.MustCompile(`^\d+$`)
)

func isDateLike(v string) bool  { return reISODate.MatchString(v) || reNumberDate.MatchString(v) }
func isPhoneLike(v string) bool { return rePhoneLike.MatchString(v) }
func isBareYear(v string) bool  { return reBareYear.MatchString(v) }

func hasDigit(v string) bool { return strings.IndexFunc(v, unicode.IsDigit) >= 0 }

// digitsOnly drops everything but ASCII digits
func digitsOnly(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
