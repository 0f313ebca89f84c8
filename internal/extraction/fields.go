package extraction

import (
	"regexp"
	"strings"
	"time"
)

var reIdentifierChars = regexp.MustCompile(`[^A-Za-z0-9\-_/]`)

var invoiceNumberRules = cascade{
	{
		name:    "invoice-number-label",
		pattern: regexp.MustCompile(`(?i)\binvoice\s*(?:number|num|no\.?|id)\s*[:.\-]?\s*([A-Za-z0-9][A-Za-z0-9\-_/]*)`),
		group:   1,
		clean:   cleanIdentifier,
		valid:   looksLikeInvoiceNumber,
	},
	{
		name:    "bill-number-label",
		pattern: regexp.MustCompile(`(?i)\b(?:inv|bill|receipt|ref)\s*(?:number|num|no\.?)\s*[:.\-]?\s*([A-Za-z0-9][A-Za-z0-9\-_/]*)`),
		group:   1,
		clean:   cleanIdentifier,
		valid:   looksLikeInvoiceNumber,
	},
	{
		name:    "invoice-prefixed-code",
		pattern: regexp.MustCompile(`(?i)\binvoice\s*:?\s*([A-Za-z]{1,6}[\-_/]?\d{2,}[A-Za-z0-9\-_/]*)`),
		group:   1,
		clean:   cleanIdentifier,
		valid:   looksLikeInvoiceNumber,
	},
}

// reIdentifierToken is the loose shape used by the permissive invoice number scan
var reIdentifierToken = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9_\-/]*[A-Za-z0-9]`)

// nonInvoiceLabels precede identifiers that belong to some other field
var nonInvoiceLabels = newWordSet("GSTIN", "GST", "PAN", "HSN", "SAC", "PHONE", "MOBILE", "MOB", "TEL", "PIN", "PINCODE", "ACCOUNT", "IFSC", "UPI")

var dateRules = cascade{
	{name: "invoice-date-label", pattern: regexp.MustCompile(`(?i)\b(?:invoice|bill|issue)\s*date\s*[:\-]?\s*(\d{4}-\d{2}-\d{2}|\d{1,2}[/\-]\d{1,2}[/\-]\d{4})\b`), group: 1, valid: isCalendarDate},
	{name: "iso", pattern: regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), group: 1, valid: isCalendarDate},
	{name: "mm/dd/yyyy", pattern: regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`), group: 1, valid: isCalendarDate},
	{name: "mm-dd-yyyy", pattern: regexp.MustCompile(`\b(\d{1,2}-\d{1,2}-\d{4})\b`), group: 1, valid: isCalendarDate},
}

const nameWords = `([A-Za-z][A-Za-z.']*(?:\s+[A-Za-z][A-Za-z.']*){0,5})`

var nameStops = fieldLabels.with("NAME", "ADDR", "NO", "NUMBER")

var customerNameRules = cascade{
	{
		name:    "customer-name-label",
		pattern: regexp.MustCompile(`(?i)\b(?:customer|client|buyer|party)\s*name\s*[:\-]?\s*` + nameWords),
		group:   1,
		clean:   cleanPersonName,
		valid:   validPersonName,
	},
	{
		name:    "bill-to-label",
		pattern: regexp.MustCompile(`(?i)\b(?:billed\s*to|bill\s*to|sold\s*to|customer|client|buyer)\s*[:\-]\s*` + nameWords),
		group:   1,
		clean:   cleanPersonName,
		valid:   validPersonName,
	},
	{
		name:    "name-label",
		pattern: regexp.MustCompile(`(?i)\bname\s*[:\-]\s*` + nameWords),
		group:   1,
		clean:   cleanPersonName,
		valid:   validPersonName,
	},
	{
		name:    "two-capitalized-words",
		pattern: regexp.MustCompile(`\b([A-Z][a-z]+\s+[A-Z][a-z]+)\b`),
		group:   1,
		valid:   validPersonName,
	},
}

const phoneLabel = `(?i)\b(?:phone|mobile|mob|tel|telephone|contact|ph|cell)\s*(?:no\.?|number)?\s*[:.\-]?\s*`

var phoneRules = cascade{
	{name: "phone-label", pattern: regexp.MustCompile(phoneLabel + `(\+?\d{10,13})\b`), group: 1, clean: digitsOnly, valid: validPhone},
	{name: "phone-label-grouped", pattern: regexp.MustCompile(phoneLabel + `(\+?\d{2,5}(?:[\s\-]\d{2,5}){1,3})\b`), group: 1, clean: firstTenDigits, valid: validPhone},
	{name: "country-code-mobile", pattern: regexp.MustCompile(`\b(91[6-9]\d{9})\b`), group: 1, valid: validPhone},
	{name: "mobile", pattern: regexp.MustCompile(`\b([6-9]\d{9})\b`), group: 1, valid: validPhone},
}

var addressStops = fieldLabels.with("GSTIN", "PAN", "EMAIL", "WEBSITE", "PARTICULARS")

var addressRules = cascade{
	{
		name:    "address-label",
		pattern: regexp.MustCompile(`(?i)\b(?:billing\s*|shipping\s*|customer\s*|delivery\s*)?address\s*[:\-]?\s*([A-Za-z0-9][^:]{1,200})`),
		group:   1,
		clean:   cleanAddress,
		valid:   func(v string) bool { return len(v) >= 3 },
	},
	{
		name:    "addr-label",
		pattern: regexp.MustCompile(`(?i)\baddr\.?\s*[:\-]\s*([A-Za-z0-9][^:]{1,200})`),
		group:   1,
		clean:   cleanAddress,
		valid:   func(v string) bool { return len(v) >= 3 },
	},
}

var notesStops = newWordSet("SUBTOTAL", "SIGNATURE", "AUTHORISED", "AUTHORIZED", "GRAND", "INVOICE")

var notesRules = cascade{
	{
		name:    "notes-label",
		pattern: regexp.MustCompile(`(?i)\b(?:notes?|remarks?|memo|terms(?:\s*(?:and|&)\s*conditions)?)\s*[:\-]\s*([^:]{1,300})`),
		group:   1,
		clean:   cleanNotes,
	},
}

// extractInvoiceNumber tries the labelled rules and falls back to the scored permissive scan
func extractInvoiceNumber(text string) string {
	if v, _ := invoiceNumberRules.first(text); v != "" {
		return v
	}
	// Phone numbers and dates are split into several tokens by the scan
	best, ok := bestCandidate(identifierCandidates(blankMatches(text, phoneRules, dateRules)))
	if !ok {
		return ""
	}
	return cleanIdentifier(best.value)
}

// identifierCandidates collects every identifier-shaped token that is not obviously some
// other kind of value
func identifierCandidates(text string) []candidate {
	var cands []candidate
	for _, loc := range reIdentifierToken.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		value := text[start:end]
		if !hasDigit(value) || isDateLike(value) || isPhoneLike(value) || isBareYear(value) || headerWords.has(value) {
			continue
		}
		if reAllDigits.MatchString(value) && len(value) < 4 {
			continue
		}
		if partOfNumber(text, start, end) {
			continue
		}
		if prev := previousWord(text, start); nonInvoiceLabels.has(prev) {
			continue
		}
		cands = append(cands, candidate{value: value, score: scoreCandidate(value), pos: start})
	}
	return cands
}

// partOfNumber reports whether text[start:end] is a fragment of a decimal, grouped number
// or percentage
func partOfNumber(text string, start, end int) bool {
	if end < len(text) && text[end] == '%' {
		return true
	}
	if end+1 < len(text) && (text[end] == '.' || text[end] == ',') && isASCIIDigit(text[end+1]) {
		return true
	}
	if start >= 2 && (text[start-1] == '.' || text[start-1] == ',') && isASCIIDigit(text[start-2]) {
		return true
	}
	return false
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

// previousWord returns the word immediately before offset
func previousWord(text string, offset int) string {
	fields := strings.Fields(text[:offset])
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func cleanIdentifier(v string) string {
	v = reIdentifierChars.ReplaceAllString(strings.TrimSpace(v), "")
	return strings.Trim(v, "-_/")
}

func looksLikeInvoiceNumber(v string) bool {
	return hasDigit(v) && !isDateLike(v) && !headerWords.has(v)
}

// extractDate returns the first date-shaped value verbatim
func extractDate(text string) string {
	v, _ := dateRules.first(text)
	return v
}

func isCalendarDate(v string) bool {
	return toISODate(v) != ""
}

// toISODate converts a matched date to YYYY-MM-DD. Slash and dash dates are read month
// first, then day first when the month is out of range. Impossible dates yield "".
func toISODate(v string) string {
	if v == "" {
		return ""
	}
	if reISODate.MatchString(v) {
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return ""
		}
		return v
	}
	sep := "/"
	if strings.Contains(v, "-") {
		sep = "-"
	}
	for _, layout := range []string{"1" + sep + "2" + sep + "2006", "2" + sep + "1" + sep + "2006"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func cleanPersonName(v string) string {
	v = cutAtLabel(v, nameStops)
	return strings.Trim(v, " .,'-")
}

func validPersonName(v string) bool {
	if len(v) < 2 {
		return false
	}
	for _, w := range strings.Fields(v) {
		if headerWords.has(w) || fieldLabels.has(w) {
			return false
		}
	}
	return true
}

func validPhone(v string) bool {
	n := len(digitsOnly(v))
	return n >= 10 && n <= 13
}

// firstTenDigits joins digit groups until at least ten digits are collected, so a trailing
// quantity or amount is not swallowed into the number
func firstTenDigits(v string) string {
	var b strings.Builder
	for _, group := range strings.FieldsFunc(v, func(r rune) bool { return r == ' ' || r == '-' }) {
		b.WriteString(digitsOnly(group))
		if b.Len() >= 10 {
			break
		}
	}
	return b.String()
}

func cleanAddress(v string) string {
	v = cutAtLabel(v, addressStops)
	return strings.Trim(v, " ,.-/")
}

func cleanNotes(v string) string {
	v = cutAtLabel(v, notesStops)
	v = trimLabels(v, fieldLabels)
	return strings.Trim(v, " ,-")
}

// extractHeader fills the header fields of data from normalized text
func extractHeader(text string, data *ParsedInvoiceData) {
	data.InvoiceNumber = extractInvoiceNumber(text)
	data.InvoiceDate = toISODate(extractDate(text))
	data.CustomerName, _ = customerNameRules.first(text)
	data.CustomerPhone, _ = phoneRules.first(text)
	data.CustomerAddress, _ = addressRules.first(text)
	data.Notes, _ = notesRules.first(text)
}
