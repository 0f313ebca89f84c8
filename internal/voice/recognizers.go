package voice

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zombor/invoice-capture/internal/extraction"
)

// filler swallows the connecting words people put between a field name and its value
const filler = `(?:(?:is|to|as|equals|of|at|should\s+be|will\s+be)\b\s*)?[:=]?\s*`

// stopWords end a free-form value such as a name or an invoice number
var stopWords = map[string]bool{
	"invoice": true, "customer": true, "client": true, "gst": true, "tax": true, "date": true,
	"dated": true, "item": true, "items": true, "note": true, "notes": true, "remark": true,
	"remarks": true, "quantity": true, "qty": true, "rate": true, "price": true,
	"description": true, "remove": true, "delete": true, "and": true, "with": true, "phone": true,
	"percent": true, "set": true, "change": true, "update": true,
}

var (
	reInvoiceNumber = regexp.MustCompile(`(?i)\b(?:invoice|bill)\s+(?:number|no|num)\b\.?\s*` + filler + `(.+)`)
	reCustomer      = regexp.MustCompile(`(?i)\b(?:customer|client|buyer)(?:\s+name)?\b\s*` + filler + `(.+)`)
	reGSTBefore     = regexp.MustCompile(`(?i)\b(?:gst|tax)(?:\s+(?:rate|percentage|percent))?\s*` + filler + `(\d{1,2}(?:\.\d+)?)\s*(?:%|percent\b)?`)
	reGSTAfter      = regexp.MustCompile(`(?i)\b(\d{1,2}(?:\.\d+)?)\s*(?:%|percent\b)\s*(?:gst|tax)\b`)
	reRemoveAll     = regexp.MustCompile(`(?i)\b(?:remove|delete|clear|drop)\s+(?:all|everything)\b`)
	reRemoveItem    = regexp.MustCompile(`(?i)\b(?:remove|delete|drop)\s+(?:the\s+)?item\s+(?:number\s+)?(\d+)\b`)
	reNotes         = regexp.MustCompile(`(?i)\b(?:notes?|remarks?)\b\s*(?:say|says|read)?\s*` + filler + `(.+)$`)
)

const monthNames = `(january|february|march|april|may|june|july|august|september|october|november|december|` +
	`jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?`

var (
	reDateISO      = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	reDateMonthDay = regexp.MustCompile(`(?i)\b` + monthNames + `\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	reDateDayMonth = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthNames + `,?\s+(\d{4})\b`)
)

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March, "april": time.April,
	"may": time.May, "june": time.June, "july": time.July, "august": time.August,
	"september": time.September, "october": time.October, "november": time.November,
	"december": time.December, "jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "jun": time.June, "jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// untilStopWord keeps the words of v before the first stop word
func untilStopWord(v string) string {
	words := strings.Fields(v)
	for i, w := range words {
		if stopWords[strings.ToLower(strings.Trim(w, ".,;:!?"))] {
			words = words[:i]
			break
		}
	}
	return strings.Trim(strings.Join(words, " "), " .,;:!?")
}

func (s *session) recognizeInvoiceNumber() {
	m := reInvoiceNumber.FindStringSubmatch(s.text)
	if m == nil {
		return
	}
	var b strings.Builder
	for _, w := range strings.Fields(untilStopWord(m[1])) {
		switch strings.ToLower(w) {
		case "dash", "hyphen", "minus":
			b.WriteString("-")
		case "slash":
			b.WriteString("/")
		default:
			for _, r := range w {
				if r == '-' || r == '/' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
					b.WriteRune(r)
				}
			}
		}
	}
	number := strings.ToUpper(strings.Trim(b.String(), "-/"))
	if number == "" {
		return
	}
	s.prop.InvoiceNumber = &number
	s.update(-1, FieldInvoiceNumber)
}

func (s *session) recognizeCustomer() {
	m := reCustomer.FindStringSubmatch(s.text)
	if m == nil {
		return
	}
	name := untilStopWord(m[1])
	if strings.IndexFunc(name, func(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }) < 0 {
		return
	}
	name = cases.Title(language.English).String(name)
	s.prop.Customer = &name
	s.update(-1, FieldCustomer)
}

func (s *session) recognizeGST() {
	for _, re := range []*regexp.Regexp{reGSTBefore, reGSTAfter} {
		for _, m := range re.FindAllStringSubmatch(s.text, -1) {
			pct, err := strconv.ParseFloat(m[1], 64)
			if err != nil || !s.parser.cfg.IsAllowedGST(pct) {
				continue
			}
			s.prop.GSTPct = &pct
			s.update(-1, FieldGSTPct)
			return
		}
	}
}

func (s *session) recognizeDate() {
	var date string
	if m := reDateISO.FindStringSubmatch(s.text); m != nil {
		date = isoDate(m[1], monthNumber(m[2]), m[3])
	}
	if m := reDateMonthDay.FindStringSubmatch(s.text); date == "" && m != nil {
		date = isoDate(m[3], months[strings.ToLower(m[1])], m[2])
	}
	if m := reDateDayMonth.FindStringSubmatch(s.text); date == "" && m != nil {
		date = isoDate(m[3], months[strings.ToLower(m[2])], m[1])
	}
	if date == "" {
		return
	}
	s.prop.InvoiceDate = &date
	s.update(-1, FieldInvoiceDate)
}

func monthNumber(v string) time.Month {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 12 {
		return 0
	}
	return time.Month(n)
}

// isoDate validates and formats a date, returning "" for impossible dates
func isoDate(year string, month time.Month, day string) string {
	y, errY := strconv.Atoi(year)
	d, errD := strconv.Atoi(day)
	if errY != nil || errD != nil || month == 0 {
		return ""
	}
	t := time.Date(y, month, d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != month || t.Day() != d {
		return ""
	}
	return t.Format("2006-01-02")
}

func (s *session) recognizeRemoval() {
	if reRemoveAll.MatchString(s.text) {
		s.items = []extraction.InvoiceLineItem{}
		s.itemsChanged = true
		s.update(-1, FieldRemoveItem)
		return
	}
	m := reRemoveItem.FindStringSubmatch(s.text)
	if m == nil {
		return
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > len(s.items) {
		return
	}
	idx := n - 1
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	s.itemsChanged = true
	s.update(idx, FieldRemoveItem)
}

func (s *session) recognizeNotes() {
	m := reNotes.FindStringSubmatch(s.text)
	if m == nil {
		return
	}
	notes := strings.TrimSpace(m[1])
	if notes == "" {
		return
	}
	s.prop.Notes = &notes
	s.update(-1, FieldNotes)
}

// blankItem is the item created when an edit addresses a position past the end of the list
func (s *session) blankItem() extraction.InvoiceLineItem {
	return extraction.InvoiceLineItem{GSTPct: s.newItemGST()}
}
