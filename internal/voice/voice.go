package voice

import (
	"regexp"

	"github.com/zombor/invoice-capture/internal/extraction"
)

// Field names reported in FieldUpdate.Field
const (
	FieldInvoiceNumber = "invoiceNumber"
	FieldCustomer      = "customer"
	FieldGSTPct        = "gstPct"
	FieldInvoiceDate   = "invoiceDate"
	FieldNotes         = "notes"
	FieldRemoveItem    = "removeItem"
	FieldDescription   = "description"
	FieldQuantity      = "quantity"
	FieldRate          = "rate"
)

// FieldUpdate names a field or item that a transcript changed. ItemIndex is -1 for header
// fields.
type FieldUpdate struct {
	ItemIndex int    `json:"itemIndex"`
	Field     string `json:"field"`
}

// Proposal is the outcome of parsing one transcript. Nil fields were not mentioned.
type Proposal struct {
	InvoiceNumber *string
	Customer      *string
	GSTPct        *float64
	InvoiceDate   *string
	Notes         *string
	// Items is the complete new item list, or nil when the list is unchanged
	Items       []extraction.InvoiceLineItem
	Description *string
	Updates     []FieldUpdate
}

// Parser recognizes voice commands against one locale configuration
type Parser struct {
	cfg extraction.Config
}

var defaultParser = NewParser(extraction.DefaultConfig())

// NewParser returns a Parser using the allowed and default GST rates of cfg
func NewParser(cfg extraction.Config) *Parser {
	def := extraction.DefaultConfig()
	if len(cfg.AllowedGST) == 0 {
		cfg.AllowedGST = def.AllowedGST
	}
	if cfg.DefaultGST == 0 || !cfg.IsAllowedGST(cfg.DefaultGST) {
		cfg.DefaultGST = def.DefaultGST
	}
	return &Parser{cfg: cfg}
}

// ParseInvoiceVoiceText parses a transcript with the default locale and applies the result
// through setters
func ParseInvoiceVoiceText(text string, setters FieldSetters) []FieldUpdate {
	return defaultParser.Apply(text, setters)
}

// Apply parses text against setters.CurrentItems and dispatches the result
func (p *Parser) Apply(text string, setters FieldSetters) []FieldUpdate {
	return Dispatch(p.Parse(text, setters.CurrentItems), setters)
}

var reOrdinalItem = regexp.MustCompile(`(?i)\b(\d+)(?:st|nd|rd|th)\s+item\b`)

// Parse turns a transcript into a Proposal without side effects. current is never modified.
func (p *Parser) Parse(text string, current []extraction.InvoiceLineItem) Proposal {
	s := &session{
		parser: p,
		items:  append([]extraction.InvoiceLineItem(nil), current...),
		prop:   Proposal{Updates: []FieldUpdate{}},
	}

	s.text = reOrdinalItem.ReplaceAllString(WordsToNumbers(text), "item ${1}")
	if s.text == "" {
		return s.prop
	}

	s.recognizeInvoiceNumber()
	s.recognizeCustomer()
	s.recognizeGST()
	s.recognizeDate()
	s.recognizeRemoval()
	s.recognizeNotes()
	if !s.applyItemEdits() {
		s.applyFallback()
	}

	if s.itemsChanged {
		s.prop.Items = s.items
		if s.prop.Items == nil {
			s.prop.Items = []extraction.InvoiceLineItem{}
		}
	}
	return s.prop
}

// session carries the state of one Parse call
type session struct {
	parser       *Parser
	text         string
	items        []extraction.InvoiceLineItem
	itemsChanged bool
	prop         Proposal
}

func (s *session) update(index int, field string) {
	s.prop.Updates = append(s.prop.Updates, FieldUpdate{ItemIndex: index, Field: field})
}

// newItemGST is the rate given to items created by a voice edit
func (s *session) newItemGST() float64 {
	if s.prop.GSTPct != nil {
		return *s.prop.GSTPct
	}
	return s.parser.cfg.DefaultGST
}
