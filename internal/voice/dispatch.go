package voice

import "github.com/zombor/invoice-capture/internal/extraction"

// FieldSetters receives the values recognized in a transcript. Nil setters are skipped.
// CurrentItems is a read-only snapshot of the form's items, used for in-place edits.
type FieldSetters struct {
	SetInvoiceNumber    func(string)
	SetSelectedCustomer func(string)
	SetGSTPct           func(float64)
	SetInvoiceDate      func(string)
	SetNotes            func(string)
	SetItems            func([]extraction.InvoiceLineItem)
	SetDescription      func(string)
	CurrentItems        []extraction.InvoiceLineItem
}

// Dispatch calls the setters for every value in p, in a fixed order, and returns p.Updates
func Dispatch(p Proposal, setters FieldSetters) []FieldUpdate {
	if p.InvoiceNumber != nil && setters.SetInvoiceNumber != nil {
		setters.SetInvoiceNumber(*p.InvoiceNumber)
	}
	if p.Customer != nil && setters.SetSelectedCustomer != nil {
		setters.SetSelectedCustomer(*p.Customer)
	}
	if p.GSTPct != nil && setters.SetGSTPct != nil {
		setters.SetGSTPct(*p.GSTPct)
	}
	if p.InvoiceDate != nil && setters.SetInvoiceDate != nil {
		setters.SetInvoiceDate(*p.InvoiceDate)
	}
	if p.Notes != nil && setters.SetNotes != nil {
		setters.SetNotes(*p.Notes)
	}
	if p.Items != nil && setters.SetItems != nil {
		setters.SetItems(p.Items)
	}
	if p.Description != nil && setters.SetDescription != nil {
		setters.SetDescription(*p.Description)
	}
	if p.Updates == nil {
		return []FieldUpdate{}
	}
	return p.Updates
}
