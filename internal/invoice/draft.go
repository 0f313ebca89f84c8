package invoice

import (
	"time"

	"github.com/zombor/invoice-capture/internal/extraction"
	"github.com/zombor/invoice-capture/internal/voice"
)

// Draft is an invoice being captured: the parsed form plus where it came from
type Draft struct {
	ID          string                       `json:"id"`
	Invoice     extraction.ParsedInvoiceData `json:"invoice"`
	GSTPct      float64                      `json:"gst_pct"`               // form-level GST rate
	Description string                       `json:"description,omitempty"` // free-form description set by voice
	SourceText  string                       `json:"source_text"`           // raw OCR text the draft was parsed from
	Filename    string                       `json:"filename,omitempty"`
	ContentType string                       `json:"content_type,omitempty"`
	Warnings    []string                     `json:"warnings,omitempty"` // see Reconcile
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

// VoiceResult is the outcome of applying one voice command to a draft
type VoiceResult struct {
	Draft      *Draft              `json:"draft"`
	Transcript string              `json:"transcript"`
	Updates    []voice.FieldUpdate `json:"updates"`
}
