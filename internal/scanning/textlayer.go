package scanning

import (
	"log/slog"
)

// PDFTextLayer reads the embedded text of digital PDFs directly and hands everything else,
// including scanned PDFs without a text layer, to Next.
type PDFTextLayer struct {
	Next Scanner
}

// ExtractText implements Scanner
func (p PDFTextLayer) ExtractText(data []byte, contentType string) (string, error) {
	if normalizeContentType(data, contentType) == mimePDF {
		text, err := pdfText(data)
		switch {
		case err != nil:
			slog.Warn("Reading PDF text layer failed, falling back to OCR", "error", err)
		case text != "":
			return text, nil
		}
	}
	if p.Next == nil {
		return "", nil
	}
	return p.Next.ExtractText(data, contentType)
}

// Close closes Next
func (p PDFTextLayer) Close() error {
	if p.Next == nil {
		return nil
	}
	return p.Next.Close()
}
