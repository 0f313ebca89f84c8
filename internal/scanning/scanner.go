package scanning

// Scanner turns an invoice photo, scan or PDF into raw OCR text
type Scanner interface {
	// ExtractText reads every line of text in the document, top to bottom
	ExtractText(data []byte, contentType string) (string, error)
	// Close releases backend resources
	Close() error
}

// Transcriber turns a voice recording into a transcript
type Transcriber interface {
	// Transcribe returns the spoken words of the recording as plain text
	Transcribe(audio []byte, contentType string) (string, error)
	// Close releases backend resources
	Close() error
}

// Unavailable stands in when no backend is configured. It always returns empty text.
type Unavailable struct{}

// ExtractText returns "" so callers fall back to an empty draft
func (Unavailable) ExtractText([]byte, string) (string, error) { return "", nil }

// Transcribe returns "" so callers see no voice updates
func (Unavailable) Transcribe([]byte, string) (string, error) { return "", nil }

// Close is a no-op
func (Unavailable) Close() error { return nil }
