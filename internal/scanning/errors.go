package scanning

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument is returned when a backend found no readable text
	ErrEmptyDocument = errors.New("document contains no readable text")

	// ErrUnsupportedFormat is returned for content that cannot be decoded or rendered
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrBackendFailed is returned when the OCR or speech backend rejected the request
	ErrBackendFailed = errors.New("text extraction backend failed")
)

// ScanError wraps a backend failure with the operation that failed.
type ScanError struct {
	// Op is the failing operation, e.g. "Vision.ExtractText"
	Op string

	// Err is the underlying error
	Err error

	// Details is optional context such as an API status message
	Details string
}

func (e *ScanError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("scanning: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("scanning: %s failed: %v", e.Op, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// wrapScanError wraps err as a ScanError unless it already is one
func wrapScanError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return err
	}
	return &ScanError{Op: op, Err: err, Details: details}
}
