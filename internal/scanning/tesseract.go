package scanning

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// minOCRHeight is the height small photos are upscaled to before recognition
const minOCRHeight = 1200

// Tesseract implements Scanner with a local Tesseract installation
type Tesseract struct {
	languages []string
}

// NewTesseract creates a Tesseract scanner. languages are Tesseract codes such as "eng" or
// "eng+hin"; empty means "eng".
func NewTesseract(languages string) *Tesseract {
	var langs []string
	for _, l := range strings.FieldsFunc(languages, func(r rune) bool { return r == '+' || r == ',' }) {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Tesseract{languages: langs}
}

// ExtractText preprocesses the image and runs Tesseract over it
func (t *Tesseract) ExtractText(data []byte, contentType string) (string, error) {
	const op = "Tesseract.ExtractText"

	pngData, _, err := prepareImageData(data, contentType)
	if err != nil {
		return "", wrapScanError(op, err, "preparing image")
	}
	pre, err := preprocessForOCR(pngData)
	if err != nil {
		return "", wrapScanError(op, err, "preprocessing image")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", wrapScanError(op, err, "setting language")
	}
	if err := client.SetImageFromBytes(pre); err != nil {
		return "", wrapScanError(op, err, "loading image")
	}
	text, err := client.Text()
	if err != nil {
		return "", wrapScanError(op, ErrBackendFailed, fmt.Sprintf("recognizing text: %v", err))
	}
	return strings.TrimSpace(text), nil
}

// Close is a no-op; a client is created per call
func (t *Tesseract) Close() error {
	return nil
}

// preprocessForOCR converts to grayscale and upscales images shorter than minOCRHeight
func preprocessForOCR(pngData []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	var out image.Image = imaging.Grayscale(img)
	if out.Bounds().Dy() < minOCRHeight {
		out = imaging.Resize(out, 0, minOCRHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
