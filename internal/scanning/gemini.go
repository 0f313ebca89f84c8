package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements Scanner and Transcriber using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// ExtractText transcribes the text of an invoice image or PDF
func (g *Gemini) ExtractText(data []byte, contentType string) (string, error) {
	const op = "Gemini.ExtractText"

	pngData, _, err := prepareImageData(data, contentType)
	if err != nil {
		return "", wrapScanError(op, err, "preparing image")
	}

	// genai.ImageData expects just the format suffix (e.g., "png"), not the full MIME type
	return g.generate(op, 60*time.Second, genai.ImageData("png", pngData), genai.Text(ocrPrompt))
}

// Transcribe turns a recorded voice command into text
func (g *Gemini) Transcribe(audio []byte, contentType string) (string, error) {
	const op = "Gemini.Transcribe"

	if len(audio) == 0 {
		return "", nil
	}
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", wrapScanError(op, ErrUnsupportedFormat, fmt.Sprintf("content type %q", contentType))
	}

	return g.generate(op, 30*time.Second, genai.Blob{MIMEType: mimeType, Data: audio}, genai.Text(transcribePrompt))
}

func (g *Gemini) generate(op string, timeout time.Duration, parts ...genai.Part) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", wrapScanError(op, ErrBackendFailed, fmt.Sprintf("generating content: %v", err))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", wrapScanError(op, ErrBackendFailed, "no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	return cleanModelText(responseText.String()), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
