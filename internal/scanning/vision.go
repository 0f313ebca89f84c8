package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// maxVisionBytes is the inline request limit of the Vision API
const maxVisionBytes = 20 * 1024 * 1024

// Vision implements Scanner using Google Cloud Vision document text detection
type Vision struct {
	client *vision.ImageAnnotatorClient
}

// NewVision creates a Cloud Vision client. An empty credentialsFile uses application
// default credentials.
func NewVision(ctx context.Context, credentialsFile string) (*Vision, error) {
	const op = "NewVision"

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, wrapScanError(op, err, "creating vision client")
	}
	return &Vision{client: client}, nil
}

// ExtractText runs DOCUMENT_TEXT_DETECTION on an image, or on every page of a PDF
func (v *Vision) ExtractText(data []byte, contentType string) (string, error) {
	const op = "Vision.ExtractText"

	if len(data) == 0 {
		return "", wrapScanError(op, ErrEmptyDocument, "no data")
	}
	if len(data) > maxVisionBytes {
		return "", wrapScanError(op, ErrUnsupportedFormat, fmt.Sprintf("file size: %d bytes", len(data)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if normalizeContentType(data, contentType) == mimePDF {
		return v.extractPDF(ctx, data)
	}

	pngData, _, err := prepareImageData(data, contentType)
	if err != nil {
		return "", wrapScanError(op, err, "preparing image")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image:    &visionpb.Image{Content: pngData},
				Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			},
		},
	}
	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", wrapScanError(op, ErrBackendFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.GetResponses()) == 0 {
		return "", wrapScanError(op, ErrBackendFailed, "no response from Vision API")
	}

	image := resp.GetResponses()[0]
	if msg := image.GetError().GetMessage(); msg != "" {
		return "", wrapScanError(op, ErrBackendFailed, fmt.Sprintf("Vision API error: %s", msg))
	}
	return strings.TrimSpace(image.GetFullTextAnnotation().GetText()), nil
}

func (v *Vision) extractPDF(ctx context.Context, data []byte) (string, error) {
	const op = "Vision.extractPDF"

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  data,
					MimeType: mimePDF,
				},
				Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
			},
		},
	}
	resp, err := v.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return "", wrapScanError(op, ErrBackendFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.GetResponses()) == 0 {
		return "", wrapScanError(op, ErrBackendFailed, "no response from Vision API")
	}

	file := resp.GetResponses()[0]
	if msg := file.GetError().GetMessage(); msg != "" {
		return "", wrapScanError(op, ErrBackendFailed, fmt.Sprintf("Vision API error: %s", msg))
	}

	var pages []string
	for _, page := range file.GetResponses() {
		if text := strings.TrimSpace(page.GetFullTextAnnotation().GetText()); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// Close closes the underlying Vision client
func (v *Vision) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
