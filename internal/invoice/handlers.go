package invoice

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	// maxUploadSize covers high-resolution phone photos
	maxUploadSize = int64(50 << 20)
	// maxAudioSize covers a minute or two of compressed speech
	maxAudioSize = int64(10 << 20)
	// maxTextSize bounds pasted OCR text and transcripts
	maxTextSize = int64(1 << 20)

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// writeJSON writes v as a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body with CORS headers set
func writeError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	writeJSON(w, code, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrDraftNotFound), errors.Is(err, ErrNoFile):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListDrafts returns all drafts, newest first
func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.service.ListDrafts()
	if err != nil {
		slog.Error("Error listing drafts", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, drafts)
}

// contentTypeFor determines the upload's MIME type from its header or file extension
func contentTypeFor(header string, filename string) string {
	if header != "" && header != "application/octet-stream" {
		return strings.ToLower(strings.TrimSpace(header))
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".webm":
		return "audio/webm"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	}
	return "application/octet-stream"
}

// readFormFile reads one file field of a multipart request, writing the error response itself
func readFormFile(w http.ResponseWriter, r *http.Request, field string, maxSize int64) ([]byte, string, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		msg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "File is too large"
		}
		writeError(w, msg, http.StatusBadRequest)
		return nil, "", "", false
	}

	f, header, err := r.FormFile(field)
	if err != nil {
		slog.Error("Error getting file from form", "field", field, "error", err)
		writeError(w, "No "+field+" file provided", http.StatusBadRequest)
		return nil, "", "", false
	}
	defer f.Close()

	if header.Size > maxSize {
		writeError(w, "File is too large", http.StatusBadRequest)
		return nil, "", "", false
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return nil, "", "", false
	}

	return data, header.Filename, contentTypeFor(header.Header.Get("Content-Type"), header.Filename), true
}

// handleScanInvoice runs OCR on an uploaded invoice and creates a draft
func (s *Server) handleScanInvoice(w http.ResponseWriter, r *http.Request) {
	data, filename, contentType, ok := readFormFile(w, r, "file", maxUploadSize)
	if !ok {
		return
	}

	draft, err := s.service.ScanInvoice(filename, data, contentType)
	if err != nil {
		slog.Error("Error scanning invoice", "filename", filename, "error", err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

// handleParseText creates a draft from pasted OCR text
func (s *Server) handleParseText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxTextSize)).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	draft, err := s.service.ParseText(req.Text)
	if err != nil {
		slog.Error("Error parsing text", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

// handleGetDraft returns a single draft
func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := s.service.GetDraft(r.PathValue("id"))
	if err != nil {
		writeError(w, "Draft not found", statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// handleGetDraftFile returns the uploaded file of a draft
func (s *Server) handleGetDraftFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetDraftFile(r.PathValue("id"))
	if err != nil {
		writeError(w, "File not found", http.StatusNotFound)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteDraft deletes a draft and its file
func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteDraft(r.PathValue("id")); err != nil {
		code := statusFor(err)
		if code == http.StatusNotFound {
			writeError(w, "Draft not found", code)
			return
		}
		slog.Error("Error deleting draft", "error", err)
		writeError(w, "Error deleting draft", code)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleVoice applies a voice command, given either as a JSON transcript or as a multipart
// "audio" recording
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var (
		result *VoiceResult
		err    error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		audio, _, contentType, ok := readFormFile(w, r, "audio", maxAudioSize)
		if !ok {
			return
		}
		result, err = s.service.ApplyVoiceAudio(id, audio, contentType)
	} else {
		var req struct {
			Transcript string `json:"transcript"`
		}
		if decodeErr := json.NewDecoder(io.LimitReader(r.Body, maxTextSize)).Decode(&req); decodeErr != nil {
			writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		result, err = s.service.ApplyVoice(id, req.Transcript)
	}

	if err != nil {
		code := statusFor(err)
		if code == http.StatusNotFound {
			writeError(w, "Draft not found", code)
			return
		}
		slog.Error("Error applying voice command", "id", id, "error", err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleExport downloads every draft as an XLSX workbook
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.ExportXLSX()
	if err != nil {
		slog.Error("Error exporting drafts", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	w.Write(data)
}
