package invoice

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/invoice-capture/internal/extraction"
	"github.com/zombor/invoice-capture/internal/scanning"
	"github.com/zombor/invoice-capture/internal/voice"
)

// IDGenerator generates unique IDs for drafts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles invoice capture: OCR, voice edits and persistence of drafts
type Service struct {
	db          DB
	scanner     scanning.Scanner
	transcriber scanning.Transcriber
	storage     Storage
	parser      *extraction.Parser
	voice       *voice.Parser
	idGenerator IDGenerator
	timeSource  TimeSource

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService creates a new Service with default ID generator and time source.
// A nil scanner or transcriber behaves like scanning.Unavailable.
func NewService(db DB, scanner scanning.Scanner, transcriber scanning.Transcriber, storage Storage, cfg extraction.Config) *Service {
	return NewServiceWithDeps(db, scanner, transcriber, storage, cfg, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, transcriber scanning.Transcriber, storage Storage, cfg extraction.Config, idGen IDGenerator, timeSrc TimeSource) *Service {
	if scanner == nil {
		scanner = scanning.Unavailable{}
	}
	if transcriber == nil {
		transcriber = scanning.Unavailable{}
	}
	return &Service{
		db:          db,
		scanner:     scanner,
		transcriber: transcriber,
		storage:     storage,
		parser:      extraction.NewParser(cfg),
		voice:       voice.NewParser(cfg),
		idGenerator: idGen,
		timeSource:  timeSrc,
		locks:       make(map[string]*sync.Mutex),
	}
}

// lock serializes edits of one draft and returns the unlock function
func (s *Service) lock(id string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (s *Service) forget(id string) {
	s.locksMu.Lock()
	delete(s.locks, id)
	s.locksMu.Unlock()
}

var (
	reFilenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	reSpaces         = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Keep only alphanumeric, spaces, hyphens, and underscores
	base = reFilenameUnsafe.ReplaceAllString(base, "")
	base = strings.TrimSpace(reSpaces.ReplaceAllString(base, " "))

	// Phone cameras produce long names; 50 chars is plenty
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "invoice"
	}
	ext = strings.ToLower(reFilenameUnsafe.ReplaceAllString(strings.TrimPrefix(ext, "."), ""))
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// newDraft builds a draft from an extraction and checks its totals
func (s *Service) newDraft(id string, data extraction.ParsedInvoiceData, sourceText string) *Draft {
	now := s.timeSource.Now()
	return &Draft{
		ID:         id,
		Invoice:    data,
		GSTPct:     s.parser.Config().DefaultGST,
		SourceText: sourceText,
		Warnings:   Reconcile(data),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ScanInvoice stores the uploaded file, reads its text and saves the parsed draft
func (s *Service) ScanInvoice(filename string, data []byte, contentType string) (*Draft, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	id := s.idGenerator.Generate()
	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	text, err := s.scanner.ExtractText(data, contentType)
	if err != nil && !errors.Is(err, scanning.ErrEmptyDocument) {
		slog.Error("Failed to extract text",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.cleanup(savedPath)
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	draft := s.newDraft(id, s.parser.Parse(text), text)
	draft.Filename = savedPath
	draft.ContentType = contentType

	if err := s.db.SaveDraft(draft); err != nil {
		s.cleanup(savedPath)
		return nil, fmt.Errorf("saving draft to database: %w", err)
	}

	slog.Info("Scanned invoice",
		"id", draft.ID,
		"items", len(draft.Invoice.Items),
		"warnings", len(draft.Warnings),
	)
	return draft, nil
}

// cleanup removes a stored file after a failed scan
func (s *Service) cleanup(path string) {
	if err := s.storage.Delete(path); err != nil {
		slog.Warn("Failed to clean up file", "filename", path, "error", err)
	}
}

// ParseText saves a draft parsed from already extracted OCR text
func (s *Service) ParseText(text string) (*Draft, error) {
	draft := s.newDraft(s.idGenerator.Generate(), s.parser.Parse(text), text)
	if err := s.db.SaveDraft(draft); err != nil {
		return nil, fmt.Errorf("saving draft to database: %w", err)
	}
	return draft, nil
}

// ApplyVoice applies a voice command transcript to a draft and saves it when anything changed
func (s *Service) ApplyVoice(id, transcript string) (*VoiceResult, error) {
	unlock := s.lock(id)
	defer unlock()

	draft, err := s.db.GetDraft(id)
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			s.forget(id)
		}
		return nil, fmt.Errorf("getting draft: %w", err)
	}

	itemsChanged := false
	setters := voice.FieldSetters{
		SetInvoiceNumber:    func(v string) { draft.Invoice.InvoiceNumber = v },
		SetSelectedCustomer: func(v string) { draft.Invoice.CustomerName = v },
		SetGSTPct:           func(v float64) { draft.GSTPct = v },
		SetInvoiceDate:      func(v string) { draft.Invoice.InvoiceDate = v },
		SetNotes:            func(v string) { draft.Invoice.Notes = v },
		SetItems: func(items []extraction.InvoiceLineItem) {
			draft.Invoice.Items = items
			itemsChanged = true
		},
		SetDescription: func(v string) { draft.Description = v },
		CurrentItems:   draft.Invoice.Items,
	}

	updates := s.voice.Apply(transcript, setters)
	result := &VoiceResult{Draft: draft, Transcript: transcript, Updates: updates}
	if len(updates) == 0 {
		return result, nil
	}

	if itemsChanged {
		draft.Invoice.Subtotal, draft.Invoice.TotalGST, draft.Invoice.Total = Totals(draft.Invoice.Items)
	}
	draft.Warnings = Reconcile(draft.Invoice)
	draft.UpdatedAt = s.timeSource.Now()

	if err := s.db.SaveDraft(draft); err != nil {
		return nil, fmt.Errorf("saving draft to database: %w", err)
	}
	slog.Info("Applied voice command", "id", id, "updates", len(updates))
	return result, nil
}

// ApplyVoiceAudio transcribes a recording and applies it like ApplyVoice
func (s *Service) ApplyVoiceAudio(id string, audio []byte, contentType string) (*VoiceResult, error) {
	transcript, err := s.transcriber.Transcribe(audio, contentType)
	if err != nil {
		slog.Error("Failed to transcribe audio",
			"id", id,
			"content_type", contentType,
			"size", len(audio),
			"error", err,
		)
		return nil, fmt.Errorf("transcribing audio: %w", err)
	}
	return s.ApplyVoice(id, transcript)
}

// GetDraft retrieves a draft by ID
func (s *Service) GetDraft(id string) (*Draft, error) {
	draft, err := s.db.GetDraft(id)
	if err != nil {
		return nil, fmt.Errorf("getting draft: %w", err)
	}
	return draft, nil
}

// ListDrafts returns all drafts, newest first
func (s *Service) ListDrafts() ([]*Draft, error) {
	drafts, err := s.db.ListDrafts()
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	if drafts == nil {
		drafts = []*Draft{}
	}
	sortNewestFirst(drafts)
	return drafts, nil
}

// DeleteDraft removes a draft and its source file
func (s *Service) DeleteDraft(id string) error {
	unlock := s.lock(id)
	defer unlock()
	defer s.forget(id)

	draft, err := s.db.GetDraft(id)
	if err != nil {
		return fmt.Errorf("getting draft for deletion: %w", err)
	}

	if draft.Filename != "" {
		if err := s.storage.Delete(draft.Filename); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete file", "filename", draft.Filename, "error", err)
		}
	}

	if err := s.db.DeleteDraft(id); err != nil {
		return fmt.Errorf("deleting draft from database: %w", err)
	}
	return nil
}

// ErrNoFile is returned for drafts created from pasted text
var ErrNoFile = errors.New("draft has no source file")

// GetDraftFile retrieves the uploaded file of a draft
func (s *Service) GetDraftFile(id string) ([]byte, string, error) {
	draft, err := s.db.GetDraft(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting draft: %w", err)
	}
	if draft.Filename == "" {
		return nil, "", ErrNoFile
	}

	data, err := s.storage.Get(draft.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting draft file: %w", err)
	}
	return data, draft.ContentType, nil
}
