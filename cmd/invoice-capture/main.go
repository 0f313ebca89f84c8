package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/invoice-capture/internal/extraction"
	"github.com/zombor/invoice-capture/internal/invoice"
	"github.com/zombor/invoice-capture/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env file is fine
	_ = godotenv.Load()

	fs := ff.NewFlagSet("invoice-capture")
	var (
		port            = fs.IntLong("port", 8080, "HTTP server port")
		dbPath          = fs.StringLong("db", "invoice-capture.db", "Database file path")
		storagePath     = fs.StringLong("storage", "./invoices", "Storage directory path")
		ocrType         = fs.StringLong("ocr", "gemini", "OCR backend: 'gemini', 'ollama', 'vision', 'tesseract' or 'none'")
		transcriberType = fs.StringLong("transcriber", "gemini", "Speech to text backend: 'gemini' or 'none'")
		geminiKey       = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel     = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL       = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel     = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		visionCreds     = fs.StringLong("vision-credentials", "", "Google Cloud Vision credentials file (default: application default credentials)")
		tesseractLang   = fs.StringLong("tesseract-lang", "eng", "Tesseract languages, e.g. eng+hin")
		pdfTextLayer    = fs.BoolLong("pdf-text-layer", "Read the embedded text of digital PDFs before running OCR")
		authUser        = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass        = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		currency        = fs.StringLong("currency", "₹,Rs.,Rs,INR", "Comma separated currency symbols that may precede an amount")
		thousandsSep    = fs.StringLong("thousands-sep", ",", "Thousands separator")
		decimalSep      = fs.StringLong("decimal-sep", ".", "Decimal separator")
		defaultGST      = fs.Float64Long("default-gst", 18, "GST percentage used when a rate is missing or not allowed")
		knownItems      = fs.StringLong("known-items", "", "Known item names with GST rates, e.g. 'Charger:5,USB Cable:18'")
		parseFile       = fs.StringLong("parse", "", "Parse an OCR text file, print the result as JSON and exit")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("INVOICE_CAPTURE"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg := extraction.DefaultConfig()
	cfg.CurrencySymbols = splitList(*currency)
	cfg.ThousandsSeparator = *thousandsSep
	cfg.DecimalSeparator = *decimalSep
	cfg.DefaultGST = *defaultGST
	if *knownItems != "" {
		items, err := extraction.ParseKnownItems(*knownItems)
		if err != nil {
			slog.Error("Invalid known items", "error", err)
			os.Exit(1)
		}
		cfg.KnownItems = items
	}

	if *parseFile != "" {
		if err := parseToStdout(*parseFile, cfg); err != nil {
			slog.Error("Failed to parse file", "file", *parseFile, "error", err)
			os.Exit(1)
		}
		return
	}

	// Get Gemini API key from flag or environment
	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := invoice.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize scanner based on type
	var scanner scanning.Scanner
	switch *ocrType {
	case "gemini":
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		scanner, err = scanning.NewGemini(apiKey, *geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		scanner, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
	case "vision":
		slog.Info("Initializing Cloud Vision scanner...")
		scanner, err = scanning.NewVision(context.Background(), *visionCreds)
	case "tesseract":
		slog.Info("Initializing Tesseract scanner...", "languages", *tesseractLang)
		scanner = scanning.NewTesseract(*tesseractLang)
	case "none":
		slog.Warn("OCR disabled; uploads create empty drafts")
		scanner = scanning.Unavailable{}
	default:
		slog.Error("Invalid OCR type", "type", *ocrType, "valid", "gemini, ollama, vision, tesseract or none")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize scanner", "type", *ocrType, "error", err)
		os.Exit(1)
	}
	defer scanner.Close()

	if *pdfTextLayer {
		scanner = &scanning.PDFTextLayer{Next: scanner}
	}

	// Initialize transcriber based on type
	var transcriber scanning.Transcriber
	switch *transcriberType {
	case "gemini":
		if apiKey == "" {
			slog.Warn("No Gemini API key; voice recordings are ignored, transcripts still work")
			transcriber = scanning.Unavailable{}
			break
		}
		slog.Info("Initializing Gemini transcriber...", "model", *geminiModel)
		gemini, err := scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini transcriber", "error", err)
			os.Exit(1)
		}
		transcriber = gemini
	case "none":
		transcriber = scanning.Unavailable{}
	default:
		slog.Error("Invalid transcriber type", "type", *transcriberType, "valid", "gemini or none")
		os.Exit(1)
	}
	defer transcriber.Close()

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := invoice.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize service
	invoiceService := invoice.NewService(db, scanner, transcriber, store, cfg)

	// Initialize server
	basicAuth := invoice.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := invoice.NewServer(invoiceService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

// parseToStdout runs the extraction engine over a text file
func parseToStdout(path string, cfg extraction.Config) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(extraction.NewParser(cfg).Parse(string(text)))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
