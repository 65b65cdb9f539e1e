package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ysaito/kakeibo/internal/archive"
	"github.com/ysaito/kakeibo/internal/config"
	"github.com/ysaito/kakeibo/internal/extract"
	"github.com/ysaito/kakeibo/internal/ingest"
	"github.com/ysaito/kakeibo/internal/ledger"
	"github.com/ysaito/kakeibo/internal/logger"
	"github.com/ysaito/kakeibo/internal/session"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ingest":
		runIngest(log)
	case "summary":
		runSummary(log)
	case "context":
		runContext(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("kakeibo CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  ingest    Extract expenses from a voice memo or receipt photo and append them")
	fmt.Println("  summary   Show the current month's budget snapshot")
	fmt.Println("  context   Show the budget digest injected into the extraction prompt")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func newIngestor(ctx context.Context, log zerolog.Logger) *ingest.Ingestor {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	extractor, err := extract.NewClient(ctx, cfg.GeminiAPIKey, extract.WithModel(cfg.GeminiModel))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extraction client")
	}

	store, err := ledger.NewSheetsStore(ctx, cfg.SpreadsheetID, cfg.SheetName,
		ledger.CredentialOptions(cfg.CredentialsJSON, cfg.CredentialsFile)...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger store")
	}

	opts := []ingest.Option{ingest.WithLogger(log)}
	if cfg.GCSBucket != "" {
		opts = append(opts, ingest.WithArchiver(archive.New(cfg.GCSBucket)))
	}

	return ingest.New(extractor, store, cfg.MonthlyBudget, opts...)
}

func runIngest(log zerolog.Logger) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to the audio or image file")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read media file")
	}

	mimeType := mime.TypeByExtension(filepath.Ext(*filePath))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	ing := newIngestor(ctx, log)

	log.Info().Str("file", *filePath).Str("mime_type", mimeType).Msg("Starting ingestion")

	records, err := ing.Ingest(ctx, session.New(), extract.Media{MIMEType: mimeType, Data: data})
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Printf("Appended %d record(s):\n", len(records))
	for _, r := range records {
		fmt.Printf("  %s  %s  %.0f円  (%s)\n", r.Item, r.Category, r.Amount, r.Comment)
	}
}

func runSummary(log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ing := newIngestor(ctx, log)

	snapshot, err := ing.Summary(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read ledger")
	}

	fmt.Printf("Total spent: %.0f円\n", snapshot.TotalSpent)
	fmt.Printf("Remaining:   %.0f円\n", snapshot.Remaining)
	fmt.Printf("Budget used: %.1f%%\n", snapshot.Ratio*100)
	if top := snapshot.TopCategories(3); len(top) > 0 {
		fmt.Println("Top categories:")
		for _, ct := range top {
			fmt.Printf("  %-10s %.0f円\n", ct.Category, ct.Amount)
		}
	}
}

func runContext(log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ing := newIngestor(ctx, log)

	text, err := ing.Context(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read ledger")
	}
	fmt.Println(text)
}
