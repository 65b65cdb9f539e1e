package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ysaito/kakeibo/internal/api/handlers"
	"github.com/ysaito/kakeibo/internal/api/middleware"
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

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

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
	} else {
		log.Warn().Msg("No GCS bucket configured, media archiving disabled")
	}

	ingestor := ingest.New(extractor, store, cfg.MonthlyBudget, opts...)

	// One interactive session per server process; the web form is a
	// single-user prototype.
	sess := session.New()
	log.Info().Str("session_id", sess.ID).Msg("Session started")

	h := handlers.NewExpensesHandler(ingestor, sess, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/expenses", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			h.SubmitMedia(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetSummary(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	mux.HandleFunc("/api/context", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.GetContext(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	mux.HandleFunc("/healthz", handlers.Health)

	handler := middleware.Logger(log)(
		middleware.Recovery(log)(
			middleware.RequestID(
				middleware.CORS(mux))))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}
