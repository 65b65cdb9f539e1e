// Package handlers exposes the ingestion pipeline over HTTP for the web
// form frontend.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ysaito/kakeibo/internal/api/middleware"
	"github.com/ysaito/kakeibo/internal/budget"
	"github.com/ysaito/kakeibo/internal/expense"
	"github.com/ysaito/kakeibo/internal/extract"
	"github.com/ysaito/kakeibo/internal/ingest"
	"github.com/ysaito/kakeibo/internal/session"
)

// maxMediaBytes caps uploaded voice memos and receipt photos.
const maxMediaBytes = 20 << 20

// PipelineService is what the handlers need from the ingestion pipeline;
// satisfied by *ingest.Ingestor.
type PipelineService interface {
	Ingest(ctx context.Context, sess *session.State, media extract.Media) ([]expense.Record, error)
	Summary(ctx context.Context) (budget.Snapshot, error)
	Context(ctx context.Context) (string, error)
}

// ExpensesHandler handles media submission and summary endpoints.
type ExpensesHandler struct {
	svc  PipelineService
	sess *session.State
	log  zerolog.Logger
}

// NewExpensesHandler creates a handler bound to one interactive session.
func NewExpensesHandler(svc PipelineService, sess *session.State, log zerolog.Logger) *ExpensesHandler {
	return &ExpensesHandler{svc: svc, sess: sess, log: log}
}

// SubmitMedia handles POST /api/expenses: a multipart form with one
// "media" part carrying the audio or image blob.
func (h *ExpensesHandler) SubmitMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMediaBytes)

	file, header, err := r.FormFile("media")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "media file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "failed to read media file")
		return
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "media file is empty")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	records, err := h.svc.Ingest(r.Context(), h.sess, extract.Media{MIMEType: mimeType, Data: data})
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrDuplicateSubmission):
			middleware.WriteError(w, http.StatusConflict, "this submission was already processed")
		case errors.Is(err, ingest.ErrNoExpenses):
			middleware.WriteError(w, http.StatusUnprocessableEntity, "no expenses recognized in the media")
		default:
			h.log.Error().Err(err).Msg("Ingestion failed")
			middleware.WriteError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	resp := map[string]any{"records": records}
	if snapshot, err := h.svc.Summary(r.Context()); err == nil {
		resp["snapshot"] = snapshot
	} else {
		h.log.Warn().Err(err).Msg("Snapshot recompute failed after ingestion")
	}

	middleware.WriteJSON(w, http.StatusCreated, resp)
}

// GetSummary handles GET /api/summary. A ledger read failure degrades to
// a zeroed snapshot so the frontend always has something to render.
func (h *ExpensesHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.svc.Summary(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Ledger read failed, serving empty snapshot")
		snapshot = budget.Snapshot{ByCategory: map[string]float64{}}
	}
	middleware.WriteJSON(w, http.StatusOK, snapshot)
}

// GetContext handles GET /api/context, returning the budget digest text
// the extraction prompt would receive.
func (h *ExpensesHandler) GetContext(w http.ResponseWriter, r *http.Request) {
	text, err := h.svc.Context(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Ledger read failed, serving empty context")
		text = ""
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"context": text})
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
