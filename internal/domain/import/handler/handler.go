// Package handler exposes the ingestion pipeline over HTTP.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/service"
	"github.com/FACorreiaa/statement-ingest/internal/domain/ingesterr"
	"github.com/FACorreiaa/statement-ingest/internal/domain/transaction"
	"github.com/FACorreiaa/statement-ingest/pkg/storage"
)

// UserIDHeader carries the caller's user id. Authentication happens upstream.
const UserIDHeader = "X-User-ID"

// Ingester is the service surface the handler calls.
type Ingester interface {
	Ingest(ctx context.Context, raw []byte, userID, sourceKey string) (*service.IngestResult, error)
	Transactions(ctx context.Context, userID string) ([]transaction.Transaction, error)
}

// ImportHandler serves statement uploads and transaction listings.
type ImportHandler struct {
	svc            Ingester
	archive        storage.Storage // nil disables archiving
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewImportHandler(svc Ingester, archive storage.Storage, maxUploadBytes int64, logger *slog.Logger) *ImportHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &ImportHandler{svc: svc, archive: archive, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Register mounts the routes on mux.
func (h *ImportHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/transactions/upload", h.Upload)
	mux.HandleFunc("GET /v1/transactions", h.List)
	if h.archive != nil {
		mux.HandleFunc("GET /v1/statements", h.Statements)
		mux.HandleFunc("GET /v1/statements/{id}", h.Download)
		mux.HandleFunc("POST /v1/statements/{id}/replay", h.Replay)
	}
}

type uploadResponse struct {
	IngestID           uuid.UUID            `json:"ingest_id"`
	Source             string               `json:"source"`
	InsertedCount      int                  `json:"inserted_count"`
	SkippedAsDuplicate int                  `json:"skipped_as_duplicate"`
	DroppedInBatch     int                  `json:"dropped_in_batch"`
	Transactions       []transaction.Record `json:"transactions"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Upload ingests the multipart "file" field. The optional "source" field
// selects a registered format; without it the format is detected.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get(UserIDHeader))

	tooLarge := errorResponse{Error: fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes), Kind: "too_large"}
	if r.ContentLength > h.maxUploadBytes {
		h.writeJSON(w, http.StatusRequestEntityTooLarge, tooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeJSON(w, http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart upload", Kind: "bad_request"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing file field", Kind: "bad_request"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read upload", Kind: "bad_request"})
		return
	}

	source := strings.TrimSpace(r.FormValue("source"))
	result, err := h.svc.Ingest(r.Context(), raw, userID, source)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Archiving is best effort; the rows are already persisted.
	if h.archive != nil {
		_, err := h.archive.Save(r.Context(), userID, storage.Upload{
			IngestID:    result.IngestID,
			Name:        header.Filename,
			Source:      result.SourceKey,
			ContentType: header.Header.Get("Content-Type"),
		}, bytes.NewReader(raw))
		if err != nil {
			h.logger.Warn("failed to archive statement", "ingest_id", result.IngestID, "error", err)
		}
	}

	h.writeJSON(w, http.StatusOK, newUploadResponse(result))
}

func newUploadResponse(result *service.IngestResult) uploadResponse {
	return uploadResponse{
		IngestID:           result.IngestID,
		Source:             result.SourceKey,
		InsertedCount:      result.InsertedCount,
		SkippedAsDuplicate: result.SkippedAsDuplicate,
		DroppedInBatch:     result.DroppedInBatch,
		Transactions:       transaction.Records(result.Rows),
	}
}

// List returns the caller's transactions as JSON, or CSV with ?format=csv.
func (h *ImportHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Transactions(r.Context(), r.Header.Get(UserIDHeader))
	if err != nil {
		h.writeError(w, err)
		return
	}
	records := transaction.Records(rows)

	if r.URL.Query().Get("format") == "csv" {
		out, err := gocsv.MarshalBytes(&records)
		if err != nil {
			h.logger.Error("failed to encode csv", "error", err)
			h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Kind: "internal"})
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"transactions": records})
}

// Statements lists the caller's archived uploads.
func (h *ImportHandler) Statements(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if userID == "" {
		h.writeError(w, ingesterr.ErrMissingUser)
		return
	}
	files, err := h.archive.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, fmt.Errorf("failed to list statements: %w", err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"statements": files})
}

// Download streams an archived statement back to its owner.
func (h *ImportHandler) Download(w http.ResponseWriter, r *http.Request) {
	rc, info, ok := h.openStatement(w, r)
	if !ok {
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream statement", "file_id", info.ID, "error", err)
	}
}

// Replay ingests an archived statement again with the source it was first
// ingested as. Rows already stored are skipped as duplicates.
func (h *ImportHandler) Replay(w http.ResponseWriter, r *http.Request) {
	rc, info, ok := h.openStatement(w, r)
	if !ok {
		return
	}
	raw, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		h.writeError(w, fmt.Errorf("failed to read archived statement: %w", err))
		return
	}

	result, err := h.svc.Ingest(r.Context(), raw, r.Header.Get(UserIDHeader), info.Source)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("statement replayed", "file_id", info.ID, "ingest_id", result.IngestID, "inserted", result.InsertedCount)
	h.writeJSON(w, http.StatusOK, newUploadResponse(result))
}

// openStatement resolves the {id} path value for the caller and writes the
// error response itself when it cannot.
func (h *ImportHandler) openStatement(w http.ResponseWriter, r *http.Request) (io.ReadCloser, *storage.FileInfo, bool) {
	userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if userID == "" {
		h.writeError(w, ingesterr.ErrMissingUser)
		return nil, nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid statement id", Kind: "bad_request"})
		return nil, nil, false
	}

	rc, info, err := h.archive.Open(r.Context(), userID, id)
	if errors.Is(err, storage.ErrNotFound) {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "statement not found", Kind: "not_found"})
		return nil, nil, false
	}
	if err != nil {
		h.writeError(w, fmt.Errorf("failed to open statement: %w", err))
		return nil, nil, false
	}
	return rc, info, true
}

// writeError answers user errors with their message and hides infrastructure detail.
func (h *ImportHandler) writeError(w http.ResponseWriter, err error) {
	status := ingesterr.HTTPStatus(err)
	kind := ingesterr.Kind(err)

	if ingesterr.IsUserError(err) {
		h.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
		return
	}

	h.logger.Error("ingest request failed", "kind", kind, "error", err)
	msg := "internal error"
	var classErr *ingesterr.ClassificationUnavailableError
	if errors.As(err, &classErr) {
		msg = "categorization temporarily unavailable"
	}
	h.writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func (h *ImportHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", fmt.Errorf("failed to write json: %w", err))
	}
}
