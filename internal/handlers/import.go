// internal/handlers/import.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	redis_a "github.com/storeops/backoffice-be/internal/adapters/redis_adapter"
	"github.com/storeops/backoffice-be/internal/core/ports"
	"github.com/storeops/backoffice-be/internal/workers"
)

// ImportHandler accepts catalog spreadsheets and supplier price lists,
// saves them to the temp directory and hands processing off to the
// background workers. Job progress lives in Redis under the job ID.
type ImportHandler struct {
	tasks       *workers.TaskClient
	cache       ports.CacheRepository
	logger      *slog.Logger
	maxFileSize int64
	uploadDir   string
}

// NewImportHandler creates a new import handler
func NewImportHandler(tasks *workers.TaskClient, cache ports.CacheRepository, logger *slog.Logger, maxFileSize int64, uploadDir string) *ImportHandler {
	return &ImportHandler{
		tasks:       tasks,
		cache:       cache,
		logger:      logger.With(slog.String("handler", "import")),
		maxFileSize: maxFileSize,
		uploadDir:   uploadDir,
	}
}

// ImportCatalog handles POST /api/v1/import/catalog
//
// Accepts an xlsx file with one product per row and queues it for
// asynchronous processing. Responds 202 with a job ID to poll.
func (h *ImportHandler) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	header, tempFile, ok := h.saveUpload(w, r, []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel",
	}, "Only xlsx files are allowed")
	if !ok {
		return
	}

	jobID := uuid.New().String()

	if err := h.tasks.EnqueueCatalogImport(ctx, workers.CatalogImportPayload{
		JobID:    jobID,
		FilePath: tempFile,
	}); err != nil {
		os.Remove(tempFile)
		h.logger.ErrorContext(ctx, "failed to enqueue catalog import",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	h.recordJobQueued(r, jobID, "catalog", header.Filename)

	h.logger.InfoContext(ctx, "catalog import queued",
		slog.String("job_id", jobID),
		slog.String("filename", header.Filename))

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  jobID,
		"status":  workers.JobQueued,
		"message": "Catalog import has been queued for processing",
	})
}

// ImportPriceList handles POST /api/v1/import/pricelist
//
// Accepts a supplier price list as PDF. Lines matching "SKU price" are
// applied as price updates by the worker.
func (h *ImportHandler) ImportPriceList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	header, tempFile, ok := h.saveUpload(w, r, []string{"application/pdf"}, "Only PDF files are allowed")
	if !ok {
		return
	}

	jobID := uuid.New().String()

	if err := h.tasks.EnqueuePriceListImport(ctx, workers.PriceListImportPayload{
		JobID:    jobID,
		FilePath: tempFile,
	}); err != nil {
		os.Remove(tempFile)
		h.logger.ErrorContext(ctx, "failed to enqueue price list import",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	h.recordJobQueued(r, jobID, "pricelist", header.Filename)

	h.logger.InfoContext(ctx, "price list import queued",
		slog.String("job_id", jobID),
		slog.String("filename", header.Filename))

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  jobID,
		"status":  workers.JobQueued,
		"message": "Price list import has been queued for processing",
	})
}

// ImportStatus handles GET /api/v1/import/status/{jobId}
func (h *ImportHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("jobId")

	if _, err := uuid.Parse(jobID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job ID format")
		return
	}

	var status workers.ImportJobStatus
	key := redis_a.BuildKey(redis_a.PrefixImportJob, jobID)
	if err := h.cache.Get(ctx, key, &status); err != nil {
		if errors.Is(err, redis_a.ErrCacheMiss) {
			respondError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to read job status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to get job status")
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// saveUpload parses the multipart form, validates the file's content
// type and writes it to the upload directory. On failure it writes the
// error response itself and returns ok=false.
func (h *ImportHandler) saveUpload(w http.ResponseWriter, r *http.Request, allowedTypes []string, typeMessage string) (*multipart.FileHeader, string, bool) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "File is required")
		return nil, "", false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	allowed := false
	for _, t := range allowedTypes {
		if contentType == t {
			allowed = true
			break
		}
	}
	if !allowed {
		respondError(w, http.StatusBadRequest, typeMessage)
		return nil, "", false
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.ErrorContext(ctx, "failed to create upload directory",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to prepare upload")
		return nil, "", false
	}

	tempFile := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(header.Filename)))
	dst, err := os.Create(tempFile)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create temp file",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to save upload")
		return nil, "", false
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(tempFile)
		h.logger.ErrorContext(ctx, "failed to save upload",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to save upload")
		return nil, "", false
	}

	return header, tempFile, true
}

// recordJobQueued writes the initial job record. Best effort; the
// worker overwrites it when processing starts.
func (h *ImportHandler) recordJobQueued(r *http.Request, jobID, kind, filename string) {
	ctx := r.Context()
	key := redis_a.BuildKey(redis_a.PrefixImportJob, jobID)
	status := workers.ImportJobStatus{
		JobID:     jobID,
		Kind:      kind,
		Status:    workers.JobQueued,
		Filename:  filename,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.cache.SetWithTTL(ctx, key, status, workers.ImportJobTTL); err != nil {
		h.logger.WarnContext(ctx, "failed to record job status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
	}
}
