package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/recoverytrack/apiserver/internal/export"
	"github.com/recoverytrack/apiserver/internal/logger"
	"github.com/recoverytrack/apiserver/internal/services"
)

// ExportHandler builds and serves recovery-journal workbooks.
type ExportHandler struct {
	exportService *services.ExportService
	log           *logger.Logger
}

func NewExportHandler(exportService *services.ExportService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{exportService: exportService, log: log}
}

// ExportRouter registers export routes on the /user router. Every route
// requires authentication.
func ExportRouter(r chi.Router, exportService *services.ExportService, log *logger.Logger) {
	handler := NewExportHandler(exportService, log)

	r.Post("/{id}/exports", handler.Create)
	r.Get("/{id}/exports/{exportID}", handler.Download)
}

// Create uploads the workbook when object storage is configured and streams
// it as an attachment otherwise.
func (h *ExportHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireSelf(w, r, "id")
	if !ok {
		return
	}

	if h.exportService.Stored() {
		result, err := h.exportService.Upload(r.Context(), userID)
		if err != nil {
			respondError(r.Context(), h.log, w, err, "User not found", "failed to export journal")
			return
		}
		writeJSON(w, http.StatusCreated, result)
		return
	}

	data, err := h.exportService.Render(r.Context(), userID)
	if err != nil {
		respondError(r.Context(), h.log, w, err, "User not found", "failed to export journal")
		return
	}
	filename := fmt.Sprintf("recovery-journal-%d-%s.xlsx", userID, time.Now().UTC().Format("20060102"))
	writeAttachment(w, filename, int64(len(data)))
	_, _ = w.Write(data)
}

// Download streams a previously uploaded export.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireSelf(w, r, "id")
	if !ok {
		return
	}
	exportID := chi.URLParam(r, "exportID")

	reader, err := h.exportService.Open(r.Context(), userID, exportID)
	if err != nil {
		if errors.Is(err, services.ErrExportsDisabled) {
			writeError(w, http.StatusNotFound, "export not found")
			return
		}
		respondError(r.Context(), h.log, w, err, "export not found", "failed to load export")
		return
	}
	defer reader.Close()

	writeAttachment(w, exportID+".xlsx", -1)
	if _, err := io.Copy(w, reader); err != nil && h.log != nil {
		h.log.Error(r.Context(), "export.stream_failed", err)
	}
}

func writeAttachment(w http.ResponseWriter, filename string, size int64) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)
}
