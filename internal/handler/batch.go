package handler

import (
	"log/slog"
	"net/http"

	"transmem/internal/domain/services"
	"transmem/internal/httputil"
)

// BatchHandler handles batch pre-translation HTTP requests
type BatchHandler struct {
	batch  services.BatchService
	logger *slog.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(batch services.BatchService, logger *slog.Logger) *BatchHandler {
	return &BatchHandler{batch: batch, logger: logger}
}

type batchMatchRequest struct {
	MemoryID string `json:"memory_id"`
}

// BatchMatchFile applies exact memory matches across a whole file
// POST /api/files/{id}/batch-match
func (h *BatchHandler) BatchMatchFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("id")
	if fileID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "File ID is required")
		return
	}

	var req batchMatchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.MemoryID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "memory_id is required")
		return
	}

	// Progress lands in the log; the report is the HTTP response.
	progress := func(current, total int, message string) {
		h.logger.Debug("batch progress", "file_id", fileID, "current", current, "total", total, "message", message)
	}

	report, err := h.batch.BatchMatchFileWithTM(r.Context(), fileID, req.MemoryID, progress)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, report)
}
