package handler

import (
	"log/slog"
	"net/http"

	"transmem/internal/config"
	"transmem/internal/domain/services"
	"transmem/internal/httputil"
)

// SegmentHandler handles segment HTTP requests
type SegmentHandler struct {
	confirmation services.ConfirmationService
	query        services.SegmentQueryService
	logger       *slog.Logger
}

// NewSegmentHandler creates a new segment handler
func NewSegmentHandler(
	confirmation services.ConfirmationService,
	query services.SegmentQueryService,
	logger *slog.Logger,
) *SegmentHandler {
	return &SegmentHandler{
		confirmation: confirmation,
		query:        query,
		logger:       logger,
	}
}

// GetSegment retrieves a segment by ID
// GET /api/segments/{id}
func (h *SegmentHandler) GetSegment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Segment ID is required")
		return
	}

	seg, err := h.query.GetSegment(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, seg)
}

// ListFileSegments returns one page of a file's segments
// GET /api/files/{id}/segments?offset=&limit=
func (h *SegmentHandler) ListFileSegments(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("id")
	if fileID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "File ID is required")
		return
	}

	offset := httputil.QueryInt(r, "offset", 0)
	limit := httputil.QueryInt(r, "limit", config.BatchPageSize)

	segments, total, err := h.query.ListFileSegments(r.Context(), fileID, offset, limit)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"segments": segments,
		"total":    total,
		"offset":   offset,
	})
}

// UpdateSegment persists a segment's target/status change
// PATCH /api/segments/{id}
func (h *SegmentHandler) UpdateSegment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Segment ID is required")
		return
	}

	var req services.SegmentUpdate
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.SegmentID = id

	result, err := h.confirmation.UpdateSegment(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ConfirmSegment re-applies the current target with status confirmed
// POST /api/segments/{id}/confirm
func (h *SegmentHandler) ConfirmSegment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Segment ID is required")
		return
	}

	result, err := h.confirmation.ConfirmSegment(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// batchUpdateRequest carries a multi-segment atomic update.
type batchUpdateRequest struct {
	Updates []services.SegmentUpdate `json:"updates"`
}

// UpdateSegmentsAtomically applies a batch of updates as one transaction
// POST /api/segments/updates
func (h *SegmentHandler) UpdateSegmentsAtomically(w http.ResponseWriter, r *http.Request) {
	var req batchUpdateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := h.confirmation.UpdateSegmentsAtomically(r.Context(), req.Updates)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// ApplyUndo replays a caller-held undo batch
// POST /api/segments/undo
func (h *SegmentHandler) ApplyUndo(w http.ResponseWriter, r *http.Request) {
	var batch services.UndoBatch
	if err := httputil.ParseJSON(w, r, &batch); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	results, err := h.confirmation.ApplyUndo(r.Context(), &batch)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// HealthCheck reports liveness
// GET /health
func (h *SegmentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
