package handler

import (
	"log/slog"
	"net/http"

	"transmem/internal/domain/services"
	"transmem/internal/httputil"
)

// MatchHandler handles memory-match HTTP requests
type MatchHandler struct {
	matches services.MatchService
	logger  *slog.Logger
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matches services.MatchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{matches: matches, logger: logger}
}

// GetSegmentMatches returns ranked memory suggestions for a segment
// GET /api/segments/{id}/matches
func (h *MatchHandler) GetSegmentMatches(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Segment ID is required")
		return
	}

	matches, err := h.matches.FindMatchesForSegment(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
	})
}
