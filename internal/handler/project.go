package handler

import (
	"log/slog"
	"net/http"

	"transmem/internal/domain/repositories"
	"transmem/internal/httputil"
)

// ProjectHandler serves the read-only catalog surface: projects, files
// and memory mounts. All segment writes go through the segment routes.
type ProjectHandler struct {
	catalogRepo repositories.CatalogRepository
	memRepo     repositories.MemoryRepository
	logger      *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(
	catalogRepo repositories.CatalogRepository,
	memRepo repositories.MemoryRepository,
	logger *slog.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		catalogRepo: catalogRepo,
		memRepo:     memRepo,
		logger:      logger,
	}
}

// ListProjects returns all projects
// GET /api/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.catalogRepo.ListProjects(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, projects)
}

// GetProject retrieves a project by ID
// GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	project, err := h.catalogRepo.GetProject(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// ListProjectFiles returns a project's files in position order
// GET /api/projects/{id}/files
func (h *ProjectHandler) ListProjectFiles(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	files, err := h.catalogRepo.ListFiles(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, files)
}

// ListProjectMounts returns a project's memory mounts in priority order
// GET /api/projects/{id}/memories
func (h *ProjectHandler) ListProjectMounts(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	mounts, err := h.memRepo.ListMounts(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, mounts)
}
