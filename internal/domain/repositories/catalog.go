package repositories

import (
	"context"

	"transmem/internal/domain/models"
)

// CatalogRepository exposes the project/file catalog consumed by the
// engine: project kind, file-to-project resolution. The engine treats the
// catalog as read-only apart from the import/seed path.
type CatalogRepository interface {
	// CreateProject inserts a project (seed/import path).
	CreateProject(ctx context.Context, p *models.Project) error

	// GetProject retrieves a project by ID
	GetProject(ctx context.Context, id string) (*models.Project, error)

	// ListProjects returns all projects ordered by name.
	ListProjects(ctx context.Context) ([]models.Project, error)

	// CreateFile inserts a file (seed/import path).
	CreateFile(ctx context.Context, f *models.File) error

	// GetFile retrieves a file by ID
	GetFile(ctx context.Context, id string) (*models.File, error)

	// ListFiles returns a project's files in position order.
	ListFiles(ctx context.Context, projectID string) ([]models.File, error)
}
