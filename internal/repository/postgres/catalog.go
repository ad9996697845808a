package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"transmem/internal/domain"
	"transmem/internal/domain/models"
	"transmem/internal/domain/repositories"
)

// PostgresCatalogRepository implements the CatalogRepository interface
type PostgresCatalogRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(config *RepositoryConfig) repositories.CatalogRepository {
	return &PostgresCatalogRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// CreateProject inserts a project
func (r *PostgresCatalogRepository) CreateProject(ctx context.Context, p *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, kind, source_lang, target_lang, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query, p.ID, p.Name, p.Kind, p.SourceLang, p.TargetLang, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("project '%s': %w", p.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create project: %w", err)
	}

	return nil
}

// GetProject retrieves a project by ID
func (r *PostgresCatalogRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, name, kind, source_lang, target_lang, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Projects)

	var p models.Project
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Kind, &p.SourceLang, &p.TargetLang, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return &p, nil
}

// ListProjects returns all projects ordered by name
func (r *PostgresCatalogRepository) ListProjects(ctx context.Context) ([]models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, name, kind, source_lang, target_lang, created_at, updated_at
		FROM %s
		ORDER BY name ASC
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		err := rows.Scan(&p.ID, &p.Name, &p.Kind, &p.SourceLang, &p.TargetLang, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// CreateFile inserts a file
func (r *PostgresCatalogRepository) CreateFile(ctx context.Context, f *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, name, order_index, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query, f.ID, f.ProjectID, f.Name, f.OrderIndex, f.CreatedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("file '%s': %w", f.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// GetFile retrieves a file by ID
func (r *PostgresCatalogRepository) GetFile(ctx context.Context, id string) (*models.File, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, name, order_index, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Files)

	var f models.File
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(&f.ID, &f.ProjectID, &f.Name, &f.OrderIndex, &f.CreatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return &f, nil
}

// ListFiles returns a project's files in position order
func (r *PostgresCatalogRepository) ListFiles(ctx context.Context, projectID string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, name, order_index, created_at
		FROM %s
		WHERE project_id = $1
		ORDER BY order_index ASC
	`, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		var f models.File
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Name, &f.OrderIndex, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}
