package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"transmem/internal/domain"
	"transmem/internal/domain/models"
	"transmem/internal/domain/repositories"
)

// PostgresMemoryRepository implements the MemoryRepository interface
type PostgresMemoryRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewMemoryRepository creates a new memory repository
func NewMemoryRepository(config *RepositoryConfig) repositories.MemoryRepository {
	return &PostgresMemoryRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const entryColumns = `id, memory_id, src_hash, match_key, tags_signature,
	source_tokens, target_tokens, usage_count, origin_segment_id, created_at, updated_at`

// CreateMemory inserts a memory
func (r *PostgresMemoryRepository) CreateMemory(ctx context.Context, tm *models.TranslationMemory) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, kind, source_lang, target_lang, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Memories)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query, tm.ID, tm.Name, tm.Kind, tm.SourceLang, tm.TargetLang, tm.CreatedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("memory '%s': %w", tm.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create memory: %w", err)
	}

	return nil
}

// GetMemory retrieves a memory by ID
func (r *PostgresMemoryRepository) GetMemory(ctx context.Context, id string) (*models.TranslationMemory, error) {
	query := fmt.Sprintf(`
		SELECT id, name, kind, source_lang, target_lang, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Memories)

	var tm models.TranslationMemory
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&tm.ID, &tm.Name, &tm.Kind, &tm.SourceLang, &tm.TargetLang, &tm.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("memory %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get memory: %w", err)
	}

	return &tm, nil
}

// GetWorkingMemory retrieves the single working memory of a project
func (r *PostgresMemoryRepository) GetWorkingMemory(ctx context.Context, projectID string) (*models.TranslationMemory, error) {
	query := fmt.Sprintf(`
		SELECT m.id, m.name, m.kind, m.source_lang, m.target_lang, m.created_at
		FROM %s m
		JOIN %s mm ON mm.memory_id = m.id
		WHERE mm.project_id = $1 AND m.kind = $2
	`, r.tables.Memories, r.tables.MemoryMounts)

	var tm models.TranslationMemory
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, projectID, models.MemoryWorking).Scan(
		&tm.ID, &tm.Name, &tm.Kind, &tm.SourceLang, &tm.TargetLang, &tm.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("working memory for project %s: %w", projectID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get working memory: %w", err)
	}

	return &tm, nil
}

// CreateMount mounts a memory to a project
func (r *PostgresMemoryRepository) CreateMount(ctx context.Context, mount *models.MemoryMount) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, memory_id, priority, permission)
		VALUES ($1, $2, $3, $4)
	`, r.tables.MemoryMounts)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query, mount.ProjectID, mount.MemoryID, mount.Priority, mount.Permission)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("mount %s/%s: %w", mount.ProjectID, mount.MemoryID, domain.ErrConflict)
		}
		return fmt.Errorf("create mount: %w", err)
	}

	return nil
}

// ListMounts returns a project's mounts ordered by priority, then name
func (r *PostgresMemoryRepository) ListMounts(ctx context.Context, projectID string) ([]models.MemoryMount, error) {
	query := fmt.Sprintf(`
		SELECT mm.project_id, mm.memory_id, mm.priority, mm.permission, m.name, m.kind
		FROM %s mm
		JOIN %s m ON m.id = mm.memory_id
		WHERE mm.project_id = $1
		ORDER BY mm.priority ASC, m.name ASC
	`, r.tables.MemoryMounts, r.tables.Memories)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list mounts: %w", err)
	}
	defer rows.Close()

	var mounts []models.MemoryMount
	for rows.Next() {
		var mount models.MemoryMount
		err := rows.Scan(
			&mount.ProjectID,
			&mount.MemoryID,
			&mount.Priority,
			&mount.Permission,
			&mount.MemoryName,
			&mount.MemoryKind,
		)
		if err != nil {
			return nil, fmt.Errorf("scan mount: %w", err)
		}
		mounts = append(mounts, mount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mounts: %w", err)
	}

	return mounts, nil
}

// GetEntryByHash retrieves the entry for an exact source hash.
// Returns (nil, nil) when the memory has no entry for the hash.
func (r *PostgresMemoryRepository) GetEntryByHash(ctx context.Context, memoryID, srcHash string) (*models.MemoryEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE memory_id = $1 AND src_hash = $2
	`, entryColumns, r.tables.MemoryEntries)

	executor := GetExecutor(ctx, r.pool)
	entry, err := scanEntry(executor.QueryRow(ctx, query, memoryID, srcHash))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get entry by hash: %w", err)
	}

	return entry, nil
}

// UpsertEntry writes an entry keyed by (memory_id, src_hash). The search
// index column is a generated tsvector over match_key, so refreshing it
// happens with the row write itself.
func (r *PostgresMemoryRepository) UpsertEntry(ctx context.Context, entry *models.MemoryEntry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (memory_id, src_hash) DO UPDATE
		SET match_key = EXCLUDED.match_key,
		    tags_signature = EXCLUDED.tags_signature,
		    source_tokens = EXCLUDED.source_tokens,
		    target_tokens = EXCLUDED.target_tokens,
		    usage_count = %s.usage_count + 1,
		    origin_segment_id = EXCLUDED.origin_segment_id,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, usage_count, created_at
	`, r.tables.MemoryEntries, entryColumns, r.tables.MemoryEntries)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		entry.ID,
		entry.MemoryID,
		entry.SrcHash,
		entry.MatchKey,
		entry.TagsSignature,
		entry.SourceTokens,
		entry.TargetTokens,
		entry.UsageCount,
		entry.OriginSegmentID,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.ID, &entry.UsageCount, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}

	return nil
}

// SearchCandidates runs the cross-memory text-search prefilter. Terms
// are OR-ed into a tsquery against the generated search column; the
// matcher scores the survivors.
func (r *PostgresMemoryRepository) SearchCandidates(ctx context.Context, memoryIDs []string, terms []string, limit int) ([]models.MemoryEntry, error) {
	if len(memoryIDs) == 0 || len(terms) == 0 {
		return nil, nil
	}

	tsquery := buildTSQuery(terms)
	if tsquery == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE memory_id = ANY($1)
		  AND search @@ to_tsquery('simple', $2)
		ORDER BY ts_rank(search, to_tsquery('simple', $2)) DESC
		LIMIT $3
	`, entryColumns, r.tables.MemoryEntries)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, memoryIDs, tsquery, limit)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	defer rows.Close()

	var entries []models.MemoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}

	return entries, nil
}

// buildTSQuery joins prefilter terms into an OR tsquery, quoting each
// lexeme so user text cannot inject tsquery syntax.
func buildTSQuery(terms []string) string {
	var quoted []string
	for _, term := range terms {
		term = strings.ReplaceAll(term, `'`, "")
		if term == "" {
			continue
		}
		quoted = append(quoted, "'"+term+"'")
	}
	return strings.Join(quoted, " | ")
}

func scanEntry(row rowScanner) (*models.MemoryEntry, error) {
	var entry models.MemoryEntry
	err := row.Scan(
		&entry.ID,
		&entry.MemoryID,
		&entry.SrcHash,
		&entry.MatchKey,
		&entry.TagsSignature,
		&entry.SourceTokens,
		&entry.TargetTokens,
		&entry.UsageCount,
		&entry.OriginSegmentID,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
