package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"transmem/internal/domain"
	"transmem/internal/domain/models"
	"transmem/internal/domain/repositories"
)

// PostgresSegmentRepository implements the SegmentRepository interface
type PostgresSegmentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewSegmentRepository creates a new segment repository
func NewSegmentRepository(config *RepositoryConfig) repositories.SegmentRepository {
	return &PostgresSegmentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const segmentColumns = `id, file_id, order_index, source_tokens, target_tokens, status,
	tags_signature, match_key, src_hash, meta, created_at, updated_at`

// Create inserts a segment
func (r *PostgresSegmentRepository) Create(ctx context.Context, seg *models.Segment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, r.tables.Segments, segmentColumns)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		seg.ID,
		seg.FileID,
		seg.OrderIndex,
		seg.SourceTokens,
		seg.TargetTokens,
		seg.Status,
		seg.TagsSignature,
		seg.MatchKey,
		seg.SrcHash,
		seg.Meta,
		seg.CreatedAt,
		seg.UpdatedAt,
	)
	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("segment %s: %w", seg.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create segment: %w", err)
	}

	return nil
}

// GetByID retrieves a segment by ID
func (r *PostgresSegmentRepository) GetByID(ctx context.Context, id string) (*models.Segment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, segmentColumns, r.tables.Segments)

	executor := GetExecutor(ctx, r.pool)
	seg, err := scanSegment(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("segment %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get segment: %w", err)
	}

	return seg, nil
}

// UpdateTarget persists a segment's target tokens and status
func (r *PostgresSegmentRepository) UpdateTarget(ctx context.Context, id string, target models.Tokens, status models.SegmentStatus, updatedAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET target_tokens = $1, status = $2, updated_at = $3
		WHERE id = $4
	`, r.tables.Segments)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, target, status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("update segment target: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("segment %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// PropagateTarget copies target into every unconfirmed repeat of srcHash
// in the project and marks them draft. Propagation never auto-confirms.
func (r *PostgresSegmentRepository) PropagateTarget(ctx context.Context, projectID, srcHash, excludeID string, target models.Tokens, updatedAt time.Time) ([]string, error) {
	query := fmt.Sprintf(`
		UPDATE %s s
		SET target_tokens = $1, status = $2, updated_at = $3
		FROM %s f
		WHERE s.file_id = f.id
		  AND f.project_id = $4
		  AND s.src_hash = $5
		  AND s.id <> $6
		  AND s.status <> $7
		RETURNING s.id, f.order_index, s.order_index
	`, r.tables.Segments, r.tables.Files)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query,
		target, models.StatusDraft, updatedAt,
		projectID, srcHash, excludeID, models.StatusConfirmed,
	)
	if err != nil {
		return nil, fmt.Errorf("propagate target: %w", err)
	}
	defer rows.Close()

	type propagated struct {
		id        string
		fileOrder int
		segOrder  int
	}
	var hits []propagated
	for rows.Next() {
		var p propagated
		if err := rows.Scan(&p.id, &p.fileOrder, &p.segOrder); err != nil {
			return nil, fmt.Errorf("scan propagated segment: %w", err)
		}
		hits = append(hits, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate propagated segments: %w", err)
	}

	// UPDATE..RETURNING order is unspecified; report ids in position order.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].fileOrder != hits[j].fileOrder {
			return hits[i].fileOrder < hits[j].fileOrder
		}
		return hits[i].segOrder < hits[j].segOrder
	})

	ids := make([]string, 0, len(hits))
	for _, p := range hits {
		ids = append(ids, p.id)
	}
	return ids, nil
}

// ListByFile returns one page of a file's segments in position order
func (r *PostgresSegmentRepository) ListByFile(ctx context.Context, fileID string, offset, limit int) ([]models.Segment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE file_id = $1
		ORDER BY order_index ASC
		LIMIT $2 OFFSET $3
	`, segmentColumns, r.tables.Segments)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, fileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var segments []models.Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segments = append(segments, *seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w", err)
	}

	return segments, nil
}

// CountByFile returns the number of segments in a file
func (r *PostgresSegmentRepository) CountByFile(ctx context.Context, fileID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE file_id = $1`, r.tables.Segments)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, fileID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count segments: %w", err)
	}
	return count, nil
}

// rowScanner covers pgx.Row and pgx.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSegment(row rowScanner) (*models.Segment, error) {
	var seg models.Segment
	err := row.Scan(
		&seg.ID,
		&seg.FileID,
		&seg.OrderIndex,
		&seg.SourceTokens,
		&seg.TargetTokens,
		&seg.Status,
		&seg.TagsSignature,
		&seg.MatchKey,
		&seg.SrcHash,
		&seg.Meta,
		&seg.CreatedAt,
		&seg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seg, nil
}
