package repositories

import (
	"context"
	"time"

	"transmem/internal/domain/models"
)

// SegmentRepository defines data access operations for segments. All
// mutating methods participate in an open transaction scope when one is
// present on the context.
type SegmentRepository interface {
	// Create inserts a segment (import/seed path).
	Create(ctx context.Context, seg *models.Segment) error

	// GetByID retrieves a segment by ID
	GetByID(ctx context.Context, id string) (*models.Segment, error)

	// UpdateTarget persists a segment's target tokens and status.
	UpdateTarget(ctx context.Context, id string, target models.Tokens, status models.SegmentStatus, updatedAt time.Time) error

	// PropagateTarget copies target into every other segment of the
	// project sharing srcHash, excluding excludeID and segments already
	// confirmed, and sets their status to draft. Returns the affected
	// segment IDs in (file, order) position order.
	PropagateTarget(ctx context.Context, projectID, srcHash, excludeID string, target models.Tokens, updatedAt time.Time) ([]string, error)

	// ListByFile returns one page of a file's segments in position order.
	ListByFile(ctx context.Context, fileID string, offset, limit int) ([]models.Segment, error)

	// CountByFile returns the number of segments in a file.
	CountByFile(ctx context.Context, fileID string) (int, error)
}
