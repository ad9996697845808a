package services

import (
	"context"

	"transmem/internal/domain/models"
)

// SegmentQueryService is the read surface the editor uses to page
// through a file. Writes go through the ConfirmationService only.
type SegmentQueryService interface {
	// GetSegment retrieves one segment.
	GetSegment(ctx context.Context, id string) (*models.Segment, error)

	// ListFileSegments returns one page of a file's segments plus the
	// file's total segment count.
	ListFileSegments(ctx context.Context, fileID string, offset, limit int) ([]models.Segment, int, error)
}
