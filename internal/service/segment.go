package service

import (
	"context"
	"log/slog"

	"transmem/internal/domain/models"
	"transmem/internal/domain/repositories"
	"transmem/internal/domain/services"
)

// segmentQueryService implements the SegmentQueryService interface
type segmentQueryService struct {
	segRepo repositories.SegmentRepository
	logger  *slog.Logger
}

// NewSegmentQueryService creates a new segment query service
func NewSegmentQueryService(segRepo repositories.SegmentRepository, logger *slog.Logger) services.SegmentQueryService {
	return &segmentQueryService{segRepo: segRepo, logger: logger}
}

// GetSegment retrieves one segment
func (s *segmentQueryService) GetSegment(ctx context.Context, id string) (*models.Segment, error) {
	return s.segRepo.GetByID(ctx, id)
}

// ListFileSegments returns one page of a file's segments plus the total
func (s *segmentQueryService) ListFileSegments(ctx context.Context, fileID string, offset, limit int) ([]models.Segment, int, error) {
	total, err := s.segRepo.CountByFile(ctx, fileID)
	if err != nil {
		return nil, 0, err
	}

	segments, err := s.segRepo.ListByFile(ctx, fileID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	if segments == nil {
		segments = []models.Segment{}
	}

	return segments, total, nil
}
