package service

import (
	"context"
	"fmt"
	"log/slog"

	"transmem/internal/config"
	"transmem/internal/domain"
	"transmem/internal/domain/models"
	"transmem/internal/domain/repositories"
	"transmem/internal/domain/services"
)

// batchService implements the BatchService interface. It reuses the
// confirmation service's per-segment logic so one batch commits or rolls
// back as a single unit, propagation and memory upserts included.
type batchService struct {
	segRepo      repositories.SegmentRepository
	memRepo      repositories.MemoryRepository
	catalogRepo  repositories.CatalogRepository
	confirmation services.ConfirmationService
	logger       *slog.Logger
}

// NewBatchService creates a new batch service
func NewBatchService(
	segRepo repositories.SegmentRepository,
	memRepo repositories.MemoryRepository,
	catalogRepo repositories.CatalogRepository,
	confirmation services.ConfirmationService,
	logger *slog.Logger,
) services.BatchService {
	return &batchService{
		segRepo:      segRepo,
		memRepo:      memRepo,
		catalogRepo:  catalogRepo,
		confirmation: confirmation,
		logger:       logger,
	}
}

// BatchMatchFileWithTM pre-translates a file from one memory: exact hash
// lookups only, all resulting confirmations submitted as one atomic call.
func (s *batchService) BatchMatchFileWithTM(ctx context.Context, fileID, memoryID string, progress services.ProgressFunc) (*models.BatchMatchReport, error) {
	file, err := s.catalogRepo.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memRepo.GetMemory(ctx, memoryID); err != nil {
		return nil, err
	}

	mounts, err := s.memRepo.ListMounts(ctx, file.ProjectID)
	if err != nil {
		return nil, err
	}
	mounted := false
	for _, mount := range mounts {
		if mount.MemoryID == memoryID && mount.Permission.CanRead() {
			mounted = true
			break
		}
	}
	if !mounted {
		return nil, fmt.Errorf("%w: memory %s is not mounted to project %s", domain.ErrValidation, memoryID, file.ProjectID)
	}

	total, err := s.segRepo.CountByFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	report := &models.BatchMatchReport{}
	var updates []services.SegmentUpdate

	// Stream the file page by page; large files never load whole.
	for offset := 0; ; offset += config.BatchPageSize {
		page, err := s.segRepo.ListByFile(ctx, fileID, offset, config.BatchPageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			seg := &page[i]
			report.Total++

			entry, err := s.memRepo.GetEntryByHash(ctx, memoryID, seg.SrcHash)
			if err != nil {
				return nil, err
			}
			if entry == nil {
				continue
			}
			report.Matched++

			if seg.Status == models.StatusConfirmed {
				report.Skipped++
				continue
			}

			updates = append(updates, services.SegmentUpdate{
				SegmentID:    seg.ID,
				TargetTokens: entry.TargetTokens,
				Status:       models.StatusConfirmed,
			})
		}

		if progress != nil {
			progress(report.Total, total, fmt.Sprintf("scanned %d of %d segments", report.Total, total))
		}

		if len(page) < config.BatchPageSize {
			break
		}
	}

	if len(updates) > 0 {
		if _, err := s.confirmation.UpdateSegmentsAtomically(ctx, updates); err != nil {
			return nil, err
		}
	}
	report.Applied = len(updates)

	s.logger.Info("batch match completed",
		"file_id", fileID,
		"memory_id", memoryID,
		"total", report.Total,
		"matched", report.Matched,
		"applied", report.Applied,
		"skipped", report.Skipped,
	)

	return report, nil
}
