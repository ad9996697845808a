package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"transmem/internal/domain"
	"transmem/internal/domain/models"
	"transmem/internal/domain/repositories"
	"transmem/internal/domain/services"
)

// confirmationService implements the ConfirmationService interface. It
// holds no mutable state between calls; undo snapshots travel in the
// results and belong to the caller.
type confirmationService struct {
	segRepo     repositories.SegmentRepository
	memRepo     repositories.MemoryRepository
	catalogRepo repositories.CatalogRepository
	txManager   repositories.TransactionManager
	sink        services.NotificationSink
	logger      *slog.Logger
}

// NewConfirmationService creates a new confirmation service. sink may be
// nil when no observer cares about post-commit notifications.
func NewConfirmationService(
	segRepo repositories.SegmentRepository,
	memRepo repositories.MemoryRepository,
	catalogRepo repositories.CatalogRepository,
	txManager repositories.TransactionManager,
	sink services.NotificationSink,
	logger *slog.Logger,
) services.ConfirmationService {
	return &confirmationService{
		segRepo:     segRepo,
		memRepo:     memRepo,
		catalogRepo: catalogRepo,
		txManager:   txManager,
		sink:        sink,
		logger:      logger,
	}
}

// appliedUpdate pairs one applied update's result with its post-commit
// notification payload. Notifications are buffered until the scope
// commits so observers never see partial state.
type appliedUpdate struct {
	result       services.SegmentUpdateResult
	notification models.SegmentNotification
}

// UpdateSegment persists one segment's target/status change.
func (s *confirmationService) UpdateSegment(ctx context.Context, upd *services.SegmentUpdate) (*services.SegmentUpdateResult, error) {
	results, err := s.UpdateSegmentsAtomically(ctx, []services.SegmentUpdate{*upd})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// UpdateSegmentsAtomically applies the updates in input order inside one
// transaction scope. Any failure rolls back every write in the batch,
// the memory upserts and all propagation, and no notification fires.
func (s *confirmationService) UpdateSegmentsAtomically(ctx context.Context, upds []services.SegmentUpdate) ([]services.SegmentUpdateResult, error) {
	if len(upds) == 0 {
		return []services.SegmentUpdateResult{}, nil
	}

	for i := range upds {
		if err := validateUpdate(&upds[i]); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
	}

	applied := make([]appliedUpdate, 0, len(upds))

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		for i := range upds {
			one, err := s.applyUpdate(txCtx, &upds[i])
			if err != nil {
				return err
			}
			applied = append(applied, *one)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Post-commit: deliver notifications in apply order, exactly once.
	results := make([]services.SegmentUpdateResult, 0, len(applied))
	for i := range applied {
		if s.sink != nil {
			s.sink.Notify(ctx, &applied[i].notification)
		}
		results = append(results, applied[i].result)
	}

	return results, nil
}

// applyUpdate runs one update inside the open scope: segment write, then
// memory upsert and propagation when the segment lands confirmed.
func (s *confirmationService) applyUpdate(ctx context.Context, upd *services.SegmentUpdate) (*appliedUpdate, error) {
	seg, err := s.segRepo.GetByID(ctx, upd.SegmentID)
	if err != nil {
		return nil, err
	}

	appliedAt := time.Now()
	if err := s.segRepo.UpdateTarget(ctx, seg.ID, upd.TargetTokens, upd.Status, appliedAt); err != nil {
		return nil, err
	}

	file, err := s.catalogRepo.GetFile(ctx, seg.FileID)
	if err != nil {
		return nil, err
	}

	propagatedIDs := []string{}
	if upd.Status == models.StatusConfirmed {
		ids, err := s.confirmSideEffects(ctx, seg, upd, file.ProjectID, appliedAt)
		if err != nil {
			return nil, err
		}
		propagatedIDs = ids
	}

	s.logger.Debug("segment update applied",
		"segment_id", seg.ID,
		"status", upd.Status,
		"propagated", len(propagatedIDs),
	)

	return &appliedUpdate{
		result: services.SegmentUpdateResult{
			SegmentID:        seg.ID,
			PropagatedIDs:    propagatedIDs,
			ServerAppliedAt:  appliedAt,
			PrevTargetTokens: seg.TargetTokens,
			PrevStatus:       seg.Status,
		},
		notification: models.SegmentNotification{
			SegmentID:       seg.ID,
			ProjectID:       file.ProjectID,
			TargetTokens:    upd.TargetTokens,
			Status:          upd.Status,
			PropagatedIDs:   propagatedIDs,
			ClientRequestID: upd.ClientRequestID,
			ServerAppliedAt: appliedAt,
		},
	}, nil
}

// confirmSideEffects upserts the working memory and propagates the
// confirmed target to every unconfirmed repeat in the project. Projects
// that are not translation projects get neither.
func (s *confirmationService) confirmSideEffects(ctx context.Context, seg *models.Segment, upd *services.SegmentUpdate, projectID string, appliedAt time.Time) ([]string, error) {
	project, err := s.catalogRepo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Kind != models.ProjectTranslation {
		return []string{}, nil
	}

	working, err := s.memRepo.GetWorkingMemory(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	originID := seg.ID
	entry := &models.MemoryEntry{
		ID:              uuid.NewString(),
		MemoryID:        working.ID,
		SrcHash:         seg.SrcHash,
		MatchKey:        seg.MatchKey,
		TagsSignature:   seg.TagsSignature,
		SourceTokens:    seg.SourceTokens,
		TargetTokens:    upd.TargetTokens,
		UsageCount:      1,
		OriginSegmentID: &originID,
		CreatedAt:       appliedAt,
		UpdatedAt:       appliedAt,
	}
	if err := s.memRepo.UpsertEntry(ctx, entry); err != nil {
		return nil, err
	}

	ids, err := s.segRepo.PropagateTarget(ctx, project.ID, seg.SrcHash, seg.ID, upd.TargetTokens, appliedAt)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// ConfirmSegment re-applies the segment's current target tokens with
// status confirmed.
func (s *confirmationService) ConfirmSegment(ctx context.Context, segmentID string) (*services.SegmentUpdateResult, error) {
	seg, err := s.segRepo.GetByID(ctx, segmentID)
	if err != nil {
		return nil, err
	}

	return s.UpdateSegment(ctx, &services.SegmentUpdate{
		SegmentID:    seg.ID,
		TargetTokens: seg.TargetTokens,
		Status:       models.StatusConfirmed,
	})
}

// ApplyUndo replays a caller-held undo batch through the atomic path.
func (s *confirmationService) ApplyUndo(ctx context.Context, batch *services.UndoBatch) ([]services.SegmentUpdateResult, error) {
	if batch == nil || len(batch.Updates) == 0 {
		return []services.SegmentUpdateResult{}, nil
	}
	return s.UpdateSegmentsAtomically(ctx, batch.Updates)
}

// validateUpdate validates one requested segment write
func validateUpdate(upd *services.SegmentUpdate) error {
	return validation.ValidateStruct(upd,
		validation.Field(&upd.SegmentID, validation.Required),
		validation.Field(&upd.Status, validation.Required, validation.By(func(interface{}) error {
			if !upd.Status.Valid() {
				return fmt.Errorf("unknown status %q", upd.Status)
			}
			return nil
		})),
	)
}
