package services

import (
	"context"
	"time"

	"transmem/internal/domain/models"
)

// NotificationSink receives the post-commit payload once per applied
// update, in commit order. It is called zero times for a failed
// transaction and many times for a batch. Implementations must not
// block; delivery happens on the confirming call's goroutine.
type NotificationSink interface {
	Notify(ctx context.Context, n *models.SegmentNotification)
}

// SegmentUpdate is one requested segment write.
type SegmentUpdate struct {
	SegmentID       string               `json:"segment_id"`
	TargetTokens    models.Tokens        `json:"target_tokens"`
	Status          models.SegmentStatus `json:"status"`
	ClientRequestID string               `json:"client_request_id,omitempty"`
}

// SegmentUpdateResult is the outcome of one applied update. The Prev*
// fields snapshot the segment's state before the write; the caller can
// keep them as its undo log and replay them through ApplyUndo. The
// engine itself holds no undo state between calls.
type SegmentUpdateResult struct {
	SegmentID        string               `json:"segment_id"`
	PropagatedIDs    []string             `json:"propagated_ids"`
	ServerAppliedAt  time.Time            `json:"server_applied_at"`
	PrevTargetTokens models.Tokens        `json:"prev_target_tokens"`
	PrevStatus       models.SegmentStatus `json:"prev_status"`
}

// UndoBatch is a caller-owned, bounded log of updates that restore the
// Prev* snapshots of earlier results.
type UndoBatch struct {
	Updates []SegmentUpdate `json:"updates"`
}

// BuildUndoBatch derives the undo batch for a set of applied results.
func BuildUndoBatch(results []SegmentUpdateResult) *UndoBatch {
	batch := &UndoBatch{Updates: make([]SegmentUpdate, 0, len(results))}
	for _, res := range results {
		batch.Updates = append(batch.Updates, SegmentUpdate{
			SegmentID:    res.SegmentID,
			TargetTokens: res.PrevTargetTokens,
			Status:       res.PrevStatus,
		})
	}
	return batch
}

// ConfirmationService orchestrates segment updates: the segment write,
// the working-memory upsert and the propagation to identical segments
// all happen inside one transaction scope, and observers never see
// partial state.
type ConfirmationService interface {
	// UpdateSegment persists one segment's target/status change. When
	// the resulting status is confirmed and the owning project is a
	// translation project, the working memory is upserted and the
	// translation propagates to every unconfirmed repeat.
	UpdateSegment(ctx context.Context, upd *SegmentUpdate) (*SegmentUpdateResult, error)

	// UpdateSegmentsAtomically applies the updates in input order as one
	// transaction and returns one result per input, in input order.
	// Empty input returns empty output and performs no transaction.
	UpdateSegmentsAtomically(ctx context.Context, upds []SegmentUpdate) ([]SegmentUpdateResult, error)

	// ConfirmSegment re-applies the segment's current target tokens with
	// status confirmed.
	ConfirmSegment(ctx context.Context, segmentID string) (*SegmentUpdateResult, error)

	// ApplyUndo replays a caller-held undo batch through the same atomic
	// path as UpdateSegmentsAtomically.
	ApplyUndo(ctx context.Context, batch *UndoBatch) ([]SegmentUpdateResult, error)
}
