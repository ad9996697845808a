package models

import (
	"time"

	"github.com/google/uuid"
)

// SegmentStatus is the workflow state of a segment.
type SegmentStatus string

const (
	StatusNew        SegmentStatus = "new"
	StatusDraft      SegmentStatus = "draft"
	StatusTranslated SegmentStatus = "translated"
	StatusReviewed   SegmentStatus = "reviewed"
	StatusConfirmed  SegmentStatus = "confirmed"
)

// Valid reports whether s is one of the known workflow states.
func (s SegmentStatus) Valid() bool {
	switch s {
	case StatusNew, StatusDraft, StatusTranslated, StatusReviewed, StatusConfirmed:
		return true
	}
	return false
}

// Segment is the unit of translation work. SrcHash is derived from
// MatchKey and TagsSignature and is the key for propagation and exact
// memory matching.
type Segment struct {
	ID            string                 `json:"id"`
	FileID        string                 `json:"file_id"`
	OrderIndex    int                    `json:"order_index"` // display order within the file, not identity
	SourceTokens  Tokens                 `json:"source_tokens"`
	TargetTokens  Tokens                 `json:"target_tokens"`
	Status        SegmentStatus          `json:"status"`
	TagsSignature string                 `json:"tags_signature"`
	MatchKey      string                 `json:"match_key"`
	SrcHash       string                 `json:"src_hash"`
	Meta          map[string]interface{} `json:"meta,omitempty"` // row reference, context label, etc.
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// NewSegment builds a segment in status "new" with the derived source
// fields populated from the source tokens.
func NewSegment(fileID string, orderIndex int, source Tokens) *Segment {
	now := time.Now()
	seg := &Segment{
		ID:           uuid.NewString(),
		FileID:       fileID,
		OrderIndex:   orderIndex,
		SourceTokens: source,
		Status:       StatusNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	seg.RederiveSourceFields()
	return seg
}

// RederiveSourceFields recomputes MatchKey, TagsSignature and SrcHash
// from the current source tokens. Callers that replace SourceTokens must
// call this before persisting.
func (s *Segment) RederiveSourceFields() {
	s.MatchKey = s.SourceTokens.MatchKey()
	s.TagsSignature = s.SourceTokens.TagsSignature()
	s.SrcHash = SourceHash(s.MatchKey, s.TagsSignature)
}
