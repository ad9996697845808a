package models

import "time"

// Match is one memory suggestion for a query segment. Similarity is an
// integer percentage: 100 for an exact hash hit, 99 for identical plain
// text with differing markup, otherwise normalized edit distance.
type Match struct {
	EntryID         string     `json:"entry_id"`
	MemoryID        string     `json:"memory_id"`
	MemoryName      string     `json:"memory_name"`
	MemoryKind      MemoryKind `json:"memory_kind"`
	SrcHash         string     `json:"src_hash"`
	SourceTokens    Tokens     `json:"source_tokens"`
	TargetTokens    Tokens     `json:"target_tokens"`
	UsageCount      int        `json:"usage_count"`
	OriginSegmentID *string    `json:"origin_segment_id,omitempty"`
	Similarity      int        `json:"similarity"`
}

// SegmentNotification is the post-commit payload delivered once per
// applied update, in commit order. It is never delivered for a failed
// transaction.
type SegmentNotification struct {
	SegmentID       string        `json:"segment_id"`
	ProjectID       string        `json:"project_id"`
	TargetTokens    Tokens        `json:"target_tokens"`
	Status          SegmentStatus `json:"status"`
	PropagatedIDs   []string      `json:"propagated_ids"`
	ClientRequestID string        `json:"client_request_id,omitempty"`
	ServerAppliedAt time.Time     `json:"server_applied_at"`
}

// BatchMatchReport summarizes a batch pre-translation run over one file.
type BatchMatchReport struct {
	Total   int `json:"total"`   // segments scanned
	Matched int `json:"matched"` // exact hash hits found
	Applied int `json:"applied"` // updates submitted atomically
	Skipped int `json:"skipped"` // matched but already confirmed
}
