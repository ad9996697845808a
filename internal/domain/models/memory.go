package models

import "time"

// MemoryKind distinguishes a project's single auto-created read-write
// working memory from explicitly created, reusable main memories.
type MemoryKind string

const (
	MemoryWorking MemoryKind = "working"
	MemoryMain    MemoryKind = "main"
)

// MountPermission controls what a project may do with a mounted memory.
type MountPermission string

const (
	PermissionRead      MountPermission = "read"
	PermissionWrite     MountPermission = "write"
	PermissionReadWrite MountPermission = "readwrite"
)

// CanRead reports whether entries of the mount may be read for matching.
func (p MountPermission) CanRead() bool {
	return p == PermissionRead || p == PermissionReadWrite
}

// CanWrite reports whether the mount accepts entry upserts.
func (p MountPermission) CanWrite() bool {
	return p == PermissionWrite || p == PermissionReadWrite
}

// TranslationMemory is a named collection of entries scoped to a
// language pair.
type TranslationMemory struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Kind       MemoryKind `json:"kind"`
	SourceLang string     `json:"source_lang"`
	TargetLang string     `json:"target_lang"`
	CreatedAt  time.Time  `json:"created_at"`
}

// MemoryMount relates a project to a memory. Priority orders mounts for
// display (lower first); it does not influence match ranking. Exactly one
// mount per project is working, and it is always readwrite.
type MemoryMount struct {
	ProjectID  string          `json:"project_id"`
	MemoryID   string          `json:"memory_id"`
	Priority   int             `json:"priority"`
	Permission MountPermission `json:"permission"`

	// Denormalized from the memory row for display and match records.
	MemoryName string     `json:"memory_name"`
	MemoryKind MemoryKind `json:"memory_kind"`
}

// MemoryEntry is one confirmed source->target pair. Within a single
// memory SrcHash is unique; writes are upserts keyed by (MemoryID,
// SrcHash), never duplicate inserts for the same hash.
type MemoryEntry struct {
	ID              string    `json:"id"`
	MemoryID        string    `json:"memory_id"`
	SrcHash         string    `json:"src_hash"`
	MatchKey        string    `json:"match_key"`
	TagsSignature   string    `json:"tags_signature"`
	SourceTokens    Tokens    `json:"source_tokens"`
	TargetTokens    Tokens    `json:"target_tokens"`
	UsageCount      int       `json:"usage_count"`
	OriginSegmentID *string   `json:"origin_segment_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
