package repositories

import (
	"context"

	"transmem/internal/domain/models"
)

// MemoryRepository defines data access operations for translation
// memories, their project mounts, and their entries.
type MemoryRepository interface {
	// CreateMemory inserts a memory (project creation/seed path).
	CreateMemory(ctx context.Context, tm *models.TranslationMemory) error

	// GetMemory retrieves a memory by ID
	GetMemory(ctx context.Context, id string) (*models.TranslationMemory, error)

	// GetWorkingMemory retrieves the single working memory of a project.
	GetWorkingMemory(ctx context.Context, projectID string) (*models.TranslationMemory, error)

	// CreateMount mounts a memory to a project.
	CreateMount(ctx context.Context, mount *models.MemoryMount) error

	// ListMounts returns a project's mounts ordered by priority
	// ascending, then memory name, with memory name/kind denormalized.
	ListMounts(ctx context.Context, projectID string) ([]models.MemoryMount, error)

	// GetEntryByHash retrieves the entry for an exact source hash, or
	// (nil, nil) when the memory has no entry for it.
	GetEntryByHash(ctx context.Context, memoryID, srcHash string) (*models.MemoryEntry, error)

	// UpsertEntry writes an entry keyed by (MemoryID, SrcHash). An
	// existing entry for the hash is overwritten with the new tokens,
	// its usage count incremented and its search index entry refreshed.
	UpsertEntry(ctx context.Context, entry *models.MemoryEntry) error

	// SearchCandidates runs the approximate text-search prefilter across
	// the given memories in a single query and returns plausible fuzzy
	// candidates. Scoring happens in the matcher, not here.
	SearchCandidates(ctx context.Context, memoryIDs []string, terms []string, limit int) ([]models.MemoryEntry, error)
}
