package services

import (
	"context"

	"transmem/internal/domain/models"
)

// ProgressFunc reports advisory progress while a large file streams
// through a batch operation. It may be nil.
type ProgressFunc func(current, total int, message string)

// BatchService applies memory matches across every segment of a file as
// one atomic group.
type BatchService interface {
	// BatchMatchFileWithTM looks up an exact-hash match in the given
	// memory for every segment of the file and confirms all matched,
	// not-yet-confirmed segments in a single atomic call. Fails if the
	// file or memory does not exist or the memory is not mounted to the
	// file's project.
	BatchMatchFileWithTM(ctx context.Context, fileID, memoryID string, progress ProgressFunc) (*models.BatchMatchReport, error)
}
