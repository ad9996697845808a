package services

import (
	"context"

	"transmem/internal/domain/models"
)

// MatchService answers "what did we already translate that looks like
// this?" over every memory mounted to a project. Read-only.
type MatchService interface {
	// FindMatches returns up to the configured cap of match records for
	// the query segment, ordered by similarity descending then usage
	// count descending. Exact hash hits score 100 and always win over a
	// fuzzy hit for the same hash.
	FindMatches(ctx context.Context, projectID string, seg *models.Segment) ([]models.Match, error)

	// FindMatchesForSegment resolves the segment and its project, then
	// delegates to FindMatches.
	FindMatchesForSegment(ctx context.Context, segmentID string) ([]models.Match, error)
}
