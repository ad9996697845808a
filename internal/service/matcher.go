package service

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"transmem/internal/config"
	"transmem/internal/domain/models"
	"transmem/internal/domain/repositories"
	"transmem/internal/domain/services"
)

// matchService implements the MatchService interface. Exact hits come
// from hash lookups per mounted memory; fuzzy hits come from a single
// cross-memory text-search prefilter scored with normalized edit
// distance.
type matchService struct {
	memRepo     repositories.MemoryRepository
	segRepo     repositories.SegmentRepository
	catalogRepo repositories.CatalogRepository
	logger      *slog.Logger
}

// NewMatchService creates a new match service
func NewMatchService(
	memRepo repositories.MemoryRepository,
	segRepo repositories.SegmentRepository,
	catalogRepo repositories.CatalogRepository,
	logger *slog.Logger,
) services.MatchService {
	return &matchService{
		memRepo:     memRepo,
		segRepo:     segRepo,
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

// FindMatches returns the merged, ranked, capped match list for a query
// segment across every readable memory mounted to the project.
func (s *matchService) FindMatches(ctx context.Context, projectID string, seg *models.Segment) ([]models.Match, error) {
	mounts, err := s.memRepo.ListMounts(ctx, projectID)
	if err != nil {
		return nil, err
	}

	readable := mounts[:0]
	for _, mount := range mounts {
		if mount.Permission.CanRead() {
			readable = append(readable, mount)
		}
	}
	if len(readable) == 0 {
		return []models.Match{}, nil
	}

	seen := make(map[string]bool)
	var matches []models.Match

	// Exact pass: every mount is probed for the query's exact hash.
	// Mounts arrive in priority order, which fixes first-seen for the
	// same hash appearing in several memories.
	for _, mount := range readable {
		entry, err := s.memRepo.GetEntryByHash(ctx, mount.MemoryID, seg.SrcHash)
		if err != nil {
			return nil, err
		}
		if entry == nil || seen[entry.SrcHash] {
			continue
		}
		seen[entry.SrcHash] = true
		matches = append(matches, buildMatch(entry, &mount, 100))
	}

	// Fuzzy pass: coarse prefilter through the text-search index, then
	// per-candidate scoring. Exact hashes are already seen and can never
	// be displaced by a fuzzy hit.
	terms := queryTerms(seg.SourceTokens.PlainText())
	if len(terms) > 0 {
		memoryIDs := make([]string, 0, len(readable))
		mountByMemory := make(map[string]*models.MemoryMount, len(readable))
		for i := range readable {
			memoryIDs = append(memoryIDs, readable[i].MemoryID)
			mountByMemory[readable[i].MemoryID] = &readable[i]
		}

		candidates, err := s.memRepo.SearchCandidates(ctx, memoryIDs, terms, config.FuzzyCandidateLimit)
		if err != nil {
			return nil, err
		}

		for i := range candidates {
			cand := &candidates[i]
			if seen[cand.SrcHash] {
				continue
			}
			similarity := scoreCandidate(seg, cand)
			if similarity < config.FuzzyMatchThreshold {
				continue
			}
			seen[cand.SrcHash] = true
			matches = append(matches, buildMatch(cand, mountByMemory[cand.MemoryID], similarity))
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].UsageCount > matches[j].UsageCount
	})

	if len(matches) > config.MaxMatchResults {
		matches = matches[:config.MaxMatchResults]
	}
	if matches == nil {
		matches = []models.Match{}
	}

	s.logger.Debug("matches found",
		"project_id", projectID,
		"src_hash", seg.SrcHash,
		"count", len(matches),
	)

	return matches, nil
}

// FindMatchesForSegment resolves the segment's project, then matches.
func (s *matchService) FindMatchesForSegment(ctx context.Context, segmentID string) ([]models.Match, error) {
	seg, err := s.segRepo.GetByID(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	file, err := s.catalogRepo.GetFile(ctx, seg.FileID)
	if err != nil {
		return nil, err
	}
	return s.FindMatches(ctx, file.ProjectID, seg)
}

// scoreCandidate computes the similarity percentage for one prefilter
// survivor. Identical normalized text with differing token structure is
// the fixed tag-mismatch penalty; everything else is normalized edit
// distance over the normalized plain texts.
func scoreCandidate(seg *models.Segment, cand *models.MemoryEntry) int {
	if cand.MatchKey == seg.MatchKey {
		// Same words, different markup: the hashes differ only through
		// the tags signature.
		return config.TagMismatchSimilarity
	}

	a, b := seg.MatchKey, cand.MatchKey
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0
	}

	distance := levenshtein.ComputeDistance(a, b)
	return int(math.Round((1 - float64(distance)/float64(maxLen)) * 100))
}

// buildMatch flattens a memory entry and its mount into a match record.
func buildMatch(entry *models.MemoryEntry, mount *models.MemoryMount, similarity int) models.Match {
	return models.Match{
		EntryID:         entry.ID,
		MemoryID:        entry.MemoryID,
		MemoryName:      mount.MemoryName,
		MemoryKind:      mount.MemoryKind,
		SrcHash:         entry.SrcHash,
		SourceTokens:    entry.SourceTokens,
		TargetTokens:    entry.TargetTokens,
		UsageCount:      entry.UsageCount,
		OriginSegmentID: entry.OriginSegmentID,
		Similarity:      similarity,
	}
}

// queryTerms builds the coarse prefilter query from a segment's plain
// text: lowercase, split on whitespace and punctuation, keep tokens of
// at least MinQueryTermLength runes, deduplicated.
func queryTerms(plain string) []string {
	fields := strings.FieldsFunc(strings.ToLower(plain), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]bool, len(fields))
	var terms []string
	for _, f := range fields {
		if utf8.RuneCountInString(f) < config.MinQueryTermLength || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}
