package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"transmem/internal/config"
	"transmem/internal/domain"
	"transmem/internal/domain/models"
	"transmem/internal/domain/services"
)

func newMatcher(w *testWorld) services.MatchService {
	return NewMatchService(w.memRepo, w.segRepo, w.catalogRepo, w.logger)
}

func querySegment(text string) *models.Segment {
	return models.NewSegment(uuid.NewString(), 0, models.Tokens{models.TextToken(text)})
}

func TestFindMatchesExactPrecedence(t *testing.T) {
	w := newTestWorld()
	project := w.store.addProject(models.ProjectTranslation)
	mem := w.store.addMemory("Acme Main", models.MemoryMain)
	w.store.mount(project.ID, mem.ID, 1, models.PermissionRead)

	exact := w.store.addEntry(mem.ID, "Hello world", "", "Hola mundo", 3)
	w.store.addEntry(mem.ID, "Hello word", "", "Hola palabra", 1)

	svc := newMatcher(w)
	matches, err := svc.FindMatches(context.Background(), project.ID, querySegment("Hello world"))
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Similarity != 100 || matches[0].SrcHash != exact.SrcHash {
		t.Errorf("exact hit must rank first at 100, got %d for %s", matches[0].Similarity, matches[0].SrcHash)
	}
	if matches[1].Similarity >= 100 {
		t.Errorf("fuzzy hit must score below 100, got %d", matches[1].Similarity)
	}

	// The exact hash surfaces once even though the prefilter also
	// returns it as a fuzzy candidate.
	for i, m := range matches[1:] {
		if m.SrcHash == exact.SrcHash {
			t.Errorf("exact hash duplicated at position %d", i+1)
		}
	}
}

func TestFindMatchesTagMismatch(t *testing.T) {
	w := newTestWorld()
	project := w.store.addProject(models.ProjectTranslation)
	mem := w.store.addMemory("Acme Main", models.MemoryMain)
	w.store.mount(project.ID, mem.ID, 1, models.PermissionRead)

	// Same words, different inline markup: hash differs, text does not.
	w.store.addEntry(mem.ID, "Hello world", "tag_open:b|tag_close:b", "Hola mundo", 1)

	svc := newMatcher(w)
	matches, err := svc.FindMatches(context.Background(), project.ID, querySegment("Hello world"))
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Similarity != config.TagMismatchSimilarity {
		t.Errorf("expected tag-mismatch similarity %d, got %d", config.TagMismatchSimilarity, matches[0].Similarity)
	}
}

func TestFindMatchesThreshold(t *testing.T) {
	w := newTestWorld()
	project := w.store.addProject(models.ProjectTranslation)
	mem := w.store.addMemory("Acme Main", models.MemoryMain)
	w.store.mount(project.ID, mem.ID, 1, models.PermissionRead)

	// Shares the word "changes" so the prefilter returns it, but the
	// edit distance is far past the cutoff.
	w.store.addEntry(mem.ID, "Changes to the billing address require a support ticket and review", "", "n/a", 1)

	svc := newMatcher(w)
	matches, err := svc.FindMatches(context.Background(), project.ID, querySegment("Save your changes"))
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches below threshold, got %d (similarity %d)", len(matches), matches[0].Similarity)
	}
}

func TestFindMatchesCapAndOrdering(t *testing.T) {
	w := newTestWorld()
	project := w.store.addProject(models.ProjectTranslation)
	mem := w.store.addMemory("Acme Main", models.MemoryMain)
	w.store.mount(project.ID, mem.ID, 1, models.PermissionRead)

	// Twelve entries, same normalized text behind distinct markup
	// signatures, so each scores the same and usage count breaks ties.
	for i := 1; i <= 12; i++ {
		w.store.addEntry(mem.ID, "Hello world", fmt.Sprintf("tag_open:b%d", i), fmt.Sprintf("variant %d", i), i)
	}

	svc := newMatcher(w)
	matches, err := svc.FindMatches(context.Background(), project.ID, querySegment("Hello world"))
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}

	if len(matches) != config.MaxMatchResults {
		t.Fatalf("expected results capped at %d, got %d", config.MaxMatchResults, len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Errorf("similarity must be non-increasing at %d", i)
		}
		if matches[i].Similarity == matches[i-1].Similarity && matches[i].UsageCount > matches[i-1].UsageCount {
			t.Errorf("equal similarity must order by usage count at %d", i)
		}
	}
	if matches[0].UsageCount != 12 || matches[len(matches)-1].UsageCount != 3 {
		t.Errorf("expected usage counts 12 down to 3, got %d..%d", matches[0].UsageCount, matches[len(matches)-1].UsageCount)
	}
}

func TestFindMatchesDedupeAcrossMemories(t *testing.T) {
	w := newTestWorld()
	project := w.store.addProject(models.ProjectTranslation)
	first := w.store.addMemory("Alpha Main", models.MemoryMain)
	second := w.store.addMemory("Beta Main", models.MemoryMain)
	w.store.mount(project.ID, first.ID, 1, models.PermissionRead)
	w.store.mount(project.ID, second.ID, 2, models.PermissionRead)

	w.store.addEntry(first.ID, "Hello world", "", "Hola mundo", 5)
	w.store.addEntry(second.ID, "Hello world", "", "Hola mundo (beta)", 9)

	svc := newMatcher(w)
	matches, err := svc.FindMatches(context.Background(), project.ID, querySegment("Hello world"))
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("same hash in two memories must surface once, got %d", len(matches))
	}
	if matches[0].MemoryID != first.ID {
		t.Errorf("first mount in priority order wins, got memory %s", matches[0].MemoryName)
	}
}

func TestFindMatchesNoReadableMounts(t *testing.T) {
	w := newTestWorld()
	p := &models.Project{ID: uuid.NewString(), Name: "Bare", Kind: models.ProjectTranslation}
	w.store.projects[p.ID] = p
	mem := w.store.addMemory("Drop Box", models.MemoryMain)
	w.store.mount(p.ID, mem.ID, 0, models.PermissionWrite)
	w.store.addEntry(mem.ID, "Hello world", "", "Hola mundo", 1)

	svc := newMatcher(w)
	matches, err := svc.FindMatches(context.Background(), p.ID, querySegment("Hello world"))
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("write-only mounts must not serve matches, got %d", len(matches))
	}
}

func TestFindMatchesForSegment(t *testing.T) {
	w := newTestWorld()
	project := w.store.addProject(models.ProjectTranslation)
	file := w.store.addFile(project.ID, 0)
	seg := w.store.addSegment(file.ID, 0, "Hello world")
	mem := w.store.addMemory("Acme Main", models.MemoryMain)
	w.store.mount(project.ID, mem.ID, 1, models.PermissionRead)
	w.store.addEntry(mem.ID, "Hello world", "", "Hola mundo", 1)

	svc := newMatcher(w)
	matches, err := svc.FindMatchesForSegment(context.Background(), seg.ID)
	if err != nil {
		t.Fatalf("FindMatchesForSegment: %v", err)
	}
	if len(matches) != 1 || matches[0].Similarity != 100 {
		t.Errorf("expected one exact match, got %+v", matches)
	}

	_, err = svc.FindMatchesForSegment(context.Background(), uuid.NewString())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found for unknown segment, got %v", err)
	}
}

func TestScoreCandidate(t *testing.T) {
	tests := []struct {
		name    string
		segText string
		candKey string
		want    int
	}{
		{
			name:    "identical text different markup",
			segText: "Hello world",
			candKey: "hello world",
			want:    config.TagMismatchSimilarity,
		},
		{
			name:    "one character off",
			segText: "Hello world",
			candKey: "hello word",
			want:    91,
		},
		{
			name:    "half different",
			segText: "abcd",
			candKey: "abxy",
			want:    50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := querySegment(tt.segText)
			cand := &models.MemoryEntry{MatchKey: tt.candKey}
			if got := scoreCandidate(seg, cand); got != tt.want {
				t.Errorf("scoreCandidate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestQueryTerms(t *testing.T) {
	tests := []struct {
		name  string
		plain string
		want  []string
	}{
		{
			name:  "punctuation and case",
			plain: "Hello, world!",
			want:  []string{"hello", "world"},
		},
		{
			name:  "short tokens dropped",
			plain: "A to B",
			want:  []string{"to"},
		},
		{
			name:  "duplicates collapsed",
			plain: "foo foo FOO",
			want:  []string{"foo"},
		},
		{
			name:  "accented letters kept",
			plain: "¡Años de café!",
			want:  []string{"años", "de", "café"},
		},
		{
			name:  "empty",
			plain: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := queryTerms(tt.plain); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("queryTerms(%q) = %v, want %v", tt.plain, got, tt.want)
			}
		})
	}
}
