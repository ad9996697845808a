package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"transmem/internal/domain"
	"transmem/internal/domain/models"
	"transmem/internal/domain/repositories"
)

// fakeStore is the in-memory world backing the fake repositories. One
// store is shared by every fake so transaction snapshots see all state.
type fakeStore struct {
	projects map[string]*models.Project
	files    map[string]*models.File
	segments map[string]models.Segment
	memories map[string]*models.TranslationMemory
	mounts   []models.MemoryMount
	entries  map[string]map[string]models.MemoryEntry // memoryID -> srcHash

	// failUpdateOn makes the Nth UpdateTarget call fail (1-based, 0 off)
	failUpdateOn int
	updateCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: make(map[string]*models.Project),
		files:    make(map[string]*models.File),
		segments: make(map[string]models.Segment),
		memories: make(map[string]*models.TranslationMemory),
		entries:  make(map[string]map[string]models.MemoryEntry),
	}
}

type storeSnapshot struct {
	segments    map[string]models.Segment
	entries     map[string]map[string]models.MemoryEntry
	updateCalls int
}

func (s *fakeStore) snapshot() storeSnapshot {
	segs := make(map[string]models.Segment, len(s.segments))
	for id, seg := range s.segments {
		segs[id] = seg
	}
	ents := make(map[string]map[string]models.MemoryEntry, len(s.entries))
	for memID, byHash := range s.entries {
		inner := make(map[string]models.MemoryEntry, len(byHash))
		for hash, e := range byHash {
			inner[hash] = e
		}
		ents[memID] = inner
	}
	return storeSnapshot{segments: segs, entries: ents, updateCalls: s.updateCalls}
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.segments = snap.segments
	s.entries = snap.entries
	s.updateCalls = snap.updateCalls
}

// addProject seeds a project with a mounted readwrite working memory.
func (s *fakeStore) addProject(kind models.ProjectKind) *models.Project {
	p := &models.Project{
		ID:         uuid.NewString(),
		Name:       "Test Project",
		Kind:       kind,
		SourceLang: "en",
		TargetLang: "es",
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	s.projects[p.ID] = p

	working := &models.TranslationMemory{
		ID:         uuid.NewString(),
		Name:       "Working " + p.ID[:8],
		Kind:       models.MemoryWorking,
		SourceLang: "en",
		TargetLang: "es",
		CreatedAt:  time.Now(),
	}
	s.memories[working.ID] = working
	s.mounts = append(s.mounts, models.MemoryMount{
		ProjectID:  p.ID,
		MemoryID:   working.ID,
		Priority:   0,
		Permission: models.PermissionReadWrite,
		MemoryName: working.Name,
		MemoryKind: working.Kind,
	})
	s.entries[working.ID] = make(map[string]models.MemoryEntry)
	return p
}

func (s *fakeStore) addFile(projectID string, orderIndex int) *models.File {
	f := &models.File{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		Name:       fmt.Sprintf("file-%d.xlsx", orderIndex),
		OrderIndex: orderIndex,
		CreatedAt:  time.Now(),
	}
	s.files[f.ID] = f
	return f
}

func (s *fakeStore) addSegment(fileID string, orderIndex int, sourceText string) *models.Segment {
	seg := models.NewSegment(fileID, orderIndex, models.Tokens{models.TextToken(sourceText)})
	s.segments[seg.ID] = *seg
	return seg
}

func (s *fakeStore) addMemory(name string, kind models.MemoryKind) *models.TranslationMemory {
	m := &models.TranslationMemory{
		ID:         uuid.NewString(),
		Name:       name,
		Kind:       kind,
		SourceLang: "en",
		TargetLang: "es",
		CreatedAt:  time.Now(),
	}
	s.memories[m.ID] = m
	s.entries[m.ID] = make(map[string]models.MemoryEntry)
	return m
}

func (s *fakeStore) mount(projectID, memoryID string, priority int, perm models.MountPermission) {
	m := s.memories[memoryID]
	s.mounts = append(s.mounts, models.MemoryMount{
		ProjectID:  projectID,
		MemoryID:   memoryID,
		Priority:   priority,
		Permission: perm,
		MemoryName: m.Name,
		MemoryKind: m.Kind,
	})
}

// addEntry seeds a memory entry directly, deriving the hash fields from
// the source text and tags signature.
func (s *fakeStore) addEntry(memoryID, sourceText, tagsSignature, targetText string, usageCount int) *models.MemoryEntry {
	source := models.Tokens{models.TextToken(sourceText)}
	matchKey := source.MatchKey()
	e := models.MemoryEntry{
		ID:            uuid.NewString(),
		MemoryID:      memoryID,
		SrcHash:       models.SourceHash(matchKey, tagsSignature),
		MatchKey:      matchKey,
		TagsSignature: tagsSignature,
		SourceTokens:  source,
		TargetTokens:  models.Tokens{models.TextToken(targetText)},
		UsageCount:    usageCount,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	s.entries[memoryID][e.SrcHash] = e
	return &e
}

// fakeTxManager snapshots the store before the unit of work and restores
// it when the work fails, mimicking a rollback.
type fakeTxManager struct {
	store *fakeStore
	execs int
}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	m.execs++
	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type fakeSegmentRepo struct {
	store *fakeStore
}

func (r *fakeSegmentRepo) Create(ctx context.Context, seg *models.Segment) error {
	r.store.segments[seg.ID] = *seg
	return nil
}

func (r *fakeSegmentRepo) GetByID(ctx context.Context, id string) (*models.Segment, error) {
	seg, ok := r.store.segments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &seg, nil
}

func (r *fakeSegmentRepo) UpdateTarget(ctx context.Context, id string, target models.Tokens, status models.SegmentStatus, updatedAt time.Time) error {
	r.store.updateCalls++
	if r.store.failUpdateOn > 0 && r.store.updateCalls == r.store.failUpdateOn {
		return fmt.Errorf("simulated write failure")
	}
	seg, ok := r.store.segments[id]
	if !ok {
		return domain.ErrNotFound
	}
	seg.TargetTokens = target
	seg.Status = status
	seg.UpdatedAt = updatedAt
	r.store.segments[id] = seg
	return nil
}

func (r *fakeSegmentRepo) PropagateTarget(ctx context.Context, projectID, srcHash, excludeID string, target models.Tokens, updatedAt time.Time) ([]string, error) {
	type hit struct {
		id        string
		fileOrder int
		segOrder  int
	}
	var hits []hit
	for id, seg := range r.store.segments {
		if id == excludeID || seg.SrcHash != srcHash || seg.Status == models.StatusConfirmed {
			continue
		}
		file, ok := r.store.files[seg.FileID]
		if !ok || file.ProjectID != projectID {
			continue
		}
		seg.TargetTokens = target
		seg.Status = models.StatusDraft
		seg.UpdatedAt = updatedAt
		r.store.segments[id] = seg
		hits = append(hits, hit{id: id, fileOrder: file.OrderIndex, segOrder: seg.OrderIndex})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].fileOrder != hits[j].fileOrder {
			return hits[i].fileOrder < hits[j].fileOrder
		}
		return hits[i].segOrder < hits[j].segOrder
	})
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.id)
	}
	return ids, nil
}

func (r *fakeSegmentRepo) ListByFile(ctx context.Context, fileID string, offset, limit int) ([]models.Segment, error) {
	var segs []models.Segment
	for _, seg := range r.store.segments {
		if seg.FileID == fileID {
			segs = append(segs, seg)
		}
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].OrderIndex < segs[j].OrderIndex })
	if offset >= len(segs) {
		return []models.Segment{}, nil
	}
	segs = segs[offset:]
	if limit < len(segs) {
		segs = segs[:limit]
	}
	return segs, nil
}

func (r *fakeSegmentRepo) CountByFile(ctx context.Context, fileID string) (int, error) {
	count := 0
	for _, seg := range r.store.segments {
		if seg.FileID == fileID {
			count++
		}
	}
	return count, nil
}

type fakeMemoryRepo struct {
	store *fakeStore
}

func (r *fakeMemoryRepo) CreateMemory(ctx context.Context, tm *models.TranslationMemory) error {
	r.store.memories[tm.ID] = tm
	r.store.entries[tm.ID] = make(map[string]models.MemoryEntry)
	return nil
}

func (r *fakeMemoryRepo) GetMemory(ctx context.Context, id string) (*models.TranslationMemory, error) {
	m, ok := r.store.memories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMemoryRepo) GetWorkingMemory(ctx context.Context, projectID string) (*models.TranslationMemory, error) {
	for _, mount := range r.store.mounts {
		if mount.ProjectID != projectID {
			continue
		}
		if m, ok := r.store.memories[mount.MemoryID]; ok && m.Kind == models.MemoryWorking {
			copied := *m
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeMemoryRepo) CreateMount(ctx context.Context, mount *models.MemoryMount) error {
	r.store.mounts = append(r.store.mounts, *mount)
	return nil
}

func (r *fakeMemoryRepo) ListMounts(ctx context.Context, projectID string) ([]models.MemoryMount, error) {
	var mounts []models.MemoryMount
	for _, m := range r.store.mounts {
		if m.ProjectID == projectID {
			mounts = append(mounts, m)
		}
	}
	sort.Slice(mounts, func(i, j int) bool {
		if mounts[i].Priority != mounts[j].Priority {
			return mounts[i].Priority < mounts[j].Priority
		}
		return mounts[i].MemoryName < mounts[j].MemoryName
	})
	return mounts, nil
}

func (r *fakeMemoryRepo) GetEntryByHash(ctx context.Context, memoryID, srcHash string) (*models.MemoryEntry, error) {
	e, ok := r.store.entries[memoryID][srcHash]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *fakeMemoryRepo) UpsertEntry(ctx context.Context, entry *models.MemoryEntry) error {
	byHash, ok := r.store.entries[entry.MemoryID]
	if !ok {
		byHash = make(map[string]models.MemoryEntry)
		r.store.entries[entry.MemoryID] = byHash
	}
	if existing, ok := byHash[entry.SrcHash]; ok {
		existing.SourceTokens = entry.SourceTokens
		existing.TargetTokens = entry.TargetTokens
		existing.MatchKey = entry.MatchKey
		existing.TagsSignature = entry.TagsSignature
		existing.OriginSegmentID = entry.OriginSegmentID
		existing.UsageCount++
		existing.UpdatedAt = entry.UpdatedAt
		byHash[entry.SrcHash] = existing
		*entry = existing
		return nil
	}
	byHash[entry.SrcHash] = *entry
	return nil
}

func (r *fakeMemoryRepo) SearchCandidates(ctx context.Context, memoryIDs []string, terms []string, limit int) ([]models.MemoryEntry, error) {
	var out []models.MemoryEntry
	for _, memID := range memoryIDs {
		for _, e := range r.store.entries[memID] {
			for _, term := range terms {
				if strings.Contains(e.MatchKey, term) {
					out = append(out, e)
					break
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeCatalogRepo struct {
	store *fakeStore
}

func (r *fakeCatalogRepo) CreateProject(ctx context.Context, p *models.Project) error {
	r.store.projects[p.ID] = p
	return nil
}

func (r *fakeCatalogRepo) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p, ok := r.store.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeCatalogRepo) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	for _, p := range r.store.projects {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCatalogRepo) CreateFile(ctx context.Context, f *models.File) error {
	r.store.files[f.ID] = f
	return nil
}

func (r *fakeCatalogRepo) GetFile(ctx context.Context, id string) (*models.File, error) {
	f, ok := r.store.files[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *f
	return &copied, nil
}

func (r *fakeCatalogRepo) ListFiles(ctx context.Context, projectID string) ([]models.File, error) {
	var out []models.File
	for _, f := range r.store.files {
		if f.ProjectID == projectID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

// recordingSink captures notifications in delivery order.
type recordingSink struct {
	notes []models.SegmentNotification
}

func (s *recordingSink) Notify(ctx context.Context, n *models.SegmentNotification) {
	s.notes = append(s.notes, *n)
}

// testWorld wires the fakes together the way cmd/server wires the real
// implementations.
type testWorld struct {
	store       *fakeStore
	segRepo     *fakeSegmentRepo
	memRepo     *fakeMemoryRepo
	catalogRepo *fakeCatalogRepo
	txManager   *fakeTxManager
	sink        *recordingSink
	logger      *slog.Logger
}

func newTestWorld() *testWorld {
	store := newFakeStore()
	return &testWorld{
		store:       store,
		segRepo:     &fakeSegmentRepo{store: store},
		memRepo:     &fakeMemoryRepo{store: store},
		catalogRepo: &fakeCatalogRepo{store: store},
		txManager:   &fakeTxManager{store: store},
		sink:        &recordingSink{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// workingMemoryID returns the ID of the project's working memory.
func (w *testWorld) workingMemoryID(projectID string) string {
	for _, mount := range w.store.mounts {
		if mount.ProjectID == projectID && mount.MemoryKind == models.MemoryWorking {
			return mount.MemoryID
		}
	}
	return ""
}
