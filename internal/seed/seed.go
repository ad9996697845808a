package seed

import (
	"context"
	"fmt"
	"time"

	_ "embed"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"transmem/internal/domain/models"
	"transmem/internal/domain/repositories"
)

//go:embed fixture.yaml
var fixtureYAML []byte

// Fixture is the YAML shape of the demo dataset.
type Fixture struct {
	Project struct {
		Name       string `yaml:"name"`
		Kind       string `yaml:"kind"`
		SourceLang string `yaml:"source_lang"`
		TargetLang string `yaml:"target_lang"`
	} `yaml:"project"`
	Files []struct {
		Name     string `yaml:"name"`
		Segments []struct {
			Source  string `yaml:"source"`
			Context string `yaml:"context"`
		} `yaml:"segments"`
	} `yaml:"files"`
	MainMemory struct {
		Name    string `yaml:"name"`
		Entries []struct {
			Source string `yaml:"source"`
			Target string `yaml:"target"`
		} `yaml:"entries"`
	} `yaml:"main_memory"`
}

// LoadFixture parses the embedded demo dataset.
func LoadFixture() (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(fixtureYAML, &f); err != nil {
		return nil, fmt.Errorf("unmarshal fixture: %w", err)
	}
	return &f, nil
}

// Apply writes the fixture into the stores: one project with its
// auto-created working memory, one mounted main memory, files and
// segments. Idempotency is not a goal here; run it against a clean
// schema.
func Apply(
	ctx context.Context,
	fixture *Fixture,
	catalogRepo repositories.CatalogRepository,
	segRepo repositories.SegmentRepository,
	memRepo repositories.MemoryRepository,
) (projectID string, err error) {
	now := time.Now()

	project := &models.Project{
		ID:         uuid.NewString(),
		Name:       fixture.Project.Name,
		Kind:       models.ProjectKind(fixture.Project.Kind),
		SourceLang: fixture.Project.SourceLang,
		TargetLang: fixture.Project.TargetLang,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := catalogRepo.CreateProject(ctx, project); err != nil {
		return "", err
	}

	// Every project owns exactly one working memory, mounted readwrite
	// at priority 0.
	working := &models.TranslationMemory{
		ID:         uuid.NewString(),
		Name:       project.Name + " (working)",
		Kind:       models.MemoryWorking,
		SourceLang: project.SourceLang,
		TargetLang: project.TargetLang,
		CreatedAt:  now,
	}
	if err := memRepo.CreateMemory(ctx, working); err != nil {
		return "", err
	}
	if err := memRepo.CreateMount(ctx, &models.MemoryMount{
		ProjectID:  project.ID,
		MemoryID:   working.ID,
		Priority:   0,
		Permission: models.PermissionReadWrite,
	}); err != nil {
		return "", err
	}

	for i, file := range fixture.Files {
		f := &models.File{
			ID:         uuid.NewString(),
			ProjectID:  project.ID,
			Name:       file.Name,
			OrderIndex: i,
			CreatedAt:  now,
		}
		if err := catalogRepo.CreateFile(ctx, f); err != nil {
			return "", err
		}

		for j, raw := range file.Segments {
			seg := models.NewSegment(f.ID, j, models.Tokens{models.TextToken(raw.Source)})
			if raw.Context != "" {
				seg.Meta = map[string]interface{}{"context": raw.Context}
			}
			if err := segRepo.Create(ctx, seg); err != nil {
				return "", err
			}
		}
	}

	if fixture.MainMemory.Name != "" {
		main := &models.TranslationMemory{
			ID:         uuid.NewString(),
			Name:       fixture.MainMemory.Name,
			Kind:       models.MemoryMain,
			SourceLang: project.SourceLang,
			TargetLang: project.TargetLang,
			CreatedAt:  now,
		}
		if err := memRepo.CreateMemory(ctx, main); err != nil {
			return "", err
		}
		if err := memRepo.CreateMount(ctx, &models.MemoryMount{
			ProjectID:  project.ID,
			MemoryID:   main.ID,
			Priority:   1,
			Permission: models.PermissionRead,
		}); err != nil {
			return "", err
		}

		for _, raw := range fixture.MainMemory.Entries {
			source := models.Tokens{models.TextToken(raw.Source)}
			target := models.Tokens{models.TextToken(raw.Target)}
			entry := &models.MemoryEntry{
				ID:            uuid.NewString(),
				MemoryID:      main.ID,
				SrcHash:       source.SourceHash(),
				MatchKey:      source.MatchKey(),
				TagsSignature: source.TagsSignature(),
				SourceTokens:  source,
				TargetTokens:  target,
				UsageCount:    1,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := memRepo.UpsertEntry(ctx, entry); err != nil {
				return "", err
			}
		}
	}

	return project.ID, nil
}
