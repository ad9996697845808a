package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"transmem/internal/config"
	"transmem/internal/repository/postgres"
	"transmem/internal/seed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed the demo project")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: no destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	catalogRepo := postgres.NewCatalogRepository(repoConfig)
	segRepo := postgres.NewSegmentRepository(repoConfig)
	memRepo := postgres.NewMemoryRepository(repoConfig)

	fixture, err := seed.LoadFixture()
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}

	projectID, err := seed.Apply(ctx, fixture, catalogRepo, segRepo, memRepo)
	if err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	log.Printf("Seeding complete (project %s)", projectID)
}

// dropAllTables drops the engine's tables in dependency order
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	ordered := []string{
		tables.MemoryEntries,
		tables.MemoryMounts,
		tables.Memories,
		tables.Segments,
		tables.Files,
		tables.Projects,
	}
	for _, table := range ordered {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				kind VARCHAR(32) NOT NULL,
				source_lang VARCHAR(16) NOT NULL,
				target_lang VARCHAR(16) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`, tables.Projects),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY,
				project_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				order_index INTEGER NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`, tables.Files, tables.Projects),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY,
				file_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				order_index INTEGER NOT NULL,
				source_tokens JSONB NOT NULL,
				target_tokens JSONB,
				status VARCHAR(16) NOT NULL,
				tags_signature TEXT NOT NULL,
				match_key TEXT NOT NULL,
				src_hash CHAR(64) NOT NULL,
				meta JSONB,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`, tables.Segments, tables.Files),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_src_hash_idx ON %s (src_hash)`,
			tables.Segments, tables.Segments),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_file_order_idx ON %s (file_id, order_index)`,
			tables.Segments, tables.Segments),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				kind VARCHAR(16) NOT NULL,
				source_lang VARCHAR(16) NOT NULL,
				target_lang VARCHAR(16) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`, tables.Memories),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				memory_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				priority INTEGER NOT NULL,
				permission VARCHAR(16) NOT NULL,
				PRIMARY KEY (project_id, memory_id)
			)`, tables.MemoryMounts, tables.Projects, tables.Memories),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY,
				memory_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
				src_hash CHAR(64) NOT NULL,
				match_key TEXT NOT NULL,
				tags_signature TEXT NOT NULL,
				source_tokens JSONB NOT NULL,
				target_tokens JSONB NOT NULL,
				usage_count INTEGER NOT NULL DEFAULT 1,
				origin_segment_id UUID,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL,
				search TSVECTOR GENERATED ALWAYS AS (to_tsvector('simple', match_key)) STORED,
				UNIQUE (memory_id, src_hash)
			)`, tables.MemoryEntries, tables.Memories),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_search_idx ON %s USING GIN (search)`,
			tables.MemoryEntries, tables.MemoryEntries),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("run schema statement: %w", err)
		}
	}

	return nil
}
