package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"jacc/internal/config"
	"jacc/internal/domain/models"
	"jacc/internal/repository/postgres"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo data")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}

	log.Println("📝 Seeding demo folders and curated entries...")
	if err := seedDemoData(ctx, repoConfig); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
	log.Println("✅ Seed complete")
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	drops := []string{
		tables.Corrections,
		tables.ChatReviews,
		tables.ChatMessages,
		tables.Chats,
		tables.StagedUploads,
		tables.FAQEntries,
		tables.Documents,
		tables.Folders,
	}
	for _, table := range drops {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
	}
	return nil
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return err
	}

	createFolders := `
		CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			owner_id TEXT NOT NULL DEFAULT '',
			parent_id UUID REFERENCES ` + tables.Folders + `(id) ON DELETE CASCADE,
			route_namespace TEXT NOT NULL DEFAULT '',
			route_category TEXT NOT NULL DEFAULT '',
			priority INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createFolders); err != nil {
		return err
	}

	createDocuments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			original_filename TEXT NOT NULL,
			display_name TEXT NOT NULL,
			folder_id UUID REFERENCES ` + tables.Folders + `(id) ON DELETE SET NULL,
			content_hash TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			mime_type TEXT NOT NULL,
			view_all BOOLEAN NOT NULL DEFAULT TRUE,
			admin_only BOOLEAN NOT NULL DEFAULT FALSE,
			manager_access BOOLEAN NOT NULL DEFAULT TRUE,
			agent_access BOOLEAN NOT NULL DEFAULT TRUE,
			training_data BOOLEAN NOT NULL DEFAULT TRUE,
			auto_vectorize BOOLEAN NOT NULL DEFAULT TRUE,
			vectorization_status TEXT NOT NULL DEFAULT 'pending',
			owner_id TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		return err
	}

	createFAQs := `
		CREATE TABLE IF NOT EXISTS ` + tables.FAQEntries + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			category TEXT NOT NULL,
			tags TEXT[] NOT NULL DEFAULT '{}',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			priority INTEGER NOT NULL DEFAULT 0,
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(question, category)
		)
	`
	if _, err := pool.Exec(ctx, createFAQs); err != nil {
		return err
	}

	createChats := `
		CREATE TABLE IF NOT EXISTS ` + tables.Chats + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createChats); err != nil {
		return err
	}

	createChatMessages := `
		CREATE TABLE IF NOT EXISTS ` + tables.ChatMessages + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			chat_id UUID NOT NULL REFERENCES ` + tables.Chats + `(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createChatMessages); err != nil {
		return err
	}

	createReviews := `
		CREATE TABLE IF NOT EXISTS ` + tables.ChatReviews + ` (
			chat_id UUID PRIMARY KEY REFERENCES ` + tables.Chats + `(id) ON DELETE CASCADE,
			status TEXT NOT NULL DEFAULT 'pending',
			notes TEXT NOT NULL DEFAULT '',
			reviewed_by TEXT NOT NULL DEFAULT '',
			corrections_made INTEGER NOT NULL DEFAULT 0,
			total_messages INTEGER NOT NULL DEFAULT 0,
			last_reviewed_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createReviews); err != nil {
		return err
	}

	createCorrections := `
		CREATE TABLE IF NOT EXISTS ` + tables.Corrections + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			chat_id UUID NOT NULL REFERENCES ` + tables.Chats + `(id) ON DELETE CASCADE,
			message_id UUID NOT NULL REFERENCES ` + tables.ChatMessages + `(id) ON DELETE CASCADE,
			corrected_content TEXT NOT NULL,
			created_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createCorrections); err != nil {
		return err
	}

	createStagedUploads := `
		CREATE TABLE IF NOT EXISTS ` + tables.StagedUploads + ` (
			id UUID PRIMARY KEY,
			original_filename TEXT NOT NULL,
			display_name TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			content_hash TEXT NOT NULL,
			data BYTEA NOT NULL,
			uploaded_by TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createStagedUploads); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_folder ON ` + tables.Documents + `(folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_filename ON ` + tables.Documents + `(original_filename)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_hash ON ` + tables.Documents + `(content_hash)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_folder_name ON ` + tables.Documents + `(folder_id, display_name) WHERE folder_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_route ON ` + tables.Folders + `(route_category, priority DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `faq_active ON ` + tables.FAQEntries + `(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `messages_chat ON ` + tables.ChatMessages + `(chat_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `corrections_chat ON ` + tables.Corrections + `(chat_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `staged_expiry ON ` + tables.StagedUploads + `(expires_at)`,
	}
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx); err != nil {
			return err
		}
	}

	return nil
}

// seedDemoData provisions routing folders and starter curated entries
// for dev environments
func seedDemoData(ctx context.Context, repoConfig *postgres.RepositoryConfig) error {
	folderRepo := postgres.NewFolderRepository(repoConfig)
	faqRepo := postgres.NewFAQRepository(repoConfig)

	existing, err := folderRepo.List(ctx)
	if err != nil {
		return err
	}
	existingNames := make(map[string]bool, len(existing))
	for _, f := range existing {
		existingNames[f.Name] = true
	}

	folders := []models.Folder{
		{Name: "Processor Docs", RouteNamespace: "knowledge", RouteCategory: "processor", Priority: 5},
		{Name: "Sales Collateral", RouteNamespace: "knowledge", RouteCategory: "sales", Priority: 5},
		{Name: "Policies", RouteNamespace: "knowledge", RouteCategory: "policy", Priority: 3},
	}
	for i := range folders {
		if existingNames[folders[i].Name] {
			continue
		}
		if err := folderRepo.Create(ctx, &folders[i]); err != nil {
			return err
		}
	}

	entries := []models.FAQEntry{
		{
			Question: "What are your support hours?",
			Answer:   "Support is available 24/7 through the dispatch line.",
			Category: "general",
			Tags:     []string{"support"},
			IsActive: true,
			Priority: 5,
		},
		{
			Question: "How do I update my payment method?",
			Answer:   "Payment methods are managed in the billing portal under Account Settings.",
			Category: "billing",
			Tags:     []string{"billing"},
			IsActive: true,
			Priority: 5,
		},
	}
	for i := range entries {
		if _, err := faqRepo.Upsert(ctx, &entries[i]); err != nil {
			return err
		}
	}

	return nil
}
