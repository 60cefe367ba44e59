package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jacc/internal/domain"
	"jacc/internal/domain/models"
	"jacc/internal/domain/repositories"
)

const faqColumns = `id, question, answer, category, tags, is_active, priority,
		created_by, created_at, updated_at`

// PostgresFAQRepository implements the FAQRepository interface
type PostgresFAQRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewFAQRepository creates a new curated Q&A repository
func NewFAQRepository(config *RepositoryConfig) repositories.FAQRepository {
	return &PostgresFAQRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Upsert inserts or updates an entry keyed by (question, category).
// The unique index on (question, category) makes retried promotions
// safe: the second call updates the answer instead of duplicating.
func (r *PostgresFAQRepository) Upsert(ctx context.Context, entry *models.FAQEntry) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (question, answer, category, tags, is_active, priority, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (question, category) DO UPDATE
		SET answer = EXCLUDED.answer,
			tags = EXCLUDED.tags,
			is_active = EXCLUDED.is_active,
			priority = EXCLUDED.priority,
			updated_at = NOW()
		RETURNING id, created_at, updated_at, (created_at = updated_at) AS inserted
	`, r.tables.FAQEntries)

	var inserted bool
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		entry.Question,
		entry.Answer,
		entry.Category,
		entry.Tags,
		entry.IsActive,
		entry.Priority,
		entry.CreatedBy,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt, &inserted)

	if err != nil {
		return false, fmt.Errorf("upsert faq entry: %w: %v", domain.ErrStorage, err)
	}

	return inserted, nil
}

// GetByID retrieves an entry by ID
func (r *PostgresFAQRepository) GetByID(ctx context.Context, id string) (*models.FAQEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, faqColumns, r.tables.FAQEntries)

	executor := GetExecutor(ctx, r.pool)
	entry, err := scanFAQEntry(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("faq entry %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get faq entry: %w", err)
	}

	return entry, nil
}

// ListActive lists all active entries for index rebuilds
func (r *PostgresFAQRepository) ListActive(ctx context.Context) ([]models.FAQEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE is_active = TRUE ORDER BY priority DESC, updated_at DESC
	`, faqColumns, r.tables.FAQEntries)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active faq entries: %w", err)
	}
	defer rows.Close()

	var entries []models.FAQEntry
	for rows.Next() {
		entry, err := scanFAQEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan faq entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faq entries: %w", err)
	}

	return entries, nil
}

// SetActive toggles an entry's active flag
func (r *PostgresFAQRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := fmt.Sprintf(`
		UPDATE %s SET is_active = $2, updated_at = NOW() WHERE id = $1
	`, r.tables.FAQEntries)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("set faq active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("faq entry %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func scanFAQEntry(row pgx.Row) (*models.FAQEntry, error) {
	var entry models.FAQEntry
	err := row.Scan(
		&entry.ID,
		&entry.Question,
		&entry.Answer,
		&entry.Category,
		&entry.Tags,
		&entry.IsActive,
		&entry.Priority,
		&entry.CreatedBy,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
