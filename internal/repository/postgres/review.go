package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"jacc/internal/domain"
	"jacc/internal/domain/models"
	"jacc/internal/domain/repositories"
)

// PostgresReviewRepository implements the ReviewRepository interface
type PostgresReviewRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(config *RepositoryConfig) repositories.ReviewRepository {
	return &PostgresReviewRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// UpsertReview writes the single review record for a chat. chat_id is
// the primary key, so re-review overwrites status/notes/snapshots
// while corrections stay untouched in their own table.
func (r *PostgresReviewRepository) UpsertReview(ctx context.Context, review *models.ChatReview) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (chat_id, status, notes, reviewed_by, corrections_made, total_messages, last_reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (chat_id) DO UPDATE
		SET status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			reviewed_by = EXCLUDED.reviewed_by,
			corrections_made = EXCLUDED.corrections_made,
			total_messages = EXCLUDED.total_messages,
			last_reviewed_at = NOW()
		RETURNING last_reviewed_at
	`, r.tables.ChatReviews)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		review.ChatID,
		review.Status,
		review.Notes,
		review.ReviewedBy,
		review.CorrectionsMade,
		review.TotalMessages,
	).Scan(&review.LastReviewedAt)

	if err != nil {
		return fmt.Errorf("upsert chat review: %w: %v", domain.ErrStorage, err)
	}

	return nil
}

// GetReview retrieves a chat's review record
func (r *PostgresReviewRepository) GetReview(ctx context.Context, chatID string) (*models.ChatReview, error) {
	query := fmt.Sprintf(`
		SELECT chat_id, status, notes, reviewed_by, corrections_made, total_messages, last_reviewed_at
		FROM %s WHERE chat_id = $1
	`, r.tables.ChatReviews)

	var review models.ChatReview
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, chatID).Scan(
		&review.ChatID,
		&review.Status,
		&review.Notes,
		&review.ReviewedBy,
		&review.CorrectionsMade,
		&review.TotalMessages,
		&review.LastReviewedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("review for chat %s: %w", chatID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get chat review: %w", err)
	}

	return &review, nil
}

// AddCorrection appends a message correction
func (r *PostgresReviewRepository) AddCorrection(ctx context.Context, correction *models.MessageCorrection) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (chat_id, message_id, corrected_content, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.Corrections)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		correction.ChatID,
		correction.MessageID,
		correction.CorrectedContent,
		correction.CreatedBy,
	).Scan(&correction.ID, &correction.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("chat %s: %w", correction.ChatID, domain.ErrNotFound)
		}
		return fmt.Errorf("add correction: %w: %v", domain.ErrStorage, err)
	}

	return nil
}

// GetCorrection retrieves a correction by ID
func (r *PostgresReviewRepository) GetCorrection(ctx context.Context, id string) (*models.MessageCorrection, error) {
	query := fmt.Sprintf(`
		SELECT id, chat_id, message_id, corrected_content, created_by, created_at
		FROM %s WHERE id = $1
	`, r.tables.Corrections)

	var correction models.MessageCorrection
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&correction.ID,
		&correction.ChatID,
		&correction.MessageID,
		&correction.CorrectedContent,
		&correction.CreatedBy,
		&correction.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("correction %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get correction: %w", err)
	}

	return &correction, nil
}

// CountCorrections counts corrections for a chat
func (r *PostgresReviewRepository) CountCorrections(ctx context.Context, chatID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE chat_id = $1`, r.tables.Corrections)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, chatID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count corrections: %w", err)
	}

	return count, nil
}

// Stats aggregates review counts by status plus total corrections.
// These are read-only projections computed on demand, never
// separately maintained state.
func (r *PostgresReviewRepository) Stats(ctx context.Context) (*models.ReviewStats, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'needs_correction'),
			(SELECT COUNT(*) FROM %s)
		FROM %s
	`, r.tables.Corrections, r.tables.ChatReviews)

	var stats models.ReviewStats
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query).Scan(
		&stats.Pending,
		&stats.Approved,
		&stats.NeedsCorrection,
		&stats.TotalCorrections,
	)
	if err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}

	return &stats, nil
}
