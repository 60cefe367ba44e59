package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"jacc/internal/domain"
	"jacc/internal/domain/models"
	"jacc/internal/domain/repositories"
)

// PostgresStagingRepository implements the StagingRepository interface
type PostgresStagingRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewStagingRepository creates a new staging repository
func NewStagingRepository(config *RepositoryConfig) repositories.StagingRepository {
	return &PostgresStagingRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create persists a staged upload with its expiry
func (r *PostgresStagingRepository) Create(ctx context.Context, staged *models.StagedUpload) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, original_filename, display_name, mime_type, size_bytes,
			content_hash, data, uploaded_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, r.tables.StagedUploads)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		staged.ID,
		staged.OriginalFilename,
		staged.DisplayName,
		staged.MimeType,
		staged.SizeBytes,
		staged.ContentHash,
		staged.Data,
		staged.UploadedBy,
		staged.ExpiresAt,
	).Scan(&staged.CreatedAt)

	if err != nil {
		return fmt.Errorf("stage upload: %w: %v", domain.ErrStorage, err)
	}

	return nil
}

// GetUnexpired retrieves a staged upload by ticket if still live
func (r *PostgresStagingRepository) GetUnexpired(ctx context.Context, id string, now time.Time) (*models.StagedUpload, error) {
	query := fmt.Sprintf(`
		SELECT id, original_filename, display_name, mime_type, size_bytes,
			content_hash, data, uploaded_by, expires_at, created_at
		FROM %s WHERE id = $1 AND expires_at > $2
	`, r.tables.StagedUploads)

	var staged models.StagedUpload
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, now).Scan(
		&staged.ID,
		&staged.OriginalFilename,
		&staged.DisplayName,
		&staged.MimeType,
		&staged.SizeBytes,
		&staged.ContentHash,
		&staged.Data,
		&staged.UploadedBy,
		&staged.ExpiresAt,
		&staged.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("staging ticket %s: %w", id, domain.ErrStagingExpired)
		}
		return nil, fmt.Errorf("get staged upload: %w", err)
	}

	return &staged, nil
}

// Delete removes consumed staging rows
func (r *PostgresStagingRepository) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.StagedUploads)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("delete staged uploads: %w", err)
	}

	return nil
}

// DeleteExpired reclaims rows past expiry
func (r *PostgresStagingRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= $1`, r.tables.StagedUploads)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("sweep staged uploads: %w", err)
	}

	swept := tag.RowsAffected()
	if swept > 0 {
		r.logger.Info("swept expired staged uploads", "count", swept)
	}

	return swept, nil
}
