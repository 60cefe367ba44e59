package repositories

import (
	"context"
	"time"

	"jacc/internal/domain/models"
)

// StagingRepository holds uploads between the stage and place requests
type StagingRepository interface {
	// Create persists a staged upload with its expiry
	Create(ctx context.Context, staged *models.StagedUpload) error

	// GetUnexpired retrieves a staged upload by ticket if still live.
	// Expired or consumed tickets return domain.ErrStagingExpired.
	GetUnexpired(ctx context.Context, id string, now time.Time) (*models.StagedUpload, error)

	// Delete removes consumed staging rows
	Delete(ctx context.Context, ids []string) error

	// DeleteExpired reclaims rows past expiry, returning how many were
	// swept. Called from an external scheduler, not by the pipeline.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
