package repositories

import (
	"context"

	"jacc/internal/domain/models"
)

// FAQRepository defines data access operations for curated Q&A entries
type FAQRepository interface {
	// Upsert inserts or updates an entry keyed by (question, category).
	// A second call with the same key updates the answer in place and
	// reports created=false.
	Upsert(ctx context.Context, entry *models.FAQEntry) (created bool, err error)

	// GetByID retrieves an entry by ID
	GetByID(ctx context.Context, id string) (*models.FAQEntry, error)

	// ListActive lists all active entries (for index rebuilds)
	ListActive(ctx context.Context) ([]models.FAQEntry, error)

	// SetActive toggles an entry's active flag
	SetActive(ctx context.Context, id string, active bool) error
}
