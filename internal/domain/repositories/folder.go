package repositories

import (
	"context"

	"jacc/internal/domain/models"
)

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	// Create creates a new folder
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder by ID
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// List lists all folders
	List(ctx context.Context) ([]models.Folder, error)

	// FindByRouteCategory returns folders whose routing metadata
	// matches the category, ordered by descending priority then most
	// recent update. The first entry wins auto-routing.
	FindByRouteCategory(ctx context.Context, category string) ([]models.Folder, error)

	// Delete removes a folder. Documents are unassigned separately,
	// never cascade-deleted.
	Delete(ctx context.Context, id string) error
}
