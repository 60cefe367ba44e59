package repositories

import (
	"context"

	"jacc/internal/domain/models"
)

// DocumentRepository defines data access operations for documents
type DocumentRepository interface {
	// Create inserts a placed document
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// GetContent retrieves a document's extracted text content
	GetContent(ctx context.Context, id string) (string, error)

	// ListByFolder lists documents in a folder (nil folderID = unfiled)
	ListByFolder(ctx context.Context, folderID *string) ([]models.Document, error)

	// FindByOriginalFilename returns corpus documents sharing an
	// original filename, used for duplicate warnings
	FindByOriginalFilename(ctx context.Context, filename string) ([]models.Document, error)

	// FindByContentHash returns corpus documents with identical bytes
	FindByContentHash(ctx context.Context, hash string) ([]models.Document, error)

	// UpdatePermissions overwrites the permission set (last-write-wins)
	UpdatePermissions(ctx context.Context, id string, perms models.PermissionSet) error

	// UpdateVectorStatus records the outcome of a vectorization job
	UpdateVectorStatus(ctx context.Context, id string, status models.VectorizationStatus) error

	// UnassignFolder nulls folder_id for all documents in a folder.
	// Folder deletion never cascades to documents.
	UnassignFolder(ctx context.Context, folderID string) error

	// Delete removes a document
	Delete(ctx context.Context, id string) error
}
