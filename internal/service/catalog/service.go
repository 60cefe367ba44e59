// Package catalog covers document and folder management outside the
// upload pipeline: listing, permission edits, deletion, and folder
// lifecycle. Permission edits are normalized through the same rules as
// ingestion and pushed through to the vector store's chunk metadata.
package catalog

import (
	"context"
	"log/slog"

	"jacc/internal/corpus"
	"jacc/internal/domain"
	"jacc/internal/domain/models"
	"jacc/internal/domain/repositories"
	"jacc/internal/permissions"
)

// Service manages placed documents and folders
type Service struct {
	docs    repositories.DocumentRepository
	folders repositories.FolderRepository
	index   *corpus.Index
	logger  *slog.Logger
}

// NewService creates the catalog service
func NewService(docs repositories.DocumentRepository, folders repositories.FolderRepository, index *corpus.Index, logger *slog.Logger) *Service {
	return &Service{
		docs:    docs,
		folders: folders,
		index:   index,
		logger:  logger,
	}
}

// GetDocument returns a document by ID
func (s *Service) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.docs.GetByID(ctx, id)
}

// ListDocuments lists documents in a folder; nil means unfiled
func (s *Service) ListDocuments(ctx context.Context, folderID *string) ([]models.Document, error) {
	return s.docs.ListByFolder(ctx, folderID)
}

// UpdatePermissions applies a partial flag update on top of the
// document's current set, resolving conflicts by the normalization
// rules. Concurrent updates are last-write-wins. Vectorized documents
// are refreshed so Tier-2 filtering sees the new flags.
func (s *Service) UpdatePermissions(ctx context.Context, id string, patch models.PermissionPatch) (*models.Document, error) {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doc.Permissions = permissions.Normalize(doc.Permissions, patch)

	if err := s.docs.UpdatePermissions(ctx, id, doc.Permissions); err != nil {
		return nil, err
	}

	if doc.VectorStatus == models.VectorizationVectorized {
		s.index.RefreshDocument(ctx, id)
	}

	s.logger.Info("document permissions updated", "document_id", id)
	return doc, nil
}

// DeleteDocument removes a document and its vector chunks
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.docs.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.index.RemoveDocument(ctx, id); err != nil {
		s.logger.Error("remove document chunks", "document_id", id, "error", err)
	}

	return s.docs.Delete(ctx, id)
}

// CreateFolder creates a folder, optionally nested and carrying
// routing metadata
func (s *Service) CreateFolder(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	if folder.Name == "" {
		return nil, &domain.ValidationError{Message: "folder name is required"}
	}

	if folder.ParentID != nil {
		if _, err := s.folders.GetByID(ctx, *folder.ParentID); err != nil {
			return nil, err
		}
	}

	if err := s.folders.Create(ctx, folder); err != nil {
		return nil, err
	}

	return folder, nil
}

// GetFolder returns a folder by ID
func (s *Service) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	return s.folders.GetByID(ctx, id)
}

// ListFolders lists all folders
func (s *Service) ListFolders(ctx context.Context) ([]models.Folder, error) {
	return s.folders.List(ctx)
}

// DeleteFolder removes a folder. Its documents are unassigned, never
// cascade-deleted.
func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	if _, err := s.folders.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.docs.UnassignFolder(ctx, id); err != nil {
		return err
	}

	return s.folders.Delete(ctx, id)
}
