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

const documentColumns = `id, original_filename, display_name, folder_id, content_hash,
		size_bytes, mime_type, view_all, admin_only, manager_access, agent_access,
		training_data, auto_vectorize, vectorization_status, owner_id, created_at, updated_at`

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a placed document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (original_filename, display_name, folder_id, content_hash,
			size_bytes, mime_type, view_all, admin_only, manager_access, agent_access,
			training_data, auto_vectorize, vectorization_status, owner_id, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.OriginalFilename,
		doc.DisplayName,
		doc.FolderID,
		doc.ContentHash,
		doc.SizeBytes,
		doc.MimeType,
		doc.Permissions.ViewAll,
		doc.Permissions.AdminOnly,
		doc.Permissions.ManagerAccess,
		doc.Permissions.AgentAccess,
		doc.Permissions.TrainingData,
		doc.Permissions.AutoVectorize,
		doc.VectorStatus,
		doc.OwnerID,
		doc.Content,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("document '%s' already exists in this folder", doc.DisplayName),
				ResourceType: "document",
			}
		}
		return fmt.Errorf("create document: %w: %v", domain.ErrStorage, err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// GetContent retrieves a document's extracted text content
func (r *PostgresDocumentRepository) GetContent(ctx context.Context, id string) (string, error) {
	query := fmt.Sprintf(`SELECT content FROM %s WHERE id = $1`, r.tables.Documents)

	var content string
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&content); err != nil {
		if IsPgNoRowsError(err) {
			return "", fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get document content: %w", err)
	}

	return content, nil
}

// ListByFolder lists documents in a folder (nil folderID = unfiled)
func (r *PostgresDocumentRepository) ListByFolder(ctx context.Context, folderID *string) ([]models.Document, error) {
	var query string
	var args []interface{}

	if folderID != nil {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE folder_id = $1 ORDER BY display_name`,
			documentColumns, r.tables.Documents)
		args = []interface{}{*folderID}
	} else {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE folder_id IS NULL ORDER BY display_name`,
			documentColumns, r.tables.Documents)
	}

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// FindByOriginalFilename returns corpus documents sharing an original filename
func (r *PostgresDocumentRepository) FindByOriginalFilename(ctx context.Context, filename string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE original_filename = $1`,
		documentColumns, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, filename)
	if err != nil {
		return nil, fmt.Errorf("find documents by filename: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// FindByContentHash returns corpus documents with identical bytes
func (r *PostgresDocumentRepository) FindByContentHash(ctx context.Context, hash string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE content_hash = $1`,
		documentColumns, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, hash)
	if err != nil {
		return nil, fmt.Errorf("find documents by hash: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// UpdatePermissions overwrites the permission set (last-write-wins)
func (r *PostgresDocumentRepository) UpdatePermissions(ctx context.Context, id string, perms models.PermissionSet) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET view_all = $2, admin_only = $3, manager_access = $4, agent_access = $5,
			training_data = $6, auto_vectorize = $7, updated_at = NOW()
		WHERE id = $1
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id,
		perms.ViewAll, perms.AdminOnly, perms.ManagerAccess,
		perms.AgentAccess, perms.TrainingData, perms.AutoVectorize)
	if err != nil {
		return fmt.Errorf("update permissions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UpdateVectorStatus records the outcome of a vectorization job
func (r *PostgresDocumentRepository) UpdateVectorStatus(ctx context.Context, id string, status models.VectorizationStatus) error {
	query := fmt.Sprintf(`
		UPDATE %s SET vectorization_status = $2, updated_at = NOW() WHERE id = $1
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update vectorization status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// UnassignFolder nulls folder_id for all documents in a folder
func (r *PostgresDocumentRepository) UnassignFolder(ctx context.Context, folderID string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET folder_id = NULL, updated_at = NOW() WHERE folder_id = $1
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, folderID); err != nil {
		return fmt.Errorf("unassign folder documents: %w", err)
	}

	return nil
}

// Delete removes a document
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID,
		&doc.OriginalFilename,
		&doc.DisplayName,
		&doc.FolderID,
		&doc.ContentHash,
		&doc.SizeBytes,
		&doc.MimeType,
		&doc.Permissions.ViewAll,
		&doc.Permissions.AdminOnly,
		&doc.Permissions.ManagerAccess,
		&doc.Permissions.AgentAccess,
		&doc.Permissions.TrainingData,
		&doc.Permissions.AutoVectorize,
		&doc.VectorStatus,
		&doc.OwnerID,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func scanDocuments(rows pgx.Rows) ([]models.Document, error) {
	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
