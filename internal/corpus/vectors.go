package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"jacc/internal/domain/models"
	"jacc/internal/embeddings"
	"jacc/internal/permissions"
)

const chunkCollection = "document_chunks"

// VectorStore holds vectorized document chunks in an embedded
// chromem-go database. Permission flags ride along as chunk metadata
// and are enforced here, inside the index: a caller cannot receive a
// chunk its role is not allowed to see, even as the top match.
type VectorStore struct {
	db       *chromem.DB
	embedder embeddings.Client
	logger   *slog.Logger
}

// ChunkMatch is a permission-filtered similarity hit
type ChunkMatch struct {
	DocumentID  string
	DisplayName string
	Content     string
	Similarity  float32
}

// NewVectorStore opens a persistent vector store rooted at dir
func NewVectorStore(dir string, embedder embeddings.Client, logger *slog.Logger) (*VectorStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create vector store directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	return &VectorStore{db: db, embedder: embedder, logger: logger}, nil
}

// NewMemVectorStore creates an in-memory vector store (tests, dev)
func NewMemVectorStore(embedder embeddings.Client, logger *slog.Logger) *VectorStore {
	return &VectorStore{db: chromem.NewDB(), embedder: embedder, logger: logger}
}

// embeddingFunc adapts the embeddings client for chromem
func (s *VectorStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.Embed(ctx, text)
	}
}

func (s *VectorStore) collection() (*chromem.Collection, error) {
	collection, err := s.db.GetOrCreateCollection(chunkCollection, nil, s.embeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("get chunk collection: %w", err)
	}
	return collection, nil
}

// AddDocumentChunks embeds and stores a placed document's chunks with
// its permission flags as metadata. Re-vectorizing a document replaces
// its previous chunks.
func (s *VectorStore) AddDocumentChunks(ctx context.Context, doc *models.Document, chunks []string) error {
	if len(chunks) == 0 {
		return fmt.Errorf("document %s has no chunks", doc.ID)
	}

	collection, err := s.collection()
	if err != nil {
		return err
	}

	// Drop stale chunks from a previous vectorization pass
	if err := s.DeleteDocument(ctx, doc.ID); err != nil {
		return err
	}

	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	metadata := map[string]string{
		"document_id":    doc.ID,
		"display_name":   doc.DisplayName,
		"view_all":       strconv.FormatBool(doc.Permissions.ViewAll),
		"admin_only":     strconv.FormatBool(doc.Permissions.AdminOnly),
		"manager_access": strconv.FormatBool(doc.Permissions.ManagerAccess),
		"agent_access":   strconv.FormatBool(doc.Permissions.AgentAccess),
		"training_data":  strconv.FormatBool(doc.Permissions.TrainingData),
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("%s_%d", doc.ID, i),
			Content:   chunk,
			Metadata:  metadata,
			Embedding: vectors[i],
		}
	}

	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add chunks: %w", err)
	}

	s.logger.Debug("document vectorized",
		"document_id", doc.ID,
		"chunks", len(chunks),
	)

	return nil
}

// DeleteDocument removes all chunks belonging to a document
func (s *VectorStore) DeleteDocument(ctx context.Context, documentID string) error {
	collection, err := s.collection()
	if err != nil {
		return err
	}

	if collection.Count() == 0 {
		return nil
	}

	if err := collection.Delete(ctx, map[string]string{"document_id": documentID}, nil); err != nil {
		return fmt.Errorf("delete document chunks: %w", err)
	}

	return nil
}

// UpdateDocumentPermissions rewrites the permission metadata a
// document's chunks carry so later permission edits take effect in
// Tier-2 filtering without re-embedding.
func (s *VectorStore) UpdateDocumentPermissions(ctx context.Context, doc *models.Document, chunks []string) error {
	// chromem metadata is immutable per document; replace the chunks
	return s.AddDocumentChunks(ctx, doc, chunks)
}

// Query returns up to k chunks similar to text that the role may read.
// trainingOnly additionally requires the training_data flag, used when
// results feed AI context rather than direct display.
//
// chromem's where filter only expresses equality conjunctions, so the
// role gate (an OR across view_all and the tier flag) is applied here
// before results leave the store. Excluded chunks are filtered before
// the k cut, never after a caller sees them.
func (s *VectorStore) Query(ctx context.Context, text string, k int, role models.Role, trainingOnly bool) ([]ChunkMatch, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	collection, err := s.collection()
	if err != nil {
		return nil, err
	}

	total := collection.Count()
	if total == 0 {
		return []ChunkMatch{}, nil
	}

	// Over-fetch so permission filtering still leaves k candidates
	fetch := k * 4
	if fetch > total {
		fetch = total
	}

	results, err := collection.Query(ctx, text, fetch, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}

	matches := make([]ChunkMatch, 0, k)
	for _, r := range results {
		perms := permissionsFromMetadata(r.Metadata)
		if !permissions.AllowsRole(perms, role) {
			continue
		}
		if trainingOnly && !perms.TrainingData {
			continue
		}

		matches = append(matches, ChunkMatch{
			DocumentID:  r.Metadata["document_id"],
			DisplayName: r.Metadata["display_name"],
			Content:     r.Content,
			Similarity:  r.Similarity,
		})

		if len(matches) == k {
			break
		}
	}

	return matches, nil
}

func permissionsFromMetadata(metadata map[string]string) models.PermissionSet {
	parse := func(key string) bool {
		v, _ := strconv.ParseBool(metadata[key])
		return v
	}

	return models.PermissionSet{
		ViewAll:       parse("view_all"),
		AdminOnly:     parse("admin_only"),
		ManagerAccess: parse("manager_access"),
		AgentAccess:   parse("agent_access"),
		TrainingData:  parse("training_data"),
	}
}
