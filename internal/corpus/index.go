// Package corpus maintains the two searchable knowledge surfaces:
// a lexical index of curated Q&A entries and a vector store of
// permission-tagged document chunks. Role-based filtering happens
// inside the vector store, so no caller sees a chunk its role is
// excluded from.
package corpus

import (
	"context"
	"fmt"
	"log/slog"

	"jacc/internal/domain/models"
	"jacc/internal/domain/repositories"
)

// Index is the facade the retrieval cascade and the knowledge
// endpoints talk to. It keeps the Bleve curated index and the chromem
// vector store consistent with their Postgres rows.
type Index struct {
	curated    *CuratedIndex
	vectors    *VectorStore
	faqs       repositories.FAQRepository
	vectorizer *Vectorizer
	logger     *slog.Logger
}

// NewIndex assembles the corpus facade
func NewIndex(curated *CuratedIndex, vectors *VectorStore, faqs repositories.FAQRepository, vectorizer *Vectorizer, logger *slog.Logger) *Index {
	return &Index{
		curated:    curated,
		vectors:    vectors,
		faqs:       faqs,
		vectorizer: vectorizer,
		logger:     logger,
	}
}

// Warm rebuilds the curated index from the active entry set. Called at
// startup so the lexical index reflects the database after restarts.
func (ix *Index) Warm(ctx context.Context) error {
	entries, err := ix.faqs.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active curated entries: %w", err)
	}

	if err := ix.curated.Rebuild(entries); err != nil {
		return fmt.Errorf("rebuild curated index: %w", err)
	}

	ix.logger.Info("curated index warmed", "entries", len(entries))
	return nil
}

// QueryCurated matches active curated entries by lexical relevance
func (ix *Index) QueryCurated(_ context.Context, text string, limit int) ([]CuratedMatch, error) {
	return ix.curated.Query(text, limit)
}

// QueryDocuments returns role-visible document chunks similar to text.
// Results feed answer synthesis, so only chunks whose document is
// marked eligible for AI context (trainingData) are returned.
func (ix *Index) QueryDocuments(ctx context.Context, text string, k int, role models.Role) ([]ChunkMatch, error) {
	return ix.vectors.Query(ctx, text, k, role, true)
}

// UpsertCurated writes a curated entry through to Postgres and the
// lexical index. The same (question, category) pair updates in place,
// so promotion of an already-promoted correction is a no-op create.
func (ix *Index) UpsertCurated(ctx context.Context, entry *models.FAQEntry) (created bool, err error) {
	created, err = ix.faqs.Upsert(ctx, entry)
	if err != nil {
		return false, err
	}

	if entry.IsActive {
		if err := ix.curated.IndexEntry(entry); err != nil {
			return created, fmt.Errorf("index curated entry: %w", err)
		}
	} else {
		if err := ix.curated.Remove(entry.ID); err != nil {
			return created, fmt.Errorf("remove curated entry: %w", err)
		}
	}

	return created, nil
}

// SetCuratedActive toggles an entry and keeps the index in step
func (ix *Index) SetCuratedActive(ctx context.Context, id string, active bool) error {
	if err := ix.faqs.SetActive(ctx, id, active); err != nil {
		return err
	}

	if active {
		entry, err := ix.faqs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return ix.curated.IndexEntry(entry)
	}

	return ix.curated.Remove(id)
}

// EnqueueVectorize schedules a placed document for background
// embedding. Documents placed with autoVectorize=false are not
// enqueued and keep their pending status.
func (ix *Index) EnqueueVectorize(docID string) bool {
	return ix.vectorizer.Enqueue(docID)
}

// RemoveDocument drops a deleted document's chunks from the store
func (ix *Index) RemoveDocument(ctx context.Context, docID string) error {
	return ix.vectors.DeleteDocument(ctx, docID)
}

// RefreshDocument re-embeds a document after a permission edit so the
// chunk metadata the in-store filter reads matches the new flags.
func (ix *Index) RefreshDocument(ctx context.Context, docID string) {
	ix.vectorizer.ProcessNow(ctx, docID)
}
