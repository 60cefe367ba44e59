package corpus

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"jacc/internal/domain"
	"jacc/internal/domain/models"
	"jacc/internal/domain/repositories"
)

// Vectorizer runs embedding jobs off the request path. Placement
// enqueues a document ID and returns; the worker loads the extracted
// text, chunks it, embeds the chunks, and records the outcome on the
// document row. A failed job marks the document failed rather than
// surfacing to the uploader.
type Vectorizer struct {
	docs   repositories.DocumentRepository
	store  *VectorStore
	logger *slog.Logger

	jobs chan string
	wg   sync.WaitGroup

	// mu guards closed so a late Enqueue during shutdown cannot send
	// on the closed channel
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewVectorizer creates a vectorizer with a bounded job queue
func NewVectorizer(docs repositories.DocumentRepository, store *VectorStore, logger *slog.Logger) *Vectorizer {
	return &Vectorizer{
		docs:   docs,
		store:  store,
		logger: logger,
		jobs:   make(chan string, 256),
	}
}

// Start launches the worker loop. ctx cancellation drains the queue.
func (v *Vectorizer) Start(ctx context.Context) {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case docID, ok := <-v.jobs:
				if !ok {
					return
				}
				v.process(ctx, docID)
			}
		}
	}()
}

// Stop closes the queue and waits for in-flight jobs
func (v *Vectorizer) Stop() {
	v.closeOnce.Do(func() {
		v.mu.Lock()
		v.closed = true
		close(v.jobs)
		v.mu.Unlock()
	})
	v.wg.Wait()
}

// Enqueue schedules a document for vectorization. Returns false when
// the queue is full or shutting down; the document stays pending and
// can be retried.
func (v *Vectorizer) Enqueue(docID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		v.logger.Warn("vectorizer stopped, document left pending", "document_id", docID)
		return false
	}

	select {
	case v.jobs <- docID:
		return true
	default:
		v.logger.Warn("vectorization queue full, document left pending", "document_id", docID)
		return false
	}
}

// ProcessNow runs a single job synchronously, bypassing the queue.
// Used by tests and by re-vectorization after permission edits.
func (v *Vectorizer) ProcessNow(ctx context.Context, docID string) {
	v.process(ctx, docID)
}

func (v *Vectorizer) process(ctx context.Context, docID string) {
	doc, err := v.docs.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Deleted between enqueue and processing
			return
		}
		v.logger.Error("load document for vectorization", "document_id", docID, "error", err)
		return
	}

	content, err := v.docs.GetContent(ctx, docID)
	if err != nil {
		v.logger.Error("load document content", "document_id", docID, "error", err)
		v.setStatus(ctx, docID, models.VectorizationFailed)
		return
	}

	if strings.TrimSpace(content) == "" {
		// Nothing extractable (e.g. image without OCR text)
		v.setStatus(ctx, docID, models.VectorizationSkipped)
		return
	}

	chunks := ChunkText(content, DefaultChunkSize)

	if err := v.store.AddDocumentChunks(ctx, doc, chunks); err != nil {
		v.logger.Error("vectorize document", "document_id", docID, "error", err)
		v.setStatus(ctx, docID, models.VectorizationFailed)
		return
	}

	v.setStatus(ctx, docID, models.VectorizationVectorized)
}

func (v *Vectorizer) setStatus(ctx context.Context, docID string, status models.VectorizationStatus) {
	if err := v.docs.UpdateVectorStatus(ctx, docID, status); err != nil {
		v.logger.Error("update vectorization status",
			"document_id", docID,
			"status", status,
			"error", err,
		)
	}
}
