// Package embeddings turns extracted document text into vectors. The
// pipeline treats the embedder as an opaque collaborator behind this
// interface.
package embeddings

import (
	"context"
)

// Client generates embeddings for text.
type Client interface {
	// Embed generates an embedding for a single text string
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple text strings in a
	// single request
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Health checks the embedding service is reachable and the model
	// is loaded
	Health(ctx context.Context) error
}
