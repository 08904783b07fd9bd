package embedding

import "context"

// Embedder converts text into a fixed-length vector. Implementations must
// be deterministic for the process lifetime: the same text embeds to the
// same vector across calls, and Dimension is constant.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Cache is an optional lookaside store for computed embeddings, keyed by
// a hash of the text.
type Cache interface {
	GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, textHash string, embedding []float32) error
}
