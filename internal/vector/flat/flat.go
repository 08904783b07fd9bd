package flat

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/internal/corpus"
	"github.com/parastopwal07/dezerv-backend/internal/embedding"
	"github.com/parastopwal07/dezerv-backend/pkg/logger"
)

// Index is a flat in-memory L2 index: one vector per corpus entry,
// brute-force nearest-neighbor search. Build swaps the entry and vector
// slices wholesale under the write lock, so readers see either the old
// or the fully-built new corpus, never a partial one.
type Index struct {
	embedder embedding.Embedder

	mu      sync.RWMutex
	entries []corpus.Entry
	vectors [][]float32
}

func NewIndex(embedder embedding.Embedder) *Index {
	return &Index{embedder: embedder}
}

func (ix *Index) Build(ctx context.Context, entries []corpus.Entry) error {
	vectors := make([][]float32, len(entries))
	for i, entry := range entries {
		vec, err := ix.embedder.Embed(ctx, entry.Text)
		if err != nil {
			return fmt.Errorf("failed to embed corpus entry %d: %w", entry.Position, err)
		}
		vectors[i] = vec
	}

	built := make([]corpus.Entry, len(entries))
	copy(built, entries)

	ix.mu.Lock()
	ix.entries = built
	ix.vectors = vectors
	ix.mu.Unlock()

	logger.Info("Flat index built",
		zap.Int("entries", len(entries)),
		zap.String("embedder", ix.embedder.Name()),
	)

	return nil
}

func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]corpus.Entry, error) {
	ix.mu.RLock()
	entries := ix.entries
	vectors := ix.vectors
	ix.mu.RUnlock()

	if len(entries) == 0 || k <= 0 {
		return []corpus.Entry{}, nil
	}

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	type scored struct {
		idx  int
		dist float64
	}
	scores := make([]scored, len(vectors))
	for i, vec := range vectors {
		scores[i] = scored{idx: i, dist: squaredL2(vec, queryVec)}
	}

	// Stable sort keeps ties in corpus order.
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].dist < scores[j].dist })

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]corpus.Entry, 0, k)
	for i := 0; i < k; i++ {
		results = append(results, entries[scores[i].idx])
	}

	return results, nil
}

func squaredL2(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
