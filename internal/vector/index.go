package vector

import (
	"context"

	"github.com/parastopwal07/dezerv-backend/internal/corpus"
)

// Index is the similarity-search capability. Build replaces the previous
// corpus and vectors atomically from the caller's perspective; Retrieve
// returns at most min(k, corpus size) entries ordered by ascending
// distance to the query, ties broken by corpus position. Retrieval never
// mutates the index, so concurrent reads are safe.
type Index interface {
	Build(ctx context.Context, entries []corpus.Entry) error
	Retrieve(ctx context.Context, query string, k int) ([]corpus.Entry, error)
}
