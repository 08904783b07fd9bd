package milvus

import (
	"context"
	"fmt"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/internal/corpus"
	"github.com/parastopwal07/dezerv-backend/internal/embedding"
	"github.com/parastopwal07/dezerv-backend/pkg/logger"
)

// Index is the Milvus-backed implementation of the similarity index. A
// Build drops and recreates the collection; there is no incremental
// insert, matching the rebuild-only contract of the in-memory index.
type Index struct {
	client         client.Client
	embedder       embedding.Embedder
	collectionName string

	mu   sync.RWMutex
	size int
}

func NewIndex(ctx context.Context, endpoint, collectionName string, embedder embedding.Embedder) (*Index, error) {
	c, err := client.NewGrpcClient(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus index initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Index{
		client:         c,
		embedder:       embedder,
		collectionName: collectionName,
	}, nil
}

func (ix *Index) Close() error {
	return ix.client.Close()
}

func (ix *Index) Build(ctx context.Context, entries []corpus.Entry) error {
	has, err := ix.client.HasCollection(ctx, ix.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		if err := ix.client.DropCollection(ctx, ix.collectionName); err != nil {
			return fmt.Errorf("failed to drop collection: %w", err)
		}
	}

	schema := &entity.Schema{
		CollectionName: ix.collectionName,
		Description:    "Financial record corpus embeddings",
		Fields: []*entity.Field{
			{
				Name:       "position",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     false,
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", ix.embedder.Dimension()),
				},
			},
			{
				Name:     "text",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "4096",
				},
			},
		},
	}

	if err := ix.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if len(entries) > 0 {
		positions := make([]int64, len(entries))
		texts := make([]string, len(entries))
		vectors := make([][]float32, len(entries))
		for i, e := range entries {
			positions[i] = int64(e.Position)
			texts[i] = e.Text

			vec, err := ix.embedder.Embed(ctx, e.Text)
			if err != nil {
				return fmt.Errorf("failed to embed corpus entry %d: %w", e.Position, err)
			}
			vectors[i] = vec
		}

		_, err = ix.client.Insert(
			ctx,
			ix.collectionName,
			"",
			entity.NewColumnInt64("position", positions),
			entity.NewColumnFloatVector("embedding", ix.embedder.Dimension(), vectors),
			entity.NewColumnVarChar("text", texts),
		)
		if err != nil {
			return fmt.Errorf("failed to insert corpus: %w", err)
		}

		if err := ix.client.Flush(ctx, ix.collectionName, false); err != nil {
			return fmt.Errorf("failed to flush: %w", err)
		}
	}

	idx, err := entity.NewIndexFlat(entity.L2)
	if err != nil {
		return fmt.Errorf("failed to build index spec: %w", err)
	}
	if err := ix.client.CreateIndex(ctx, ix.collectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := ix.client.LoadCollection(ctx, ix.collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	ix.mu.Lock()
	ix.size = len(entries)
	ix.mu.Unlock()

	logger.Info("Milvus index built", zap.Int("entries", len(entries)))

	return nil
}

func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]corpus.Entry, error) {
	ix.mu.RLock()
	size := ix.size
	ix.mu.RUnlock()

	if size == 0 || k <= 0 {
		return []corpus.Entry{}, nil
	}
	if k > size {
		k = size
	}

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	sp, _ := entity.NewIndexFlatSearchParam()

	searchResult, err := ix.client.Search(
		ctx,
		ix.collectionName,
		[]string{},
		"",
		[]string{"position", "text"},
		[]entity.Vector{entity.FloatVector(queryVec)},
		"embedding",
		entity.L2,
		k,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]corpus.Entry, 0, k)
	for _, sr := range searchResult {
		positionCol := sr.Fields.GetColumn("position")
		textCol := sr.Fields.GetColumn("text")

		for i := 0; i < sr.ResultCount; i++ {
			position, _ := positionCol.Get(i)
			text, _ := textCol.Get(i)

			results = append(results, corpus.Entry{
				Position: int(position.(int64)),
				Text:     text.(string),
			})
		}
	}

	return results, nil
}
