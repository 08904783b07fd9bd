package embedding

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/pkg/circuitbreaker"
	"github.com/parastopwal07/dezerv-backend/pkg/logger"
	"github.com/parastopwal07/dezerv-backend/pkg/retry"
	"github.com/parastopwal07/dezerv-backend/pkg/utils"
)

// OpenAIEmbedder embeds text through the OpenAI embeddings API, guarded
// by a circuit breaker and bounded retries. The API is deterministic for
// a fixed model, which satisfies the same-text-same-vector contract.
type OpenAIEmbedder struct {
	client      *openai.Client
	model       string
	dimension   int
	cache       Cache
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewOpenAIEmbedder(apiKey, model string, dimension int, cache Cache) *OpenAIEmbedder {
	cb := circuitbreaker.NewCircuitBreaker("embedding", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("OpenAI embedder initialized",
		zap.String("model", model),
		zap.Int("dimension", dimension),
	)

	return &OpenAIEmbedder{
		client:      openai.NewClient(apiKey),
		model:       model,
		dimension:   dimension,
		cache:       cache,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

func (e *OpenAIEmbedder) Name() string { return "openai" }

func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	textHash := utils.HashString(text)

	if e.cache != nil {
		if cached, ok, err := e.cache.GetEmbedding(ctx, textHash); err == nil && ok {
			return cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var embedding []float32

	err := e.cb.Execute(ctx, func() error {
		return retry.Do(ctx, e.retryConfig, func() error {
			resp, err := e.client.CreateEmbeddings(
				ctx,
				openai.EmbeddingRequest{
					Input: []string{text},
					Model: openai.EmbeddingModel(e.model),
				},
			)
			if err != nil {
				return fmt.Errorf("failed to generate embedding: %w", err)
			}

			embedding = make([]float32, len(resp.Data[0].Embedding))
			copy(embedding, resp.Data[0].Embedding)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.SetEmbedding(ctx, textHash, embedding); err != nil {
			logger.Warn("Failed to cache embedding", zap.Error(err))
		}
	}

	return embedding, nil
}
