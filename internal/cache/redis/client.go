package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/internal/assessment"
	"github.com/parastopwal07/dezerv-backend/pkg/logger"
)

const (
	assessmentTTL = 10 * time.Minute
	embeddingTTL  = 24 * time.Hour
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetAssessment(ctx context.Context, queryHash string, result assessment.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}

	if err := c.client.Set(ctx, fmt.Sprintf("assessment:%s", queryHash), data, assessmentTTL).Err(); err != nil {
		return fmt.Errorf("failed to set assessment cache: %w", err)
	}

	logger.Debug("Assessment cached", zap.String("query_hash", queryHash))
	return nil
}

func (c *Client) GetAssessment(ctx context.Context, queryHash string) (assessment.Result, bool, error) {
	var result assessment.Result

	data, err := c.client.Get(ctx, fmt.Sprintf("assessment:%s", queryHash)).Bytes()
	if err == redis.Nil {
		return result, false, nil
	}
	if err != nil {
		return result, false, fmt.Errorf("failed to get assessment cache: %w", err)
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, false, fmt.Errorf("failed to unmarshal assessment: %w", err)
	}

	logger.Debug("Assessment cache hit", zap.String("query_hash", queryHash))
	return result, true, nil
}

func (c *Client) SetEmbedding(ctx context.Context, textHash string, embedding []float32) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	if err := c.client.Set(ctx, fmt.Sprintf("embedding:%s", textHash), data, embeddingTTL).Err(); err != nil {
		return fmt.Errorf("failed to set embedding cache: %w", err)
	}

	return nil
}

func (c *Client) GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("embedding:%s", textHash)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get embedding cache: %w", err)
	}

	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal embedding: %w", err)
	}

	return embedding, true, nil
}

// InvalidateAssessments clears cached assessments after an ingestion run
// changes the corpus.
func (c *Client) InvalidateAssessments(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "assessment:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Assessment cache invalidated")
	return nil
}
