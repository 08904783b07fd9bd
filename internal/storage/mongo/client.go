package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/internal/records"
	"github.com/parastopwal07/dezerv-backend/pkg/logger"
)

// Client is the MongoDB-backed record store. Collections are named after
// the record categories.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewClient(ctx context.Context, uri, database string) (*Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Info("Mongo client initialized",
		zap.String("uri", uri),
		zap.String("database", database),
	)

	return &Client{
		client: client,
		db:     client.Database(database),
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func (c *Client) DropAll(ctx context.Context, categories []string) error {
	for _, category := range categories {
		if err := c.db.Collection(category).Drop(ctx); err != nil {
			return fmt.Errorf("failed to drop collection %s: %w", category, err)
		}
	}

	logger.Info("Collections dropped", zap.Int("count", len(categories)))
	return nil
}

func (c *Client) InsertMany(ctx context.Context, category string, recs []records.StructuredRecord) error {
	if len(recs) == 0 {
		return nil
	}

	docs := make([]interface{}, len(recs))
	for i, rec := range recs {
		docs[i] = rec
	}

	if _, err := c.db.Collection(category).InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", category, err)
	}

	logger.Debug("Records inserted",
		zap.String("category", category),
		zap.Int("count", len(recs)),
	)
	return nil
}

func (c *Client) FindAll(ctx context.Context, category string) ([]records.StructuredRecord, error) {
	cursor, err := c.db.Collection(category).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", category, err)
	}
	defer cursor.Close(ctx)

	var recs []records.StructuredRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("failed to decode %s records: %w", category, err)
	}

	return recs, nil
}

func (c *Client) FindMessages(ctx context.Context) ([]records.Message, error) {
	cursor, err := c.db.Collection(records.CategoryMessages).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer cursor.Close(ctx)

	var msgs []records.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return msgs, nil
}

func (c *Client) FindEmails(ctx context.Context) ([]records.Email, error) {
	cursor, err := c.db.Collection(records.CategoryEmails).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer cursor.Close(ctx)

	var emails []records.Email
	if err := cursor.All(ctx, &emails); err != nil {
		return nil, fmt.Errorf("failed to decode emails: %w", err)
	}
	return emails, nil
}

func (c *Client) FindProfiles(ctx context.Context) ([]records.PersonalProfile, error) {
	cursor, err := c.db.Collection(records.CategoryPersonalData).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query personal data: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []records.PersonalProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode personal data: %w", err)
	}
	return profiles, nil
}
