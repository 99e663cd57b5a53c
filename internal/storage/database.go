package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

// MongoSink writes the enriched dataset to a MongoDB collection.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	count      int
	logger     *slog.Logger
}

// NewMongoSink connects to MongoDB and verifies the connection.
func NewMongoSink(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*MongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_sink"),
	}, nil
}

func (s *MongoSink) Name() string { return "mongodb" }

func (s *MongoSink) Write(ctx context.Context, records []types.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}

	loadedAt := time.Now().UTC()
	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = enrichedDocument(r, loadedAt)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("insert: %w", err)}
	}

	s.count += len(records)
	s.logger.Info("enriched dataset stored in mongodb", "count", len(records), "total", s.count)
	return nil
}

func (s *MongoSink) Close(ctx context.Context) error {
	s.logger.Debug("mongodb sink closing", "total_items", s.count)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// enrichedDocument maps a record to BSON. Nil pointers become BSON null.
func enrichedDocument(r types.EnrichedRecord, loadedAt time.Time) bson.D {
	return bson.D{
		{Key: "name", Value: r.Name},
		{Key: "product_code", Value: r.ProductCode},
		{Key: "brand", Value: r.Brand},
		{Key: "category", Value: r.Category},
		{Key: "subcategory", Value: r.Subcategory},
		{Key: "family", Value: r.Family},
		{Key: "reviews", Value: r.ReviewCount},
		{Key: "rating", Value: r.Rating},
		{Key: "url_image", Value: r.URLImage},
		{Key: "internet_price", Value: r.InternetPrice},
		{Key: "normal_price", Value: r.NormalPrice},
		{Key: "seller", Value: r.Seller},
		{Key: "url_product", Value: r.URLProduct},
		{Key: "price_diff_pct", Value: r.PriceDiffPct},
		{Key: "relation_flag", Value: r.RelationFlag},
		{Key: "clarity_flag", Value: r.ClarityFlag},
		{Key: "suggested_description", Value: r.SuggestedDescription},
		{Key: "_loaded_at", Value: loadedAt},
	}
}

// --- Multi-Sink Fan-Out ---

// MultiSink writes the dataset to several sinks in order.
type MultiSink struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewMultiSink creates a sink that fans out to every backend.
func NewMultiSink(sinks []Sink, logger *slog.Logger) *MultiSink {
	return &MultiSink{
		sinks:  sinks,
		logger: logger.With("component", "multi_sink"),
	}
}

func (s *MultiSink) Name() string { return "multi" }

// Write tries every sink and returns the first error.
func (s *MultiSink) Write(ctx context.Context, records []types.EnrichedRecord) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, records); err != nil {
			s.logger.Error("sink write failed", "sink", sink.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiSink) Close(ctx context.Context) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Close(ctx); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
