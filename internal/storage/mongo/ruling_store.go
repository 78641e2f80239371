// Package mongo provides a MongoDB-backed ruling record store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/JakeFAU/court-ruling-crawler/internal/crawler"
)

const connectTimeout = 10 * time.Second

// Config controls the MongoDB connection used for ruling documents.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// RulingStore writes one document per ruling, keyed by the case number.
type RulingStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

var _ crawler.RecordStore = (*RulingStore)(nil)

// NewRulingStore connects, pings and makes sure the case number index exists.
func NewRulingStore(ctx context.Context, cfg Config, logger *zap.Logger) (*RulingStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("store.uri is required")
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, fmt.Errorf("store.database and store.collection are required")
	}
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	store := NewRulingStoreWithCollection(client.Database(cfg.Database).Collection(cfg.Collection), logger)
	store.client = client
	if err := store.EnsureIndexes(connectCtx); err != nil {
		// Legacy collections may already hold duplicates; the lookup in
		// InsertIfAbsent still keeps new inserts unique.
		store.logger.Warn("could not create case number index", zap.Error(err))
	}
	return store, nil
}

// NewRulingStoreWithCollection wraps an existing collection (primarily for testing).
func NewRulingStoreWithCollection(coll *mongo.Collection, logger *zap.Logger) *RulingStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RulingStore{
		collection: coll,
		logger:     logger.Named("mongo"),
	}
}

// EnsureIndexes creates the unique index on the case number label.
func (s *RulingStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: crawler.CaseNumberLabel, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create index on %s: %w", crawler.CaseNumberLabel, err)
	}
	return nil
}

// InsertIfAbsent stores the ruling unless a document with its case number exists.
func (s *RulingStore) InsertIfAbsent(ctx context.Context, ruling crawler.Ruling) (crawler.StoreResult, error) {
	if ruling.CaseNumber == "" {
		return crawler.StoreFailed, crawler.ErrCaseNumberMissing
	}
	filter := bson.D{{Key: crawler.CaseNumberLabel, Value: ruling.CaseNumber}}
	err := s.collection.FindOne(ctx, filter, options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})).Err()
	switch {
	case err == nil:
		return crawler.StoreDuplicate, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return crawler.StoreFailed, fmt.Errorf("lookup %s: %w", ruling.CaseNumber, err)
	}

	if _, err := s.collection.InsertOne(ctx, Document(ruling)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return crawler.StoreDuplicate, nil
		}
		return crawler.StoreFailed, fmt.Errorf("insert %s: %w", ruling.CaseNumber, err)
	}
	return crawler.StoreInserted, nil
}

// Close disconnects the client when the store owns one.
func (s *RulingStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

// Document renders the ruling as an ordered BSON document.
func Document(ruling crawler.Ruling) bson.D {
	fields := ruling.Document()
	doc := make(bson.D, 0, len(fields))
	for _, f := range fields {
		doc = append(doc, bson.E{Key: f.Label, Value: f.Value})
	}
	return doc
}
