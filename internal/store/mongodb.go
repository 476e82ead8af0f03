package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"sitemind/internal/core"
)

const (
	settingsCollection = "gateway_settings"
	usageCollection    = "usage_log"
	settingsDocID      = "gateway"
)

// mongoStore implements Store for MongoDB
type mongoStore struct {
	client   *mongo.Client
	database *mongo.Database
}

type settingsDoc struct {
	ID       string               `bson:"_id"`
	Settings core.GatewaySettings `bson:"settings"`
}

// NewMongoDB creates a new MongoDB store.
func NewMongoDB(ctx context.Context, cfg MongoDBConfig) (Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("MongoDB URL is required")
	}

	dbName := cfg.Database
	if dbName == "" {
		dbName = "sitemind"
	}

	clientOpts := options.Client().ApplyURI(cfg.URL)
	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &mongoStore{
		client:   client,
		database: client.Database(dbName),
	}, nil
}

func (s *mongoStore) LoadSettings(ctx context.Context) (core.GatewaySettings, bool, error) {
	var doc settingsDoc
	err := s.database.Collection(settingsCollection).
		FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.GatewaySettings{}, false, nil
	}
	if err != nil {
		return core.GatewaySettings{}, false, fmt.Errorf("failed to load settings: %w", err)
	}
	return doc.Settings, true, nil
}

func (s *mongoStore) SaveSettings(ctx context.Context, settings core.GatewaySettings) error {
	doc := settingsDoc{ID: settingsDocID, Settings: settings}
	_, err := s.database.Collection(settingsCollection).ReplaceOne(ctx,
		bson.M{"_id": settingsDocID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *mongoStore) AppendUsage(ctx context.Context, row UsageRow) error {
	if _, err := s.database.Collection(usageCollection).InsertOne(ctx, row); err != nil {
		return fmt.Errorf("failed to append usage row: %w", err)
	}
	return nil
}

func (s *mongoStore) RecentUsage(ctx context.Context, limit int) ([]UsageRow, error) {
	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.database.Collection(usageCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage log: %w", err)
	}
	defer cur.Close(ctx)

	var out []UsageRow
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode usage rows: %w", err)
	}
	return out, nil
}

func (s *mongoStore) Close(ctx context.Context) error {
	if s.client != nil {
		return s.client.Disconnect(ctx)
	}
	return nil
}
