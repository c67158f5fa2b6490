package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"club-notification-service/pkg/config"
)

// MongoDatabase wraps a connected client and the configured database.
type MongoDatabase struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewMongoDatabase connects and pings the server within cfg.ConnectTimeout.
func NewMongoDatabase(cfg *config.MongoConfig) (*MongoDatabase, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &MongoDatabase{Client: client, DB: client.Database(cfg.Database)}, nil
}

// Close disconnects the client.
func (m *MongoDatabase) Close(ctx context.Context) {
	if m == nil || m.Client == nil {
		return
	}
	_ = m.Client.Disconnect(ctx)
}
