package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/remarkly/backend/internal/server/config"
	"github.com/remarkly/backend/internal/server/orders"
	"github.com/remarkly/backend/internal/server/users"
)

type MongoManager struct {
	client *mongo.Client
	users  users.Repository
	orders orders.Repository
}

// compile-time interface check
var _ Manager = (*MongoManager)(nil)

func NewMongoManager(ctx context.Context, cfg *config.Config) (*MongoManager, error) {

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)

	return &MongoManager{
		client: client,
		users:  users.NewMongoRepository(db),
		orders: orders.NewMongoRepository(db),
	}, nil
}

func (m *MongoManager) Users() users.Repository { return m.users }

func (m *MongoManager) Orders() orders.Repository { return m.orders }

func (m *MongoManager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
