package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/askmongo/askmongo/internal/config"
	"github.com/askmongo/askmongo/internal/errors"
)

// Client wraps a MongoDB connection scoped to a single database. It is
// constructed once at startup and injected into everything that needs
// database access.
type Client struct {
	client   *mongo.Client
	database string
}

// Connect establishes a MongoDB connection using the configured URI and
// verifies it with a ping before returning.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeoutDuration())
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to connect to MongoDB")
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())

		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to reach MongoDB").
			WithSuggestion("Check that MONGODB_URI points at a running server").
			WithSuggestion("Verify network access and authentication credentials")
	}

	return &Client{client: client, database: cfg.Database}, nil
}

// Close disconnects from the server.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Ping verifies the connection is still healthy.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.Wrap(err, errors.ErrTypeDatabase, "MongoDB ping failed")
	}

	return nil
}

// Database returns a handle to the configured database.
func (c *Client) Database() *mongo.Database {
	return c.client.Database(c.database)
}

// DatabaseName returns the configured database name.
func (c *Client) DatabaseName() string {
	return c.database
}
