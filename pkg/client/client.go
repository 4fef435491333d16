package client

import (
	"context"
	"errors"
	"time"

	"autoquote/pkg/db/postgres"
	"autoquote/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
)

// Client holds the store connections of a process. Only the driver selected
// by the configuration is set.
type Client struct {
	Mongo    *mongo.Client
	Postgres *pgxpool.Pool
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	c.Mongo = connectMongo(log, mongoURI, mongoConnTimeout)
}

func (c *Client) SetPostgres(log *logger.Logger, cfg postgres.PoolConfig, connTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}

	log.Info("Successfully connected to PostgreSQL")
	c.Postgres = pool
}

// GracefulShutdown closes every open connection.
func (c *Client) GracefulShutdown(ctx context.Context) error {
	var errs []error
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
	return errors.Join(errs...)
}
