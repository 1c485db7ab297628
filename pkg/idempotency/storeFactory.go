package idempotency

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zoff-tech/go-orderflow/pkg/config"
)

var sqlOpen = sql.Open

// NewStore creates the idempotency store selected by configuration.
func NewStore(ctx context.Context, cfg config.StoreSettings) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(cfg.Retention), nil
	case "redis":
		opts, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		rdb := goredis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisStore(rdb, cfg.Retention), nil
	case "postgres":
		db, err := sqlOpen("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres connection: %w", err)
		}
		return NewPostgresStore(db, cfg.Retention), nil
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		return NewMongoStore(client, cfg.DBName, cfg.Retention), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
