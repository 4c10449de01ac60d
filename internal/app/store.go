package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/cart/internal/config"
	"github.com/shestoi/GoBigTech/cart/internal/repository"
	"github.com/shestoi/GoBigTech/cart/internal/repository/file"
	"github.com/shestoi/GoBigTech/cart/internal/repository/memory"
	mongorepo "github.com/shestoi/GoBigTech/cart/internal/repository/mongo"
	"github.com/shestoi/GoBigTech/cart/internal/repository/postgres"
	redisrepo "github.com/shestoi/GoBigTech/cart/internal/repository/redis"
	platformshutdown "github.com/shestoi/GoBigTech/cart/platform/shutdown"
)

const (
	connectTimeout   = 5 * time.Second
	readinessTimeout = 2 * time.Second
)

type namedCloser struct {
	name string
	fn   func(context.Context) error
}

// snapshotStore - выбранное хранилище снимка и всё, что нужно для health и shutdown
type snapshotStore struct {
	repo      repository.SnapshotRepository
	readiness func() bool
	closers   []namedCloser
}

// openSnapshotStore подключается к хранилищу из CART_SNAPSHOT_STORE и проверяет соединение
func openSnapshotStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*snapshotStore, error) {
	switch cfg.SnapshotStore {
	case config.StoreMemory:
		logger.Warn("Using in-memory cart snapshot, cart is lost on restart")
		return &snapshotStore{
			repo:      memory.NewMemoryRepository(nil),
			readiness: func() bool { return true },
		}, nil

	case config.StoreFile:
		repo := file.NewRepository(cfg.SnapshotFile)
		if err := repo.Ping(ctx); err != nil {
			return nil, fmt.Errorf("snapshot file %s: %w", cfg.SnapshotFile, err)
		}
		logger.Info("Using file cart snapshot", zap.String("path", cfg.SnapshotFile))
		return &snapshotStore{
			repo:      repo,
			readiness: pingReadiness(repo.Ping),
		}, nil

	case config.StoreRedis:
		logger.Info("Connecting to Redis", zap.String("addr", cfg.RedisAddr))
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("Redis connection established")

		return &snapshotStore{
			repo: redisrepo.NewRepository(client, cfg.SnapshotKey, logger),
			readiness: pingReadiness(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}),
			closers: []namedCloser{{name: "redis_client", fn: platformshutdown.CloseCloser(client)}},
		}, nil

	case config.StorePostgres:
		logger.Info("Applying database migrations")
		if err := postgres.Migrate(ctx, cfg.PostgresDSN); err != nil {
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		logger.Info("Database migrations applied successfully")

		logger.Info("Connecting to PostgreSQL")
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		logger.Info("PostgreSQL connection established")

		return &snapshotStore{
			repo:      postgres.NewRepository(pool, cfg.SnapshotKey),
			readiness: pingReadiness(pool.Ping),
			closers:   []namedCloser{{name: "postgres_pool", fn: platformshutdown.ClosePool(pool)}},
		}, nil

	case config.StoreMongo:
		logger.Info("Connecting to MongoDB", zap.String("db", cfg.MongoDBName))
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("mongo ping: %w", err)
		}
		logger.Info("MongoDB connection established")

		return &snapshotStore{
			repo: mongorepo.NewRepository(client, cfg.MongoDBName, cfg.SnapshotKey),
			readiness: pingReadiness(func(ctx context.Context) error {
				return client.Ping(ctx, nil)
			}),
			closers: []namedCloser{{name: "mongo_client", fn: platformshutdown.DisconnectMongo(client)}},
		}, nil
	}

	return nil, fmt.Errorf("unknown snapshot store %q", cfg.SnapshotStore)
}

// pingReadiness превращает ping хранилища в readiness функцию для /health
func pingReadiness(ping func(context.Context) error) func() bool {
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
		defer cancel()
		return ping(ctx) == nil
	}
}
