package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/cart/internal/repository"
)

// Repository реализует SnapshotRepository используя Redis string
// Снимок хранится под ключом cart:<slot> без TTL
type Repository struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRepository создаёт Redis репозиторий для указанного слота корзины
func NewRepository(client *redis.Client, slot string, logger *zap.Logger) *Repository {
	return &Repository{
		client: client,
		key:    snapshotKey(slot),
		logger: logger,
	}
}

func snapshotKey(slot string) string {
	return fmt.Sprintf("cart:%s", slot)
}

// Load читает снимок из Redis
func (r *Repository) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("cart snapshot not found in redis", zap.String("key", r.key))
			return nil, repository.ErrNotFound
		}
		r.logger.Error("failed to get cart snapshot from redis",
			zap.Error(err),
			zap.String("key", r.key),
		)
		return nil, fmt.Errorf("failed to get cart snapshot: %w", err)
	}
	return data, nil
}

// Save перезаписывает снимок одной командой SET
func (r *Repository) Save(ctx context.Context, snapshot []byte) error {
	if err := r.client.Set(ctx, r.key, snapshot, 0).Err(); err != nil {
		r.logger.Error("failed to save cart snapshot to redis",
			zap.Error(err),
			zap.String("key", r.key),
		)
		return fmt.Errorf("failed to save cart snapshot: %w", err)
	}

	r.logger.Debug("cart snapshot saved to redis",
		zap.String("key", r.key),
		zap.Int("bytes", len(snapshot)),
	)
	return nil
}
