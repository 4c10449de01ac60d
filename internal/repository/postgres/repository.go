package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shestoi/GoBigTech/cart/internal/repository"
)

// Repository реализует SnapshotRepository используя PostgreSQL
// Одна строка таблицы cart_snapshots - один слот корзины
type Repository struct {
	pool *pgxpool.Pool
	slot string
}

// NewRepository создаёт новый PostgreSQL репозиторий
func NewRepository(pool *pgxpool.Pool, slot string) *Repository {
	return &Repository{
		pool: pool,
		slot: slot,
	}
}

// Load получает снимок корзины из PostgreSQL
func (r *Repository) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT payload::text
		 FROM cart_snapshots
		 WHERE slot = $1`,
		r.slot).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select cart snapshot: %w", err)
	}
	return payload, nil
}

// Save заменяет снимок корзины
// INSERT ... ON CONFLICT делает запись идемпотентной и атомарной
func (r *Repository) Save(ctx context.Context, snapshot []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cart_snapshots (slot, payload, updated_at)
		 VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (slot) DO UPDATE SET
		   payload = EXCLUDED.payload,
		   updated_at = EXCLUDED.updated_at`,
		r.slot, string(snapshot))
	if err != nil {
		return fmt.Errorf("upsert cart snapshot: %w", err)
	}
	return nil
}
