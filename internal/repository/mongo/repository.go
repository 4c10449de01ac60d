package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shestoi/GoBigTech/cart/internal/repository"
)

// SnapshotDocument представляет документ в коллекции cart_snapshots
// Payload хранится строкой, чтобы снимок читался байт в байт
type SnapshotDocument struct {
	Slot      string    `bson:"slot"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Repository реализует SnapshotRepository используя MongoDB
type Repository struct {
	col  *mongo.Collection
	slot string
}

// NewRepository создаёт новый MongoDB репозиторий
// Создаёт уникальный индекс на slot при инициализации
func NewRepository(client *mongo.Client, dbName, slot string) *Repository {
	col := client.Database(dbName).Collection("cart_snapshots")

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "slot", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Индекс может уже существовать - ошибку игнорируем
	_, _ = col.Indexes().CreateOne(ctx, indexModel)

	return &Repository{
		col:  col,
		slot: slot,
	}
}

// Load получает снимок корзины из MongoDB
func (r *Repository) Load(ctx context.Context) ([]byte, error) {
	var doc SnapshotDocument
	err := r.col.FindOne(ctx, bson.M{"slot": r.slot}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return []byte(doc.Payload), nil
}

// Save заменяет снимок корзины через upsert
func (r *Repository) Save(ctx context.Context, snapshot []byte) error {
	filter := bson.M{"slot": r.slot}
	update := bson.M{
		"$set": bson.M{
			"payload":    string(snapshot),
			"updated_at": time.Now(),
		},
	}

	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
