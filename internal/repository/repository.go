package repository

import (
	"context"
	"errors"
)

// Product представляет товар из каталога
// После получения из Catalog Service не изменяется
type Product struct {
	ID    int64
	Title string
	Price float64
	Image string
}

// CartItem представляет позицию корзины: товар и его количество
// Amount всегда >= 1, позиция с нулём удаляется, а не хранится
type CartItem struct {
	Product
	Amount int
}

// Stock представляет остаток товара на складе
// Запрашивается заново при каждой проверке, не кэшируется
type Stock struct {
	ProductID int64
	Amount    int
}

// Cart представляет корзину покупателя
// Позиции уникальны по ID товара, порядок добавления сохраняется
type Cart struct {
	Items []CartItem
}

// Find возвращает индекс позиции с указанным товаром или -1
func (c Cart) Find(productID int64) int {
	for i, item := range c.Items {
		if item.ID == productID {
			return i
		}
	}
	return -1
}

// Clone возвращает независимую копию корзины
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// Amounts возвращает количество каждого товара в корзине по его ID
func (c Cart) Amounts() map[int64]int {
	out := make(map[int64]int, len(c.Items))
	for _, item := range c.Items {
		out[item.ID] = item.Amount
	}
	return out
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=SnapshotRepository --dir=. --output=./mocks --outpkg=mocks

// SnapshotRepository определяет интерфейс для хранилища снимка корзины
// Снимок перезаписывается целиком, частичных обновлений нет
// Service слой зависит от этого интерфейса, а не от конкретной реализации
type SnapshotRepository interface {
	// Load читает сериализованный снимок корзины
	// Возвращает ErrNotFound, если снимок ещё не сохранялся
	Load(ctx context.Context) ([]byte, error)

	// Save заменяет снимок корзины целиком
	Save(ctx context.Context, snapshot []byte) error
}

// ErrNotFound возвращается, когда снимок корзины отсутствует в хранилище
var ErrNotFound = errors.New("cart snapshot not found")
