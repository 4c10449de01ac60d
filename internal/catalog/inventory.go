package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shestoi/GoBigTech/cart/internal/repository"
)

// ErrProductNotFound возвращается, когда товара нет в каталоге
var ErrProductNotFound = errors.New("product not found")

// Inventory - in-memory каталог товаров и остатков для разработки
// Заменяет json-server витрины: те же данные, те же эндпоинты
type Inventory struct {
	mu       sync.RWMutex
	products map[int64]repository.Product
	stock    map[int64]int
}

// NewInventory создаёт каталог из seed данных
// Остаток без карточки товара и отрицательный остаток считаются ошибкой seed
func NewInventory(seed Seed) (*Inventory, error) {
	inv := &Inventory{
		products: make(map[int64]repository.Product, len(seed.Products)),
		stock:    make(map[int64]int, len(seed.Stock)),
	}

	for _, p := range seed.Products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("seed product has invalid id %d", p.ID)
		}
		if _, dup := inv.products[p.ID]; dup {
			return nil, fmt.Errorf("seed product %d appears twice", p.ID)
		}
		inv.products[p.ID] = repository.Product{ID: p.ID, Title: p.Title, Price: p.Price, Image: p.Image}
	}
	for _, s := range seed.Stock {
		if _, ok := inv.products[s.ID]; !ok {
			return nil, fmt.Errorf("seed stock references unknown product %d", s.ID)
		}
		if s.Amount < 0 {
			return nil, fmt.Errorf("seed stock for product %d is negative", s.ID)
		}
		inv.stock[s.ID] = s.Amount
	}

	return inv, nil
}

// Products возвращает все товары, отсортированные по ID
func (i *Inventory) Products(ctx context.Context) []repository.Product {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]repository.Product, 0, len(i.products))
	for _, p := range i.products {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Product возвращает карточку товара
func (i *Inventory) Product(ctx context.Context, productID int64) (repository.Product, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	p, ok := i.products[productID]
	if !ok {
		return repository.Product{}, ErrProductNotFound
	}
	return p, nil
}

// Stock возвращает остаток товара
// Товар без записи об остатке считается отсутствующим на складе (0)
func (i *Inventory) Stock(ctx context.Context, productID int64) (repository.Stock, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if _, ok := i.products[productID]; !ok {
		return repository.Stock{}, ErrProductNotFound
	}
	return repository.Stock{ProductID: productID, Amount: i.stock[productID]}, nil
}

// SetStock заменяет остаток товара
func (i *Inventory) SetStock(ctx context.Context, productID int64, amount int) error {
	if amount < 0 {
		return fmt.Errorf("stock amount must be >= 0, got %d", amount)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.products[productID]; !ok {
		return ErrProductNotFound
	}
	i.stock[productID] = amount
	return nil
}
