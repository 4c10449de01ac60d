package repository

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptSnapshot возвращается, когда снимок не читается или нарушает инварианты корзины
var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

// snapshotItem - формат позиции в снимке, совместимый с витриной:
// [{"id":1,"title":"...","price":179.9,"image":"...","amount":2}]
type snapshotItem struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Image  string  `json:"image"`
	Amount int     `json:"amount"`
}

// Validate проверяет инварианты корзины: ID положительные и не повторяются, amount >= 1
// Одни и те же правила действуют при записи и при чтении снимка
func (c Cart) Validate() error {
	seen := make(map[int64]struct{}, len(c.Items))
	for i, item := range c.Items {
		if item.ID <= 0 {
			return fmt.Errorf("%w: items[%d] has invalid id %d", ErrCorruptSnapshot, i, item.ID)
		}
		if item.Amount < 1 {
			return fmt.Errorf("%w: items[%d] has invalid amount %d", ErrCorruptSnapshot, i, item.Amount)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: product %d appears twice", ErrCorruptSnapshot, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// EncodeSnapshot сериализует корзину в снимок
// Корзину, нарушающую инварианты, не записываем: такой снимок не прочитается обратно
func EncodeSnapshot(cart Cart) ([]byte, error) {
	if err := cart.Validate(); err != nil {
		return nil, err
	}

	items := make([]snapshotItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, snapshotItem{
			ID:     item.ID,
			Title:  item.Title,
			Price:  item.Price,
			Image:  item.Image,
			Amount: item.Amount,
		})
	}

	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot восстанавливает корзину из снимка
// Проверяет инварианты: amount >= 1, ID положительные и не повторяются
func DecodeSnapshot(data []byte) (Cart, error) {
	var items []snapshotItem
	if err := json.Unmarshal(data, &items); err != nil {
		return Cart{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	cart := Cart{Items: make([]CartItem, 0, len(items))}
	for _, item := range items {
		cart.Items = append(cart.Items, CartItem{
			Product: Product{
				ID:    item.ID,
				Title: item.Title,
				Price: item.Price,
				Image: item.Image,
			},
			Amount: item.Amount,
		})
	}

	if err := cart.Validate(); err != nil {
		return Cart{}, err
	}
	return cart, nil
}
