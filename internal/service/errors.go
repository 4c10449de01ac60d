package service

import "errors"

var (
	// ErrNotInCart возвращается, когда операция адресует товар, которого нет в корзине
	ErrNotInCart = errors.New("product is not in cart")
	// ErrCatalogUnavailable возвращается, когда Catalog сервис не ответил или ответил некорректно
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrStockExceeded возвращается, когда запрошенное количество больше остатка
	ErrStockExceeded = errors.New("requested amount exceeds stock")
	// ErrSnapshotUnavailable возвращается, когда снимок корзины не удалось записать
	ErrSnapshotUnavailable = errors.New("cart snapshot unavailable")
)

// Сообщения, которые видит покупатель
const (
	MessageAddFailed          = "Erro na adição do produto"
	MessageRemoveFailed       = "Erro na remoção do produto"
	MessageUpdateAmountFailed = "Erro na alteração de quantidade do produto"
	MessageOutOfStock         = "Quantidade solicitada fora de estoque"
)
