package service

import (
	"context"

	"github.com/shestoi/GoBigTech/cart/internal/repository"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=CatalogClient --dir=. --output=./mocks --outpkg=mocks

// CatalogClient определяет интерфейс для работы с Catalog сервисом
// Использует доменные типы вместо DTO транспорта - service не зависит от HTTP
type CatalogClient interface {
	// GetProduct получает карточку товара
	GetProduct(ctx context.Context, productID int64) (repository.Product, error)

	// GetStock получает актуальный остаток товара на складе
	GetStock(ctx context.Context, productID int64) (repository.Stock, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=Notifier --dir=. --output=./mocks --outpkg=mocks

// Notifier показывает сообщение об ошибке пользователю
// Fire-and-forget: результат доставки service не интересует
type Notifier interface {
	ReportError(ctx context.Context, message string)
}
