package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/cart/internal/repository"
	"github.com/shestoi/GoBigTech/cart/internal/service"
	platformobservability "github.com/shestoi/GoBigTech/cart/platform/observability"
)

// productResponse DTO ответа GET /products/{id}
// Поля указателями: отсутствие обязательного поля отличаем от нулевого значения
type productResponse struct {
	ID    *int64   `json:"id"`
	Title *string  `json:"title"`
	Price *float64 `json:"price"`
	Image string   `json:"image"`
}

// stockResponse DTO ответа GET /stock/{id}
type stockResponse struct {
	ID     *int64 `json:"id"`
	Amount *int   `json:"amount"`
}

// CatalogClientAdapter реализует service.CatalogClient поверх HTTP API каталога
// Любая ошибка транспорта или некорректный ответ превращается в service.ErrCatalogUnavailable
type CatalogClientAdapter struct {
	client *resty.Client
	logger *zap.Logger
}

// NewCatalogClientAdapter создаёт клиент каталога с базовым URL и таймаутом на запрос
func NewCatalogClientAdapter(baseURL string, timeout time.Duration, logger *zap.Logger) *CatalogClientAdapter {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &CatalogClientAdapter{
		client: client,
		logger: logger,
	}
}

// GetProduct реализует service.CatalogClient
func (a *CatalogClientAdapter) GetProduct(ctx context.Context, productID int64) (repository.Product, error) {
	var dto productResponse
	if err := a.get(ctx, "/products/{id}", productID, &dto); err != nil {
		return repository.Product{}, err
	}

	if dto.ID == nil || dto.Title == nil || dto.Price == nil {
		return repository.Product{}, a.malformed(ctx, "/products", productID, "missing required field")
	}
	if *dto.ID <= 0 {
		return repository.Product{}, a.malformed(ctx, "/products", productID, "invalid id")
	}
	if *dto.ID != productID {
		return repository.Product{}, a.malformed(ctx, "/products", productID, "id mismatch")
	}

	return repository.Product{
		ID:    *dto.ID,
		Title: *dto.Title,
		Price: *dto.Price,
		Image: dto.Image,
	}, nil
}

// GetStock реализует service.CatalogClient
func (a *CatalogClientAdapter) GetStock(ctx context.Context, productID int64) (repository.Stock, error) {
	var dto stockResponse
	if err := a.get(ctx, "/stock/{id}", productID, &dto); err != nil {
		return repository.Stock{}, err
	}

	if dto.ID == nil || dto.Amount == nil {
		return repository.Stock{}, a.malformed(ctx, "/stock", productID, "missing required field")
	}
	if *dto.ID <= 0 {
		return repository.Stock{}, a.malformed(ctx, "/stock", productID, "invalid id")
	}
	if *dto.ID != productID {
		return repository.Stock{}, a.malformed(ctx, "/stock", productID, "id mismatch")
	}
	if *dto.Amount < 0 {
		return repository.Stock{}, a.malformed(ctx, "/stock", productID, "negative amount")
	}

	return repository.Stock{ProductID: *dto.ID, Amount: *dto.Amount}, nil
}

func (a *CatalogClientAdapter) get(ctx context.Context, path string, productID int64, out any) error {
	req := a.client.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(productID, 10))

	// прокидываем traceparent в каталог
	header := http.Header{}
	platformobservability.InjectHTTPHeaders(ctx, header)
	for k := range header {
		req.SetHeader(k, header.Get(k))
	}

	resp, err := req.Get(path)
	if err != nil {
		platformobservability.L(ctx, a.logger).Warn("catalog request failed",
			zap.String("path", path),
			zap.Int64("product_id", productID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", service.ErrCatalogUnavailable, err)
	}
	if !resp.IsSuccess() {
		platformobservability.L(ctx, a.logger).Warn("catalog returned non-success status",
			zap.String("path", path),
			zap.Int64("product_id", productID),
			zap.Int("status", resp.StatusCode()),
		)
		return fmt.Errorf("%w: status %d", service.ErrCatalogUnavailable, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return a.malformed(ctx, path, productID, err.Error())
	}
	return nil
}

func (a *CatalogClientAdapter) malformed(ctx context.Context, path string, productID int64, reason string) error {
	platformobservability.L(ctx, a.logger).Warn("catalog returned malformed response",
		zap.String("path", path),
		zap.Int64("product_id", productID),
		zap.String("reason", reason),
	)
	return fmt.Errorf("%w: malformed response: %s", service.ErrCatalogUnavailable, reason)
}
