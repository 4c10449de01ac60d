package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/cart/internal/repository"
	platformobservability "github.com/shestoi/GoBigTech/cart/platform/observability"
)

// ErrCartChanged возвращается, когда корзина изменилась так, что результат запроса
// к каталогу больше не применим (товар удалён или добавлен параллельно)
var ErrCartChanged = errors.New("cart changed during operation")

const instrumentationName = "github.com/shestoi/GoBigTech/cart/internal/service"

// saveTimeout ограничивает запись снимка, которая идёт под s.mu
const saveTimeout = 5 * time.Second

// CartService - единственный источник правды о содержимом корзины
// Проверяет остатки через CatalogClient, каждое успешное изменение сохраняет снимком
// Каждая операция либо полностью фиксируется (память + снимок),
// либо полностью отклоняется (без изменений, максимум одно уведомление)
type CartService struct {
	catalog  CatalogClient
	notifier Notifier
	repo     repository.SnapshotRepository
	logger   *zap.Logger
	tracer   trace.Tracer
	ops      metric.Int64Counter

	locks *productLocks

	mu   sync.RWMutex
	cart repository.Cart
}

// NewCartService создаёт CartService и восстанавливает корзину из снимка
// Отсутствующий снимок - пустая корзина; повреждённый снимок логируется и отбрасывается
// Ошибка чтения хранилища возвращается: без него сервис не может гарантировать сохранность корзины
func NewCartService(
	ctx context.Context,
	catalog CatalogClient,
	notifier Notifier,
	repo repository.SnapshotRepository,
	logger *zap.Logger,
) (*CartService, error) {
	ops, err := otel.Meter(instrumentationName).Int64Counter("cart.operations",
		metric.WithDescription("Cart mutations by operation and result"),
	)
	if err != nil {
		ops = noop.Int64Counter{}
	}

	s := &CartService{
		catalog:  catalog,
		notifier: notifier,
		repo:     repo,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		ops:      ops,
		locks:    newProductLocks(),
		cart:     repository.Cart{Items: []repository.CartItem{}},
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CartService) load(ctx context.Context) error {
	data, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("No cart snapshot found, starting with empty cart")
			return nil
		}
		return fmt.Errorf("load cart snapshot: %w", err)
	}

	cart, err := repository.DecodeSnapshot(data)
	if err != nil {
		// Снимок не перезаписываем: он заменится при первом успешном изменении
		s.logger.Warn("Discarding corrupt cart snapshot", zap.Error(err))
		return nil
	}

	s.cart = cart
	s.logger.Info("Cart restored from snapshot", zap.Int("items", len(cart.Items)))
	return nil
}

// Cart возвращает копию текущей зафиксированной корзины
func (s *CartService) Cart() repository.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Amounts возвращает количество каждого товара в корзине (бейджи на витрине)
func (s *CartService) Amounts() map[int64]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Amounts()
}

// AddProduct добавляет одну единицу товара в корзину
// Новый товар запрашивается в каталоге и добавляется с amount = 1
// Для товара, который уже в корзине, проверяется свежий остаток:
// если amount + 1 превышает остаток, добавление отклоняется
func (s *CartService) AddProduct(ctx context.Context, productID int64) (err error) {
	ctx, span := s.startOp(ctx, "add_product", productID)
	defer func() { s.finishOp(ctx, span, "add_product", err) }()

	// Товара с таким ID нет и не может быть в каталоге
	if productID <= 0 {
		return s.reject(ctx, MessageAddFailed,
			fmt.Errorf("%w: invalid product id %d", ErrCatalogUnavailable, productID))
	}

	unlock := s.locks.lock(productID)
	defer unlock()

	s.mu.RLock()
	inCart := s.cart.Find(productID) >= 0
	s.mu.RUnlock()

	if !inCart {
		err = s.addNewProduct(ctx, productID)
	} else {
		err = s.incrementProduct(ctx, productID)
	}
	if err != nil {
		return s.reject(ctx, MessageAddFailed, err)
	}
	return nil
}

func (s *CartService) addNewProduct(ctx context.Context, productID int64) error {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("%w: get product %d: %w", ErrCatalogUnavailable, productID, err)
	}
	if product.ID != productID {
		return fmt.Errorf("%w: requested product %d, catalog returned %d", ErrCatalogUnavailable, productID, product.ID)
	}

	return s.apply(ctx, func(cart repository.Cart) (repository.Cart, bool, error) {
		if cart.Find(productID) >= 0 {
			return cart, false, fmt.Errorf("%w: product %d already added", ErrCartChanged, productID)
		}
		cart.Items = append(cart.Items, repository.CartItem{Product: product, Amount: 1})
		return cart, true, nil
	})
}

func (s *CartService) incrementProduct(ctx context.Context, productID int64) error {
	stock, err := s.catalog.GetStock(ctx, productID)
	if err != nil {
		return fmt.Errorf("%w: get stock %d: %w", ErrCatalogUnavailable, productID, err)
	}

	// Текущее количество берём в момент фиксации, а не до запроса остатка
	return s.apply(ctx, func(cart repository.Cart) (repository.Cart, bool, error) {
		idx := cart.Find(productID)
		if idx < 0 {
			return cart, false, fmt.Errorf("%w: product %d removed", ErrCartChanged, productID)
		}
		if next := cart.Items[idx].Amount + 1; next > stock.Amount {
			return cart, false, fmt.Errorf("%w: product %d wants %d, stock %d",
				ErrStockExceeded, productID, next, stock.Amount)
		}
		cart.Items[idx].Amount++
		return cart, true, nil
	})
}

// RemoveProduct удаляет позицию товара из корзины целиком
// Остальные позиции сохраняют относительный порядок
func (s *CartService) RemoveProduct(ctx context.Context, productID int64) (err error) {
	ctx, span := s.startOp(ctx, "remove_product", productID)
	defer func() { s.finishOp(ctx, span, "remove_product", err) }()

	if productID <= 0 {
		return s.reject(ctx, MessageRemoveFailed,
			fmt.Errorf("%w: invalid product id %d", ErrNotInCart, productID))
	}

	unlock := s.locks.lock(productID)
	defer unlock()

	err = s.apply(ctx, func(cart repository.Cart) (repository.Cart, bool, error) {
		idx := cart.Find(productID)
		if idx < 0 {
			return cart, false, fmt.Errorf("%w: product %d", ErrNotInCart, productID)
		}
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		return cart, true, nil
	})
	if err != nil {
		return s.reject(ctx, MessageRemoveFailed, err)
	}
	return nil
}

// UpdateProductAmount устанавливает количество товара в корзине
// amount <= 0 - no-op без обращения к каталогу и без уведомлений:
// уменьшение до нуля делается через RemoveProduct
// Товар, которого нет в корзине, тоже no-op; товар с ID <= 0 в корзине быть не может,
// поэтому для него каталог даже не спрашиваем
func (s *CartService) UpdateProductAmount(ctx context.Context, productID int64, amount int) (err error) {
	if amount <= 0 || productID <= 0 {
		return nil
	}

	ctx, span := s.startOp(ctx, "update_product_amount", productID)
	span.SetAttributes(attribute.Int("cart.amount", amount))
	defer func() { s.finishOp(ctx, span, "update_product_amount", err) }()

	unlock := s.locks.lock(productID)
	defer unlock()

	stock, err := s.catalog.GetStock(ctx, productID)
	if err != nil {
		return s.reject(ctx, MessageUpdateAmountFailed,
			fmt.Errorf("%w: get stock %d: %w", ErrCatalogUnavailable, productID, err))
	}

	err = s.apply(ctx, func(cart repository.Cart) (repository.Cart, bool, error) {
		idx := cart.Find(productID)
		if idx < 0 {
			return cart, false, nil
		}
		if amount > stock.Amount {
			return cart, false, fmt.Errorf("%w: product %d wants %d, stock %d",
				ErrStockExceeded, productID, amount, stock.Amount)
		}
		cart.Items[idx].Amount = amount
		return cart, true, nil
	})
	if err != nil {
		return s.reject(ctx, MessageUpdateAmountFailed, err)
	}
	return nil
}

// apply строит следующую корзину от актуального состояния и фиксирует её
// mutate вызывается под s.mu и получает копию корзины; changed=false означает no-op
// Снимок пишется под тем же мьютексом: порядок записей совпадает с порядком фиксаций,
// а память заменяется только после успешной записи
// Цена: Cart() и Amounts() ждут, пока идёт Save (для redis/postgres/mongo это сетевой запрос);
// ожидание ограничено saveTimeout
func (s *CartService) apply(
	ctx context.Context,
	mutate func(cart repository.Cart) (next repository.Cart, changed bool, err error),
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed, err := mutate(s.cart.Clone())
	if err != nil || !changed {
		return err
	}

	data, err := repository.EncodeSnapshot(next)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}
	saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := s.repo.Save(saveCtx, data); err != nil {
		return fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}

	s.cart = next
	return nil
}

// reject отправляет пользователю ровно одно уведомление и возвращает исходную ошибку
// Нехватка остатка всегда сообщается отдельным текстом, остальные ошибки - текстом операции
func (s *CartService) reject(ctx context.Context, message string, err error) error {
	if errors.Is(err, ErrStockExceeded) {
		message = MessageOutOfStock
	}

	platformobservability.L(ctx, s.logger).Warn("Cart operation rejected",
		zap.String("message", message),
		zap.Error(err),
	)
	s.notifier.ReportError(ctx, message)
	return err
}

func (s *CartService) startOp(ctx context.Context, op string, productID int64) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "CartService."+op,
		trace.WithAttributes(attribute.Int64("cart.product_id", productID)),
	)
}

func (s *CartService) finishOp(ctx context.Context, span trace.Span, op string, err error) {
	result := resultOf(err)

	span.SetAttributes(attribute.String("cart.result", result))
	if errors.Is(err, ErrCatalogUnavailable) || errors.Is(err, ErrSnapshotUnavailable) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	s.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("result", result),
	))

	if err == nil {
		platformobservability.L(ctx, s.logger).Debug("Cart operation committed", zap.String("op", op))
	}
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrStockExceeded):
		return "stock_exceeded"
	case errors.Is(err, ErrNotInCart):
		return "not_in_cart"
	case errors.Is(err, ErrCatalogUnavailable):
		return "catalog_unavailable"
	case errors.Is(err, ErrSnapshotUnavailable):
		return "snapshot_unavailable"
	case errors.Is(err, ErrCartChanged):
		return "cart_changed"
	default:
		return "error"
	}
}
