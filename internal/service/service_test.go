package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/GoBigTech/cart/internal/repository"
	"github.com/shestoi/GoBigTech/cart/internal/repository/memory"
	repoMocks "github.com/shestoi/GoBigTech/cart/internal/repository/mocks"
	"github.com/shestoi/GoBigTech/cart/internal/service/mocks"
)

var (
	sneaker = repository.Product{ID: 1, Title: "Tênis de Caminhada Leve Confortável", Price: 179.9, Image: "1.jpg"}
	runner  = repository.Product{ID: 2, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: 139.9, Image: "2.jpg"}
	adidas  = repository.Product{ID: 3, Title: "Tênis Adidas Duramo Lite 2.0", Price: 219.9, Image: "3.jpg"}
)

func seedSnapshot(t *testing.T, items ...repository.CartItem) []byte {
	t.Helper()
	data, err := repository.EncodeSnapshot(repository.Cart{Items: items})
	require.NoError(t, err)
	return data
}

func newTestService(t *testing.T, catalog CatalogClient, notifier Notifier, repo repository.SnapshotRepository) *CartService {
	t.Helper()
	svc, err := NewCartService(context.Background(), catalog, notifier, repo, zap.NewNop())
	require.NoError(t, err)
	return svc
}

// requireInvariants проверяет amount >= 1 и уникальность товаров
func requireInvariants(t *testing.T, cart repository.Cart) {
	t.Helper()
	seen := make(map[int64]bool)
	for _, item := range cart.Items {
		require.GreaterOrEqual(t, item.Amount, 1, "product %d", item.ID)
		require.False(t, seen[item.ID], "product %d appears twice", item.ID)
		seen[item.ID] = true
	}
}

// requirePersisted проверяет, что снимок в хранилище совпадает с корзиной в памяти
func requirePersisted(t *testing.T, repo repository.SnapshotRepository, cart repository.Cart) {
	t.Helper()
	data, err := repo.Load(context.Background())
	require.NoError(t, err)
	stored, err := repository.DecodeSnapshot(data)
	require.NoError(t, err)
	require.Equal(t, cart, stored)
}

func TestCartService_AddProduct(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name           string
		seed           []repository.CartItem
		setupCatalog   func(c *mocks.CatalogClient)
		expectedNotify string
		expectedErr    error
		expectedItems  []repository.CartItem
		expectedSaves  int
	}{
		{
			name: "success: new product is appended with amount 1",
			seed: []repository.CartItem{{Product: runner, Amount: 2}},
			setupCatalog: func(c *mocks.CatalogClient) {
				c.On("GetProduct", mock.Anything, int64(1)).Return(sneaker, nil).Once()
			},
			expectedItems: []repository.CartItem{
				{Product: runner, Amount: 2},
				{Product: sneaker, Amount: 1},
			},
			expectedSaves: 1,
		},
		{
			name: "success: existing product is incremented by one",
			seed: []repository.CartItem{{Product: sneaker, Amount: 2}, {Product: runner, Amount: 1}},
			setupCatalog: func(c *mocks.CatalogClient) {
				c.On("GetStock", mock.Anything, int64(1)).Return(repository.Stock{ProductID: 1, Amount: 5}, nil).Once()
			},
			expectedItems: []repository.CartItem{
				{Product: sneaker, Amount: 3},
				{Product: runner, Amount: 1},
			},
			expectedSaves: 1,
		},
		{
			name: "success: increment up to exactly the stock",
			seed: []repository.CartItem{{Product: sneaker, Amount: 2}},
			setupCatalog: func(c *mocks.CatalogClient) {
				c.On("GetStock", mock.Anything, int64(1)).Return(repository.Stock{ProductID: 1, Amount: 3}, nil).Once()
			},
			expectedItems: []repository.CartItem{{Product: sneaker, Amount: 3}},
			expectedSaves: 1,
		},
		{
			name: "error: amount equals stock blocks increment",
			seed: []repository.CartItem{{Product: sneaker, Amount: 3}},
			setupCatalog: func(c *mocks.CatalogClient) {
				c.On("GetStock", mock.Anything, int64(1)).Return(repository.Stock{ProductID: 1, Amount: 3}, nil).Once()
			},
			expectedNotify: MessageOutOfStock,
			expectedErr:    ErrStockExceeded,
			expectedItems:  []repository.CartItem{{Product: sneaker, Amount: 3}},
		},
		{
			name: "error: product fetch fails",
			setupCatalog: func(c *mocks.CatalogClient) {
				c.On("GetProduct", mock.Anything, int64(1)).Return(repository.Product{}, errors.New("connection refused")).Once()
			},
			expectedNotify: MessageAddFailed,
			expectedErr:    ErrCatalogUnavailable,
			expectedItems:  []repository.CartItem{},
		},
		{
			name: "error: stock fetch fails",
			seed: []repository.CartItem{{Product: sneaker, Amount: 1}},
			setupCatalog: func(c *mocks.CatalogClient) {
				c.On("GetStock", mock.Anything, int64(1)).Return(repository.Stock{}, errors.New("status 500")).Once()
			},
			expectedNotify: MessageAddFailed,
			expectedErr:    ErrCatalogUnavailable,
			expectedItems:  []repository.CartItem{{Product: sneaker, Amount: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			catalog := mocks.NewCatalogClient(t)
			notifier := mocks.NewNotifier(t)
			repo := memory.NewMemoryRepository(seedSnapshot(t, tt.seed...))
			tt.setupCatalog(catalog)
			if tt.expectedNotify != "" {
				notifier.On("ReportError", mock.Anything, tt.expectedNotify).Once()
			}

			svc := newTestService(t, catalog, notifier, repo)

			// Act
			err := svc.AddProduct(ctx, 1)

			// Assert
			if tt.expectedErr != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tt.expectedErr), "expected %v, got %v", tt.expectedErr, err)
			} else {
				require.NoError(t, err)
			}

			cart := svc.Cart()
			require.Equal(t, tt.expectedItems, cart.Items)
			requireInvariants(t, cart)
			require.Equal(t, tt.expectedSaves, repo.Saves())
			requirePersisted(t, repo, cart)
		})
	}
}

func TestCartService_AddProduct_TwiceOnEmptyCart(t *testing.T) {
	ctx := context.Background()
	catalog := mocks.NewCatalogClient(t)
	notifier := mocks.NewNotifier(t)
	repo := memory.NewMemoryRepository(nil)

	catalog.On("GetProduct", mock.Anything, int64(1)).Return(sneaker, nil).Once()
	catalog.On("GetStock", mock.Anything, int64(1)).Return(repository.Stock{ProductID: 1, Amount: 5}, nil).Once()

	svc := newTestService(t, catalog, notifier, repo)

	require.NoError(t, svc.AddProduct(ctx, 1))
	require.NoError(t, svc.AddProduct(ctx, 1))

	require.Equal(t, []repository.CartItem{{Product: sneaker, Amount: 2}}, svc.Cart().Items)
	require.Equal(t, 2, repo.Saves())
	notifier.AssertNotCalled(t, "ReportError", mock.Anything, mock.Anything)
}

func TestCartService_RemoveProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("success: removes only the target and keeps order", func(t *testing.T) {
		catalog := mocks.NewCatalogClient(t)
		notifier := mocks.NewNotifier(t)
		repo := memory.NewMemoryRepository(seedSnapshot(t,
			repository.CartItem{Product: sneaker, Amount: 1},
			repository.CartItem{Product: runner, Amount: 2},
			repository.CartItem{Product: adidas, Amount: 3},
		))
		svc := newTestService(t, catalog, notifier, repo)

		require.NoError(t, svc.RemoveProduct(ctx, 2))

		cart := svc.Cart()
		require.Equal(t, []repository.CartItem{
			{Product: sneaker, Amount: 1},
			{Product: adidas, Amount: 3},
		}, cart.Items)
		require.Equal(t, 1, repo.Saves())
		requirePersisted(t, repo, cart)
	})

	t.Run("error: product not in cart", func(t *testing.T) {
		catalog := mocks.NewCatalogClient(t)
		notifier := mocks.NewNotifier(t)
		repo := memory.NewMemoryRepository(seedSnapshot(t, repository.CartItem{Product: sneaker, Amount: 1}))
		notifier.On("ReportError", mock.Anything, MessageRemoveFailed).Once()

		svc := newTestService(t, catalog, notifier, repo)

		err := svc.RemoveProduct(ctx, 42)
		require.True(t, errors.Is(err, ErrNotInCart), "got %v", err)
		require.Equal(t, []repository.CartItem{{Product: sneaker, Amount: 1}}, svc.Cart().Items)
		require.Equal(t, 0, repo.Saves())
	})

	t.Run("success: removing the last item leaves an empty cart", func(t *testing.T) {
		catalog := mocks.NewCatalogClient(t)
		notifier := mocks.NewNotifier(t)
		repo := memory.NewMemoryRepository(seedSnapshot(t, repository.CartItem{Product: sneaker, Amount: 4}))
		svc := newTestService(t, catalog, notifier, repo)

		require.NoError(t, svc.RemoveProduct(ctx, 1))
		require.Empty(t, svc.Cart().Items)

		data, err := repo.Load(ctx)
		require.NoError(t, err)
		require.JSONEq(t, `[]`, string(data))
	})
}

func TestCartService_UpdateProductAmount(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name           string
		amount         int
		stock          *repository.Stock
		stockErr       error
		seed           []repository.CartItem
		expectedNotify string
		expectedErr    error
		expectedItems  []repository.CartItem
		expectedSaves  int
	}{
		{
			name:          "success: amount within stock",
			amount:        4,
			stock:         &repository.Stock{ProductID: 1, Amount: 8},
			seed:          []repository.CartItem{{Product: sneaker, Amount: 1}, {Product: runner, Amount: 1}},
			expectedItems: []repository.CartItem{{Product: sneaker, Amount: 4}, {Product: runner, Amount: 1}},
			expectedSaves: 1,
		},
		{
			name:          "success: amount equal to stock",
			amount:        8,
			stock:         &repository.Stock{ProductID: 1, Amount: 8},
			seed:          []repository.CartItem{{Product: sneaker, Amount: 1}},
			expectedItems: []repository.CartItem{{Product: sneaker, Amount: 8}},
			expectedSaves: 1,
		},
		{
			name:          "success: decrement",
			amount:        2,
			stock:         &repository.Stock{ProductID: 1, Amount: 8},
			seed:          []repository.CartItem{{Product: sneaker, Amount: 3}},
			expectedItems: []repository.CartItem{{Product: sneaker, Amount: 2}},
			expectedSaves: 1,
		},
		{
			name:           "error: amount above stock",
			amount:         10,
			stock:          &repository.Stock{ProductID: 1, Amount: 8},
			seed:           []repository.CartItem{{Product: sneaker, Amount: 2}},
			expectedNotify: MessageOutOfStock,
			expectedErr:    ErrStockExceeded,
			expectedItems:  []repository.CartItem{{Product: sneaker, Amount: 2}},
		},
		{
			name:           "error: stock fetch fails",
			amount:         2,
			stockErr:       errors.New("timeout"),
			seed:           []repository.CartItem{{Product: sneaker, Amount: 1}},
			expectedNotify: MessageUpdateAmountFailed,
			expectedErr:    ErrCatalogUnavailable,
			expectedItems:  []repository.CartItem{{Product: sneaker, Amount: 1}},
		},
		{
			name:          "noop: product not in cart",
			amount:        2,
			stock:         &repository.Stock{ProductID: 1, Amount: 8},
			seed:          []repository.CartItem{{Product: runner, Amount: 1}},
			expectedItems: []repository.CartItem{{Product: runner, Amount: 1}},
		},
		{
			name:          "noop: zero amount",
			amount:        0,
			seed:          []repository.CartItem{{Product: sneaker, Amount: 3}},
			expectedItems: []repository.CartItem{{Product: sneaker, Amount: 3}},
		},
		{
			name:          "noop: negative amount",
			amount:        -5,
			seed:          []repository.CartItem{{Product: sneaker, Amount: 3}},
			expectedItems: []repository.CartItem{{Product: sneaker, Amount: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange: при amount <= 0 каталог не настраивается, любой вызов провалит тест
			catalog := mocks.NewCatalogClient(t)
			notifier := mocks.NewNotifier(t)
			repo := memory.NewMemoryRepository(seedSnapshot(t, tt.seed...))

			if tt.stock != nil || tt.stockErr != nil {
				stock := repository.Stock{}
				if tt.stock != nil {
					stock = *tt.stock
				}
				catalog.On("GetStock", mock.Anything, int64(1)).Return(stock, tt.stockErr).Once()
			}
			if tt.expectedNotify != "" {
				notifier.On("ReportError", mock.Anything, tt.expectedNotify).Once()
			}

			svc := newTestService(t, catalog, notifier, repo)

			// Act
			err := svc.UpdateProductAmount(ctx, 1, tt.amount)

			// Assert
			if tt.expectedErr != nil {
				require.True(t, errors.Is(err, tt.expectedErr), "expected %v, got %v", tt.expectedErr, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.expectedItems, svc.Cart().Items)
			require.Equal(t, tt.expectedSaves, repo.Saves())
			requirePersisted(t, repo, svc.Cart())
		})
	}
}

func TestCartService_SnapshotWriteFailure(t *testing.T) {
	ctx := context.Background()
	catalog := mocks.NewCatalogClient(t)
	notifier := mocks.NewNotifier(t)
	repo := repoMocks.NewSnapshotRepository(t)

	repo.On("Load", mock.Anything).Return(nil, repository.ErrNotFound).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()
	catalog.On("GetProduct", mock.Anything, int64(1)).Return(sneaker, nil).Once()
	notifier.On("ReportError", mock.Anything, MessageAddFailed).Once()

	svc := newTestService(t, catalog, notifier, repo)

	err := svc.AddProduct(ctx, 1)
	require.True(t, errors.Is(err, ErrSnapshotUnavailable), "got %v", err)

	// Память не меняется, если снимок не записался
	require.Empty(t, svc.Cart().Items)
}

func TestCartService_SaveReceivesCommittedSnapshot(t *testing.T) {
	ctx := context.Background()
	catalog := mocks.NewCatalogClient(t)
	notifier := mocks.NewNotifier(t)
	repo := repoMocks.NewSnapshotRepository(t)

	repo.On("Load", mock.Anything).Return(seedSnapshot(t, repository.CartItem{Product: sneaker, Amount: 1}), nil).Once()
	catalog.On("GetStock", mock.Anything, int64(1)).Return(repository.Stock{ProductID: 1, Amount: 5}, nil).Once()
	repo.On("Save", mock.Anything, mock.MatchedBy(func(data []byte) bool {
		cart, err := repository.DecodeSnapshot(data)
		return err == nil && len(cart.Items) == 1 && cart.Items[0].Amount == 3
	})).Return(nil).Once()

	svc := newTestService(t, catalog, notifier, repo)

	require.NoError(t, svc.UpdateProductAmount(ctx, 1, 3))
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestNewCartService_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("restores saved cart", func(t *testing.T) {
		repo := memory.NewMemoryRepository(seedSnapshot(t,
			repository.CartItem{Product: adidas, Amount: 2},
			repository.CartItem{Product: sneaker, Amount: 1},
		))
		svc := newTestService(t, mocks.NewCatalogClient(t), mocks.NewNotifier(t), repo)

		require.Equal(t, map[int64]int{3: 2, 1: 1}, svc.Amounts())
		require.Equal(t, int64(3), svc.Cart().Items[0].ID)
	})

	t.Run("corrupt snapshot starts empty and is not overwritten", func(t *testing.T) {
		repo := memory.NewMemoryRepository([]byte(`[{"id":1,"amount":0}]`))
		svc := newTestService(t, mocks.NewCatalogClient(t), mocks.NewNotifier(t), repo)

		require.Empty(t, svc.Cart().Items)
		require.Equal(t, 0, repo.Saves())
	})

	t.Run("storage error fails construction", func(t *testing.T) {
		repo := repoMocks.NewSnapshotRepository(t)
		repo.On("Load", mock.Anything).Return(nil, errors.New("redis: connection refused")).Once()

		_, err := NewCartService(ctx, mocks.NewCatalogClient(t), mocks.NewNotifier(t), repo, zap.NewNop())
		require.Error(t, err)
		require.Contains(t, err.Error(), "load cart snapshot")
	})
}

func TestCartService_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	catalog := mocks.NewCatalogClient(t)
	notifier := mocks.NewNotifier(t)
	repo := memory.NewMemoryRepository(nil)

	catalog.On("GetProduct", mock.Anything, int64(1)).Return(sneaker, nil).Once()
	catalog.On("GetProduct", mock.Anything, int64(3)).Return(adidas, nil).Once()
	catalog.On("GetStock", mock.Anything, int64(3)).Return(repository.Stock{ProductID: 3, Amount: 10}, nil).Once()

	first := newTestService(t, catalog, notifier, repo)
	require.NoError(t, first.AddProduct(ctx, 1))
	require.NoError(t, first.AddProduct(ctx, 3))
	require.NoError(t, first.UpdateProductAmount(ctx, 3, 6))

	second := newTestService(t, catalog, notifier, repo)
	require.Equal(t, first.Cart(), second.Cart())
}

func TestCartService_NonPositiveProductID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name           string
		op             func(svc *CartService, productID int64) error
		expectedNotify string
		expectedErr    error
	}{
		{
			name:           "add",
			op:             func(svc *CartService, id int64) error { return svc.AddProduct(ctx, id) },
			expectedNotify: MessageAddFailed,
			expectedErr:    ErrCatalogUnavailable,
		},
		{
			name:           "remove",
			op:             func(svc *CartService, id int64) error { return svc.RemoveProduct(ctx, id) },
			expectedNotify: MessageRemoveFailed,
			expectedErr:    ErrNotInCart,
		},
		{
			name: "update is a no-op",
			op:   func(svc *CartService, id int64) error { return svc.UpdateProductAmount(ctx, id, 2) },
		},
	}

	for _, tt := range tests {
		for _, productID := range []int64{0, -1} {
			t.Run(fmt.Sprintf("%s id=%d", tt.name, productID), func(t *testing.T) {
				// Arrange: каталог без ожиданий, любой вызов провалит тест
				catalog := mocks.NewCatalogClient(t)
				notifier := mocks.NewNotifier(t)
				seed := []repository.CartItem{{Product: sneaker, Amount: 1}}
				repo := memory.NewMemoryRepository(seedSnapshot(t, seed...))
				if tt.expectedNotify != "" {
					notifier.On("ReportError", mock.Anything, tt.expectedNotify).Once()
				}

				svc := newTestService(t, catalog, notifier, repo)

				// Act
				err := tt.op(svc, productID)

				// Assert
				if tt.expectedErr != nil {
					require.ErrorIs(t, err, tt.expectedErr)
				} else {
					require.NoError(t, err)
				}
				require.Equal(t, seed, svc.Cart().Items)
				require.Zero(t, repo.Saves())
			})
		}
	}
}

func TestCartService_AddProduct_CatalogReturnsOtherID(t *testing.T) {
	tests := []struct {
		name     string
		returned repository.Product
	}{
		{name: "zero id", returned: repository.Product{ID: 0, Title: "x", Price: 1}},
		{name: "different product", returned: adidas},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := mocks.NewCatalogClient(t)
			notifier := mocks.NewNotifier(t)
			repo := memory.NewMemoryRepository(nil)

			catalog.On("GetProduct", mock.Anything, int64(1)).Return(tt.returned, nil).Once()
			notifier.On("ReportError", mock.Anything, MessageAddFailed).Once()

			svc := newTestService(t, catalog, notifier, repo)

			err := svc.AddProduct(context.Background(), 1)
			require.ErrorIs(t, err, ErrCatalogUnavailable)
			require.Empty(t, svc.Cart().Items)
			require.Zero(t, repo.Saves())
		})
	}
}

// Всё, что сервис зафиксировал, читается обратно после перезапуска
func TestCartService_ZeroIDDoesNotBreakRestart(t *testing.T) {
	ctx := context.Background()
	catalog := mocks.NewCatalogClient(t)
	notifier := mocks.NewNotifier(t)
	repo := memory.NewMemoryRepository(nil)

	catalog.On("GetProduct", mock.Anything, int64(1)).Return(sneaker, nil).Once()
	catalog.On("GetProduct", mock.Anything, int64(0)).Return(repository.Product{ID: 0, Title: "x", Price: 1}, nil).Maybe()
	notifier.On("ReportError", mock.Anything, MessageAddFailed).Once()

	first := newTestService(t, catalog, notifier, repo)
	require.NoError(t, first.AddProduct(ctx, 1))
	require.ErrorIs(t, first.AddProduct(ctx, 0), ErrCatalogUnavailable)
	require.Len(t, first.Cart().Items, 1)

	second := newTestService(t, catalog, notifier, repo)
	require.Equal(t, first.Cart(), second.Cart())
	require.Equal(t, []repository.CartItem{{Product: sneaker, Amount: 1}}, second.Cart().Items)
	catalog.AssertNotCalled(t, "GetProduct", mock.Anything, int64(0))
}

func TestCartService_ConcurrentAddsOnSameProduct(t *testing.T) {
	ctx := context.Background()
	catalog := mocks.NewCatalogClient(t)
	notifier := mocks.NewNotifier(t)
	repo := memory.NewMemoryRepository(seedSnapshot(t, repository.CartItem{Product: sneaker, Amount: 1}))

	const workers = 20
	const stock = 5

	catalog.On("GetStock", mock.Anything, int64(1)).Return(repository.Stock{ProductID: 1, Amount: stock}, nil)
	notifier.On("ReportError", mock.Anything, MessageOutOfStock)

	svc := newTestService(t, catalog, notifier, repo)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.AddProduct(ctx, 1)
		}()
	}
	wg.Wait()

	cart := svc.Cart()
	requireInvariants(t, cart)
	require.Equal(t, stock, cart.Items[0].Amount)

	// Ровно stock-1 успешных добавлений, остальные отклонены с одним уведомлением
	require.Equal(t, stock-1, repo.Saves())
	notifier.AssertNumberOfCalls(t, "ReportError", workers-(stock-1))
	requirePersisted(t, repo, cart)
	require.Equal(t, 0, svc.locks.size())
}

func TestCartService_ConcurrentDifferentProducts(t *testing.T) {
	ctx := context.Background()
	catalog := mocks.NewCatalogClient(t)
	notifier := mocks.NewNotifier(t)
	repo := memory.NewMemoryRepository(nil)

	products := []repository.Product{sneaker, runner, adidas}
	for _, p := range products {
		catalog.On("GetProduct", mock.Anything, p.ID).Return(p, nil).Once()
	}

	svc := newTestService(t, catalog, notifier, repo)

	var wg sync.WaitGroup
	for _, p := range products {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			assert.NoError(t, svc.AddProduct(ctx, id))
		}(p.ID)
	}
	wg.Wait()

	cart := svc.Cart()
	require.Len(t, cart.Items, 3)
	requireInvariants(t, cart)
	require.Equal(t, 3, repo.Saves())
	requirePersisted(t, repo, cart)
}
