package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SergeyBogomolovv/orders-ms/internal/entities"
	"github.com/SergeyBogomolovv/orders-ms/internal/service"
	mocks "github.com/SergeyBogomolovv/orders-ms/internal/service/mocks"
	txMocks "github.com/SergeyBogomolovv/orders-ms/pkg/trm/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderService interface {
	CreateOrder(ctx context.Context, items []entities.CreateOrderItem) (entities.Order, error)
	ListOrders(ctx context.Context, p entities.Pagination) (entities.OrderPage, error)
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	ChangeOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error)
}

func newTestService(t *testing.T) (orderService, *mocks.MockOrderRepo, *mocks.MockProductsClient, *mocks.MockEventPublisher) {
	t.Helper()

	repo := mocks.NewMockOrderRepo(t)
	products := mocks.NewMockProductsClient(t)
	events := mocks.NewMockEventPublisher(t)
	tx := txMocks.NewMockManager(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Транзакция просто выполняет callback
	tx.EXPECT().
		Do(mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}).Maybe()

	svc := service.NewOrderService(logger, tx, repo, products, events)
	return svc, repo, products, events
}

func TestOrderService_CreateOrder(t *testing.T) {
	productA := entities.Product{ID: "A", Name: "Keyboard", Price: 10.0}
	productB := entities.Product{ID: "B", Name: "Mouse", Price: 3.5}

	t.Run("totals and price snapshot", func(t *testing.T) {
		svc, repo, products, events := newTestService(t)

		products.EXPECT().
			ValidateProducts(mock.Anything, []string{"A", "B"}).
			Return([]entities.Product{productA, productB}, nil).Once()

		repo.EXPECT().
			CreateOrder(mock.Anything, mock.Anything).
			RunAndReturn(func(_ context.Context, order entities.Order) (entities.Order, error) {
				order.ID = "order-1"
				order.CreatedAt = time.Now()
				return order, nil
			}).Once()

		events.EXPECT().OrderCreated(mock.Anything, mock.Anything).Return(nil).Once()

		order, err := svc.CreateOrder(context.Background(), []entities.CreateOrderItem{
			{ProductID: "A", Quantity: 2},
			{ProductID: "B", Quantity: 4},
		})
		require.NoError(t, err)

		// 10*2 + 3.5*4 = 34, 2 + 4 = 6
		assert.Equal(t, "order-1", order.ID)
		assert.Equal(t, entities.StatusPending, order.Status)
		assert.InDelta(t, 34.0, order.TotalAmount, 1e-9)
		assert.Equal(t, 6, order.TotalItems)

		require.Len(t, order.Items, 2)
		assert.Equal(t, 10.0, order.Items[0].Price)
		assert.Equal(t, "Keyboard", order.Items[0].Name)
		assert.Equal(t, 3.5, order.Items[1].Price)
		assert.Equal(t, "Mouse", order.Items[1].Name)
	})

	t.Run("end to end scenario", func(t *testing.T) {
		svc, repo, products, events := newTestService(t)

		products.EXPECT().
			ValidateProducts(mock.Anything, []string{"A"}).
			Return([]entities.Product{productA}, nil).Once()

		repo.EXPECT().
			CreateOrder(mock.Anything, mock.Anything).
			RunAndReturn(func(_ context.Context, order entities.Order) (entities.Order, error) {
				order.ID = "order-2"
				return order, nil
			}).Once()

		events.EXPECT().OrderCreated(mock.Anything, mock.Anything).Return(nil).Once()

		order, err := svc.CreateOrder(context.Background(), []entities.CreateOrderItem{
			{ProductID: "A", Quantity: 2},
		})
		require.NoError(t, err)

		assert.InDelta(t, 20.0, order.TotalAmount, 1e-9)
		assert.Equal(t, 2, order.TotalItems)
		require.Len(t, order.Items, 1)
		assert.Equal(t, 10.0, order.Items[0].Price)
		assert.Equal(t, "Keyboard", order.Items[0].Name)
	})

	t.Run("duplicate product ids deduplicated", func(t *testing.T) {
		svc, repo, products, events := newTestService(t)

		products.EXPECT().
			ValidateProducts(mock.Anything, []string{"A"}).
			Return([]entities.Product{productA}, nil).Once()

		repo.EXPECT().
			CreateOrder(mock.Anything, mock.Anything).
			RunAndReturn(func(_ context.Context, order entities.Order) (entities.Order, error) {
				order.ID = "order-3"
				return order, nil
			}).Once()

		events.EXPECT().OrderCreated(mock.Anything, mock.Anything).Return(nil).Once()

		order, err := svc.CreateOrder(context.Background(), []entities.CreateOrderItem{
			{ProductID: "A", Quantity: 1},
			{ProductID: "A", Quantity: 2},
		})
		require.NoError(t, err)
		assert.InDelta(t, 30.0, order.TotalAmount, 1e-9)
		assert.Equal(t, 3, order.TotalItems)
	})

	t.Run("missing product rejected, nothing persisted", func(t *testing.T) {
		svc, _, products, _ := newTestService(t)

		// Сервис продуктов вернул только один товар из двух
		products.EXPECT().
			ValidateProducts(mock.Anything, []string{"A", "B"}).
			Return([]entities.Product{productA}, nil).Once()

		_, err := svc.CreateOrder(context.Background(), []entities.CreateOrderItem{
			{ProductID: "A", Quantity: 1},
			{ProductID: "B", Quantity: 1},
		})
		assert.ErrorIs(t, err, entities.ErrProductValidation)
	})

	t.Run("validation call failed", func(t *testing.T) {
		svc, _, products, _ := newTestService(t)

		products.EXPECT().
			ValidateProducts(mock.Anything, mock.Anything).
			Return(nil, errors.New("transport error")).Once()

		_, err := svc.CreateOrder(context.Background(), []entities.CreateOrderItem{
			{ProductID: "A", Quantity: 1},
		})
		assert.ErrorIs(t, err, entities.ErrProductValidation)
	})

	t.Run("empty items rejected", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		_, err := svc.CreateOrder(context.Background(), nil)
		assert.ErrorIs(t, err, entities.ErrProductValidation)
	})

	t.Run("repo error", func(t *testing.T) {
		svc, repo, products, _ := newTestService(t)
		dbErr := errors.New("db error")

		products.EXPECT().
			ValidateProducts(mock.Anything, mock.Anything).
			Return([]entities.Product{productA}, nil).Once()
		repo.EXPECT().
			CreateOrder(mock.Anything, mock.Anything).
			Return(entities.Order{}, dbErr).Once()

		_, err := svc.CreateOrder(context.Background(), []entities.CreateOrderItem{
			{ProductID: "A", Quantity: 1},
		})
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("publish failure does not fail create", func(t *testing.T) {
		svc, repo, products, events := newTestService(t)

		products.EXPECT().
			ValidateProducts(mock.Anything, mock.Anything).
			Return([]entities.Product{productA}, nil).Once()
		repo.EXPECT().
			CreateOrder(mock.Anything, mock.Anything).
			RunAndReturn(func(_ context.Context, order entities.Order) (entities.Order, error) {
				order.ID = "order-4"
				return order, nil
			}).Once()
		events.EXPECT().
			OrderCreated(mock.Anything, mock.Anything).
			Return(errors.New("kafka down")).Once()

		order, err := svc.CreateOrder(context.Background(), []entities.CreateOrderItem{
			{ProductID: "A", Quantity: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, "order-4", order.ID)
	})
}

func TestOrderService_ListOrders(t *testing.T) {
	testCases := []struct {
		name       string
		page       int
		limit      int
		totalCount int64
		wantPages  int
		wantNext   *string
		wantPrev   *string
	}{
		{
			name:       "middle page",
			page:       2,
			limit:      10,
			totalCount: 25,
			wantPages:  3,
			wantNext:   strPtr("/orders?page=3&limit=10"),
			wantPrev:   strPtr("/orders?page=1&limit=10"),
		},
		{
			name:       "last page",
			page:       3,
			limit:      10,
			totalCount: 25,
			wantPages:  3,
			wantNext:   nil,
			wantPrev:   strPtr("/orders?page=2&limit=10"),
		},
		{
			name:       "single page",
			page:       1,
			limit:      10,
			totalCount: 5,
			wantPages:  1,
			wantNext:   nil,
			wantPrev:   nil,
		},
		{
			name:       "empty result",
			page:       1,
			limit:      10,
			totalCount: 0,
			wantPages:  0,
			wantNext:   nil,
			wantPrev:   nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _, _ := newTestService(t)

			repo.EXPECT().
				CountOrders(mock.Anything, mock.Anything).
				Return(tc.totalCount, nil).Once()
			repo.EXPECT().
				ListOrders(mock.Anything, mock.Anything, uint64(tc.page-1)*uint64(tc.limit), uint64(tc.limit)).
				Return([]entities.Order{}, nil).Once()

			page, err := svc.ListOrders(context.Background(), entities.Pagination{Page: tc.page, Limit: tc.limit})
			require.NoError(t, err)

			assert.Equal(t, tc.totalCount, page.TotalOrders)
			assert.Equal(t, tc.page, page.Page)
			assert.Equal(t, tc.wantPages, page.TotalPages)
			assert.Equal(t, tc.wantNext, page.Next)
			assert.Equal(t, tc.wantPrev, page.Prev)
		})
	}

	t.Run("invalid pagination rejected", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		_, err := svc.ListOrders(context.Background(), entities.Pagination{Page: 1, Limit: 0})
		assert.ErrorIs(t, err, entities.ErrInvalidPagination)

		_, err = svc.ListOrders(context.Background(), entities.Pagination{Page: 0, Limit: 10})
		assert.ErrorIs(t, err, entities.ErrInvalidPagination)
	})

	t.Run("repo error", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		dbErr := errors.New("db error")

		repo.EXPECT().
			CountOrders(mock.Anything, mock.Anything).
			Return(int64(0), dbErr).Maybe()
		repo.EXPECT().
			ListOrders(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, dbErr).Maybe()

		_, err := svc.ListOrders(context.Background(), entities.Pagination{Page: 1, Limit: 10})
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestOrderService_GetOrderByID(t *testing.T) {
	storedOrder := entities.Order{
		ID:          "order-1",
		Status:      entities.StatusPending,
		TotalAmount: 20.0,
		TotalItems:  2,
		Items: []entities.OrderItem{
			{ProductID: "A", Quantity: 2, Price: 10.0},
		},
	}

	t.Run("success with names", func(t *testing.T) {
		svc, repo, products, _ := newTestService(t)

		repo.EXPECT().
			GetOrderByID(mock.Anything, "order-1").
			Return(storedOrder, nil).Once()
		products.EXPECT().
			ValidateProducts(mock.Anything, []string{"A"}).
			Return([]entities.Product{{ID: "A", Name: "Keyboard", Price: 99.0}}, nil).Once()

		order, err := svc.GetOrderByID(context.Background(), "order-1")
		require.NoError(t, err)

		// Цена остаётся снапшотом, даже если у сервиса продуктов она изменилась
		require.Len(t, order.Items, 1)
		assert.Equal(t, 10.0, order.Items[0].Price)
		assert.Equal(t, "Keyboard", order.Items[0].Name)
	})

	t.Run("not found", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)

		repo.EXPECT().
			GetOrderByID(mock.Anything, "not-exist").
			Return(entities.Order{}, entities.ErrOrderNotFound).Once()

		_, err := svc.GetOrderByID(context.Background(), "not-exist")
		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})

	t.Run("revalidation failure", func(t *testing.T) {
		svc, repo, products, _ := newTestService(t)

		repo.EXPECT().
			GetOrderByID(mock.Anything, "order-1").
			Return(storedOrder, nil).Once()
		products.EXPECT().
			ValidateProducts(mock.Anything, mock.Anything).
			Return(nil, errors.New("transport error")).Once()

		_, err := svc.GetOrderByID(context.Background(), "order-1")
		assert.ErrorIs(t, err, entities.ErrProductValidation)
	})
}

func TestOrderService_ChangeOrderStatus(t *testing.T) {
	pendingOrder := entities.Order{
		ID:     "order-1",
		Status: entities.StatusPending,
		Items: []entities.OrderItem{
			{ProductID: "A", Quantity: 1, Price: 10.0},
		},
	}
	products := []entities.Product{{ID: "A", Name: "Keyboard", Price: 10.0}}

	t.Run("same status is a no-op", func(t *testing.T) {
		svc, repo, productsClient, _ := newTestService(t)

		repo.EXPECT().
			GetOrderByID(mock.Anything, "order-1").
			Return(pendingOrder, nil).Once()
		productsClient.EXPECT().
			ValidateProducts(mock.Anything, mock.Anything).
			Return(products, nil).Once()

		// UpdateOrderStatus не ожидается - записи в базу нет
		order, err := svc.ChangeOrderStatus(context.Background(), "order-1", entities.StatusPending)
		require.NoError(t, err)
		assert.Equal(t, entities.StatusPending, order.Status)
	})

	t.Run("pending to delivered", func(t *testing.T) {
		svc, repo, productsClient, events := newTestService(t)

		repo.EXPECT().
			GetOrderByID(mock.Anything, "order-1").
			Return(pendingOrder, nil).Once()
		productsClient.EXPECT().
			ValidateProducts(mock.Anything, mock.Anything).
			Return(products, nil).Once()
		repo.EXPECT().
			UpdateOrderStatus(mock.Anything, "order-1", entities.StatusDelivered).
			Return(entities.Order{ID: "order-1", Status: entities.StatusDelivered, UpdatedAt: time.Now()}, nil).Once()
		events.EXPECT().
			OrderStatusChanged(mock.Anything, mock.Anything).
			Return(nil).Once()

		order, err := svc.ChangeOrderStatus(context.Background(), "order-1", entities.StatusDelivered)
		require.NoError(t, err)
		assert.Equal(t, entities.StatusDelivered, order.Status)
		// Позиции сохраняются в ответе
		require.Len(t, order.Items, 1)
		assert.Equal(t, "Keyboard", order.Items[0].Name)
	})

	t.Run("terminal status rejected", func(t *testing.T) {
		svc, repo, productsClient, _ := newTestService(t)

		delivered := pendingOrder
		delivered.Status = entities.StatusDelivered

		repo.EXPECT().
			GetOrderByID(mock.Anything, "order-1").
			Return(delivered, nil).Once()
		productsClient.EXPECT().
			ValidateProducts(mock.Anything, mock.Anything).
			Return(products, nil).Once()

		_, err := svc.ChangeOrderStatus(context.Background(), "order-1", entities.StatusCancelled)
		assert.ErrorIs(t, err, entities.ErrStatusTransition)
	})

	t.Run("not found, no write attempted", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)

		repo.EXPECT().
			GetOrderByID(mock.Anything, "not-exist").
			Return(entities.Order{}, entities.ErrOrderNotFound).Once()

		_, err := svc.ChangeOrderStatus(context.Background(), "not-exist", entities.StatusDelivered)
		assert.ErrorIs(t, err, entities.ErrOrderNotFound)
	})
}

func strPtr(s string) *string {
	return &s
}
