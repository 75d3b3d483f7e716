package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/SergeyBogomolovv/orders-ms/internal/entities"
	mocks "github.com/SergeyBogomolovv/orders-ms/internal/handler/mocks"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testOrderID = "550e8400-e29b-41d4-a716-446655440000"

func newTestHandler(t *testing.T) (*amqpHandler, *mocks.MockOrderService) {
	t.Helper()

	svc := mocks.NewMockOrderService(t)
	h := &amqpHandler{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate: validator.New(),
		svc:      svc,
	}
	return h, svc
}

func TestAMQPHandler_CreateOrder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h, svc := newTestHandler(t)

		created := entities.Order{
			ID:          testOrderID,
			Status:      entities.StatusPending,
			TotalAmount: 20.0,
			TotalItems:  2,
			CreatedAt:   time.Now(),
			Items: []entities.OrderItem{
				{ProductID: "A", Quantity: 2, Price: 10.0, Name: "Keyboard"},
			},
		}

		svc.EXPECT().
			CreateOrder(mock.Anything, []entities.CreateOrderItem{{ProductID: "A", Quantity: 2}}).
			Return(created, nil).Once()

		data, err := h.dispatch(context.Background(), cmdCreateOrder,
			[]byte(`{"items":[{"productId":"A","quantity":2}]}`))
		require.NoError(t, err)

		order, ok := data.(Order)
		require.True(t, ok)
		assert.Equal(t, testOrderID, order.ID)
		assert.Equal(t, "PENDING", order.Status)
		assert.Equal(t, 20.0, order.TotalAmount)
		require.Len(t, order.Items, 1)
		assert.Equal(t, "Keyboard", order.Items[0].Name)
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		h, _ := newTestHandler(t)

		_, err := h.dispatch(context.Background(), cmdCreateOrder,
			[]byte(`{"items":[{"productId":"A","quantity":0}]}`))
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, statusCode(err))
	})

	t.Run("empty items rejected", func(t *testing.T) {
		h, _ := newTestHandler(t)

		_, err := h.dispatch(context.Background(), cmdCreateOrder, []byte(`{"items":[]}`))
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, statusCode(err))
	})

	t.Run("malformed json", func(t *testing.T) {
		h, _ := newTestHandler(t)

		_, err := h.dispatch(context.Background(), cmdCreateOrder, []byte(`{`))
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, statusCode(err))
	})

	t.Run("validation failed", func(t *testing.T) {
		h, svc := newTestHandler(t)

		svc.EXPECT().
			CreateOrder(mock.Anything, mock.Anything).
			Return(entities.Order{}, entities.ErrProductValidation).Once()

		_, err := h.dispatch(context.Background(), cmdCreateOrder,
			[]byte(`{"items":[{"productId":"A","quantity":1}]}`))
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, statusCode(err))
	})
}

func TestAMQPHandler_FindAllOrders(t *testing.T) {
	t.Run("with status filter", func(t *testing.T) {
		h, svc := newTestHandler(t)

		svc.EXPECT().
			ListOrders(mock.Anything, mock.MatchedBy(func(p entities.Pagination) bool {
				return p.Page == 2 && p.Limit == 10 &&
					p.Status != nil && *p.Status == entities.StatusPending
			})).
			Return(entities.OrderPage{TotalOrders: 25, Page: 2, TotalPages: 3}, nil).Once()

		data, err := h.dispatch(context.Background(), cmdFindAllOrders,
			[]byte(`{"page":2,"limit":10,"status":"PENDING"}`))
		require.NoError(t, err)

		page, ok := data.(OrderPage)
		require.True(t, ok)
		assert.Equal(t, int64(25), page.TotalOrders)
		assert.Equal(t, 3, page.TotalPages)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		h, _ := newTestHandler(t)

		_, err := h.dispatch(context.Background(), cmdFindAllOrders,
			[]byte(`{"page":1,"limit":10,"status":"SHIPPED"}`))
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, statusCode(err))
	})

	t.Run("zero limit rejected", func(t *testing.T) {
		h, _ := newTestHandler(t)

		_, err := h.dispatch(context.Background(), cmdFindAllOrders,
			[]byte(`{"page":1,"limit":0}`))
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, statusCode(err))
	})
}

func TestAMQPHandler_FindOneOrder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h, svc := newTestHandler(t)

		svc.EXPECT().
			GetOrderByID(mock.Anything, testOrderID).
			Return(entities.Order{ID: testOrderID, Status: entities.StatusPending}, nil).Once()

		data, err := h.dispatch(context.Background(), cmdFindOneOrder,
			[]byte(`{"id":"`+testOrderID+`"}`))
		require.NoError(t, err)

		order, ok := data.(Order)
		require.True(t, ok)
		assert.Equal(t, testOrderID, order.ID)
	})

	t.Run("not found", func(t *testing.T) {
		h, svc := newTestHandler(t)

		svc.EXPECT().
			GetOrderByID(mock.Anything, testOrderID).
			Return(entities.Order{}, entities.ErrOrderNotFound).Once()

		_, err := h.dispatch(context.Background(), cmdFindOneOrder,
			[]byte(`{"id":"`+testOrderID+`"}`))
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, statusCode(err))
	})

	t.Run("invalid id rejected", func(t *testing.T) {
		h, _ := newTestHandler(t)

		_, err := h.dispatch(context.Background(), cmdFindOneOrder, []byte(`{"id":"123"}`))
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, statusCode(err))
	})
}

func TestAMQPHandler_ChangeOrderStatus(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h, svc := newTestHandler(t)

		svc.EXPECT().
			ChangeOrderStatus(mock.Anything, testOrderID, entities.StatusDelivered).
			Return(entities.Order{ID: testOrderID, Status: entities.StatusDelivered}, nil).Once()

		data, err := h.dispatch(context.Background(), cmdChangeOrderStatus,
			[]byte(`{"id":"`+testOrderID+`","status":"DELIVERED"}`))
		require.NoError(t, err)

		order, ok := data.(Order)
		require.True(t, ok)
		assert.Equal(t, "DELIVERED", order.Status)
	})

	t.Run("transition rejected", func(t *testing.T) {
		h, svc := newTestHandler(t)

		svc.EXPECT().
			ChangeOrderStatus(mock.Anything, testOrderID, entities.StatusPending).
			Return(entities.Order{}, entities.ErrStatusTransition).Once()

		_, err := h.dispatch(context.Background(), cmdChangeOrderStatus,
			[]byte(`{"id":"`+testOrderID+`","status":"PENDING"}`))
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, statusCode(err))
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		h, _ := newTestHandler(t)

		_, err := h.dispatch(context.Background(), cmdChangeOrderStatus,
			[]byte(`{"id":"`+testOrderID+`","status":"SHIPPED"}`))
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, statusCode(err))
	})
}

func TestAMQPHandler_UnknownCommand(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.dispatch(context.Background(), "dropTables", []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, errUnknownCommand)
	assert.Equal(t, http.StatusBadRequest, statusCode(err))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusCode(entities.ErrOrderNotFound))
	assert.Equal(t, http.StatusBadRequest, statusCode(entities.ErrProductValidation))
	assert.Equal(t, http.StatusBadRequest, statusCode(entities.ErrStatusTransition))
	assert.Equal(t, http.StatusInternalServerError, statusCode(errors.New("db error")))
}
