package entities

import (
	"errors"
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrProductValidation  = errors.New("product validation failed")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrStatusTransition   = errors.New("status transition not allowed")
	ErrInvalidPagination  = errors.New("invalid pagination params")
)

// ParseOrderStatus возвращает статус из его строкового представления.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderStatus, s)
	}
}

// CanTransitionTo описывает конечный автомат статусов:
// PENDING -> DELIVERED | CANCELLED, терминальные статусы не меняются.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusDelivered || target == StatusCancelled
	default:
		return false
	}
}

type Order struct {
	ID          string
	Status      OrderStatus
	TotalAmount float64
	TotalItems  int
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []OrderItem
}

type OrderItem struct {
	ProductID string
	Quantity  int
	// Price - снапшот цены на момент создания заказа, после записи не меняется
	Price float64
	// Name не хранится в базе, подтягивается из сервиса продуктов при чтении
	Name string
}

// Product - read-only представление товара из внешнего сервиса.
type Product struct {
	ID    string
	Name  string
	Price float64
}

// CreateOrderItem - запрошенная позиция заказа, цена подставляется
// из сервиса продуктов при создании.
type CreateOrderItem struct {
	ProductID string
	Quantity  int
}

type Pagination struct {
	Page   int
	Limit  int
	Status *OrderStatus
}

type OrderPage struct {
	TotalOrders int64
	Page        int
	TotalPages  int
	Next        *string
	Prev        *string
	Orders      []Order
}
