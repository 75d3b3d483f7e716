package handler

import (
	"time"

	"github.com/SergeyBogomolovv/orders-ms/internal/entities"
)

// Response - конверт RPC ответа: либо data, либо error.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error повторяет семантику HTTP статусов, хотя транспорт не HTTP.
type Error struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

type CreateOrderItem struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type OrderPaginationRequest struct {
	Page   int     `json:"page" validate:"required,gte=1"`
	Limit  int     `json:"limit" validate:"required,gte=1"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=PENDING DELIVERED CANCELLED"`
}

type FindOneOrderRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

type ChangeOrderStatusRequest struct {
	ID     string `json:"id" validate:"required,uuid"`
	Status string `json:"status" validate:"required,oneof=PENDING DELIVERED CANCELLED"`
}

// Order представляет заказ в RPC ответе
type Order struct {
	ID          string      `json:"id"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"totalAmount"`
	TotalItems  int         `json:"totalItems"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Items       []OrderItem `json:"items,omitempty"`
}

// OrderItem позиция заказа, name подтягивается из сервиса продуктов
type OrderItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Name      string  `json:"name,omitempty"`
}

type OrderPage struct {
	TotalOrders int64   `json:"totalOrders"`
	Page        int     `json:"page"`
	TotalPages  int     `json:"totalPages"`
	Next        *string `json:"next"`
	Prev        *string `json:"prev"`
	Orders      []Order `json:"orders"`
}

func ItemEntityToJSON(i entities.OrderItem) OrderItem {
	return OrderItem{
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		Price:     i.Price,
		Name:      i.Name,
	}
}

func OrderEntityToJSON(o entities.Order) Order {
	order := Order{
		ID:          o.ID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		TotalItems:  o.TotalItems,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}

	if len(o.Items) > 0 {
		order.Items = make([]OrderItem, 0, len(o.Items))
		for _, it := range o.Items {
			order.Items = append(order.Items, ItemEntityToJSON(it))
		}
	}

	return order
}

func OrderPageEntityToJSON(p entities.OrderPage) OrderPage {
	orders := make([]Order, 0, len(p.Orders))
	for _, o := range p.Orders {
		orders = append(orders, OrderEntityToJSON(o))
	}

	return OrderPage{
		TotalOrders: p.TotalOrders,
		Page:        p.Page,
		TotalPages:  p.TotalPages,
		Next:        p.Next,
		Prev:        p.Prev,
		Orders:      orders,
	}
}

func CreateItemsToEntity(items []CreateOrderItem) []entities.CreateOrderItem {
	result := make([]entities.CreateOrderItem, 0, len(items))
	for _, it := range items {
		result = append(result, entities.CreateOrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return result
}
