package repo

import (
	"time"

	"github.com/SergeyBogomolovv/orders-ms/internal/entities"
)

type Order struct {
	OrderID     string    `db:"order_id"`
	Status      string    `db:"status"`
	TotalAmount float64   `db:"total_amount"`
	TotalItems  int       `db:"total_items"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type OrderItem struct {
	ItemID    string  `db:"item_id"`
	OrderID   string  `db:"order_id"`
	ProductID string  `db:"product_id"`
	Quantity  int     `db:"quantity"`
	Price     float64 `db:"price"`
}

func ItemToEntity(i OrderItem) entities.OrderItem {
	return entities.OrderItem{
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		Price:     i.Price,
	}
}

func OrderToEntity(o Order, items []OrderItem) entities.Order {
	order := entities.Order{
		ID:          o.OrderID,
		Status:      entities.OrderStatus(o.Status),
		TotalAmount: o.TotalAmount,
		TotalItems:  o.TotalItems,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}

	if len(items) > 0 {
		order.Items = make([]entities.OrderItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, ItemToEntity(it))
		}
	}

	return order
}
