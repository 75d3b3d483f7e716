package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SergeyBogomolovv/orders-ms/internal/entities"
	"github.com/SergeyBogomolovv/orders-ms/pkg/trm"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type postgresRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewPostgresRepo(db *sqlx.DB) *postgresRepo {
	return &postgresRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// CreateOrder сохраняет заказ и его позиции. Атомарность обеспечивается
// транзакцией из контекста (trm.Manager).
func (r *postgresRepo) CreateOrder(ctx context.Context, o entities.Order) (entities.Order, error) {
	query, args := r.qb.Insert("orders").
		Columns("status", "total_amount", "total_items").
		Values(string(o.Status), o.TotalAmount, o.TotalItems).
		Suffix("RETURNING order_id, status, total_amount, total_items, created_at, updated_at").
		MustSql()

	var order Order
	if err := r.getContext(ctx, &order, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	// Позиции вставляются одним запросом
	q := r.qb.Insert("order_items").
		Columns("order_id", "product_id", "quantity", "price")

	for _, it := range o.Items {
		q = q.Values(order.OrderID, it.ProductID, it.Quantity, it.Price)
	}

	query, args = q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to insert order items: %w", err)
	}

	created := OrderToEntity(order, nil)
	created.Items = make([]entities.OrderItem, len(o.Items))
	copy(created.Items, o.Items)

	return created, nil
}

func (r *postgresRepo) CountOrders(ctx context.Context, status *entities.OrderStatus) (int64, error) {
	q := r.qb.Select("COUNT(*)").From("orders")
	if status != nil {
		q = q.Where(sq.Eq{"status": string(*status)})
	}
	query, args := q.MustSql()

	var count int64
	if err := r.getContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// ListOrders возвращает страницу заказов без позиций, позиции нужны
// только при чтении одного заказа.
func (r *postgresRepo) ListOrders(ctx context.Context, status *entities.OrderStatus, offset, limit uint64) ([]entities.Order, error) {
	q := r.qb.Select("order_id", "status", "total_amount", "total_items", "created_at", "updated_at").
		From("orders").
		OrderBy("created_at DESC").
		Offset(offset).
		Limit(limit)
	if status != nil {
		q = q.Where(sq.Eq{"status": string(*status)})
	}
	query, args := q.MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}

	result := make([]entities.Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, OrderToEntity(order, nil))
	}
	return result, nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	// Получаем заказ
	query, args := r.qb.Select("order_id", "status", "total_amount", "total_items", "created_at", "updated_at").
		From("orders").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	// Получаем позиции
	query, args = r.qb.Select("item_id", "order_id", "product_id", "quantity", "price").
		From("order_items").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order items: %w", err)
	}

	return OrderToEntity(order, items), nil
}

func (r *postgresRepo) UpdateOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) (entities.Order, error) {
	query, args := r.qb.Update("orders").
		Set("status", string(status)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"order_id": orderID}).
		Suffix("RETURNING order_id, status, total_amount, total_items, created_at, updated_at").
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}

	return OrderToEntity(order, nil), nil
}

func (r *postgresRepo) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *postgresRepo) getContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *postgresRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
